package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoint(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 6, 18, 3, 13, 49, 500, loc)
	tags := Tags{"ModelName": "CP1500PFCLCD"}
	fields := Fields{"Load": 99}

	p := NewPoint("ups", tags, fields, now)

	assert.Equal(t, "ups", p.Measurement)
	assert.Equal(t, tags, p.Tags)
	assert.Equal(t, fields, p.Fields)
	assert.Equal(t, time.UTC, p.Time.Location())
	assert.True(t, p.Time.Equal(now))
	assert.Equal(t, "2024-06-18T08:13:49.0000005Z", p.Timestamp)
}

func TestPoint_JSON(t *testing.T) {
	p := NewPoint("ups", Tags{"ModelName": "X"}, Fields{"State": 0}, time.Unix(0, 0))

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"measurement":"ups","tags":{"ModelName":"X"},"fields":{"State":0},"time":"1970-01-01T00:00:00Z"}`,
		string(b))
}
