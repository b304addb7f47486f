package publisher

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/pwrstat-scraper/internal/config"
	"github.com/sweeney/pwrstat-scraper/internal/metrics"
)

// fakeInflux is a minimal InfluxDB 1.x HTTP API: /ping, /query and /write.
type fakeInflux struct {
	mu        sync.Mutex
	queries   []string
	writes    []string
	writeDB   []string
	pingCode  int
	writeCode int
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Influxdb-Version", "1.8.10")
	switch r.URL.Path {
	case "/ping":
		code := f.pingCode
		if code == 0 {
			code = http.StatusNoContent
		}
		w.WriteHeader(code)
	case "/query":
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[{"statement_id":0}]}`) //nolint:errcheck
	case "/write":
		body, _ := io.ReadAll(r.Body)
		f.writes = append(f.writes, string(body))
		f.writeDB = append(f.writeDB, r.URL.Query().Get("db"))
		code := f.writeCode
		if code == 0 {
			code = http.StatusNoContent
		}
		if code >= 400 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			io.WriteString(w, `{"error":"database not found: \"ups\""}`) //nolint:errcheck
			return
		}
		w.WriteHeader(code)
	default:
		http.NotFound(w, r)
	}
}

func influxConfig(t *testing.T, srv *httptest.Server) config.InfluxConfig {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return config.InfluxConfig{
		Host:      u.Hostname(),
		Port:      port,
		DB:        "ups",
		Timeout:   config.Duration{Duration: 2 * time.Second},
		Precision: "s",
	}
}

func samplePoint() metrics.Point {
	return metrics.NewPoint("pwrstat",
		metrics.Tags{"ModelName": "CP1500PFCLCD", "RatingPower": "900"},
		metrics.Fields{"State": 0, "Load": 99, "BatteryCapacity": 100},
		time.Unix(1718680429, 0),
	)
}

func TestNewInfluxPublisher_PingsAndWrites(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	pub, err := NewInfluxPublisher(influxConfig(t, srv))
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "1.8.10", pub.Version())
	assert.Empty(t, fake.queries, "non-admin instances must not create the database")

	require.NoError(t, pub.Publish(samplePoint()))

	require.Len(t, fake.writes, 1)
	line := strings.TrimSpace(fake.writes[0])
	assert.True(t, strings.HasPrefix(line, "pwrstat,ModelName=CP1500PFCLCD,RatingPower=900 "), line)
	assert.Contains(t, line, "BatteryCapacity=100")
	assert.Contains(t, line, "Load=99")
	assert.Contains(t, line, "State=0")
	assert.True(t, strings.HasSuffix(line, " 1718680429"), line)
	assert.Equal(t, "ups", fake.writeDB[0])
}

func TestInfluxPublisher_DefaultPrecisionKeepsSubSecondPoints(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	defaults, err := config.Load()
	require.NoError(t, err)
	cfg := defaults.Influx
	addr := influxConfig(t, srv)
	cfg.Host, cfg.Port = addr.Host, addr.Port

	pub, err := NewInfluxPublisher(cfg)
	require.NoError(t, err)
	defer pub.Close()

	first := time.Date(2024, 6, 18, 3, 13, 49, 100_000_000, time.UTC)
	for i, ts := range []time.Time{first, first.Add(500 * time.Millisecond)} {
		p := metrics.NewPoint("ups", metrics.Tags{"ModelName": "X"}, metrics.Fields{"Load": float64(i)}, ts)
		require.NoError(t, pub.Publish(p))
	}

	require.Len(t, fake.writes, 2)
	stamps := make([]string, len(fake.writes))
	for i, w := range fake.writes {
		fields := strings.Fields(strings.TrimSpace(w))
		stamps[i] = fields[len(fields)-1]
	}
	assert.Equal(t, "1718680429100000000", stamps[0])
	assert.Equal(t, "1718680429600000000", stamps[1])
}

func TestNewInfluxPublisher_AdminCreatesDatabase(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := influxConfig(t, srv)
	cfg.Admin = true
	pub, err := NewInfluxPublisher(cfg)
	require.NoError(t, err)
	defer pub.Close()

	require.Len(t, fake.queries, 1)
	assert.Equal(t, `CREATE DATABASE "ups"`, fake.queries[0])
}

func TestNewInfluxPublisher_PingFailure(t *testing.T) {
	fake := &fakeInflux{pingCode: http.StatusServiceUnavailable}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := NewInfluxPublisher(influxConfig(t, srv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to InfluxDB")
	assert.Empty(t, fake.writes)
}

func TestNewInfluxPublisher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(&fakeInflux{})
	cfg := influxConfig(t, srv)
	srv.Close()

	_, err := NewInfluxPublisher(cfg)
	assert.Error(t, err)
}

func TestInfluxPublisher_WriteRejected(t *testing.T) {
	fake := &fakeInflux{writeCode: http.StatusNotFound}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	pub, err := NewInfluxPublisher(influxConfig(t, srv))
	require.NoError(t, err)
	defer pub.Close()

	err = pub.Publish(samplePoint())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `database "ups"`)
}
