package metrics

import "time"

// Point is one measurement ready for the sink.
// Timestamp is Time rendered as an RFC 3339 UTC instant; the JSON tags
// define the MQTT mirror's wire format.
type Point struct {
	Measurement string    `json:"measurement"`
	Tags        Tags      `json:"tags"`
	Fields      Fields    `json:"fields"`
	Time        time.Time `json:"-"`
	Timestamp   string    `json:"time"`
}

// NewPoint assembles a Point stamped with now in UTC.
func NewPoint(measurement string, tags Tags, fields Fields, now time.Time) Point {
	utc := now.UTC()
	return Point{
		Measurement: measurement,
		Tags:        tags,
		Fields:      fields,
		Time:        utc,
		Timestamp:   utc.Format(time.RFC3339Nano),
	}
}
