// Package metrics maps a parsed pwrstat StatusMap onto InfluxDB tags and
// numeric fields, and assembles them into a Point.
// There is no I/O and no shared state; all functions are safe to call from
// any goroutine.
package metrics

import (
	"strings"
	"unicode"

	"github.com/sweeney/pwrstat-scraper/internal/pwrstat"
)

// DefaultTagLabels identify the hardware. They are written as tags, never
// as fields.
var DefaultTagLabels = []string{
	"Model Name",
	"Firmware Number",
	"Rating Voltage",
	"Rating Power",
}

// DefaultValueLabels are the measurements written as float fields.
var DefaultValueLabels = []string{
	"State",
	"Utility Voltage",
	"Output Voltage",
	"Battery Capacity",
	"Remaining Runtime",
	"Load",
}

// Tags are string-valued point attributes keyed by whitespace-free label.
type Tags map[string]string

// Fields are numeric point values keyed by whitespace-free label.
type Fields map[string]float64

// Map selects tagLabels and valueLabels from status.
//
// Each raw value is cut to its first whitespace-delimited token. Tag values
// are stored as-is; field values go through the label's Transform. A label
// absent from status returns *MissingFieldError and a value that cannot be
// coerced returns *ValueCoercionError; no partial result is returned.
func Map(status pwrstat.StatusMap, tagLabels, valueLabels []string) (Tags, Fields, error) {
	tags := make(Tags, len(tagLabels))
	for _, label := range tagLabels {
		raw, ok := status[label]
		if !ok {
			return nil, nil, &MissingFieldError{Label: label, Kind: "tag"}
		}
		tags[Key(label)] = firstToken(raw)
	}

	fields := make(Fields, len(valueLabels))
	for _, label := range valueLabels {
		raw, ok := status[label]
		if !ok {
			return nil, nil, &MissingFieldError{Label: label, Kind: "field"}
		}
		v, err := TransformFor(label).Apply(firstToken(raw))
		if err != nil {
			return nil, nil, &ValueCoercionError{Label: label, Value: raw, Err: err}
		}
		fields[Key(label)] = v
	}
	return tags, fields, nil
}

// Key strips every whitespace rune from label ("Model Name" → "ModelName").
func Key(label string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, label)
}

// firstToken returns the first whitespace-delimited token of s, or "" for a
// blank value.
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
