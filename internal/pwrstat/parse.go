// Package pwrstat runs the CyberPower `pwrstat -status` report and turns its
// dotted label/value lines into a StatusMap.
package pwrstat

import "strings"

// headerLines is the fixed banner pwrstat prints before the first property.
const headerLines = 3

// remainingRuntimeLabel ends in a unit with a trailing period ("65 min."), so
// its value sits in the second-to-last segment rather than the last.
const remainingRuntimeLabel = "Remaining Runtime"

// StatusMap maps a trimmed pwrstat label to its trimmed raw value.
// Labels are not checked against any schema; callers pick what they need.
type StatusMap map[string]string

// Parse converts raw pwrstat output into a StatusMap.
//
// The first three lines are discarded. Every remaining non-empty line that
// contains a period is split on periods: the first segment is the label and
// the last segment the value (second-to-last for Remaining Runtime). A label
// seen twice keeps its last value. Malformed lines are not rejected; whatever
// precedes the first period becomes the label.
func Parse(text string) StatusMap {
	status := make(StatusMap)

	lines := strings.Split(text, "\n")
	if len(lines) <= headerLines {
		return status
	}

	for _, line := range lines[headerLines:] {
		if line == "" || !strings.Contains(line, ".") {
			continue
		}

		parts := strings.Split(line, ".")
		label := strings.TrimSpace(parts[0])

		var value string
		if strings.Contains(line, remainingRuntimeLabel) {
			value = parts[len(parts)-2]
		} else {
			value = parts[len(parts)-1]
		}

		status[label] = strings.TrimSpace(value)
	}
	return status
}
