package nut

import (
	"math"
	"strconv"
	"strings"

	"github.com/sweeney/pwrstat-scraper/internal/pwrstat"
)

// Variable holds a single NUT variable name/value pair.
// Value is always normalised to a string; callers parse as needed.
type Variable struct {
	Name  string
	Value string
}

// VarsToMap converts a []Variable slice into a name→value map.
func VarsToMap(vars []Variable) map[string]string {
	m := make(map[string]string, len(vars))
	for _, v := range vars {
		m[v.Name] = v.Value
	}
	return m
}

// statusTokens maps NUT status tokens to human-readable labels.
var statusTokens = map[string]string{
	"OL":      "Online",
	"OB":      "On Battery",
	"LB":      "Low Battery",
	"HB":      "High Battery",
	"RB":      "Replace Battery",
	"CHRG":    "Charging",
	"DISCHRG": "Discharging",
	"BYPASS":  "Bypass",
	"CAL":     "Calibrating",
	"OFF":     "Offline",
	"OVER":    "Overloaded",
	"TRIM":    "Trimming",
	"BOOST":   "Boosting",
	"FSD":     "Forced Shutdown",
}

// healthyTokens are the ups.status tokens pwrstat would still call "Normal".
var healthyTokens = map[string]bool{"OL": true, "CHRG": true}

// ToStatusMap renders NUT variables as the labels and unit suffixes that
// `pwrstat -status` prints, so the same field mapping applies to both sources.
// A label whose underlying variable is missing or unparseable is left out.
func ToStatusMap(vars map[string]string) pwrstat.StatusMap {
	status := make(pwrstat.StatusMap)

	setIf := func(label, value string) {
		if value != "" {
			status[label] = value
		}
	}

	model := vars["ups.model"]
	if model == "" {
		model = vars["device.model"]
	}
	setIf("Model Name", model)
	firmware := vars["ups.firmware"]
	if firmware == "" {
		firmware = vars["ups.firmware.aux"]
	}
	setIf("Firmware Number", firmware)
	setIf("Rating Voltage", withUnit(vars["input.voltage.nominal"], "V"))
	setIf("Rating Power", withUnit(vars["ups.realpower.nominal"], "Watt"))

	if s := vars["ups.status"]; s != "" {
		status["State"] = stateDisplay(s)
		if hasStatusToken(s, "OB") {
			status["Power Supply by"] = "Battery Power"
		} else {
			status["Power Supply by"] = "Utility Power"
		}
	}
	setIf("Utility Voltage", withUnit(vars["input.voltage"], "V"))
	setIf("Output Voltage", withUnit(vars["output.voltage"], "V"))
	setIf("Battery Capacity", withUnit(vars["battery.charge"], "%"))

	if mins, ok := batteryRuntimeMins(vars); ok {
		status["Remaining Runtime"] = formatFloat(mins) + " min"
	}
	if watts, ok := loadWatts(vars); ok {
		status["Load"] = formatFloat(watts) + " Watt(" + vars["ups.load"] + " %)"
	}
	return status
}

// stateDisplay returns "Normal" for a healthy on-line UPS and otherwise the
// decoded status tokens, e.g. "On Battery, Discharging".
func stateDisplay(status string) string {
	tokens := strings.Fields(status)
	healthy := len(tokens) > 0
	decoded := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !healthyTokens[t] {
			healthy = false
		}
		if name, ok := statusTokens[t]; ok {
			decoded = append(decoded, name)
		} else {
			decoded = append(decoded, t)
		}
	}
	if healthy {
		return "Normal"
	}
	return strings.Join(decoded, ", ")
}

func loadWatts(vars map[string]string) (float64, bool) {
	load, ok := parseFloat(vars["ups.load"])
	if !ok {
		return 0, false
	}
	nominal, ok := parseFloat(vars["ups.realpower.nominal"])
	if !ok {
		return 0, false
	}
	return math.Round(load/100*nominal*100) / 100, true
}

func batteryRuntimeMins(vars map[string]string) (float64, bool) {
	runtime, ok := parseFloat(vars["battery.runtime"])
	if !ok {
		return 0, false
	}
	return math.Round(runtime/60*100) / 100, true
}

func withUnit(value, unit string) string {
	if value == "" {
		return ""
	}
	return value + " " + unit
}

// hasStatusToken reports whether the space-separated status string contains token.
func hasStatusToken(status, token string) bool {
	for _, t := range strings.Fields(status) {
		if t == token {
			return true
		}
	}
	return false
}

// parseFloat converts a NUT value string to float64.
// Returns (0, false) for empty or unparseable strings.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatFloat returns the shortest decimal representation of v with no
// trailing zeros (e.g. 72.0 → "72", 1.37 → "1.37").
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
