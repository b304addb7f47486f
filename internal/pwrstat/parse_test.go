package pwrstat

import (
	"fmt"
	"strings"
	"testing"
)

// sampleOutput is a `pwrstat -status` report from a CP1500PFCLCD on mains.
const sampleOutput = `
The UPS information shows as following:

	Properties:
		Model Name................... CP1500PFCLCD
		Firmware Number.............. CRCA102-3I1
		Rating Voltage............... 120 V
		Rating Power................. 900 Watt(1500 VA)

	Current UPS status:
		State........................ Normal
		Power Supply by.............. Utility Power
		Utility Voltage.............. 121 V
		Output Voltage............... 121 V
		Battery Capacity............. 100 %
		Remaining Runtime............ 65 min.
		Load......................... 99 Watt(11 %)
		Line Interaction............. None
		Test Result.................. Unknown
		Last Power Event............. Blackout at 2019/06/18 03:13:49 for 4 sec.
`

func TestParse_SampleOutput(t *testing.T) {
	got := Parse(sampleOutput)

	want := map[string]string{
		"Model Name":        "CP1500PFCLCD",
		"Firmware Number":   "CRCA102-3I1",
		"Rating Voltage":    "120 V",
		"Rating Power":      "900 Watt(1500 VA)",
		"State":             "Normal",
		"Power Supply by":   "Utility Power",
		"Utility Voltage":   "121 V",
		"Output Voltage":    "121 V",
		"Battery Capacity":  "100 %",
		"Remaining Runtime": "65 min",
		"Load":              "99 Watt(11 %)",
		"Line Interaction":  "None",
		"Test Result":       "Unknown",
		// The trailing "sec." leaves an empty last segment.
		"Last Power Event": "",
	}
	if len(got) != len(want) {
		t.Errorf("got %d entries, want %d: %v", len(got), len(want), got)
	}
	for label, value := range want {
		v, ok := got[label]
		if !ok {
			t.Errorf("label %q missing", label)
			continue
		}
		if v != value {
			t.Errorf("%q = %q, want %q", label, v, value)
		}
	}
}

func TestParse_DropsThreeHeaderLines(t *testing.T) {
	text := "A.......... 1\nB.......... 2\nC.......... 3\nD.......... 4\n"
	got := Parse(text)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(got), got)
	}
	if got["D"] != "4" {
		t.Errorf("D = %q, want %q", got["D"], "4")
	}
}

func TestParse_ShortInput(t *testing.T) {
	for _, text := range []string{"", "one", "one\ntwo", "a.1\nb.2\nc.3"} {
		if got := Parse(text); len(got) != 0 {
			t.Errorf("Parse(%q) = %v, want empty", text, got)
		}
	}
}

func TestParse_SkipsBlankAndPeriodlessLines(t *testing.T) {
	text := "h1\nh2\nh3\n\n\tProperties:\nLoad...... 5 Watt\n   \nfooter without payload\n"
	got := Parse(text)
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1: %v", len(got), got)
	}
	if got["Load"] != "5 Watt" {
		t.Errorf("Load = %q, want %q", got["Load"], "5 Watt")
	}
}

// TestParse_EntryCountMatchesDottedLines checks that N well-formed dotted
// lines after the header yield exactly N entries keyed by the trimmed label.
func TestParse_EntryCountMatchesDottedLines(t *testing.T) {
	for n := 0; n <= 12; n++ {
		var b strings.Builder
		b.WriteString("header\nbanner\n\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "\t\tLabel %d............ value %d\n", i, i)
		}
		got := Parse(b.String())
		if len(got) != n {
			t.Errorf("n=%d: got %d entries", n, len(got))
		}
		for i := 0; i < n; i++ {
			label := fmt.Sprintf("Label %d", i)
			if got[label] != fmt.Sprintf("value %d", i) {
				t.Errorf("n=%d: %q = %q", n, label, got[label])
			}
		}
	}
}

func TestParse_RemainingRuntimeUsesSecondToLastSegment(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Remaining Runtime............ 65 min.", "65 min"},
		{"Remaining Runtime............ 7 min. ", "7 min"},
		// Without the trailing period the second-to-last segment is padding.
		{"Remaining Runtime............ 65 min", ""},
	}
	for _, tt := range tests {
		got := Parse("h\nh\nh\n" + tt.line)
		if got["Remaining Runtime"] != tt.want {
			t.Errorf("%q: value = %q, want %q", tt.line, got["Remaining Runtime"], tt.want)
		}
	}
}

func TestParse_OtherLinesUseLastSegment(t *testing.T) {
	got := Parse("h\nh\nh\nFirmware Number.............. 1.2\nLoad......... 30 Watt(20.0 %)")
	// Periods inside the value split it too; only the final piece survives.
	if got["Firmware Number"] != "2" {
		t.Errorf("Firmware Number = %q, want %q", got["Firmware Number"], "2")
	}
	if got["Load"] != "0 %)" {
		t.Errorf("Load = %q, want %q", got["Load"], "0 %)")
	}
}

func TestParse_DuplicateLabelLastWriteWins(t *testing.T) {
	got := Parse("h\nh\nh\nState....... Normal\nState....... Power Failure\n")
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got["State"] != "Power Failure" {
		t.Errorf("State = %q, want last value %q", got["State"], "Power Failure")
	}
}

func TestParse_MalformedLineKeyedByTextBeforeFirstPeriod(t *testing.T) {
	got := Parse("h\nh\nh\n   garbage. more garbage\n.leading period\n")
	if got["garbage"] != "more garbage" {
		t.Errorf("garbage = %q, want %q", got["garbage"], "more garbage")
	}
	if got[""] != "leading period" {
		t.Errorf("empty label = %q, want %q", got[""], "leading period")
	}
}
