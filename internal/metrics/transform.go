package metrics

import (
	"fmt"
	"strconv"
)

// Transform selects how a truncated raw value becomes a field value.
type Transform int

const (
	// TransformFloat parses the value as a float64.
	TransformFloat Transform = iota
	// TransformState maps NormalState to 0 and anything else to 1.
	TransformState
)

// NormalState is the only pwrstat State reported as healthy.
const NormalState = "Normal"

// Transforms holds the labels whose Transform is not the default.
// Battery Capacity is listed for documentation; it is a plain float.
var Transforms = map[string]Transform{
	"State":            TransformState,
	"Battery Capacity": TransformFloat,
}

// TransformFor returns the registered Transform for label, or TransformFloat.
func TransformFor(label string) Transform {
	if t, ok := Transforms[label]; ok {
		return t
	}
	return TransformFloat
}

// Apply converts value according to t.
func (t Transform) Apply(value string) (float64, error) {
	switch t {
	case TransformState:
		return stateCode(value), nil
	case TransformFloat:
		return strconv.ParseFloat(value, 64)
	default:
		return 0, fmt.Errorf("unknown transform %d", int(t))
	}
}

func (t Transform) String() string {
	switch t {
	case TransformFloat:
		return "float"
	case TransformState:
		return "state"
	default:
		return fmt.Sprintf("Transform(%d)", int(t))
	}
}

func stateCode(value string) float64 {
	if value == NormalState {
		return 0
	}
	return 1
}
