package metrics

import "fmt"

// MissingFieldError reports a required label absent from the parsed status.
type MissingFieldError struct {
	Label string
	Kind  string // "tag" or "field"
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required %s label %q missing from status output", e.Kind, e.Label)
}

// ValueCoercionError reports a field value that could not be made numeric.
type ValueCoercionError struct {
	Label string
	Value string
	Err   error
}

func (e *ValueCoercionError) Error() string {
	return fmt.Sprintf("coercing %q value %q: %v", e.Label, e.Value, e.Err)
}

func (e *ValueCoercionError) Unwrap() error { return e.Err }
