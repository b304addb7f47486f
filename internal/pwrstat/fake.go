package pwrstat

import "context"

// FakePoller is a test double for Poller.
//
// Single-snapshot mode: pre-seed Status; every Poll() returns a copy of it.
// Sequence mode: pre-seed Sequence; each Poll() returns the next element and
// repeats the last once exhausted. Set Err to inject a failure; with FailOn
// set, the failure starts at that call number (1-based) instead of the first.
type FakePoller struct {
	Status    StatusMap
	Sequence  []StatusMap
	Err       error
	FailOn    int
	CallCount int
	Closed    bool
}

// Poll returns the pre-seeded status for the current call index, or Err.
func (f *FakePoller) Poll(_ context.Context) (StatusMap, error) {
	f.CallCount++
	if f.Err != nil && f.CallCount >= f.FailOn {
		return nil, f.Err
	}

	src := f.Status
	if len(f.Sequence) > 0 {
		idx := f.CallCount - 1
		if idx >= len(f.Sequence) {
			idx = len(f.Sequence) - 1
		}
		src = f.Sequence[idx]
	}

	out := make(StatusMap, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}

// Close records that the poller was closed.
func (f *FakePoller) Close() error {
	f.Closed = true
	return nil
}

// Reset clears all state so the fake can be reused between sub-tests.
func (f *FakePoller) Reset() {
	f.Status = nil
	f.Sequence = nil
	f.Err = nil
	f.FailOn = 0
	f.CallCount = 0
	f.Closed = false
}
