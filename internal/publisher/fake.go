package publisher

import "github.com/sweeney/pwrstat-scraper/internal/metrics"

// FakePublisher records every published point so tests can inspect them.
type FakePublisher struct {
	Points       []metrics.Point
	Attempts     int
	PublishError error
	Closed       bool
}

// Publish counts the attempt and records p, or returns PublishError if set.
func (f *FakePublisher) Publish(p metrics.Point) error {
	f.Attempts++
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Points = append(f.Points, p)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Last returns the most recently recorded point, plus a found bool.
func (f *FakePublisher) Last() (metrics.Point, bool) {
	if len(f.Points) == 0 {
		return metrics.Point{}, false
	}
	return f.Points[len(f.Points)-1], true
}

// Reset clears all recorded state so the fake can be reused between sub-tests.
func (f *FakePublisher) Reset() {
	f.Points = nil
	f.Attempts = 0
	f.PublishError = nil
	f.Closed = false
}
