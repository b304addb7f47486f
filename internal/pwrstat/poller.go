package pwrstat

import "context"

// Poller abstracts the UPS status source so the scrape loop and tests can
// swap the pwrstat command for NUT or a fake.
type Poller interface {
	Poll(ctx context.Context) (StatusMap, error)
	Close() error
}
