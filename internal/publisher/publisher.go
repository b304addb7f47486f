// Package publisher delivers metric points to InfluxDB and, optionally, to
// an MQTT broker.
package publisher

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/pwrstat-scraper/internal/metrics"
)

// Publisher is the minimal interface the scrape loop uses to submit points.
// InfluxPublisher, MQTTPublisher, Fanout and FakePublisher implement it.
type Publisher interface {
	Publish(p metrics.Point) error
	Close() error
}

// Fanout publishes each point to every member concurrently.
type Fanout []Publisher

// Publish sends p to all members and waits for them. Every member is tried
// even if another fails; the returned error joins all failures.
func (f Fanout) Publish(p metrics.Point) error {
	errs := make([]error, len(f))
	var g errgroup.Group
	for i, pub := range f {
		i, pub := i, pub
		g.Go(func() error {
			if err := pub.Publish(p); err != nil {
				errs[i] = fmt.Errorf("publisher %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// Close closes every member, joining any errors.
func (f Fanout) Close() error {
	var errs []error
	for _, pub := range f {
		if err := pub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
