// Package scrape runs the collect → map → publish cycle on a fixed interval.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/pwrstat-scraper/internal/metrics"
	"github.com/sweeney/pwrstat-scraper/internal/pwrstat"
	"github.com/sweeney/pwrstat-scraper/internal/publisher"
)

// DefaultInterval is the pause between cycles when none is configured.
const DefaultInterval = 15 * time.Second

// Loop polls the UPS and publishes one point per cycle. Cycles never
// overlap: Poll, Publish and the sleep all block the single goroutine
// running Run.
type Loop struct {
	Poller    pwrstat.Poller
	Publisher publisher.Publisher

	// Series is the measurement name written for every point.
	Series   string
	Interval time.Duration
	// DryRun builds every point but never calls Publisher.
	DryRun bool

	// TagLabels and ValueLabels default to metrics.DefaultTagLabels and
	// metrics.DefaultValueLabels when nil.
	TagLabels   []string
	ValueLabels []string

	Logger zerolog.Logger
	// Observer, if set, is called with every point built, dry run or not.
	Observer func(metrics.Point)
	// Now defaults to time.Now.
	Now func() time.Time
}

// shutdownGrace is how long Run waits for ctx to be cancelled after the
// status command dies from SIGINT or SIGTERM. A signal sent to the process
// group can reach the child before signal.NotifyContext cancels ctx.
var shutdownGrace = time.Second

// Run cycles until a fatal error or ctx is cancelled. It returns nil on
// cancellation. A failed poll or a status that cannot be mapped is fatal and
// returned; a failed publish is logged and the loop carries on.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	l.Logger.Info().
		Str("series", l.Series).
		Dur("interval", interval).
		Bool("dry_run", l.DryRun).
		Msg("starting up scraper")

	for {
		if _, err := l.Cycle(ctx); err != nil {
			if l.stopping(ctx, err) {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// Cycle runs one poll → map → build → publish pass and returns the point it
// built. Publish failures are logged, not returned.
func (l *Loop) Cycle(ctx context.Context) (metrics.Point, error) {
	status, err := l.Poller.Poll(ctx)
	if err != nil {
		var cmdErr *pwrstat.CommandError
		if errors.As(err, &cmdErr) && ctx.Err() == nil && !cmdErr.Interrupted() {
			l.logCommandError(cmdErr)
		}
		return metrics.Point{}, fmt.Errorf("collecting UPS status: %w", err)
	}
	l.Logger.Trace().Interface("status", status).Msg("status parsed")

	point, err := l.Build(status)
	if err != nil {
		return metrics.Point{}, err
	}

	l.Logger.Debug().
		Str("measurement", point.Measurement).
		Interface("tags", point.Tags).
		Interface("fields", point.Fields).
		Str("time", point.Timestamp).
		Msg("point built")
	if l.Observer != nil {
		l.Observer(point)
	}

	if l.DryRun {
		return point, nil
	}
	if err := l.Publisher.Publish(point); err != nil {
		l.Logger.Error().Err(err).Msg("error writing point")
	}
	return point, nil
}

// Build maps status onto the configured labels and stamps the point.
func (l *Loop) Build(status pwrstat.StatusMap) (metrics.Point, error) {
	tagLabels := l.TagLabels
	if tagLabels == nil {
		tagLabels = metrics.DefaultTagLabels
	}
	valueLabels := l.ValueLabels
	if valueLabels == nil {
		valueLabels = metrics.DefaultValueLabels
	}

	tags, fields, err := metrics.Map(status, tagLabels, valueLabels)
	if err != nil {
		return metrics.Point{}, fmt.Errorf("mapping UPS status: %w", err)
	}

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return metrics.NewPoint(l.Series, tags, fields, now()), nil
}

// stopping reports whether a failed cycle is part of a shutdown rather than
// a real failure: ctx is already cancelled, or the status command was killed
// by SIGINT/SIGTERM and ctx is cancelled within shutdownGrace.
func (l *Loop) stopping(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var cmdErr *pwrstat.CommandError
	if !errors.As(err, &cmdErr) || !cmdErr.Interrupted() {
		return false
	}

	select {
	case <-ctx.Done():
		return true
	case <-time.After(shutdownGrace):
		l.logCommandError(cmdErr)
		return false
	}
}

func (l *Loop) logCommandError(cmdErr *pwrstat.CommandError) {
	l.Logger.Error().
		Strs("command", cmdErr.Args).
		Int("exit_code", cmdErr.ExitCode()).
		Str("stderr", cmdErr.Stderr).
		Msg("status command failed")
}
