package publisher

import (
	"fmt"
	"time"

	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/sweeney/pwrstat-scraper/internal/config"
	"github.com/sweeney/pwrstat-scraper/internal/metrics"
)

// InfluxPublisher writes points to an InfluxDB 1.x database over HTTP.
type InfluxPublisher struct {
	client    client.Client
	db        string
	precision string
	version   string
}

// NewInfluxPublisher creates the HTTP client and pings the server. An
// unreachable server is an error; there is no retry. When cfg.Admin is set
// the database is created before returning.
func NewInfluxPublisher(cfg config.InfluxConfig) (*InfluxPublisher, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:      cfg.Addr(),
		Username:  cfg.User,
		Password:  cfg.Password,
		UserAgent: "pwrstat-scraper",
		Timeout:   cfg.Timeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("creating InfluxDB client for %s: %w", cfg.Addr(), err)
	}

	_, version, err := c.Ping(cfg.Timeout.Duration)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("connecting to InfluxDB at %s: %w", cfg.Addr(), err)
	}

	p := &InfluxPublisher{
		client:    c,
		db:        cfg.DB,
		precision: cfg.Precision,
		version:   version,
	}
	if cfg.Admin {
		if err := p.CreateDatabase(); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return p, nil
}

// Version is the server version reported by the initial ping.
func (p *InfluxPublisher) Version() string { return p.version }

// CreateDatabase issues CREATE DATABASE for the configured database. The
// statement is a no-op if the database already exists.
func (p *InfluxPublisher) CreateDatabase() error {
	resp, err := p.client.Query(client.NewQuery(fmt.Sprintf("CREATE DATABASE %q", p.db), "", ""))
	if err != nil {
		return fmt.Errorf("creating database %q: %w", p.db, err)
	}
	if err := resp.Error(); err != nil {
		return fmt.Errorf("creating database %q: %w", p.db, err)
	}
	return nil
}

// Publish writes p as a single-point batch and waits for the server's
// acknowledgement.
func (p *InfluxPublisher) Publish(pt metrics.Point) error {
	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  p.db,
		Precision: p.precision,
	})
	if err != nil {
		return fmt.Errorf("creating batch: %w", err)
	}

	fields := make(map[string]interface{}, len(pt.Fields))
	for k, v := range pt.Fields {
		fields[k] = v
	}
	ts := pt.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	point, err := client.NewPoint(pt.Measurement, pt.Tags, fields, ts)
	if err != nil {
		return fmt.Errorf("building point: %w", err)
	}
	bp.AddPoint(point)

	if err := p.client.Write(bp); err != nil {
		return fmt.Errorf("writing to InfluxDB database %q: %w", p.db, err)
	}
	return nil
}

// Close releases the HTTP client's idle connections.
func (p *InfluxPublisher) Close() error {
	return p.client.Close()
}
