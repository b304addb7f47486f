package main

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/pwrstat-scraper/internal/config"
	"github.com/sweeney/pwrstat-scraper/internal/logging"
	"github.com/sweeney/pwrstat-scraper/internal/nut"
	"github.com/sweeney/pwrstat-scraper/internal/publisher"
	"github.com/sweeney/pwrstat-scraper/internal/pwrstat"
	"github.com/sweeney/pwrstat-scraper/internal/scrape"
)

// run loads config, sets up logging, checks the environment, optionally
// daemonizes, connects to the sink and runs the scrape loop until a fatal
// error or ctx is cancelled.
func run(ctx context.Context, opts options, console io.Writer) error {
	// Temporary console logger until the config is known to be good.
	bootLog := zerolog.New(zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(opts.configPaths...)
	if err != nil {
		bootLog.Error().Err(err).Strs("paths", opts.configPaths).Msg("error loading config file")
		return errLogged
	}

	logger, closer, err := logging.New(logging.Options{
		Verbosity: opts.verbose,
		File:      opts.logFile,
		Console:   console,
	})
	if err != nil {
		bootLog.Error().Err(err).Msg("error opening log file")
		return errLogged
	}
	defer closer.Close() //nolint:errcheck

	if cfg.Source.Type == config.SourcePwrstat {
		if _, err := pwrstat.LookPath(cfg.Source.Command); err != nil {
			logger.Error().Err(err).Msg("status command not available")
			return errLogged
		}
	}

	if opts.daemonize {
		parent, release, err := daemonize(opts.pidFile)
		if err != nil {
			logger.Error().Err(err).Msg("error starting daemon")
			return errLogged
		}
		if parent {
			logger.Info().Msg("starting daemon...")
			return nil
		}
		defer release()
	}

	sink, err := connectSink(cfg, opts.series, logger)
	if err != nil {
		return errLogged
	}
	defer sink.Close() //nolint:errcheck

	poller, err := newPoller(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("error connecting to status source")
		return errLogged
	}
	defer poller.Close() //nolint:errcheck

	loop := &scrape.Loop{
		Poller:      poller,
		Publisher:   sink,
		Series:      opts.series,
		Interval:    opts.interval,
		DryRun:      opts.dryRun,
		TagLabels:   cfg.Fields.Tags,
		ValueLabels: cfg.Fields.Values,
		Logger:      logger,
	}
	err = loop.Run(ctx)
	logger.Info().Msg("shutting down...")
	if err != nil {
		logger.Error().Err(err).Msg("scraper stopped")
		return errLogged
	}
	return nil
}

// connectSink pings InfluxDB (creating the database on admin instances) and
// adds the MQTT mirror when enabled. Failures are logged here.
func connectSink(cfg *config.Config, series string, logger zerolog.Logger) (publisher.Publisher, error) {
	influx, err := publisher.NewInfluxPublisher(cfg.Influx)
	if err != nil {
		logger.Error().Err(err).Msg("error connecting to InfluxDB")
		return nil, err
	}
	logger.Info().
		Str("url", cfg.Influx.Addr()).
		Str("db", cfg.Influx.DB).
		Str("version", influx.Version()).
		Bool("admin", cfg.Influx.Admin).
		Msg("connected to InfluxDB")

	if !cfg.MQTT.Enabled {
		return influx, nil
	}

	mirror, err := publisher.NewMQTTPublisher(cfg.MQTT, series)
	if err != nil {
		logger.Error().Err(err).Msg("error connecting to MQTT broker")
		_ = influx.Close()
		return nil, err
	}
	logger.Info().
		Str("broker", cfg.MQTT.Broker).
		Str("topic", publisher.StateTopic(cfg.MQTT.TopicPrefix, series)).
		Msg("mirroring points to MQTT")
	return publisher.Fanout{influx, mirror}, nil
}

func newPoller(cfg *config.Config) (pwrstat.Poller, error) {
	if cfg.Source.Type == config.SourceNUT {
		return nut.NewClient(cfg.NUT.Host, cfg.NUT.Port, cfg.NUT.Username, cfg.NUT.Password, cfg.NUT.UPSName)
	}
	return pwrstat.NewCommandPoller(cfg.Source.Argv(), cfg.Source.Timeout.Duration), nil
}
