package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

const (
	defaultConfigFile     = "/etc/pwrstat-scraper/config.yaml"
	fallbackConfigFile    = "./config.yaml"
	defaultIntervalSecond = 15.0
)

// errLogged is returned once a fatal error has already been written to the
// log, so main only sets the exit code.
var errLogged = errors.New("fatal error already logged")

type options struct {
	configPaths []string
	series      string
	daemonize   bool
	interval    time.Duration
	dryRun      bool
	logFile     string
	pidFile     string
	verbose     int
}

func newRootCmd() *cobra.Command {
	var (
		opts         options
		configFile   string
		intervalSecs float64
	)

	cmd := &cobra.Command{
		Use:   "pwrstat-scraper",
		Short: "Scrape CyberPower pwrstat status into InfluxDB",
		Long: `pwrstat-scraper runs "pwrstat -status" on a fixed interval, parses the
report and writes the UPS model, firmware and ratings as tags and its state,
voltages, battery capacity, remaining runtime and load as fields of one
InfluxDB point per cycle.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interval, err := intervalDuration(intervalSecs)
			if err != nil {
				return err
			}
			opts.interval = interval
			opts.configPaths = []string{configFile}
			if !cmd.Flags().Changed("config-file") {
				opts.configPaths = append(opts.configPaths, fallbackConfigFile)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer cancel()
			return run(ctx, opts, cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config-file", "c", defaultConfigFile, "path to YAML or TOML config file")
	flags.StringVar(&opts.series, "series", "", "series (measurement) name to write")
	flags.BoolVarP(&opts.daemonize, "daemonize", "d", false, "run in the background")
	flags.Float64VarP(&intervalSecs, "interval", "n", defaultIntervalSecond, "time between readings in seconds")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "parse and build points without writing them")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs to this file")
	flags.StringVar(&opts.pidFile, "pid-file", "", "PID file written when daemonized")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	_ = cmd.MarkFlagRequired("series")

	return cmd
}

// intervalDuration converts --interval seconds to a Duration. Values that
// are not positive, overflow, or round down to zero are rejected.
func intervalDuration(secs float64) (time.Duration, error) {
	if !(secs > 0) || secs > float64(math.MaxInt64)/float64(time.Second) {
		return 0, fmt.Errorf("--interval must be a positive number of seconds, got %v", secs)
	}
	d := time.Duration(secs * float64(time.Second))
	if d <= 0 {
		return 0, fmt.Errorf("--interval %v is shorter than 1ns", secs)
	}
	return d, nil
}
