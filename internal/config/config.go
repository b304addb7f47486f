// Package config loads configuration from a YAML or TOML file, applies
// environment variable overrides and validates the result.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Source types.
const (
	SourcePwrstat = "pwrstat"
	SourceNUT     = "nut"
)

// ErrNoConfigFile is returned when paths were given but none of them exist.
var ErrNoConfigFile = errors.New("no config file found")

// Duration wraps time.Duration so that "30s"-style strings decode from both
// TOML (encoding.TextUnmarshaler) and YAML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = dur
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// InfluxConfig holds InfluxDB 1.x connection settings.
type InfluxConfig struct {
	Host      string   `toml:"host" yaml:"host" validate:"required"`
	Port      int      `toml:"port" yaml:"port" validate:"min=1,max=65535"`
	User      string   `toml:"user" yaml:"user"`
	Password  string   `toml:"password" yaml:"password"`
	DB        string   `toml:"db" yaml:"db" validate:"required"`
	Admin     bool     `toml:"admin" yaml:"admin"`
	SSL       bool     `toml:"ssl" yaml:"ssl"`
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
	Precision string   `toml:"precision" yaml:"precision" validate:"omitempty,oneof=ns u ms s m h"`
}

// Addr returns the InfluxDB HTTP base URL.
func (c InfluxConfig) Addr() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// SourceConfig selects where UPS status comes from.
// Command and Args apply to the pwrstat source; a zero Timeout waits for the
// command indefinitely.
type SourceConfig struct {
	Type    string   `toml:"type" yaml:"type" validate:"oneof=pwrstat nut"`
	Command string   `toml:"command" yaml:"command" validate:"required_if=Type pwrstat"`
	Args    []string `toml:"args" yaml:"args"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// Argv returns the full command line for the pwrstat source.
func (c SourceConfig) Argv() []string {
	return append([]string{c.Command}, c.Args...)
}

// NUTConfig holds Network UPS Tools client settings, used when the source
// type is "nut".
type NUTConfig struct {
	Host     string `toml:"host" yaml:"host"`
	Port     int    `toml:"port" yaml:"port" validate:"min=1,max=65535"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
	UPSName  string `toml:"ups_name" yaml:"ups_name"`
}

// FieldsConfig lists the status labels written as tags and as fields.
type FieldsConfig struct {
	Tags   []string `toml:"tags" yaml:"tags"`
	Values []string `toml:"values" yaml:"values" validate:"min=1"`
}

// MQTTConfig holds the optional MQTT mirror settings.
type MQTTConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	Broker      string `toml:"broker" yaml:"broker" validate:"required_if=Enabled true"`
	Username    string `toml:"username" yaml:"username"`
	Password    string `toml:"password" yaml:"password"`
	ClientID    string `toml:"client_id" yaml:"client_id"`
	TopicPrefix string `toml:"topic_prefix" yaml:"topic_prefix"`
	Retained    bool   `toml:"retained" yaml:"retained"`
	QOS         byte   `toml:"qos" yaml:"qos" validate:"max=2"`
	TLSCACert   string `toml:"tls_ca_cert" yaml:"tls_ca_cert"`
}

// Config is the top-level configuration struct.
type Config struct {
	Influx InfluxConfig `toml:"influx" yaml:"influx"`
	Source SourceConfig `toml:"source" yaml:"source"`
	NUT    NUTConfig    `toml:"nut" yaml:"nut"`
	Fields FieldsConfig `toml:"fields" yaml:"fields"`
	MQTT   MQTTConfig   `toml:"mqtt" yaml:"mqtt"`
}

// Load reads config from the first existing path in paths, applies
// environment variable overrides and validates the result. Empty paths are
// skipped; if non-empty paths were given and none exist, ErrNoConfigFile is
// returned. Calling Load() with no arguments returns pure defaults plus any
// env overrides, validated.
func Load(paths ...string) (*Config, error) {
	cfg := defaults()

	var tried []string
	found := false
	for _, path := range paths {
		if path == "" {
			continue
		}
		tried = append(tried, path)
		if _, statErr := os.Stat(path); statErr == nil {
			if err := decodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %q: %w", path, err)
			}
			found = true
			break // first found file wins
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("checking config path %q: %w", path, statErr)
		}
	}
	if !found && len(tried) > 0 {
		return nil, fmt.Errorf("%w (tried %s)", ErrNoConfigFile, strings.Join(tried, ", "))
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile picks the decoder from the file extension: TOML for ".toml",
// YAML for everything else.
func decodeFile(path string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.DecodeFile(path, cfg)
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func defaults() *Config {
	return &Config{
		Influx: InfluxConfig{
			Host:      "localhost",
			Port:      8086,
			DB:        "pwrstat",
			Timeout:   Duration{10 * time.Second},
			Precision: "ns",
		},
		Source: SourceConfig{
			Type:    SourcePwrstat,
			Command: "pwrstat",
			Args:    []string{"-status"},
		},
		NUT: NUTConfig{
			Host:    "localhost",
			Port:    3493,
			UPSName: "cyberpower",
		},
		Fields: FieldsConfig{
			Tags:   []string{"Model Name", "Firmware Number", "Rating Voltage", "Rating Power"},
			Values: []string{"State", "Utility Voltage", "Output Voltage", "Battery Capacity", "Remaining Runtime", "Load"},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			TopicPrefix: "ups",
			Retained:    true,
			QOS:         1,
		},
	}
}

// applyEnvOverrides copies any set PWRSTAT_SCRAPER_* environment variables
// into cfg.
func applyEnvOverrides(cfg *Config) {
	envString("PWRSTAT_SCRAPER_INFLUX_HOST", &cfg.Influx.Host)
	envInt("PWRSTAT_SCRAPER_INFLUX_PORT", &cfg.Influx.Port)
	envString("PWRSTAT_SCRAPER_INFLUX_USER", &cfg.Influx.User)
	envString("PWRSTAT_SCRAPER_INFLUX_PASSWORD", &cfg.Influx.Password)
	envString("PWRSTAT_SCRAPER_INFLUX_DB", &cfg.Influx.DB)
	envBool("PWRSTAT_SCRAPER_INFLUX_ADMIN", &cfg.Influx.Admin)
	envBool("PWRSTAT_SCRAPER_INFLUX_SSL", &cfg.Influx.SSL)
	envDuration("PWRSTAT_SCRAPER_INFLUX_TIMEOUT", &cfg.Influx.Timeout)
	envString("PWRSTAT_SCRAPER_INFLUX_PRECISION", &cfg.Influx.Precision)

	envString("PWRSTAT_SCRAPER_SOURCE_TYPE", &cfg.Source.Type)
	envString("PWRSTAT_SCRAPER_SOURCE_COMMAND", &cfg.Source.Command)
	envDuration("PWRSTAT_SCRAPER_SOURCE_TIMEOUT", &cfg.Source.Timeout)

	envString("PWRSTAT_SCRAPER_NUT_HOST", &cfg.NUT.Host)
	envInt("PWRSTAT_SCRAPER_NUT_PORT", &cfg.NUT.Port)
	envString("PWRSTAT_SCRAPER_NUT_USERNAME", &cfg.NUT.Username)
	envString("PWRSTAT_SCRAPER_NUT_PASSWORD", &cfg.NUT.Password)
	envString("PWRSTAT_SCRAPER_NUT_UPS_NAME", &cfg.NUT.UPSName)

	envBool("PWRSTAT_SCRAPER_MQTT_ENABLED", &cfg.MQTT.Enabled)
	envString("PWRSTAT_SCRAPER_MQTT_BROKER", &cfg.MQTT.Broker)
	envString("PWRSTAT_SCRAPER_MQTT_USERNAME", &cfg.MQTT.Username)
	envString("PWRSTAT_SCRAPER_MQTT_PASSWORD", &cfg.MQTT.Password)
	envString("PWRSTAT_SCRAPER_MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	envString("PWRSTAT_SCRAPER_MQTT_TOPIC_PREFIX", &cfg.MQTT.TopicPrefix)
	envBool("PWRSTAT_SCRAPER_MQTT_RETAINED", &cfg.MQTT.Retained)
	if v := os.Getenv("PWRSTAT_SCRAPER_MQTT_QOS"); v != "" {
		if q, err := strconv.ParseUint(v, 10, 8); err == nil {
			cfg.MQTT.QOS = byte(q)
		} else {
			log.Printf("config: ignoring invalid PWRSTAT_SCRAPER_MQTT_QOS=%q: %v", v, err)
		}
	}
	envString("PWRSTAT_SCRAPER_MQTT_TLS_CA_CERT", &cfg.MQTT.TLSCACert)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			log.Printf("config: ignoring invalid %s=%q: %v", key, v, err)
		}
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration{d}
		} else {
			log.Printf("config: ignoring invalid %s=%q: %v", key, v, err)
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}
