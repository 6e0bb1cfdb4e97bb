package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the chorewheel server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	DBPath    string `yaml:"db"`         // SQLite database path (default ~/.chorewheel/chorewheel.db, ":memory:" for testing)

	// Horizon is the default calendar length in days; MaxHorizon is the
	// longest calendar a caller may ask for.
	Horizon    int `yaml:"horizon"`
	MaxHorizon int `yaml:"max_horizon"`

	// SessionTTL is how long a login token stays valid.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// RatePerSec and RateBurst configure the API token bucket. Zero RatePerSec disables limiting.
	RatePerSec float64 `yaml:"rate_per_sec"`
	RateBurst  int     `yaml:"rate_burst"`

	// RolloverSpec is the cron spec for carrying overdue chores forward.
	RolloverSpec string `yaml:"rollover_spec"`
	// Timezone is the IANA zone used for cron and for deciding what "today" is.
	Timezone string `yaml:"timezone"`

	MetricsNamespace string `yaml:"metrics_namespace"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:             ":8080",
		LogLevel:         "info",
		LogFormat:        "text",
		Horizon:          90,
		MaxHorizon:       3650,
		SessionTTL:       30 * 24 * time.Hour,
		RatePerSec:       20,
		RateBurst:        40,
		RolloverSpec:     "@daily",
		Timezone:         "UTC",
		MetricsNamespace: "chorewheel",
	}
}

// LoadFile overlays the YAML file at path onto the defaults. Keys missing
// from the file keep their default values.
func LoadFile(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CHOREWHEEL_* environment variables.
func (c *ServerConfig) ApplyEnv() {
	if v := os.Getenv("CHOREWHEEL_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("CHOREWHEEL_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("CHOREWHEEL_TZ"); v != "" {
		c.Timezone = v
	}
}

// Location resolves Timezone, defaulting to UTC.
func (c ServerConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate reports every invalid field.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Horizon <= 0 {
		errs = append(errs, fmt.Errorf("horizon must be positive, got %d", c.Horizon))
	}
	if c.MaxHorizon < c.Horizon {
		errs = append(errs, fmt.Errorf("max_horizon %d must not be below horizon %d", c.MaxHorizon, c.Horizon))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.RatePerSec < 0 {
		errs = append(errs, fmt.Errorf("rate_per_sec must not be negative, got %g", c.RatePerSec))
	}
	if c.RatePerSec > 0 && c.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("rate_burst must be positive when rate limiting, got %d", c.RateBurst))
	}
	if c.RolloverSpec != "" {
		if _, err := cron.ParseStandard(c.RolloverSpec); err != nil {
			errs = append(errs, fmt.Errorf("rollover_spec %q: %w", c.RolloverSpec, err))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}
