// Package config loads and validates the filesentry configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/filesentry/filesentry/internal/watcher"
)

// Strategy selects how a file is watched.
type Strategy string

const (
	// StrategyNotify uses the OS change-notification facility, with a
	// polling fallback while the parent directory is missing.
	StrategyNotify Strategy = "notify"
	// StrategyPoll compares modification timestamps at a fixed interval.
	StrategyPoll Strategy = "poll"
)

// Config is the top-level configuration for the filesentry CLI.
type Config struct {
	Watches []WatchConfig `yaml:"watches"`
	Logging LoggingConfig `yaml:"logging"`
}

// WatchConfig configures one watched file.
type WatchConfig struct {
	// Path is the file to watch. Required.
	Path string `yaml:"path"`

	// Strategy is "notify" (default) or "poll".
	Strategy Strategy `yaml:"strategy"`

	// PollIntervalMS is the polling interval in milliseconds. Only used by
	// the poll strategy. Default: 500.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// GracePeriodMS is the quiet window in milliseconds a change must hold
	// before notification. 0 disables debouncing; absent means the default
	// of 1000.
	GracePeriodMS *int `yaml:"grace_period_ms"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
	// File is an optional log file path. Empty logs to stderr only.
	File string `yaml:"file"`
}

// DefaultConfig returns the hardcoded defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the configuration from path, applies defaults for absent
// values and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills in zero values.
func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	for i := range c.Watches {
		w := &c.Watches[i]
		if w.Strategy == "" {
			w.Strategy = StrategyNotify
		}
		if w.PollIntervalMS == 0 {
			w.PollIntervalMS = int(watcher.DefaultPollInterval / time.Millisecond)
		}
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Watches) == 0 {
		return fmt.Errorf("no watches configured")
	}
	for i, w := range c.Watches {
		if w.Path == "" {
			return fmt.Errorf("watches[%d]: path is required", i)
		}
		switch w.Strategy {
		case StrategyNotify, StrategyPoll:
		default:
			return fmt.Errorf("watches[%d]: unknown strategy %q (want %q or %q)",
				i, w.Strategy, StrategyNotify, StrategyPoll)
		}
		if w.PollIntervalMS <= 0 {
			return fmt.Errorf("watches[%d]: poll_interval_ms must be > 0, got %d", i, w.PollIntervalMS)
		}
		if w.GracePeriodMS != nil && *w.GracePeriodMS < 0 {
			return fmt.Errorf("watches[%d]: grace_period_ms must be >= 0, got %d", i, *w.GracePeriodMS)
		}
	}
	return nil
}

// PollInterval returns the configured poll interval as a duration.
func (w WatchConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

// GracePeriod returns the configured grace period, or the package default
// when the field is absent.
func (w WatchConfig) GracePeriod() time.Duration {
	if w.GracePeriodMS == nil {
		return watcher.DefaultGracePeriod
	}
	return time.Duration(*w.GracePeriodMS) * time.Millisecond
}
