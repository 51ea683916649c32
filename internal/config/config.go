package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents tool-level configuration options loaded from
// .cyrus/config.yaml. CLI flags override file settings.
type Config struct {
	// MaxConcurrency is the default concurrency limit for workspace runs
	// (0 = one slot per member in the wave).
	MaxConcurrency int `yaml:"max_concurrency"`

	// MemberTimeout is the per-member command timeout (0 = no timeout).
	MemberTimeout time.Duration `yaml:"-"`

	// LogLevel sets console verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// HistoryDB is the path to the run-history database, relative to the
	// workspace root unless absolute.
	HistoryDB string `yaml:"history_db"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 0,
		MemberTimeout:  0,
		LogLevel:       "info",
		HistoryDB:      filepath.Join(".cyrus", "history.db"),
	}
}

// LoadConfig loads configuration from the given file path. A missing file
// yields defaults without error; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations arrive as strings in YAML.
	type yamlConfig struct {
		MaxConcurrency int    `yaml:"max_concurrency"`
		MemberTimeout  string `yaml:"member_timeout"`
		LogLevel       string `yaml:"log_level"`
		HistoryDB      string `yaml:"history_db"`
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if raw.MaxConcurrency != 0 {
		cfg.MaxConcurrency = raw.MaxConcurrency
	}
	if raw.MemberTimeout != "" {
		timeout, err := time.ParseDuration(raw.MemberTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid member_timeout %q: %w", raw.MemberTimeout, err)
		}
		cfg.MemberTimeout = timeout
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.HistoryDB != "" {
		cfg.HistoryDB = raw.HistoryDB
	}

	return cfg, nil
}

// LoadConfigFromDir loads .cyrus/config.yaml from the given directory.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".cyrus", "config.yaml"))
}

// Validate checks the merged configuration for invalid values.
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}
	if c.MemberTimeout < 0 {
		return fmt.Errorf("member_timeout must be >= 0, got %v", c.MemberTimeout)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

// MergeWithFlags overlays non-nil flag values onto the configuration.
func (c *Config) MergeWithFlags(maxConcurrency *int, memberTimeout *time.Duration, logLevel *string) {
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if memberTimeout != nil {
		c.MemberTimeout = *memberTimeout
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
}
