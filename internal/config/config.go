package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// disabled turns off an optional listener or data source.
const disabled = "off"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize int

	// Reference data sources. An empty ReferenceDataPath selects the
	// embedded defaults; an empty RegionalHazardPath disables the index.
	ReferenceDataPath  string
	RegionalHazardPath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		ReferenceDataPath:  sharedcfg.EnvOrDefault("REFERENCE_DATA_PATH", ""),
		RegionalHazardPath: OptionalPath(sharedcfg.EnvOrDefault("REGIONAL_HAZARD_PATH", "data/district_risk.json")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that may also be changed after Load, e.g. by CLI flags.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.HTTPAddr == "" {
		return errors.New("HTTP_ADDR is required (use \"off\" to disable)")
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	return nil
}

// HTTPEnabled reports whether the health and metrics listener should run.
func (c *Config) HTTPEnabled() bool {
	return c.HTTPAddr != disabled
}

// OptionalPath maps the "off" sentinel to an empty path.
func OptionalPath(v string) string {
	if v == disabled {
		return ""
	}
	return v
}
