// Package config defines the configuration structures of a plexnet model
// run.  No I/O lives here, only plain data types and validation.
package config

import (
	"github.com/turtacn/plexnet/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus collector parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Subsystem string `mapstructure:"subsystem"`
}

// EngineConfig holds the expansion and naming tunables.
type EngineConfig struct {
	// GenerateDepth is the notification depth used when species are
	// declared or updated.  Zero declares species without expanding them.
	GenerateDepth     int    `mapstructure:"generate_depth"`
	NamingStrategy    string `mapstructure:"naming_strategy"` // "refine" | "exhaustive"
	VerifyNames       bool   `mapstructure:"verify_names"`
	RecognitionCache  bool   `mapstructure:"recognition_cache"`
	MaxExhaustiveMols int    `mapstructure:"max_exhaustive_mols"`
}

// RedisCatalogConfig holds the Redis species catalog parameters.
type RedisCatalogConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// KafkaCatalogConfig holds the Kafka species event stream parameters.
type KafkaCatalogConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Brokers   []string `mapstructure:"brokers"`
	Topic     string   `mapstructure:"topic"`
	BatchSize int      `mapstructure:"batch_size"`
}

// CatalogConfig groups the species export sinks.
type CatalogConfig struct {
	Redis RedisCatalogConfig `mapstructure:"redis"`
	Kafka KafkaCatalogConfig `mapstructure:"kafka"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration of a model run.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Catalog CatalogConfig `mapstructure:"catalog"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...interface{}) error {
	return errors.Default(errors.ErrCodeValidation).WithDetailf("config: "+format, args...)
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics are enabled")
	}

	// Engine
	if c.Engine.GenerateDepth < 0 {
		return invalid("engine.generate_depth must be >= 0, got %d", c.Engine.GenerateDepth)
	}
	switch c.Engine.NamingStrategy {
	case "refine", "exhaustive":
	default:
		return invalid("engine.naming_strategy %q is invalid; expected refine|exhaustive", c.Engine.NamingStrategy)
	}
	if c.Engine.MaxExhaustiveMols < 1 {
		return invalid("engine.max_exhaustive_mols must be >= 1, got %d", c.Engine.MaxExhaustiveMols)
	}

	// Catalog
	if r := c.Catalog.Redis; r.Enabled {
		if r.Addr == "" {
			return invalid("catalog.redis.addr is required")
		}
		if r.DB < 0 {
			return invalid("catalog.redis.db must be >= 0, got %d", r.DB)
		}
	}
	if k := c.Catalog.Kafka; k.Enabled {
		if len(k.Brokers) == 0 {
			return invalid("catalog.kafka.brokers must contain at least one broker address")
		}
		if k.Topic == "" {
			return invalid("catalog.kafka.topic is required")
		}
		if k.BatchSize < 1 {
			return invalid("catalog.kafka.batch_size must be >= 1, got %d", k.BatchSize)
		}
	}
	return nil
}
