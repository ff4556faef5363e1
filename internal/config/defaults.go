package config

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "plexnet"
	DefaultMetricsSubsystem = "engine"

	DefaultGenerateDepth     = 1
	DefaultNamingStrategy    = "refine"
	DefaultMaxExhaustiveMols = 8

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "plexnet:"

	DefaultKafkaBroker    = "localhost:9092"
	DefaultKafkaTopic     = "plexnet.species"
	DefaultKafkaBatchSize = 100
)

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields already set by the caller are left unchanged.  Booleans that
// default to true are set by the loader, where "unset" can be told apart
// from false.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	// GenerateDepth 0 is a valid explicit value and is left alone.
	if cfg.Engine.NamingStrategy == "" {
		cfg.Engine.NamingStrategy = DefaultNamingStrategy
	}
	if cfg.Engine.MaxExhaustiveMols == 0 {
		cfg.Engine.MaxExhaustiveMols = DefaultMaxExhaustiveMols
	}

	// ── Catalog ───────────────────────────────────────────────────────────────
	if cfg.Catalog.Redis.Addr == "" {
		cfg.Catalog.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Catalog.Redis.KeyPrefix == "" {
		cfg.Catalog.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if len(cfg.Catalog.Kafka.Brokers) == 0 {
		cfg.Catalog.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Catalog.Kafka.Topic == "" {
		cfg.Catalog.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Catalog.Kafka.BatchSize == 0 {
		cfg.Catalog.Kafka.BatchSize = DefaultKafkaBatchSize
	}
}

// Default returns a fully defaulted Config, as a model run without any
// configuration file sees it.
func Default() *Config {
	cfg := &Config{}
	cfg.Engine.GenerateDepth = DefaultGenerateDepth
	cfg.Engine.VerifyNames = true
	cfg.Engine.RecognitionCache = true
	ApplyDefaults(cfg)
	return cfg
}
