package config

import (
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/plexnet/pkg/errors"
)

const envPrefix = "PLEXNET"

// defaultKeys lists every key with its default.  AutomaticEnv only resolves
// keys viper already knows, so each one is registered before Unmarshal.
func defaultKeys(d *Config) map[string]interface{} {
	return map[string]interface{}{
		"log.level":                  d.Log.Level,
		"log.format":                 d.Log.Format,
		"log.output_paths":           d.Log.OutputPaths,
		"metrics.enabled":            d.Metrics.Enabled,
		"metrics.namespace":          d.Metrics.Namespace,
		"metrics.subsystem":          d.Metrics.Subsystem,
		"engine.generate_depth":      d.Engine.GenerateDepth,
		"engine.naming_strategy":     d.Engine.NamingStrategy,
		"engine.verify_names":        d.Engine.VerifyNames,
		"engine.recognition_cache":   d.Engine.RecognitionCache,
		"engine.max_exhaustive_mols": d.Engine.MaxExhaustiveMols,
		"catalog.redis.enabled":      d.Catalog.Redis.Enabled,
		"catalog.redis.addr":         d.Catalog.Redis.Addr,
		"catalog.redis.password":     d.Catalog.Redis.Password,
		"catalog.redis.db":           d.Catalog.Redis.DB,
		"catalog.redis.key_prefix":   d.Catalog.Redis.KeyPrefix,
		"catalog.kafka.enabled":      d.Catalog.Kafka.Enabled,
		"catalog.kafka.brokers":      d.Catalog.Kafka.Brokers,
		"catalog.kafka.topic":        d.Catalog.Kafka.Topic,
		"catalog.kafka.batch_size":   d.Catalog.Kafka.BatchSize,
	}
}

// newViper resolves "engine.generate_depth" from PLEXNET_ENGINE_GENERATE_DEPTH
// when the variable is set.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaultKeys(Default()) {
		v.SetDefault(key, val)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfig, "failed to decode configuration")
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a YAML file, then applies PLEXNET_* overrides and defaults.
// The result is validated.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfig, "failed to read config file").WithDetail(configPath)
	}
	return decode(v)
}

// LoadFromEnv is Load without a file.
func LoadFromEnv() (*Config, error) {
	return decode(newViper())
}

// MustLoad panics when Load fails.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Watch reloads configPath whenever it is written and hands the validated
// result to onChange.  A rewrite that fails to decode or validate goes to
// onError, which may be nil, and the previous settings stay in force.  The
// first read must succeed.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfig, "failed to read config file").WithDetail(configPath)
	}

	var mu sync.Mutex
	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(errors.Wrap(err, errors.CodeUnknown, "config reload rejected").WithDetail(ev.Name))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
