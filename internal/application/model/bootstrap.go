package model

import (
	"net/http"

	"github.com/turtacn/plexnet/internal/config"
	"github.com/turtacn/plexnet/internal/domain/mol"
	"github.com/turtacn/plexnet/internal/infrastructure/catalog"
	rediscli "github.com/turtacn/plexnet/internal/infrastructure/database/redis"
	"github.com/turtacn/plexnet/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/prometheus"
)

// Open builds a model from configuration: logger, metrics and catalog sinks
// are created as configured.  A nil logger is built from cfg.Log.
func Open(cfg *config.Config, mols *mol.Registry, logger logging.Logger) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		l, err := logging.NewLogger(logging.LogConfig{
			Level:       cfg.Log.Level,
			Format:      cfg.Log.Format,
			OutputPaths: cfg.Log.OutputPaths,
		})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	opts := []Option{WithLogger(logger)}

	var collector prometheus.MetricsCollector
	if cfg.Metrics.Enabled {
		c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
		}, logger)
		if err != nil {
			return nil, err
		}
		collector = c
		opts = append(opts, WithMetrics(prometheus.NewEngineMetrics(c)))
	}

	sinks, err := openSinks(cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithSinks(sinks...))

	m, err := New(mols, cfg.Engine, opts...)
	if err != nil {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}
	m.collector = collector
	return m, nil
}

func openSinks(cfg config.CatalogConfig, logger logging.Logger) ([]catalog.Sink, error) {
	var sinks []catalog.Sink
	if r := cfg.Redis; r.Enabled {
		client, err := rediscli.NewClient(&rediscli.Config{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
		}, logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, catalog.NewRedisCatalog(client, r.KeyPrefix, logger))
	}
	if k := cfg.Kafka; k.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:   k.Brokers,
			Topic:     k.Topic,
			BatchSize: k.BatchSize,
			Acks:      "all",
		}, logger)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, err
		}
		sinks = append(sinks, catalog.NewKafkaCatalog(producer, k.BatchSize, logger))
	}
	return sinks, nil
}

// MetricsHandler serves the model's metrics, or nil when metrics are
// disabled.
func (m *Model) MetricsHandler() http.Handler {
	if m.collector == nil {
		return nil
	}
	return m.collector.Handler()
}
