// Package prometheus exposes engine metrics through a private
// client_golang registry.
package prometheus

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/pkg/errors"
)

// MetricsCollector hands out metric vectors named
// <namespace>_<subsystem>_<name>.  Registering a name twice returns the
// first vector; a clash in type, labels or help yields a no-op vector.
type MetricsCollector interface {
	RegisterCounter(name, help string, labels ...string) CounterVec
	RegisterGauge(name, help string, labels ...string) GaugeVec
	RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec
	Handler() http.Handler
	Gatherer() prometheus.Gatherer
}

type CounterVec interface {
	WithLabelValues(lvs ...string) Counter
}

type Counter interface {
	Inc()
	Add(delta float64)
}

type GaugeVec interface {
	WithLabelValues(lvs ...string) Gauge
}

type Gauge interface {
	Set(value float64)
	Add(delta float64)
}

type HistogramVec interface {
	WithLabelValues(lvs ...string) Histogram
}

type Histogram interface {
	Observe(value float64)
}

// CollectorConfig names the metrics and selects the runtime collectors.
// Nil DefaultHistogramBuckets means prometheus.DefBuckets.
type CollectorConfig struct {
	Namespace               string            `mapstructure:"namespace"`
	Subsystem               string            `mapstructure:"subsystem"`
	EnableProcessMetrics    bool              `mapstructure:"enable_process_metrics"`
	EnableGoMetrics         bool              `mapstructure:"enable_go_metrics"`
	DefaultHistogramBuckets []float64         `mapstructure:"default_histogram_buckets"`
	ConstLabels             map[string]string `mapstructure:"const_labels"`
}

type registryCollector struct {
	reg    *prometheus.Registry
	cfg    CollectorConfig
	logger logging.Logger
}

// NewMetricsCollector builds a collector on a fresh registry.  The namespace
// is required.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (MetricsCollector, error) {
	if cfg.Namespace == "" {
		return nil, errors.New(errors.ErrCodeValidation, "metrics namespace is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.DefaultHistogramBuckets == nil {
		cfg.DefaultHistogramBuckets = prometheus.DefBuckets
	}

	reg := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{Namespace: cfg.Namespace}))
	}
	if cfg.EnableGoMetrics {
		reg.MustRegister(prometheus.NewGoCollector())
	}
	return &registryCollector{reg: reg, cfg: cfg, logger: logger.Named("metrics")}, nil
}

func (c *registryCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *registryCollector) Gatherer() prometheus.Gatherer { return c.reg }

// register adds fresh to the registry.  When an equal collector is already
// there it returns that one instead, provided it has the same Go type.
func register[T prometheus.Collector](c *registryCollector, name string, fresh T) (T, bool) {
	err := c.reg.Register(fresh)
	if err == nil {
		return fresh, true
	}
	var dup prometheus.AlreadyRegisteredError
	if stderrors.As(err, &dup) {
		if existing, ok := dup.ExistingCollector.(T); ok {
			return existing, true
		}
	}
	c.logger.Warn("metric not registered",
		logging.String("name", prometheus.BuildFQName(c.cfg.Namespace, c.cfg.Subsystem, name)),
		logging.Err(err))
	var zero T
	return zero, false
}

func (c *registryCollector) RegisterCounter(name, help string, labels ...string) CounterVec {
	vec, ok := register(c, name, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if !ok {
		return noopCounterVec{}
	}
	return counterVec{vec}
}

func (c *registryCollector) RegisterGauge(name, help string, labels ...string) GaugeVec {
	vec, ok := register(c, name, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels,
	}, labels))
	if !ok {
		return noopGaugeVec{}
	}
	return gaugeVec{vec}
}

func (c *registryCollector) RegisterHistogram(name, help string, buckets []float64, labels ...string) HistogramVec {
	if buckets == nil {
		buckets = c.cfg.DefaultHistogramBuckets
	}
	vec, ok := register(c, name, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: c.cfg.Namespace, Subsystem: c.cfg.Subsystem, Name: name, Help: help,
		ConstLabels: c.cfg.ConstLabels, Buckets: buckets,
	}, labels))
	if !ok {
		return noopHistogramVec{}
	}
	return histogramVec{vec}
}

type counterVec struct{ *prometheus.CounterVec }

func (v counterVec) WithLabelValues(lvs ...string) Counter { return v.CounterVec.WithLabelValues(lvs...) }

type gaugeVec struct{ *prometheus.GaugeVec }

func (v gaugeVec) WithLabelValues(lvs ...string) Gauge { return v.GaugeVec.WithLabelValues(lvs...) }

type histogramVec struct{ *prometheus.HistogramVec }

func (v histogramVec) WithLabelValues(lvs ...string) Histogram {
	return v.HistogramVec.WithLabelValues(lvs...)
}

type noopCounterVec struct{}

func (noopCounterVec) WithLabelValues(...string) Counter { return noopMetric{} }

type noopGaugeVec struct{}

func (noopGaugeVec) WithLabelValues(...string) Gauge { return noopMetric{} }

type noopHistogramVec struct{}

func (noopHistogramVec) WithLabelValues(...string) Histogram { return noopMetric{} }

type noopMetric struct{}

func (noopMetric) Inc()            {}
func (noopMetric) Add(float64)     {}
func (noopMetric) Set(float64)     {}
func (noopMetric) Observe(float64) {}

// Timer records the seconds elapsed since NewTimer.  A nil histogram makes
// it a no-op.
type Timer struct {
	h     Histogram
	start time.Time
}

func NewTimer(h Histogram) *Timer { return &Timer{h: h, start: time.Now()} }

func (t *Timer) ObserveDuration() {
	if t.h != nil {
		t.h.Observe(time.Since(t.start).Seconds())
	}
}
