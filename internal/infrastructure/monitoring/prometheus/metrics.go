package prometheus

import (
	"time"
)

// Label values shared by engine metrics.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// EngineMetrics holds the metrics of one model run.
type EngineMetrics struct {
	// Registry
	FamiliesTotal       CounterVec
	SpeciesTotal        CounterVec
	RecognitionsTotal   CounterVec
	HashCollisionsTotal CounterVec
	IsoSearchesTotal    CounterVec
	NotificationsTotal  CounterVec

	// Reactions
	ReactionsTotal CounterVec

	// Naming
	CanonicalizeDuration HistogramVec

	// Catalog
	CatalogExportsTotal  CounterVec
	CatalogFlushDuration HistogramVec
	CatalogPending       GaugeVec
}

// Default Buckets
var (
	DefaultCanonicalizeBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5}
	DefaultFlushBuckets        = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewEngineMetrics registers all engine metrics on collector.
func NewEngineMetrics(collector MetricsCollector) *EngineMetrics {
	m := &EngineMetrics{}

	m.FamiliesTotal = collector.RegisterCounter("families_total", "Families created")
	m.SpeciesTotal = collector.RegisterCounter("species_total", "Species created")
	m.RecognitionsTotal = collector.RegisterCounter("recognitions_total", "Complex recognitions by outcome", "outcome")
	m.HashCollisionsTotal = collector.RegisterCounter("hash_collisions_total", "Equal-hash families that were not isomorphic")
	m.IsoSearchesTotal = collector.RegisterCounter("iso_searches_total", "Isomorphism searches", "kind", "result")
	m.NotificationsTotal = collector.RegisterCounter("notifications_total", "Feature notifications", "feature")

	m.ReactionsTotal = collector.RegisterCounter("reactions_total", "Reactions generated", "kind")

	m.CanonicalizeDuration = collector.RegisterHistogram("canonicalize_duration_seconds", "Canonical labeling duration", DefaultCanonicalizeBuckets, "strategy")

	m.CatalogExportsTotal = collector.RegisterCounter("catalog_exports_total", "Species catalog exports", "sink", "status")
	m.CatalogFlushDuration = collector.RegisterHistogram("catalog_flush_duration_seconds", "Catalog flush duration", DefaultFlushBuckets)
	m.CatalogPending = collector.RegisterGauge("catalog_pending", "Species queued for export")

	return m
}

// NewNoopEngineMetrics returns metrics that record nothing.
func NewNoopEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		FamiliesTotal:        noopCounterVec{},
		SpeciesTotal:         noopCounterVec{},
		RecognitionsTotal:    noopCounterVec{},
		HashCollisionsTotal:  noopCounterVec{},
		IsoSearchesTotal:     noopCounterVec{},
		NotificationsTotal:   noopCounterVec{},
		ReactionsTotal:       noopCounterVec{},
		CanonicalizeDuration: noopHistogramVec{},
		CatalogExportsTotal:  noopCounterVec{},
		CatalogFlushDuration: noopHistogramVec{},
		CatalogPending:       noopGaugeVec{},
	}
}

// Helpers

func statusOf(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusFailure
}

func RecordFamily(metrics *EngineMetrics) {
	metrics.FamiliesTotal.WithLabelValues().Inc()
}

func RecordSpecies(metrics *EngineMetrics) {
	metrics.SpeciesTotal.WithLabelValues().Inc()
}

func RecordRecognition(metrics *EngineMetrics, outcome string) {
	metrics.RecognitionsTotal.WithLabelValues(outcome).Inc()
}

func RecordHashCollision(metrics *EngineMetrics) {
	metrics.HashCollisionsTotal.WithLabelValues().Inc()
}

func RecordIsoSearch(metrics *EngineMetrics, kind string, found bool) {
	result := "miss"
	if found {
		result = "found"
	}
	metrics.IsoSearchesTotal.WithLabelValues(kind, result).Inc()
}

func RecordNotification(metrics *EngineMetrics, feature string) {
	metrics.NotificationsTotal.WithLabelValues(feature).Inc()
}

func RecordReaction(metrics *EngineMetrics, kind string) {
	metrics.ReactionsTotal.WithLabelValues(kind).Inc()
}

func RecordCanonicalize(metrics *EngineMetrics, strategy string, duration time.Duration) {
	metrics.CanonicalizeDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordCatalogExport counts one species export to sink.
func RecordCatalogExport(metrics *EngineMetrics, sink string, err error) {
	metrics.CatalogExportsTotal.WithLabelValues(sink, statusOf(err == nil)).Inc()
}
