package model

import (
	"time"

	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/domain/naming"
	"github.com/turtacn/plexnet/internal/domain/reaction"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/prometheus"
)

// engineObserver turns registry and network events into metrics and queues
// new species for export.
type engineObserver struct {
	m *Model
}

var (
	_ family.Observer   = (*engineObserver)(nil)
	_ reaction.Observer = (*engineObserver)(nil)
)

func (o *engineObserver) FamilyCreated(*family.Family) {
	prometheus.RecordFamily(o.m.metrics)
}

func (o *engineObserver) SpeciesCreated(s *family.Species) {
	prometheus.RecordSpecies(o.m.metrics)
	if len(o.m.sinks) > 0 {
		o.m.pending = append(o.m.pending, s)
		o.m.metrics.CatalogPending.WithLabelValues().Set(float64(len(o.m.pending)))
	}
}

func (o *engineObserver) Recognized(outcome string) {
	prometheus.RecordRecognition(o.m.metrics, outcome)
}

func (o *engineObserver) HashCollision(*family.Family) {
	prometheus.RecordHashCollision(o.m.metrics)
}

func (o *engineObserver) FeatureNotified(kind string) {
	prometheus.RecordNotification(o.m.metrics, kind)
}

func (o *engineObserver) IsoSearched(kind string, found bool) {
	prometheus.RecordIsoSearch(o.m.metrics, kind, found)
}

func (o *engineObserver) ReactionCreated(r *reaction.Reaction) {
	prometheus.RecordReaction(o.m.metrics, string(r.Kind()))
}

func (o *engineObserver) canonicalized(s naming.Strategy, d time.Duration) {
	prometheus.RecordCanonicalize(o.m.metrics, string(s), d)
}
