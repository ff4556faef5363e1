package model

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/plexnet/internal/domain/family"
	"github.com/turtacn/plexnet/internal/infrastructure/catalog"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/prometheus"
)

// Pending returns the number of species waiting for export.
func (m *Model) Pending() int { return len(m.pending) }

// Record builds the catalog record of s.
func (m *Model) Record(s *family.Species) (catalog.Record, error) {
	name, err := m.CanonicalName(s)
	if err != nil {
		return catalog.Record{}, err
	}
	display, err := m.DisplayName(s)
	if err != nil {
		return catalog.Record{}, err
	}
	paradigm := s.Family().Paradigm()
	mols := make([]string, paradigm.MolCount())
	for i := range mols {
		mols[i] = paradigm.Mol(i).Name()
	}
	return catalog.Record{
		ModelID:    m.id,
		SpeciesID:  int(s.ID()),
		FamilyID:   int(s.Family().ID()),
		Name:       name,
		Display:    display,
		Mols:       mols,
		Weight:     s.Weight(),
		Population: s.Population(),
	}, nil
}

// Flush exports every species created since the last successful flush to
// all sinks concurrently.  On failure the species stay queued and the next
// Flush exports them again; sinks must tolerate re-export of a name.
func (m *Model) Flush(ctx context.Context) error {
	if len(m.pending) == 0 || len(m.sinks) == 0 {
		return nil
	}
	timer := prometheus.NewTimer(m.metrics.CatalogFlushDuration.WithLabelValues())
	defer timer.ObserveDuration()

	batch := m.pending
	records := make([]catalog.Record, 0, len(batch))
	for _, s := range batch {
		r, err := m.Record(s)
		if err != nil {
			return m.fail("flush", err)
		}
		records = append(records, r)
	}

	g, gCtx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	failed := 0
	for _, sink := range m.sinks {
		sink := sink
		g.Go(func() error {
			err := sink.Export(gCtx, records)
			prometheus.RecordCatalogExport(m.metrics, sink.Name(), err)
			if err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				m.logger.Warn("catalog export failed",
					logging.String("sink", sink.Name()),
					logging.Int("records", len(records)),
					logging.Err(err))
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Error("flush failed", logging.Int("failed_sinks", failed), logging.Err(err))
		return err
	}

	m.pending = m.pending[len(batch):]
	m.metrics.CatalogPending.WithLabelValues().Set(float64(len(m.pending)))
	m.logger.Info("species flushed",
		logging.Int("records", len(records)),
		logging.Int("sinks", len(m.sinks)))
	return nil
}

// Close closes every sink and returns the first error.
func (m *Model) Close() error {
	var first error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			m.logger.Warn("failed to close sink", logging.String("sink", sink.Name()), logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
