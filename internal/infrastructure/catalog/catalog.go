// Package catalog exports discovered species to external stores.  A Sink
// receives batches of Records; the model flushes newly created species to
// every configured sink.
package catalog

import (
	"context"
	"sort"
	"sync"
)

// Sink names reported in metrics and logs.
const (
	SinkRedis  = "redis"
	SinkKafka  = "kafka"
	SinkMemory = "memory"
)

// Record is the exported view of one species.
type Record struct {
	ModelID    string   `json:"model_id"`
	SpeciesID  int      `json:"species_id"`
	FamilyID   int      `json:"family_id"`
	Name       string   `json:"name"`
	Display    string   `json:"display"`
	Mols       []string `json:"mols"`
	Weight     float64  `json:"weight"`
	Population int      `json:"population"`
}

// Sink stores species records.  Export must be safe to call concurrently
// with other sinks' Export; a single sink is never called concurrently.
type Sink interface {
	Name() string
	Export(ctx context.Context, records []Record) error
	Close() error
}

// MemoryCatalog keeps records in process, keyed by canonical name.  The last
// export of a name wins.
type MemoryCatalog struct {
	mu      sync.RWMutex
	records map[string]Record
	batches int
}

// NewMemoryCatalog returns an empty in-process catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{records: make(map[string]Record)}
}

func (m *MemoryCatalog) Name() string { return SinkMemory }

func (m *MemoryCatalog) Export(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.Name] = r
	}
	m.batches++
	return nil
}

func (m *MemoryCatalog) Close() error { return nil }

// Lookup returns the record stored under a canonical name.
func (m *MemoryCatalog) Lookup(name string) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[name]
	return r, ok
}

// Names returns the stored canonical names in sorted order.
func (m *MemoryCatalog) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.records))
	for n := range m.records {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Batches returns the number of Export calls received.
func (m *MemoryCatalog) Batches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.batches
}
