package book

import "sync/atomic"

// Stats counts store activity. Counters are updated atomically.
type Stats struct {
	lookups uint64
	hits    uint64
	seeks   uint64
}

// IncrementLookups atomically increments the lookup counter
func (s *Stats) IncrementLookups() {
	atomic.AddUint64(&s.lookups, 1)
}

// IncrementHits atomically increments the hit counter
func (s *Stats) IncrementHits() {
	atomic.AddUint64(&s.hits, 1)
}

// IncrementSeeks atomically increments the lazy seek counter
func (s *Stats) IncrementSeeks() {
	atomic.AddUint64(&s.seeks, 1)
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Lookups uint64 `json:"lookups"`
	Hits    uint64 `json:"hits"`
	Seeks   uint64 `json:"seeks"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Lookups: atomic.LoadUint64(&s.lookups),
		Hits:    atomic.LoadUint64(&s.hits),
		Seeks:   atomic.LoadUint64(&s.seeks),
	}
}
