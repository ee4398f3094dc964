package book

import (
	"sort"
	"sync"

	"github.com/freeeve/openbook/internal/position"
)

// RecordSet holds the candidate replies of one position, unique by move.
// All methods are safe for concurrent use.
type RecordSet struct {
	mu      sync.Mutex
	records []Record
	dirty   bool
}

// NewRecordSet returns a set holding a copy of records.
func NewRecordSet(records ...Record) *RecordSet {
	s := &RecordSet{}
	if len(records) > 0 {
		s.records = append([]Record(nil), records...)
		s.dirty = true
	}
	return s
}

// Append adds r without checking for an existing entry with the same move.
func (s *RecordSet) Append(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	s.dirty = true
}

// Insert adds r. If a record with the same move exists it is left alone
// unless overwrite is set, in which case value, depth and ponder are
// replaced and the counters accumulate.
func (s *RecordSet) Insert(r Record, overwrite bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		existing := &s.records[i]
		if existing.Move != r.Move {
			continue
		}
		if !overwrite {
			return
		}
		existing.Value = r.Value
		existing.Depth = r.Depth
		existing.Ponder = r.Ponder
		existing.Count = saturatingAdd(existing.Count, r.Count)
		existing.Wins = saturatingAdd(existing.Wins, r.Wins)
		existing.Losses = saturatingAdd(existing.Losses, r.Losses)
		s.dirty = true
		return
	}
	s.records = append(s.records, r)
	s.dirty = true
}

// Lookup returns a copy of the record for move m.
func (s *RecordSet) Lookup(m position.Move) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Move == m {
			return r, true
		}
	}
	return Record{}, false
}

// Sort orders the records best first. It does nothing when the set has not
// changed since the last sort.
func (s *RecordSet) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
}

func (s *RecordSet) sortLocked() {
	if !s.dirty {
		return
	}
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Less(s.records[j])
	})
	s.dirty = false
}

// ForEach calls fn on every record in storage order. fn may modify the
// record; doing so marks the set for re-sorting. fn must not call back into
// this set.
func (s *RecordSet) ForEach(fn func(r *Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		fn(&s.records[i])
	}
	s.dirty = true
}

// Len returns the number of records.
func (s *RecordSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// At returns the i-th record in rank order.
func (s *RecordSet) At(i int) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
	return s.records[i]
}

// Best returns the rank-0 record. ok is false for an empty set.
func (s *RecordSet) Best() (r Record, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	s.sortLocked()
	return s.records[0], true
}

// Records returns a sorted copy of the records.
func (s *RecordSet) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
	return append([]Record(nil), s.records...)
}

// Clone returns an independent copy of the set.
func (s *RecordSet) Clone() *RecordSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &RecordSet{
		records: append([]Record(nil), s.records...),
		dirty:   s.dirty,
	}
}
