// Package memory implements experience-based retrieval: a bounded log of
// past decisions, each tagged with the traffic state it was made in and
// the reward it earned, retrieved by similarity to guide future
// decisions.
package memory

import (
	"sync"

	"github.com/junctionlab/signalcore/approach"
)

// StateVectorSize is 6 features per approach across the 4 approaches:
// waiting_count, avg_wait_time, arrival_rate_vpm, departure_rate_vpm,
// time_since_last_green, congestion_percent.
const StateVectorSize = 24

// Record is one closed decision: the state it was made in, the approach
// chosen, and the reward observed once that phase ended.
type Record struct {
	StateVector    [StateVectorSize]float64
	ChosenApproach approach.Approach
	Reward         float64
	Timestamp      float64
}

// Store is an append-only, in-memory log of Records. Persistence (file or
// Mongo) is layered on top by the persistence package; Store itself only
// keeps the working set used for similarity retrieval.
type Store struct {
	mu      sync.RWMutex
	records []Record
	cap     int
}

// NewStore creates a store retaining at most capacity records, evicting the
// oldest once full.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Store{cap: capacity}
}

// Add appends r, evicting the oldest record if the store is at capacity.
func (s *Store) Add(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of every record currently held, oldest first.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Load replaces the store's contents, used when restoring from
// persistence at startup.
func (s *Store) Load(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(records) > s.cap {
		records = records[len(records)-s.cap:]
	}
	s.records = append([]Record(nil), records...)
}

// ApproachSummary is one line of Summary's per-approach breakdown.
type ApproachSummary struct {
	Approach   approach.Approach
	Count      int
	MeanReward float64
}

// Summary reports record counts and mean reward per chosen approach,
// mirroring the reference memory store's summary() diagnostic.
func (s *Store) Summary() []ApproachSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[approach.Approach]float64)
	counts := make(map[approach.Approach]int)
	for _, r := range s.records {
		totals[r.ChosenApproach] += r.Reward
		counts[r.ChosenApproach]++
	}
	out := make([]ApproachSummary, 0, len(approach.All))
	for _, a := range approach.All {
		c := counts[a]
		mean := 0.0
		if c > 0 {
			mean = totals[a] / float64(c)
		}
		out = append(out, ApproachSummary{Approach: a, Count: c, MeanReward: mean})
	}
	return out
}
