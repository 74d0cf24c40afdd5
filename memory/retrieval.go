package memory

import (
	"math"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/container"
	"github.com/junctionlab/signalcore/metrics"
)

// BuildStateVector flattens the current RoadMetrics for every approach, in
// approach.All order, into the 24-dimensional vector a Record is keyed by.
func BuildStateVector(ms map[approach.Approach]metrics.RoadMetrics) [StateVectorSize]float64 {
	var v [StateVectorSize]float64
	for i, a := range approach.All {
		m := ms[a]
		base := i * 6
		v[base+0] = float64(m.WaitingCount)
		v[base+1] = m.AvgWaitTime
		v[base+2] = m.ArrivalRateVPM
		v[base+3] = m.DepartureRateVPM
		v[base+4] = m.TimeSinceLastGreen
		v[base+5] = m.CongestionPercent
	}
	return v
}

func cosineSimilarity(a, b [StateVectorSize]float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// scoredMatch is one retained candidate after the similarity threshold and
// exponential recency decay have been applied.
type scoredMatch struct {
	rec    Record
	weight float64 // similarity * decay
}

// Recommendation is Retrieve's output: the approach with the highest
// decay-weighted mean reward among the retrieved neighbors, and whether
// that recommendation clears the confidence bar.
type Recommendation struct {
	Approach              approach.Approach
	Confident             bool
	WeightedRewardByGroup map[approach.Approach]float64
	MatchCount            int
}

// Retrieve finds the top-K most similar past states (cosine similarity
// ≥ MemorySimThreshold) within store, weights each by
// exp(-age/decay_half_life), and recommends the approach with the
// greatest weighted mean reward, gated by MemoryConfidence.
func Retrieve(store *Store, currentState [StateVectorSize]float64, currentTime float64, th config.Thresholds) Recommendation {
	records := store.Snapshot()

	pq := container.NewPriorityQueue[Record]()
	for _, r := range records {
		sim := cosineSimilarity(currentState, r.StateVector)
		if sim < th.MemorySimThreshold {
			continue
		}
		pq.PushBounded(r, sim, th.MemoryTopK) // drop the smallest similarity, keeping the top K
	}

	matches := make([]scoredMatch, 0, pq.Len())
	for pq.Len() > 0 {
		r, sim := pq.HeapPop()
		age := math.Max(0, currentTime-r.Timestamp)
		decay := math.Exp(-age / th.MemoryDecayHalfLife)
		matches = append(matches, scoredMatch{rec: r, weight: sim * decay})
	}

	// weighted_rewards_by_approach(matches) = Σ wi*reward_i / Σ wi per
	// approach, the normalized weighted mean reward, not a raw sum.
	weightedSum := make(map[approach.Approach]float64, len(approach.All))
	weightTotal := make(map[approach.Approach]float64, len(approach.All))
	bestMatchWeight := 0.0
	for _, m := range matches {
		weightedSum[m.rec.ChosenApproach] += m.weight * m.rec.Reward
		weightTotal[m.rec.ChosenApproach] += m.weight
		bestMatchWeight = math.Max(bestMatchWeight, m.weight)
	}

	weighted := make(map[approach.Approach]float64, len(approach.All))
	for a, total := range weightTotal {
		weighted[a] = weightedSum[a] / total
	}

	if len(matches) == 0 {
		return Recommendation{WeightedRewardByGroup: weighted, MatchCount: 0}
	}

	best := approach.North
	bestScore := math.Inf(-1)
	for _, a := range approach.All {
		if weightTotal[a] == 0 {
			continue
		}
		if s := weighted[a]; s > bestScore {
			bestScore = s
			best = a
		}
	}

	// Confidence is a property of the single best-ranked match, not a
	// weight-ratio vote across all retrieved matches.
	confident := bestMatchWeight >= th.MemoryConfidence

	return Recommendation{
		Approach:              best,
		Confident:             confident,
		WeightedRewardByGroup: weighted,
		MatchCount:            len(matches),
	}
}
