package metrics

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/junctionlab/signalcore/approach"
)

// RoadMetrics is the per-approach, per-tick output of the metrics
// engine. It is immutable once produced.
type RoadMetrics struct {
	WaitingCount       int     `json:"waiting_count"`
	AvgWaitTime        float64 `json:"avg_wait_time"`
	ClearedLastInterval int    `json:"cleared_last_interval"`
	ArrivalRateVPM     float64 `json:"arrival_rate_vpm"`
	DepartureRateVPM   float64 `json:"departure_rate_vpm"`
	TimeSinceLastGreen float64 `json:"time_since_last_green"`
	CongestionPercent  float64 `json:"congestion_percent"`
	EtaClearSeconds    float64 `json:"eta_clear_seconds"`
}

// floor is the lower bound every division protects against.
const floor = 0.1

// ComputeMetrics derives RoadMetrics for every approach from current
// tracking state. It reads tracking state only (no side effects on it);
// the cleared-last-interval snapshot is rotated separately by
// RotateDecisionBoundary, which the decision boundary owns.
func (e *Engine) ComputeMetrics(currentTime float64) map[approach.Approach]RoadMetrics {
	out := make(map[approach.Approach]RoadMetrics, len(approach.All))
	for _, a := range approach.All {
		out[a] = e.computeOne(a, currentTime)
	}
	return out
}

func (e *Engine) computeOne(a approach.Approach, currentTime float64) RoadMetrics {
	st := e.st[a]

	waitingCount := 0
	var waits []float64
	for v := range st.inEdge {
		speed, ok := e.ad.VehicleSpeed(v)
		if !ok {
			continue // unknown speed treated as not waiting
		}
		if speed < e.th.WaitingSpeedMps {
			waitingCount++
			waits = append(waits, st.waitAccum[v])
		}
	}

	avgWait := 0.0
	if len(waits) > 0 {
		m, err := stats.Mean(waits)
		if err == nil {
			avgWait = m
		}
	}

	windowObserved := math.Max(floor, math.Min(e.th.ArrivalWindowSec, currentTime))
	arrivalRateVPM := float64(len(st.arrivals)) * 60.0 / windowObserved
	departureRateVPM := float64(len(st.departures)) * 60.0 / windowObserved

	timeSinceLastGreen := 0.0
	if st.lastGreen != nil {
		timeSinceLastGreen = currentTime - *st.lastGreen
	}

	maxQueue := float64(e.th.MaxQueuePerApproach)
	congestionPercent := math.Min(100.0, float64(waitingCount)/maxQueue*100.0)

	departureRatePerSecond := math.Max(departureRateVPM/60.0, floor)
	etaClear := float64(waitingCount) / departureRatePerSecond

	// cleared_last_interval reports the snapshot frozen at the previous
	// decision boundary; RotateDecisionBoundary copies the running
	// accumulator into that snapshot and resets it.
	return RoadMetrics{
		WaitingCount:         waitingCount,
		AvgWaitTime:          avgWait,
		ClearedLastInterval:  st.lastClearedSnapshot,
		ArrivalRateVPM:       arrivalRateVPM,
		DepartureRateVPM:     departureRateVPM,
		TimeSinceLastGreen:   timeSinceLastGreen,
		CongestionPercent:    congestionPercent,
		EtaClearSeconds:      etaClear,
	}
}

// RotateDecisionBoundary snapshots each approach's pending departure
// counter into the value ComputeMetrics will report until the next
// boundary, then resets the running accumulator.
func (e *Engine) RotateDecisionBoundary() {
	for _, a := range approach.All {
		st := e.st[a]
		st.lastClearedSnapshot = st.pendingCleared
		st.pendingCleared = 0
	}
}
