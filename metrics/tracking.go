// Package metrics maintains per-approach vehicle tracking state and
// derives smoothed, defensive RoadMetrics from it.
package metrics

import (
	"github.com/sirupsen/logrus"

	"github.com/junctionlab/signalcore/adapter"
	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
)

var log = logrus.WithField("module", "metrics")

// approachTracking is the mutable, per-approach tracking state, cleared
// on Reset.
type approachTracking struct {
	inEdge      map[adapter.VehicleID]struct{}
	waitAccum   map[adapter.VehicleID]float64
	arrivals    []float64 // arrival timestamps, oldest first
	departures  []float64 // departure timestamps, oldest first
	lastGreen   *float64  // nil until first granted
	pendingCleared int    // running accumulator since the last decision boundary
	lastClearedSnapshot int // frozen at the previous decision boundary
}

func newApproachTracking() *approachTracking {
	return &approachTracking{
		inEdge:    make(map[adapter.VehicleID]struct{}),
		waitAccum: make(map[adapter.VehicleID]float64),
	}
}

// Engine owns the tracking state for all four approaches and updates it
// every simulated second from the adapter's vehicle observations.
type Engine struct {
	ad   adapter.Adapter
	th   config.Thresholds
	st   map[approach.Approach]*approachTracking

	totalDepartures int // drained by the control loop for reward computation
}

// NewEngine creates a metrics engine bound to ad, using th for the
// waiting-speed threshold and sliding-window sizes.
func NewEngine(ad adapter.Adapter, th config.Thresholds) *Engine {
	e := &Engine{ad: ad, th: th, st: make(map[approach.Approach]*approachTracking)}
	for _, a := range approach.All {
		e.st[a] = newApproachTracking()
	}
	return e
}

// Reset clears all tracking state, matching adapter.Reset semantics.
func (e *Engine) Reset() {
	for _, a := range approach.All {
		e.st[a] = newApproachTracking()
	}
}

// NoteGreen records that approach a was just granted a green signal at
// currentTime, for time_since_last_green bookkeeping.
func (e *Engine) NoteGreen(a approach.Approach, currentTime float64) {
	t := currentTime
	e.st[a].lastGreen = &t
}

// UpdateTracking refreshes per-vehicle wait accumulators and the
// arrival/departure windows; called once per simulated second.
func (e *Engine) UpdateTracking(currentTime float64) {
	for _, a := range approach.All {
		st := e.st[a]
		onEdge := e.ad.ListVehiclesOnEdge(a)

		for v := range onEdge {
			if _, existed := st.inEdge[v]; !existed {
				st.arrivals = append(st.arrivals, currentTime)
				st.waitAccum[v] = 0
			}
		}
		for v := range st.inEdge {
			if _, stillThere := onEdge[v]; !stillThere {
				st.departures = append(st.departures, currentTime)
				st.pendingCleared++
				e.totalDepartures++
				delete(st.waitAccum, v)
			}
		}
		for v := range onEdge {
			speed, ok := e.ad.VehicleSpeed(v)
			if ok && speed < e.th.WaitingSpeedMps {
				st.waitAccum[v] += 1.0
			}
		}

		st.arrivals = evictOlderThan(st.arrivals, currentTime, e.th.ArrivalWindowSec)
		st.departures = evictOlderThan(st.departures, currentTime, e.th.ArrivalWindowSec)

		st.inEdge = onEdge
	}
}

// DrainDepartures returns the count of vehicles that have departed any
// approach since the last call, resetting the counter, for the control
// loop's per-phase reward computation.
func (e *Engine) DrainDepartures() int {
	n := e.totalDepartures
	e.totalDepartures = 0
	return n
}

func evictOlderThan(ts []float64, currentTime, window float64) []float64 {
	cutoff := currentTime - window
	i := 0
	for i < len(ts) && ts[i] < cutoff {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]float64(nil), ts[i:]...)
}
