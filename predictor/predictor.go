// Package predictor derives queue trend, short-horizon arrival forecasts,
// and a heavy-traffic probability from metrics engine output.
package predictor

import (
	"math"

	"github.com/samber/lo"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/metrics"
)

// CongestionLevel buckets the heavy-traffic probability into LOW/MEDIUM/HIGH.
type CongestionLevel int

const (
	Low CongestionLevel = iota
	Medium
	High
)

func (l CongestionLevel) String() string {
	switch l {
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Trend classifies the short-term direction of an approach's queue.
type Trend int

const (
	Stable Trend = iota
	Increasing
	Decreasing
)

func (t Trend) String() string {
	switch t {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	default:
		return "stable"
	}
}

// Prediction is the per-approach, per-tick forecast.
type Prediction struct {
	Trend                    Trend           `json:"queue_trend"`
	Arrivals10s              float64         `json:"arrivals_10s"`
	Arrivals30s              float64         `json:"arrivals_30s"`
	HeavyTrafficProbability  float64         `json:"heavy_traffic_probability"`
	CongestionLevel          CongestionLevel `json:"congestion_level"`
	PredictedEtaClearSeconds float64         `json:"predicted_eta_clear_seconds"`
}

type sample struct {
	t float64
	n float64 // waiting_count as a float
}

// Engine holds the per-approach queue-history window; it is
// stateful only in that window and Reset clears it.
type Engine struct {
	th      config.Thresholds
	history map[approach.Approach][]sample
}

// NewEngine creates a predictor bound to th's window sizes and thresholds.
func NewEngine(th config.Thresholds) *Engine {
	return &Engine{th: th, history: make(map[approach.Approach][]sample)}
}

// Reset clears the queue-history window for every approach.
func (e *Engine) Reset() {
	e.history = make(map[approach.Approach][]sample)
}

// Predict produces a forecast for every approach given this tick's
// RoadMetrics.
func (e *Engine) Predict(ms map[approach.Approach]metrics.RoadMetrics, currentTime float64) map[approach.Approach]Prediction {
	out := make(map[approach.Approach]Prediction, len(approach.All))
	for _, a := range approach.All {
		out[a] = e.predictOne(a, ms[a], currentTime)
	}
	return out
}

func (e *Engine) predictOne(a approach.Approach, m metrics.RoadMetrics, currentTime float64) Prediction {
	hist := append(e.history[a], sample{t: currentTime, n: float64(m.WaitingCount)})
	cutoff := currentTime - e.th.QueueHistorySec
	hist = lo.Filter(hist, func(s sample, _ int) bool { return s.t >= cutoff })
	e.history[a] = hist

	oldest := hist[0]
	delta := float64(m.WaitingCount) - oldest.n
	trend := Stable
	switch {
	case delta > 2:
		trend = Increasing
	case delta < -2:
		trend = Decreasing
	}

	span := math.Max(1.0, currentTime-oldest.t)
	slope := delta / span

	cNorm := m.CongestionPercent / 100.0
	tNorm := 0.0
	switch trend {
	case Increasing:
		tNorm = 1
	case Decreasing:
		tNorm = -1
	}
	tNorm = math.Max(0, tNorm)

	fNorm := clamp((m.ArrivalRateVPM-m.DepartureRateVPM)/30.0, 0, 1)

	p := 100.0 * (0.5*cNorm + 0.3*tNorm + 0.2*fNorm)
	p = clamp(p, 0, 100)

	level := Low
	switch {
	case p >= 60:
		level = High
	case p >= 30:
		level = Medium
	}

	predictedEta := m.EtaClearSeconds
	if trend == Increasing {
		predictedEta = m.EtaClearSeconds + math.Max(0, slope)*10
	}

	return Prediction{
		Trend:                    trend,
		Arrivals10s:              m.ArrivalRateVPM / 6,
		Arrivals30s:              m.ArrivalRateVPM / 2,
		HeavyTrafficProbability:  p,
		CongestionLevel:          level,
		PredictedEtaClearSeconds: predictedEta,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
