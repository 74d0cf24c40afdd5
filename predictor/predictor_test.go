package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/metrics"
)

func testThresholds() config.Thresholds {
	return config.NewRuntimeConfig(config.Config{}).T
}

func TestPredictOneStableTrend(t *testing.T) {
	e := NewEngine(testThresholds())
	m := metrics.RoadMetrics{WaitingCount: 5, CongestionPercent: 10, ArrivalRateVPM: 10, DepartureRateVPM: 10, EtaClearSeconds: 3}
	out := e.predictOne(approach.North, m, 0)
	assert.Equal(t, Stable, out.Trend)
	assert.Equal(t, Low, out.CongestionLevel)
}

func TestPredictOneIncreasingTrend(t *testing.T) {
	e := NewEngine(testThresholds())
	e.predictOne(approach.North, metrics.RoadMetrics{WaitingCount: 2}, 0)
	out := e.predictOne(approach.North, metrics.RoadMetrics{WaitingCount: 10, CongestionPercent: 80, ArrivalRateVPM: 40, DepartureRateVPM: 5, EtaClearSeconds: 20}, 5)
	require.Equal(t, Increasing, out.Trend)
	assert.Greater(t, out.PredictedEtaClearSeconds, 20.0)
	assert.Equal(t, High, out.CongestionLevel)
}

func TestPredictOneDecreasingTrend(t *testing.T) {
	e := NewEngine(testThresholds())
	e.predictOne(approach.North, metrics.RoadMetrics{WaitingCount: 20}, 0)
	out := e.predictOne(approach.North, metrics.RoadMetrics{WaitingCount: 2}, 5)
	assert.Equal(t, Decreasing, out.Trend)
}

func TestPredictForecastsScaleFromArrivalRate(t *testing.T) {
	e := NewEngine(testThresholds())
	out := e.predictOne(approach.East, metrics.RoadMetrics{ArrivalRateVPM: 60}, 0)
	assert.InDelta(t, 10, out.Arrivals10s, 1e-9)
	assert.InDelta(t, 30, out.Arrivals30s, 1e-9)
}

func TestHistoryWindowEvicts(t *testing.T) {
	e := NewEngine(testThresholds())
	for i := 0; i < 5; i++ {
		e.predictOne(approach.South, metrics.RoadMetrics{WaitingCount: i}, float64(i)*10)
	}
	assert.LessOrEqual(t, len(e.history[approach.South]), 4)
}

func TestPredictAllApproaches(t *testing.T) {
	e := NewEngine(testThresholds())
	ms := map[approach.Approach]metrics.RoadMetrics{}
	for _, a := range approach.All {
		ms[a] = metrics.RoadMetrics{WaitingCount: 3}
	}
	out := e.Predict(ms, 1)
	assert.Len(t, out, len(approach.All))
}

func TestResetClearsHistory(t *testing.T) {
	e := NewEngine(testThresholds())
	e.predictOne(approach.West, metrics.RoadMetrics{WaitingCount: 5}, 0)
	e.Reset()
	assert.Empty(t, e.history[approach.West])
}
