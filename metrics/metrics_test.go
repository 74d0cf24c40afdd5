package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/junctionlab/signalcore/adapter"
	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
)

func testThresholds() config.Thresholds {
	return config.NewRuntimeConfig(config.Config{}).T
}

func TestUpdateTrackingCountsArrivalsAndWaiting(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	ad.InjectVehicle(approach.North, adapter.Car, true)
	ad.InjectVehicle(approach.North, adapter.Car, false)

	e := NewEngine(ad, testThresholds())
	e.UpdateTracking(ad.CurrentTime())

	ms := e.ComputeMetrics(ad.CurrentTime())
	assert.Equal(t, 1, ms[approach.North].WaitingCount)
	assert.Equal(t, 0, ms[approach.East].WaitingCount)
}

func TestUpdateTrackingDetectsDeparture(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	ad.InjectVehicle(approach.South, adapter.Car, true)

	e := NewEngine(ad, testThresholds())
	e.UpdateTracking(0)

	ad.Reset() // vehicle leaves the edge
	e.UpdateTracking(1)
	assert.Equal(t, 1, e.DrainDepartures())
}

func TestDrainDeparturesResetsCounter(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	ad.InjectVehicle(approach.North, adapter.Car, true)
	e := NewEngine(ad, testThresholds())
	e.UpdateTracking(0)
	ad.Reset()
	e.UpdateTracking(1)

	assert.GreaterOrEqual(t, e.DrainDepartures(), 0)
	assert.Equal(t, 0, e.DrainDepartures(), "second drain should return zero")
}

func TestNoteGreenSetsTimeSinceLastGreen(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	e := NewEngine(ad, testThresholds())
	e.NoteGreen(approach.West, 10)

	ms := e.ComputeMetrics(25)
	assert.Equal(t, 15.0, ms[approach.West].TimeSinceLastGreen)
}

func TestComputeMetricsCongestionPercentCapsAtHundred(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	for i := 0; i < 100; i++ {
		ad.InjectVehicle(approach.East, adapter.Car, true)
	}
	e := NewEngine(ad, testThresholds())
	e.UpdateTracking(0)

	ms := e.ComputeMetrics(0)
	assert.Equal(t, 100.0, ms[approach.East].CongestionPercent)
}

func TestRotateDecisionBoundarySnapshotsAndResets(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	ad.InjectVehicle(approach.North, adapter.Car, true)
	e := NewEngine(ad, testThresholds())
	e.UpdateTracking(0)

	ad.Reset()
	e.UpdateTracking(1) // departure recorded into pendingCleared

	before := e.ComputeMetrics(1)[approach.North].ClearedLastInterval
	assert.Equal(t, 0, before, "not yet rotated, snapshot still at previous boundary")

	e.RotateDecisionBoundary()
	after := e.ComputeMetrics(1)[approach.North].ClearedLastInterval
	assert.Equal(t, 1, after)

	e.RotateDecisionBoundary()
	reset := e.ComputeMetrics(1)[approach.North].ClearedLastInterval
	assert.Equal(t, 0, reset, "running accumulator cleared after rotation with no new departures")
}

func TestResetClearsAllTrackingState(t *testing.T) {
	ad := adapter.NewMockAdapter(1)
	ad.InjectVehicle(approach.North, adapter.Car, true)
	e := NewEngine(ad, testThresholds())
	e.UpdateTracking(0)

	e.Reset()
	ms := e.ComputeMetrics(0)
	assert.Equal(t, 0, ms[approach.North].WaitingCount)
}
