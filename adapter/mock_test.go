package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junctionlab/signalcore/approach"
)

func TestMockAdapterStepAdvancesClock(t *testing.T) {
	m := NewMockAdapter(1)
	require.NoError(t, m.Step())
	assert.Equal(t, 1.0, m.CurrentTime())
	require.NoError(t, m.Step())
	assert.Equal(t, 2.0, m.CurrentTime())
}

func TestMockAdapterInjectAndListVehicle(t *testing.T) {
	m := NewMockAdapter(1)
	id := m.InjectVehicle(approach.North, Car, true)
	edge := m.ListVehiclesOnEdge(approach.North)
	_, present := edge[id]
	assert.True(t, present)
	assert.Empty(t, m.ListVehiclesOnEdge(approach.East))
}

func TestMockAdapterVehicleSpeedReflectsStoppedState(t *testing.T) {
	m := NewMockAdapter(1)
	stopped := m.InjectVehicle(approach.North, Car, true)
	moving := m.InjectVehicle(approach.North, Car, false)

	speed, ok := m.VehicleSpeed(stopped)
	require.True(t, ok)
	assert.Equal(t, 0.0, speed)

	speed, ok = m.VehicleSpeed(moving)
	require.True(t, ok)
	assert.Greater(t, speed, 0.0)

	_, ok = m.VehicleSpeed(VehicleID("missing"))
	assert.False(t, ok)
}

func TestMockAdapterVehicleTypeLookup(t *testing.T) {
	m := NewMockAdapter(1)
	id := m.InjectVehicle(approach.West, Emergency, false)
	vt, ok := m.VehicleType(id)
	require.True(t, ok)
	assert.Equal(t, Emergency, vt)

	_, ok = m.VehicleType(VehicleID("missing"))
	assert.False(t, ok)
}

func TestMockAdapterSetGreenClearsPending(t *testing.T) {
	m := NewMockAdapter(1)
	require.NoError(t, m.ApplySafeTransition(approach.North, approach.East, 10))
	require.NotNil(t, m.pending)

	require.NoError(t, m.SetGreen(approach.North, 10))
	assert.Nil(t, m.pending)
	assert.Equal(t, approach.North, m.greenNow)
	assert.True(t, m.greenOk)
}

func TestMockAdapterSameGroupTransitionIsImmediate(t *testing.T) {
	m := NewMockAdapter(1)
	require.NoError(t, m.ApplySafeTransition(approach.North, approach.South, 12))
	assert.Nil(t, m.pending)
	assert.Equal(t, approach.South, m.greenNow)
	assert.True(t, m.greenOk)
}

func TestMockAdapterCrossGroupTransitionStagesClearance(t *testing.T) {
	m := NewMockAdapter(1)
	require.NoError(t, m.ApplySafeTransition(approach.North, approach.East, 12))
	require.NotNil(t, m.pending)
	assert.False(t, m.greenOk, "clearance holds all approaches red")

	require.NoError(t, m.Step())
	assert.True(t, m.greenOk, "pending green applies once clearance elapses")
	assert.Equal(t, approach.East, m.greenNow)
}

func TestMockAdapterSetAllRedClearsGreen(t *testing.T) {
	m := NewMockAdapter(1)
	require.NoError(t, m.SetGreen(approach.North, 10))
	require.NoError(t, m.SetAllRed(5))
	assert.False(t, m.greenOk)
}

func TestMockAdapterResetClearsState(t *testing.T) {
	m := NewMockAdapter(1)
	m.InjectVehicle(approach.North, Car, false)
	require.NoError(t, m.SetGreen(approach.North, 10))
	require.NoError(t, m.Step())

	m.Reset()
	assert.Equal(t, 0.0, m.CurrentTime())
	assert.False(t, m.greenOk)
	assert.Empty(t, m.ListVehiclesOnEdge(approach.North))
}

func TestMockAdapterDeterministicWithSameSeed(t *testing.T) {
	a := NewMockAdapter(42)
	b := NewMockAdapter(42)
	a.SetProfile(approach.North, ArrivalProfile{ArrivalProbabilityPerSecond: 0.9, StoppedProbability: 0.5, VehicleType: Car})
	b.SetProfile(approach.North, ArrivalProfile{ArrivalProbabilityPerSecond: 0.9, StoppedProbability: 0.5, VehicleType: Car})

	for i := 0; i < 20; i++ {
		require.NoError(t, a.Step())
		require.NoError(t, b.Step())
	}
	assert.Equal(t, len(a.ListVehiclesOnEdge(approach.North)), len(b.ListVehiclesOnEdge(approach.North)))
}
