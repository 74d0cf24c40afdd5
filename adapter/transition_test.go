package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junctionlab/signalcore/approach"
)

func TestStageSafeTransitionSameGroupAppliesImmediately(t *testing.T) {
	var granted approach.Approach
	var grantedDuration float64
	allRedCalled := false

	p, err := stageSafeTransition(10, approach.North, approach.South, 20,
		func(float64) error { allRedCalled = true; return nil },
		func(a approach.Approach, d float64) error { granted, grantedDuration = a, d; return nil },
	)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.False(t, allRedCalled)
	assert.Equal(t, approach.South, granted)
	assert.Equal(t, 20.0, grantedDuration)
}

func TestStageSafeTransitionCrossGroupStagesClearance(t *testing.T) {
	allRedDuration := -1.0
	greenCalled := false

	p, err := stageSafeTransition(10, approach.North, approach.East, 20,
		func(d float64) error { allRedDuration = d; return nil },
		func(approach.Approach, float64) error { greenCalled = true; return nil },
	)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, clearanceSeconds, allRedDuration)
	assert.False(t, greenCalled)
	assert.Equal(t, approach.East, p.approach)
	assert.Equal(t, 20.0, p.duration)
	assert.Equal(t, 10+clearanceSeconds, p.readyAt)
}

func TestAdvancePendingWaitsForReadyAt(t *testing.T) {
	p := &pendingGreen{approach: approach.West, duration: 15, readyAt: 5}
	var grantedApproach approach.Approach
	setGreen := func(a approach.Approach, d float64) error { grantedApproach = a; return nil }

	still := advancePending(4, p, setGreen)
	assert.Equal(t, p, still)
	assert.Zero(t, grantedApproach)
}

func TestAdvancePendingAppliesOnceReady(t *testing.T) {
	p := &pendingGreen{approach: approach.West, duration: 15, readyAt: 5}
	var grantedApproach approach.Approach
	var grantedDuration float64
	setGreen := func(a approach.Approach, d float64) error { grantedApproach, grantedDuration = a, d; return nil }

	after := advancePending(5, p, setGreen)
	assert.Nil(t, after)
	assert.Equal(t, approach.West, grantedApproach)
	assert.Equal(t, 15.0, grantedDuration)
}

func TestAdvancePendingNilIsNoop(t *testing.T) {
	called := false
	after := advancePending(100, nil, func(approach.Approach, float64) error { called = true; return nil })
	assert.Nil(t, after)
	assert.False(t, called)
}
