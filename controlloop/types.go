// Package controlloop binds the adapter, metrics, predictor, memory, and
// decision components into a per-second run loop. It owns the FIFO
// command queue fed by the control interface and the bounded snapshot
// fan-out consumed by status observers.
package controlloop

import (
	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/decision"
	"github.com/junctionlab/signalcore/memory"
	"github.com/junctionlab/signalcore/metrics"
	"github.com/junctionlab/signalcore/predictor"
)

// CommandKind selects which field of Command is meaningful.
type CommandKind int

const (
	CommandStart CommandKind = iota
	CommandStop
	CommandSetManual
	CommandCancelManual
	CommandSetMode
)

// Command is a single operator instruction accepted from the control
// interface and applied at the start of the next tick.
type Command struct {
	Kind   CommandKind
	Manual decision.ManualCommand
	Mode   decision.Mode
}

// Snapshot is the read-only view of the intersection published to
// observers every tick, the payload behind the control interface's
// status endpoint.
type Snapshot struct {
	SimulationTime float64
	Running        bool
	Mode           decision.Mode
	GreenApproach  approach.Approach
	RemainingGreen float64
	Metrics        map[approach.Approach]metrics.RoadMetrics
	Predictions    map[approach.Approach]predictor.Prediction
	LastDecision   decision.Decision
	MemorySummary  []memory.ApproachSummary
}
