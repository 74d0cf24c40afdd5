// Package decision implements the priority-hierarchy arbiter: emergency
// preemption, manual override, starvation protection, experience-memory
// selection, and a composite fallback score, in that strict order.
package decision

import (
	"fmt"

	"github.com/junctionlab/signalcore/approach"
)

// Method names which rung of the priority hierarchy produced a Decision.
type Method int

const (
	MethodEmergency Method = iota
	MethodManual
	MethodStarvation
	MethodMemory
	MethodFallback
	MethodGapOut
	MethodHold
)

func (m Method) String() string {
	switch m {
	case MethodEmergency:
		return "emergency"
	case MethodManual:
		return "manual"
	case MethodStarvation:
		return "starvation"
	case MethodMemory:
		return "memory"
	case MethodFallback:
		return "fallback"
	case MethodGapOut:
		return "gap_out"
	case MethodHold:
		return "hold"
	default:
		return "fallback"
	}
}

// Decision is the controller's output for one tick: the approach that
// should be (or remain) green, for how long, and why.
type Decision struct {
	Approach        approach.Approach
	DurationSeconds float64
	Method          Method
	Explanation     string
}

func explain(method Method, format string, args ...any) string {
	return fmt.Sprintf("%s: %s", method, fmt.Sprintf(format, args...))
}

// Mode selects whether the controller runs its autonomous hierarchy or
// honors an operator-supplied manual command.
type Mode int

const (
	ModeAuto Mode = iota
	ModeManual
)

func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// ManualCommand is an operator override accepted via the control
// interface: either a single FixedApproach held green indefinitely, or a
// Group alternated between its two approaches every 30 seconds.
type ManualCommand struct {
	Group           approach.Group
	FixedApproach   *approach.Approach
	DurationSeconds float64
}
