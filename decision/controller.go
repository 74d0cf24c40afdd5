package decision

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/junctionlab/signalcore/adapter"
	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/memory"
	"github.com/junctionlab/signalcore/metrics"
	"github.com/junctionlab/signalcore/predictor"
)

var log = logrus.WithField("module", "decision")

const manualSubPhaseSeconds = 30.0

// Controller is the stateful decision arbiter: it tracks the current
// green approach, the manual-override state, and the gap-out counter
// across ticks, and implements the priority hierarchy.
type Controller struct {
	ad adapter.Adapter
	th config.Thresholds

	mode                  Mode
	manual                *ManualCommand
	manualCurrentApproach approach.Approach
	manualSubPhaseStart   float64

	currentGreen    approach.Approach
	lastPhaseChange float64
	zeroWaitTicks   int
	haveDecided     bool
}

// NewController creates a controller bound to ad (for emergency-vehicle
// detection) and th (duration/starvation thresholds). It starts in auto
// mode with North green by convention until the first Decide call.
func NewController(ad adapter.Adapter, th config.Thresholds) *Controller {
	return &Controller{ad: ad, th: th, currentGreen: approach.North}
}

// SetManual switches the controller into manual mode honoring cmd.
func (c *Controller) SetManual(cmd ManualCommand, currentTime float64) {
	c.mode = ModeManual
	c.manual = &cmd
	if cmd.FixedApproach != nil {
		c.manualCurrentApproach = *cmd.FixedApproach
	} else {
		c.manualCurrentApproach = firstOfGroup(cmd.Group)
	}
	c.manualSubPhaseStart = currentTime
}

// CancelManual returns the controller to the autonomous hierarchy.
func (c *Controller) CancelManual() {
	c.mode = ModeAuto
	c.manual = nil
}

// SetMode switches between AUTO and MANUAL without itself supplying a
// command; a manual phase is only granted once SetManual follows.
func (c *Controller) SetMode(mode Mode) {
	c.mode = mode
	if mode == ModeAuto {
		c.manual = nil
	}
}

// Mode reports whether the controller is under manual override.
func (c *Controller) Mode() Mode { return c.mode }

// ManualCommand returns the operator command currently in effect, or nil
// outside manual mode or before apply_manual has supplied one.
func (c *Controller) ManualCommand() *ManualCommand { return c.manual }

func firstOfGroup(g approach.Group) approach.Approach {
	if g == approach.GroupNS {
		return approach.North
	}
	return approach.East
}

func otherOfGroup(g approach.Group, current approach.Approach) approach.Approach {
	if g == approach.GroupNS {
		if current == approach.North {
			return approach.South
		}
		return approach.North
	}
	if current == approach.East {
		return approach.West
	}
	return approach.East
}

// dynamicGreenDuration computes the green duration: min green plus a
// weighted contribution from queue length and average wait, clamped to
// the configured [min, max] range.
func dynamicGreenDuration(th config.Thresholds, m metrics.RoadMetrics) float64 {
	d := th.MinGreenSeconds + 1.0*float64(m.WaitingCount) + 0.5*m.AvgWaitTime
	return clamp(d, th.MinGreenSeconds, th.MaxGreenSeconds)
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

// anyEmergencyVehicle scans an approach's incoming edge for an emergency
// vehicle that should trigger preemption.
func (c *Controller) anyEmergencyVehicle(a approach.Approach) bool {
	for v := range c.ad.ListVehiclesOnEdge(a) {
		if t, ok := c.ad.VehicleType(v); ok && t == adapter.Emergency {
			return true
		}
	}
	return false
}

// NoteGapTick updates the gap-out counter for the currently green
// approach and reports whether enough consecutive zero-waiting ticks
// have elapsed to prompt an early re-decision.
func (c *Controller) NoteGapTick(ms map[approach.Approach]metrics.RoadMetrics) bool {
	if ms[c.currentGreen].WaitingCount == 0 {
		c.zeroWaitTicks++
	} else {
		c.zeroWaitTicks = 0
	}
	return c.zeroWaitTicks >= c.th.GapOutTicks
}

// Hold reports that the current green continues unchanged this tick,
// outside of any decision boundary.
func (c *Controller) Hold(remainingSeconds float64) Decision {
	return Decision{Approach: c.currentGreen, DurationSeconds: remainingSeconds, Method: MethodHold,
		Explanation: explain(MethodHold, "holding green on %s, %.0fs remaining", c.currentGreen, remainingSeconds)}
}

// Decide runs the strict priority hierarchy: emergency preemption,
// manual override, starvation protection, experience-memory selection,
// then a composite fallback score. forcedByGapOut tags a fallback
// decision reached because the gap-out rule cut the prior phase short,
// rather than because its duration simply expired.
func (c *Controller) Decide(ms map[approach.Approach]metrics.RoadMetrics, preds map[approach.Approach]predictor.Prediction, store *memory.Store, currentTime float64, forcedByGapOut bool) Decision {
	d := c.decide(ms, preds, store, currentTime, forcedByGapOut)
	if !c.haveDecided || d.Approach != c.currentGreen {
		c.lastPhaseChange = currentTime
		c.zeroWaitTicks = 0
	}
	c.currentGreen = d.Approach
	c.haveDecided = true
	return d
}

func (c *Controller) decide(ms map[approach.Approach]metrics.RoadMetrics, preds map[approach.Approach]predictor.Prediction, store *memory.Store, currentTime float64, forcedByGapOut bool) Decision {
	if a, ok := c.emergencyCandidate(); ok {
		dur := math.Max(dynamicGreenDuration(c.th, ms[a]), c.th.EmergencyMinGreen)
		return Decision{Approach: a, DurationSeconds: dur, Method: MethodEmergency,
			Explanation: explain(MethodEmergency, "emergency vehicle detected on %s", a)}
	}

	if c.mode == ModeManual && c.manual != nil {
		return c.manualDecision(currentTime)
	}

	if a, waited, ok := c.starvationCandidate(ms); ok {
		return Decision{Approach: a, DurationSeconds: dynamicGreenDuration(c.th, ms[a]), Method: MethodStarvation,
			Explanation: explain(MethodStarvation, "%s starved for %.0fs", a, waited)}
	}

	if store != nil {
		vec := memory.BuildStateVector(ms)
		rec := memory.Retrieve(store, vec, currentTime, c.th)
		if rec.Confident {
			return Decision{Approach: rec.Approach, DurationSeconds: dynamicGreenDuration(c.th, ms[rec.Approach]), Method: MethodMemory,
				Explanation: explain(MethodMemory, "%d similar past decisions favor %s", rec.MatchCount, rec.Approach)}
		}
	}

	a := c.fallbackCandidate(ms, preds)
	method := MethodFallback
	if forcedByGapOut {
		method = MethodGapOut
	}
	return Decision{Approach: a, DurationSeconds: dynamicGreenDuration(c.th, ms[a]), Method: method,
		Explanation: explain(method, "composite score favors %s", a)}
}

func (c *Controller) emergencyCandidate() (approach.Approach, bool) {
	if c.anyEmergencyVehicle(c.currentGreen) {
		return c.currentGreen, true
	}
	for _, a := range approach.All {
		if c.anyEmergencyVehicle(a) {
			return a, true
		}
	}
	return 0, false
}

func (c *Controller) starvationCandidate(ms map[approach.Approach]metrics.RoadMetrics) (approach.Approach, float64, bool) {
	best := approach.North
	bestWait := -1.0
	found := false
	for _, a := range approach.All {
		if a == c.currentGreen {
			continue
		}
		if w := ms[a].TimeSinceLastGreen; w > c.th.StarvationSeconds && w > bestWait {
			best, bestWait, found = a, w, true
		}
	}
	return best, bestWait, found
}

// fallbackCandidate scores every approach by the composite formula
// score = 1.0*waiting_count + 0.8*avg_wait_time + 0.6*time_since_last_green
//   + 0.4*congestion_percent + 0.3*(heavy_traffic_probability/100) - 1.2*switch_penalty
// where switch_penalty is 1 for the currently green approach, discouraging
// an instant re-selection of the phase that just ran. Ties favor the
// larger waiting_count, then lexicographic approach name.
func (c *Controller) fallbackCandidate(ms map[approach.Approach]metrics.RoadMetrics, preds map[approach.Approach]predictor.Prediction) approach.Approach {
	best := approach.North
	bestScore := math.Inf(-1)
	for _, a := range approach.All {
		m := ms[a]
		p := preds[a]

		switchPenalty := 0.0
		if a == c.currentGreen {
			switchPenalty = 1.0
		}

		score := 1.0*float64(m.WaitingCount) + 0.8*m.AvgWaitTime + 0.6*m.TimeSinceLastGreen +
			0.4*m.CongestionPercent + 0.3*(p.HeavyTrafficProbability/100.0) - 1.2*switchPenalty

		if score > bestScore || (score == bestScore && fallbackTieBreak(a, best, ms)) {
			bestScore = score
			best = a
		}
	}
	return best
}

// fallbackTieBreak reports whether candidate should replace current as
// the fallback winner on an exact score tie: larger waiting_count wins,
// then lexicographic approach name.
func fallbackTieBreak(candidate, current approach.Approach, ms map[approach.Approach]metrics.RoadMetrics) bool {
	if ms[candidate].WaitingCount != ms[current].WaitingCount {
		return ms[candidate].WaitingCount > ms[current].WaitingCount
	}
	return candidate.String() < current.String()
}

func (c *Controller) manualDecision(currentTime float64) Decision {
	cmd := c.manual
	if cmd.FixedApproach != nil {
		return Decision{Approach: *cmd.FixedApproach, DurationSeconds: cmd.DurationSeconds, Method: MethodManual,
			Explanation: explain(MethodManual, "operator fixed approach %s", *cmd.FixedApproach)}
	}

	if currentTime-c.manualSubPhaseStart >= manualSubPhaseSeconds {
		c.manualCurrentApproach = otherOfGroup(cmd.Group, c.manualCurrentApproach)
		c.manualSubPhaseStart = currentTime
		log.WithField("approach", c.manualCurrentApproach).Debug("manual sub-phase alternation")
	}
	return Decision{Approach: c.manualCurrentApproach, DurationSeconds: manualSubPhaseSeconds, Method: MethodManual,
		Explanation: explain(MethodManual, "operator group override alternating within %v", cmd.Group)}
}
