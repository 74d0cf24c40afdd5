package controlloop

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"

	"github.com/junctionlab/signalcore/approach"
	"github.com/junctionlab/signalcore/decision"
	"github.com/junctionlab/signalcore/memory"
	"github.com/junctionlab/signalcore/metrics"
	"github.com/junctionlab/signalcore/persistence"
	"github.com/junctionlab/signalcore/predictor"
)

var log = logrus.WithField("module", "controlloop")

const snapshotBuffer = 1

// Loop runs the per-second control pipeline against one Context, fanning
// out Snapshots to any number of subscribed observers.
type Loop struct {
	ctx *Context

	commands chan Command
	running  atomic.Bool

	observers *xsync.MapOf[string, chan Snapshot]

	mu                   sync.Mutex
	lastDecisionBoundary float64
	lastDecision         decision.Decision
	lastPredictions      map[approach.Approach]predictor.Prediction
	lastSnapshot         Snapshot
	phaseGrantedAt       float64
	forceRedecide        bool
	haveGreen            bool
}

// NewLoop creates a Loop bound to ctx with a command queue depth of 64.
func NewLoop(ctx *Context) *Loop {
	return &Loop{
		ctx:       ctx,
		commands:  make(chan Command, 64),
		observers: xsync.NewMapOf[string, chan Snapshot](),
	}
}

// Enqueue submits an operator command for application at the start of
// the next tick. It never blocks the caller: a full queue drops the
// command and logs at warn, since the control interface is best-effort.
func (l *Loop) Enqueue(cmd Command) {
	select {
	case l.commands <- cmd:
	default:
		log.Warn("command queue full, dropping command")
	}
}

// Subscribe registers an observer and returns a channel that receives the
// latest Snapshot each tick. The channel is bounded to 1 and drops the
// newest snapshot instead of blocking the loop when the reader is slow.
func (l *Loop) Subscribe(id string) <-chan Snapshot {
	ch := make(chan Snapshot, snapshotBuffer)
	l.observers.Store(id, ch)
	return ch
}

// Unsubscribe removes and closes an observer's channel.
func (l *Loop) Unsubscribe(id string) {
	if ch, ok := l.observers.LoadAndDelete(id); ok {
		close(ch)
	}
}

func (l *Loop) publish(snap Snapshot) {
	l.observers.Range(func(id string, ch chan Snapshot) bool {
		select {
		case ch <- snap:
		default:
			// Reader hasn't drained the previous snapshot; drop this one
			// rather than block the control loop.
		}
		return true
	})
}

// Running reports whether the loop is currently advancing simulated time.
func (l *Loop) Running() bool { return l.running.Load() }

// Mode reports whether the decision controller is under manual override.
func (l *Loop) Mode() decision.Mode { return l.ctx.Decision.Mode() }

// Status returns the most recently published Snapshot, or the zero value
// before the first tick.
func (l *Loop) Status() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSnapshot
}

// EmergencyActive reports whether the phase currently holding green was
// granted by emergency preemption.
func (l *Loop) EmergencyActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.haveGreen && l.lastDecision.Method == decision.MethodEmergency
}

// ManualCommand exposes the operator command currently in effect under
// manual mode, or nil outside it.
func (l *Loop) ManualCommand() *decision.ManualCommand {
	return l.ctx.Decision.ManualCommand()
}

// Start flips the loop into the running state; Run skips its ticks until
// this is called (a direct Tick call is not gated).
func (l *Loop) Start() { l.running.Store(true) }

// Stop halts simulated-time advancement without tearing down state.
func (l *Loop) Stop() { l.running.Store(false) }

// Run drives the tick loop at real-time cadence (one tick per second)
// until ctx is canceled. Commands are drained and applied before each
// tick's pipeline runs.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-l.commands:
			l.applyCommand(cmd)
		case <-ticker.C:
			if l.running.Load() {
				l.Tick()
			}
		}
	}
}

// DrainCommands applies every currently queued command synchronously, for
// callers that don't run Run's background command/tick select loop (test
// harnesses, or a host embedding the loop in its own scheduler).
func (l *Loop) DrainCommands() {
	for {
		select {
		case cmd := <-l.commands:
			l.applyCommand(cmd)
		default:
			return
		}
	}
}

func (l *Loop) applyCommand(cmd Command) {
	switch cmd.Kind {
	case CommandStart:
		l.running.Store(true)
	case CommandStop:
		l.running.Store(false)
	case CommandSetManual:
		l.ctx.Decision.SetManual(cmd.Manual, l.ctx.Adapter.CurrentTime())
		l.forceRedecide = true
	case CommandCancelManual:
		l.ctx.Decision.CancelManual()
		l.forceRedecide = true
	case CommandSetMode:
		l.ctx.Decision.SetMode(cmd.Mode)
		l.forceRedecide = true
	}
}

// Tick runs one full pass of the control pipeline: advance the
// simulator, refresh tracking, and — only at a decision boundary, either
// no phase has been granted yet, the current phase's duration has
// elapsed, gap-out tripped, an operator command forced one, or the
// periodic decision interval has passed — recompute metrics-derived predictions,
// arbitrate a new decision, apply any transition, and rotate the
// decision-boundary snapshot. Outside a boundary the prior phase simply
// holds and a Hold decision is published in its place.
func (l *Loop) Tick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ctx.Adapter.Step(); err != nil {
		log.WithError(err).Debug("adapter step returned an error (ignored, adapter is fail-safe)")
	}
	currentTime := l.ctx.Adapter.CurrentTime()

	l.ctx.Metrics.UpdateTracking(currentTime)
	ms := l.ctx.Metrics.ComputeMetrics(currentTime)

	gapOut := false
	if l.haveGreen {
		gapOut = l.ctx.Decision.NoteGapTick(ms)
	}

	remaining := 0.0
	if l.haveGreen {
		remaining = l.lastDecision.DurationSeconds - (currentTime - l.phaseGrantedAt)
	}

	boundary := !l.haveGreen || remaining <= 0 || gapOut || l.forceRedecide ||
		currentTime-l.lastDecisionBoundary >= float64(l.ctx.Thresholds.DecisionIntervalSec)

	var d decision.Decision
	if boundary {
		preds := l.ctx.Predictor.Predict(ms, currentTime)
		d = l.ctx.Decision.Decide(ms, preds, l.ctx.Memory, currentTime, gapOut)
		l.lastPredictions = preds
		l.applyDecision(d, ms, currentTime)
		l.ctx.Metrics.RotateDecisionBoundary()
		l.lastDecisionBoundary = currentTime
		l.forceRedecide = false
	} else {
		d = l.ctx.Decision.Hold(math.Max(0, remaining))
	}

	var summary []memory.ApproachSummary
	if l.ctx.Memory != nil {
		summary = l.ctx.Memory.Summary()
	}

	snap := Snapshot{
		SimulationTime: currentTime,
		Running:        l.running.Load(),
		Mode:           l.ctx.Decision.Mode(),
		GreenApproach:  d.Approach,
		RemainingGreen: math.Max(0, l.lastDecision.DurationSeconds-(currentTime-l.phaseGrantedAt)),
		Metrics:        ms,
		Predictions:    l.lastPredictions,
		LastDecision:   d,
		MemorySummary:  summary,
	}
	l.lastSnapshot = snap
	l.publish(snap)

	if l.ctx.EventLog != nil {
		_ = l.ctx.EventLog.Encode(persistence.Event{
			WallClockUnix:  time.Now().Unix(),
			SimulationTime: currentTime,
			Kind:           "decision",
			Payload:        d,
		})
	}
}

// applyDecision grants the new decision's approach when it differs from
// the currently green one, closing out the prior phase's reward first:
// clamp(departures_during_phase - 0.3*total_wait_at_end, -100, 100). A
// re-selection of the same approach at a forced boundary (gap-out, a
// periodic re-check that confirms the status quo) still restarts the
// phase clock with a freshly computed duration, but skips the redundant
// adapter command.
func (l *Loop) applyDecision(d decision.Decision, ms map[approach.Approach]metrics.RoadMetrics, currentTime float64) {
	sameApproach := l.haveGreen && l.lastDecision.Approach == d.Approach

	if l.haveGreen && !sameApproach {
		reward := l.computeReward(ms)
		l.recordExperience(l.lastDecision.Approach, reward, currentTime)
	}

	if !sameApproach {
		if l.haveGreen && !approach.SameGroup(l.lastDecision.Approach, d.Approach) {
			if err := l.ctx.Adapter.ApplySafeTransition(l.lastDecision.Approach, d.Approach, d.DurationSeconds); err != nil {
				log.WithError(err).Debug("apply safe transition failed")
			}
		} else {
			if err := l.ctx.Adapter.SetGreen(d.Approach, d.DurationSeconds); err != nil {
				log.WithError(err).Debug("set green failed")
			}
		}
		l.ctx.Metrics.NoteGreen(d.Approach, currentTime)
	}

	l.lastDecision = d
	l.phaseGrantedAt = currentTime
	l.haveGreen = true
}

func (l *Loop) computeReward(ms map[approach.Approach]metrics.RoadMetrics) float64 {
	departures := float64(l.ctx.Metrics.DrainDepartures())
	totalWait := 0.0
	for _, a := range approach.All {
		totalWait += float64(ms[a].WaitingCount)
	}
	reward := departures - 0.3*totalWait
	return clamp(reward, -100, 100)
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

func (l *Loop) recordExperience(a approach.Approach, reward float64, currentTime float64) {
	vec := memory.BuildStateVector(l.lastMetrics())
	rec := memory.Record{StateVector: vec, ChosenApproach: a, Reward: reward, Timestamp: currentTime}
	if l.ctx.Memory != nil {
		l.ctx.Memory.Add(rec)
	}
	if l.ctx.Experience != nil {
		l.ctx.Experience.AppendAsync(rec)
	}
}

// lastMetrics recomputes the metrics snapshot for state-vector tagging at
// the moment a phase closes; cheap relative to the simulator round trip
// it rides alongside.
func (l *Loop) lastMetrics() map[approach.Approach]metrics.RoadMetrics {
	return l.ctx.Metrics.ComputeMetrics(l.ctx.Adapter.CurrentTime())
}
