package adapter

import "github.com/junctionlab/signalcore/approach"

// pendingGreen is a green command staged behind a clearance interval; it
// is applied once the simulated clock reaches ReadyAt.
type pendingGreen struct {
	approach approach.Approach
	duration float64
	readyAt  float64
}

// stageSafeTransition issues the clearance (or the green directly, for a
// same-group transition) and returns the pending command to apply later,
// or nil if it was applied immediately.
func stageSafeTransition(
	current float64,
	from, to approach.Approach,
	duration float64,
	setAllRed func(float64) error,
	setGreenNow func(approach.Approach, float64) error,
) (*pendingGreen, error) {
	if approach.SameGroup(from, to) {
		return nil, setGreenNow(to, duration)
	}
	if err := setAllRed(clearanceSeconds); err != nil {
		return nil, err
	}
	return &pendingGreen{approach: to, duration: duration, readyAt: current + clearanceSeconds}, nil
}

// advancePending applies a staged green once its clearance has elapsed.
func advancePending(current float64, p *pendingGreen, setGreenNow func(approach.Approach, float64) error) *pendingGreen {
	if p == nil || current < p.readyAt {
		return p
	}
	_ = setGreenNow(p.approach, p.duration)
	return nil
}
