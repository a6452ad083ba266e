// Package quality scales integration budgets with interaction state so the
// integrator, the single most expensive stage, stays inside the frame budget
// while the camera moves.
package quality

import "time"

const (
	// InteractionHold keeps the reduced-quality flag up briefly after the
	// last camera or orientation change.
	InteractionHold = 150 * time.Millisecond

	minFactor = 0.25
)

// Refinement ramp after interaction stops.
var (
	rampDelays = [4]time.Duration{0, 100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}
	rampLevels = [4]float64{0.25, 0.5, 0.75, 1.0}
)

// Controller combines two independent multiplicative triggers: an immediate
// interaction flag that halves step counts and disables secondary effects,
// and a progressive refinement multiplier that ramps quality back up once
// interaction stops. The combined factor stays in [0.25, 1] and never rises
// while the interaction flag is active.
type Controller struct {
	now             func() time.Time
	lastInteraction time.Time
	interacted      bool
}

func NewController() *Controller {
	return &Controller{now: time.Now}
}

// NewControllerWithClock injects a clock for tests.
func NewControllerWithClock(now func() time.Time) *Controller {
	return &Controller{now: now}
}

// Interact records a camera or orientation change.
func (c *Controller) Interact() {
	c.lastInteraction = c.now()
	c.interacted = true
}

// Interacting reports whether the immediate flag is still up.
func (c *Controller) Interacting() bool {
	return c.interacted && c.now().Sub(c.lastInteraction) < InteractionHold
}

// Factor returns the combined quality multiplier in [0.25, 1].
func (c *Controller) Factor() float64 {
	f := c.ramp()
	if c.Interacting() {
		f *= 0.5
	}
	if f < minFactor {
		f = minFactor
	}
	if f > 1 {
		f = 1
	}
	return f
}

// ramp is the progressive refinement multiplier measured from the moment the
// interaction flag cleared.
func (c *Controller) ramp() float64 {
	if !c.interacted {
		return 1
	}
	if c.Interacting() {
		return rampLevels[0]
	}
	settled := c.now().Sub(c.lastInteraction) - InteractionHold
	level := rampLevels[0]
	for i, d := range rampDelays {
		if settled >= d {
			level = rampLevels[i]
		}
	}
	return level
}

// StepBudget scales a base step count, keeping at least one step.
func (c *Controller) StepBudget(base int) int {
	n := int(float64(base) * c.Factor())
	if n < 1 {
		n = 1
	}
	return n
}

// SecondaryEnabled reports whether secondary effects (density detail, horizon
// glow) should be sampled this frame. They are switched off outright while
// interacting.
func (c *Controller) SecondaryEnabled() bool {
	return !c.Interacting()
}
