package quality

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time              { return f.t }
func (f *fakeClock) advance(d time.Duration)     { f.t = f.t.Add(d) }
func newClock() *fakeClock                       { return &fakeClock{t: time.Unix(1000, 0)} }
func newTestController(c *fakeClock) *Controller { return NewControllerWithClock(c.now) }

func TestFullQualityWithoutInteraction(t *testing.T) {
	c := newTestController(newClock())
	if got := c.Factor(); got != 1 {
		t.Errorf("idle factor: expected 1, got %f", got)
	}
	if !c.SecondaryEnabled() {
		t.Error("secondary effects should be on while idle")
	}
}

func TestInteractionDropsQualityImmediately(t *testing.T) {
	clock := newClock()
	c := newTestController(clock)
	c.Interact()

	if got := c.Factor(); got != 0.25 {
		t.Errorf("interacting factor: expected floor 0.25, got %f", got)
	}
	if c.SecondaryEnabled() {
		t.Error("secondary effects must be disabled while interacting")
	}
	if !c.Interacting() {
		t.Error("interaction flag should be up")
	}
}

func TestQualityNeverRisesWhileInteracting(t *testing.T) {
	clock := newClock()
	c := newTestController(clock)

	prev := 1.0
	for i := 0; i < 20; i++ {
		c.Interact()
		got := c.Factor()
		if got > prev {
			t.Fatalf("quality rose during interaction: %f > %f", got, prev)
		}
		prev = got
		clock.advance(50 * time.Millisecond)
	}
}

func TestRefinementRamp(t *testing.T) {
	tests := []struct {
		settle time.Duration
		want   float64
	}{
		{0, 0.25},
		{50 * time.Millisecond, 0.25},
		{100 * time.Millisecond, 0.5},
		{200 * time.Millisecond, 0.5},
		{300 * time.Millisecond, 0.75},
		{450 * time.Millisecond, 0.75},
		{500 * time.Millisecond, 1.0},
		{2 * time.Second, 1.0},
	}
	for _, tt := range tests {
		clock := newClock()
		c := newTestController(clock)
		c.Interact()
		clock.advance(InteractionHold + tt.settle)
		if got := c.Factor(); got != tt.want {
			t.Errorf("settle %v: expected %f, got %f", tt.settle, tt.want, got)
		}
	}
}

func TestRampMonotone(t *testing.T) {
	clock := newClock()
	c := newTestController(clock)
	c.Interact()

	prev := 0.0
	for i := 0; i < 100; i++ {
		clock.advance(10 * time.Millisecond)
		got := c.Factor()
		if got < prev {
			t.Fatalf("quality decreased during refinement at step %d: %f < %f", i, got, prev)
		}
		prev = got
	}
	if prev != 1 {
		t.Errorf("ramp should settle at 1, got %f", prev)
	}
}

func TestStepBudget(t *testing.T) {
	clock := newClock()
	c := newTestController(clock)

	if got := c.StepBudget(400); got != 400 {
		t.Errorf("idle budget: expected 400, got %d", got)
	}
	c.Interact()
	if got := c.StepBudget(400); got != 100 {
		t.Errorf("interacting budget: expected 100, got %d", got)
	}
	if got := c.StepBudget(1); got < 1 {
		t.Errorf("budget must stay at least 1, got %d", got)
	}
}
