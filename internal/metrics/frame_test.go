package metrics

import (
	"testing"
	"time"
)

func TestFrameStatsMerge(t *testing.T) {
	a := FrameStats{Rays: 10, Captured: 2, Escaped: 8, VolumeSteps: 500}
	a.Merge(FrameStats{Rays: 5, Captured: 1, Escaped: 4, VolumeSteps: 100})

	if a.Rays != 15 || a.Captured != 3 || a.Escaped != 12 || a.VolumeSteps != 600 {
		t.Errorf("merge result: %+v", a)
	}
	if got := a.MeanSteps(); got != 40 {
		t.Errorf("mean steps: expected 40, got %f", got)
	}
	if got := a.CapturedFraction(); got != 0.2 {
		t.Errorf("captured fraction: expected 0.2, got %f", got)
	}
}

func TestFrameStatsEmpty(t *testing.T) {
	var s FrameStats
	if s.MeanSteps() != 0 || s.CapturedFraction() != 0 {
		t.Error("empty stats must report zero without dividing by zero")
	}
}

func TestMeanFrameTime(t *testing.T) {
	m := NewMeanFrameTime()
	m.Observe(FrameStats{Duration: 20 * time.Millisecond})
	m.Observe(FrameStats{Duration: 40 * time.Millisecond})
	if got := m.Value(); got != 30 {
		t.Errorf("mean frame time: expected 30, got %f", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("reset failed")
	}
}

func TestMeanFrameTimeSubMillisecond(t *testing.T) {
	m := NewMeanFrameTime()
	m.Observe(FrameStats{Duration: 500 * time.Microsecond})
	m.Observe(FrameStats{Duration: 500 * time.Microsecond})
	if got := m.Value(); got != 0.5 {
		t.Errorf("sub-millisecond frames must not truncate to zero: got %f", got)
	}
}

func TestMeanStepsPerRay(t *testing.T) {
	m := NewMeanStepsPerRay()
	m.Observe(FrameStats{Rays: 100, VolumeSteps: 5000})
	m.Observe(FrameStats{Rays: 100, VolumeSteps: 3000})
	if got := m.Value(); got != 40 {
		t.Errorf("mean steps per ray: expected 40, got %f", got)
	}
}

func TestCapturedFractionMetric(t *testing.T) {
	m := NewCapturedFraction()
	m.Observe(FrameStats{Rays: 60, Captured: 30})
	m.Observe(FrameStats{Rays: 40, Captured: 20})
	if got := m.Value(); got != 0.5 {
		t.Errorf("captured fraction: expected 0.5, got %f", got)
	}
	if m.Name() != "captured_fraction" {
		t.Errorf("unexpected name %q", m.Name())
	}
}
