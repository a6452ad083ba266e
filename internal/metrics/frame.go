// Package metrics collects per-frame rendering statistics: ray outcomes,
// integration effort and frame timing.
package metrics

import "time"

// FrameStats is the tally of a single rendered frame. Workers accumulate
// private copies and merge them after the join, so no locking is needed
// during integration.
type FrameStats struct {
	Rays        int
	Captured    int
	Escaped     int
	VolumeSteps int
	Duration    time.Duration
}

func (s *FrameStats) Merge(o FrameStats) {
	s.Rays += o.Rays
	s.Captured += o.Captured
	s.Escaped += o.Escaped
	s.VolumeSteps += o.VolumeSteps
}

// MeanSteps is the average volume step count per ray.
func (s *FrameStats) MeanSteps() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.VolumeSteps) / float64(s.Rays)
}

// CapturedFraction is the share of rays that ended on the horizon or went
// opaque.
func (s *FrameStats) CapturedFraction() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.Captured) / float64(s.Rays)
}

// Metric aggregates frame statistics across a run.
type Metric interface {
	Name() string
	Observe(s FrameStats)
	Value() float64
	Reset()
}

type MeanFrameTime struct {
	total  time.Duration
	frames int
}

func NewMeanFrameTime() *MeanFrameTime { return &MeanFrameTime{} }

func (m *MeanFrameTime) Name() string { return "mean_frame_ms" }

func (m *MeanFrameTime) Observe(s FrameStats) {
	m.total += s.Duration
	m.frames++
}

func (m *MeanFrameTime) Value() float64 {
	if m.frames == 0 {
		return 0
	}
	// Seconds, not Milliseconds: the latter truncates and zeroes out
	// sub-millisecond frames.
	return m.total.Seconds() * 1000 / float64(m.frames)
}

func (m *MeanFrameTime) Reset() {
	m.total = 0
	m.frames = 0
}

type MeanStepsPerRay struct {
	steps int
	rays  int
}

func NewMeanStepsPerRay() *MeanStepsPerRay { return &MeanStepsPerRay{} }

func (m *MeanStepsPerRay) Name() string { return "mean_steps_per_ray" }

func (m *MeanStepsPerRay) Observe(s FrameStats) {
	m.steps += s.VolumeSteps
	m.rays += s.Rays
}

func (m *MeanStepsPerRay) Value() float64 {
	if m.rays == 0 {
		return 0
	}
	return float64(m.steps) / float64(m.rays)
}

func (m *MeanStepsPerRay) Reset() {
	m.steps = 0
	m.rays = 0
}

type CapturedFraction struct {
	captured int
	rays     int
}

func NewCapturedFraction() *CapturedFraction { return &CapturedFraction{} }

func (m *CapturedFraction) Name() string { return "captured_fraction" }

func (m *CapturedFraction) Observe(s FrameStats) {
	m.captured += s.Captured
	m.rays += s.Rays
}

func (m *CapturedFraction) Value() float64 {
	if m.rays == 0 {
		return 0
	}
	return float64(m.captured) / float64(m.rays)
}

func (m *CapturedFraction) Reset() {
	m.captured = 0
	m.rays = 0
}
