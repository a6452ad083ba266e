package trace

import (
	"math"
	"testing"

	"github.com/mdimension/gravlens/internal/ndim"
)

func TestAccumTransmittanceMonotone(t *testing.T) {
	md := NewMedium(DefaultVolumeParams(), [3]float64{1, 1, 1}, 1)
	acc := NewAccum(3, 0.01)
	pos := ndim.Vec{5, 0, 0}

	prev := acc.T
	for i := 0; i < 200; i++ {
		md.Sample(acc, pos, 0.8, 0.1, 0, 0.1)
		if acc.T > prev {
			t.Fatalf("transmittance increased at step %d: %f > %f", i, acc.T, prev)
		}
		prev = acc.T
	}
}

func TestAccumEarlyExitIdempotent(t *testing.T) {
	md := NewMedium(DefaultVolumeParams(), [3]float64{1, 1, 1}, 1)
	acc := NewAccum(3, 0.01)
	pos := ndim.Vec{5, 0, 0}

	// Drive transmittance below the cutoff.
	for i := 0; i < 1000 && !acc.Opaque(); i++ {
		md.Sample(acc, pos, 50, 0, 0, 0.5)
	}
	if !acc.Opaque() {
		t.Fatal("failed to saturate the accumulator")
	}

	color := acc.Color
	steps := acc.Steps
	for i := 0; i < 50; i++ {
		md.Sample(acc, pos, 10, 1, 1, 0.5)
	}
	if acc.Color != color {
		t.Errorf("color changed after early exit: %v vs %v", acc.Color, color)
	}
	if acc.Steps != steps {
		t.Errorf("steps advanced after early exit: %d vs %d", acc.Steps, steps)
	}
}

func TestAccumNoAbsorption(t *testing.T) {
	vp := DefaultVolumeParams()
	vp.AbsorptionEnabled = false
	md := NewMedium(vp, [3]float64{1, 1, 1}, 1)
	acc := NewAccum(3, 0.01)

	for i := 0; i < 100; i++ {
		md.Sample(acc, ndim.Vec{3, 0, 0}, 5, 0.5, 0.1, 0.2)
	}
	if acc.T != 1 {
		t.Errorf("transmittance moved with absorption disabled: %f", acc.T)
	}
	if acc.Color[0] <= 0 {
		t.Error("emission missing with absorption disabled")
	}
}

func TestAccumPeakTracking(t *testing.T) {
	md := NewMedium(DefaultVolumeParams(), [3]float64{1, 1, 1}, 1)
	acc := NewAccum(3, 0.01)

	weak := ndim.Vec{8, 0, 0}
	strong := ndim.Vec{4, 0, 0}
	md.Sample(acc, weak, 0.1, 0, 0, 0.1)
	md.Sample(acc, strong, 3.0, 0.5, 0, 0.1)
	md.Sample(acc, weak, 0.05, 0, 0, 0.1)

	if !acc.HasPeak {
		t.Fatal("peak not recorded")
	}
	for i := range strong {
		if acc.PeakPos[i] != strong[i] {
			t.Fatalf("peak position %v, expected %v", acc.PeakPos, strong)
		}
	}
}

func TestAccumReset(t *testing.T) {
	md := NewMedium(DefaultVolumeParams(), [3]float64{1, 1, 1}, 1)
	acc := NewAccum(3, 0.01)
	md.Sample(acc, ndim.Vec{4, 0, 0}, 2, 1, 1, 0.3)
	acc.Reset()

	if acc.T != 1 || acc.Color != (RGB{}) || acc.Steps != 0 || acc.HasPeak {
		t.Errorf("reset incomplete: %+v", acc)
	}
}

func TestAddBackgroundWeightedByTransmittance(t *testing.T) {
	acc := NewAccum(3, 0.01)
	acc.T = 0.5
	acc.AddBackground(RGB{1, 0.5, 0.25})
	want := RGB{0.5, 0.25, 0.125}
	for i := range want {
		if math.Abs(acc.Color[i]-want[i]) > 1e-12 {
			t.Fatalf("background blend channel %d: expected %f, got %f", i, want[i], acc.Color[i])
		}
	}
}

func TestRGBLuminance(t *testing.T) {
	if got := (RGB{1, 1, 1}).Luminance(); math.Abs(got-1) > 1e-9 {
		t.Errorf("white luminance: expected 1, got %f", got)
	}
	if got := (RGB{}).Luminance(); got != 0 {
		t.Errorf("black luminance: expected 0, got %f", got)
	}
}
