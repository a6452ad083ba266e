package trace

import (
	"fmt"
	"math"

	"github.com/mdimension/gravlens/internal/ndim"
)

// RGB is linear radiance.
type RGB [3]float64

func (c RGB) Add(o RGB) RGB       { return RGB{c[0] + o[0], c[1] + o[1], c[2] + o[2]} }
func (c RGB) Scale(s float64) RGB { return RGB{c[0] * s, c[1] * s, c[2] * s} }

// Luminance returns the Rec.709 luma of the color.
func (c RGB) Luminance() float64 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

type VolumeParams struct {
	BaseColor           [3]float64 `yaml:"base_color"`
	ManifoldIntensity   float64    `yaml:"manifold_intensity"`
	HorizonGlowColor    [3]float64 `yaml:"horizon_glow_color"`
	HorizonGlowStrength float64    `yaml:"horizon_glow_strength"`
	AbsorptionEnabled   bool       `yaml:"absorption_enabled"`
	AbsorptionCoeff     float64    `yaml:"absorption_coeff"`
	Cutoff              float64    `yaml:"cutoff"`
}

func DefaultVolumeParams() VolumeParams {
	return VolumeParams{
		BaseColor:           [3]float64{1.0, 0.55, 0.2},
		ManifoldIntensity:   1.6,
		HorizonGlowColor:    [3]float64{0.45, 0.25, 0.9},
		HorizonGlowStrength: 0.4,
		AbsorptionEnabled:   true,
		AbsorptionCoeff:     0.9,
		Cutoff:              0.01,
	}
}

func (p VolumeParams) Validate() error {
	if p.Cutoff <= 0 || p.Cutoff >= 1 {
		return fmt.Errorf("transmittance cutoff must be in (0,1), got %f", p.Cutoff)
	}
	if p.AbsorptionCoeff < 0 {
		return fmt.Errorf("absorption_coeff must be non-negative, got %f", p.AbsorptionCoeff)
	}
	if p.ManifoldIntensity < 0 {
		return fmt.Errorf("manifold_intensity must be non-negative, got %f", p.ManifoldIntensity)
	}
	return nil
}

// Medium holds the per-frame emission terms, precombined so the per-step
// sample is a handful of multiply-adds.
type Medium struct {
	Base       RGB
	Shell      RGB
	Horizon    RGB
	Absorb     bool
	Absorption float64
}

func NewMedium(vp VolumeParams, shellColor [3]float64, shellGlow float64) Medium {
	return Medium{
		Base:       RGB(vp.BaseColor).Scale(vp.ManifoldIntensity),
		Shell:      RGB(shellColor).Scale(shellGlow),
		Horizon:    RGB(vp.HorizonGlowColor).Scale(vp.HorizonGlowStrength),
		Absorb:     vp.AbsorptionEnabled,
		Absorption: vp.AbsorptionCoeff,
	}
}

// Accum integrates emission and transmittance front to back along one ray.
type Accum struct {
	Color        RGB
	T            float64
	ManifoldWt   float64
	ShellWt      float64
	PeakPos      ndim.Vec
	HasPeak      bool
	Steps        int
	peakStrength float64
	cutoff       float64
}

func NewAccum(dim int, cutoff float64) *Accum {
	a := &Accum{PeakPos: ndim.NewVec(dim), cutoff: cutoff}
	a.Reset()
	return a
}

func (a *Accum) Reset() {
	a.Color = RGB{}
	a.T = 1
	a.ManifoldWt = 0
	a.ShellWt = 0
	a.HasPeak = false
	a.Steps = 0
	a.peakStrength = 0
	a.PeakPos.Zero()
}

// Opaque reports whether transmittance has fallen below the cutoff. Once it
// has, further samples are no-ops.
func (a *Accum) Opaque() bool { return a.T < a.cutoff }

// Sample adds one integration step. Simple Riemann accumulation by design:
// emission·transmittance·dt, transmittance attenuated by local density.
func (md *Medium) Sample(a *Accum, pos ndim.Vec, density, shellMask, horizonGlow, dt float64) {
	if a.Opaque() {
		return
	}
	a.Steps++

	emission := RGB{
		density*md.Base[0] + shellMask*md.Shell[0] + horizonGlow*md.Horizon[0],
		density*md.Base[1] + shellMask*md.Shell[1] + horizonGlow*md.Horizon[1],
		density*md.Base[2] + shellMask*md.Shell[2] + horizonGlow*md.Horizon[2],
	}

	if md.Absorb {
		a.T *= math.Exp(-density * md.Absorption * dt)
	}

	a.Color[0] += a.T * emission[0] * dt
	a.Color[1] += a.T * emission[1] * dt
	a.Color[2] += a.T * emission[2] * dt

	a.ManifoldWt += density * a.T * dt
	a.ShellWt += shellMask * a.T * dt

	if s := emission.Luminance() * a.T; s > a.peakStrength {
		a.peakStrength = s
		a.PeakPos.CopyFrom(pos)
		a.HasPeak = true
	}
}

// AddBackground composites escaped-ray radiance behind the accumulated
// volume.
func (a *Accum) AddBackground(radiance RGB) {
	a.Color[0] += radiance[0] * a.T
	a.Color[1] += radiance[1] * a.T
	a.Color[2] += radiance[2] * a.T
}
