// Package field implements the synthetic bending-strength field around the
// compact object. The law is an artistic approximation, not a metric: strength
// falls off with distance and grows with the ambient dimension.
package field

import (
	"fmt"
	"math"
)

type Params struct {
	HorizonRadius     float64 `yaml:"horizon_radius"`
	GravityStrength   float64 `yaml:"gravity_strength"`
	DimensionEmphasis float64 `yaml:"dimension_emphasis"`
	DistanceFalloff   float64 `yaml:"distance_falloff"`
	Epsilon           float64 `yaml:"epsilon"`
	BendScale         float64 `yaml:"bend_scale"`
	BendMaxPerStep    float64 `yaml:"bend_max_per_step"`
	LensingClamp      float64 `yaml:"lensing_clamp"`
	FarRadius         float64 `yaml:"far_radius"`
}

func DefaultParams() Params {
	return Params{
		HorizonRadius:     1.0,
		GravityStrength:   1.5,
		DimensionEmphasis: 0.6,
		DistanceFalloff:   2.0,
		Epsilon:           1e-3,
		BendScale:         1.0,
		BendMaxPerStep:    0.35,
		LensingClamp:      8.0,
		FarRadius:         20.0,
	}
}

func (p Params) Validate() error {
	if p.HorizonRadius <= 0 {
		return fmt.Errorf("horizon_radius must be positive, got %f", p.HorizonRadius)
	}
	if p.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive, got %f", p.Epsilon)
	}
	if p.GravityStrength < 0 {
		return fmt.Errorf("gravity_strength must be non-negative, got %f", p.GravityStrength)
	}
	if p.DimensionEmphasis < 0 {
		return fmt.Errorf("dimension_emphasis must be non-negative, got %f", p.DimensionEmphasis)
	}
	if p.DistanceFalloff <= 0 {
		return fmt.Errorf("distance_falloff must be positive, got %f", p.DistanceFalloff)
	}
	if p.LensingClamp < 0 {
		return fmt.Errorf("lensing_clamp must be non-negative, got %f", p.LensingClamp)
	}
	if p.BendMaxPerStep < 0 {
		return fmt.Errorf("bend_max_per_step must be non-negative, got %f", p.BendMaxPerStep)
	}
	if p.FarRadius <= 1 {
		return fmt.Errorf("far_radius must exceed 1 horizon radius, got %f", p.FarRadius)
	}
	return nil
}

// Field evaluates bending strength for a fixed dimension. The D^emphasis gain
// is hoisted out of the per-sample path.
type Field struct {
	p       Params
	dim     int
	dimGain float64
}

func New(p Params, dim int) *Field {
	return &Field{
		p:       p,
		dim:     dim,
		dimGain: math.Pow(float64(dim), p.DimensionEmphasis),
	}
}

func (f *Field) Dim() int       { return f.dim }
func (f *Field) Params() Params { return f.p }

// Strength returns clamp(k·D^α/(r+ε)^β, 0, lensingClamp).
func (f *Field) Strength(r float64) float64 {
	g := f.p.GravityStrength * f.dimGain / math.Pow(r+f.p.Epsilon, f.p.DistanceFalloff)
	if g < 0 {
		return 0
	}
	if g > f.p.LensingClamp {
		return f.p.LensingClamp
	}
	return g
}
