// Package manifold evaluates the dimension-generalized accretion structure
// and the photon-shell proximity mask. In 3-D the manifold is a thin disk; as
// the ambient dimension grows the orthogonal extent widens toward a diffuse
// field.
package manifold

import (
	"fmt"
	"math"

	"github.com/mdimension/gravlens/internal/ndim"
)

type Params struct {
	InnerRadius    float64 `yaml:"inner_radius"`
	OuterRadius    float64 `yaml:"outer_radius"`
	Thickness      float64 `yaml:"thickness"`
	DensityFalloff float64 `yaml:"density_falloff"`
	SwirlAmount    float64 `yaml:"swirl_amount"`
	SwirlSpeed     float64 `yaml:"swirl_speed"`
	NoiseScale     float64 `yaml:"noise_scale"`
	NoiseAmount    float64 `yaml:"noise_amount"`

	// AxisU and AxisV span the manifold plane. They must be unit length and
	// mutually orthogonal.
	AxisU ndim.Vec `yaml:"-"`
	AxisV ndim.Vec `yaml:"-"`
}

func DefaultParams() Params {
	return Params{
		InnerRadius:    2.2,
		OuterRadius:    9.0,
		Thickness:      0.35,
		DensityFalloff: 1.8,
		SwirlAmount:    0.45,
		SwirlSpeed:     0.6,
		NoiseScale:     1.4,
		NoiseAmount:    0.35,
	}
}

const axisTolerance = 1e-6

func (p Params) Validate(dim int) error {
	if p.InnerRadius >= p.OuterRadius {
		return fmt.Errorf("inner_radius %f must be below outer_radius %f", p.InnerRadius, p.OuterRadius)
	}
	if p.InnerRadius < 0 {
		return fmt.Errorf("inner_radius must be non-negative, got %f", p.InnerRadius)
	}
	if p.Thickness <= 0 {
		return fmt.Errorf("thickness must be positive, got %f", p.Thickness)
	}
	if p.SwirlAmount < 0 || p.SwirlAmount > 1 {
		return fmt.Errorf("swirl_amount must be in [0,1], got %f", p.SwirlAmount)
	}
	if p.NoiseAmount < 0 || p.NoiseAmount > 1 {
		return fmt.Errorf("noise_amount must be in [0,1], got %f", p.NoiseAmount)
	}
	if len(p.AxisU) != dim || len(p.AxisV) != dim {
		return fmt.Errorf("manifold axes must have dimension %d", dim)
	}
	if math.Abs(p.AxisU.Norm()-1) > axisTolerance || math.Abs(p.AxisV.Norm()-1) > axisTolerance {
		return fmt.Errorf("manifold axes must be unit length")
	}
	if math.Abs(p.AxisU.Dot(p.AxisV)) > axisTolerance {
		return fmt.Errorf("manifold axes must be orthogonal")
	}
	return nil
}

// Manifold evaluates accretion density at sample points.
type Manifold struct {
	p       Params
	dim     int
	feather float64
	wScale  float64
}

func New(p Params, dim int) *Manifold {
	// As D grows the disk relaxes into sheet, slab, then field: the orthogonal
	// residual is weighted less, so matter extends further off-plane.
	spread := (float64(dim) - 3) / 8.0
	if spread < 0 {
		spread = 0
	}
	if spread > 1 {
		spread = 1
	}
	return &Manifold{
		p:       p,
		dim:     dim,
		feather: 0.25 * (p.OuterRadius - p.InnerRadius),
		wScale:  1.0 / (1.0 + 3.0*spread),
	}
}

func (m *Manifold) Params() Params { return m.p }

// Density returns the accretion density at pos at animation time t.
// The result is always non-negative.
func (m *Manifold) Density(pos ndim.Vec, t float64) float64 {
	u := pos.Dot(m.p.AxisU)
	v := pos.Dot(m.p.AxisV)
	planarR := math.Hypot(u, v)

	mask := smoothstep(m.p.InnerRadius, m.p.InnerRadius+m.feather, planarR) *
		(1 - smoothstep(m.p.OuterRadius-m.feather, m.p.OuterRadius, planarR))
	if mask <= 0 {
		return 0
	}

	// Orthogonal residual: distance from pos to the manifold plane.
	res2 := pos.Dot(pos) - u*u - v*v
	if res2 < 0 {
		res2 = 0
	}
	residual := math.Sqrt(res2)

	density := math.Exp(-math.Abs(residual*m.wScale)/m.p.Thickness*m.p.DensityFalloff) * mask

	if m.p.SwirlAmount > 0 {
		azimuth := math.Atan2(v, u)
		swirl := 1 + m.p.SwirlAmount*math.Sin(3*azimuth+2*planarR-m.p.SwirlSpeed*t)
		density *= swirl
	}
	if m.p.NoiseAmount > 0 {
		n := fbm3(u*m.p.NoiseScale, v*m.p.NoiseScale, residual*m.p.NoiseScale)
		density *= 1 + m.p.NoiseAmount*(2*n-1)
	}
	if density < 0 {
		return 0
	}
	return density
}

// DensityBase is Density without the swirl and noise modulation. Used while
// interaction quality reduction has secondary detail switched off.
func (m *Manifold) DensityBase(pos ndim.Vec) float64 {
	u := pos.Dot(m.p.AxisU)
	v := pos.Dot(m.p.AxisV)
	planarR := math.Hypot(u, v)

	mask := smoothstep(m.p.InnerRadius, m.p.InnerRadius+m.feather, planarR) *
		(1 - smoothstep(m.p.OuterRadius-m.feather, m.p.OuterRadius, planarR))
	if mask <= 0 {
		return 0
	}
	res2 := pos.Dot(pos) - u*u - v*v
	if res2 < 0 {
		res2 = 0
	}
	residual := math.Sqrt(res2)
	return math.Exp(-math.Abs(residual*m.wScale)/m.p.Thickness*m.p.DensityFalloff) * mask
}

// PlaneNormal returns a unit vector orthogonal to the manifold plane, chosen
// within the span of the supplied probe axis. Used for the pseudo-normal
// output; falls back to the probe when it lies in the plane.
func (m *Manifold) PlaneNormal(probe ndim.Vec) ndim.Vec {
	n := probe.Clone()
	n.AddScaled(m.p.AxisU, -probe.Dot(m.p.AxisU))
	n.AddScaled(m.p.AxisV, -probe.Dot(m.p.AxisV))
	if n.Norm() < 1e-9 {
		return probe.Unit()
	}
	return n.Unit()
}

func smoothstep(edge0, edge1, x float64) float64 {
	if edge0 == edge1 {
		if x < edge0 {
			return 0
		}
		return 1
	}
	t := (x - edge0) / (edge1 - edge0)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
