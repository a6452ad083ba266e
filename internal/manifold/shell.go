package manifold

import (
	"fmt"
	"math"
)

type ShellParams struct {
	RadiusMul     float64    `yaml:"radius_mul"`
	RadiusDimBias float64    `yaml:"radius_dim_bias"`
	Width         float64    `yaml:"width"`
	GlowStrength  float64    `yaml:"glow_strength"`
	Color         [3]float64 `yaml:"color"`
}

func DefaultShellParams() ShellParams {
	return ShellParams{
		RadiusMul:     1.5,
		RadiusDimBias: 0.18,
		Width:         0.25,
		GlowStrength:  1.2,
		Color:         [3]float64{1.0, 0.85, 0.55},
	}
}

func (p ShellParams) Validate() error {
	if p.RadiusMul <= 0 {
		return fmt.Errorf("shell radius_mul must be positive, got %f", p.RadiusMul)
	}
	if p.Width <= 0 {
		return fmt.Errorf("shell width must be positive, got %f", p.Width)
	}
	if p.GlowStrength < 0 {
		return fmt.Errorf("shell glow_strength must be non-negative, got %f", p.GlowStrength)
	}
	return nil
}

// Shell is the thin spherical band outside the horizon where bent rays
// linger. The radius carries a logarithmic dimension bias; it is an art
// parameter, not a derived law.
type Shell struct {
	p      ShellParams
	radius float64
	delta  float64
}

func NewShell(p ShellParams, horizonRadius float64, dim int) *Shell {
	return &Shell{
		p:      p,
		radius: horizonRadius * (p.RadiusMul + p.RadiusDimBias*math.Log(float64(dim))),
		delta:  p.Width * horizonRadius,
	}
}

func (s *Shell) Radius() float64     { return s.radius }
func (s *Shell) Delta() float64      { return s.delta }
func (s *Shell) Params() ShellParams { return s.p }

// Mask peaks at exactly 1 on the shell radius and falls to 0 once the
// distance from the shell reaches the shell width.
func (s *Shell) Mask(r float64) float64 {
	return 1 - smoothstep(0, s.delta, math.Abs(r-s.radius))
}
