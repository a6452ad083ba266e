package trace

import (
	"fmt"
	"math"

	"github.com/mdimension/gravlens/internal/field"
	"github.com/mdimension/gravlens/internal/manifold"
	"github.com/mdimension/gravlens/internal/ndim"
)

// Outcome is the terminal state of a traced ray. A ray that exhausts its step
// budget is folded into Escaped so every pixel terminates with a defined
// value.
type Outcome uint8

const (
	Traveling Outcome = iota
	Captured
	Escaped
)

func (o Outcome) String() string {
	switch o {
	case Captured:
		return "captured"
	case Escaped:
		return "escaped"
	default:
		return "traveling"
	}
}

type StepParams struct {
	Base          float64 `yaml:"base"`
	Min           float64 `yaml:"min"`
	Max           float64 `yaml:"max"`
	AdaptGravity  float64 `yaml:"adapt_gravity"`
	AdaptRadius   float64 `yaml:"adapt_radius"`
	MaxSteps      int     `yaml:"max_steps"`
	ShellSlowdown float64 `yaml:"shell_slowdown"`
}

func DefaultStepParams() StepParams {
	return StepParams{
		Base:          0.12,
		Min:           0.02,
		Max:           0.6,
		AdaptGravity:  2.0,
		AdaptRadius:   0.15,
		MaxSteps:      384,
		ShellSlowdown: 0.35,
	}
}

func (p StepParams) Validate() error {
	if p.Min <= 0 {
		return fmt.Errorf("step min must be positive, got %f", p.Min)
	}
	if p.Max < p.Min {
		return fmt.Errorf("step max %f must not be below step min %f", p.Max, p.Min)
	}
	if p.Base <= 0 {
		return fmt.Errorf("step base must be positive, got %f", p.Base)
	}
	if p.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", p.MaxSteps)
	}
	if p.ShellSlowdown <= 0 || p.ShellSlowdown > 1 {
		return fmt.Errorf("shell_slowdown must be in (0,1], got %f", p.ShellSlowdown)
	}
	return nil
}

// tangentTolerance guards the bend against numeric degeneracy: when the
// direction is (anti)radial the rotation plane is undefined and the bend for
// that sample is skipped rather than propagated.
const tangentTolerance = 1e-9

// Integrator advances rays with adaptive steps and rotation-based bending.
// It is stateless across rays and safe for concurrent use; each goroutine
// brings its own Ray and Accum.
type Integrator struct {
	field    *field.Field
	manifold *manifold.Manifold
	shell    *manifold.Shell
	medium   Medium
	step     StepParams

	dim      int
	horizon  float64
	far      float64
	bendMul  float64
	bendMax  float64
	glowNorm float64

	// Secondary toggles swirl/noise density detail and the horizon glow;
	// the quality controller drops it during interaction.
	Secondary bool
}

func NewIntegrator(f *field.Field, m *manifold.Manifold, sh *manifold.Shell, md Medium, sp StepParams) *Integrator {
	fp := f.Params()
	return &Integrator{
		field:     f,
		manifold:  m,
		shell:     sh,
		medium:    md,
		step:      sp,
		dim:       f.Dim(),
		horizon:   fp.HorizonRadius,
		far:       fp.FarRadius * fp.HorizonRadius,
		bendMul:   fp.BendScale,
		bendMax:   fp.BendMaxPerStep,
		glowNorm:  1 / (0.5 * fp.HorizonRadius),
		Secondary: true,
	}
}

func (it *Integrator) Dim() int { return it.dim }

// Trace advances ray until it is captured by the horizon, escapes past the
// far radius, goes opaque, or spends its step budget. Volumetric emission is
// accumulated into acc; background radiance for escaped rays is the caller's
// concern.
func (it *Integrator) Trace(ray *Ray, acc *Accum, t float64, maxSteps int) Outcome {
	if maxSteps <= 0 || maxSteps > it.step.MaxSteps {
		maxSteps = it.step.MaxSteps
	}
	w := ndim.NewVec(it.dim)

	for i := 0; i < maxSteps; i++ {
		r := ray.Pos.Norm()
		if r < it.horizon {
			return Captured
		}
		if r > it.far {
			return Escaped
		}

		g := it.field.Strength(r)
		dt := it.stepSize(g, r)

		var density float64
		if it.Secondary {
			density = it.manifold.Density(ray.Pos, t)
		} else {
			density = it.manifold.DensityBase(ray.Pos)
		}
		shellMask := it.shell.Mask(r)
		glow := 0.0
		if it.Secondary {
			glow = math.Exp(-(r - it.horizon) * it.glowNorm)
		}
		it.medium.Sample(acc, ray.Pos, density, shellMask, glow, dt)
		if acc.Opaque() {
			// Nothing behind an opaque ray can reach the viewer; same
			// handling as a horizon capture.
			return Captured
		}

		if theta := it.bendAngle(g, dt); theta > 0 {
			it.bend(ray, r, theta, w)
		}
		ray.Advance(dt)
	}
	return Escaped
}

// stepSize computes the adaptive step: shrink where bending is strong, grow
// with distance, and slow down across the photon shell so the glow band stays
// resolved.
func (it *Integrator) stepSize(g, r float64) float64 {
	dt := it.step.Base / (1 + it.step.AdaptGravity*g) * (1 + it.step.AdaptRadius*r)
	if dt < it.step.Min {
		dt = it.step.Min
	}
	if dt > it.step.Max {
		dt = it.step.Max
	}
	if d := math.Abs(r - it.shell.Radius()); d < it.shell.Delta() {
		dt *= it.step.ShellSlowdown + (1-it.step.ShellSlowdown)*(d/it.shell.Delta())
		if dt < it.step.Min {
			dt = it.step.Min
		}
	}
	return dt
}

func (it *Integrator) bendAngle(g, dt float64) float64 {
	theta := g * dt * it.bendMul
	if theta < 0 {
		return 0
	}
	if theta > it.bendMax {
		return it.bendMax
	}
	return theta
}

// bend rotates the direction toward the center by theta, strictly within the
// plane spanned by the direction and the radial. The rotation is exact, so
// the direction stays unit length analytically rather than approximately.
func (it *Integrator) bend(ray *Ray, r, theta float64, w ndim.Vec) {
	if r < tangentTolerance {
		return
	}
	// w = radial component orthogonal to the direction.
	inv := -1 / r
	for i := range w {
		w[i] = ray.Pos[i] * inv
	}
	w.AddScaled(ray.Dir, -w.Dot(ray.Dir))
	wn := w.Norm()
	if wn < tangentTolerance {
		// Direction is purely radial; the bend plane is undefined. Skip this
		// sample instead of propagating an invalid value.
		return
	}
	w.ScaleInPlace(1 / wn)

	c, s := math.Cos(theta), math.Sin(theta)
	for i := range ray.Dir {
		ray.Dir[i] = ray.Dir[i]*c + w[i]*s
	}
}
