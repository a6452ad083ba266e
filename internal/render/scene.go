package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/mdimension/gravlens/internal/config"
	"github.com/mdimension/gravlens/internal/field"
	"github.com/mdimension/gravlens/internal/manifold"
	"github.com/mdimension/gravlens/internal/ndim"
	"github.com/mdimension/gravlens/internal/trace"
)

// ErrConfiguration marks scene construction failures caused by invalid
// parameters. Everything past construction degrades instead of erroring.
var ErrConfiguration = errors.New("configuration invalid")

// Scene is the immutable per-configuration state shared by all workers: the
// rotation frame, the embedding, the integrator and the background.
type Scene struct {
	Cfg        *config.Config
	Dim        int
	Basis      *ndim.Basis
	Embed      trace.EmbedBasis
	Integrator *trace.Integrator
	Manifold   *manifold.Manifold
	Background *trace.Background
}

func NewScene(cfg *config.Config) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	dim := cfg.Dimension

	basis := ndim.Identity(dim)
	for _, rot := range cfg.Rotations {
		i, j, err := ndim.ParsePlane(rot.Plane)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		if err := basis.RotatePlane(i, j, rot.Angle*math.Pi/180); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	// The manifold spans the rotated X–Z plane; the rotated Y axis is its
	// principal normal in 3-space.
	mp := cfg.Manifold
	mp.AxisU = basis.Axis(0)
	mp.AxisV = basis.Axis(2)
	if err := mp.Validate(dim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	f := field.New(cfg.Field, dim)
	m := manifold.New(mp, dim)
	sh := manifold.NewShell(cfg.Shell, cfg.Field.HorizonRadius, dim)
	md := trace.NewMedium(cfg.Volume, cfg.Shell.Color, cfg.Shell.GlowStrength)

	bg, err := buildBackground(cfg.Background)
	if err != nil {
		return nil, err
	}

	return &Scene{
		Cfg:        cfg,
		Dim:        dim,
		Basis:      basis,
		Embed:      trace.NewEmbedBasis(basis, cfg.SliceOffset),
		Integrator: trace.NewIntegrator(f, m, sh, md, cfg.Step),
		Manifold:   m,
		Background: bg,
	}, nil
}

func buildBackground(bc config.BackgroundConfig) (*trace.Background, error) {
	switch bc.Kind {
	case "solid":
		return trace.SolidBackground(trace.RGB(bc.Color)), nil
	case "stars":
		return trace.StarBackground(bc.StarDensity, bc.StarBrightness), nil
	case "environment":
		env, err := trace.LoadEnvironment(bc.EnvironmentPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		return trace.EnvironmentBackground(env), nil
	default:
		return nil, fmt.Errorf("%w: unknown background kind %q", ErrConfiguration, bc.Kind)
	}
}
