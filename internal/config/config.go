// Package config loads, validates and persists scene configuration. This is
// the single place where invalid parameters surface as errors; past
// validation, every downstream degeneracy degrades to a safe fallback
// instead of failing the frame.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mdimension/gravlens/internal/field"
	"github.com/mdimension/gravlens/internal/manifold"
	"github.com/mdimension/gravlens/internal/ndim"
	"github.com/mdimension/gravlens/internal/temporal"
	"github.com/mdimension/gravlens/internal/trace"
)

const (
	MinDimension = 3
	MaxDimension = 11
)

type Rotation struct {
	Plane string  `yaml:"plane"`
	Angle float64 `yaml:"angle"` // degrees
}

type BackgroundConfig struct {
	Kind            string     `yaml:"kind"` // solid | stars | environment
	Color           [3]float64 `yaml:"color"`
	StarDensity     float64    `yaml:"star_density"`
	StarBrightness  float64    `yaml:"star_brightness"`
	EnvironmentPath string     `yaml:"environment_path"`
}

type RenderConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Workers  int     `yaml:"workers"` // 0 = GOMAXPROCS
	Exposure float64 `yaml:"exposure"`
	Gamma    float64 `yaml:"gamma"`
}

type CameraConfig struct {
	Yaw      float64 `yaml:"yaw"`      // degrees
	Pitch    float64 `yaml:"pitch"`    // degrees
	Distance float64 `yaml:"distance"` // in horizon radii
	FOV      float64 `yaml:"fov"`      // degrees
}

type Config struct {
	Dimension   int        `yaml:"dimension"`
	SliceOffset float64    `yaml:"slice_offset"`
	Rotations   []Rotation `yaml:"rotations"`

	Field    field.Params         `yaml:"field"`
	Manifold manifold.Params      `yaml:"manifold"`
	Shell    manifold.ShellParams `yaml:"shell"`
	Volume   trace.VolumeParams   `yaml:"volume"`
	Step     trace.StepParams     `yaml:"step"`

	Background BackgroundConfig `yaml:"background"`
	Render     RenderConfig     `yaml:"render"`
	Camera     CameraConfig     `yaml:"camera"`
	Temporal   temporal.Params  `yaml:"temporal"`
}

func Default() *Config {
	return &Config{
		Dimension:   4,
		SliceOffset: 0.0,
		Rotations:   []Rotation{{Plane: "XW", Angle: 20}},
		Field:       field.DefaultParams(),
		Manifold:    manifold.DefaultParams(),
		Shell:       manifold.DefaultShellParams(),
		Volume:      trace.DefaultVolumeParams(),
		Step:        trace.DefaultStepParams(),
		Background: BackgroundConfig{
			Kind:           "stars",
			Color:          [3]float64{0.01, 0.012, 0.02},
			StarDensity:    0.04,
			StarBrightness: 1.6,
		},
		Render: RenderConfig{
			Width:    640,
			Height:   360,
			Exposure: 1.0,
			Gamma:    2.2,
		},
		Camera: CameraConfig{
			Yaw:      35,
			Pitch:    12,
			Distance: 14,
			FOV:      55,
		},
		Temporal: temporal.DefaultParams(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dimension < MinDimension || c.Dimension > MaxDimension {
		return fmt.Errorf("dimension must be in [%d,%d], got %d", MinDimension, MaxDimension, c.Dimension)
	}
	for _, r := range c.Rotations {
		_, j, err := ndim.ParsePlane(r.Plane)
		if err != nil {
			return err
		}
		if j >= c.Dimension {
			return fmt.Errorf("rotation plane %s exceeds dimension %d", r.Plane, c.Dimension)
		}
	}
	if err := c.Field.Validate(); err != nil {
		return err
	}
	if err := c.Shell.Validate(); err != nil {
		return err
	}
	if err := c.Volume.Validate(); err != nil {
		return err
	}
	if err := c.Step.Validate(); err != nil {
		return err
	}
	if err := c.Temporal.Validate(); err != nil {
		return err
	}
	switch c.Background.Kind {
	case "solid", "stars":
	case "environment":
		if c.Background.EnvironmentPath == "" {
			return fmt.Errorf("environment background requires environment_path")
		}
	default:
		return fmt.Errorf("unknown background kind %q", c.Background.Kind)
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render size must be positive, got %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Render.Workers)
	}
	if c.Render.Gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %f", c.Render.Gamma)
	}
	if c.Render.Exposure <= 0 {
		return fmt.Errorf("exposure must be positive, got %f", c.Render.Exposure)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 175 {
		return fmt.Errorf("fov must be in (0,175) degrees, got %f", c.Camera.FOV)
	}
	if c.Camera.Pitch < -89 || c.Camera.Pitch > 89 {
		return fmt.Errorf("pitch must be in [-89,89] degrees, got %f", c.Camera.Pitch)
	}
	if c.Camera.Distance <= 0 {
		return fmt.Errorf("camera distance must be positive, got %f", c.Camera.Distance)
	}
	// Manifold axes are derived from the rotation basis at scene build time;
	// the manifold parameters themselves are validated there as well, once
	// the axes exist. Everything that does not need the basis is checked
	// here.
	if c.Manifold.InnerRadius >= c.Manifold.OuterRadius {
		return fmt.Errorf("manifold inner_radius %f must be below outer_radius %f",
			c.Manifold.InnerRadius, c.Manifold.OuterRadius)
	}
	if c.Manifold.Thickness <= 0 {
		return fmt.Errorf("manifold thickness must be positive, got %f", c.Manifold.Thickness)
	}
	return nil
}
