package config

import "sort"

// Presets returns the built-in scenes, keyed by name. Each call builds fresh
// values so callers can mutate the result freely.
func Presets() map[string]*Config {
	disk := Default()
	disk.Dimension = 3
	disk.Rotations = nil
	disk.Camera.Pitch = 18

	hyper := Default()
	hyper.Dimension = 4
	hyper.Rotations = []Rotation{{Plane: "XW", Angle: 30}, {Plane: "ZW", Angle: 15}}

	slab := Default()
	slab.Dimension = 5
	slab.Rotations = []Rotation{{Plane: "XW", Angle: 25}, {Plane: "YV", Angle: 40}}
	slab.Manifold.Thickness = 0.5
	slab.Field.DimensionEmphasis = 0.7

	diffuse := Default()
	diffuse.Dimension = 7
	diffuse.Rotations = []Rotation{
		{Plane: "XW", Angle: 20},
		{Plane: "YV", Angle: 35},
		{Plane: "ZU", Angle: 50},
	}
	diffuse.Manifold.Thickness = 0.65
	diffuse.Manifold.NoiseAmount = 0.5
	diffuse.Step.MaxSteps = 512

	extreme := Default()
	extreme.Dimension = 11
	extreme.Rotations = []Rotation{
		{Plane: "XW", Angle: 15},
		{Plane: "YA6", Angle: 30},
		{Plane: "ZA8", Angle: 45},
		{Plane: "A7A10", Angle: 60},
	}
	extreme.Manifold.Thickness = 0.8
	extreme.Field.DimensionEmphasis = 0.8
	extreme.Step.MaxSteps = 512
	extreme.Camera.Distance = 18

	return map[string]*Config{
		"disk3":     disk,
		"hyper4":    hyper,
		"slab5":     slab,
		"diffuse7":  diffuse,
		"extreme11": extreme,
	}
}

func PresetNames() []string {
	m := Presets()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
