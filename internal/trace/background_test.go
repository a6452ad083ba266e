package trace

import (
	"image"
	"image/color"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestSolidBackground(t *testing.T) {
	bg := SolidBackground(RGB{0.2, 0.3, 0.4})
	got := bg.Sample(r3.Vec{X: 0.3, Y: -0.8, Z: 0.5})
	if got != (RGB{0.2, 0.3, 0.4}) {
		t.Errorf("solid background: got %v", got)
	}
}

func TestStarBackgroundDeterministic(t *testing.T) {
	bg := StarBackground(0.05, 2.0)
	dir := r3.Vec{X: 0.12, Y: 0.77, Z: -0.62}
	a := bg.Sample(dir)
	b := bg.Sample(dir)
	if a != b {
		t.Error("star field must be deterministic per direction")
	}
}

func TestStarBackgroundSparseAndBounded(t *testing.T) {
	bg := StarBackground(0.02, 1.5)
	lit := 0
	n := 0
	for x := -1.0; x <= 1; x += 0.11 {
		for y := -1.0; y <= 1; y += 0.13 {
			for z := -1.0; z <= 1; z += 0.17 {
				if x == 0 && y == 0 && z == 0 {
					continue
				}
				c := bg.Sample(r3.Vec{X: x, Y: y, Z: z})
				n++
				if c != (RGB{}) {
					lit++
				}
				for i := range c {
					if c[i] < 0 || c[i] > 2*bg.StarBrightness {
						t.Fatalf("star radiance out of range: %v", c)
					}
				}
			}
		}
	}
	if lit == 0 {
		t.Error("no stars at all in the sampled directions")
	}
	if lit > n/4 {
		t.Errorf("star field too dense: %d of %d directions lit", lit, n)
	}
}

func TestEnvironmentBackground(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 128, B: 0, A: 255})
		}
	}
	bg := EnvironmentBackground(NewEnvironmentFromImage(img))

	got := bg.Sample(r3.Vec{X: 1, Y: 0.2, Z: -0.4})
	if got[0] < 0.99 || got[2] != 0 {
		t.Errorf("environment lookup: got %v", got)
	}
	if got[1] < 0.45 || got[1] > 0.55 {
		t.Errorf("green channel: got %f", got[1])
	}
}

func TestEnvironmentBackgroundNilMap(t *testing.T) {
	bg := &Background{Kind: BackgroundEnvironment}
	if got := bg.Sample(r3.Vec{X: 1}); got != (RGB{}) {
		t.Errorf("nil environment must sample black, got %v", got)
	}
}

func TestLoadEnvironmentMissingFile(t *testing.T) {
	if _, err := LoadEnvironment("/nonexistent/env.png"); err == nil {
		t.Error("expected error for missing environment map")
	}
}
