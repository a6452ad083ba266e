package trace

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

type BackgroundKind int

const (
	BackgroundSolid BackgroundKind = iota
	BackgroundStars
	BackgroundEnvironment
)

// Background supplies radiance for escaped rays. It is a closed union over
// the three source kinds, dispatched by switch.
type Background struct {
	Kind BackgroundKind

	Solid RGB

	StarDensity    float64
	StarBrightness float64

	Env *EnvironmentMap
}

func SolidBackground(c RGB) *Background {
	return &Background{Kind: BackgroundSolid, Solid: c}
}

func StarBackground(density, brightness float64) *Background {
	return &Background{Kind: BackgroundStars, StarDensity: density, StarBrightness: brightness}
}

func EnvironmentBackground(env *EnvironmentMap) *Background {
	return &Background{Kind: BackgroundEnvironment, Env: env}
}

// Sample returns ambient radiance along an escape direction in the 3-space
// viewing slice.
func (b *Background) Sample(dir r3.Vec) RGB {
	switch b.Kind {
	case BackgroundStars:
		return b.sampleStars(dir)
	case BackgroundEnvironment:
		if b.Env != nil {
			return b.Env.Sample(dir)
		}
		return RGB{}
	default:
		return b.Solid
	}
}

const starGrid = 48

// sampleStars hashes the escape direction into a fixed angular grid; a sparse
// subset of cells carries a star. Deterministic so the field is stable under
// reprojection.
func (b *Background) sampleStars(dir r3.Vec) RGB {
	d := r3.Unit(dir)
	cx := int64(math.Floor((d.X + 1) * starGrid))
	cy := int64(math.Floor((d.Y + 1) * starGrid))
	cz := int64(math.Floor((d.Z + 1) * starGrid))

	h := starHash(cx, cy, cz)
	if h > b.StarDensity {
		return RGB{}
	}
	// Reuse the hash tail for per-star brightness and a mild warm/cool tint.
	t := h / b.StarDensity
	v := b.StarBrightness * (0.35 + 0.65*t)
	return RGB{v * (0.9 + 0.1*t), v, v * (1.1 - 0.1*t)}
}

func starHash(x, y, z int64) float64 {
	h := uint64(x)*0x9e3779b97f4a7c15 ^ uint64(y)*0xbf58476d1ce4e5b9 ^ uint64(z)*0x94d049bb133111eb
	h ^= h >> 30
	h *= 0xbf58476d1ce4e5b9
	h ^= h >> 27
	return float64(h>>11) / float64(1<<53)
}

// EnvironmentMap is an equirectangular radiance image.
type EnvironmentMap struct {
	w, h int
	pix  []RGB
}

func LoadEnvironment(path string) (*EnvironmentMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open environment map: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode environment map %s: %w", path, err)
	}
	return NewEnvironmentFromImage(img), nil
}

func NewEnvironmentFromImage(img image.Image) *EnvironmentMap {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	env := &EnvironmentMap{w: w, h: h, pix: make([]RGB, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			env.pix[y*w+x] = RGB{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(b) / 65535.0,
			}
		}
	}
	return env
}

// Sample does an equirectangular lookup along dir.
func (e *EnvironmentMap) Sample(dir r3.Vec) RGB {
	d := r3.Unit(dir)
	u := 0.5 + math.Atan2(d.Z, d.X)/(2*math.Pi)
	v := 0.5 - math.Asin(clamp(d.Y, -1, 1))/math.Pi

	x := int(u * float64(e.w))
	y := int(v * float64(e.h))
	if x < 0 {
		x = 0
	}
	if x >= e.w {
		x = e.w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= e.h {
		y = e.h - 1
	}
	return e.pix[y*e.w+x]
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
