// Package export writes rendered frames and benchmark charts to disk.
package export

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/mdimension/gravlens/internal/temporal"
)

// ToneMap holds the HDR-to-display transform applied on export.
type ToneMap struct {
	Exposure float64
	Gamma    float64
}

func DefaultToneMap() ToneMap {
	return ToneMap{Exposure: 1.0, Gamma: 2.2}
}

// apply maps linear radiance to a display value in [0,1]: exponential
// exposure rolloff followed by gamma encoding.
func (tm ToneMap) apply(v float64) float64 {
	if v < 0 {
		v = 0
	}
	v = 1 - math.Exp(-v*tm.Exposure)
	return math.Pow(v, 1/tm.Gamma)
}

// ToImage converts a frame buffer to an 8-bit image.
func ToImage(frame *temporal.Buffers, tm ToneMap) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, frame.W, frame.H))
	for y := 0; y < frame.H; y++ {
		for x := 0; x < frame.W; x++ {
			c := frame.Color[frame.Index(x, y)]
			o := img.PixOffset(x, y)
			img.Pix[o+0] = quantize(tm.apply(c[0]))
			img.Pix[o+1] = quantize(tm.apply(c[1]))
			img.Pix[o+2] = quantize(tm.apply(c[2]))
			img.Pix[o+3] = 0xff
		}
	}
	return img
}

func quantize(v float64) uint8 {
	q := int(v*255 + 0.5)
	if q < 0 {
		q = 0
	}
	if q > 255 {
		q = 255
	}
	return uint8(q)
}

// Upscale resamples img to w×h with Catmull-Rom filtering. Rendering at a
// reduced internal resolution and upscaling on export is much cheaper than
// integrating every output pixel.
func Upscale(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

// SavePNG tone maps the frame and writes it as PNG, upscaled to w×h when
// those exceed the frame size.
func SavePNG(path string, frame *temporal.Buffers, tm ToneMap, w, h int) error {
	img := ToImage(frame, tm)
	if w > frame.W || h > frame.H {
		img = Upscale(img, w, h)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
