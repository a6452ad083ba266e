package temporal

import "fmt"

type Params struct {
	// Tolerance is the maximum world-space disagreement between the fresh
	// sample's position and the history sample it reprojects onto.
	Tolerance float64 `yaml:"tolerance"`
	// Decay is the per-frame confidence multiplier of reused history.
	Decay float64 `yaml:"decay"`
}

func DefaultParams() Params {
	return Params{Tolerance: 0.25, Decay: 0.92}
}

func (p Params) Validate() error {
	if p.Tolerance <= 0 {
		return fmt.Errorf("temporal tolerance must be positive, got %f", p.Tolerance)
	}
	if p.Decay <= 0 || p.Decay > 1 {
		return fmt.Errorf("temporal decay must be in (0,1], got %f", p.Decay)
	}
	return nil
}

// Reconstructor merges the sparse freshly-integrated quadrant with
// reprojected history into a stable full-resolution frame.
type Reconstructor struct {
	p Params
}

func NewReconstructor(p Params) *Reconstructor {
	return &Reconstructor{p: p}
}

// fallbackWeight marks pixels rebuilt from the block's fresh sample after a
// disocclusion rejection.
const fallbackWeight = 0.25

// blockFresh locates the pixel of (x,y)'s 2×2 block integrated this frame.
// Odd-sized frames have a trailing row or column outside any complete block;
// those borrow the nearest fresh column or row instead of indexing past the
// buffer edge. ok is false only when the frame is too narrow to hold a fresh
// pixel of the current parity at all (a 1-wide or 1-tall frame on an odd
// phase).
func blockFresh(b *Buffers, x, y, ox, oy int) (fi, fx, fy int, ok bool) {
	fx = (x &^ 1) | ox
	if fx >= b.W {
		fx -= 2
	}
	fy = (y &^ 1) | oy
	if fy >= b.H {
		fy -= 2
	}
	if fx < 0 || fy < 0 {
		return 0, 0, 0, false
	}
	return b.Index(fx, fy), fx, fy, true
}

// Reconstruct fills the non-fresh pixels of the current write buffer. Fresh
// pixels must already be rendered (weight 1). cur is the transform of the
// camera that produced this frame's fresh samples.
//
// Camera motion is measured at each block's fresh sample, the only pixel with
// position data from the current frame: the screen-space displacement of its
// world position between the previous transform and cur. The history sample
// at the anchor's displaced location must resolve to the same surface point
// within tolerance, and every pixel of the block then reads history shifted
// by that same displacement — where the surface was last frame, not the
// unchanged pixel index. A static camera yields zero displacement exactly,
// whatever the rays did in flight, so an unmoved view replays its history
// verbatim. On disagreement (disocclusion), an off-screen landing, or a
// missing transform, the pixel falls back to the block's fresh sample —
// never extrapolated stale history.
func (rc *Reconstructor) Reconstruct(h *History, cur Projector) {
	out := h.Current()
	prev := h.Previous()
	prior := h.Projector()
	ox, oy := h.Offset()
	tol2 := rc.p.Tolerance * rc.p.Tolerance

	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			if h.FreshPixel(x, y) {
				continue
			}
			i := out.Index(x, y)

			fi, fx, fy, hasFresh := blockFresh(out, x, y, ox, oy)
			if !hasFresh {
				// Degenerate frame shape: carry the pixel's own history at
				// reduced confidence rather than leave it stale at full weight.
				copySample(out, i, prev, i)
				out.Weight[i] = fallbackWeight
				continue
			}

			if prior != nil && cur != nil {
				ppx, ppy, pok := prior(out.Pos[fi])
				cpx, cpy, cok := cur(out.Pos[fi])
				if pok && cok {
					dx := ppx - cpx
					dy := ppy - cpy
					vx := int(float64(fx) + dx + 0.5)
					vy := int(float64(fy) + dy + 0.5)
					if vx >= 0 && vx < prev.W && vy >= 0 && vy < prev.H &&
						dist2(prev.Pos[prev.Index(vx, vy)], out.Pos[fi]) <= tol2 {
						sx := int(float64(x) + dx + 0.5)
						sy := int(float64(y) + dy + 0.5)
						if sx >= 0 && sx < prev.W && sy >= 0 && sy < prev.H {
							si := prev.Index(sx, sy)
							copySample(out, i, prev, si)
							out.Weight[i] = prev.Weight[si] * rc.p.Decay
							continue
						}
					}
				}
			}

			// Disocclusion or off-screen: fall back to the freshly rendered
			// value in this block.
			copySample(out, i, out, fi)
			out.Weight[i] = fallbackWeight
		}
	}
}

func copySample(dst *Buffers, di int, src *Buffers, si int) {
	dst.Color[di] = src.Color[si]
	dst.Pos[di] = src.Pos[si]
	dst.Normal[di] = src.Normal[si]
	dst.Coverage[di] = src.Coverage[si]
}

func dist2(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}
