// Package temporal amortizes integration cost across frames: each frame
// integrates one quadrant of the pixels and reprojects the rest from history.
package temporal

import "github.com/mdimension/gravlens/internal/trace"

// Projector maps a world-space position (in the 3-space viewing slice) to
// continuous pixel coordinates of a particular camera. ok is false behind the
// camera.
type Projector func(p [3]float64) (x, y float64, ok bool)

// Buffers is one full-resolution frame: radiance, reconstructed positions,
// pseudo-normals, volume coverage, and the temporal confidence weight.
type Buffers struct {
	W, H     int
	Color    []trace.RGB
	Pos      [][3]float64
	Normal   [][3]float64
	Coverage []float64
	Weight   []float64
}

func NewBuffers(w, h int) *Buffers {
	n := w * h
	return &Buffers{
		W:        w,
		H:        h,
		Color:    make([]trace.RGB, n),
		Pos:      make([][3]float64, n),
		Normal:   make([][3]float64, n),
		Coverage: make([]float64, n),
		Weight:   make([]float64, n),
	}
}

func (b *Buffers) Index(x, y int) int { return y*b.W + x }

func (b *Buffers) Clear() {
	for i := range b.Color {
		b.Color[i] = trace.RGB{}
		b.Pos[i] = [3]float64{}
		b.Normal[i] = [3]float64{}
		b.Coverage[i] = 0
		b.Weight[i] = 0
	}
}

// The four sub-frame offsets within each 2×2 block, diagonal first so two
// consecutive frames cover both field parities.
var phaseOffsets = [4][2]int{{0, 0}, {1, 1}, {1, 0}, {0, 1}}

// History is the cross-frame state of the reconstructor: two ping-pong
// buffers (write N, read N−1), the current phase of the 4-frame cycle, and
// the projector of the camera that produced the previous frame. It is passed
// in explicitly by the host; there is no global instance.
type History struct {
	w, h    int
	phase   int
	cur     int
	bufs    [2]*Buffers
	project Projector
	valid   bool
}

func NewHistory(w, h int) *History {
	return &History{
		w:    w,
		h:    h,
		bufs: [2]*Buffers{NewBuffers(w, h), NewBuffers(w, h)},
	}
}

func (h *History) Size() (int, int) { return h.w, h.h }
func (h *History) Valid() bool      { return h.valid }
func (h *History) Phase() int       { return h.phase }

// Invalidate drops all history; the next frame must be a full non-temporal
// pass. Called on hard scene resets.
func (h *History) Invalidate() {
	h.valid = false
	h.phase = 0
	h.project = nil
}

// Resize reallocates the buffers and invalidates.
func (h *History) Resize(w, h2 int) {
	if w == h.w && h2 == h.h {
		h.Invalidate()
		return
	}
	h.w, h.h = w, h2
	h.bufs = [2]*Buffers{NewBuffers(w, h2), NewBuffers(w, h2)}
	h.Invalidate()
}

// Current is the write buffer for the frame being produced.
func (h *History) Current() *Buffers { return h.bufs[h.cur] }

// Previous is the read-only buffer of frame N−1.
func (h *History) Previous() *Buffers { return h.bufs[1-h.cur] }

// Projector returns the camera transform of the previous frame.
func (h *History) Projector() Projector { return h.project }

// Offset returns the sub-frame pixel offset of the current phase.
func (h *History) Offset() (int, int) {
	o := phaseOffsets[h.phase]
	return o[0], o[1]
}

// FreshPixel reports whether (x,y) belongs to the quadrant integrated this
// frame. Cycling the four offsets guarantees every pixel refreshes at least
// once per 4 frames.
func (h *History) FreshPixel(x, y int) bool {
	o := phaseOffsets[h.phase]
	return x&1 == o[0] && y&1 == o[1]
}

// Commit finishes the frame: the write buffer becomes history, the phase
// advances, and project is recorded as the transform that produced it.
func (h *History) Commit(project Projector) {
	h.cur = 1 - h.cur
	h.phase = (h.phase + 1) % 4
	h.project = project
	h.valid = true
}
