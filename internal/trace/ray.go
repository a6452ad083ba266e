// Package trace advances view rays through D-dimensional space around the
// compact object: embedding, gravitational bending, volumetric accumulation
// and background resolution.
package trace

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mdimension/gravlens/internal/ndim"
)

// Ray is the mutable per-pixel integration state.
type Ray struct {
	Pos      ndim.Vec
	Dir      ndim.Vec
	Traveled float64
}

func NewRay(dim int) *Ray {
	return &Ray{Pos: ndim.NewVec(dim), Dir: ndim.NewVec(dim)}
}

// Advance moves the ray forward along its direction.
func (r *Ray) Advance(dt float64) {
	r.Pos.AddScaled(r.Dir, dt)
	r.Traveled += dt
}

// EmbedBasis lifts 3-space screen rays into D-space. X, Y and Z are the first
// three axes of the scene's rotation frame; Origin carries the fixed slice
// offset along the remaining axes.
type EmbedBasis struct {
	Origin ndim.Vec
	X      ndim.Vec
	Y      ndim.Vec
	Z      ndim.Vec
}

// NewEmbedBasis builds an embedding from an orthonormal rotation frame. The
// slice offset places the 3-space viewing slice away from the hyperplane
// through the origin in dimensions beyond the third.
func NewEmbedBasis(b *ndim.Basis, sliceOffset float64) EmbedBasis {
	dim := b.Dim()
	origin := ndim.NewVec(dim)
	for k := 3; k < dim; k++ {
		origin.AddScaled(b.Axis(k), sliceOffset)
	}
	return EmbedBasis{
		Origin: origin,
		X:      b.Axis(0),
		Y:      b.Axis(1),
		Z:      b.Axis(2),
	}
}

func (eb *EmbedBasis) Dim() int { return len(eb.Origin) }

// Embed lifts a 3-space origin/direction pair into D-space in place. The
// embedding is linear; at D=3 it degenerates to ordinary 3-space.
func (eb *EmbedBasis) Embed(origin, dir r3.Vec, out *Ray) {
	for i := range out.Pos {
		out.Pos[i] = eb.Origin[i] + origin.X*eb.X[i] + origin.Y*eb.Y[i] + origin.Z*eb.Z[i]
		out.Dir[i] = dir.X*eb.X[i] + dir.Y*eb.Y[i] + dir.Z*eb.Z[i]
	}
	n := out.Dir.Norm()
	if n > 0 {
		out.Dir.ScaleInPlace(1 / n)
	}
	out.Traveled = 0
}

// ProjectDir maps a D-space direction back to the 3-space viewing slice.
func (eb *EmbedBasis) ProjectDir(v ndim.Vec) r3.Vec {
	return r3.Vec{X: v.Dot(eb.X), Y: v.Dot(eb.Y), Z: v.Dot(eb.Z)}
}

// ProjectPoint maps a D-space position back to the 3-space viewing slice.
func (eb *EmbedBasis) ProjectPoint(v ndim.Vec) r3.Vec {
	return r3.Vec{
		X: v.Dot(eb.X) - eb.Origin.Dot(eb.X),
		Y: v.Dot(eb.Y) - eb.Origin.Dot(eb.Y),
		Z: v.Dot(eb.Z) - eb.Origin.Dot(eb.Z),
	}
}
