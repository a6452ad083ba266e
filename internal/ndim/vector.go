package ndim

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vec is a point or direction in D-dimensional space.
type Vec []float64

func NewVec(dim int) Vec { return make(Vec, dim) }

func (v Vec) Clone() Vec {
	c := make(Vec, len(v))
	copy(c, v)
	return c
}

func (v Vec) Dot(o Vec) float64 { return floats.Dot(v, o) }

func (v Vec) Norm() float64 { return floats.Norm(v, 2) }

func (v Vec) IsValid() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (v Vec) Add(o Vec) Vec {
	r := v.Clone()
	floats.Add(r, o)
	return r
}

func (v Vec) Sub(o Vec) Vec {
	r := v.Clone()
	floats.Sub(r, o)
	return r
}

func (v Vec) Scale(s float64) Vec {
	r := v.Clone()
	floats.Scale(s, r)
	return r
}

// Unit returns a unit-length copy; the zero vector is returned unchanged.
func (v Vec) Unit() Vec {
	n := v.Norm()
	if n == 0 {
		return v.Clone()
	}
	return v.Scale(1 / n)
}

// The in-place forms below avoid allocations in the per-step ray loop.

func (v Vec) CopyFrom(o Vec) { copy(v, o) }

// AddScaled performs v += s*o in place.
func (v Vec) AddScaled(o Vec, s float64) { floats.AddScaled(v, s, o) }

// ScaleInPlace performs v *= s in place.
func (v Vec) ScaleInPlace(s float64) { floats.Scale(s, v) }

// Zero clears the vector in place.
func (v Vec) Zero() {
	for i := range v {
		v[i] = 0
	}
}
