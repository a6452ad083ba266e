package ndim

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Basis is an orthonormal D-dimensional rotation frame built by composing
// planar rotations. Column k is the k-th rotated axis.
type Basis struct {
	dim int
	m   *mat.Dense
}

func Identity(dim int) *Basis {
	m := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		m.Set(i, i, 1)
	}
	return &Basis{dim: dim, m: m}
}

func (b *Basis) Dim() int { return b.dim }

// RotatePlane composes a rotation by angle radians in the (i,j) coordinate
// plane onto the current frame.
func (b *Basis) RotatePlane(i, j int, angle float64) error {
	if i < 0 || j < 0 || i >= b.dim || j >= b.dim || i == j {
		return fmt.Errorf("invalid rotation plane (%d,%d) in dimension %d", i, j, b.dim)
	}
	r := mat.NewDense(b.dim, b.dim, nil)
	for k := 0; k < b.dim; k++ {
		r.Set(k, k, 1)
	}
	c, s := math.Cos(angle), math.Sin(angle)
	r.Set(i, i, c)
	r.Set(j, j, c)
	r.Set(i, j, -s)
	r.Set(j, i, s)

	var out mat.Dense
	out.Mul(r, b.m)
	b.m = &out
	return nil
}

// Axis returns a copy of the k-th rotated axis (column k).
func (b *Basis) Axis(k int) Vec {
	v := make(Vec, b.dim)
	for i := 0; i < b.dim; i++ {
		v[i] = b.m.At(i, k)
	}
	return v
}

// Apply rotates v by the frame.
func (b *Basis) Apply(v Vec) Vec {
	out := make(Vec, b.dim)
	for i := 0; i < b.dim; i++ {
		sum := 0.0
		for j := 0; j < b.dim; j++ {
			sum += b.m.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out
}

// IsOrthonormal reports whether Bᵀ·B is the identity within tol.
func (b *Basis) IsOrthonormal(tol float64) bool {
	var prod mat.Dense
	prod.Mul(b.m.T(), b.m)
	for i := 0; i < b.dim; i++ {
		for j := 0; j < b.dim; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if diff := prod.At(i, j) - want; diff > tol || diff < -tol {
				return false
			}
		}
	}
	return true
}

// Axis naming follows X,Y,Z,W,V,U for the first six dimensions and A6,A7,...
// beyond that, so plane names read like "XY", "XW" or "A6A7".
var axisNames = [6]byte{'X', 'Y', 'Z', 'W', 'V', 'U'}

func parseAxisName(name string) (int, bool) {
	if len(name) == 1 {
		for i, a := range axisNames {
			if name[0] == a {
				return i, true
			}
		}
		return 0, false
	}
	if strings.HasPrefix(name, "A") {
		n, err := strconv.Atoi(name[1:])
		if err == nil && n >= len(axisNames) {
			return n, true
		}
	}
	return 0, false
}

// ParsePlane parses a plane name such as "XY", "ZW" or "XA6" into a pair of
// axis indices with i < j.
func ParsePlane(name string) (int, int, error) {
	var parts []string
	var cur strings.Builder
	for k := 0; k < len(name); k++ {
		c := name[k]
		if c >= 'A' && c <= 'Z' && cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
		cur.WriteByte(c)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid rotation plane %q", name)
	}
	i, ok1 := parseAxisName(parts[0])
	j, ok2 := parseAxisName(parts[1])
	if !ok1 || !ok2 || i == j {
		return 0, 0, fmt.Errorf("invalid rotation plane %q", name)
	}
	if i > j {
		i, j = j, i
	}
	return i, j, nil
}
