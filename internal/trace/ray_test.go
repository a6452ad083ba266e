package trace

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mdimension/gravlens/internal/ndim"
)

func TestEmbedDegeneratesTo3Space(t *testing.T) {
	eb := NewEmbedBasis(ndim.Identity(3), 0.7) // offset has no axes to land on
	ray := NewRay(3)
	eb.Embed(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 0, Y: 0, Z: -1}, ray)

	wantPos := ndim.Vec{1, 2, 3}
	for i := range wantPos {
		if math.Abs(ray.Pos[i]-wantPos[i]) > 1e-12 {
			t.Fatalf("pos[%d]: expected %f, got %f", i, wantPos[i], ray.Pos[i])
		}
	}
	if ray.Dir[0] != 0 || ray.Dir[1] != 0 || ray.Dir[2] != -1 {
		t.Errorf("dir: expected (0,0,-1), got %v", ray.Dir)
	}
}

func TestEmbedSliceOffset(t *testing.T) {
	eb := NewEmbedBasis(ndim.Identity(6), 0.4)
	ray := NewRay(6)
	eb.Embed(r3.Vec{X: 1, Y: 0, Z: 0}, r3.Vec{X: 1, Y: 0, Z: 0}, ray)

	for k := 3; k < 6; k++ {
		if math.Abs(ray.Pos[k]-0.4) > 1e-12 {
			t.Fatalf("pos[%d]: expected slice offset 0.4, got %f", k, ray.Pos[k])
		}
		if ray.Dir[k] != 0 {
			t.Fatalf("dir[%d]: expected 0, got %f", k, ray.Dir[k])
		}
	}
}

func TestEmbedNormalizesDirection(t *testing.T) {
	eb := NewEmbedBasis(ndim.Identity(5), 0)
	ray := NewRay(5)
	eb.Embed(r3.Vec{}, r3.Vec{X: 3, Y: 4, Z: 0}, ray)
	if n := ray.Dir.Norm(); math.Abs(n-1) > 1e-12 {
		t.Errorf("embedded direction norm: expected 1, got %f", n)
	}
}

func TestEmbedWithRotatedBasis(t *testing.T) {
	b := ndim.Identity(5)
	b.RotatePlane(0, 3, 0.9)
	b.RotatePlane(1, 4, -0.4)
	eb := NewEmbedBasis(b, 0.25)

	ray := NewRay(5)
	eb.Embed(r3.Vec{X: 2, Y: -1, Z: 0.5}, r3.Vec{X: 0, Y: 1, Z: 0}, ray)

	// The embedding is linear over an orthonormal frame, so projecting back
	// recovers the screen-space inputs.
	p := eb.ProjectPoint(ray.Pos)
	if math.Abs(p.X-2) > 1e-9 || math.Abs(p.Y+1) > 1e-9 || math.Abs(p.Z-0.5) > 1e-9 {
		t.Errorf("round-trip point: got %+v", p)
	}
	d := eb.ProjectDir(ray.Dir)
	if math.Abs(d.X) > 1e-9 || math.Abs(d.Y-1) > 1e-9 || math.Abs(d.Z) > 1e-9 {
		t.Errorf("round-trip direction: got %+v", d)
	}
}

func TestAdvanceAccumulatesDistance(t *testing.T) {
	ray := NewRay(3)
	ray.Dir[0] = 1
	ray.Advance(0.5)
	ray.Advance(0.25)
	if ray.Traveled != 0.75 {
		t.Errorf("traveled: expected 0.75, got %f", ray.Traveled)
	}
	if ray.Pos[0] != 0.75 {
		t.Errorf("pos: expected 0.75, got %f", ray.Pos[0])
	}
}
