// Package render turns a configured scene into frames: a 3-space orbit
// camera, ray embedding, and a row-sharded worker pool driving the
// integrator. Temporal frames reuse history through the reconstructor.
package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mdimension/gravlens/internal/config"
	"github.com/mdimension/gravlens/internal/temporal"
)

const (
	pitchLimit  = 89 * math.Pi / 180
	minDistance = 1.5
)

// Camera orbits the origin in the 3-space viewing slice. Yaw and pitch are in
// radians; Distance in horizon radii.
type Camera struct {
	yaw, pitch float64
	distance   float64
	fov        float64
	w, h       int

	eye     r3.Vec
	right   r3.Vec
	up      r3.Vec
	forward r3.Vec
	tanHalf float64
	aspect  float64
}

func NewCamera(cc config.CameraConfig, w, h int) *Camera {
	c := &Camera{
		yaw:      cc.Yaw * math.Pi / 180,
		pitch:    cc.Pitch * math.Pi / 180,
		distance: cc.Distance,
		fov:      cc.FOV * math.Pi / 180,
		w:        w,
		h:        h,
	}
	c.update()
	return c
}

func (c *Camera) Size() (int, int) { return c.w, c.h }
func (c *Camera) Eye() r3.Vec      { return c.eye }

// Orbit rotates around the origin. Pitch is clamped short of the poles so the
// view basis never degenerates.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.yaw += dYaw
	c.pitch += dPitch
	if c.pitch > pitchLimit {
		c.pitch = pitchLimit
	}
	if c.pitch < -pitchLimit {
		c.pitch = -pitchLimit
	}
	c.update()
}

func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.distance *= factor
	if c.distance < minDistance {
		c.distance = minDistance
	}
	c.update()
}

func (c *Camera) Resize(w, h int) {
	c.w, c.h = w, h
	c.update()
}

func (c *Camera) update() {
	cp := math.Cos(c.pitch)
	c.eye = r3.Vec{
		X: c.distance * cp * math.Cos(c.yaw),
		Y: c.distance * math.Sin(c.pitch),
		Z: c.distance * cp * math.Sin(c.yaw),
	}
	c.forward = r3.Unit(r3.Scale(-1, c.eye))
	c.right = r3.Unit(r3.Cross(c.forward, r3.Vec{Y: 1}))
	c.up = r3.Cross(c.right, c.forward)
	c.tanHalf = math.Tan(c.fov / 2)
	c.aspect = float64(c.w) / float64(c.h)
}

// Ray returns the eye position and view direction through pixel center
// (px,py).
func (c *Camera) Ray(px, py int) (origin, dir r3.Vec) {
	sx := (2*(float64(px)+0.5)/float64(c.w) - 1) * c.aspect * c.tanHalf
	sy := (1 - 2*(float64(py)+0.5)/float64(c.h)) * c.tanHalf
	d := r3.Add(c.forward, r3.Add(r3.Scale(sx, c.right), r3.Scale(sy, c.up)))
	return c.eye, r3.Unit(d)
}

// Projector snapshots the current view transform. The closure stays valid
// after the camera moves, so a committed frame keeps the transform that
// produced it.
func (c *Camera) Projector() temporal.Projector {
	eye, right, up, forward := c.eye, c.right, c.up, c.forward
	tanHalf, aspect := c.tanHalf, c.aspect
	w, h := float64(c.w), float64(c.h)

	return func(p [3]float64) (float64, float64, bool) {
		rel := r3.Sub(r3.Vec{X: p[0], Y: p[1], Z: p[2]}, eye)
		z := r3.Dot(rel, forward)
		if z <= 1e-9 {
			return 0, 0, false
		}
		sx := r3.Dot(rel, right) / z / (aspect * tanHalf)
		sy := r3.Dot(rel, up) / z / tanHalf
		px := (sx+1)/2*w - 0.5
		py := (1-sy)/2*h - 0.5
		return px, py, true
	}
}
