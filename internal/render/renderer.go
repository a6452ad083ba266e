package render

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mdimension/gravlens/internal/metrics"
	"github.com/mdimension/gravlens/internal/quality"
	"github.com/mdimension/gravlens/internal/temporal"
	"github.com/mdimension/gravlens/internal/trace"
)

// Renderer drives the integrator over a pixel grid. Workers take interleaved
// rows and carry private ray/accumulator scratch, so a frame needs no locking
// until the final stats merge.
type Renderer struct {
	scene   *Scene
	cam     *Camera
	workers int
	quality *quality.Controller

	// Projection of the manifold plane normal into the viewing slice, fixed
	// per scene.
	planeNormal3 r3.Vec
}

func NewRenderer(scene *Scene, cam *Camera, workers int, qc *quality.Controller) *Renderer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	probe := scene.Basis.Axis(1)
	n3 := scene.Embed.ProjectDir(scene.Manifold.PlaneNormal(probe))
	if n := r3.Norm(n3); n > 1e-12 {
		n3 = r3.Scale(1/n, n3)
	}
	return &Renderer{
		scene:        scene,
		cam:          cam,
		workers:      workers,
		quality:      qc,
		planeNormal3: n3,
	}
}

func (r *Renderer) Camera() *Camera { return r.cam }
func (r *Renderer) Scene() *Scene   { return r.scene }

// RenderFull integrates every pixel of out.
func (r *Renderer) RenderFull(ctx context.Context, out *temporal.Buffers, t float64) (metrics.FrameStats, error) {
	return r.render(ctx, out, t, 0, 0, 1)
}

// RenderTemporal produces one frame of the 4-phase cycle: integrate the fresh
// quadrant, reconstruct the rest from history, and commit with the camera
// transform that produced the frame. Invalid history forces a full pass.
func (r *Renderer) RenderTemporal(ctx context.Context, h *temporal.History, rc *temporal.Reconstructor, t float64) (metrics.FrameStats, error) {
	start := time.Now()

	var stats metrics.FrameStats
	var err error
	if !h.Valid() {
		stats, err = r.render(ctx, h.Current(), t, 0, 0, 1)
	} else {
		ox, oy := h.Offset()
		stats, err = r.render(ctx, h.Current(), t, ox, oy, 2)
		if err == nil {
			rc.Reconstruct(h, r.cam.Projector())
		}
	}
	if err != nil {
		return stats, err
	}
	h.Commit(r.cam.Projector())
	stats.Duration = time.Since(start)
	return stats, nil
}

// render integrates the sub-grid starting at (ox,oy) with the given stride.
// Rows are interleaved across workers; each worker owns its scratch and a
// private stats tally.
func (r *Renderer) render(ctx context.Context, out *temporal.Buffers, t float64, ox, oy, stride int) (metrics.FrameStats, error) {
	start := time.Now()

	budget := r.scene.Cfg.Step.MaxSteps
	if r.quality != nil {
		budget = r.quality.StepBudget(budget)
		r.scene.Integrator.Secondary = r.quality.SecondaryEnabled()
	} else {
		r.scene.Integrator.Secondary = true
	}

	perWorker := make([]metrics.FrameStats, r.workers)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ray := trace.NewRay(r.scene.Dim)
			acc := trace.NewAccum(r.scene.Dim, r.scene.Cfg.Volume.Cutoff)
			stats := &perWorker[w]

			for y := oy + w*stride; y < out.H; y += r.workers * stride {
				if ctx.Err() != nil {
					return
				}
				for x := ox; x < out.W; x += stride {
					r.shade(x, y, out, ray, acc, t, budget, stats)
				}
			}
		}(w)
	}
	wg.Wait()

	var total metrics.FrameStats
	for i := range perWorker {
		total.Merge(perWorker[i])
	}
	total.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return total, err
	}
	return total, nil
}

func (r *Renderer) shade(x, y int, out *temporal.Buffers, ray *trace.Ray, acc *trace.Accum, t float64, budget int, stats *metrics.FrameStats) {
	origin, dir := r.cam.Ray(x, y)
	r.scene.Embed.Embed(origin, dir, ray)
	acc.Reset()

	outcome := r.scene.Integrator.Trace(ray, acc, t, budget)
	stats.Rays++
	stats.VolumeSteps += acc.Steps
	if outcome == trace.Escaped {
		stats.Escaped++
		acc.AddBackground(r.scene.Background.Sample(r.scene.Embed.ProjectDir(ray.Dir)))
	} else {
		stats.Captured++
	}

	i := out.Index(x, y)
	out.Color[i] = acc.Color
	out.Coverage[i] = 1 - acc.T
	out.Weight[i] = 1

	// The reconstructed position is the brightest sample along the ray, or
	// the termination point when the ray never saw emission.
	var p3 r3.Vec
	if acc.HasPeak {
		p3 = r.scene.Embed.ProjectPoint(acc.PeakPos)
	} else {
		p3 = r.scene.Embed.ProjectPoint(ray.Pos)
	}
	out.Pos[i] = [3]float64{p3.X, p3.Y, p3.Z}
	out.Normal[i] = r.pseudoNormal(acc, p3)
}

// pseudoNormal blends the radial direction (shell-dominated samples) with the
// manifold plane normal (disk-dominated samples), weighted by what the ray
// actually accumulated.
func (r *Renderer) pseudoNormal(acc *trace.Accum, p3 r3.Vec) [3]float64 {
	n := r3.Scale(acc.ManifoldWt, r.planeNormal3)
	if pr := r3.Norm(p3); pr > 1e-12 {
		n = r3.Add(n, r3.Scale(acc.ShellWt/pr, p3))
	}
	nn := r3.Norm(n)
	if nn < 1e-12 || math.IsNaN(nn) {
		return [3]float64{}
	}
	n = r3.Scale(1/nn, n)
	return [3]float64{n.X, n.Y, n.Z}
}
