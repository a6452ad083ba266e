// Package tui is the interactive terminal viewer: a live temporal render
// loop with orbit controls and a frame-time graph.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/mdimension/gravlens/internal/metrics"
	"github.com/mdimension/gravlens/internal/quality"
	"github.com/mdimension/gravlens/internal/render"
	"github.com/mdimension/gravlens/internal/temporal"
)

const (
	frameInterval = 33 * time.Millisecond
	orbitStep     = 0.08
	zoomStep      = 0.9
	graphSamples  = 60
)

type model struct {
	renderer *render.Renderer
	history  *temporal.History
	recon    *temporal.Reconstructor
	qc       *quality.Controller

	start      time.Time
	paused     bool
	stats      metrics.FrameStats
	frameTimes []float64
	err        error

	width  int
	height int
}

// NewLiveApp wires a renderer into the viewer. The history resolution follows
// the renderer's camera, not the terminal.
func NewLiveApp(r *render.Renderer, qc *quality.Controller, tp temporal.Params) tea.Model {
	w, h := r.Camera().Size()
	return model{
		renderer:   r,
		history:    temporal.NewHistory(w, h),
		recon:      temporal.NewReconstructor(tp),
		qc:         qc,
		start:      time.Now(),
		frameTimes: make([]float64, 0, graphSamples),
		width:      80,
		height:     24,
	}
}

// Run starts the viewer and blocks until quit.
func Run(r *render.Renderer, qc *quality.Controller, tp temporal.Params) error {
	p := tea.NewProgram(NewLiveApp(r, qc, tp), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.renderFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) renderFrame() {
	t := time.Since(m.start).Seconds()
	stats, err := m.renderer.RenderTemporal(context.Background(), m.history, m.recon, t)
	if err != nil {
		m.err = err
		return
	}
	m.stats = stats
	m.frameTimes = append(m.frameTimes, float64(stats.Duration.Microseconds())/1000)
	if len(m.frameTimes) > graphSamples {
		m.frameTimes = m.frameTimes[1:]
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "left", "h":
		m.orbit(-orbitStep, 0)
	case "right", "l":
		m.orbit(orbitStep, 0)
	case "up", "k":
		m.orbit(0, orbitStep)
	case "down", "j":
		m.orbit(0, -orbitStep)
	case "+", "=":
		m.zoom(zoomStep)
	case "-":
		m.zoom(1 / zoomStep)
	case "r":
		m.history.Invalidate()
	}
	return m, nil
}

func (m *model) orbit(dYaw, dPitch float64) {
	m.qc.Interact()
	m.renderer.Camera().Orbit(dYaw, dPitch)
}

func (m *model) zoom(factor float64) {
	m.qc.Interact()
	m.renderer.Camera().Zoom(factor)
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("render failed: %v\npress q to quit\n", m.err)
	}

	var b strings.Builder
	b.WriteString(cyan.Render("gravlens"))
	b.WriteString(dim.Render("  dim="))
	b.WriteString(white.Render(fmt.Sprintf("%d", m.renderer.Scene().Dim)))
	if m.paused {
		b.WriteString(yellow.Render("  paused"))
	} else if m.qc.Interacting() {
		b.WriteString(magenta.Render("  interacting"))
	}
	b.WriteString("\n")

	cols := m.width - 2
	rows := m.height - 10
	if cols < 8 {
		cols = 8
	}
	if rows < 4 {
		rows = 4
	}
	b.WriteString(m.preview(cols, rows))

	b.WriteString(dim.Render(strings.Repeat("─", cols)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s\n",
		dim.Render("frame"), white.Render(fmt.Sprintf("%.1fms", float64(m.stats.Duration.Microseconds())/1000)),
		dim.Render("steps/ray"), white.Render(fmt.Sprintf("%.0f", m.stats.MeanSteps())),
		dim.Render("captured"), green.Render(fmt.Sprintf("%.0f%%", 100*m.stats.CapturedFraction())),
	))

	if len(m.frameTimes) >= 2 {
		gw := cols - 10
		if gw < 10 {
			gw = 10
		}
		b.WriteString(dim.Render(asciigraph.Plot(m.frameTimes,
			asciigraph.Height(3), asciigraph.Width(gw))))
		b.WriteString("\n")
	}
	b.WriteString(dim.Render("arrows orbit · +/- zoom · space pause · r reset · q quit"))
	return b.String()
}

// preview downsamples the last committed frame into terminal cells using a
// brightness ramp.
func (m model) preview(cols, rows int) string {
	frame := m.history.Previous()
	if !m.history.Valid() {
		return strings.Repeat(strings.Repeat(" ", cols)+"\n", rows)
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			px := col * frame.W / cols
			py := row * frame.H / rows
			lum := frame.Color[frame.Index(px, py)].Luminance()
			// Same exposure rolloff as image export so the terminal preview
			// and the saved PNG agree on brightness.
			v := 1 - math.Exp(-lum)
			idx := int(v * float64(len(luminanceRamp)-1))
			if idx >= len(luminanceRamp) {
				idx = len(luminanceRamp) - 1
			}
			b.WriteByte(luminanceRamp[idx])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
