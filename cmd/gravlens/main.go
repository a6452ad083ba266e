package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/mdimension/gravlens/internal/config"
	"github.com/mdimension/gravlens/internal/export"
	"github.com/mdimension/gravlens/internal/metrics"
	"github.com/mdimension/gravlens/internal/quality"
	"github.com/mdimension/gravlens/internal/render"
	"github.com/mdimension/gravlens/internal/storage"
	"github.com/mdimension/gravlens/internal/temporal"
	"github.com/mdimension/gravlens/internal/tui"
)

var (
	dataDir     string
	configFile  string
	preset      string
	dimension   int
	sliceOffset float64
	workers     int
	outPath     string
	outWidth    int
	outHeight   int
	exposure    float64
	gamma       float64
	sceneTime   float64
	// animate
	frames     int
	orbitTotal float64
	outDir     string
	// bench
	benchFrames int
	svgPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gravlens",
		Short: "n-dimensional black hole renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the interactive viewer when no command given
			return runLive(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravlens", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "scene config file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "built-in scene preset")
	rootCmd.PersistentFlags().IntVar(&dimension, "dim", 0, "override ambient dimension")
	rootCmd.PersistentFlags().Float64Var(&sliceOffset, "slice", 0, "override slice offset")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "render workers (0 = all cores)")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render a single frame to PNG",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&outPath, "out", "frame.png", "output file")
	renderCmd.Flags().IntVar(&outWidth, "width", 0, "output width (upscaled; 0 = render width)")
	renderCmd.Flags().IntVar(&outHeight, "height", 0, "output height (upscaled; 0 = render height)")
	renderCmd.Flags().Float64Var(&exposure, "exposure", 0, "tone map exposure (0 = from config)")
	renderCmd.Flags().Float64Var(&gamma, "gamma", 0, "display gamma (0 = from config)")
	renderCmd.Flags().Float64Var(&sceneTime, "time", 0, "animation time for the swirl phase")

	animateCmd := &cobra.Command{
		Use:   "animate",
		Short: "render an orbiting frame sequence",
		RunE:  runAnimate,
	}
	animateCmd.Flags().IntVar(&frames, "frames", 120, "number of frames")
	animateCmd.Flags().Float64Var(&orbitTotal, "orbit", 360, "total orbit sweep in degrees")
	animateCmd.Flags().StringVar(&outDir, "out-dir", "frames", "output directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive terminal viewer",
		RunE:  runLive,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the temporal render loop",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchFrames, "frames", 60, "frames to render")
	benchCmd.Flags().StringVar(&svgPath, "svg", "", "write a frame-time chart to this path")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scene presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			all := config.Presets()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIM\tROTATIONS\tSIZE")
			for _, name := range config.PresetNames() {
				cfg := all[name]
				fmt.Fprintf(w, "%s\t%d\t%d\t%dx%d\n",
					name, cfg.Dimension, len(cfg.Rotations), cfg.Render.Width, cfg.Render.Height)
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default scene config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "gravlens.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved benchmark runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(renderCmd, animateCmd, liveCmd, benchCmd, presetsCmd, configCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves preset, config file and flag overrides, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		p, ok := config.Presets()[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.PresetNames())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dim") {
		cfg.Dimension = dimension
	}
	if cmd.Flags().Changed("slice") {
		cfg.SliceOffset = sliceOffset
	}
	if cmd.Flags().Changed("workers") {
		cfg.Render.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildRenderer(cfg *config.Config, qc *quality.Controller) (*render.Renderer, error) {
	scene, err := render.NewScene(cfg)
	if err != nil {
		return nil, err
	}
	cam := render.NewCamera(cfg.Camera, cfg.Render.Width, cfg.Render.Height)
	return render.NewRenderer(scene, cam, cfg.Render.Workers, qc), nil
}

func toneMap(cfg *config.Config) export.ToneMap {
	tm := export.ToneMap{Exposure: cfg.Render.Exposure, Gamma: cfg.Render.Gamma}
	if exposure > 0 {
		tm.Exposure = exposure
	}
	if gamma > 0 {
		tm.Gamma = gamma
	}
	return tm
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	r, err := buildRenderer(cfg, nil)
	if err != nil {
		return err
	}

	frame := temporal.NewBuffers(cfg.Render.Width, cfg.Render.Height)
	stats, err := r.RenderFull(context.Background(), frame, sceneTime)
	if err != nil {
		return err
	}

	w, h := outWidth, outHeight
	if w <= 0 {
		w = cfg.Render.Width
	}
	if h <= 0 {
		h = cfg.Render.Height
	}
	if err := export.SavePNG(outPath, frame, toneMap(cfg), w, h); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "output\t%s (%dx%d)\n", outPath, w, h)
	fmt.Fprintf(tw, "dimension\t%d\n", cfg.Dimension)
	fmt.Fprintf(tw, "rays\t%d\n", stats.Rays)
	fmt.Fprintf(tw, "captured\t%.1f%%\n", 100*stats.CapturedFraction())
	fmt.Fprintf(tw, "steps/ray\t%.1f\n", stats.MeanSteps())
	fmt.Fprintf(tw, "time\t%s\n", stats.Duration.Round(time.Millisecond))
	return tw.Flush()
}

func runAnimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", frames)
	}
	r, err := buildRenderer(cfg, nil)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	h := temporal.NewHistory(cfg.Render.Width, cfg.Render.Height)
	rc := temporal.NewReconstructor(cfg.Temporal)
	tm := toneMap(cfg)
	step := orbitTotal * math.Pi / 180 / float64(frames)

	start := time.Now()
	var total metrics.FrameStats
	for i := 0; i < frames; i++ {
		t := float64(i) / 30.0 // swirl phase advances at 30 fps
		stats, err := r.RenderTemporal(context.Background(), h, rc, t)
		if err != nil {
			return err
		}
		total.Merge(stats)

		path := filepath.Join(outDir, fmt.Sprintf("frame_%04d.png", i))
		if err := export.SavePNG(path, h.Previous(), tm, 0, 0); err != nil {
			return err
		}
		r.Camera().Orbit(step, 0)
	}

	fmt.Printf("wrote %d frames to %s in %s (%.1f steps/ray)\n",
		frames, outDir, time.Since(start).Round(time.Millisecond), total.MeanSteps())
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	qc := quality.NewController()
	r, err := buildRenderer(cfg, qc)
	if err != nil {
		return err
	}
	return tui.Run(r, qc, cfg.Temporal)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if benchFrames < 2 {
		return fmt.Errorf("bench needs at least 2 frames, got %d", benchFrames)
	}
	r, err := buildRenderer(cfg, nil)
	if err != nil {
		return err
	}

	h := temporal.NewHistory(cfg.Render.Width, cfg.Render.Height)
	rc := temporal.NewReconstructor(cfg.Temporal)

	frameTime := metrics.NewMeanFrameTime()
	stepsPerRay := metrics.NewMeanStepsPerRay()
	captured := metrics.NewCapturedFraction()
	times := make([]float64, 0, benchFrames)

	for i := 0; i < benchFrames; i++ {
		stats, err := r.RenderTemporal(context.Background(), h, rc, float64(i)/30.0)
		if err != nil {
			return err
		}
		frameTime.Observe(stats)
		stepsPerRay.Observe(stats)
		captured.Observe(stats)
		times = append(times, float64(stats.Duration.Microseconds())/1000)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "dimension\t%d\n", cfg.Dimension)
	fmt.Fprintf(tw, "resolution\t%dx%d\n", cfg.Render.Width, cfg.Render.Height)
	fmt.Fprintf(tw, "frames\t%d\n", benchFrames)
	fmt.Fprintf(tw, "%s\t%.2f ms\n", frameTime.Name(), frameTime.Value())
	fmt.Fprintf(tw, "%s\t%.1f\n", stepsPerRay.Name(), stepsPerRay.Value())
	fmt.Fprintf(tw, "%s\t%.1f%%\n", captured.Name(), 100*captured.Value())
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(times, asciigraph.Height(8), asciigraph.Caption("frame time (ms)")))

	if svgPath != "" {
		if err := export.SaveSeriesSVG(svgPath, times, 640, 160, "#00ff88"); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", svgPath)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(storage.RunMetadata{
		Preset:    preset,
		Dimension: cfg.Dimension,
		Width:     cfg.Render.Width,
		Height:    cfg.Render.Height,
		Workers:   cfg.Render.Workers,
		Metrics: map[string]float64{
			frameTime.Name():   frameTime.Value(),
			stepsPerRay.Name(): stepsPerRay.Value(),
			captured.Name():    captured.Value(),
		},
	}, times)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no saved runs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tDIM\tSIZE\tFRAMES\tMEAN MS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%dx%d\t%d\t%.2f\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04"),
			r.Dimension, r.Width, r.Height, r.Frames,
			r.Metrics["mean_frame_ms"])
	}
	return tw.Flush()
}
