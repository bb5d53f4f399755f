package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/SkyGrid/internal/config"
	"github.com/cjeanneret/SkyGrid/internal/debug"
	"github.com/cjeanneret/SkyGrid/internal/logic/geometry"
	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
	"github.com/cjeanneret/SkyGrid/internal/metrics"
	"github.com/cjeanneret/SkyGrid/internal/render"
	"github.com/cjeanneret/SkyGrid/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	heightM := flag.Float64("height_m", 0, "override scan height in metres")
	overlap := flag.Float64("overlap", 0, "override overlap along the flight line (0-1)")
	sidelap := flag.Float64("sidelap", 0, "override overlap between rows (0-1)")
	scanX := flag.Float64("scan_x_m", 0, "override scan area width in metres")
	scanY := flag.Float64("scan_y_m", 0, "override scan area depth in metres")
	exposureMs := flag.Float64("exposure_time_ms", 0, "override exposure time in milliseconds")
	cameraAngle := &optionalFloat{}
	flag.Var(cameraAngle, "camera_angle_deg", "override camera tilt from nadir in degrees (-90..90 exclusive); 0 forces nadir")
	format := flag.String("format", "", "export format: json, yaml or csv (default from config)")
	outPath := flag.String("out", "", "export file; - for stdout (default from config)")
	plotPath := flag.String("plot", "", "write a PNG or SVG figure of the plan to this path")
	chartPath := flag.String("chart", "", "write an interactive HTML chart of the plan to this path")
	title := flag.String("title", "", "title of the figure and chart")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// Validate CLI overrides (only non-zero values are applied; zero means "use config default")
	overrides := config.Overrides{
		HeightM:         *heightM,
		Overlap:         *overlap,
		Sidelap:         *sidelap,
		ScanDimensionXM: *scanX,
		ScanDimensionYM: *scanY,
		ExposureTimeMs:  *exposureMs,
		CameraAngleDeg:  cameraAngle.ptr(),
	}
	if err := config.ValidateOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	cfg = config.ApplyOverrides(cfg, overrides)
	applyOutputFlags(cfg, *format, *outPath, *plotPath, *chartPath)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize debug system; keep stdout clean when the export is written there
	if cfg.Output.Path == "" || cfg.Output.Path == "-" {
		debug.SetOutput(os.Stderr)
	}
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.PrintStruct("Camera config", cfg.Camera)
	debug.PrintStruct("Scan config", cfg.Scan)

	if port := webPort.port(); port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		store := web.NewPlanStore(web.DefaultStoreCapacity)
		srv := web.NewServer(webAddr, broadcaster, store, web.NewConfigPlanner(cfg), web.FormDefaults(cfg))
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	if err := run(ctx, cfg, *title, os.Stdout); err != nil {
		log.Fatalf("plan failed: %v", err)
	}
}

// run computes the plan described by cfg and writes the configured outputs.
// The waypoint export goes to stdout when cfg.Output.Path is empty or "-".
// Failures are also reported on the debug log.
func run(ctx context.Context, cfg *config.Config, title string, stdout io.Writer) (err error) {
	defer func() {
		if err != nil {
			debug.Error(err)
		}
	}()

	cam := cfg.CameraModel()
	spec := cfg.DatasetSpec()

	debug.Step(1, "Computing camera geometry")
	if err := describeCamera(cam, spec, cfg.Defaults.AllowedMovementPx); err != nil {
		return err
	}

	debug.Step(2, "Calculating grid plan")
	p, err := plan.Build(cam, spec)
	metrics.ObservePlan(len(planWaypoints(p)), err)
	if err != nil {
		return fmt.Errorf("build plan: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := p.Summary()
	debug.Summary("Plan Summary")
	debug.Grid(s.Columns, s.Rows, s.Waypoints)
	debug.Info("Path %.1f m at %.2f m/s, about %.0f s of flight", s.PathLengthM, s.SpeedMS, s.FlightTimeS)
	debug.Info("Effective overlap %.1f%%, sidelap %.1f%%", s.EffectiveOverlap*100, s.EffectiveSidelap*100)

	debug.Step(3, "Writing outputs")
	if err := writeExport(stdout, cfg.Output, p); err != nil {
		return err
	}
	if path := cfg.Output.PlotPath; path != "" {
		if err := render.SaveFigure(path, p, title); err != nil {
			return err
		}
		debug.Value("Figure", path)
	}
	if path := cfg.Output.ChartPath; path != "" {
		if err := writeFile(path, func(w io.Writer) error { return render.WriteChart(w, p, title) }); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		debug.Value("Chart", path)
	}

	debug.Section("Plan Complete")
	return nil
}

// describeCamera logs the derived camera geometry at the scan height.
func describeCamera(cam geometry.Camera, spec plan.DatasetSpec, allowedPx float64) error {
	footprint, err := geometry.ImageFootprintOnSurface(cam, spec.Height)
	if err != nil {
		return err
	}
	gsd, err := geometry.GroundSamplingDistance(cam, spec.Height)
	if err != nil {
		return err
	}
	fxMm, fyMm := cam.FocalLengthMm()

	debug.Value("Horizontal FOV", cam.HorizontalFOV())
	debug.Value("Vertical FOV", cam.VerticalFOV())
	debug.Value("Focal length (mm)", debug.Fmt("%.2f x %.2f", fxMm, fyMm))
	debug.Value("Nadir footprint (m)", debug.Fmt("%.2f x %.2f", footprint.X, footprint.Y))
	debug.Value("GSD (cm/px)", debug.Fmt("%.3f", gsd*100))

	if spec.ExposureTimeMs > 0 {
		speed, err := plan.SpeedDuringPhotoCapture(cam, spec, allowedPx)
		if err != nil {
			return err
		}
		debug.Value(debug.Fmt("Max speed for %g px blur", allowedPx), debug.Fmt("%.2f m/s", speed))
	}
	return nil
}

func planWaypoints(p *plan.Plan) []plan.Waypoint {
	if p == nil {
		return nil
	}
	return p.Waypoints
}

// writeExport writes the waypoint export to out.Path, or stdout when the
// path is empty or "-".
func writeExport(stdout io.Writer, out config.OutputConfig, p *plan.Plan) error {
	if out.Path == "" || out.Path == "-" {
		return render.Write(stdout, out.Format, p)
	}
	if err := writeFile(out.Path, func(w io.Writer) error { return render.Write(w, out.Format, p) }); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	debug.Value("Export", out.Path)
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// applyOutputFlags mutates cfg.Output with the non-empty output flags.
func applyOutputFlags(cfg *config.Config, format, path, plotPath, chartPath string) {
	if format != "" {
		cfg.Output.Format = format
	}
	if path != "" {
		cfg.Output.Path = path
	}
	if plotPath != "" {
		cfg.Output.PlotPath = plotPath
	}
	if chartPath != "" {
		cfg.Output.ChartPath = chartPath
	}
}

// optionalFloat implements flag.Value for a float that is only applied when set,
// so that an explicit 0 is distinguishable from "not given".
type optionalFloat struct {
	val float64
	set bool
}

func (o *optionalFloat) String() string {
	if !o.set {
		return ""
	}
	return strconv.FormatFloat(o.val, 'g', -1, 64)
}

func (o *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("must be a finite number, got %s", s)
	}
	o.val, o.set = v, true
	return nil
}

func (o *optionalFloat) ptr() *float64 {
	if !o.set {
		return nil
	}
	v := o.val
	return &v
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
