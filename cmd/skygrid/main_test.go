package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cjeanneret/SkyGrid/internal/config"
	"github.com/cjeanneret/SkyGrid/internal/debug"
	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
	"github.com/cjeanneret/SkyGrid/internal/render"
)

// ---------- webPortFlag ----------

func TestWebPortFlag_EmptyString(t *testing.T) {
	w := &webPortFlag{defaultPort: 8080}
	if err := w.Set(""); err != nil {
		t.Fatalf("Set(\"\") error: %v", err)
	}
	if w.port() != 8080 {
		t.Errorf("expected default port 8080, got %d", w.port())
	}
}

func TestWebPortFlag_ValidPorts(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"8080", 8080},
		{"1", 1},
		{"65535", 65535},
		{"3000", 3000},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			if err := w.Set(tc.input); err != nil {
				t.Fatalf("Set(%q) error: %v", tc.input, err)
			}
			if w.port() != tc.want {
				t.Errorf("port() = %d, want %d", w.port(), tc.want)
			}
		})
	}
}

func TestWebPortFlag_InvalidPorts(t *testing.T) {
	cases := []string{"0", "65536", "-1", "abc", "8080.5"}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			w := &webPortFlag{defaultPort: 8080}
			if err := w.Set(input); err == nil {
				t.Errorf("Set(%q) should fail, got nil", input)
			}
		})
	}
}

func TestWebPortFlag_String(t *testing.T) {
	w := &webPortFlag{val: 0}
	if s := w.String(); s != "0" {
		t.Errorf("String() = %q, want \"0\"", s)
	}
	w.val = 9090
	if s := w.String(); s != "9090" {
		t.Errorf("String() = %q, want \"9090\"", s)
	}
}

// ---------- optionalFloat ----------

func TestOptionalFloat_Unset(t *testing.T) {
	var o optionalFloat
	if o.ptr() != nil {
		t.Error("unset flag should yield nil")
	}
	if s := o.String(); s != "" {
		t.Errorf("String() = %q, want empty", s)
	}
}

func TestOptionalFloat_ExplicitZero(t *testing.T) {
	var o optionalFloat
	if err := o.Set("0"); err != nil {
		t.Fatalf("Set(\"0\") error: %v", err)
	}
	p := o.ptr()
	if p == nil || *p != 0 {
		t.Errorf("ptr() = %v, want pointer to 0", p)
	}
}

func TestOptionalFloat_Values(t *testing.T) {
	cases := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"15", 15, false},
		{"-22.5", -22.5, false},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"+Inf", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			var o optionalFloat
			err := o.Set(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Set(%q) should fail, got nil", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q) error: %v", tc.input, err)
			}
			if got := *o.ptr(); got != tc.want {
				t.Errorf("value = %v, want %v", got, tc.want)
			}
		})
	}
}

// ---------- applyOutputFlags ----------

func newTestConfig() *config.Config {
	return &config.Config{
		Camera: config.CameraConfig{
			Name: "Skydio VT300L wide",
			Fx:   4938.56, Fy: 4936.49,
			Cx: 4095.5, Cy: 3071.5,
			SensorSizeXMm: 13.107, SensorSizeYMm: 9.830,
			ImageSizeXPx: 8192, ImageSizeYPx: 6144,
		},
		Scan: config.ScanConfig{
			Overlap:         0.7,
			Sidelap:         0.7,
			HeightM:         100,
			ScanDimensionXM: 150,
			ScanDimensionYM: 150,
			ExposureTimeMs:  2,
		},
		Output:   config.OutputConfig{Format: render.FormatJSON},
		Defaults: config.DefaultsConfig{AllowedMovementPx: 1},
	}
}

func TestApplyOutputFlags_NonEmpty(t *testing.T) {
	cfg := newTestConfig()
	applyOutputFlags(cfg, "csv", "out.csv", "plan.png", "plan.html")

	want := config.OutputConfig{Format: "csv", Path: "out.csv", PlotPath: "plan.png", ChartPath: "plan.html"}
	if cfg.Output != want {
		t.Errorf("Output = %+v, want %+v", cfg.Output, want)
	}
}

func TestApplyOutputFlags_EmptyLeavesUnchanged(t *testing.T) {
	cfg := newTestConfig()
	cfg.Output.Path = "configured.json"
	orig := cfg.Output

	applyOutputFlags(cfg, "", "", "", "")

	if cfg.Output != orig {
		t.Errorf("Output changed: %+v != %+v", cfg.Output, orig)
	}
}

// ---------- run ----------

func TestRun_WritesJSONToStdout(t *testing.T) {
	var stdout bytes.Buffer
	if err := run(context.Background(), newTestConfig(), "", &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}

	var waypoints []plan.Waypoint
	if err := json.Unmarshal(stdout.Bytes(), &waypoints); err != nil {
		t.Fatalf("decode stdout: %v", err)
	}
	if len(waypoints) != 20 {
		t.Errorf("got %d waypoints, want 20", len(waypoints))
	}
}

func TestRun_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := newTestConfig()
	cfg.Scan.CameraAngleDeg = 20
	applyOutputFlags(cfg, "csv",
		filepath.Join(dir, "plan.csv"),
		filepath.Join(dir, "plan.png"),
		filepath.Join(dir, "plan.html"))

	var stdout bytes.Buffer
	if err := run(context.Background(), cfg, "Tilted", &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty when exporting to a file, got %d bytes", stdout.Len())
	}

	f, err := os.Open(filepath.Join(dir, "plan.csv"))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) < 2 || rows[0][0] != "index" {
		t.Errorf("unexpected csv content: %d rows", len(rows))
	}

	png, err := os.ReadFile(filepath.Join(dir, "plan.png"))
	if err != nil {
		t.Fatalf("read figure: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("figure is not a PNG")
	}

	html, err := os.ReadFile(filepath.Join(dir, "plan.html"))
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !strings.Contains(string(html), "Tilted") {
		t.Error("chart should contain the title")
	}
}

func TestRun_DashMeansStdout(t *testing.T) {
	cfg := newTestConfig()
	applyOutputFlags(cfg, "yaml", "-", "", "")

	var stdout bytes.Buffer
	if err := run(context.Background(), cfg, "", &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "look_at:") {
		t.Error("yaml export should be written to stdout")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	if err := run(ctx, newTestConfig(), "", &stdout); err == nil {
		t.Error("expected error for cancelled context, got nil")
	}
	if stdout.Len() != 0 {
		t.Error("nothing should be written after cancellation")
	}
}

func TestRun_UnwritableExport(t *testing.T) {
	cfg := newTestConfig()
	cfg.Output.Path = filepath.Join(t.TempDir(), "missing", "plan.json")

	if err := run(context.Background(), cfg, "", &bytes.Buffer{}); err == nil {
		t.Error("expected error for export into a missing directory, got nil")
	}
}

func TestRun_FailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	debug.SetOutput(&logs)
	debug.Init(debug.LevelInfo)
	t.Cleanup(func() {
		debug.Init(debug.LevelOff)
		debug.SetOutput(os.Stderr)
	})

	cfg := newTestConfig()
	cfg.Scan.ExposureTimeMs = 0

	err := run(context.Background(), cfg, "", &bytes.Buffer{})
	if !errors.Is(err, plan.ErrZeroExposure) {
		t.Fatalf("run error = %v, want ErrZeroExposure", err)
	}
	if !strings.Contains(logs.String(), "[ERROR] build plan:") {
		t.Errorf("failure not reported on the debug log:\n%s", logs.String())
	}
}

// ---------- Cross-source consistency ----------

func TestOverrides_CLIAndWebProduceSameResult(t *testing.T) {
	angle := 12.0
	overrides := config.Overrides{HeightM: 80, Sidelap: 0.6, CameraAngleDeg: &angle}

	// CLI path: overrides applied once at startup
	cli := config.ApplyOverrides(newTestConfig(), overrides)

	// Web path: overrides applied per request on the shared base config
	base := newTestConfig()
	webCfg := config.ApplyOverrides(base, overrides)

	if cli.DatasetSpec() != webCfg.DatasetSpec() {
		t.Errorf("specs differ: CLI=%+v, Web=%+v", cli.DatasetSpec(), webCfg.DatasetSpec())
	}
	if base.Scan.HeightM != 100 {
		t.Errorf("base config mutated: HeightM = %v", base.Scan.HeightM)
	}
}
