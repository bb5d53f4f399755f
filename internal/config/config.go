package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SkyGrid/internal/logic/geometry"
	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
	"github.com/cjeanneret/SkyGrid/internal/render"
)

// MaxConfigFileBytes caps the size of a config file read by Load.
const MaxConfigFileBytes = 1 << 20

// CameraConfig holds the pinhole intrinsics of the survey camera.
type CameraConfig struct {
	Name          string  `yaml:"name"`             // e.g., "Skydio VT300L wide"
	Fx            float64 `yaml:"fx"`               // focal length x (px)
	Fy            float64 `yaml:"fy"`               // focal length y (px)
	Cx            float64 `yaml:"cx"`               // principal point x (px), default image centre
	Cy            float64 `yaml:"cy"`               // principal point y (px), default image centre
	SensorSizeXMm float64 `yaml:"sensor_size_x_mm"` // e.g., 13.107
	SensorSizeYMm float64 `yaml:"sensor_size_y_mm"` // e.g., 9.830
	ImageSizeXPx  int     `yaml:"image_size_x_px"`  // e.g., 8192
	ImageSizeYPx  int     `yaml:"image_size_y_px"`  // e.g., 6144
}

// ScanConfig describes the area and how it should be photographed.
type ScanConfig struct {
	Overlap         float64 `yaml:"overlap"`            // 0-1, along the flight line (default 0.7)
	Sidelap         float64 `yaml:"sidelap"`            // 0-1, between rows (default 0.7)
	HeightM         float64 `yaml:"height_m"`           // scan height above ground
	ScanDimensionXM float64 `yaml:"scan_dimension_x_m"` // area width
	ScanDimensionYM float64 `yaml:"scan_dimension_y_m"` // area depth
	ExposureTimeMs  float64 `yaml:"exposure_time_ms"`   // shutter time
	CameraAngleDeg  float64 `yaml:"camera_angle_deg"`   // tilt from nadir, 0 = straight down
}

// OutputConfig selects what the CLI writes.
type OutputConfig struct {
	Format    string `yaml:"format"`     // json, yaml or csv (default json)
	Path      string `yaml:"path"`       // waypoint export file; empty = stdout
	PlotPath  string `yaml:"plot_path"`  // PNG/SVG figure; empty = none
	ChartPath string `yaml:"chart_path"` // HTML chart; empty = none
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel        int     `yaml:"debug_level"`         // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	AllowedMovementPx float64 `yaml:"allowed_movement_px"` // motion blur budget reported by the CLI (default 1)
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Scan     ScanConfig     `yaml:"scan"`
	Output   OutputConfig   `yaml:"output"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath rejects paths that are not a .yaml file directly
// inside a configs/ directory, or that contain ".." components.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if slices.Contains(strings.Split(filepath.ToSlash(path), "/"), "..") {
		return fmt.Errorf("config path %q must not contain '..'", path)
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	if err := ValidateConfigPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", MaxConfigFileBytes)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	// Principal point defaults to the image centre
	if c.Camera.Cx == 0 && c.Camera.Cy == 0 {
		c.Camera.Cx = float64(c.Camera.ImageSizeXPx) / 2.0
		c.Camera.Cy = float64(c.Camera.ImageSizeYPx) / 2.0
	}
	if c.Scan.Overlap == 0 {
		c.Scan.Overlap = 0.7 // reasonable default (70%)
	}
	if c.Scan.Sidelap == 0 {
		c.Scan.Sidelap = 0.7
	}
	if c.Output.Format == "" {
		c.Output.Format = render.FormatJSON
	}
	if c.Defaults.AllowedMovementPx <= 0 {
		c.Defaults.AllowedMovementPx = plan.DefaultAllowedMovementPx
	}
}

// Validate checks the values a user can get wrong in the YAML file.
func (c *Config) Validate() error {
	if !isPositive(c.Camera.Fx) || !isPositive(c.Camera.Fy) {
		return fmt.Errorf("camera.fx and camera.fy must be > 0, got %g and %g", c.Camera.Fx, c.Camera.Fy)
	}
	if c.Camera.ImageSizeXPx <= 0 || c.Camera.ImageSizeYPx <= 0 {
		return fmt.Errorf("camera.image_size_x_px and camera.image_size_y_px must be > 0, got %dx%d",
			c.Camera.ImageSizeXPx, c.Camera.ImageSizeYPx)
	}
	if !isPositive(c.Camera.SensorSizeXMm) || !isPositive(c.Camera.SensorSizeYMm) {
		return fmt.Errorf("camera.sensor_size_x_mm and camera.sensor_size_y_mm must be > 0")
	}
	if err := validateLap("scan.overlap", c.Scan.Overlap); err != nil {
		return err
	}
	if err := validateLap("scan.sidelap", c.Scan.Sidelap); err != nil {
		return err
	}
	if !isPositive(c.Scan.HeightM) {
		return fmt.Errorf("scan.height_m must be > 0, got %g", c.Scan.HeightM)
	}
	if !isFinite(c.Scan.ScanDimensionXM) || c.Scan.ScanDimensionXM < 0 {
		return fmt.Errorf("scan.scan_dimension_x_m must be >= 0, got %g", c.Scan.ScanDimensionXM)
	}
	if !isFinite(c.Scan.ScanDimensionYM) || c.Scan.ScanDimensionYM < 0 {
		return fmt.Errorf("scan.scan_dimension_y_m must be >= 0, got %g", c.Scan.ScanDimensionYM)
	}
	if !isPositive(c.Scan.ExposureTimeMs) {
		return fmt.Errorf("scan.exposure_time_ms must be > 0, got %g", c.Scan.ExposureTimeMs)
	}
	if !isFinite(c.Scan.CameraAngleDeg) || math.Abs(c.Scan.CameraAngleDeg) >= 90 {
		return fmt.Errorf("scan.camera_angle_deg must be between -90 and 90 (exclusive), got %g", c.Scan.CameraAngleDeg)
	}
	if !slices.Contains(render.Formats, c.Output.Format) {
		return fmt.Errorf("output.format must be one of %s, got %q", strings.Join(render.Formats, ", "), c.Output.Format)
	}
	return nil
}

func validateLap(key string, v float64) error {
	if !isFinite(v) || v < 0 || v >= 1 {
		return fmt.Errorf("%s must be in [0, 1), got %g", key, v)
	}
	return nil
}

// CameraModel returns the configured camera as a geometry.Camera.
func (c *Config) CameraModel() geometry.Camera {
	return geometry.Camera{
		Fx:            c.Camera.Fx,
		Fy:            c.Camera.Fy,
		Cx:            c.Camera.Cx,
		Cy:            c.Camera.Cy,
		SensorSizeXMm: c.Camera.SensorSizeXMm,
		SensorSizeYMm: c.Camera.SensorSizeYMm,
		ImageSizeXPx:  c.Camera.ImageSizeXPx,
		ImageSizeYPx:  c.Camera.ImageSizeYPx,
	}
}

// DatasetSpec returns the configured scan as a plan.DatasetSpec.
func (c *Config) DatasetSpec() plan.DatasetSpec {
	return plan.DatasetSpec{
		Overlap:        c.Scan.Overlap,
		Sidelap:        c.Scan.Sidelap,
		Height:         c.Scan.HeightM,
		ScanDimensionX: c.Scan.ScanDimensionXM,
		ScanDimensionY: c.Scan.ScanDimensionYM,
		ExposureTimeMs: c.Scan.ExposureTimeMs,
		CameraAngleDeg: c.Scan.CameraAngleDeg,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isPositive(v float64) bool {
	return isFinite(v) && v > 0
}
