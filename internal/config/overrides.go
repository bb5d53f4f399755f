package config

import (
	"fmt"
	"math"
)

// Overrides holds scan parameters that replace config values for one plan.
// Zero values mean "use config default"; CameraAngleDeg is a pointer so
// that an explicit 0 (nadir) can override a tilted config.
type Overrides struct {
	HeightM         float64  `json:"height_m"`
	Overlap         float64  `json:"overlap"`
	Sidelap         float64  `json:"sidelap"`
	ScanDimensionXM float64  `json:"scan_dimension_x_m"`
	ScanDimensionYM float64  `json:"scan_dimension_y_m"`
	ExposureTimeMs  float64  `json:"exposure_time_ms"`
	CameraAngleDeg  *float64 `json:"camera_angle_deg,omitempty"`
}

// ValidateOverrides checks that non-zero overrides are within valid ranges.
func ValidateOverrides(o Overrides) error {
	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"height_m", o.HeightM, 0, 10000},
		{"overlap", o.Overlap, 0, 1},
		{"sidelap", o.Sidelap, 0, 1},
		{"scan_dimension_x_m", o.ScanDimensionXM, 0, 100000},
		{"scan_dimension_y_m", o.ScanDimensionYM, 0, 100000},
		{"exposure_time_ms", o.ExposureTimeMs, 0, 10000},
	}
	for _, c := range checks {
		if c.v == 0 {
			continue
		}
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) || c.v <= c.min || c.v > c.max {
			return fmt.Errorf("%s must be in (%g, %g], got %g", c.name, c.min, c.max, c.v)
		}
	}
	if o.Overlap >= 1 || o.Sidelap >= 1 {
		return fmt.Errorf("overlap and sidelap must be < 1, got %g and %g", o.Overlap, o.Sidelap)
	}
	if a := o.CameraAngleDeg; a != nil {
		if math.IsNaN(*a) || math.IsInf(*a, 0) || math.Abs(*a) >= 90 {
			return fmt.Errorf("camera_angle_deg must be between -90 and 90 (exclusive), got %g", *a)
		}
	}
	return nil
}

// ApplyOverrides returns a copy of base with the overrides applied.
// base is left untouched.
func ApplyOverrides(base *Config, o Overrides) *Config {
	cfg := *base
	if o.HeightM > 0 {
		cfg.Scan.HeightM = o.HeightM
	}
	if o.Overlap > 0 {
		cfg.Scan.Overlap = o.Overlap
	}
	if o.Sidelap > 0 {
		cfg.Scan.Sidelap = o.Sidelap
	}
	if o.ScanDimensionXM > 0 {
		cfg.Scan.ScanDimensionXM = o.ScanDimensionXM
	}
	if o.ScanDimensionYM > 0 {
		cfg.Scan.ScanDimensionYM = o.ScanDimensionYM
	}
	if o.ExposureTimeMs > 0 {
		cfg.Scan.ExposureTimeMs = o.ExposureTimeMs
	}
	if o.CameraAngleDeg != nil {
		cfg.Scan.CameraAngleDeg = *o.CameraAngleDeg
	}
	return &cfg
}
