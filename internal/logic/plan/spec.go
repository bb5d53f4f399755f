package plan

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidSpec is returned for scan specifications no plan can satisfy.
	ErrInvalidSpec = errors.New("invalid dataset spec")

	// ErrZeroExposure is returned when a capture speed is requested for a
	// zero exposure time.
	ErrZeroExposure = errors.New("exposure time must be > 0")

	// ErrGridTooDense is returned when the grid would exceed MaxWaypoints,
	// typically because overlap or sidelap is 1 or more.
	ErrGridTooDense = errors.New("grid too dense")
)

// MaxWaypoints bounds the size of a generated plan.
const MaxWaypoints = 1_000_000

// DatasetSpec describes the survey the user wants to fly.
// Like geometry.Camera it is passed by value and never mutated.
type DatasetSpec struct {
	Overlap        float64 // fraction (0-1) shared by consecutive images in a row
	Sidelap        float64 // fraction (0-1) shared by images in adjacent rows
	Height         float64 // scan height above ground (m)
	ScanDimensionX float64 // scan area width (m)
	ScanDimensionY float64 // scan area depth (m)
	ExposureTimeMs float64 // exposure time (ms)
	CameraAngleDeg float64 // tilt from nadir (deg), 0 = straight down
}

// Validate checks the fields the planner cannot work around.
// Overlap and sidelap of 1 or more are accepted: the planner clamps the
// resulting spacing instead of failing.
func (s DatasetSpec) Validate() error {
	switch {
	case !finite(s.Overlap) || s.Overlap < 0:
		return fmt.Errorf("%w: overlap must be >= 0, got %g", ErrInvalidSpec, s.Overlap)
	case !finite(s.Sidelap) || s.Sidelap < 0:
		return fmt.Errorf("%w: sidelap must be >= 0, got %g", ErrInvalidSpec, s.Sidelap)
	case !finite(s.Height) || s.Height <= 0:
		return fmt.Errorf("%w: height must be > 0, got %g", ErrInvalidSpec, s.Height)
	case !finite(s.ScanDimensionX) || s.ScanDimensionX < 0:
		return fmt.Errorf("%w: scan_dimension_x must be >= 0, got %g", ErrInvalidSpec, s.ScanDimensionX)
	case !finite(s.ScanDimensionY) || s.ScanDimensionY < 0:
		return fmt.Errorf("%w: scan_dimension_y must be >= 0, got %g", ErrInvalidSpec, s.ScanDimensionY)
	case !finite(s.ExposureTimeMs) || s.ExposureTimeMs < 0:
		return fmt.Errorf("%w: exposure_time_ms must be >= 0, got %g", ErrInvalidSpec, s.ExposureTimeMs)
	case !finite(s.CameraAngleDeg):
		return fmt.Errorf("%w: camera_angle must be finite, got %g", ErrInvalidSpec, s.CameraAngleDeg)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
