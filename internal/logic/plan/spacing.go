package plan

import (
	"fmt"

	"github.com/cjeanneret/SkyGrid/internal/logic/geometry"
)

// DefaultAllowedMovementPx is the motion blur budget, in pixels, used when
// generating a plan.
const DefaultAllowedMovementPx = 1.0

// Spacing is a distance between consecutive captures along X and Y, in metres.
type Spacing struct {
	X float64 `json:"x_m" yaml:"x_m"`
	Y float64 `json:"y_m" yaml:"y_m"`
}

// DistanceBetweenImages returns the spacing needed to honour the requested
// overlap (along X) and sidelap (along Y).
//
// A tilted camera is approximated by the nadir footprint at the slant
// distance height/cos(angle). GeneratePhotoPlanOnGrid uses the exact
// tilted reprojection instead, so the two disagree for non-zero tilt.
func DistanceBetweenImages(cam geometry.Camera, spec DatasetSpec) (Spacing, error) {
	if err := spec.Validate(); err != nil {
		return Spacing{}, err
	}
	effectiveHeight := geometry.SlantDistance(spec.Height, spec.CameraAngleDeg)
	fp, err := geometry.ImageFootprintOnSurface(cam, effectiveHeight)
	if err != nil {
		return Spacing{}, fmt.Errorf("distance between images: %w", err)
	}
	return Spacing{
		X: fp.X * (1.0 - spec.Overlap),
		Y: fp.Y * (1.0 - spec.Sidelap),
	}, nil
}

// SpeedDuringPhotoCapture returns the highest ground speed (m/s) at which the
// drone moves no more than allowedMovementPx ground pixels during one
// exposure. The GSD is taken at nadir height regardless of tilt.
func SpeedDuringPhotoCapture(cam geometry.Camera, spec DatasetSpec, allowedMovementPx float64) (float64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	if !finite(allowedMovementPx) || allowedMovementPx <= 0 {
		return 0, fmt.Errorf("%w: allowed movement must be > 0 px, got %g", ErrInvalidSpec, allowedMovementPx)
	}
	if spec.ExposureTimeMs == 0 {
		return 0, ErrZeroExposure
	}

	gsd, err := geometry.GroundSamplingDistance(cam, spec.Height)
	if err != nil {
		return 0, fmt.Errorf("capture speed: %w", err)
	}
	maxMovementM := gsd * allowedMovementPx
	exposureS := spec.ExposureTimeMs / 1000.0
	return maxMovementM / exposureS, nil
}
