package geometry

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCamera is returned when camera intrinsics cannot describe a
	// pinhole projection (non-positive or non-finite values).
	ErrInvalidCamera = errors.New("invalid camera intrinsics")

	// ErrZeroDepth is returned when projecting a point lying in the camera plane (Z == 0).
	ErrZeroDepth = errors.New("point depth must be non-zero")

	// ErrInvalidDistance is returned when a footprint is requested at a
	// non-positive standoff distance.
	ErrInvalidDistance = errors.New("distance from surface must be > 0")
)

// Camera holds the pinhole intrinsics of a survey camera.
// It is a value type: copy it freely, never mutate a shared one.
type Camera struct {
	Fx float64 // focal length in x (pixels)
	Fy float64 // focal length in y (pixels)
	Cx float64 // principal point x (pixels)
	Cy float64 // principal point y (pixels)

	SensorSizeXMm float64 // sensor width (mm)
	SensorSizeYMm float64 // sensor height (mm)

	ImageSizeXPx int // image width (pixels)
	ImageSizeYPx int // image height (pixels)
}

// Validate reports whether the intrinsics are usable for projection.
func (c Camera) Validate() error {
	switch {
	case !positive(c.Fx):
		return fmt.Errorf("%w: fx must be > 0, got %g", ErrInvalidCamera, c.Fx)
	case !positive(c.Fy):
		return fmt.Errorf("%w: fy must be > 0, got %g", ErrInvalidCamera, c.Fy)
	case !finite(c.Cx) || !finite(c.Cy):
		return fmt.Errorf("%w: principal point must be finite, got (%g, %g)", ErrInvalidCamera, c.Cx, c.Cy)
	case !positive(c.SensorSizeXMm) || !positive(c.SensorSizeYMm):
		return fmt.Errorf("%w: sensor size must be > 0, got %gx%g mm", ErrInvalidCamera, c.SensorSizeXMm, c.SensorSizeYMm)
	case c.ImageSizeXPx <= 0 || c.ImageSizeYPx <= 0:
		return fmt.Errorf("%w: image size must be > 0, got %dx%d px", ErrInvalidCamera, c.ImageSizeXPx, c.ImageSizeYPx)
	}
	return nil
}

// FocalLengthMm converts the pixel focal lengths to millimetres
// using the sensor pixel pitch on each axis.
func (c Camera) FocalLengthMm() (fxMm, fyMm float64) {
	pixelToMmX := c.SensorSizeXMm / float64(c.ImageSizeXPx)
	pixelToMmY := c.SensorSizeYMm / float64(c.ImageSizeYPx)
	return c.Fx * pixelToMmX, c.Fy * pixelToMmY
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positive(v float64) bool {
	return finite(v) && v > 0
}
