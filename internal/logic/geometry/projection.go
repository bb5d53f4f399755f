package geometry

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// ImagePoint is a position on the image plane, in pixels.
type ImagePoint struct {
	U float64
	V float64
}

// Footprint is the ground extent covered by one image, in metres.
type Footprint struct {
	X float64 `json:"x_m" yaml:"x_m"`
	Y float64 `json:"y_m" yaml:"y_m"`
}

// ProjectWorldPointToImage projects a point expressed in the camera frame
// onto the image plane: u = fx·X/Z + cx, v = fy·Y/Z + cy.
func ProjectWorldPointToImage(cam Camera, p r3.Vector) (ImagePoint, error) {
	if err := cam.Validate(); err != nil {
		return ImagePoint{}, err
	}
	if p.Z == 0 {
		return ImagePoint{}, fmt.Errorf("project (%g, %g, %g): %w", p.X, p.Y, p.Z, ErrZeroDepth)
	}
	return ImagePoint{
		U: cam.Fx*(p.X/p.Z) + cam.Cx,
		V: cam.Fy*(p.Y/p.Z) + cam.Cy,
	}, nil
}

// ReprojectImagePointToWorld is the inverse of ProjectWorldPointToImage
// for a known depth along the optical axis.
func ReprojectImagePointToWorld(cam Camera, pt ImagePoint, depth float64) (r3.Vector, error) {
	if err := cam.Validate(); err != nil {
		return r3.Vector{}, err
	}
	return reproject(cam, pt, depth), nil
}

func reproject(cam Camera, pt ImagePoint, depth float64) r3.Vector {
	return r3.Vector{
		X: (pt.U - cam.Cx) * depth / cam.Fx,
		Y: (pt.V - cam.Cy) * depth / cam.Fy,
		Z: depth,
	}
}

// ImageFootprintOnSurface returns the ground size seen by a nadir camera
// at the given distance, from the back-projection of the opposite image
// corners (0,0) and (W,H).
func ImageFootprintOnSurface(cam Camera, distance float64) (Footprint, error) {
	if err := cam.Validate(); err != nil {
		return Footprint{}, err
	}
	if !positive(distance) {
		return Footprint{}, fmt.Errorf("footprint at %g m: %w", distance, ErrInvalidDistance)
	}

	p0 := reproject(cam, ImagePoint{U: 0, V: 0}, distance)
	p1 := reproject(cam, ImagePoint{U: float64(cam.ImageSizeXPx), V: float64(cam.ImageSizeYPx)}, distance)

	d := p1.Sub(p0).Abs()
	return Footprint{X: d.X, Y: d.Y}, nil
}

// GroundSamplingDistance returns the metres covered by one pixel at the
// given distance, taking the finer of the two axes.
func GroundSamplingDistance(cam Camera, distance float64) (float64, error) {
	fp, err := ImageFootprintOnSurface(cam, distance)
	if err != nil {
		return 0, err
	}
	gsdX := fp.X / float64(cam.ImageSizeXPx)
	gsdY := fp.Y / float64(cam.ImageSizeYPx)
	return min(gsdX, gsdY), nil
}
