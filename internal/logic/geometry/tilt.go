package geometry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// minRayDirectionZ is the smallest vertical ray component used when
// intersecting the ground. Rays closer to horizontal are clamped to it,
// which keeps the intersection finite but far away.
const minRayDirectionZ = 1e-8

// TiltedFootprint is the ground footprint of a camera pitched about its
// local X axis, plus the ground point under the image centre.
type TiltedFootprint struct {
	Footprint
	Center r3.Vector
}

// SlantDistance returns the distance along the boresight of a camera at
// the given height tilted angleDeg from nadir: height / cos(angle).
func SlantDistance(height, angleDeg float64) float64 {
	return height / math.Cos(angleDeg*math.Pi/180.0)
}

// pitchRotation returns the rotation about the camera X axis.
func pitchRotation(angleDeg float64) *mat.Dense {
	a := angleDeg * math.Pi / 180.0
	sin, cos := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cos, -sin,
		0, sin, cos,
	})
}

func rotate(r *mat.Dense, d r3.Vector) r3.Vector {
	var out mat.VecDense
	out.MulVec(r, mat.NewVecDense(3, []float64{d.X, d.Y, d.Z}))
	return r3.Vector{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// intersectGround follows the ray origin + t·dir to the plane z = 0.
func intersectGround(origin, dir r3.Vector) r3.Vector {
	if math.Abs(dir.Z) < minRayDirectionZ {
		dir.Z = minRayDirectionZ
	}
	t := -origin.Z / dir.Z
	p := origin.Add(dir.Mul(t))
	p.Z = 0
	return p
}

// TiltedImageFootprint reprojects the four image corners onto the ground
// plane for a camera at (0, 0, height) pitched angleDeg from nadir, and
// returns the axis-aligned bounding box of the intersections.
func TiltedImageFootprint(cam Camera, height, angleDeg float64) (TiltedFootprint, error) {
	if err := cam.Validate(); err != nil {
		return TiltedFootprint{}, err
	}
	if !positive(height) {
		return TiltedFootprint{}, fmt.Errorf("tilted footprint at %g m: %w", height, ErrInvalidDistance)
	}

	rot := pitchRotation(angleDeg)
	origin := r3.Vector{Z: height}
	w, h := float64(cam.ImageSizeXPx), float64(cam.ImageSizeYPx)
	corners := []ImagePoint{{0, 0}, {w, 0}, {w, h}, {0, h}}

	xs := make([]float64, 0, len(corners))
	ys := make([]float64, 0, len(corners))
	for _, c := range corners {
		// Back-projection at unit depth is the ray direction in the camera frame.
		dir := rotate(rot, reproject(cam, c, 1))
		p := intersectGround(origin, dir)
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}

	return TiltedFootprint{
		Footprint: Footprint{
			X: floats.Max(xs) - floats.Min(xs),
			Y: floats.Max(ys) - floats.Min(ys),
		},
		Center: castCenterRay(rot, origin),
	}, nil
}

// CastCenterRay returns the ground point hit by the boresight of a camera
// at position, pitched angleDeg from nadir. At nadir it is the point
// straight below the camera.
func CastCenterRay(position r3.Vector, angleDeg float64) r3.Vector {
	return castCenterRay(pitchRotation(angleDeg), position)
}

func castCenterRay(rot *mat.Dense, position r3.Vector) r3.Vector {
	return intersectGround(position, rotate(rot, r3.Vector{Z: 1}))
}
