package geometry

import "math"

// HorizontalFOV calculates the horizontal field of view in degrees.
// Formula: FOV = 2 × arctan(image_width / (2 × fx))
func (c Camera) HorizontalFOV() float64 {
	return 2.0 * math.Atan(float64(c.ImageSizeXPx)/(2.0*c.Fx)) * 180.0 / math.Pi
}

// VerticalFOV calculates the vertical field of view in degrees.
// Formula: FOV = 2 × arctan(image_height / (2 × fy))
func (c Camera) VerticalFOV() float64 {
	return 2.0 * math.Atan(float64(c.ImageSizeYPx)/(2.0*c.Fy)) * 180.0 / math.Pi
}
