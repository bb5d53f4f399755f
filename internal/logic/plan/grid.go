package plan

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/cjeanneret/SkyGrid/internal/debug"
	"github.com/cjeanneret/SkyGrid/internal/logic/geometry"
)

// minSpacing keeps the nominal spacing positive when overlap >= 1 or the
// footprint degenerates; the grid then becomes as dense as it can get.
const minSpacing = 1e-6

// yawEpsilon is the horizontal boresight offset (m) below which the
// heading is considered undefined and reported as 0.
const yawEpsilon = 1e-9

// GridLayout is the photo grid needed to cover the scan area with the
// requested overlap.
type GridLayout struct {
	Footprint geometry.Footprint `json:"footprint"` // tilted footprint at scan height
	Nominal   Spacing            `json:"nominal_spacing"`
	Spacing   Spacing            `json:"spacing"` // actual spacing, <= Nominal

	Columns int `json:"columns"` // images per row (along X)
	Rows    int `json:"rows"`    // rows (along Y)

	// Centre of the first column / first row
	OriginX float64 `json:"origin_x_m"`
	OriginY float64 `json:"origin_y_m"`
}

// Count returns the number of waypoints in the grid.
func (g *GridLayout) Count() int {
	return g.Columns * g.Rows
}

// EffectiveOverlap returns the overlap actually achieved along X.
// It is never below the requested overlap.
func (g *GridLayout) EffectiveOverlap() float64 {
	if g.Footprint.X == 0 {
		return 0
	}
	return 1.0 - g.Spacing.X/g.Footprint.X
}

// EffectiveSidelap returns the sidelap actually achieved along Y.
func (g *GridLayout) EffectiveSidelap() float64 {
	if g.Footprint.Y == 0 {
		return 0
	}
	return 1.0 - g.Spacing.Y/g.Footprint.Y
}

// ComputeGridLayout calculates the grid from the tilted footprint.
// Image counts are rounded up so the area is always covered, then the
// spacing is shrunk to spread the images evenly across it. Grids of more
// than MaxWaypoints images fail with ErrGridTooDense.
func ComputeGridLayout(cam geometry.Camera, spec DatasetSpec) (*GridLayout, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	tilted, err := geometry.TiltedImageFootprint(cam, spec.Height, spec.CameraAngleDeg)
	if err != nil {
		return nil, fmt.Errorf("grid layout: %w", err)
	}

	nominal := Spacing{
		X: math.Max(minSpacing, tilted.X*(1.0-spec.Overlap)),
		Y: math.Max(minSpacing, tilted.Y*(1.0-spec.Sidelap)),
	}

	// Counts stay float64 until bounded: a huge quotient would overflow int.
	// At least 1 photo per axis.
	cols := math.Max(1, math.Ceil(spec.ScanDimensionX/nominal.X))
	rws := math.Max(1, math.Ceil(spec.ScanDimensionY/nominal.Y))
	if cols*rws > MaxWaypoints {
		return nil, fmt.Errorf("%w: %.0f columns x %.0f rows exceeds %d waypoints", ErrGridTooDense, cols, rws, MaxWaypoints)
	}
	columns, rows := int(cols), int(rws)

	spacing := Spacing{
		X: spec.ScanDimensionX / float64(columns),
		Y: spec.ScanDimensionY / float64(rows),
	}

	return &GridLayout{
		Footprint: tilted.Footprint,
		Nominal:   nominal,
		Spacing:   spacing,
		Columns:   columns,
		Rows:      rows,
		OriginX:   -spec.ScanDimensionX/2.0 + spacing.X/2.0,
		OriginY:   -spec.ScanDimensionY/2.0 + spacing.Y/2.0,
	}, nil
}

// Plan is a computed survey: its grid and the ordered waypoints.
type Plan struct {
	Layout    *GridLayout `json:"layout"`
	Waypoints []Waypoint  `json:"waypoints"`
}

// Build computes the grid layout and the serpentine waypoint sequence.
func Build(cam geometry.Camera, spec DatasetSpec) (*Plan, error) {
	layout, err := ComputeGridLayout(cam, spec)
	if err != nil {
		return nil, err
	}
	speed, err := SpeedDuringPhotoCapture(cam, spec, DefaultAllowedMovementPx)
	if err != nil {
		return nil, err
	}

	debug.Grid(layout.Columns, layout.Rows, layout.Count())
	debug.Verbose("Footprint %.2f x %.2f m, spacing %.2f x %.2f m (nominal %.2f x %.2f m)",
		layout.Footprint.X, layout.Footprint.Y,
		layout.Spacing.X, layout.Spacing.Y,
		layout.Nominal.X, layout.Nominal.Y)
	debug.Verbose("Capture speed %.3f m/s", speed)

	waypoints := make([]Waypoint, 0, layout.Count())

	// Row traversal (serpentine)
	for row := 0; row < layout.Rows; row++ {
		y := layout.OriginY + float64(row)*layout.Spacing.Y

		// Even rows go left to right, odd rows come back
		leftToRight := row%2 == 0
		debug.Trace("Row %d at y=%.3f, left to right: %v", row, y, leftToRight)

		for i := 0; i < layout.Columns; i++ {
			col := i
			if !leftToRight {
				col = layout.Columns - 1 - i
			}
			x := layout.OriginX + float64(col)*layout.Spacing.X

			position := r3.Vector{X: x, Y: y, Z: spec.Height}
			target := geometry.CastCenterRay(position, spec.CameraAngleDeg)

			wp := Waypoint{
				XM:      x,
				YM:      y,
				ZM:      spec.Height,
				SpeedMS: speed,
				YawDeg:  yawTowards(position, target),
				LookAt:  LookAtPoint(target),
			}
			debug.Waypoint(len(waypoints), wp.XM, wp.YM, wp.ZM)
			waypoints = append(waypoints, wp)
		}
	}

	return &Plan{Layout: layout, Waypoints: waypoints}, nil
}

// GeneratePhotoPlanOnGrid returns the lawnmower-ordered waypoints covering
// the scan area described by spec.
func GeneratePhotoPlanOnGrid(cam geometry.Camera, spec DatasetSpec) ([]Waypoint, error) {
	p, err := Build(cam, spec)
	if err != nil {
		return nil, err
	}
	return p.Waypoints, nil
}

// yawTowards returns the heading, in degrees, from the camera position to
// its ground target. A nadir camera has no heading; it reports 0.
func yawTowards(position, target r3.Vector) float64 {
	dx := target.X - position.X
	dy := target.Y - position.Y
	if math.Hypot(dx, dy) < yawEpsilon {
		return 0
	}
	return math.Atan2(dy, dx) * 180.0 / math.Pi
}
