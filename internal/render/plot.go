package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
)

// DefaultTitle is used when a figure or chart is rendered without a title.
const DefaultTitle = "Photo plan"

// FigureSize is the edge length of the square figure.
const FigureSize = 8 * vg.Inch

// ErrEmptyPlan is returned when rendering a plan without waypoints.
var ErrEmptyPlan = errors.New("plan has no waypoints")

var (
	pathColor     = color.RGBA{R: 65, G: 105, B: 225, A: 255} // royal blue
	waypointColor = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	lookAtColor   = color.RGBA{R: 128, G: 128, B: 128, A: 180}
)

// Figure draws the plan seen from above: the flight path, numbered
// waypoint markers and a dashed segment from each waypoint to its look-at
// target. Both axes share the same scale.
func Figure(p *plan.Plan, title string) (*plot.Plot, error) {
	if p == nil || len(p.Waypoints) == 0 {
		return nil, ErrEmptyPlan
	}
	if title == "" {
		title = DefaultTitle
	}

	fig := plot.New()
	fig.Title.Text = title
	fig.X.Label.Text = "X (m)"
	fig.Y.Label.Text = "Y (m)"

	xys := make(plotter.XYs, len(p.Waypoints))
	labels := make([]string, len(p.Waypoints))
	for i, wp := range p.Waypoints {
		xys[i] = plotter.XY{X: wp.XM, Y: wp.YM}
		labels[i] = strconv.Itoa(i)
	}

	// Look-at segments go first so the path is drawn on top of them
	var lookAtLegend *plotter.Line
	for i, wp := range p.Waypoints {
		if !wp.LookAt.Valid {
			continue
		}
		target := wp.LookAt.Point
		if math.Hypot(target.X-wp.XM, target.Y-wp.YM) < 1e-9 {
			continue
		}
		seg, err := plotter.NewLine(plotter.XYs{{X: wp.XM, Y: wp.YM}, {X: target.X, Y: target.Y}})
		if err != nil {
			return nil, fmt.Errorf("look-at segment %d: %w", i, err)
		}
		seg.Color = lookAtColor
		seg.Width = vg.Points(0.8)
		seg.Dashes = []vg.Length{vg.Points(3), vg.Points(2)}
		fig.Add(seg)
		if lookAtLegend == nil {
			lookAtLegend = seg
		}
	}

	path, err := plotter.NewLine(xys)
	if err != nil {
		return nil, fmt.Errorf("path line: %w", err)
	}
	path.Color = pathColor
	path.Width = vg.Points(1)

	markers, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("waypoint markers: %w", err)
	}
	markers.GlyphStyle.Color = waypointColor
	markers.GlyphStyle.Radius = vg.Points(3)
	markers.GlyphStyle.Shape = draw.CircleGlyph{}

	idx, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("waypoint labels: %w", err)
	}
	idx.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}

	fig.Add(path, markers, idx)
	fig.Legend.Add("path", path)
	fig.Legend.Add("waypoints", markers)
	if lookAtLegend != nil {
		fig.Legend.Add("look-at", lookAtLegend)
	}
	fig.Legend.Top = true
	fig.Legend.Left = false
	fig.Legend.XOffs = -10
	fig.Legend.YOffs = -10

	squareAxes(fig, p.Waypoints)
	return fig, nil
}

// squareAxes sets identical X and Y ranges around everything drawn so the
// grid is not distorted.
func squareAxes(fig *plot.Plot, waypoints []plan.Waypoint) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	extend := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, wp := range waypoints {
		extend(wp.XM, wp.YM)
		if wp.LookAt.Valid {
			extend(wp.LookAt.Point.X, wp.LookAt.Point.Y)
		}
	}

	half := math.Max(maxX-minX, maxY-minY)/2*1.1 + 1
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	fig.X.Min, fig.X.Max = cx-half, cx+half
	fig.Y.Min, fig.Y.Max = cy-half, cy+half
}

// WriteFigure renders the plan figure to w. format is any format gonum/plot
// supports, typically "png" or "svg".
func WriteFigure(w io.Writer, p *plan.Plan, title, format string) error {
	fig, err := Figure(p, title)
	if err != nil {
		return err
	}
	wt, err := fig.WriterTo(FigureSize, FigureSize, format)
	if err != nil {
		return fmt.Errorf("render %s figure: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s figure: %w", format, err)
	}
	return nil
}

// SaveFigure renders the plan figure to a file; the format follows the
// file extension.
func SaveFigure(path string, p *plan.Plan, title string) error {
	fig, err := Figure(p, title)
	if err != nil {
		return err
	}
	if err := fig.Save(FigureSize, FigureSize, path); err != nil {
		return fmt.Errorf("save figure %s: %w", path, err)
	}
	return nil
}
