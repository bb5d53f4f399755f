package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
)

// Chart builds an interactive top-down chart of the plan: the flight path
// with one point per waypoint, overlaid with the look-at targets.
func Chart(p *plan.Plan, title string) (*charts.Line, error) {
	if p == nil || len(p.Waypoints) == 0 {
		return nil, ErrEmptyPlan
	}
	if title == "" {
		title = DefaultTitle
	}

	path := make([]opts.LineData, 0, len(p.Waypoints))
	targets := make([]opts.ScatterData, 0, len(p.Waypoints))
	for i, wp := range p.Waypoints {
		path = append(path, opts.LineData{
			Name:  fmt.Sprintf("%d", i),
			Value: []interface{}{wp.XM, wp.YM, wp.ZM, wp.SpeedMS},
		})
		if wp.LookAt.Valid {
			targets = append(targets, opts.ScatterData{
				Name:  fmt.Sprintf("%d", i),
				Value: []interface{}{wp.LookAt.Point.X, wp.LookAt.Point.Y},
			})
		}
	}

	s := p.Summary()
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("waypoints=%d grid=%dx%d path=%.1fm speed=%.2fm/s", s.Waypoints, s.Columns, s.Rows, s.PathLengthM, s.SpeedMS),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	line.AddSeries("path", path, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	if len(targets) > 0 {
		scatter := charts.NewScatter()
		scatter.AddSeries("look-at", targets, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
		line.Overlap(scatter)
	}
	return line, nil
}

// WriteChart renders the plan chart as a standalone HTML page.
func WriteChart(w io.Writer, p *plan.Plan, title string) error {
	line, err := Chart(p, title)
	if err != nil {
		return err
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
