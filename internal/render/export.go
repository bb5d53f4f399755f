// Package render turns a computed plan into files: waypoint exports
// (JSON, YAML, CSV), a static figure and an interactive HTML chart.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/SkyGrid/internal/logic/plan"
)

// Export formats accepted by Write.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
)

// Formats lists every export format, in the order shown to users.
var Formats = []string{FormatJSON, FormatYAML, FormatCSV}

// csvHeader is the first row of every CSV export.
var csvHeader = []string{
	"index", "x_m", "y_m", "z_m", "speed_m_s", "yaw_deg",
	"look_at_x_m", "look_at_y_m", "look_at_z_m",
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	switch format {
	case FormatYAML:
		return "application/yaml"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/json"
	}
}

// Write exports the plan's waypoints in the given format.
func Write(w io.Writer, format string, p *plan.Plan) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, p.Waypoints)
	case FormatYAML:
		return WriteYAML(w, p.Waypoints)
	case FormatCSV:
		return WriteCSV(w, p.Waypoints)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes the waypoints as an indented JSON array.
func WriteJSON(w io.Writer, waypoints []plan.Waypoint) error {
	if waypoints == nil {
		waypoints = []plan.Waypoint{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(waypoints); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes the waypoints as a YAML sequence.
func WriteYAML(w io.Writer, waypoints []plan.Waypoint) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(waypoints); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes one row per waypoint. Look-at cells are left empty when
// the waypoint has no target.
func WriteCSV(w io.Writer, waypoints []plan.Waypoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, wp := range waypoints {
		row := []string{
			strconv.Itoa(i),
			formatFloat(wp.XM),
			formatFloat(wp.YM),
			formatFloat(wp.ZM),
			formatFloat(wp.SpeedMS),
			formatFloat(wp.YawDeg),
			"", "", "",
		}
		if wp.LookAt.Valid {
			row[6] = formatFloat(wp.LookAt.Point.X)
			row[7] = formatFloat(wp.LookAt.Point.Y)
			row[8] = formatFloat(wp.LookAt.Point.Z)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
