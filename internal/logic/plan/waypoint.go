package plan

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"
)

// LookAt is an optional ground target for the camera boresight.
// The zero value means "no target", which is distinct from a target at
// the origin.
type LookAt struct {
	Point r3.Vector
	Valid bool
}

// LookAtPoint returns a present LookAt for p.
func LookAtPoint(p r3.Vector) LookAt {
	return LookAt{Point: p, Valid: true}
}

type lookAtFields struct {
	X float64 `json:"x_m" yaml:"x_m"`
	Y float64 `json:"y_m" yaml:"y_m"`
	Z float64 `json:"z_m" yaml:"z_m"`
}

func (l LookAt) MarshalJSON() ([]byte, error) {
	if !l.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(lookAtFields{X: l.Point.X, Y: l.Point.Y, Z: l.Point.Z})
}

func (l *LookAt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = LookAt{}
		return nil
	}
	var f lookAtFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*l = LookAtPoint(r3.Vector{X: f.X, Y: f.Y, Z: f.Z})
	return nil
}

func (l LookAt) MarshalYAML() (interface{}, error) {
	if !l.Valid {
		return nil, nil
	}
	return lookAtFields{X: l.Point.X, Y: l.Point.Y, Z: l.Point.Z}, nil
}

func (l *LookAt) UnmarshalYAML(value *yaml.Node) error {
	if value.ShortTag() == "!!null" {
		*l = LookAt{}
		return nil
	}
	var f lookAtFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	*l = LookAtPoint(r3.Vector{X: f.X, Y: f.Y, Z: f.Z})
	return nil
}

// Waypoint is one capture position of a survey plan, in the local frame
// centred on the scan area.
type Waypoint struct {
	XM      float64 `json:"x_m" yaml:"x_m"`
	YM      float64 `json:"y_m" yaml:"y_m"`
	ZM      float64 `json:"z_m" yaml:"z_m"` // altitude above ground
	SpeedMS float64 `json:"speed_m_s" yaml:"speed_m_s"`
	YawDeg  float64 `json:"yaw_deg" yaml:"yaw_deg"`
	LookAt  LookAt  `json:"look_at" yaml:"look_at"`
}

// Position returns the waypoint as a 3D point.
func (w Waypoint) Position() r3.Vector {
	return r3.Vector{X: w.XM, Y: w.YM, Z: w.ZM}
}
