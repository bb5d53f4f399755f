package plan

// Summary condenses a plan into the figures an operator checks before flying.
type Summary struct {
	Waypoints int `json:"waypoints" yaml:"waypoints"`
	Columns   int `json:"columns" yaml:"columns"`
	Rows      int `json:"rows" yaml:"rows"`

	PathLengthM float64 `json:"path_length_m" yaml:"path_length_m"`
	SpeedMS     float64 `json:"speed_m_s" yaml:"speed_m_s"`
	FlightTimeS float64 `json:"flight_time_s" yaml:"flight_time_s"` // at capture speed, turns ignored

	EffectiveOverlap float64 `json:"effective_overlap" yaml:"effective_overlap"`
	EffectiveSidelap float64 `json:"effective_sidelap" yaml:"effective_sidelap"`
}

// PathLength returns the length of the polyline through the waypoints, in metres.
func PathLength(waypoints []Waypoint) float64 {
	var total float64
	for i := 1; i < len(waypoints); i++ {
		total += waypoints[i].Position().Distance(waypoints[i-1].Position())
	}
	return total
}

// Summary computes the plan's summary.
func (p *Plan) Summary() Summary {
	s := Summary{
		Waypoints:   len(p.Waypoints),
		PathLengthM: PathLength(p.Waypoints),
	}
	if p.Layout != nil {
		s.Columns = p.Layout.Columns
		s.Rows = p.Layout.Rows
		s.EffectiveOverlap = p.Layout.EffectiveOverlap()
		s.EffectiveSidelap = p.Layout.EffectiveSidelap()
	}
	if len(p.Waypoints) > 0 {
		s.SpeedMS = p.Waypoints[0].SpeedMS
	}
	if s.SpeedMS > 0 {
		s.FlightTimeS = s.PathLengthM / s.SpeedMS
	}
	return s
}
