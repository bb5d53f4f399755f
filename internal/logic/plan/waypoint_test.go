package plan

import (
	"encoding/json"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLookAt_AbsentIsNull(t *testing.T) {
	data, err := json.Marshal(Waypoint{XM: 1, YM: 2, ZM: 3})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"look_at":null`)

	out, err := yaml.Marshal(Waypoint{XM: 1})
	require.NoError(t, err)
	assert.Contains(t, string(out), "look_at: null")
}

func TestLookAt_OriginIsNotAbsent(t *testing.T) {
	data, err := json.Marshal(Waypoint{LookAt: LookAtPoint(r3.Vector{})})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"look_at":{"x_m":0,"y_m":0,"z_m":0}`)
}

func TestWaypoint_DecodePreservesLookAtPresence(t *testing.T) {
	in := []Waypoint{
		{XM: -56.25, YM: -60, ZM: 100, SpeedMS: 10.1, YawDeg: 90, LookAt: LookAtPoint(r3.Vector{X: -56.25, Y: -2.3})},
		{XM: 1, YM: 2, ZM: 3},
	}

	jsonData, err := json.Marshal(in)
	require.NoError(t, err)
	var fromJSON []Waypoint
	require.NoError(t, json.Unmarshal(jsonData, &fromJSON))
	if diff := cmp.Diff(in, fromJSON); diff != "" {
		t.Errorf("JSON decode mismatch (-want +got):\n%s", diff)
	}

	yamlData, err := yaml.Marshal(in)
	require.NoError(t, err)
	var fromYAML []Waypoint
	require.NoError(t, yaml.Unmarshal(yamlData, &fromYAML))
	if diff := cmp.Diff(in, fromYAML); diff != "" {
		t.Errorf("YAML decode mismatch (-want +got):\n%s", diff)
	}
}
