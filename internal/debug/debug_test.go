package debug

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T, lvl int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(lvl)
	t.Cleanup(func() {
		Init(LevelOff)
		SetOutput(&bytes.Buffer{})
	})
	return &buf
}

func TestInit_OffWritesNothing(t *testing.T) {
	buf := capture(t, LevelOff)

	Info("hello %d", 1)
	Grid(4, 5, 20)
	Error(errors.New("boom"))

	assert.Empty(t, buf.String())
	assert.Equal(t, "", Fmt("x=%d", 1))
}

func TestLevels_Filtering(t *testing.T) {
	cases := []struct {
		name        string
		level       int
		wantInfo    bool
		wantLive    bool
		wantVerbose bool
		wantTrace   bool
	}{
		{"info", LevelInfo, true, false, false, false},
		{"live", LevelLive, true, true, false, false},
		{"verbose", LevelVerbose, true, true, true, false},
		{"trace", LevelTrace, true, true, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := capture(t, tc.level)

			Info("info-msg")
			Waypoint(3, 1.5, -2, 100)
			Verbose("verbose-msg")
			Trace("trace-msg")

			out := buf.String()
			assert.Equal(t, tc.wantInfo, strings.Contains(out, "[INFO] info-msg"))
			assert.Equal(t, tc.wantLive, strings.Contains(out, "Waypoint 3 at (1.50, -2.00, 100.00)"))
			assert.Equal(t, tc.wantVerbose, strings.Contains(out, "[VERBOSE] verbose-msg"))
			assert.Equal(t, tc.wantTrace, strings.Contains(out, "[TRACE] trace-msg"))
		})
	}
}

func TestGrid_Format(t *testing.T) {
	buf := capture(t, LevelInfo)
	Grid(4, 5, 20)
	assert.Contains(t, buf.String(), "Grid: 4 columns x 5 rows = 20 waypoints total")
	assert.Contains(t, buf.String(), "[SkyGrid] ")
}

func TestSetOutput_AfterInit(t *testing.T) {
	capture(t, LevelInfo)

	var second bytes.Buffer
	SetOutput(&second)
	Value("Height", 100)

	assert.Contains(t, second.String(), "Height = 100")
}

func TestIsEnabled(t *testing.T) {
	capture(t, LevelLive)
	assert.True(t, IsEnabled(LevelInfo))
	assert.True(t, IsEnabled(LevelLive))
	assert.False(t, IsEnabled(LevelVerbose))
	assert.Equal(t, LevelLive, Level())
}
