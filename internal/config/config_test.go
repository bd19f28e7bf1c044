package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "reactive", cfg.PolicyName)
	assert.Equal(t, 60*time.Millisecond, cfg.Period)
	assert.Equal(t, 0.2, cfg.Accel.Alpha)

	p, err := cfg.Policy()
	require.NoError(t, err)
	r, ok := p.(*nav.Reactive)
	require.True(t, ok)
	assert.Equal(t, nav.DefaultReactiveParams(), r.Params())
}

func TestLoad_ScriptedFile(t *testing.T) {
	path := writeConfig(t, `
policy: scripted
period: 100ms
scripted:
  legs:
    - {name: OUT, kind: drive, threshold: 500, speed: 150}
    - {name: SPIN, kind: turn, threshold: 180, speed: 80}
  start_leg: 0
  trigger_leg: 1
  trigger: {wall: true}
  on_complete: stop
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Period)

	p, err := cfg.Policy()
	require.NoError(t, err)
	s, ok := p.(*nav.Scripted)
	require.True(t, ok)

	script := s.Script()
	require.Len(t, script.Legs, 2)
	assert.Equal(t, nav.LegTurn, script.Legs[1].Kind)
	assert.Equal(t, nav.CompleteStop, script.OnComplete)
	assert.Equal(t, nav.Trigger{Wall: true}, script.Trigger)
	assert.Equal(t, "OUT", nav.StateName(p, p.InitialRunState()))
}

func TestLoad_DefaultScriptRoundTrips(t *testing.T) {
	script, err := Default().Scripted.Script()
	require.NoError(t, err)
	assert.Equal(t, nav.DefaultScript(), script)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NAV_DB", "/tmp/override.db")
	t.Setenv("NAV_PORT", "/dev/ttyACM1")
	t.Setenv("NAV_DRIVE_ADDR", "robot:50061")
	t.Setenv("NAV_LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.DB)
	assert.Equal(t, "/dev/ttyACM1", cfg.Serial.Port)
	assert.Equal(t, "robot:50061", cfg.Drive.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown policy", "policy: wander\n"},
		{"bad log level", "log: {level: loud}\n"},
		{"alpha out of range", "accel: {alpha: 1.5}\n"},
		{"bad leg kind", "policy: scripted\nscripted: {legs: [{kind: hop, threshold: 1}], on_complete: hold}\n"},
		{"start leg out of range", "policy: scripted\nscripted: {legs: [{kind: drive, threshold: 1}], start_leg: 3, on_complete: hold}\n"},
		{"zero period", "period: 0s\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ScriptErrorsUnwrap(t *testing.T) {
	cfg := Default()
	cfg.PolicyName = "scripted"
	cfg.Scripted.TriggerLeg = 42

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, nav.ErrInvalidScript))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
