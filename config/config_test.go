package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/sim"
	"github.com/npillmayer/autopath/track"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autopath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cfg := Default()
	require.NoError(t, cfg.Validate())
	approx := cmpopts.EquateApprox(0, 1e-12)
	if diff := cmp.Diff(track.DefaultTolerance(), cfg.Tolerance(), approx); diff != "" {
		t.Errorf("tolerance mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(track.DefaultPlannerParams(), cfg.PlannerParams(), approx); diff != "" {
		t.Errorf("planner params mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(sim.DefaultParams(), cfg.SimParams(), approx); diff != "" {
		t.Errorf("sim params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, tracing.LevelError, cfg.TraceLevel())
}

func TestLoadWithoutFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := writeFile(t, `
index:
  exponent: 9
tracking:
  max_heading_deg: 45
drive:
  kp: 2.5
trace:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Index.Exponent)
	assert.Equal(t, 2.5, cfg.Drive.Kp)
	assert.Equal(t, 9, cfg.SimParams().Exponent)
	assert.InDelta(t, math.Pi/4, cfg.Tolerance().MaxHeading, 1e-12)
	assert.Equal(t, tracing.LevelDebug, cfg.TraceLevel())
	// untouched settings keep their defaults
	assert.Equal(t, Default().Drive.Kv, cfg.Drive.Kv)
	assert.Equal(t, Default().Tracking.MaxDistance, cfg.Tracking.MaxDistance)
}

func TestLoadEmptyFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := Load(writeFile(t, "drive:\n  kpp: 2\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	path := writeFile(t, "drive:\n  kp: 2.5\nsim:\n  max_time: 12\n")
	t.Setenv("AUTOPATH_DRIVE_KP", "3")
	t.Setenv("AUTOPATH_INDEX_EXPONENT", "8")
	t.Setenv("AUTOPATH_TRACE_LEVEL", "info")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Drive.Kp)
	assert.Equal(t, 8, cfg.Index.Exponent)
	assert.Equal(t, 12.0, cfg.Sim.MaxTime)
	assert.Equal(t, tracing.LevelInfo, cfg.TraceLevel())
}

func TestEnvMalformed(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	t.Setenv("AUTOPATH_DRIVE_KP", "fast")
	_, err := Load("")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cases := map[string]func(*Config){
		"exponent too large":    func(c *Config) { c.Index.Exponent = 17 },
		"negative distance":     func(c *Config) { c.Tracking.MaxDistance = -1 },
		"heading over 180":      func(c *Config) { c.Tracking.MaxHeadingDeg = 181 },
		"too few cost samples":  func(c *Config) { c.Planner.CostSamples = 1 },
		"seed above max":        func(c *Config) { c.Planner.InitialTangent = c.Planner.MaxTangent + 1 },
		"no wheelbase":          func(c *Config) { c.Robot.Width = 0 },
		"min speed above free":  func(c *Config) { c.Drive.MinSpeed = c.Drive.FreeSpeed },
		"step exceeds max time": func(c *Config) { c.Sim.TimeStep = c.Sim.MaxTime },
		"unknown trace level":   func(c *Config) { c.Trace.Level = "verbose" },
		"half a field":          func(c *Config) { c.Field.Height = 0 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestBounds(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cfg := Default()
	cfg.Field = FieldConfig{Width: 10, Height: 4}
	b := cfg.Bounds()
	require.NotNil(t, b)
	lo, hi := b.BoundingBox()
	assert.True(t, lo.Equal(autopath.P(-5, -2)))
	assert.True(t, hi.Equal(autopath.P(5, 2)))
	cfg.Field = FieldConfig{}
	assert.Nil(t, cfg.Bounds())

	r := cfg.PlaceRobot(autopath.Pose{Pos: autopath.P(1, 1)})
	assert.Equal(t, cfg.Robot.Width, r.Wheelbase())
	assert.Equal(t, autopath.P(1, 1), r.Pose.Pos)
}
