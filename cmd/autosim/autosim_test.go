package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/autopath/config"
	"github.com/npillmayer/autopath/program"
	"github.com/npillmayer/autopath/sim"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	out, err := execute(t, "inspect", "testdata/straight.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "segment 0: node 0 → node 1  length 10.000")
	assert.Contains(t, out, `event "half-way" at 5.000`)
	assert.Contains(t, out, "pivot 0.0°→90.0° ccw")
	assert.Contains(t, out, "if clear")
	assert.Contains(t, out, "1 segments")
}

func TestTraceLevelReachesAllPackages(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	defer traces.SetTraceLevel(tracing.LevelError)
	graphTrace := traces.Select("autopath.graph")
	assert.Same(t, graphTrace, traces.Select("autopath.graph"))
	_, err := execute(t, "inspect", "testdata/straight.yaml", "--trace", "debug")
	require.NoError(t, err)
	assert.Equal(t, tracing.LevelDebug, graphTrace.GetTraceLevel())
	assert.Equal(t, tracing.LevelDebug, traces.Select("autopath.sim").GetTraceLevel(),
		"tracers selected later get the current level")
	_, err = execute(t, "inspect", "testdata/straight.yaml")
	require.NoError(t, err)
	assert.Equal(t, tracing.LevelError, graphTrace.GetTraceLevel(), "level from the default configuration")
}

func TestInspectMissingFile(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := execute(t, "inspect", "testdata/nope.yaml")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}

func TestSimulateWritesCSV(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	csvPath := filepath.Join(t.TempDir(), "trace.csv")
	out, err := execute(t, "simulate", "testdata/straight.yaml", "--csv", csvPath, "--trace", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "done after")
	assert.Contains(t, out, "corrections: 0")
	assert.Contains(t, out, "fired: half-way")

	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 100)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "on-path", records[1][6])
}

func TestSimulateTimeout(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	out, err := execute(t, "simulate", "testdata/straight.yaml", "--config", "testdata/slow.yaml")
	if !errors.Is(err, sim.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	assert.Contains(t, out, "not done")
}

func TestSimulateUnknownPath(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	_, err := execute(t, "simulate", "testdata/straight.yaml", "--path", "elsewhere")
	if !errors.Is(err, program.ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
}

func TestSimulateOffset(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	prog, err := load("testdata/straight.yaml")
	require.NoError(t, err)
	run, err := simulate(config.Default(), prog, &simOptions{path: "line", offset: []float64{0, 1.5}})
	require.NoError(t, err)
	assert.True(t, run.Done)
	assert.GreaterOrEqual(t, run.Replans, 1)
	assert.NotSame(t, run.Plan, run.Final)
	assert.Equal(t, sim.OffPath, run.Rows[0].State)

	_, err = simulate(config.Default(), prog, &simOptions{offset: []float64{1}})
	assert.Error(t, err)
}

func TestPlot(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	png := filepath.Join(t.TempDir(), "straight.png")
	out, err := execute(t, "plot", "testdata/straight.yaml", "-o", png, "--simulate", "--offset", "0,1")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+png)
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
