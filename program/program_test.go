package program

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/graph"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T) *Program {
	t.Helper()
	desc, err := ReadFile("testdata/branches.yaml")
	require.NoError(t, err)
	prog, err := desc.Build()
	require.NoError(t, err)
	return prog
}

func TestBuildBranches(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	prog := build(t)
	a := prog.Arena
	require.NoError(t, a.Validate())
	require.Len(t, a.Segments(), 3)
	require.Len(t, prog.Nodes, 3)

	out := a.MustSegment(0)
	require.Len(t, out.ControlPoints(), 1)
	assert.True(t, out.ControlPoints()[0].Pos.Equal(autopath.P(5, 1)))
	assert.Greater(t, out.ControlPoints()[0].Tangent.X(), 0.0, "smoothed tangent points forward")
	assert.InDelta(t, 3, out.Velocity().MaxSpeed(), 1e-9)
	require.Len(t, out.DiscreteEvents(), 1)
	assert.Equal(t, "spin-up", out.DiscreteEvents()[0].Name)

	back := a.MustSegment(1)
	assert.True(t, back.Reverse)
	assert.Equal(t, "has-piece", back.Conditional)
	require.Len(t, back.ContinuousEvents(), 1)
	assert.InDelta(t, 0.5, back.ContinuousEvents()[0].ValueAt(2), 1e-9)

	far := a.MustSegment(2)
	assert.True(t, far.Hidden)
	assert.False(t, far.Reverse)
}

func TestBuildCommands(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	prog := build(t)
	start, err := prog.Arena.Node(prog.Arena.Start())
	require.NoError(t, err)
	require.Len(t, start.Commands, 1)
	generic, ok := start.Commands[0].(*graph.GenericCommand)
	require.True(t, ok)
	assert.Equal(t, "intake", generic.Name)
	assert.Equal(t, []float64{1}, generic.Params)

	n, err := prog.Arena.Node(prog.Nodes["out"])
	require.NoError(t, err)
	require.Len(t, n.Commands, 2)
	wait, ok := n.Commands[0].(*graph.WaitCommand)
	require.True(t, ok)
	assert.Equal(t, 0.5, wait.Duration)
	pivot, ok := n.Commands[1].(*graph.PivotCommand)
	require.True(t, ok)
	assert.InDelta(t, math.Pi/2, pivot.AngularDistance(), 1e-12)
	assert.Greater(t, pivot.Duration(), 0.0)
}

func TestChain(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	prog := build(t)
	chain, err := prog.Chain("")
	require.NoError(t, err)
	assert.Equal(t, []graph.SegmentID{0, 1}, chain)
	chain, err = prog.Chain("far")
	require.NoError(t, err)
	assert.Equal(t, []graph.SegmentID{0, 2}, chain)
	_, err = prog.Chain("nowhere")
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestGivenTangentsSurvive(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	desc, err := Read(strings.NewReader(`
start: {x: 0, y: 0}
paths:
  - to: {x: 12, y: 0}
    tangents:
      out: {x: 6, y: 0}
    control_points:
      - {x: 4, y: 1, tangent: {x: 2, y: 0}}
      - {x: 8, y: 1}
`))
	require.NoError(t, err)
	prog, err := desc.Build()
	require.NoError(t, err)
	seg := prog.Arena.MustSegment(0)
	cps := seg.ControlPoints()
	require.Len(t, cps, 2)
	assert.Equal(t, autopath.P(2, 0), cps[0].Tangent)
	assert.False(t, cps[1].Tangent.IsOrigin(), "missing tangent has been smoothed")
	_, outTangent := seg.Tangents()
	assert.Equal(t, autopath.P(6, 0), outTangent)
}

func TestReadRejects(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	cases := map[string]string{
		"empty":            ``,
		"no paths":         "start: {x: 0, y: 0}\n",
		"missing target":   "paths:\n  - name: a\n",
		"unknown key":      "paths:\n  - to: {x: 1, y: 0}\n    speed: 3\n",
		"unknown command":  "paths:\n  - to: {x: 1, y: 0}\n    commands:\n      - {kind: dance}\n",
		"anonymous action": "commands:\n  - {kind: generic}\npaths:\n  - to: {x: 1, y: 0}\n",
		"short velocity":   "paths:\n  - to: {x: 1, y: 0}\n    velocity:\n      - {distance: 0, speed: 1}\n",
		"duplicate names":  "paths:\n  - {name: a, to: {x: 1, y: 0}}\n  - {name: a, to: {x: 0, y: 1}}\n",
		"bad exponent":     "exponent: 20\npaths:\n  - to: {x: 1, y: 0}\n",
	}
	for name, src := range cases {
		_, err := Read(strings.NewReader(src))
		if !errors.Is(err, ErrInvalidProgram) {
			t.Errorf("%s: expected ErrInvalidProgram, got %v", name, err)
		}
	}
}

func TestBuildRejectsDegeneratePath(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	desc, err := Read(strings.NewReader("start: {x: 1, y: 1}\npaths:\n  - to: {x: 1, y: 1}\n"))
	require.NoError(t, err)
	_, err = desc.Build()
	if !errors.Is(err, graph.ErrDegenerateSegment) {
		t.Fatalf("expected ErrDegenerateSegment, got %v", err)
	}
}
