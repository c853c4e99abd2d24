package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/field"
	"github.com/npillmayer/autopath/graph"
	"github.com/npillmayer/autopath/plan"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straightPlan(t *testing.T, events ...graph.DiscreteEvent) *plan.Plan {
	t.Helper()
	a := graph.NewArena(autopath.P(0, 0), 0)
	id, err := a.AddPath(a.Start(), autopath.P(10, 0))
	require.NoError(t, err)
	for _, ev := range events {
		require.NoError(t, a.AddDiscreteEvent(id, ev))
	}
	p, err := plan.FromSegments(a, []graph.SegmentID{id}, 7)
	require.NoError(t, err)
	return p
}

// === Kinematics ============================================================

func TestForwardKinematicsStraight(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	start := autopath.Pose{Pos: autopath.P(1, 2), Angle: math.Pi / 6}
	pose := ForwardKinematics(start, 2, 3, 3)
	assert.Equal(t, start.Angle, pose.Angle)
	assert.InDelta(t, 1+3*math.Cos(math.Pi/6), pose.Pos.X(), 1e-12)
	assert.InDelta(t, 2+3*math.Sin(math.Pi/6), pose.Pos.Y(), 1e-12)
}

func TestForwardKinematicsRotation(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	pose := ForwardKinematics(autopath.Pose{}, 2, 0.5, -0.5)
	assert.InDelta(t, 0, pose.Pos.Length(), 1e-12, "turning on the spot")
	assert.InDelta(t, 0.5, pose.Angle, 1e-12)
	pose = ForwardKinematics(autopath.Pose{}, 2, -0.5, 0.5)
	assert.InDelta(t, 2*math.Pi-0.5, pose.Angle, 1e-12)
}

func TestForwardKinematicsQuarterTurn(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	// left wheel stands still, right wheel runs a quarter circle of radius 2
	pose := ForwardKinematics(autopath.Pose{}, 2, math.Pi, 0)
	assert.InDelta(t, 1, pose.Pos.X(), 1e-9)
	assert.InDelta(t, 1, pose.Pos.Y(), 1e-9)
	assert.InDelta(t, math.Pi/2, pose.Angle, 1e-9)
}

func TestFootprint(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	r := NewRobot(autopath.Pose{Angle: math.Pi / 2}, 2, 4)
	corners := r.Footprint()
	require.Len(t, corners, 4)
	assert.True(t, corners[0].Equal(autopath.P(1, 2)), "front right is %v", corners[0])
	assert.True(t, corners[2].Equal(autopath.P(-1, -2)), "back left is %v", corners[2])
	assert.Equal(t, 2.0, r.Wheelbase())
}

// === Simulation ============================================================

func TestRunStraight(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := straightPlan(t)
	sim := New(p, NewRobot(autopath.Pose{}, 2, 2), nil, DefaultParams())
	offPath := 0
	last, err := sim.Run(0.01, 30, func(r TickResult) {
		if r.State == OffPath {
			offPath++
		}
	})
	require.NoError(t, err)
	assert.True(t, last.Done)
	assert.True(t, sim.Done())
	assert.Zero(t, offPath)
	assert.Same(t, p, sim.Plan(), "plan must not be replaced")
	pos := sim.Robot().Pose.Pos
	assert.InDelta(t, 10, pos.X(), 0.3)
	assert.InDelta(t, 0, pos.Y(), 1e-6)
	assert.Zero(t, sim.Robot().Speed())
	// done is sticky
	r := sim.Tick(0.01)
	assert.True(t, r.Done)
	assert.Equal(t, pos, r.Robot.Pose.Pos)
}

func TestRunCurve(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	a := graph.NewArena(autopath.P(0, 0), 0)
	id, err := a.AddPath(a.Start(), autopath.P(10, 10))
	require.NoError(t, err)
	require.NoError(t, a.SetTangent(id, 0, autopath.P(15.7, 0)))
	require.NoError(t, a.SetTangent(id, 1, autopath.P(0, 15.7)))
	p, err := plan.FromSegments(a, []graph.SegmentID{id}, 7)
	require.NoError(t, err)
	sim := New(p, NewRobot(autopath.Pose{}, 2, 2), nil, DefaultParams())
	_, err = sim.Run(0.01, 40, nil)
	require.NoError(t, err)
	pose := sim.Robot().Pose
	assert.InDelta(t, 10, pose.Pos.X(), 0.4)
	assert.InDelta(t, 10, pose.Pos.Y(), 0.4)
	assert.InDelta(t, math.Pi/2, pose.Angle, 0.1)
}

func TestRecoverFromOffPath(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := straightPlan(t)
	sim := New(p, NewRobot(autopath.Pose{Pos: autopath.P(0, 1.5)}, 2, 2), nil, DefaultParams())
	first := sim.Tick(0.01)
	assert.Equal(t, OffPath, first.State)
	require.NotNil(t, first.Adjustment)
	assert.LessOrEqual(t, first.Adjustment.Cost, first.Adjustment.SeedCost)
	assert.NotSame(t, p, sim.Plan())
	assert.Greater(t, sim.Plan().Length(), 10.0)

	_, err := sim.Run(0.01, 30, nil)
	require.NoError(t, err)
	pos := sim.Robot().Pose.Pos
	assert.InDelta(t, 10, pos.X(), 0.3)
	assert.InDelta(t, 0, pos.Y(), 0.3)
}

func TestEventsFireOnce(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := straightPlan(t,
		graph.DiscreteEvent{Name: "start", Distance: 0},
		graph.DiscreteEvent{Name: "mid", Distance: 5},
		graph.DiscreteEvent{Name: "end", Distance: 10},
	)
	sim := New(p, NewRobot(autopath.Pose{}, 2, 2), nil, DefaultParams())
	count := map[string]int{}
	var order []string
	_, err := sim.Run(0.01, 30, func(r TickResult) {
		for _, ev := range r.Fired {
			count[ev.Name]++
			order = append(order, ev.Name)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"start": 1, "mid": 1, "end": 1}, count)
	assert.Equal(t, []string{"start", "mid", "end"}, order)
}

func TestRejoinAheadFiresSkippedEvents(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := straightPlan(t,
		graph.DiscreteEvent{Name: "start", Distance: 0},
		graph.DiscreteEvent{Name: "shoot", Distance: 9},
	)
	prm := DefaultParams()
	prm.Planner.SeedSamples = 1 // rejoin at the closest point
	prm.Planner.Iterations = 0
	sim := New(p, NewRobot(autopath.Pose{Pos: autopath.P(9.6, 1)}, 2, 2), nil, prm)
	first := sim.Tick(0.01)
	require.NotNil(t, first.Adjustment)
	require.Greater(t, first.Adjustment.Params.S, 9.0)
	var names []string
	for _, ev := range first.Fired {
		names = append(names, ev.Name)
	}
	assert.Equal(t, []string{"start", "shoot"}, names)

	count := map[string]int{"start": 1, "shoot": 1}
	for i := 0; i < 500 && !sim.Done(); i++ {
		for _, ev := range sim.Tick(0.01).Fired {
			count[ev.Name]++
		}
	}
	assert.Equal(t, map[string]int{"start": 1, "shoot": 1}, count)
}

func TestRunReverse(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	a := graph.NewArena(autopath.P(0, 0), 0)
	id, err := a.AddPath(a.Start(), autopath.P(10, 0))
	require.NoError(t, err)
	a.MustSegment(id).Reverse = true
	p, err := plan.FromSegments(a, []graph.SegmentID{id}, 7)
	require.NoError(t, err)
	start := autopath.Pose{Angle: p.SampleAt(0).RobotHeading()}
	assert.InDelta(t, math.Pi, start.Angle, 1e-9)
	sim := New(p, NewRobot(start, 2, 2), nil, DefaultParams())
	offPath := 0
	_, err = sim.Run(0.01, 30, func(r TickResult) {
		if r.State == OffPath {
			offPath++
		}
	})
	require.NoError(t, err)
	assert.Zero(t, offPath)
	pose := sim.Robot().Pose
	assert.InDelta(t, 10, pose.Pos.X(), 0.3)
	assert.InDelta(t, 0, pose.Pos.Y(), 1e-6)
	assert.InDelta(t, 0, autopath.ShortestAngleBetween(math.Pi, pose.Angle), 0.05, "robot keeps facing backwards")
}

func TestRunChain(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	a := graph.NewArena(autopath.P(0, 0), 0)
	s1, err := a.AddPath(a.Start(), autopath.P(10, 0))
	require.NoError(t, err)
	s2, err := a.AddPath(a.MustSegment(s1).Out, autopath.P(20, 6))
	require.NoError(t, err)
	require.NoError(t, a.AddDiscreteEvent(s2, graph.DiscreteEvent{Name: "second", Distance: 5}))
	p, err := plan.FromSegments(a, []graph.SegmentID{s1, s2}, 7)
	require.NoError(t, err)
	sim := New(p, NewRobot(autopath.Pose{}, 2, 2), nil, DefaultParams())
	fired := 0
	_, err = sim.Run(0.01, 40, func(r TickResult) {
		fired += len(r.Fired)
	})
	require.NoError(t, err)
	assert.True(t, sim.Done())
	assert.Equal(t, 1, fired)
	pos := sim.Robot().Pose.Pos
	assert.InDelta(t, 20, pos.X(), 0.4)
	assert.InDelta(t, 6, pos.Y(), 0.4)
}

func TestFieldBorderStopsRobot(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	p := straightPlan(t)
	fld := field.Box(autopath.P(-1, -1), autopath.P(8, 1))
	sim := New(p, NewRobot(autopath.Pose{}, 2, 2), fld, DefaultParams())
	clamped := false
	_, err := sim.Run(0.01, 15, func(r TickResult) {
		if r.Clamped {
			clamped = true
			assert.Zero(t, r.Robot.Left.Vel)
			assert.Zero(t, r.Robot.Right.Vel)
		}
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout at the field border, got %v", err)
	}
	assert.True(t, clamped)
	assert.InDelta(t, 8, sim.Robot().Pose.Pos.X(), 1e-9)
	assert.False(t, sim.Done())
}

func TestStateString(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	assert.Equal(t, "on-path", OnPath.String())
	assert.Equal(t, "off-path", OffPath.String())
	assert.Equal(t, "State(7)", State(7).String())
}
