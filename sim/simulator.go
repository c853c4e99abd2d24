package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/field"
	"github.com/npillmayer/autopath/graph"
	"github.com/npillmayer/autopath/index"
	"github.com/npillmayer/autopath/plan"
	"github.com/npillmayer/autopath/track"
)

// ErrTimeout is returned by Run if the robot does not finish in time.
var ErrTimeout = errors.New("simulation did not finish in time")

// Params configure drive model, controller and tracking.
type Params struct {
	Kp           float64 // volts per unit of setpoint error
	Kv           float64 // volts per unit of desired speed
	MaxVoltage   float64
	FreeSpeed    float64 // wheel speed at max voltage without load
	MaxAccel     float64 // wheel acceleration at max voltage from rest
	Drag         float64 // constant deceleration
	Lookahead    float64 // distance ahead of the robot to steer for
	MinSpeed     float64 // lowest commanded speed while not at the end of the plan
	DoneDistance float64
	DoneSpeed    float64
	Exponent     int // sample exponent of spliced plans
	Tolerance    track.Tolerance
	Planner      track.PlannerParams
}

// DefaultParams returns parameters for a robot with a free speed of
// 5 units/s.
func DefaultParams() Params {
	return Params{
		Kp:           1,
		Kv:           12.0 / 5.0,
		MaxVoltage:   12,
		FreeSpeed:    5,
		MaxAccel:     10,
		Drag:         0.1,
		Lookahead:    0.25,
		MinSpeed:     0.2,
		DoneDistance: 0.1,
		DoneSpeed:    0.05,
		Exponent:     index.DefaultExponent,
		Tolerance:    track.DefaultTolerance(),
		Planner:      track.DefaultPlannerParams(),
	}
}

// State is the tracking state of the simulator.
type State int

// Tracking states.
const (
	OnPath State = iota
	OffPath
)

func (st State) String() string {
	switch st {
	case OnPath:
		return "on-path"
	case OffPath:
		return "off-path"
	}
	return fmt.Sprintf("State(%d)", int(st))
}

// TickResult reports what happened during one tick.
type TickResult struct {
	Time       float64
	State      State
	Closest    track.Point
	Robot      Robot
	Fired      []graph.DiscreteEvent
	Continuous map[string]float64
	Adjustment *track.Adjustment // set if the plan has been spliced
	Clamped    bool              // robot hit the field border
	Done       bool
}

// Simulator drives a robot along a plan.
type Simulator struct {
	params Params
	field  *field.Polygon
	plan   *plan.Plan
	robot  Robot
	time   float64
	lastS  float64
	fired  bool // events at distance 0 are done
	state  State
	done   bool
}

// New creates a simulator. fld may be nil for an unbounded field.
func New(p *plan.Plan, robot Robot, fld *field.Polygon, params Params) *Simulator {
	return &Simulator{params: params, field: fld, plan: p, robot: robot}
}

// Robot returns the current robot state.
func (sim *Simulator) Robot() Robot { return sim.robot }

// Plan returns the plan currently followed, which differs from the initial
// plan after corrections.
func (sim *Simulator) Plan() *plan.Plan { return sim.plan }

// Time is the simulated time.
func (sim *Simulator) Time() float64 { return sim.time }

// State is the tracking state of the last tick.
func (sim *Simulator) State() State { return sim.state }

// Done is true when the robot has come to rest at the end of the plan.
func (sim *Simulator) Done() bool { return sim.done }

// Tick advances the simulation by dt seconds.
func (sim *Simulator) Tick(dt float64) TickResult {
	if sim.done {
		return sim.result(track.FindClosestPoint(sim.plan, sim.robot.Pose, sim.params.Tolerance), nil, false)
	}
	prm := sim.params
	pt := track.FindClosestPoint(sim.plan, sim.robot.Pose, prm.Tolerance)
	var adjustment *track.Adjustment
	var fired []graph.DiscreteEvent
	sim.state = OnPath
	if !pt.OnPath {
		sim.state = OffPath
		adjustment, fired = sim.replan(pt)
		if adjustment != nil {
			pt = track.FindClosestPoint(sim.plan, sim.robot.Pose, prm.Tolerance)
		}
	}
	s := pt.S
	remaining := sim.plan.Length() - s

	v := 0.0
	if remaining > prm.DoneDistance/2 {
		v = math.Max(sim.plan.SpeedAt(s), prm.MinSpeed)
	}
	ahead := sim.plan.SampleAt(s + prm.Lookahead)
	kappa := ahead.DThetaDS
	if ahead.Reverse {
		v, kappa = -v, -kappa
	}
	half := sim.robot.Wheelbase() / 2
	dr := sim.drive(&sim.robot.Right, v*(1+kappa*half), dt)
	dl := sim.drive(&sim.robot.Left, v*(1-kappa*half), dt)
	sim.robot.Pose = ForwardKinematics(sim.robot.Pose, sim.robot.Wheelbase(), dr, dl)

	clamped := false
	if sim.field != nil {
		var pos autopath.Pair
		if pos, clamped = sim.field.Clamp(sim.robot.Pose.Pos); clamped {
			sim.robot.Pose.Pos = pos
			sim.robot.Left.Vel, sim.robot.Right.Vel = 0, 0
		}
	}
	sim.time += dt

	if remaining < prm.DoneDistance && math.Abs(sim.robot.Speed()) < prm.DoneSpeed {
		sim.done = true
		sim.robot.stop()
		s = sim.plan.Length()
		tracer().Infof("done after %.2fs at %s", sim.time, sim.robot.Pose)
	}
	return sim.result(pt, adjustment, clamped, append(fired, sim.fire(s)...)...)
}

// drive runs the controller and motor model of one wheel for dt seconds
// and returns the distance the wheel travelled.
func (sim *Simulator) drive(w *Wheel, speed, dt float64) float64 {
	prm := sim.params
	w.Setpoint += speed * dt
	volts := autopath.Clamp(-prm.MaxVoltage, prm.MaxVoltage, prm.Kp*(w.Setpoint-w.Pos)+prm.Kv*speed)
	w.Accel = prm.MaxAccel * (volts/prm.MaxVoltage - w.Vel/prm.FreeSpeed)
	dp := w.Vel*dt + 0.5*w.Accel*dt*dt
	w.Pos += dp
	w.Vel += w.Accel * dt
	drag := prm.Drag * dt
	switch {
	case w.Vel > drag:
		w.Vel -= drag
	case w.Vel < -drag:
		w.Vel += drag
	default:
		w.Vel = 0
	}
	return dp
}

// replan splices a corrective path in front of the rest of the plan. It
// returns the events of the old plan the robot skips by rejoining ahead of
// its tracked arc length.
func (sim *Simulator) replan(pt track.Point) (*track.Adjustment, []graph.DiscreteEvent) {
	prm := sim.params
	old := sim.plan
	adj := track.OptimizeAdjustmentPath(old, sim.robot.Pose, prm.Tolerance, prm.Planner)
	spline := track.AdjustmentSpline(old, sim.robot.Pose, adj.Params)
	speed := math.Max(math.Abs(sim.robot.Speed()), old.SpeedAt(pt.S))
	spliced, err := old.Splice(spline, adj.Params.S, speed, prm.Exponent)
	if err != nil {
		tracer().Errorf("cannot splice adjustment path at %s: %v", pt, err)
		return nil, nil
	}
	lo := sim.lastS
	if !sim.fired {
		lo = -1
	}
	skipped := old.Events().Between(lo, adj.Params.S)
	for _, ev := range skipped {
		tracer().P("event", ev.Name).Infof("fired at s=%.3f by rejoining ahead, t=%.2fs", ev.Distance, sim.time)
	}
	// events of the old plan up to lastS have fired already
	shift := spliced.Length() - old.Length()
	if sim.lastS > adj.Params.S {
		sim.lastS += shift
	} else {
		sim.lastS = 0
	}
	sim.plan = spliced
	sim.fired = true
	sim.robot.Left.Setpoint = sim.robot.Left.Pos
	sim.robot.Right.Setpoint = sim.robot.Right.Pos
	tracer().Infof("off path at %.2fs (%s), replanned with %s", sim.time, pt, adj.Params)
	return &adj, skipped
}

// fire returns the discrete events passed since the last tick.
func (sim *Simulator) fire(s float64) []graph.DiscreteEvent {
	lo := sim.lastS
	if !sim.fired {
		lo, sim.fired = -1, true
	}
	if s <= sim.lastS && lo >= 0 {
		return nil
	}
	evs := sim.plan.Events().Between(lo, s)
	sim.lastS = math.Max(sim.lastS, s)
	for _, ev := range evs {
		tracer().P("event", ev.Name).Infof("fired at s=%.3f, t=%.2fs", ev.Distance, sim.time)
	}
	return evs
}

func (sim *Simulator) result(pt track.Point, adj *track.Adjustment, clamped bool, fired ...graph.DiscreteEvent) TickResult {
	return TickResult{
		Time:       sim.time,
		State:      sim.state,
		Closest:    pt,
		Robot:      sim.robot,
		Fired:      fired,
		Continuous: sim.plan.ContinuousAt(pt.S),
		Adjustment: adj,
		Clamped:    clamped,
		Done:       sim.done,
	}
}

// Run ticks until the robot is done or maxTime has passed. observe, if not
// nil, is called after every tick.
func (sim *Simulator) Run(dt, maxTime float64, observe func(TickResult)) (TickResult, error) {
	var r TickResult
	for !sim.done {
		if sim.time >= maxTime {
			return r, fmt.Errorf("%w: %.2fs, %s", ErrTimeout, sim.time, sim.robot)
		}
		r = sim.Tick(dt)
		if observe != nil {
			observe(r)
		}
	}
	return r, nil
}
