package graph

import (
	"fmt"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/index"
	"github.com/npillmayer/autopath/velocity"
)

// Command is executed by the robot at a node. The set of commands is
// closed: *GenericCommand, *WaitCommand and *PivotCommand.
//
// Clients dispatch with a type switch:
//
//	switch c := cmd.(type) {
//	case *graph.WaitCommand:
//	    ...
//	}
type Command interface {
	// Conditional is the name of the guard condition, or "" for none.
	Conditional() string
	isCommand()
}

// GenericCommand sends numeric parameters to a named actuator.
type GenericCommand struct {
	Name   string
	Params []float64
	Guard  string
}

// WaitCommand pauses for a duration in seconds.
type WaitCommand struct {
	Duration float64
	Guard    string
}

// PivotCommand turns the robot in place. It carries its own velocity
// profile over the angular distance (radians) and its own events, like a
// path of zero length.
type PivotCommand struct {
	StartAngle float64
	EndAngle   float64
	Clockwise  bool
	Velocity   velocity.Profile
	Continuous []ContinuousEvent
	Discrete   []DiscreteEvent
	Guard      string
	timing     *index.Map[float64]
}

func (c *GenericCommand) Conditional() string { return c.Guard }
func (c *WaitCommand) Conditional() string    { return c.Guard }
func (c *PivotCommand) Conditional() string   { return c.Guard }

func (*GenericCommand) isCommand() {}
func (*WaitCommand) isCommand()    {}
func (*PivotCommand) isCommand()   {}

func (c *GenericCommand) String() string {
	return fmt.Sprintf("%s%v", c.Name, c.Params)
}

func (c *WaitCommand) String() string {
	return fmt.Sprintf("wait %.2fs", c.Duration)
}

func (c *PivotCommand) String() string {
	dir := "ccw"
	if c.Clockwise {
		dir = "cw"
	}
	return fmt.Sprintf("pivot %.1f°→%.1f° %s", c.StartAngle/autopath.Deg2Rad, c.EndAngle/autopath.Deg2Rad, dir)
}

// AngularDistance is the (non-negative) angle to turn, in radians, in the
// direction of the pivot.
func (c *PivotCommand) AngularDistance() float64 {
	d := autopath.CanonicalizeAngle(c.EndAngle - c.StartAngle)
	if c.Clockwise {
		d = autopath.CanonicalizeAngle(c.StartAngle - c.EndAngle)
	}
	return d
}

// AngleAt is the heading after turning by angular distance d.
func (c *PivotCommand) AngleAt(d float64) float64 {
	if c.Clockwise {
		d = -d
	}
	return autopath.CanonicalizeAngle(c.StartAngle + d)
}

// Recompute renormalizes the velocity profile to the angular distance,
// clamps events and rebuilds the time index.
func (c *PivotCommand) Recompute(exp int) error {
	if len(c.Velocity) < 2 {
		return fmt.Errorf("pivot: %w", ErrTooFewDatapoints)
	}
	d := c.AngularDistance()
	c.Velocity.Renormalize(d)
	clampEvents(c.Discrete, c.Continuous, d)
	c.timing = index.BuildTime(c.Velocity, d, exp)
	tracer().Debugf("pivot recomputed: %.1f° in %.3gs", d/autopath.Deg2Rad, c.Duration())
	return nil
}

// Duration is the time the pivot takes. It is 0 until Recompute has been
// called.
func (c *PivotCommand) Duration() float64 {
	if c.timing == nil {
		return 0
	}
	return c.timing.MaxKey()
}

// HeadingAt returns the heading t seconds into the pivot.
func (c *PivotCommand) HeadingAt(t float64) float64 {
	if c.timing == nil {
		return c.StartAngle
	}
	return c.AngleAt(c.timing.Query(t))
}

// NewPivot creates a pivot command with a default velocity profile,
// already recomputed.
func NewPivot(from, to float64, clockwise bool, exp int) *PivotCommand {
	p := &PivotCommand{StartAngle: from, EndAngle: to, Clockwise: clockwise}
	p.Velocity = velocity.Default(p.AngularDistance())
	if err := p.Recompute(exp); err != nil {
		panic(err)
	}
	return p
}
