/*
Package sim simulates a differential-drive robot following a plan.

Every tick the simulator locates the robot on the plan. If the robot has
left the plan, a corrective path is optimized and spliced in front of the
remaining plan. Then each wheel is driven by a position controller towards a
setpoint, which integrates the wheel's desired speed; voltages pass through
a simple motor model to yield accelerations, wheel motion is integrated and
the new pose follows from forward kinematics.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package sim

import (
	"fmt"
	"math"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.sim'
func tracer() tracing.Trace {
	return tracing.Select("autopath.sim")
}

// ForwardKinematics moves a differential-drive robot with the given
// wheelbase by the distances its right and left wheels travelled. Headings
// are counter-clockwise, so a right wheel travelling farther turns the
// robot to the left.
func ForwardKinematics(pose autopath.Pose, wheelbase, right, left float64) autopath.Pose {
	theta := pose.Angle
	if right == left {
		return autopath.Pose{
			Pos:   pose.Pos + autopath.P(right*math.Cos(theta), right*math.Sin(theta)),
			Angle: autopath.CanonicalizeAngle(theta),
		}
	}
	delta := (right - left) / wheelbase
	r := (wheelbase / 2) * (right + left) / (right - left)
	dx := r * (math.Sin(theta+delta) - math.Sin(theta))
	dy := r * (math.Cos(theta) - math.Cos(theta+delta))
	return autopath.Pose{
		Pos:   pose.Pos + autopath.P(dx, dy),
		Angle: autopath.CanonicalizeAngle(theta + delta),
	}
}

// Wheel is the state of one side of the drive train.
type Wheel struct {
	Pos      float64 // distance travelled
	Vel      float64
	Accel    float64
	Setpoint float64 // position the controller drives towards
}

// Robot is a rectangular differential-drive robot.
type Robot struct {
	Pose   autopath.Pose
	Width  float64 // also the wheelbase
	Length float64
	Left   Wheel
	Right  Wheel
}

// NewRobot creates a robot at rest.
func NewRobot(pose autopath.Pose, width, length float64) Robot {
	return Robot{Pose: pose, Width: width, Length: length}
}

func (r Robot) String() string {
	return fmt.Sprintf("robot at %s, v=%.3f", r.Pose, r.Speed())
}

// Wheelbase is the distance between the wheels.
func (r Robot) Wheelbase() float64 {
	return r.Width
}

// Speed is the mean speed of both wheels, negative when driving backwards.
func (r Robot) Speed() float64 {
	return (r.Left.Vel + r.Right.Vel) / 2
}

// Footprint returns the corners of the robot in field coordinates,
// counter-clockwise, starting front right.
func (r Robot) Footprint() []autopath.Pair {
	frame := r.Pose.Frame()
	l, w := r.Length/2, r.Width/2
	corners := []autopath.Pair{autopath.P(l, -w), autopath.P(l, w), autopath.P(-l, w), autopath.P(-l, -w)}
	for i, c := range corners {
		corners[i] = frame.Transform(c)
	}
	return corners
}

func (r *Robot) stop() {
	for _, w := range []*Wheel{&r.Left, &r.Right} {
		w.Vel, w.Accel = 0, 0
		w.Setpoint = w.Pos
	}
}
