/*
Package track finds where a robot is on a plan and plans the way back when
it has left it.

FindClosestPoint locates the arc length of a plan closest to a pose and
decides whether the pose is on the path. If it is not, OptimizeAdjustmentPath
searches a short corrective Hermite piece from the pose back onto the plan,
which the caller splices in front of the rest of the plan.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package track

import (
	"fmt"
	"math"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/plan"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/floats"
)

// tracer writes to trace with key 'autopath.track'
func tracer() tracing.Trace {
	return tracing.Select("autopath.track")
}

// Tolerance decides whether a pose is on a path.
type Tolerance struct {
	MaxDistance float64 // distance to the closest point
	MaxHeading  float64 // heading difference, radians
}

// DefaultTolerance is 0.5 length units and 30°.
func DefaultTolerance() Tolerance {
	return Tolerance{MaxDistance: 0.5, MaxHeading: 30 * autopath.Deg2Rad}
}

// Point is the result of a closest-point search.
type Point struct {
	OnPath       bool
	Point        autopath.Pair // closest point on the plan
	S            float64       // arc length of the closest point
	Distance     float64       // distance from the pose to Point
	HeadingError float64       // signed heading difference, radians
}

func (pt Point) String() string {
	return fmt.Sprintf("s=%.3f d=%.3f Δθ=%.1f° on-path=%v", pt.S, pt.Distance,
		pt.HeadingError/autopath.Deg2Rad, pt.OnPath)
}

const (
	coarseSamples = 40
	refinements   = 5
)

// FindClosestPoint searches the arc length of p closest to the position of
// pose: a coarse scan over uniformly spaced samples, then bisection in the
// interval around the best sample. The pose is on the path if both its
// distance and its heading difference to the plan are within tol.
func FindClosestPoint(p *plan.Plan, pose autopath.Pose, tol Tolerance) Point {
	length := p.Length()
	distAt := func(s float64) float64 {
		return p.PoseAt(s).Pos.Distance(pose.Pos)
	}
	ss := floats.Span(make([]float64, coarseSamples), 0, length)
	dists := make([]float64, coarseSamples)
	for i, s := range ss {
		dists[i] = distAt(s)
	}
	best := floats.MinIdx(dists)
	step := length / (coarseSamples - 1)
	closest, closestDist := ss[best], dists[best]

	var lower, lowerDist, upper, upperDist float64
	switch {
	case best == coarseSamples-1:
		lower, upper = closest-step, closest
		lowerDist, upperDist = dists[best-1], closestDist
	case best == 0:
		lower, upper = closest, closest+step
		lowerDist, upperDist = closestDist, dists[1]
	default:
		prevDist, nextDist := dists[best-1], dists[best+1]
		if nextDist > prevDist {
			lower, upper = closest-step, closest
			lowerDist, upperDist = prevDist, closestDist
		} else {
			lower, upper = closest, closest+step
			lowerDist, upperDist = closestDist, nextDist
		}
	}
	for i := 0; i < refinements; i++ {
		mid := (lower + upper) / 2
		midDist := distAt(mid)
		if upperDist > lowerDist {
			upper, upperDist = mid, midDist
		} else {
			lower, lowerDist = mid, midDist
		}
		tracer().Debugf("closest point bracket [%.4f,%.4f]", lower, upper)
	}
	s := (lower + upper) / 2
	smpl := p.SampleAt(s)
	pt := Point{
		Point:        smpl.Pose.Pos,
		S:            s,
		Distance:     smpl.Pose.Pos.Distance(pose.Pos),
		HeadingError: autopath.ShortestAngleBetween(smpl.RobotHeading(), pose.Angle),
	}
	pt.OnPath = pt.Distance <= tol.MaxDistance && math.Abs(pt.HeadingError) <= tol.MaxHeading
	return pt
}
