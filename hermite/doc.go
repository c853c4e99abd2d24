// Package hermite deals with chains of cubic Hermite splines, the geometry
// of autonomous paths.
/*

A path's geometry is a sequence of Hermite control points, each a position
plus a free tangent vector. Two consecutive control points define one cubic
piece, parameterized by t ∈ [0,1]:

   p(t) = (2t³−3t²+1)·a.pos + (t³−2t²+t)·a.tan + (−2t³+3t²)·b.pos + (t³−t²)·b.tan

A Spline of n control points has n−1 pieces. It is evaluated over the
parameter range [0, n−1], each unit interval mapped onto one piece.

Usage

Clients usually receive a spline from a path segment (in-node, interior
control points, out-node). For ad-hoc construction there is a small builder:

   spline := Nullspline().Knot(P(0,0), P(5,0)).Knot(P(10,0), P(5,0)).End()
   pos := spline.At(0.5)

Interior tangents may be chosen automatically by SmoothTangents, which
solves for the tangent directions of an aesthetically pleasing curve through
the knots, following John Hobby's spline algorithm for open paths:

   Smooth, Easy to Compute Interpolating Splines -- John D. Hobby
   Computer Science Dept. Stanford University
   Report No. STAN-CS-85-1047, Jan 1985

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package hermite

import (
	"fmt"

	"github.com/npillmayer/autopath"
)

// AsString returns a spline as a (debugging) string, one control point per line:
//
//	(0,0) tangent (5.0000,0.0000)
//	  .. (10,0) tangent (5.0000,0.0000)
func AsString(spline Spline) string {
	var s string
	for i, cp := range spline {
		if i > 0 {
			s += "\n  .. "
		}
		s += fmt.Sprintf("%s tangent %s", ptstring(cp.Pos, false), ptstring(cp.Tangent, true))
	}
	return s
}

func ptstring(p autopath.Pair, istangent bool) string {
	if !p.IsValid() {
		return "(<unknown>)"
	}
	if istangent {
		return fmt.Sprintf("(%.4f,%.4f)", round(p.X()), round(p.Y()))
	}
	return fmt.Sprintf("(%.4g,%.4g)", round(p.X()), round(p.Y()))
}

func round(x float64) float64 {
	if x >= 0 {
		return float64(int64(x*10000.0+0.5)) / 10000.0
	}
	return float64(int64(x*10000.0-0.5)) / 10000.0
}
