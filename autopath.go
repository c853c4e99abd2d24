/*
Package autopath implements points, poses, angle arithmetic and affine
transformations for authoring and simulating robot autonomous paths.

Sub-packages build on these types: hermite (spline geometry), velocity
(speed profiles), index (arc-length and time lookup trees), graph (the
editable path graph), plan/track/sim (trajectory following).

# BSD License

# Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package autopath

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath'
func tracer() tracing.Trace {
	return tracing.Select("autopath")
}

// === Numeric Data Type =====================================================

// Deg2Rad is a constant for converting from DEG to RAD or vice versa
var Deg2Rad float64 = math.Pi / 180

// Epsilon : numbers below ε are considered 0
var Epsilon float64 = 0.0000001

// Is0 is a predicate: is n = 0 ?
func Is0(n float64) bool {
	return math.Abs(n) <= Epsilon
}

// Zap makes n = 0 if n "means" to be zero
func Zap(n float64) float64 {
	if Is0(n) {
		n = 0
	}
	return n
}

// Clamp restricts n to [lo, hi].
func Clamp(lo, hi, n float64) float64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// === Angles ================================================================

// CanonicalizeAngle reduces an angle (radians) to [0, 2π).
func CanonicalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// ShortestAngleBetween returns the signed angle to turn from a to b, in (-π, π].
func ShortestAngleBetween(a, b float64) float64 {
	d := CanonicalizeAngle(b - a)
	if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}

// LerpAngle interpolates between two headings along the shorter arc.
func LerpAngle(a, b, t float64) float64 {
	return CanonicalizeAngle(a + ShortestAngleBetween(a, b)*t)
}

// === Pair Data Type ========================================================

// Pair is a 2D point or vector, stored as a complex number.
type Pair complex128

// Origin represents the frequently used constant (0,0).
var Origin = P(0, 0)

// Pretty Stringer for simple pairs.
func (p Pair) String() string {
	return fmt.Sprintf("(%g,%g)", real(p), imag(p))
}

// C returns a Pair as a complex number.
func (p Pair) C() complex128 {
	return complex128(p)
}

// C2P returns a Pair from a complex number.
func C2P(c complex128) Pair {
	if cmplx.IsNaN(c) || cmplx.IsInf(c) {
		tracer().Errorf("created pair for complex.NaN")
		return P(0, 0)
	}
	return P(real(c), imag(c))
}

// P is a quick notation for contructing a pair from floats.
func P(x, y float64) Pair {
	return Pair(complex(x, y))
}

// Direction returns the unit vector for heading theta (radians, counter-clockwise from +x).
func Direction(theta float64) Pair {
	return P(math.Cos(theta), math.Sin(theta))
}

// X is the x-part of a pair.
func (p Pair) X() float64 {
	return real(p)
}

// Y is the y-part of a pair.
func (p Pair) Y() float64 {
	return imag(p)
}

// Length is the euclidean norm of p.
func (p Pair) Length() float64 {
	return cmplx.Abs(p.C())
}

// Distance between two points.
func (p Pair) Distance(q Pair) float64 {
	return (q - p).Length()
}

// Angle is the heading of vector p. The zero vector has angle 0.
func (p Pair) Angle() float64 {
	if p == 0 {
		return 0
	}
	return CanonicalizeAngle(cmplx.Phase(p.C()))
}

// Normalized returns p scaled to unit length, or (0,0) for the zero vector.
func (p Pair) Normalized() Pair {
	l := p.Length()
	if l == 0 {
		return Origin
	}
	return p.Scaled(1 / l)
}

// Scaled returns a new pair scaled by factor a.
// Unlike most pair operations, Scaled does not round towards zero, as
// spline evaluation relies on exact endpoint values.
func (p Pair) Scaled(a float64) Pair {
	return P(p.X()*a, p.Y()*a)
}

// Dot is the scalar product.
func (p Pair) Dot(q Pair) float64 {
	return p.X()*q.X() + p.Y()*q.Y()
}

// Perp returns p rotated by 90° counter-clockwise.
func (p Pair) Perp() Pair {
	return P(-p.Y(), p.X())
}

// LerpPair interpolates linearly between two points.
func LerpPair(a, b Pair, t float64) Pair {
	return a + (b - a).Scaled(t)
}

// Zap rounds x-part and y-part to Epsilon.
func (p Pair) Zap() Pair {
	return P(Zap(p.X()), Zap(p.Y()))
}

// IsOrigin is a predicate: is this pair origin?
func (p Pair) IsOrigin() bool {
	return p.Equal(Origin)
}

// Equal compares two pairs.
func (p Pair) Equal(p2 Pair) bool {
	return Is0(p.X()-p2.X()) && Is0(p.Y()-p2.Y())
}

// IsValid is false if one of the coordinates is NaN or infinite.
func (p Pair) IsValid() bool {
	return !cmplx.IsNaN(p.C()) && !cmplx.IsInf(p.C())
}

// Shifted returns a new pair translated by v.
func (p Pair) Shifted(v Pair) Pair {
	T := Translation(v)
	return T.Transform(p)
}

// Rotated returns a new pair rotated around origin by theta (counterclockwise).
func (p Pair) Rotated(theta float64) Pair {
	T := Rotation(theta)
	return T.Transform(p).Zap()
}

// === Pose ==================================================================

// Pose is a position plus a heading (radians, counter-clockwise from +x).
type Pose struct {
	Pos   Pair
	Angle float64
}

func (pose Pose) String() string {
	return fmt.Sprintf("%s@%.1f°", pose.Pos, pose.Angle/Deg2Rad)
}

// Heading is the unit vector of the pose's angle.
func (pose Pose) Heading() Pair {
	return Direction(pose.Angle)
}

// LerpPose interpolates position linearly and heading along the shorter arc.
func LerpPose(a, b Pose, t float64) Pose {
	return Pose{
		Pos:   LerpPair(a.Pos, b.Pos, t),
		Angle: LerpAngle(a.Angle, b.Angle, t),
	}
}

// Frame returns the transform mapping robot-local coordinates (x forward,
// y to the left) to field coordinates.
func (pose Pose) Frame() AT {
	return Rotation(pose.Angle).Combine(Translation(pose.Pos))
}

// === Affine Transformations ================================================

// AT is an affine transform, a matrix type used for transforming vectors.
type AT []float64 // a 3x3 matrix, flattened by rows

// Internal constructor. Clients implicitely use this as a starting point for
// transform combinations.
func newAT() AT {
	m := make([]float64, 9)
	return m
}

func (m AT) set(row, col int, value float64) {
	m[row*3+col] = value
}

func (m AT) row(row int) []float64 {
	return m[row*3 : (row+1)*3]
}

func (m AT) col(col int) []float64 {
	return []float64{m[col], m[3+col], m[6+col]}
}

// Identity transform. Will transform a point onto itself.
func Identity() AT {
	m := newAT()
	m.set(0, 0, 1.0)
	m.set(1, 1, 1.0)
	m.set(2, 2, 1.0)
	return m
}

// Translation transform. Translate a point by (dx,dy).
func Translation(p Pair) AT {
	m := Identity()
	m.set(0, 2, p.X())
	m.set(1, 2, p.Y())
	return m
}

// Rotation transform. Rotate a point counter-clockwise around the origin.
// Argument is in radians.
func Rotation(theta float64) AT {
	m := newAT()
	sin := math.Sin(theta)
	cos := math.Cos(theta)
	m.set(0, 0, cos)
	m.set(0, 1, -sin)
	m.set(1, 0, sin)
	m.set(1, 1, cos)
	m.set(2, 2, 1.0)
	return m
}

// Debug Stringer for an affine transform.
func (m AT) String() string {
	return fmt.Sprintf("[%g,%g,%g|%g,%g,%g|%g,%g,%g]",
		m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}

// v1 × v2, v.n = [a,b,c]
func dotProd(vec1, vec2 []float64) float64 {
	return vec1[0]*vec2[0] + vec1[1]*vec2[1] + vec1[2]*vec2[2]
}

// Combine 2 affine transformation to a new one: m is applied first, then n.
// Returns a new transformation without changing the argument(s).
func (m AT) Combine(n AT) AT {
	o := newAT()
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			o.set(row, col, dotProd(n.row(row), m.col(col)))
		}
	}
	return o
}

func (m AT) multiplyVector(v []float64) []float64 {
	return []float64{dotProd(m.row(0), v), dotProd(m.row(1), v), dotProd(m.row(2), v)}
}

// Transform a 2D-point. The argument is unchanged and a new pair is returned.
func (m AT) Transform(p Pair) Pair {
	c := m.multiplyVector([]float64{p.X(), p.Y(), 1.0})
	return P(c[0], c[1])
}
