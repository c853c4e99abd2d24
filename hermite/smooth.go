package hermite

import (
	"math"
	"math/cmplx"

	"github.com/npillmayer/autopath"
)

// SmoothTangents assigns the tangents of all interior control points of s,
// such that the spline runs smoothly through its knots. The tangents of the
// first and the last control point are taken as given directions.
//
// Tangent directions are found by Hobby's algorithm for open paths with
// neutral tension, their magnitudes are derived from the Bézier control
// points the algorithm yields (a Hermite tangent is 3 times the offset of
// the neighbouring Bézier control point).
//
// Returns a new spline, s is unchanged. Splines with no interior control
// points are returned as a copy.
func SmoothTangents(s Spline) (Spline, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	smooth := s.Clone()
	n := len(s)
	if n < 3 {
		return smooth, nil
	}
	for i := 1; i < n; i++ {
		if s[i].Pos.Distance(s[i-1].Pos) <= _epsilon {
			return nil, ErrDegeneratePiece
		}
	}
	k := knotsOf(s)
	theta := k.solve()
	post := make([]autopath.Pair, n) // outgoing Bézier offset at knot i
	pre := make([]autopath.Pair, n)  // incoming Bézier offset at knot i
	for i := 0; i < n-1; i++ {
		phi := -k.psi(i+1) - theta[i+1]
		p2, p3 := controlOffsets(theta[i], phi, k.delta(i))
		post[i] = p2
		pre[i+1] = p3
	}
	for i := 1; i < n-1; i++ {
		tangent := (pre[i] + post[i]).Scaled(1.5) // mean of 3·pre and 3·post
		smooth[i].Tangent = tangent
		tracer().Debugf("smooth tangent at %d = %s", i, ptstring(tangent, true))
	}
	return smooth, nil
}

// knots is a view on the positions of a spline, plus the given directions
// at both ends.
type knots struct {
	z        []autopath.Pair
	startDir autopath.Pair
	endDir   autopath.Pair
}

func knotsOf(s Spline) knots {
	k := knots{z: make([]autopath.Pair, len(s))}
	for i, cp := range s {
		k.z[i] = cp.Pos
	}
	k.startDir = s[0].Tangent
	k.endDir = s[len(s)-1].Tangent
	return k
}

func (k knots) delta(i int) autopath.Pair {
	return k.z[i+1] - k.z[i]
}

func (k knots) d(i int) float64 {
	return k.delta(i).Length()
}

// Turning angle at z.i.
func (k knots) psi(i int) float64 {
	if i <= 0 || i >= len(k.z)-1 {
		return 0
	}
	return reduceAngle(cmplx.Phase(k.delta(i).C()) - cmplx.Phase(k.delta(i-1).C()))
}

// solve finds the angles theta.i between the outgoing direction at z.i and
// the chord z.i → z.i+1. Tension and curl are neutral (1.0), which reduces
// Hobby's tridiagonal system to A = 1/d(i-1), B = 2/d(i-1), C = 2/d(i),
// D = 1/d(i).
func (k knots) solve() []float64 {
	n := len(k.z)
	last := n - 1
	u := make([]float64, n)
	v := make([]float64, n)
	theta := make([]float64, n)
	u[0] = 0
	v[0] = reduceAngle(angle(k.startDir) - angle(k.delta(0)))
	for i := 1; i < last; i++ {
		A := 1 / k.d(i-1)
		B := 2 / k.d(i-1)
		C := 2 / k.d(i)
		D := 1 / k.d(i)
		t := B - u[i-1]*A + C
		u[i] = D / t
		v[i] = (-B*k.psi(i) - D*k.psi(i+1) - A*v[i-1]) / t
		tracer().Debugf("u.%d = %.4g, v.%d = %.4g", i, u[i], i, v[i])
	}
	theta[last] = reduceAngle(angle(k.endDir) - angle(k.delta(last-1)))
	for i := last - 1; i >= 0; i-- {
		theta[i] = v[i] - u[i]*theta[i+1]
	}
	return theta
}

func hobbyParamsAlphaBeta(theta, phi float64) (float64, float64) {
	constA := 1.41421356     // sqrt(2) -- empiric constants, as explained by J.Hobby
	constB := 0.0625         // 1/16
	constC := 0.38196601125  // (3 - sqrt(5)) / 2
	constCC := 0.61803398875 // 1 - c
	st, ct := math.Sin(theta), math.Cos(theta)
	sf, cf := math.Sin(phi), math.Cos(phi)
	alpha := constA * (st - constB*sf) * (sf - constB*st) * (ct - cf)
	beta := 1 + constCC*ct + constC*cf
	return alpha, beta
}

// controlOffsets returns the offsets of the Bézier control points of the
// piece z.i → z.i+1: the first relative to z.i, the second relative to
// z.i+1, negated so that both point along the direction of travel.
func controlOffsets(theta, phi float64, dvec autopath.Pair) (autopath.Pair, autopath.Pair) {
	alpha, beta := hobbyParamsAlphaBeta(theta, phi)
	rho := (2 + alpha) / beta
	sigma := (2 - alpha) / beta
	uv1 := dvec.Rotated(theta)
	uv2 := dvec.Rotated(-phi)
	return uv1.Scaled(rho / 3), uv2.Scaled(sigma / 3)
}

func angle(pr autopath.Pair) float64 {
	if !pr.IsValid() || pr == 0 {
		return 0.0
	}
	return cmplx.Phase(pr.C())
}

// Reduce an angle to fit into -pi .. pi.
func reduceAngle(a float64) float64 {
	if math.Abs(a) > math.Pi {
		if a > 0 {
			a -= 2 * math.Pi
		} else {
			a += 2 * math.Pi
		}
	}
	return a
}
