package hermite

import (
	"fmt"
	"math"

	"github.com/npillmayer/autopath"
)

// Nullspline creates an empty spline, to be extended by subsequent builder
// calls.
//
//	spline := Nullspline().Knot(P(0,0), P(3,0)).Knot(P(3,2), P(0,3)).End()
func Nullspline() Spline {
	return Spline{}
}

// Knot appends a control point. Part of builder functionality.
func (s Spline) Knot(pos, tangent autopath.Pair) Spline {
	return append(s, CP(pos, tangent))
}

// End closes construction. Part of builder functionality.
func (s Spline) End() Spline {
	if len(s) < 2 {
		panic("cannot end spline with less than two control points")
	}
	return s
}

// N returns the number of control points.
func (s Spline) N() int {
	return len(s)
}

// Pieces returns the number of Hermite pieces, i.e. the upper bound of the
// parameter range.
func (s Spline) Pieces() int {
	if len(s) < 2 {
		return 0
	}
	return len(s) - 1
}

// piece maps a global parameter u ∈ [0, Pieces()] onto a piece index and a
// local parameter in [0,1]. Parameters outside the range are clamped.
func (s Spline) piece(u float64) (int, float64) {
	n := s.Pieces()
	if u <= 0 {
		return 0, 0
	}
	if u >= float64(n) {
		return n - 1, 1
	}
	i := int(math.Floor(u))
	return i, u - float64(i)
}

// At evaluates the position at global parameter u ∈ [0, Pieces()].
func (s Spline) At(u float64) autopath.Pair {
	i, t := s.piece(u)
	return Evaluate(s[i], s[i+1], t)
}

// TangentAt evaluates the derivative at global parameter u ∈ [0, Pieces()].
func (s Spline) TangentAt(u float64) autopath.Pair {
	i, t := s.piece(u)
	return Tangent(s[i], s[i+1], t)
}

// PoseAt returns position and heading at global parameter u.
func (s Spline) PoseAt(u float64) autopath.Pose {
	return autopath.Pose{Pos: s.At(u), Angle: s.TangentAt(u).Angle()}
}

// Polyline samples the spline at n uniform parameter steps, e.g. for
// rendering.
func (s Spline) Polyline(n int) []autopath.Pair {
	if n < 2 {
		n = 2
	}
	pts := make([]autopath.Pair, n)
	step := float64(s.Pieces()) / float64(n-1)
	for i := range pts {
		pts[i] = s.At(float64(i) * step)
	}
	return pts
}

// Validate checks if a spline can be evaluated and measured.
func (s Spline) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("%w: need at least 2, got %d", ErrTooFewPoints, len(s))
	}
	for i, cp := range s {
		if !cp.Pos.IsValid() || !cp.Tangent.IsValid() {
			return fmt.Errorf("%w at index %d", ErrInvalidPoint, i)
		}
	}
	for i := 1; i < len(s); i++ {
		if s[i].Pos.Distance(s[i-1].Pos) <= _epsilon && s[i].Tangent.IsOrigin() && s[i-1].Tangent.IsOrigin() {
			return fmt.Errorf("%w between %d and %d", ErrDegeneratePiece, i-1, i)
		}
	}
	return nil
}

// MustValidate is a compatibility helper which panics on validation errors.
func (s Spline) MustValidate() Spline {
	if err := s.Validate(); err != nil {
		panic(err)
	}
	return s
}

// Clone returns a copy which does not share memory with s.
func (s Spline) Clone() Spline {
	c := make(Spline, len(s))
	copy(c, s)
	return c
}
