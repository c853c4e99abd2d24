package hermite

import (
	"errors"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.hermite'
func tracer() tracing.Trace {
	return tracing.Select("autopath.hermite")
}

const _epsilon = 0.0000001

var (
	// ErrTooFewPoints indicates a spline with less than two control points.
	ErrTooFewPoints = errors.New("spline has too few control points")
	// ErrInvalidPoint indicates a position or tangent containing NaN/Inf.
	ErrInvalidPoint = errors.New("spline has invalid control point")
	// ErrDegeneratePiece indicates two consecutive control points collapse to one point.
	ErrDegeneratePiece = errors.New("spline has degenerate piece")
)

// ControlPoint is a position plus a free tangent vector.
type ControlPoint struct {
	Pos     autopath.Pair
	Tangent autopath.Pair
}

// CP is a quick notation for constructing a control point.
func CP(pos, tangent autopath.Pair) ControlPoint {
	return ControlPoint{Pos: pos, Tangent: tangent}
}

// Spline is a chain of cubic Hermite pieces. To construct one, either
// build the slice directly or start with Nullspline() and extend it.
type Spline []ControlPoint
