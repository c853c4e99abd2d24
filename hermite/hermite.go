package hermite

import "github.com/npillmayer/autopath"

// Evaluate returns the position on the piece from a to b at parameter t.
// There is no bounds check on t; callers restrict it to [0,1].
// Evaluate(a, b, 0) is exactly a.Pos, Evaluate(a, b, 1) is exactly b.Pos.
func Evaluate(a, b ControlPoint, t float64) autopath.Pair {
	t2, t3 := t*t, t*t*t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return a.Pos.Scaled(h00) + a.Tangent.Scaled(h10) + b.Pos.Scaled(h01) + b.Tangent.Scaled(h11)
}

// Tangent returns the derivative dp/dt on the piece from a to b at parameter t.
func Tangent(a, b ControlPoint, t float64) autopath.Pair {
	t2 := t * t
	d00 := 6*t2 - 6*t
	d10 := 3*t2 - 4*t + 1
	d01 := 6*t - 6*t2
	d11 := 3*t2 - 2*t
	return a.Pos.Scaled(d00) + a.Tangent.Scaled(d10) + b.Pos.Scaled(d01) + b.Tangent.Scaled(d11)
}
