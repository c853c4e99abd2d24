package index

import (
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/hermite"
)

// BuildArcLength samples a spline at 2^exp uniform parameter steps and
// indexes the poses by cumulative chord length.
//
// Headings are taken from the spline's tangent. Where the tangent vanishes
// the direction towards the neighbouring sample is used.
func BuildArcLength(spline hermite.Spline, exp int) *Map[autopath.Pose] {
	n := SampleCount(exp)
	samples := make([]Sample[autopath.Pose], n)
	step := float64(spline.Pieces()) / float64(n-1)
	length := 0.0
	var prev autopath.Pair
	for i := range samples {
		u := float64(i) * step
		if i == n-1 {
			u = float64(spline.Pieces())
		}
		pos := spline.At(u)
		if i > 0 {
			length += prev.Distance(pos)
		}
		samples[i] = Sample[autopath.Pose]{
			Key:   length,
			Value: autopath.Pose{Pos: pos, Angle: spline.TangentAt(u).Angle()},
		}
		if spline.TangentAt(u).Length() <= autopath.Epsilon && i > 0 {
			samples[i].Value.Angle = (pos - prev).Angle()
		}
		prev = pos
	}
	if spline.TangentAt(0).Length() <= autopath.Epsilon {
		samples[0].Value.Angle = (samples[1].Value.Pos - samples[0].Value.Pos).Angle()
	}
	tracer().Debugf("arc-length index: %d samples, length %.4g", n, length)
	return New(samples, autopath.LerpPose)
}
