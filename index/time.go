package index

import (
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/velocity"
)

// MinSpeed is the lowest speed used when integrating travel time. Profiles
// start and end at rest, so steps next to the ends would otherwise take
// forever.
const MinSpeed = 0.001

// BuildTime integrates a velocity profile over 2^exp uniform distance steps
// of a path of the given length and indexes distances by cumulative time.
//
// Each step takes dt = ds / v̄, where v̄ is the mean of the speeds at both
// ends of the step. Means below MinSpeed are raised to MinSpeed.
func BuildTime(profile velocity.Profile, length float64, exp int) *Map[float64] {
	n := SampleCount(exp)
	samples := make([]Sample[float64], n)
	step := length / float64(n-1)
	t := 0.0
	v0 := profile.SpeedAt(0)
	for i := 1; i < n; i++ {
		d := float64(i) * step
		if i == n-1 {
			d = length
		}
		v1 := profile.SpeedAt(d)
		avg := (v0 + v1) / 2
		if avg < MinSpeed {
			avg = MinSpeed
		}
		t += step / avg
		samples[i] = Sample[float64]{Key: t, Value: d}
		v0 = v1
	}
	tracer().Debugf("time index: %d samples, length %.4g, time %.4g", n, length, t)
	return New(samples, autopath.Lerp)
}
