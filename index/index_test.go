package index

import (
	"math"
	"testing"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/velocity"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/integrate"
)

func linearSamples(n int) []Sample[float64] {
	s := make([]Sample[float64], n)
	for i := range s {
		s[i] = Sample[float64]{Key: float64(i), Value: float64(10 * i)}
	}
	return s
}

func TestMapQueryAllBrackets(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	for _, n := range []int{2, 4, 8, 128} {
		m := New(linearSamples(n), autopath.Lerp)
		assert.Equal(t, n, m.Len())
		for k := 0.0; k <= float64(n-1); k += 0.25 {
			assert.InDelta(t, 10*k, m.Query(k), 1e-9, "n=%d, key=%g", n, k)
		}
	}
}

func TestMapQueryClamps(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	m := New(linearSamples(16), autopath.Lerp)
	assert.Equal(t, 0.0, m.Query(-5))
	assert.Equal(t, 150.0, m.Query(100))
	assert.Equal(t, 15.0, m.MaxKey())
	assert.Equal(t, 4, m.Depth())
}

func TestMapNonUniformKeys(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	keys := []float64{0, 0.1, 0.1, 3, 3.5, 7, 7.2, 20}
	s := make([]Sample[float64], len(keys))
	for i, k := range keys {
		s[i] = Sample[float64]{Key: k, Value: float64(i)}
	}
	m := New(s, autopath.Lerp)
	assert.InDelta(t, 2.5, m.Query(1.55), 1e-9)
	assert.InDelta(t, 5.5, m.Query(7.1), 1e-9)
	assert.InDelta(t, 6.5, m.Query(13.6), 1e-9)
}

func TestMapPanicsOnBadSampleCount(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for 6 samples")
		}
	}()
	New(linearSamples(6), autopath.Lerp)
}

func TestSampleCountRange(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	assert.Equal(t, 128, SampleCount(DefaultExponent))
	assert.Panics(t, func() { SampleCount(0) })
	assert.Panics(t, func() { SampleCount(MaxExponent + 1) })
}

func straight(l float64) hermite.Spline {
	return hermite.Nullspline().
		Knot(autopath.P(0, 0), autopath.P(l, 0)).
		Knot(autopath.P(l, 0), autopath.P(l, 0)).End()
}

func TestArcLengthStraightLine(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	L := 10.0
	m := BuildArcLength(straight(L), DefaultExponent)
	tolerance := L / float64(SampleCount(DefaultExponent))
	assert.InDelta(t, L, m.MaxKey(), 1e-9)
	for _, d := range []float64{0, L / 2, L} {
		pose := m.Query(d)
		assert.InDelta(t, d, pose.Pos.X(), tolerance)
		assert.InDelta(t, 0, pose.Pos.Y(), tolerance)
		assert.InDelta(t, 0, pose.Angle, 1e-9)
	}
}

func TestArcLengthQuarterTurn(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	// approximates a quarter circle of radius 10
	k := 4 * (math.Sqrt2 - 1) / 3 * 10 * 3
	s := hermite.Nullspline().
		Knot(autopath.P(10, 0), autopath.P(0, k)).
		Knot(autopath.P(0, 10), autopath.P(-k, 0)).End()
	m := BuildArcLength(s, 8)
	assert.InDelta(t, 5*math.Pi, m.MaxKey(), 0.05)
	mid := m.Query(m.MaxKey() / 2)
	assert.InDelta(t, 135*autopath.Deg2Rad, mid.Angle, 0.02)
	assert.InDelta(t, 10, mid.Pos.Length(), 0.05)
}

func TestTimeIndexScenario(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	L := 10.0
	profile := velocity.Profile{{Distance: 0, Speed: 0}, {Distance: 1, Speed: 5}, {Distance: 9, Speed: 5}, {Distance: 10, Speed: 0}}
	profile.Renormalize(L)
	arc := BuildArcLength(straight(L), DefaultExponent)
	assert.InDelta(t, 5, arc.Query(5).Pos.X(), 0.1)
	assert.InDelta(t, 0, arc.Query(5).Pos.Y(), 0.1)

	tm := BuildTime(profile, L, DefaultExponent)
	total := tm.MaxKey()
	assert.InDelta(t, 3.40, total, 0.05)
	assert.InDelta(t, L, tm.Query(total), 1e-9)
	assert.Equal(t, 0.0, tm.Query(0))

	// on the cruise section, time matches a trapezoidal reference of ∫1/v ds
	var xs, fs []float64
	var t0, t1 float64
	for i := 0; i < tm.Len(); i++ {
		smpl := tm.At(i)
		if smpl.Value < 1 || smpl.Value > 9 {
			continue
		}
		if len(xs) == 0 {
			t0 = smpl.Key
		}
		t1 = smpl.Key
		xs = append(xs, smpl.Value)
		fs = append(fs, 1/profile.SpeedAt(smpl.Value))
	}
	ref := integrate.Trapezoidal(xs, fs)
	assert.InEpsilon(t, ref, t1-t0, 0.01)
	// monotone distance over time
	prev := -1.0
	for tt := 0.0; tt <= total; tt += total / 50 {
		d := tm.Query(tt)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
}

func TestTimeIndexZeroLength(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	profile := velocity.Profile{{Distance: 0, Speed: 0}, {Distance: 0, Speed: 0}}
	tm := BuildTime(profile, 0, 3)
	assert.Equal(t, 0.0, tm.MaxKey())
	assert.Equal(t, 0.0, tm.Query(1))
}
