/*
Package velocity holds piecewise-linear speed profiles over the distance
travelled along a path.

A profile is an ordered list of (distance, speed) datapoints. After
Renormalize it starts and ends at rest: the first datapoint is (0,0), the last
is (length,0), and every interior distance lies within [0, length].

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package velocity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.velocity'
func tracer() tracing.Trace {
	return tracing.Select("autopath.velocity")
}

// Datapoint is a speed at a distance along a path.
type Datapoint struct {
	Distance float64 `yaml:"distance"`
	Speed    float64 `yaml:"speed"`
}

// Profile is a list of datapoints, ordered by distance.
type Profile []Datapoint

// Default returns the profile a new path starts with: accelerate during
// the first tenth of the length, cruise at speed 1, decelerate during the
// last tenth.
func Default(length float64) Profile {
	return Profile{
		{0, 0},
		{0.1 * length, 1},
		{0.9 * length, 1},
		{length, 0},
	}
}

func (p Profile) String() string {
	var b strings.Builder
	b.WriteString("[")
	for i, dp := range p {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "(%.3g,%.3g)", dp.Distance, dp.Speed)
	}
	b.WriteString("]")
	return b.String()
}

// Length is the distance of the last datapoint.
func (p Profile) Length() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Distance
}

// SpeedAt interpolates the speed at distance d between the two bracketing
// datapoints. If no pair of datapoints brackets d, SpeedAt returns 0.
// Where datapoints share a distance, the later one wins.
func (p Profile) SpeedAt(d float64) float64 {
	for i := len(p) - 1; i > 0; i-- {
		a, b := p[i-1], p[i]
		if d < a.Distance || d > b.Distance {
			continue
		}
		span := b.Distance - a.Distance
		if span <= 0 {
			return b.Speed
		}
		t := (d - a.Distance) / span
		return a.Speed + (b.Speed-a.Speed)*t
	}
	return 0
}

// MaxSpeed is the highest speed of all datapoints.
func (p Profile) MaxSpeed() float64 {
	max := 0.0
	for _, dp := range p {
		if dp.Speed > max {
			max = dp.Speed
		}
	}
	return max
}

// Renormalize pins the first datapoint to (0,0) and the last to (length,0),
// clamps all interior distances into [0, length] and restores ordering.
// It has to be called after any edit of the datapoints or of the length
// of the owning path.
//
// A profile with less than two datapoints is a programming error and
// Renormalize will panic.
func (p Profile) Renormalize(length float64) {
	if len(p) < 2 {
		panic(fmt.Sprintf("velocity profile needs at least 2 datapoints, has %d", len(p)))
	}
	if length < 0 {
		length = 0
	}
	last := len(p) - 1
	p[0] = Datapoint{0, 0}
	p[last] = Datapoint{length, 0}
	for i := 1; i < last; i++ {
		if p[i].Distance < 0 {
			p[i].Distance = 0
		} else if p[i].Distance > length {
			p[i].Distance = length
		}
	}
	sort.SliceStable(p[1:last], func(i, j int) bool {
		return p[1+i].Distance < p[1+j].Distance
	})
	tracer().Debugf("renormalized velocity profile to length %.4g: %s", length, p)
}

// Clone returns a copy which does not share memory with p.
func (p Profile) Clone() Profile {
	c := make(Profile, len(p))
	copy(c, p)
	return c
}

// Shifted returns a copy of p with all distances moved by offset.
func (p Profile) Shifted(offset float64) Profile {
	c := p.Clone()
	for i := range c {
		c[i].Distance += offset
	}
	return c
}

// Insert adds a datapoint, keeping the profile ordered by distance.
func (p Profile) Insert(dp Datapoint) Profile {
	i := sort.Search(len(p), func(i int) bool { return p[i].Distance > dp.Distance })
	p = append(p, Datapoint{})
	copy(p[i+1:], p[i:])
	p[i] = dp
	return p
}
