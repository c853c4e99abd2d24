/*
Package plan projects chains of path segments into the form a trajectory
follower consumes: one arc-length index over samples carrying pose and
heading derivatives, one time index, one velocity profile and the events of
all segments, all expressed in distances along the whole chain.

A Plan is a copy. Editing the graph it was built from does not change it,
and splicing a corrective path into a plan produces a new plan.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package plan

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/graph"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/index"
	"github.com/npillmayer/autopath/velocity"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.plan'
func tracer() tracing.Trace {
	return tracing.Select("autopath.plan")
}

// ErrEmptyPlan is returned for plans without length.
var ErrEmptyPlan = errors.New("plan has no length")

// Sample is the state of a plan at a distance.
type Sample struct {
	Pose       autopath.Pose // heading is the direction of travel
	DThetaDS   float64       // rate of change of the heading per distance
	D2ThetaDS2 float64
	Reverse    bool // robot drives backwards
}

// RobotHeading is the heading of the robot, which is opposite to the
// direction of travel when driving backwards.
func (s Sample) RobotHeading() float64 {
	if s.Reverse {
		return autopath.CanonicalizeAngle(s.Pose.Angle + math.Pi)
	}
	return s.Pose.Angle
}

func lerpSample(a, b Sample, t float64) Sample {
	r := b.Reverse
	if t < 0.5 {
		r = a.Reverse
	}
	return Sample{
		Pose:       autopath.LerpPose(a.Pose, b.Pose, t),
		DThetaDS:   autopath.Lerp(a.DThetaDS, b.DThetaDS, t),
		D2ThetaDS2: autopath.Lerp(a.D2ThetaDS2, b.D2ThetaDS2, t),
		Reverse:    r,
	}
}

// Plan is the simulation-facing projection of chained segments.
type Plan struct {
	length     float64
	velocity   velocity.Profile
	samples    *index.Map[Sample]
	timing     *index.Map[float64]
	events     *EventSchedule
	continuous []graph.ContinuousEvent
}

// FromSegments builds a plan over a chain of segments, in order. Each
// segment has to start at the out-node of its predecessor.
func FromSegments(arena *graph.Arena, chain []graph.SegmentID, exp int) (*Plan, error) {
	if len(chain) == 0 {
		return nil, ErrEmptyPlan
	}
	type part struct {
		seg     *graph.Segment
		derived *graph.Derived
		offset  float64
	}
	parts := make([]part, len(chain))
	offset := 0.0
	for i, id := range chain {
		seg, err := arena.Segment(id)
		if err != nil {
			return nil, err
		}
		if i > 0 && parts[i-1].seg.Out != seg.In {
			return nil, fmt.Errorf("segments %d and %d are not connected", chain[i-1], id)
		}
		d := seg.Derived()
		if d == nil {
			return nil, fmt.Errorf("%s has not been computed", seg)
		}
		parts[i] = part{seg: seg, derived: d, offset: offset}
		offset += d.Length
	}
	p := &Plan{length: offset, events: NewEventSchedule()}
	if p.length <= autopath.Epsilon {
		return nil, ErrEmptyPlan
	}
	find := func(d float64) part {
		for i := len(parts) - 1; i > 0; i-- {
			if d >= parts[i].offset {
				return parts[i]
			}
		}
		return parts[0]
	}
	p.samples = buildSamples(p.length, exp, func(d float64) (autopath.Pose, bool) {
		pt := find(d)
		return pt.derived.ArcLength.Query(d - pt.offset), pt.seg.Reverse
	})
	for _, pt := range parts {
		for _, dp := range pt.seg.Velocity() {
			p.velocity = append(p.velocity, velocity.Datapoint{Distance: dp.Distance + pt.offset, Speed: dp.Speed})
		}
		for _, ev := range pt.seg.DiscreteEvents() {
			ev.Distance += pt.offset
			p.events.Add(ev)
		}
		for _, ev := range pt.seg.ContinuousEvents() {
			p.continuous = append(p.continuous, shiftContinuous(ev, pt.offset))
		}
	}
	p.timing = index.BuildTime(p.velocity, p.length, exp)
	tracer().Infof("plan over %d segments: length %.4g, time %.4g", len(chain), p.length, p.Time())
	return p, nil
}

// buildSamples samples poses at 2^exp uniform distances and derives the
// heading derivatives by finite differences.
func buildSamples(length float64, exp int, poseAt func(d float64) (autopath.Pose, bool)) *index.Map[Sample] {
	n := index.SampleCount(exp)
	h := length / float64(n-1)
	samples := make([]index.Sample[Sample], n)
	for i := range samples {
		d := float64(i) * h
		if i == n-1 {
			d = length
		}
		pose, reverse := poseAt(d)
		samples[i] = index.Sample[Sample]{Key: d, Value: Sample{Pose: pose, Reverse: reverse}}
	}
	if h <= 0 {
		return index.New(samples, lerpSample)
	}
	dtheta := func(i, j int) float64 {
		return autopath.ShortestAngleBetween(samples[i].Value.Pose.Angle, samples[j].Value.Pose.Angle)
	}
	for i := range samples {
		switch {
		case i == 0:
			samples[i].Value.DThetaDS = dtheta(0, 1) / h
		case i == n-1:
			samples[i].Value.DThetaDS = dtheta(n-2, n-1) / h
		default:
			samples[i].Value.DThetaDS = dtheta(i-1, i+1) / (2 * h)
		}
	}
	for i := 1; i < n-1; i++ {
		samples[i].Value.D2ThetaDS2 = (samples[i+1].Value.DThetaDS - samples[i-1].Value.DThetaDS) / (2 * h)
	}
	samples[0].Value.D2ThetaDS2 = samples[1].Value.D2ThetaDS2
	samples[n-1].Value.D2ThetaDS2 = samples[n-2].Value.D2ThetaDS2
	return index.New(samples, lerpSample)
}

func shiftContinuous(ev graph.ContinuousEvent, offset float64) graph.ContinuousEvent {
	c := graph.ContinuousEvent{Name: ev.Name, Samples: make([]graph.EventSample, len(ev.Samples))}
	for i, s := range ev.Samples {
		c.Samples[i] = graph.EventSample{Distance: s.Distance + offset, Value: s.Value}
	}
	return c
}

// Length is the total length of the plan.
func (p *Plan) Length() float64 {
	return p.length
}

// Time is the total travel time of the plan.
func (p *Plan) Time() float64 {
	return p.timing.MaxKey()
}

// SampleAt returns the interpolated sample at distance d, clamped to the plan.
func (p *Plan) SampleAt(d float64) Sample {
	return p.samples.Query(d)
}

// PoseAt is the position and direction of travel at distance d.
func (p *Plan) PoseAt(d float64) autopath.Pose {
	return p.samples.Query(d).Pose
}

// SpeedAt is the planned speed at distance d.
func (p *Plan) SpeedAt(d float64) float64 {
	return p.velocity.SpeedAt(autopath.Clamp(0, p.length, d))
}

// DistanceAt is the planned distance travelled after t seconds.
func (p *Plan) DistanceAt(t float64) float64 {
	return p.timing.Query(t)
}

// Velocity returns a copy of the plan's velocity profile.
func (p *Plan) Velocity() velocity.Profile {
	return p.velocity.Clone()
}

// Events is the schedule of discrete events.
func (p *Plan) Events() *EventSchedule {
	return p.events
}

// ContinuousAt samples all continuous events at distance d.
func (p *Plan) ContinuousAt(d float64) map[string]float64 {
	if len(p.continuous) == 0 {
		return nil
	}
	values := make(map[string]float64, len(p.continuous))
	for _, ev := range p.continuous {
		values[ev.Name] = ev.ValueAt(d)
	}
	return values
}

// Polyline returns the positions of all samples, e.g. for rendering.
func (p *Plan) Polyline() []autopath.Pair {
	pts := make([]autopath.Pair, p.samples.Len())
	for i := range pts {
		pts[i] = p.samples.At(i).Value.Pose.Pos
	}
	return pts
}

// Splice builds a new plan which first follows the spline adjust and then
// continues on p from distance s onwards. adjust has to end at (or close
// to) the pose of p at s.
//
// The adjusting part is driven at constant speed, the larger of speed and
// the planned speed at s. If both are 0, e.g. when rejoining at a rest point,
// the top speed of p is used. If nothing of p remains behind s, the
// adjusting part slows down to rest over its last tenth.
// Velocity datapoints and events of p beyond s are shifted to their new
// distances, those before s are dropped.
func (p *Plan) Splice(adjust hermite.Spline, s, speed float64, exp int) (*Plan, error) {
	if err := adjust.Validate(); err != nil {
		return nil, err
	}
	s = autopath.Clamp(0, p.length, s)
	arc := index.BuildArcLength(adjust, exp)
	adjLen := arc.MaxKey()
	shift := adjLen - s
	q := &Plan{length: adjLen + p.length - s, events: NewEventSchedule()}
	if q.length <= autopath.Epsilon {
		return nil, ErrEmptyPlan
	}
	rejoin := p.SampleAt(s)
	q.samples = buildSamples(q.length, exp, func(d float64) (autopath.Pose, bool) {
		if d < adjLen {
			return arc.Query(d), rejoin.Reverse
		}
		smpl := p.SampleAt(d - shift)
		return smpl.Pose, smpl.Reverse
	})
	vs := math.Max(speed, p.SpeedAt(s))
	if vs <= autopath.Epsilon {
		vs = p.velocity.MaxSpeed()
	}
	q.velocity = velocity.Profile{{Distance: 0, Speed: vs}}
	if p.length-s <= autopath.Epsilon {
		q.velocity = append(q.velocity,
			velocity.Datapoint{Distance: 0.9 * adjLen, Speed: vs},
			velocity.Datapoint{Distance: adjLen, Speed: 0})
	} else {
		q.velocity = append(q.velocity, velocity.Datapoint{Distance: adjLen, Speed: vs})
	}
	for _, dp := range p.velocity {
		if dp.Distance > s {
			q.velocity = append(q.velocity, velocity.Datapoint{Distance: dp.Distance + shift, Speed: dp.Speed})
		}
	}
	for _, ev := range p.events.Between(s, p.length) {
		ev.Distance += shift
		q.events.Add(ev)
	}
	for _, ev := range p.continuous {
		q.continuous = append(q.continuous, shiftContinuous(ev, shift))
	}
	q.timing = index.BuildTime(q.velocity, q.length, exp)
	tracer().Infof("spliced plan: adjustment %.4g + remainder %.4g", adjLen, p.length-s)
	return q, nil
}
