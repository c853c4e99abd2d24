package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/index"
	"github.com/npillmayer/autopath/velocity"
)

// NodeID references a node within its arena.
type NodeID int

// SegmentID references a path segment within its arena.
type SegmentID int

// NoSegment is the inbound segment of the start node.
const NoSegment SegmentID = -1

// Node is a waypoint of a program.
type Node struct {
	ID       NodeID
	Pos      autopath.Pair
	In       SegmentID   // NoSegment for the start node
	Out      []SegmentID // branches
	Commands []Command
	removed  bool
}

// Derived holds the artifacts computed from a segment's geometry and
// velocity profile. A Derived is never changed after construction.
type Derived struct {
	Length    float64
	Time      float64
	ArcLength *index.Map[autopath.Pose] // distance → pose
	Timing    *index.Map[float64]       // time → distance
}

// Segment is a path from an in-node to an out-node.
//
// Geometry and velocity are changed through the arena only, which keeps the
// derived artifacts current. Flags and guard condition may be set directly.
type Segment struct {
	ID          SegmentID
	In          NodeID
	Out         NodeID
	Reverse     bool   // robot drives backwards
	Hidden      bool   // editor visibility
	Conditional string // guard condition, "" for none

	inTangent  autopath.Pair
	outTangent autopath.Pair
	cps        []hermite.ControlPoint // interior control points
	velocity   velocity.Profile
	discrete   []DiscreteEvent
	continuous []ContinuousEvent
	derived    atomic.Pointer[Derived]
	removed    bool
}

func (seg *Segment) String() string {
	return fmt.Sprintf("segment#%d(%d→%d)", seg.ID, seg.In, seg.Out)
}

// Derived returns the current arc-length and time indices, or nil if the
// segment has never been computed successfully.
func (seg *Segment) Derived() *Derived {
	return seg.derived.Load()
}

// Length is the arc length of the segment, 0 if not computed.
func (seg *Segment) Length() float64 {
	if d := seg.derived.Load(); d != nil {
		return d.Length
	}
	return 0
}

// Time is the travel time along the segment, 0 if not computed.
func (seg *Segment) Time() float64 {
	if d := seg.derived.Load(); d != nil {
		return d.Time
	}
	return 0
}

// Velocity returns a copy of the velocity profile.
func (seg *Segment) Velocity() velocity.Profile {
	return seg.velocity.Clone()
}

// DiscreteEvents returns a copy of the discrete events.
func (seg *Segment) DiscreteEvents() []DiscreteEvent {
	d := make([]DiscreteEvent, len(seg.discrete))
	copy(d, seg.discrete)
	return d
}

// ContinuousEvents returns a copy of the continuous events.
func (seg *Segment) ContinuousEvents() []ContinuousEvent {
	c := make([]ContinuousEvent, len(seg.continuous))
	for i, e := range seg.continuous {
		c[i] = e.clone()
	}
	return c
}

// Tangents returns in-tangent and out-tangent.
func (seg *Segment) Tangents() (autopath.Pair, autopath.Pair) {
	return seg.inTangent, seg.outTangent
}

// ControlPoints returns a copy of the interior control points.
func (seg *Segment) ControlPoints() []hermite.ControlPoint {
	c := make([]hermite.ControlPoint, len(seg.cps))
	copy(c, seg.cps)
	return c
}
