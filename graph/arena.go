package graph

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/index"
)

// Arena owns all nodes and segments of one editing session.
type Arena struct {
	ID             uuid.UUID // identifies the editing session, renewed by Reset
	StartAngle     float64   // heading of the robot at the start node
	SampleExponent int       // index resolution, 2^SampleExponent samples per segment
	nodes          []*Node
	segments       []*Segment
}

// NewArena creates an arena holding just a start node.
func NewArena(start autopath.Pair, angle float64) *Arena {
	a := &Arena{SampleExponent: index.DefaultExponent}
	a.Reset(start, angle)
	return a
}

// Reset drops all nodes and segments and re-creates the start node.
func (a *Arena) Reset(start autopath.Pair, angle float64) {
	a.ID = uuid.New()
	a.StartAngle = autopath.CanonicalizeAngle(angle)
	a.nodes = []*Node{{ID: 0, Pos: start, In: NoSegment}}
	a.segments = nil
	tracer().P("arena", a.ID).Infof("reset arena, start at %s", start)
}

// Start is the ID of the start node.
func (a *Arena) Start() NodeID {
	return 0
}

// Node returns a live node.
func (a *Arena) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(a.nodes) || a.nodes[id].removed {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchNode, id)
	}
	return a.nodes[id], nil
}

// Segment returns a live segment.
func (a *Arena) Segment(id SegmentID) (*Segment, error) {
	if id < 0 || int(id) >= len(a.segments) || a.segments[id].removed {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchSegment, id)
	}
	return a.segments[id], nil
}

// MustSegment is like Segment, but panics for unknown IDs.
func (a *Arena) MustSegment(id SegmentID) *Segment {
	seg, err := a.Segment(id)
	if err != nil {
		panic(err)
	}
	return seg
}

// Nodes returns all live nodes in order of creation.
func (a *Arena) Nodes() []*Node {
	var nodes []*Node
	for _, n := range a.nodes {
		if !n.removed {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Segments returns all live segments in order of creation.
func (a *Arena) Segments() []*Segment {
	var segs []*Segment
	for _, s := range a.segments {
		if !s.removed {
			segs = append(segs, s)
		}
	}
	return segs
}

// Spline returns the full spline of a segment: in-node, interior control
// points, out-node.
func (a *Arena) Spline(id SegmentID) (hermite.Spline, error) {
	seg, err := a.Segment(id)
	if err != nil {
		return nil, err
	}
	return a.spline(seg), nil
}

func (a *Arena) spline(seg *Segment) hermite.Spline {
	s := make(hermite.Spline, 0, len(seg.cps)+2)
	s = append(s, hermite.CP(a.nodes[seg.In].Pos, seg.inTangent))
	s = append(s, seg.cps...)
	s = append(s, hermite.CP(a.nodes[seg.Out].Pos, seg.outTangent))
	return s
}

// Recompute rebuilds the arc-length index of a segment, then renormalizes
// its velocity profile to the new length and rebuilds the time index, then
// clamps all event distances into [0, length]. The new indices become
// visible in one step.
//
// Mutating operations of the arena call Recompute themselves.
func (a *Arena) Recompute(id SegmentID) error {
	seg, err := a.Segment(id)
	if err != nil {
		return err
	}
	return a.recompute(seg)
}

func (a *Arena) recompute(seg *Segment) error {
	spline := a.spline(seg)
	if err := spline.Validate(); err != nil {
		return fmt.Errorf("%s: %w", seg, err)
	}
	if len(seg.velocity) < 2 {
		return fmt.Errorf("%s: %w", seg, ErrTooFewDatapoints)
	}
	arc := index.BuildArcLength(spline, a.SampleExponent)
	length := arc.MaxKey()
	if length <= autopath.Epsilon {
		return fmt.Errorf("%w: %s has length %g", ErrDegenerateSegment, seg, length)
	}
	seg.velocity.Renormalize(length)
	timing := index.BuildTime(seg.velocity, length, a.SampleExponent)
	clampEvents(seg.discrete, seg.continuous, length)
	seg.derived.Store(&Derived{
		Length:    length,
		Time:      timing.MaxKey(),
		ArcLength: arc,
		Timing:    timing,
	})
	tracer().P("segment", seg.ID).Infof("recomputed: length %.4g, time %.4g", length, timing.MaxKey())
	return nil
}

// Walk visits all segments reachable from the start node, depth first, in
// branch order. Walking stops if visit returns false.
func (a *Arena) Walk(visit func(seg *Segment) bool) {
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		for _, id := range n.Out {
			seg := a.segments[id]
			if !visit(seg) || !walk(a.nodes[seg.Out]) {
				return false
			}
		}
		return true
	}
	walk(a.nodes[a.Start()])
}

// Branch returns the chain of segments starting at node from, following the
// first outbound segment of every node until a leaf is reached.
func (a *Arena) Branch(from NodeID) ([]SegmentID, error) {
	n, err := a.Node(from)
	if err != nil {
		return nil, err
	}
	var chain []SegmentID
	for len(n.Out) > 0 {
		id := n.Out[0]
		chain = append(chain, id)
		n = a.nodes[a.segments[id].Out]
	}
	return chain, nil
}

// PathTo returns the chain of segments leading from the start node to node
// to.
func (a *Arena) PathTo(to NodeID) ([]SegmentID, error) {
	n, err := a.Node(to)
	if err != nil {
		return nil, err
	}
	var chain []SegmentID
	for n.In != NoSegment {
		chain = append([]SegmentID{n.In}, chain...)
		n = a.nodes[a.segments[n.In].In]
	}
	return chain, nil
}

// Validate checks that nodes and segments form a tree rooted at the start
// node: every live node but the start node is reached by exactly one live
// segment, and every live segment is reachable from the start node.
func (a *Arena) Validate() error {
	if len(a.nodes) == 0 || a.nodes[0].In != NoSegment {
		return fmt.Errorf("%w: start node must not have an inbound segment", ErrMalformedGraph)
	}
	seen := make(map[NodeID]bool)
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		if seen[id] {
			return fmt.Errorf("%w: node %d reached twice", ErrMalformedGraph, id)
		}
		seen[id] = true
		for _, sid := range a.nodes[id].Out {
			seg, err := a.Segment(sid)
			if err != nil {
				return fmt.Errorf("%w: node %d: %v", ErrMalformedGraph, id, err)
			}
			if seg.In != id {
				return fmt.Errorf("%w: %s listed as outbound of node %d", ErrMalformedGraph, seg, id)
			}
			out, err := a.Node(seg.Out)
			if err != nil || out.In != sid {
				return fmt.Errorf("%w: %s does not own its out-node", ErrMalformedGraph, seg)
			}
			if err := visit(seg.Out); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(a.Start()); err != nil {
		return err
	}
	for _, n := range a.Nodes() {
		if !seen[n.ID] {
			return fmt.Errorf("%w: node %d not reachable from start", ErrMalformedGraph, n.ID)
		}
	}
	return nil
}
