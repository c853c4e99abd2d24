package graph

import (
	"fmt"

	"github.com/npillmayer/autopath"
	"github.com/npillmayer/autopath/hermite"
	"github.com/npillmayer/autopath/velocity"
)

// === Edit transactions =====================================================

// segmentState is a snapshot of everything a recompute may touch.
type segmentState struct {
	seg        *Segment
	inTangent  autopath.Pair
	outTangent autopath.Pair
	cps        []hermite.ControlPoint
	velocity   velocity.Profile
	discrete   []DiscreteEvent
	continuous []ContinuousEvent
	derived    *Derived
}

func snapshot(seg *Segment) segmentState {
	return segmentState{
		seg:        seg,
		inTangent:  seg.inTangent,
		outTangent: seg.outTangent,
		cps:        seg.ControlPoints(),
		velocity:   seg.Velocity(),
		discrete:   seg.DiscreteEvents(),
		continuous: seg.ContinuousEvents(),
		derived:    seg.derived.Load(),
	}
}

func (st segmentState) restore() {
	st.seg.inTangent = st.inTangent
	st.seg.outTangent = st.outTangent
	st.seg.cps = st.cps
	st.seg.velocity = st.velocity
	st.seg.discrete = st.discrete
	st.seg.continuous = st.continuous
	st.seg.derived.Store(st.derived)
}

// edit applies mutate and recomputes the given segments. If any of them
// fails to recompute, all segments and the position of node (if not nil)
// are rolled back and the error is returned.
func (a *Arena) edit(segs []*Segment, node *Node, mutate func()) error {
	states := make([]segmentState, len(segs))
	for i, seg := range segs {
		states[i] = snapshot(seg)
	}
	var pos autopath.Pair
	if node != nil {
		pos = node.Pos
	}
	mutate()
	for _, seg := range segs {
		if err := a.recompute(seg); err != nil {
			for _, st := range states {
				st.restore()
			}
			if node != nil {
				node.Pos = pos
			}
			tracer().Errorf("edit rolled back: %v", err)
			return err
		}
	}
	return nil
}

func (a *Arena) editSegment(id SegmentID, mutate func(seg *Segment) error) error {
	seg, err := a.Segment(id)
	if err != nil {
		return err
	}
	var merr error
	err = a.edit([]*Segment{seg}, nil, func() { merr = mutate(seg) })
	if merr != nil {
		return merr
	}
	return err
}

// === Nodes =================================================================

// AddPath creates a new node at position to and a segment leading there from
// node from. The new segment starts out straight: its tangents are unit
// vectors pointing from in-node to out-node, except when leaving the start
// node, where the in-tangent follows the start heading. Its velocity profile
// accelerates over the first tenth and decelerates over the last tenth of
// the distance.
func (a *Arena) AddPath(from NodeID, to autopath.Pair) (SegmentID, error) {
	n, err := a.Node(from)
	if err != nil {
		return NoSegment, err
	}
	chord := to - n.Pos
	if chord.Length() <= autopath.Epsilon {
		return NoSegment, fmt.Errorf("%w: new node coincides with node %d", ErrDegenerateSegment, from)
	}
	dir := chord.Normalized()
	outNode := &Node{ID: NodeID(len(a.nodes)), Pos: to}
	seg := &Segment{
		ID:         SegmentID(len(a.segments)),
		In:         from,
		Out:        outNode.ID,
		inTangent:  dir,
		outTangent: dir,
		velocity:   velocity.Default(chord.Length()),
	}
	if from == a.Start() {
		seg.inTangent = autopath.Direction(a.StartAngle)
	}
	outNode.In = seg.ID
	a.nodes = append(a.nodes, outNode)
	a.segments = append(a.segments, seg)
	if err := a.recompute(seg); err != nil {
		a.nodes = a.nodes[:len(a.nodes)-1]
		a.segments = a.segments[:len(a.segments)-1]
		return NoSegment, err
	}
	n.Out = append(n.Out, seg.ID)
	tracer().P("segment", seg.ID).Infof("added path from node %d to node %d", from, outNode.ID)
	return seg.ID, nil
}

// RemoveNode removes a node together with its inbound segment and the whole
// subtree behind it. The start node cannot be removed.
func (a *Arena) RemoveNode(id NodeID) error {
	n, err := a.Node(id)
	if err != nil {
		return err
	}
	if id == a.Start() {
		return ErrStartNode
	}
	parent := a.nodes[a.segments[n.In].In]
	for i, sid := range parent.Out {
		if sid == n.In {
			parent.Out = append(parent.Out[:i:i], parent.Out[i+1:]...)
			break
		}
	}
	var drop func(n *Node)
	drop = func(n *Node) {
		n.removed = true
		if n.In != NoSegment {
			a.segments[n.In].removed = true
		}
		for _, sid := range n.Out {
			drop(a.nodes[a.segments[sid].Out])
		}
	}
	drop(n)
	tracer().P("node", id).Infof("removed node and its subtree")
	return nil
}

// MoveNode moves a node and recomputes all segments touching it.
func (a *Arena) MoveNode(id NodeID, pos autopath.Pair) error {
	n, err := a.Node(id)
	if err != nil {
		return err
	}
	var segs []*Segment
	if n.In != NoSegment {
		segs = append(segs, a.segments[n.In])
	}
	for _, sid := range n.Out {
		segs = append(segs, a.segments[sid])
	}
	return a.edit(segs, n, func() { n.Pos = pos })
}

// AddCommand appends a command to the command list of a node. Pivot
// commands are recomputed.
func (a *Arena) AddCommand(id NodeID, cmd Command) error {
	n, err := a.Node(id)
	if err != nil {
		return err
	}
	if pivot, ok := cmd.(*PivotCommand); ok {
		if err := pivot.Recompute(a.SampleExponent); err != nil {
			return err
		}
	}
	n.Commands = append(n.Commands, cmd)
	return nil
}

// === Control points ========================================================

// Control points are addressed by their index in the full spline of a
// segment: 0 is the in-node, N-1 is the out-node.

// InsertControlPoint inserts cp into the spline of a segment, between the
// control points at index after and after+1.
func (a *Arena) InsertControlPoint(id SegmentID, after int, cp hermite.ControlPoint) error {
	return a.editSegment(id, func(seg *Segment) error {
		if after < 0 || after > len(seg.cps) {
			return fmt.Errorf("%w: insert after %d", ErrIndexOutOfRange, after)
		}
		cps := make([]hermite.ControlPoint, 0, len(seg.cps)+1)
		cps = append(cps, seg.cps[:after]...)
		cps = append(cps, cp)
		seg.cps = append(cps, seg.cps[after:]...)
		return nil
	})
}

// RemoveControlPoint removes an interior control point.
func (a *Arena) RemoveControlPoint(id SegmentID, i int) error {
	return a.editSegment(id, func(seg *Segment) error {
		if i < 1 || i > len(seg.cps) {
			return fmt.Errorf("%w: remove %d", ErrIndexOutOfRange, i)
		}
		cps := make([]hermite.ControlPoint, 0, len(seg.cps)-1)
		cps = append(cps, seg.cps[:i-1]...)
		seg.cps = append(cps, seg.cps[i:]...)
		return nil
	})
}

// MoveControlPoint moves an interior control point. In-node and out-node
// are moved with MoveNode.
func (a *Arena) MoveControlPoint(id SegmentID, i int, pos autopath.Pair) error {
	return a.editSegment(id, func(seg *Segment) error {
		if i < 1 || i > len(seg.cps) {
			return fmt.Errorf("%w: move %d", ErrIndexOutOfRange, i)
		}
		seg.cps[i-1].Pos = pos
		return nil
	})
}

// SetTangent sets the tangent of any control point of a segment's spline,
// including in-node and out-node.
func (a *Arena) SetTangent(id SegmentID, i int, tangent autopath.Pair) error {
	return a.editSegment(id, func(seg *Segment) error {
		switch {
		case i == 0:
			seg.inTangent = tangent
		case i == len(seg.cps)+1:
			seg.outTangent = tangent
		case i > 0 && i <= len(seg.cps):
			seg.cps[i-1].Tangent = tangent
		default:
			return fmt.Errorf("%w: tangent %d", ErrIndexOutOfRange, i)
		}
		return nil
	})
}

// SplitPiece inserts a control point in the middle of piece p of a
// segment's spline, taking over position and tangent of the spline there.
func (a *Arena) SplitPiece(id SegmentID, p int) error {
	seg, err := a.Segment(id)
	if err != nil {
		return err
	}
	spline := a.spline(seg)
	if p < 0 || p >= spline.Pieces() {
		return fmt.Errorf("%w: piece %d", ErrIndexOutOfRange, p)
	}
	cp := hermite.CP(
		hermite.Evaluate(spline[p], spline[p+1], 0.5),
		hermite.Tangent(spline[p], spline[p+1], 0.5),
	)
	return a.InsertControlPoint(id, p, cp)
}

// SmoothTangents replaces the tangents of all interior control points of a
// segment by those of a smooth curve through them.
func (a *Arena) SmoothTangents(id SegmentID) error {
	return a.editSegment(id, func(seg *Segment) error {
		smooth, err := hermite.SmoothTangents(a.spline(seg))
		if err != nil {
			return err
		}
		for i := range seg.cps {
			seg.cps[i].Tangent = smooth[i+1].Tangent
		}
		return nil
	})
}

// === Velocity and events ===================================================

// SetVelocity replaces the velocity profile of a segment. The profile is
// copied and renormalized to the segment's length.
func (a *Arena) SetVelocity(id SegmentID, profile velocity.Profile) error {
	if len(profile) < 2 {
		return ErrTooFewDatapoints
	}
	return a.editSegment(id, func(seg *Segment) error {
		seg.velocity = profile.Clone()
		return nil
	})
}

// AddDiscreteEvent adds a one-shot event to a segment. Its distance is
// clamped to the segment.
func (a *Arena) AddDiscreteEvent(id SegmentID, ev DiscreteEvent) error {
	return a.editSegment(id, func(seg *Segment) error {
		seg.discrete = append(seg.discrete, ev)
		return nil
	})
}

// AddContinuousEvent adds an auxiliary signal to a segment. Its sample
// distances are clamped to the segment.
func (a *Arena) AddContinuousEvent(id SegmentID, ev ContinuousEvent) error {
	return a.editSegment(id, func(seg *Segment) error {
		seg.continuous = append(seg.continuous, ev.clone())
		return nil
	})
}
