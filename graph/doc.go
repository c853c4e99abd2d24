/*
Package graph is the editable data model of an autonomous program: nodes
connected by path segments, forming a tree rooted at the start node.

Nodes and segments live in an Arena and reference each other by ID. Every
node but the start node has exactly one inbound segment and any number of
outbound segments (branches). Resetting the arena drops all of them at once.

Each segment carries a cubic Hermite spline (in-node, interior control
points, out-node), a velocity profile, events and flags. Its derived
artifacts, the arc-length index and the time index, are rebuilt by every
mutating operation of the arena, so they are always in sync with the
geometry:

    arena := graph.NewArena(autopath.P(0, 0), 0)
    seg, err := arena.AddPath(arena.Start(), autopath.P(10, 0))
    ...
    err = arena.SplitPiece(seg, 0)
    d := arena.MustSegment(seg).Derived()
    pose := d.ArcLength.Query(d.Length / 2)

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package graph

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.graph'
func tracer() tracing.Trace {
	return tracing.Select("autopath.graph")
}

var (
	// ErrNoSuchNode is returned for unknown or removed node IDs.
	ErrNoSuchNode = errors.New("no such node")
	// ErrNoSuchSegment is returned for unknown or removed segment IDs.
	ErrNoSuchSegment = errors.New("no such segment")
	// ErrStartNode flags operations not permitted on the start node.
	ErrStartNode = errors.New("operation not permitted on start node")
	// ErrDegenerateSegment flags segments of (near) zero length.
	ErrDegenerateSegment = errors.New("degenerate segment")
	// ErrIndexOutOfRange flags control point indices outside the spline.
	ErrIndexOutOfRange = errors.New("control point index out of range")
	// ErrTooFewDatapoints flags velocity profiles with less than 2 datapoints.
	ErrTooFewDatapoints = errors.New("velocity profile needs at least 2 datapoints")
	// ErrMalformedGraph is returned by Validate.
	ErrMalformedGraph = errors.New("malformed path graph")
)
