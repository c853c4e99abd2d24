/*
Package field describes the area a robot may drive in, as a closed polygon.

Polygons are built from knots, or as a box:

    field := field.NullPolygon().Knot(P(0,0)).Knot(P(27,0)).Knot(P(27,54)).Knot(P(0,54)).Cycle()
    field := field.Box(P(0,0), P(27,54))

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package field

import (
	"fmt"
	"strings"

	polyclip "github.com/akavel/polyclip-go"
	"github.com/npillmayer/autopath"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.field'
func tracer() tracing.Trace {
	return tracing.Select("autopath.field")
}

// Polygon is a closed contour. Use the builder functions to create one.
type Polygon struct {
	contour polyclip.Contour
	closed  bool
}

// NullPolygon starts a polygon without any knots.
func NullPolygon() *Polygon {
	return &Polygon{}
}

// Knot appends a corner. Part of builder functionality.
func (pg *Polygon) Knot(p autopath.Pair) *Polygon {
	if pg.closed {
		panic("cannot add knots to a closed polygon")
	}
	pg.contour.Add(polyclip.Point{X: p.X(), Y: p.Y()})
	return pg
}

// Cycle closes the polygon. Part of builder functionality.
func (pg *Polygon) Cycle() *Polygon {
	if len(pg.contour) < 3 {
		panic("a polygon needs at least 3 knots")
	}
	pg.closed = true
	return pg
}

// Box creates a rectangle from two opposite corners.
func Box(a, b autopath.Pair) *Polygon {
	minx, maxx := minmax(a.X(), b.X())
	miny, maxy := minmax(a.Y(), b.Y())
	return NullPolygon().
		Knot(autopath.P(minx, miny)).
		Knot(autopath.P(maxx, miny)).
		Knot(autopath.P(maxx, maxy)).
		Knot(autopath.P(minx, maxy)).Cycle()
}

func minmax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// N is the number of knots.
func (pg *Polygon) N() int {
	return len(pg.contour)
}

// Knots returns the corners of the polygon.
func (pg *Polygon) Knots() []autopath.Pair {
	pts := make([]autopath.Pair, len(pg.contour))
	for i, p := range pg.contour {
		pts[i] = autopath.P(p.X, p.Y)
	}
	return pts
}

// AsString returns a polygon as a (debugging) string.
func AsString(pg *Polygon) string {
	var b strings.Builder
	for i, p := range pg.contour {
		if i > 0 {
			b.WriteString(" -- ")
		}
		fmt.Fprintf(&b, "(%g,%g)", p.X, p.Y)
	}
	if pg.closed {
		b.WriteString(" -- cycle")
	}
	return b.String()
}

// BoundingBox returns the lower left and upper right corner of the
// polygon's bounding box.
func (pg *Polygon) BoundingBox() (autopath.Pair, autopath.Pair) {
	r := pg.contour.BoundingBox()
	return autopath.P(r.Min.X, r.Min.Y), autopath.P(r.Max.X, r.Max.Y)
}

// Contains is true if p lies inside the polygon.
func (pg *Polygon) Contains(p autopath.Pair) bool {
	if pg.onEdge(p) {
		return true
	}
	return pg.contour.Contains(polyclip.Point{X: p.X(), Y: p.Y()})
}

func (pg *Polygon) onEdge(p autopath.Pair) bool {
	return pg.nearestOnEdge(p).Distance(p) <= autopath.Epsilon
}

// nearestOnEdge projects p onto the closest edge of the polygon.
func (pg *Polygon) nearestOnEdge(p autopath.Pair) autopath.Pair {
	knots := pg.Knots()
	best, bestDist := knots[0], -1.0
	for i := range knots {
		a, b := knots[i], knots[(i+1)%len(knots)]
		edge := b - a
		t := 0.0
		if l2 := edge.Dot(edge); l2 > 0 {
			t = autopath.Clamp(0, 1, (p-a).Dot(edge)/l2)
		}
		q := a + edge.Scaled(t)
		if d := q.Distance(p); bestDist < 0 || d < bestDist {
			best, bestDist = q, d
		}
	}
	return best
}

// Clamp returns p if it lies inside the polygon, else the closest point on
// the polygon's border. The second return value flags whether p has been
// moved.
func (pg *Polygon) Clamp(p autopath.Pair) (autopath.Pair, bool) {
	if pg.Contains(p) {
		return p, false
	}
	q := pg.nearestOnEdge(p)
	tracer().Debugf("clamped %s to field border at %s", p, q)
	return q, true
}
