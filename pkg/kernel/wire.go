package kernel

import (
	"fmt"
	"math"

	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Wire is a connected chain of edges. Each edge starts where the previous
// one ends.
type Wire struct {
	located
	edges []*Edge
}

// NewWire chains edges into a wire. Edges are taken in the given order and
// must already be oriented head to tail.
func NewWire(edges ...*Edge) (*Wire, error) {
	if len(edges) == 0 {
		return nil, fmt.Errorf("empty wire: %w", ErrDisconnected)
	}
	for i := 1; i < len(edges); i++ {
		if !geom.Coincident(edges[i-1].LastVertex(), edges[i].FirstVertex()) {
			return nil, fmt.Errorf("edge %d does not start at end of edge %d: %w", i, i-1, ErrDisconnected)
		}
	}
	return &Wire{edges: edges}, nil
}

// NewPolyline returns a wire of straight segments through pts. If closed is
// set, a closing segment back to the first point is added unless the last
// point already coincides with it.
func NewPolyline(closed bool, pts ...r3.Vec) (*Wire, error) {
	if len(pts) < 2 {
		return nil, fmt.Errorf("polyline needs at least 2 points, got %d", len(pts))
	}
	var edges []*Edge
	for i := 1; i < len(pts); i++ {
		if geom.Coincident(pts[i-1], pts[i]) {
			continue
		}
		edges = append(edges, NewLine(pts[i-1], pts[i]))
	}
	if closed && !geom.Coincident(pts[len(pts)-1], pts[0]) {
		edges = append(edges, NewLine(pts[len(pts)-1], pts[0]))
	}
	return NewWire(edges...)
}

// NewRectangle returns the closed w×h rectangle in the XY plane with one
// corner at the origin, running counter-clockwise.
func NewRectangle(w, h float64) *Wire {
	wire, _ := NewPolyline(true,
		r3.Vec{},
		r3.Vec{X: w},
		r3.Vec{X: w, Y: h},
		r3.Vec{Y: h},
	)
	return wire
}

// NewCircle returns a closed circular wire.
func NewCircle(center, normal r3.Vec, radius float64) *Wire {
	return &Wire{edges: []*Edge{NewCircleEdge(center, normal, radius)}}
}

// Type implements Shape.
func (w *Wire) Type() ShapeType { return ShapeWire }

// IsClosed reports whether the wire ends where it starts.
func (w *Wire) IsClosed() bool {
	if len(w.edges) == 0 {
		return false
	}
	return geom.Coincident(w.edges[0].FirstVertex(), w.edges[len(w.edges)-1].LastVertex())
}

// Length returns the summed edge length.
func (w *Wire) Length() float64 {
	var l float64
	for _, e := range w.edges {
		l += e.Length()
	}
	return l
}

// Points returns a polyline approximation of the wire. For closed wires the
// first point is not repeated at the end.
func (w *Wire) Points(maxAngle float64) []r3.Vec {
	var pts []r3.Vec
	for i, e := range w.edges {
		ep := e.Points(maxAngle)
		if i > 0 {
			ep = ep[1:]
		}
		pts = append(pts, ep...)
	}
	if w.IsClosed() && len(pts) > 1 {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// Vertexes returns the distinct vertices of the wire in chain order.
func (w *Wire) Vertexes() []r3.Vec {
	var vs []r3.Vec
	for i, e := range w.edges {
		if i == 0 {
			vs = append(vs, e.FirstVertex())
		}
		if i == len(w.edges)-1 && w.IsClosed() {
			break
		}
		vs = append(vs, e.LastVertex())
	}
	return vs
}

// Transform implements Shape.
func (w *Wire) Transform(p geom.Placement) {
	for _, e := range w.edges {
		e.Transform(p)
	}
	w.locate(p)
}

// Copy implements Shape.
func (w *Wire) Copy() Shape {
	return w.copyWire()
}

func (w *Wire) copyWire() *Wire {
	c := &Wire{located: w.located, edges: make([]*Edge, len(w.edges))}
	for i, e := range w.edges {
		c.edges[i] = e.Copy().(*Edge)
	}
	return c
}

// Edges implements Shape.
func (w *Wire) Edges() []*Edge { return w.edges }

// Wires implements Shape.
func (w *Wire) Wires() []*Wire { return []*Wire{w} }

// Faces implements Shape.
func (w *Wire) Faces() []*Face { return nil }

// Solids implements Shape.
func (w *Wire) Solids() []*Solid { return nil }

// BoundingBox implements Shape.
func (w *Wire) BoundingBox() r3.Box { return boxOf(w.edges) }

// newell returns the area vector of the polygon through pts: its direction
// is the polygon normal, its length twice the enclosed area.
func newell(pts []r3.Vec) r3.Vec {
	var n r3.Vec
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// areaVector returns the oriented area of a closed wire, with arcs handled
// exactly: the chord polygon plus each circular segment.
func (w *Wire) areaVector() r3.Vec {
	chord := make([]r3.Vec, 0, len(w.edges)+1)
	for _, e := range w.edges {
		chord = append(chord, e.FirstVertex())
	}
	a := r3.Scale(0.5, newell(chord))
	for _, e := range w.edges {
		if e.kind != CurveArc {
			continue
		}
		// Circular segment between arc and chord.
		seg := e.radius * e.radius * (e.sweep - math.Sin(e.sweep)) / 2
		a = r3.Add(a, r3.Scale(seg, e.axis))
	}
	return a
}
