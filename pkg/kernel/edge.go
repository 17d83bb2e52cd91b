package kernel

import (
	"math"

	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// CurveKind distinguishes the supported edge curves.
type CurveKind int

const (
	CurveLine CurveKind = iota // straight segment
	CurveArc                   // circular arc or full circle
)

// Edge is a curve segment between two vertices. Lines are parameterised by
// arc length from the first vertex, arcs by the angle swept from the first
// vertex around the axis.
type Edge struct {
	located
	kind   CurveKind
	p0, p1 r3.Vec

	// arcs only
	center r3.Vec
	axis   r3.Vec // unit, sweep is right-handed about it
	xdir   r3.Vec // unit, from center towards p0
	radius float64
	sweep  float64 // radians in (0, 2π]
}

// NewLine returns the straight edge from a to b.
func NewLine(a, b r3.Vec) *Edge {
	return &Edge{kind: CurveLine, p0: a, p1: b}
}

// NewArc returns the arc around center starting at start and sweeping by
// angle radians about axis. A negative angle sweeps the other way round.
func NewArc(center, axis, start r3.Vec, angle float64) *Edge {
	axis = r3.Unit(axis)
	if angle < 0 {
		axis, angle = r3.Scale(-1, axis), -angle
	}
	if angle > 2*math.Pi {
		angle = 2 * math.Pi
	}
	radial := r3.Sub(start, center)
	// Drop any component along the axis so start lies in the arc plane.
	radial = r3.Sub(radial, r3.Scale(r3.Dot(radial, axis), axis))
	e := &Edge{
		kind:   CurveArc,
		center: center,
		axis:   axis,
		xdir:   r3.Unit(radial),
		radius: r3.Norm(radial),
		sweep:  angle,
	}
	e.p0 = e.PointAt(0)
	e.p1 = e.PointAt(angle)
	if angle == 2*math.Pi {
		e.p1 = e.p0
	}
	return e
}

// NewCircleEdge returns a full circle of the given radius around center in
// the plane with the given normal.
func NewCircleEdge(center, normal r3.Vec, radius float64) *Edge {
	rot, _ := geom.RotationByAxes(r3.Vec{}, r3.Vec{}, normal, "ZYX")
	start := r3.Add(center, r3.Scale(radius, rot.MultVec(geom.XAxis)))
	return NewArc(center, normal, start, 2*math.Pi)
}

// Type implements Shape.
func (e *Edge) Type() ShapeType { return ShapeEdge }

// Kind returns the curve kind.
func (e *Edge) Kind() CurveKind { return e.kind }

// Center returns the arc center. Lines report their midpoint.
func (e *Edge) Center() r3.Vec {
	if e.kind == CurveLine {
		return e.Midpoint()
	}
	return e.center
}

// Axis returns the arc axis. Lines report a null vector.
func (e *Edge) Axis() r3.Vec { return e.axis }

// Radius returns the arc radius. Lines report 0.
func (e *Edge) Radius() float64 { return e.radius }

// Sweep returns the swept angle of an arc in radians.
func (e *Edge) Sweep() float64 { return e.sweep }

// FirstParameter returns the parameter of the first vertex.
func (e *Edge) FirstParameter() float64 { return 0 }

// LastParameter returns the parameter of the last vertex.
func (e *Edge) LastParameter() float64 {
	if e.kind == CurveLine {
		return r3.Norm(r3.Sub(e.p1, e.p0))
	}
	return e.sweep
}

func (e *Edge) ydir() r3.Vec {
	return r3.Cross(e.axis, e.xdir)
}

// PointAt returns the point at parameter u.
func (e *Edge) PointAt(u float64) r3.Vec {
	if e.kind == CurveLine {
		d := r3.Sub(e.p1, e.p0)
		l := r3.Norm(d)
		if l == 0 {
			return e.p0
		}
		return r3.Add(e.p0, r3.Scale(u/l, d))
	}
	s, c := math.Sincos(u)
	return r3.Add(e.center, r3.Scale(e.radius, r3.Add(r3.Scale(c, e.xdir), r3.Scale(s, e.ydir()))))
}

// TangentAt returns the unit tangent at parameter u, pointing in the
// direction of increasing parameter.
func (e *Edge) TangentAt(u float64) r3.Vec {
	if e.kind == CurveLine {
		if geom.Coincident(e.p0, e.p1) {
			return r3.Vec{}
		}
		return r3.Unit(r3.Sub(e.p1, e.p0))
	}
	s, c := math.Sincos(u)
	return r3.Add(r3.Scale(-s, e.xdir), r3.Scale(c, e.ydir()))
}

// FirstVertex returns the start point.
func (e *Edge) FirstVertex() r3.Vec { return e.p0 }

// LastVertex returns the end point.
func (e *Edge) LastVertex() r3.Vec { return e.p1 }

// Vertexes returns the distinct vertices: two for open edges, one for a
// closed circle.
func (e *Edge) Vertexes() []r3.Vec {
	if e.IsClosed() {
		return []r3.Vec{e.p0}
	}
	return []r3.Vec{e.p0, e.p1}
}

// IsClosed reports whether the edge starts where it ends.
func (e *Edge) IsClosed() bool {
	return e.kind == CurveArc && geom.Coincident(e.p0, e.p1)
}

// Vector returns the chord from the first to the last vertex.
func (e *Edge) Vector() r3.Vec {
	return r3.Sub(e.p1, e.p0)
}

// Midpoint returns the point halfway along the edge.
func (e *Edge) Midpoint() r3.Vec {
	return e.PointAt((e.FirstParameter() + e.LastParameter()) / 2)
}

// Length returns the curve length.
func (e *Edge) Length() float64 {
	if e.kind == CurveLine {
		return r3.Norm(r3.Sub(e.p1, e.p0))
	}
	return e.radius * e.sweep
}

// CenterOfMass returns the centroid of the curve.
func (e *Edge) CenterOfMass() r3.Vec {
	if e.kind == CurveLine {
		return r3.Scale(0.5, r3.Add(e.p0, e.p1))
	}
	h := e.sweep / 2
	if math.Abs(math.Sin(h)) < 1e-12 {
		return e.center
	}
	s, c := math.Sincos(h)
	bisector := r3.Add(r3.Scale(c, e.xdir), r3.Scale(s, e.ydir()))
	return r3.Add(e.center, r3.Scale(e.radius*s/h, bisector))
}

// Reversed returns a copy running from the last vertex to the first.
func (e *Edge) Reversed() *Edge {
	if e.kind == CurveLine {
		r := NewLine(e.p1, e.p0)
		r.loc = e.loc
		return r
	}
	r := NewArc(e.center, r3.Scale(-1, e.axis), e.p1, e.sweep)
	r.loc = e.loc
	return r
}

// Points returns a polyline approximation with at least one segment per
// maxAngle radians of arc. Lines return their two vertices.
func (e *Edge) Points(maxAngle float64) []r3.Vec {
	if e.kind == CurveLine {
		return []r3.Vec{e.p0, e.p1}
	}
	n := int(math.Ceil(e.sweep / maxAngle))
	if n < 2 {
		n = 2
	}
	pts := make([]r3.Vec, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = e.PointAt(e.sweep * float64(i) / float64(n))
	}
	pts[n] = e.p1
	return pts
}

// Transform implements Shape.
func (e *Edge) Transform(p geom.Placement) {
	e.p0 = p.MultVec(e.p0)
	e.p1 = p.MultVec(e.p1)
	if e.kind == CurveArc {
		e.center = p.MultVec(e.center)
		e.axis = p.MultDir(e.axis)
		e.xdir = p.MultDir(e.xdir)
	}
	e.locate(p)
}

// Copy implements Shape.
func (e *Edge) Copy() Shape {
	c := *e
	return &c
}

// Edges implements Shape.
func (e *Edge) Edges() []*Edge { return []*Edge{e} }

// Wires implements Shape.
func (e *Edge) Wires() []*Wire { return nil }

// Faces implements Shape.
func (e *Edge) Faces() []*Face { return nil }

// Solids implements Shape.
func (e *Edge) Solids() []*Solid { return nil }

// BoundingBox implements Shape. Arc extremes are computed exactly.
func (e *Edge) BoundingBox() r3.Box {
	b := r3.Box{Min: e.p0, Max: e.p0}
	b = extendBox(b, e.p1)
	if e.kind == CurveLine {
		return b
	}
	y := e.ydir()
	comps := [3][2]float64{{e.xdir.X, y.X}, {e.xdir.Y, y.Y}, {e.xdir.Z, y.Z}}
	for _, c := range comps {
		if c[0] == 0 && c[1] == 0 {
			continue
		}
		u := math.Atan2(c[1], c[0])
		for _, cand := range []float64{u, u + math.Pi, u - math.Pi, u + 2*math.Pi} {
			if cand >= 0 && cand <= e.sweep {
				b = extendBox(b, e.PointAt(cand))
			}
		}
	}
	return b
}
