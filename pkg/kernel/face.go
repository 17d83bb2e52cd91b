package kernel

import (
	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Face is a planar region bounded by an outer wire with optional holes.
type Face struct {
	located
	outer  *Wire
	holes  []*Wire
	normal r3.Vec
}

// NewFace returns the face bounded by outer with the given unit normal.
// Callers are expected to have checked that the wires are closed and lie in
// the plane; the brep kernel's MakeFace does this.
func NewFace(outer *Wire, normal r3.Vec, holes ...*Wire) *Face {
	return &Face{outer: outer, holes: holes, normal: r3.Unit(normal)}
}

// Type implements Shape.
func (f *Face) Type() ShapeType { return ShapeFace }

// Outer returns the outer boundary.
func (f *Face) Outer() *Wire { return f.outer }

// Holes returns the inner boundaries.
func (f *Face) Holes() []*Wire { return f.holes }

// Normal returns the unit plane normal.
func (f *Face) Normal() r3.Vec { return f.normal }

// Area returns the enclosed area minus the holes.
func (f *Face) Area() float64 {
	a := abs(r3.Dot(f.outer.areaVector(), f.normal))
	for _, h := range f.holes {
		a -= abs(r3.Dot(h.areaVector(), f.normal))
	}
	return a
}

// Transform implements Shape.
func (f *Face) Transform(p geom.Placement) {
	f.outer.Transform(p)
	for _, h := range f.holes {
		h.Transform(p)
	}
	f.normal = p.MultDir(f.normal)
	f.locate(p)
}

// Copy implements Shape.
func (f *Face) Copy() Shape {
	return f.copyFace()
}

func (f *Face) copyFace() *Face {
	c := &Face{located: f.located, outer: f.outer.copyWire(), normal: f.normal}
	for _, h := range f.holes {
		c.holes = append(c.holes, h.copyWire())
	}
	return c
}

// Edges implements Shape.
func (f *Face) Edges() []*Edge {
	edges := append([]*Edge(nil), f.outer.edges...)
	for _, h := range f.holes {
		edges = append(edges, h.edges...)
	}
	return edges
}

// Wires implements Shape. The outer wire comes first.
func (f *Face) Wires() []*Wire {
	return append([]*Wire{f.outer}, f.holes...)
}

// Faces implements Shape.
func (f *Face) Faces() []*Face { return []*Face{f} }

// Solids implements Shape.
func (f *Face) Solids() []*Solid { return nil }

// BoundingBox implements Shape.
func (f *Face) BoundingBox() r3.Box { return f.outer.BoundingBox() }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
