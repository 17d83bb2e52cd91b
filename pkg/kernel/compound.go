package kernel

import (
	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compound groups shapes without merging them.
type Compound struct {
	located
	children []Shape
}

// NewCompound groups shapes. Nil entries are dropped.
func NewCompound(shapes ...Shape) *Compound {
	c := &Compound{}
	for _, s := range shapes {
		if s != nil {
			c.children = append(c.children, s)
		}
	}
	return c
}

// Type implements Shape.
func (c *Compound) Type() ShapeType { return ShapeCompound }

// Children returns the grouped shapes in insertion order.
func (c *Compound) Children() []Shape { return c.children }

// Transform implements Shape.
func (c *Compound) Transform(p geom.Placement) {
	for _, s := range c.children {
		s.Transform(p)
	}
	c.locate(p)
}

// Copy implements Shape.
func (c *Compound) Copy() Shape {
	cc := &Compound{located: c.located, children: make([]Shape, len(c.children))}
	for i, s := range c.children {
		cc.children[i] = s.Copy()
	}
	return cc
}

// Edges implements Shape.
func (c *Compound) Edges() []*Edge {
	var out []*Edge
	for _, s := range c.children {
		out = append(out, s.Edges()...)
	}
	return out
}

// Wires implements Shape.
func (c *Compound) Wires() []*Wire {
	var out []*Wire
	for _, s := range c.children {
		out = append(out, s.Wires()...)
	}
	return out
}

// Faces implements Shape.
func (c *Compound) Faces() []*Face {
	var out []*Face
	for _, s := range c.children {
		out = append(out, s.Faces()...)
	}
	return out
}

// Solids implements Shape.
func (c *Compound) Solids() []*Solid {
	var out []*Solid
	for _, s := range c.children {
		out = append(out, s.Solids()...)
	}
	return out
}

// BoundingBox implements Shape.
func (c *Compound) BoundingBox() r3.Box { return boxOf(c.Edges()) }
