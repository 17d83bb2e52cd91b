package kernel

import (
	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// Prism is the volume swept by a planar face along a straight vector.
type Prism struct {
	Base *Face
	Dir  r3.Vec
}

// Volume returns the swept volume.
func (p Prism) Volume() float64 {
	return p.Base.Area() * abs(r3.Dot(p.Dir, p.Base.Normal()))
}

// Top returns a copy of the base face moved to the far end of the sweep.
func (p Prism) Top() *Face {
	top := p.Base.copyFace()
	top.Transform(geom.Translation(p.Dir))
	return top
}

// Solid is a closed volume made of one or more prism lumps. A solid built
// by extruding one face has one lump; fused solids hold the lumps of all
// their operands.
type Solid struct {
	located
	lumps []Prism
}

// NewPrismSolid returns the solid swept by base along dir.
func NewPrismSolid(base *Face, dir r3.Vec) *Solid {
	return &Solid{lumps: []Prism{{Base: base, Dir: dir}}}
}

// NewSolid returns a solid made of the given lumps.
func NewSolid(lumps ...Prism) *Solid {
	return &Solid{lumps: lumps}
}

// NewBox returns an axis-aligned box with one corner at the origin.
func NewBox(x, y, z float64) *Solid {
	base := NewFace(NewRectangle(x, y), geom.ZAxis)
	return NewPrismSolid(base, r3.Vec{Z: z})
}

// Type implements Shape.
func (s *Solid) Type() ShapeType { return ShapeSolid }

// Lumps returns the prisms making up the solid.
func (s *Solid) Lumps() []Prism { return s.lumps }

// Volume returns the summed lump volume.
func (s *Solid) Volume() float64 {
	var v float64
	for _, l := range s.lumps {
		v += l.Volume()
	}
	return v
}

// Transform implements Shape.
func (s *Solid) Transform(p geom.Placement) {
	for i := range s.lumps {
		s.lumps[i].Base.Transform(p)
		s.lumps[i].Dir = p.MultDir(s.lumps[i].Dir)
	}
	s.locate(p)
}

// Copy implements Shape.
func (s *Solid) Copy() Shape {
	c := &Solid{located: s.located, lumps: make([]Prism, len(s.lumps))}
	for i, l := range s.lumps {
		c.lumps[i] = Prism{Base: l.Base.copyFace(), Dir: l.Dir}
	}
	return c
}

// Edges implements Shape. For each lump: base edges, top edges, then one
// lateral seam per base vertex.
func (s *Solid) Edges() []*Edge {
	var edges []*Edge
	for _, l := range s.lumps {
		edges = append(edges, l.Base.Edges()...)
		edges = append(edges, l.Top().Edges()...)
		for _, w := range l.Base.Wires() {
			for _, v := range w.Vertexes() {
				edges = append(edges, NewLine(v, r3.Add(v, l.Dir)))
			}
		}
	}
	return edges
}

// Wires implements Shape.
func (s *Solid) Wires() []*Wire {
	var wires []*Wire
	for _, f := range s.Faces() {
		wires = append(wires, f.Wires()...)
	}
	return wires
}

// Faces implements Shape. Only the planar caps are reported.
func (s *Solid) Faces() []*Face {
	var faces []*Face
	for _, l := range s.lumps {
		faces = append(faces, l.Base, l.Top())
	}
	return faces
}

// Solids implements Shape.
func (s *Solid) Solids() []*Solid { return []*Solid{s} }

// BoundingBox implements Shape.
func (s *Solid) BoundingBox() r3.Box { return boxOf(s.Edges()) }
