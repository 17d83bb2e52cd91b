package kernel

import (
	"math"

	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// ShapeType enumerates the topological shape kinds.
type ShapeType int

const (
	ShapeEdge     ShapeType = iota // single curve segment
	ShapeWire                      // connected chain of edges
	ShapeFace                      // planar region bounded by wires
	ShapeSolid                     // closed volume
	ShapeCompound                  // grouping of shapes
)

func (t ShapeType) String() string {
	switch t {
	case ShapeEdge:
		return "edge"
	case ShapeWire:
		return "wire"
	case ShapeFace:
		return "face"
	case ShapeSolid:
		return "solid"
	case ShapeCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Shape is a located piece of geometry. Geometry is stored in world
// coordinates; the placement records the transforms applied to the shape
// since it was built, the way a B-rep location does.
type Shape interface {
	Type() ShapeType
	Placement() geom.Placement

	// Transform moves the geometry by p and composes p into the placement.
	Transform(p geom.Placement)

	// Copy returns a deep copy sharing no state with the receiver.
	Copy() Shape

	// Sub-shapes, in construction order.
	Edges() []*Edge
	Wires() []*Wire
	Faces() []*Face
	Solids() []*Solid

	BoundingBox() r3.Box
}

// located carries a shape's placement.
type located struct {
	loc geom.Placement
}

// Placement returns the accumulated placement.
func (l *located) Placement() geom.Placement {
	return l.loc
}

func (l *located) locate(p geom.Placement) {
	l.loc = p.Multiply(l.loc)
}

// Translate moves s by v.
func Translate(s Shape, v r3.Vec) {
	s.Transform(geom.Translation(v))
}

// Rotate rotates s by angle degrees about the axis through center with
// direction axis.
func Rotate(s Shape, center, axis r3.Vec, angle float64) {
	s.Transform(geom.RotationAbout(center, axis, angle))
}

// SetPlacement replaces the placement of s, moving its geometry along.
func SetPlacement(s Shape, p geom.Placement) {
	s.Transform(p.Multiply(s.Placement().Inverse()))
}

// IsEmpty reports whether s is nil or holds no edges at all.
func IsEmpty(s Shape) bool {
	return s == nil || len(s.Edges()) == 0
}

// CenterOfMass returns the length-weighted centroid of the edges of s.
func CenterOfMass(s Shape) r3.Vec {
	var sum r3.Vec
	var total float64
	for _, e := range s.Edges() {
		l := e.Length()
		sum = r3.Add(sum, r3.Scale(l, e.CenterOfMass()))
		total += l
	}
	if total == 0 {
		return sum
	}
	return r3.Scale(1/total, sum)
}

func extendBox(b r3.Box, p r3.Vec) r3.Box {
	return r3.Box{
		Min: r3.Vec{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// boxOf returns the bounding box of a list of edges. Unlike r3.Box.Union
// it accepts flat boxes.
func boxOf(edges []*Edge) r3.Box {
	if len(edges) == 0 {
		return r3.Box{}
	}
	b := edges[0].BoundingBox()
	for _, e := range edges[1:] {
		eb := e.BoundingBox()
		b = extendBox(extendBox(b, eb.Min), eb.Max)
	}
	return b
}
