// Package kernel defines the shape data model and the abstract geometry
// kernel interface used by the frame builder. Implementations (brep, sdfx)
// provide face construction, extrusion, boolean fusion and meshing behind
// these interfaces, so backends can be swapped without touching the
// frame logic.
package kernel

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'kernel'
func tracer() tracing.Trace {
	return tracing.Select("kernel")
}

// Errors reported by kernel operations.
var (
	ErrOpenWire     = errors.New("kernel: wire is not closed")
	ErrNotPlanar    = errors.New("kernel: shape is not planar")
	ErrNullVector   = errors.New("kernel: null vector")
	ErrNoSolids     = errors.New("kernel: no solids")
	ErrDisconnected = errors.New("kernel: edges are not connected")
	ErrUnsupported  = errors.New("kernel: unsupported shape")
)

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Faces and grouping
	MakeFace(w *Wire) (*Face, error)
	MakeCompound(shapes ...Shape) *Compound

	// Solids
	Extrude(s Shape, v r3.Vec) (Shape, error)
	MultiFuse(solids []*Solid) (*Solid, error)
	RemoveSplitter(s *Solid) *Solid

	// Queries
	FindPlane(s Shape) (normal r3.Vec, ok bool)
	SortEdges(edges []*Edge) []*Edge
}

// Mesher converts shapes to triangle meshes for rendering and export.
type Mesher interface {
	ToMesh(s Shape) (*Mesh, error)
}
