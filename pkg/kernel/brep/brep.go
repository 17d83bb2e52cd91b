// Package brep implements kernel.Kernel analytically on the kernel shape
// model. Faces are planar, solids are unions of straight prisms, and
// booleans are limited to what frame assembly needs: grouping lumps into
// one solid and merging prisms that continue each other.
package brep

import (
	"fmt"
	"math"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'kernel'
func tracer() tracing.Trace {
	return tracing.Select("kernel")
}

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// planeTolerance bounds the distance of a point from the fitted plane.
const planeTolerance = 1e-6

// arcStep is the angular step used when sampling arcs for plane fitting
// and face comparison.
const arcStep = math.Pi / 8

// Kernel is the analytic geometry kernel.
type Kernel struct{}

// New returns a new Kernel.
func New() *Kernel {
	return &Kernel{}
}

// MakeFace builds a planar face from a closed wire. The face normal follows
// the winding of the wire.
func (k *Kernel) MakeFace(w *kernel.Wire) (*kernel.Face, error) {
	if w == nil || !w.IsClosed() {
		return nil, kernel.ErrOpenWire
	}
	n, ok := k.FindPlane(w)
	if !ok {
		return nil, kernel.ErrNotPlanar
	}
	// Orient the normal by the winding: counter-clockwise seen from the tip.
	face := kernel.NewFace(w.Copy().(*kernel.Wire), r3.Scale(windingSign(w, n), n))
	if face.Area() <= geom.Confusion {
		return nil, fmt.Errorf("wire encloses no area: %w", kernel.ErrNotPlanar)
	}
	return face, nil
}

// windingSign returns +1 if w runs counter-clockwise around n.
func windingSign(w *kernel.Wire, n r3.Vec) float64 {
	pts := w.Points(arcStep)
	var a r3.Vec
	for i := range pts {
		a = r3.Add(a, r3.Cross(pts[i], pts[(i+1)%len(pts)]))
	}
	if r3.Dot(a, n) < 0 {
		return -1
	}
	return 1
}

// MakeCompound groups copies of shapes.
func (k *Kernel) MakeCompound(shapes ...kernel.Shape) *kernel.Compound {
	copies := make([]kernel.Shape, 0, len(shapes))
	for _, s := range shapes {
		if s != nil {
			copies = append(copies, s.Copy())
		}
	}
	return kernel.NewCompound(copies...)
}

// Extrude sweeps a face into a prism solid, or every face of a compound into
// a compound of solids.
func (k *Kernel) Extrude(s kernel.Shape, v r3.Vec) (kernel.Shape, error) {
	if geom.IsNull(v) {
		return nil, kernel.ErrNullVector
	}
	switch sh := s.(type) {
	case *kernel.Face:
		return kernel.NewPrismSolid(sh.Copy().(*kernel.Face), v), nil
	case *kernel.Compound:
		var solids []kernel.Shape
		for _, child := range sh.Children() {
			ex, err := k.Extrude(child, v)
			if err != nil {
				return nil, err
			}
			solids = append(solids, ex)
		}
		return kernel.NewCompound(solids...), nil
	case nil:
		return nil, fmt.Errorf("extrude nil shape: %w", kernel.ErrUnsupported)
	default:
		return nil, fmt.Errorf("extrude %s: %w", s.Type(), kernel.ErrUnsupported)
	}
}

// MultiFuse unites solids into one solid holding all their lumps.
func (k *Kernel) MultiFuse(solids []*kernel.Solid) (*kernel.Solid, error) {
	if len(solids) == 0 {
		return nil, kernel.ErrNoSolids
	}
	var lumps []kernel.Prism
	for _, s := range solids {
		c := s.Copy().(*kernel.Solid)
		lumps = append(lumps, c.Lumps()...)
	}
	tracer().Debugf("fused %d solids into %d lumps", len(solids), len(lumps))
	return kernel.NewSolid(lumps...), nil
}

// RemoveSplitter merges lumps that continue each other along a common
// direction through a shared cap, and drops duplicated lumps.
func (k *Kernel) RemoveSplitter(s *kernel.Solid) *kernel.Solid {
	lumps := append([]kernel.Prism(nil), s.Copy().(*kernel.Solid).Lumps()...)
	for merged := true; merged; {
		merged = false
	outer:
		for i := 0; i < len(lumps); i++ {
			for j := 0; j < len(lumps); j++ {
				if i == j {
					continue
				}
				a, b := lumps[i], lumps[j]
				if sameLump(a, b) {
					lumps = append(lumps[:j], lumps[j+1:]...)
					merged = true
					break outer
				}
				if continues(a, b) {
					lumps[i] = kernel.Prism{Base: a.Base, Dir: r3.Add(a.Dir, b.Dir)}
					lumps = append(lumps[:j], lumps[j+1:]...)
					merged = true
					break outer
				}
			}
		}
	}
	if n := len(s.Lumps()) - len(lumps); n > 0 {
		tracer().Debugf("removed %d splitting lumps", n)
	}
	return kernel.NewSolid(lumps...)
}

// sameLump reports whether a and b occupy the same volume.
func sameLump(a, b kernel.Prism) bool {
	if !geom.Coincident(a.Dir, b.Dir) {
		return false
	}
	return sameFace(a.Base, b.Base, r3.Vec{})
}

// continues reports whether b starts at the top cap of a and extends it in
// the same direction.
func continues(a, b kernel.Prism) bool {
	if !geom.Parallel(a.Dir, b.Dir) || r3.Dot(a.Dir, b.Dir) <= 0 {
		return false
	}
	return sameFace(a.Base, b.Base, a.Dir)
}

// sameFace reports whether g equals f moved by shift, comparing sampled
// boundary points as sets.
func sameFace(f, g *kernel.Face, shift r3.Vec) bool {
	fw, gw := f.Wires(), g.Wires()
	if len(fw) != len(gw) {
		return false
	}
	for i := range fw {
		fp, gp := fw[i].Points(arcStep), gw[i].Points(arcStep)
		if len(fp) != len(gp) {
			return false
		}
		for _, p := range fp {
			q := r3.Add(p, shift)
			found := false
			for _, c := range gp {
				if geom.Coincident(q, c) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

// FindPlane returns the unit normal of the plane containing all edges of s.
// The normal is oriented so that the first non-zero of its Z, Y and X
// components is positive. Collinear, point-like and non-planar shapes have
// no plane. Faces report their own normal.
func (k *Kernel) FindPlane(s kernel.Shape) (r3.Vec, bool) {
	if s == nil {
		return r3.Vec{}, false
	}
	if f, ok := s.(*kernel.Face); ok {
		return f.Normal(), true
	}
	edges := s.Edges()
	var pts []r3.Vec
	var axis r3.Vec
	for _, e := range edges {
		pts = append(pts, e.Points(arcStep)...)
		if e.Kind() == kernel.CurveArc && geom.IsNull(axis) {
			axis = e.Axis()
		}
	}
	if len(pts) == 0 {
		return r3.Vec{}, false
	}
	n, ok := fitPlane(pts)
	if !ok {
		if geom.IsNull(axis) {
			return r3.Vec{}, false
		}
		n = axis
	}
	origin := pts[0]
	for _, p := range pts {
		if math.Abs(r3.Dot(r3.Sub(p, origin), n)) > planeTolerance {
			return r3.Vec{}, false
		}
	}
	for _, e := range edges {
		if e.Kind() == kernel.CurveArc && !geom.Parallel(e.Axis(), n) {
			return r3.Vec{}, false
		}
	}
	return canonicalNormal(n), true
}

// fitPlane finds a normal from the first non-degenerate triangle of pts.
func fitPlane(pts []r3.Vec) (r3.Vec, bool) {
	origin := pts[0]
	var d r3.Vec
	for _, p := range pts[1:] {
		if v := r3.Sub(p, origin); !geom.IsNull(v) {
			d = v
			break
		}
	}
	if geom.IsNull(d) {
		return r3.Vec{}, false
	}
	best, bestNorm := r3.Vec{}, 0.0
	for _, p := range pts[1:] {
		c := r3.Cross(d, r3.Sub(p, origin))
		if l := r3.Norm(c); l > bestNorm {
			best, bestNorm = c, l
		}
	}
	if bestNorm <= geom.Confusion*r3.Norm(d) {
		return r3.Vec{}, false
	}
	return r3.Unit(best), true
}

func canonicalNormal(n r3.Vec) r3.Vec {
	for _, c := range []float64{n.Z, n.Y, n.X} {
		if math.Abs(c) > geom.Confusion {
			if c < 0 {
				return r3.Scale(-1, n)
			}
			return n
		}
	}
	return n
}

// SortEdges chains edges into connected order starting with the first edge.
// Edges are reversed where needed so each one starts at the end of the
// previous. When the chain cannot be continued a new chain starts with the
// next unused edge in input order.
func (k *Kernel) SortEdges(edges []*kernel.Edge) []*kernel.Edge {
	if len(edges) == 0 {
		return nil
	}
	used := make([]bool, len(edges))
	sorted := make([]*kernel.Edge, 0, len(edges))
	var tip r3.Vec
	for len(sorted) < len(edges) {
		next := -1
		reverse := false
		if len(sorted) > 0 {
			for i, e := range edges {
				if used[i] {
					continue
				}
				if geom.Coincident(e.FirstVertex(), tip) {
					next = i
					break
				}
				if geom.Coincident(e.LastVertex(), tip) {
					next, reverse = i, true
					break
				}
			}
		}
		if next < 0 {
			for i := range edges {
				if !used[i] {
					next = i
					break
				}
			}
		}
		used[next] = true
		e := edges[next]
		if reverse {
			e = e.Reversed()
		}
		sorted = append(sorted, e)
		tip = e.LastVertex()
	}
	return sorted
}
