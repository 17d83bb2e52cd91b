// Package sdfx implements kernel.Mesher using the github.com/deadsy/sdfx
// SDF-based CAD library. Each prism lump of a solid becomes a signed
// distance field; lumps and solids are unioned and rendered with marching
// cubes.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/archframe/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface check.
var _ kernel.Mesher = (*Mesher)(nil)

// defaultMeshCells controls marching cubes tessellation resolution.
const defaultMeshCells = 200

// arcStep is the angular resolution used to turn arcs into polygons.
const arcStep = math.Pi / 32

// Mesher renders kernel shapes through sdfx.
type Mesher struct {
	cells int
}

// Option configures a Mesher.
type Option func(*Mesher)

// WithCells sets the marching cubes resolution along the longest side of
// the bounding box.
func WithCells(n int) Option {
	return func(m *Mesher) {
		if n > 0 {
			m.cells = n
		}
	}
}

// New returns a new Mesher.
func New(opts ...Option) *Mesher {
	m := &Mesher{cells: defaultMeshCells}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SDF converts the solids of s into one signed distance field.
func (m *Mesher) SDF(s kernel.Shape) (sdf.SDF3, error) {
	if s == nil {
		return nil, kernel.ErrNoSolids
	}
	var parts []sdf.SDF3
	for _, solid := range s.Solids() {
		for _, lump := range solid.Lumps() {
			p, err := newPrism(lump)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
	}
	switch len(parts) {
	case 0:
		return nil, kernel.ErrNoSolids
	case 1:
		return parts[0], nil
	default:
		return sdf.Union3D(parts...), nil
	}
}

func (m *Mesher) triangles(s kernel.Shape) ([]*sdf.Triangle3, error) {
	field, err := m.SDF(s)
	if err != nil {
		return nil, err
	}
	renderer := render.NewMarchingCubesUniform(m.cells)
	return render.ToTriangles(field, renderer), nil
}

// ToMesh converts the solids of a shape to a triangle mesh using marching
// cubes.
func (m *Mesher) ToMesh(s kernel.Shape) (*kernel.Mesh, error) {
	triangles, err := m.triangles(s)
	if err != nil {
		return nil, err
	}

	numTri := len(triangles)
	numVerts := numTri * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}, nil
}

// SaveSTL renders the solids of s and writes them to path as binary STL.
func (m *Mesher) SaveSTL(path string, s kernel.Shape) error {
	triangles, err := m.triangles(s)
	if err != nil {
		return err
	}
	if err := render.SaveSTL(path, triangles); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// prism is the distance field of a planar face swept along a vector. Points
// are mapped into the skewed frame (u, v, dir) anchored at the base origin:
// (a, b) is the position in the base plane along dir, t the fraction of the
// sweep.
type prism struct {
	origin r3.Vec
	inv    *r3.Mat
	height float64
	base   sdf.SDF2
	bb     sdf.Box3
}

func newPrism(l kernel.Prism) (*prism, error) {
	n := l.Base.Normal()
	height := math.Abs(r3.Dot(l.Dir, n))
	if height < 1e-9 {
		return nil, fmt.Errorf("prism swept inside its base plane: %w", kernel.ErrNullVector)
	}
	outer := l.Base.Outer().Points(arcStep)
	origin := outer[0]
	u := r3.Unit(r3.Sub(outer[1], origin))
	v := r3.Cross(n, u)

	frame := mat.NewDense(3, 3, []float64{
		u.X, v.X, l.Dir.X,
		u.Y, v.Y, l.Dir.Y,
		u.Z, v.Z, l.Dir.Z,
	})
	var inv mat.Dense
	if err := inv.Inverse(frame); err != nil {
		return nil, fmt.Errorf("prism frame: %w", err)
	}
	p := &prism{
		origin: origin,
		inv:    r3.NewMat(inv.RawMatrix().Data),
		height: height,
	}

	project := func(pts []r3.Vec) []v2.Vec {
		out := make([]v2.Vec, len(pts))
		for i, q := range pts {
			d := r3.Sub(q, origin)
			out[i] = v2.Vec{X: r3.Dot(d, u), Y: r3.Dot(d, v)}
		}
		return out
	}
	base, err := sdf.Polygon2D(project(outer))
	if err != nil {
		return nil, fmt.Errorf("prism base: %w", err)
	}
	for _, h := range l.Base.Holes() {
		hole, err := sdf.Polygon2D(project(h.Points(arcStep)))
		if err != nil {
			return nil, fmt.Errorf("prism hole: %w", err)
		}
		base = sdf.Difference2D(base, hole)
	}
	p.base = base

	lo, hi := origin, origin
	for _, q := range outer {
		for _, c := range []r3.Vec{q, r3.Add(q, l.Dir)} {
			lo = r3.Vec{X: math.Min(lo.X, c.X), Y: math.Min(lo.Y, c.Y), Z: math.Min(lo.Z, c.Z)}
			hi = r3.Vec{X: math.Max(hi.X, c.X), Y: math.Max(hi.Y, c.Y), Z: math.Max(hi.Z, c.Z)}
		}
	}
	p.bb = sdf.Box3{Min: toV3(lo), Max: toV3(hi)}
	return p, nil
}

// Evaluate returns the approximate signed distance from q to the prism.
func (p *prism) Evaluate(q v3.Vec) float64 {
	local := p.inv.MulVec(r3.Sub(fromV3(q), p.origin))
	d2 := p.base.Evaluate(v2.Vec{X: local.X, Y: local.Y})
	// Distance along the sweep, measured in height units.
	h := local.Z * p.height
	dz := math.Abs(h-p.height/2) - p.height/2
	inside := math.Min(math.Max(d2, dz), 0)
	outside := math.Hypot(math.Max(d2, 0), math.Max(dz, 0))
	return inside + outside
}

// BoundingBox returns the bounding box of the prism.
func (p *prism) BoundingBox() sdf.Box3 {
	return p.bb
}

func toV3(v r3.Vec) v3.Vec {
	return v3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromV3(v v3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}
