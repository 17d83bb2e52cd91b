package sdfx

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestBoxMesh(t *testing.T) {
	m := New(WithCells(40))
	mesh, err := m.ToMesh(kernel.NewBox(100, 50, 25))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}

	// Marching cubes stays within about one cell of the true surface.
	const tol = 100.0 / 40 * 1.5
	b := mesh.Bounds()
	want := r3.Box{Max: r3.Vec{X: 100, Y: 50, Z: 25}}
	for _, c := range []struct{ got, want float64 }{
		{b.Min.X, want.Min.X}, {b.Min.Y, want.Min.Y}, {b.Min.Z, want.Min.Z},
		{b.Max.X, want.Max.X}, {b.Max.Y, want.Max.Y}, {b.Max.Z, want.Max.Z},
	} {
		if math.Abs(c.got-c.want) > tol {
			t.Errorf("mesh bounds = %v, want about %v", b, want)
			break
		}
	}
}

func TestPrismEvaluate(t *testing.T) {
	field, err := New().SDF(kernel.NewBox(10, 10, 10))
	if err != nil {
		t.Fatalf("SDF failed: %v", err)
	}
	tests := []struct {
		name string
		p    v3.Vec
		want float64
	}{
		{"center", v3.Vec{X: 5, Y: 5, Z: 5}, -5},
		{"above top", v3.Vec{X: 5, Y: 5, Z: 12}, 2},
		{"beside", v3.Vec{X: 13, Y: 5, Z: 5}, 3},
		{"off corner", v3.Vec{X: 13, Y: 14, Z: 5}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := field.Evaluate(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%v) = %f, want %f", tt.p, got, tt.want)
			}
		})
	}
}

func TestObliquePrism(t *testing.T) {
	base := kernel.NewFace(kernel.NewRectangle(2, 2), geom.ZAxis)
	solid := kernel.NewPrismSolid(base, r3.Vec{X: 10, Z: 10})
	field, err := New().SDF(solid)
	if err != nil {
		t.Fatalf("SDF failed: %v", err)
	}
	bb := field.BoundingBox()
	if bb.Max.X != 12 || bb.Max.Z != 10 || bb.Min.X != 0 {
		t.Errorf("bounding box = %v, want x in [0,12], z up to 10", bb)
	}
	// Halfway up the sweep the section has moved by 5 along X.
	if d := field.Evaluate(v3.Vec{X: 6, Y: 1, Z: 5}); d >= 0 {
		t.Errorf("sheared center evaluates to %f, want inside", d)
	}
	if d := field.Evaluate(v3.Vec{X: 1, Y: 1, Z: 5}); d <= 0 {
		t.Errorf("unsheared center evaluates to %f, want outside", d)
	}
}

func TestHoledFace(t *testing.T) {
	hole := kernel.NewCircle(r3.Vec{X: 5, Y: 5}, geom.ZAxis, 2)
	base := kernel.NewFace(kernel.NewRectangle(10, 10), geom.ZAxis, hole)
	field, err := New().SDF(kernel.NewPrismSolid(base, r3.Vec{Z: 1}))
	if err != nil {
		t.Fatalf("SDF failed: %v", err)
	}
	if d := field.Evaluate(v3.Vec{X: 5, Y: 5, Z: 0.5}); d <= 0 {
		t.Errorf("hole center evaluates to %f, want outside", d)
	}
	if d := field.Evaluate(v3.Vec{X: 1, Y: 1, Z: 0.5}); d >= 0 {
		t.Errorf("solid corner evaluates to %f, want inside", d)
	}
}

func TestCompoundUnion(t *testing.T) {
	a := kernel.NewBox(10, 10, 10)
	b := kernel.NewBox(10, 10, 10)
	kernel.Translate(b, r3.Vec{X: 30})
	field, err := New().SDF(kernel.NewCompound(a, b))
	if err != nil {
		t.Fatalf("SDF failed: %v", err)
	}
	bb := field.BoundingBox()
	if bb.Min.X > 0 || bb.Max.X < 40 {
		t.Errorf("union bounding box = %v, want x in [0,40]", bb)
	}
	if d := field.Evaluate(v3.Vec{X: 20, Y: 5, Z: 5}); d <= 0 {
		t.Errorf("gap between boxes evaluates to %f, want outside", d)
	}
}

func TestNoSolids(t *testing.T) {
	m := New()
	for _, s := range []kernel.Shape{nil, kernel.NewRectangle(1, 1), kernel.NewCompound()} {
		if _, err := m.ToMesh(s); !errors.Is(err, kernel.ErrNoSolids) {
			t.Errorf("ToMesh(%v) error = %v, want ErrNoSolids", s, err)
		}
	}
}

func TestSaveSTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.stl")
	if err := New(WithCells(20)).SaveSTL(path, kernel.NewBox(1, 2, 3)); err != nil {
		t.Fatalf("SaveSTL failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("STL file is empty")
	}
}
