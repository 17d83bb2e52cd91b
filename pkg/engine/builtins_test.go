package engine

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/archframe/pkg/frame"
	"github.com/chazu/archframe/pkg/graph"
	"github.com/chazu/archframe/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(frame "f" :fuse true)`,
			expect: `(frame "f" "__kw_fuse" true)`,
		},
		{
			name:   "multiple keywords",
			input:  `(placement :at p :angle 90)`,
			expect: `(placement "__kw_at" p "__kw_angle" 90)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def side-rail :base-point)`,
			expect: `(def side_rail "__kw_base-point")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative literal preserved",
			input:  `(vec3 0 -1 0)`,
			expect: `(vec3 0 -1 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:bottom-horizontal`,
			expect: `"__kw_bottom-horizontal"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// evalOK evaluates source and fails the test on any error.
func evalOK(t *testing.T, source string) *graph.Document {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if g == nil {
		t.Fatal("expected non-nil graph")
	}
	return g
}

// evalFails evaluates source and returns the first eval error message.
func evalFails(t *testing.T, source string) string {
	t.Helper()
	g, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if g != nil {
		t.Fatal("expected nil graph on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected an eval error")
	}
	return evalErrs[0].Message
}

// sourceShape returns the shape stored in the named source node.
func sourceShape(t *testing.T, g *graph.Document, name string) kernel.Shape {
	t.Helper()
	n := g.Lookup(name)
	if n == nil {
		t.Fatalf("expected node named %q", name)
	}
	sd, ok := n.Data.(graph.SourceData)
	if !ok {
		t.Fatalf("node %q: expected SourceData, got %T", name, n.Data)
	}
	return sd.Shape
}

// ---------------------------------------------------------------------------
// Frame scripts
// ---------------------------------------------------------------------------

const portalScript = `
(def outline (source "outline" (rect 400 300)))
(def section (source "section" (rect 20 20)))
(frame "portal" :path outline :profile section)
`

func TestSourceAndFrame(t *testing.T) {
	g := evalOK(t, portalScript)
	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}

	portal := g.Lookup("portal")
	if portal == nil {
		t.Fatal("expected node named 'portal'")
	}
	if portal.Kind != graph.NodeFrame {
		t.Errorf("expected NodeFrame, got %s", portal.Kind)
	}
	fd, ok := portal.Data.(graph.FrameData)
	if !ok {
		t.Fatalf("expected FrameData, got %T", portal.Data)
	}
	if fd.Path != g.NameIndex["outline"] || fd.Profile != g.NameIndex["section"] {
		t.Error("frame references do not point at the sources")
	}
	if !fd.CloneOf.IsZero() {
		t.Error("expected no clone source")
	}
	def := frame.DefaultParameters()
	if fd.Params.Align != def.Align || fd.Params.Edges != def.Edges || fd.Params.Fuse != def.Fuse {
		t.Errorf("expected default parameters, got %+v", fd.Params)
	}
	if !fd.Placement.IsIdentity() {
		t.Errorf("expected identity placement, got %s", fd.Placement)
	}
}

func TestFrameParameters(t *testing.T) {
	g := evalOK(t, `
(source "outline" (rect 400 300))
(source "section" (rect 20 20))
(frame "posts"
  :path (part "outline") :profile (part "section")
  :align false :offset (vec3 1 2 3) :base-point 4 :rotation 45
  :profile-placement (placement :at (vec3 -10 -10 0))
  :edges :bottom-horizontal :fuse true
  :placement (placement :at (vec3 0 0 100) :angle 90))
`)
	fd := g.MustLookup("posts").Data.(graph.FrameData)
	p := fd.Params
	if p.Align {
		t.Error("expected align=false")
	}
	if p.Offset.X != 1 || p.Offset.Y != 2 || p.Offset.Z != 3 {
		t.Errorf("offset = %v", p.Offset)
	}
	if p.BasePoint != 4 {
		t.Errorf("base-point = %d, want 4", p.BasePoint)
	}
	if p.Rotation != 45 {
		t.Errorf("rotation = %g, want 45", p.Rotation)
	}
	if p.ProfilePlacement.Base.X != -10 || p.ProfilePlacement.Base.Y != -10 {
		t.Errorf("profile-placement = %s", p.ProfilePlacement)
	}
	if p.Edges != frame.BottomHorizontalEdges {
		t.Errorf("edges = %s, want %s", p.Edges, frame.BottomHorizontalEdges)
	}
	if !p.Fuse {
		t.Error("expected fuse=true")
	}
	if fd.Placement.Base.Z != 100 {
		t.Errorf("placement base = %v", fd.Placement.Base)
	}
	_, angle := fd.Placement.Rotation.AxisAngle()
	if math.Abs(angle-math.Pi/2) > 1e-9 {
		t.Errorf("placement angle = %g, want pi/2", angle)
	}
}

func TestFrameClone(t *testing.T) {
	g := evalOK(t, portalScript+`
(frame "portal-copy" :clone-of (part "portal") :placement (vec3 0 500 0))
`)
	fd := g.MustLookup("portal-copy").Data.(graph.FrameData)
	if fd.CloneOf != g.NameIndex["portal"] {
		t.Error("clone-of does not reference the portal frame")
	}
	if fd.Placement.Base.Y != 500 {
		t.Errorf("vec3 placement not taken as translation: %s", fd.Placement)
	}
}

func TestVariableReference(t *testing.T) {
	g := evalOK(t, `
(def w 19)
(source "section" (rect w (* 2 w)))
`)
	box := sourceShape(t, g, "section").BoundingBox()
	if box.Max.X != 19 || box.Max.Y != 38 {
		t.Errorf("expected 19x38 rectangle from variable, got %v", box)
	}
}

func TestSourcePlacement(t *testing.T) {
	g := evalOK(t, `(source "lifted" (rect 10 10) :placement (placement :at (vec3 0 0 25)))`)
	n := g.MustLookup("lifted")
	sd := n.Data.(graph.SourceData)
	if sd.Placement.Base.Z != 25 {
		t.Errorf("placement base = %v", sd.Placement.Base)
	}
	box := sd.Shape.BoundingBox()
	if box.Min.Z != 25 || box.Max.Z != 25 {
		t.Errorf("shape was not moved to z=25: %v", box)
	}
}

// ---------------------------------------------------------------------------
// Geometry builtins
// ---------------------------------------------------------------------------

func TestGeometryBuiltins(t *testing.T) {
	g := evalOK(t, `
(source "rect" (rect 10 5))
(source "circle" (circle 3 :center (vec3 1 1 0)))
(source "open" (polyline (vec3 0 0 0) (vec3 10 0 0) (vec3 10 10 0)))
(source "tri" (polyline (vec3 0 0 0) (vec3 10 0 0) (vec3 0 10 0) :closed true))
(source "line" (line (vec3 0 0 0) (vec3 0 0 50)))
(source "arch" (wire (line (vec3 -10 0 0) (vec3 -10 0 20))
                     (arc :center (vec3 0 0 20) :start (vec3 -10 0 20) :angle 180 :axis (vec3 0 1 0))
                     (line (vec3 10 0 20) (vec3 10 0 0))))
(source "box" (box 1 2 3))
(source "pair" (compound (rect 1 1) (circle 1)))
(source "tube" (face (rect 10 10) (circle 2 :center (vec3 5 5 0))))
`)
	tests := []struct {
		name   string
		typ    kernel.ShapeType
		edges  int
		closed bool
	}{
		{"rect", kernel.ShapeWire, 4, true},
		{"circle", kernel.ShapeWire, 1, true},
		{"open", kernel.ShapeWire, 2, false},
		{"tri", kernel.ShapeWire, 3, true},
		{"line", kernel.ShapeWire, 1, false},
		{"arch", kernel.ShapeWire, 3, false},
		{"box", kernel.ShapeSolid, 12, false},
		{"pair", kernel.ShapeCompound, 5, false},
		{"tube", kernel.ShapeFace, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := sourceShape(t, g, tt.name)
			if sh.Type() != tt.typ {
				t.Errorf("type = %s, want %s", sh.Type(), tt.typ)
			}
			if n := len(sh.Edges()); n != tt.edges {
				t.Errorf("edges = %d, want %d", n, tt.edges)
			}
			if w, ok := sh.(*kernel.Wire); ok && w.IsClosed() != tt.closed {
				t.Errorf("closed = %v, want %v", w.IsClosed(), tt.closed)
			}
		})
	}

	tube := sourceShape(t, g, "tube").(*kernel.Face)
	want := 100 - math.Pi*4
	if math.Abs(tube.Area()-want) > 1e-6 {
		t.Errorf("tube area = %g, want %g", tube.Area(), want)
	}
	arch := sourceShape(t, g, "arch").BoundingBox()
	if math.Abs(arch.Max.Z-30) > 1e-9 {
		t.Errorf("arch apex = %g, want 30", arch.Max.Z)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown part", `(frame "f" :path (part "nope"))`, `no part named "nope"`},
		{"unknown keyword", `(frame "f" :colour 3)`, "unknown keyword :colour"},
		{"duplicate name", `(source "a" (rect 1 1)) (source "a" (rect 2 2))`, `name "a" already defined`},
		{"bad edge filter", `(frame "f" :edges :diagonal)`, `unknown edge filter "diagonal"`},
		{"base-point not integer", `(frame "f" :base-point 1.5)`, "expected integer"},
		{"path not a node", `(frame "f" :path (rect 1 1))`, "expected node reference"},
		{"negative rect", `(rect -1 2)`, "dimensions must be positive"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3 arguments"},
		{"null axis", `(placement :axis (vec3 0 0 0))`, "axis must not be null"},
		{"gap in wire", `(wire (line (vec3 0 0 0) (vec3 1 0 0)) (line (vec3 2 0 0) (vec3 3 0 0)))`, "not connected"},
		{"open face", `(face (polyline (vec3 0 0 0) (vec3 1 0 0) (vec3 1 1 0)))`, "not closed"},
		{"source without shape", `(source "s" 42)`, "expected shape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalFails(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Validation through Run
// ---------------------------------------------------------------------------

func TestRunReportsWarnings(t *testing.T) {
	res, err := NewEngine().Run(portalScript + `(source "spare" (circle 5))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(res.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if res.Graph == nil || res.Graph.NodeCount() != 4 {
		t.Fatalf("expected 4-node graph, got %v", res.Graph)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w.Message, `"spare"`) && w.NodeID == res.Graph.NameIndex["spare"] {
			found = true
		}
	}
	if !found {
		t.Errorf("expected orphan warning for spare, got %v", res.Warnings)
	}
}

func TestRunEvalError(t *testing.T) {
	res, err := NewEngine().Run(`(frame "f" :path (part "missing"))`)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if res.Graph != nil || len(res.Errors) == 0 {
		t.Errorf("expected eval error and no graph, got %+v", res)
	}
}

// ---------------------------------------------------------------------------
// Empty source produces empty graph (regression)
// ---------------------------------------------------------------------------

func TestEmptySourceStillWorks(t *testing.T) {
	g := evalOK(t, "")
	if g.NodeCount() != 0 {
		t.Errorf("expected empty graph, got %d nodes", g.NodeCount())
	}
}

// ---------------------------------------------------------------------------
// Plain arithmetic still works (regression)
// ---------------------------------------------------------------------------

func TestArithmeticStillWorks(t *testing.T) {
	evalOK(t, "(+ 1 2)")
}
