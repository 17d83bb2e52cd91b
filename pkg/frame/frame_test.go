package frame

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/chazu/archframe/pkg/kernel/brep"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func wire(t *testing.T, pts ...r3.Vec) *kernel.Wire {
	t.Helper()
	w, err := kernel.NewPolyline(false, pts...)
	require.NoError(t, err)
	return w
}

func boxes(s kernel.Shape) []r3.Box {
	var out []r3.Box
	for _, solid := range s.Solids() {
		out = append(out, solid.BoundingBox())
	}
	return out
}

func newFrame(path, profile kernel.Shape, opts ...Option) *Frame {
	return New("test", NewSource("path", path), NewSource("profile", profile), opts...)
}

// countingWarner records warnings.
type countingWarner struct {
	msgs []string
}

func (w *countingWarner) Warn(msg string) { w.msgs = append(w.msgs, msg) }

func TestScenarioSingleVerticalEdge(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	path := wire(t, r3.Vec{}, r3.Vec{Z: 10})
	f := newFrame(path, kernel.NewRectangle(1, 1))
	require.True(t, f.Execute())

	res := f.Result()
	require.NotNil(t, res)
	c, ok := res.Shape.(*kernel.Compound)
	require.True(t, ok, "unfused result is a compound, got %T", res.Shape)
	require.Len(t, c.Solids(), 1)
	assert.InDelta(t, 10, c.Solids()[0].Volume(), 1e-9)
	want := []r3.Box{{Max: r3.Vec{X: 1, Y: 1, Z: 10}}}
	if diff := cmp.Diff(want, boxes(res.Shape), approx); diff != "" {
		t.Errorf("solid bounds mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, res.Placement.IsIdentity())
}

func TestScenarioFusedCylinders(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	path := kernel.NewCompound(
		wire(t, r3.Vec{}, r3.Vec{Z: 5}),
		wire(t, r3.Vec{X: 10}, r3.Vec{X: 10, Z: 5}),
	)
	f := newFrame(path, kernel.NewCircle(r3.Vec{}, geom.ZAxis, 1))
	f.Params.Fuse = true
	require.True(t, f.Execute())

	solid, ok := f.Shape().(*kernel.Solid)
	require.True(t, ok, "fused result is a single solid, got %T", f.Shape())
	assert.Len(t, solid.Lumps(), 2)
	assert.InDelta(t, 10*math.Pi, solid.Volume(), 1e-9)
	want := []r3.Box{{
		Min: r3.Vec{X: -1, Y: -1},
		Max: r3.Vec{X: 11, Y: 1, Z: 5},
	}}
	if diff := cmp.Diff(want, boxes(solid), approx); diff != "" {
		t.Errorf("fused bounds mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarioSolidPath(t *testing.T) {
	box := kernel.NewBox(2, 3, 4)
	f := newFrame(box, nil)
	f.Params.Fuse = true
	f.Params.Edges = TopHorizontalEdges
	require.True(t, f.Execute())

	got := f.Shape().(*kernel.Solid)
	assert.NotSame(t, box, got)
	assert.InDelta(t, box.Volume(), got.Volume(), 1e-12)
	if diff := cmp.Diff(box.BoundingBox(), got.BoundingBox(), approx); diff != "" {
		t.Errorf("copied solid moved (-want +got):\n%s", diff)
	}

	// A frame placement is composed onto the solid's own placement.
	kernel.Translate(box, r3.Vec{X: 1})
	f.Placement = geom.Translation(r3.Vec{Z: 10})
	res, err := f.Compute()
	require.NoError(t, err)
	assert.True(t, res.Placement.Equal(geom.Translation(r3.Vec{X: 1, Z: 10}), 1e-12))
	assert.InDelta(t, 10, res.Shape.BoundingBox().Min.Z, 1e-12)
}

func TestScenarioOpenProfileKeepsPrevious(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	path := wire(t, r3.Vec{}, r3.Vec{Z: 10})
	f := newFrame(path, kernel.NewRectangle(1, 1))
	require.True(t, f.Execute())
	before := f.Result()

	f.Profile = NewSource("open", wire(t, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 1, Y: 1}))
	assert.False(t, f.Execute())
	assert.Same(t, before, f.Result())

	_, err := f.Compute()
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.ErrorIs(t, err, ErrAborted)
}

func TestAbortReasons(t *testing.T) {
	path := wire(t, r3.Vec{}, r3.Vec{X: 5})
	square := kernel.NewRectangle(1, 1)
	skew, err := kernel.NewPolyline(true, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 1, Y: 1}, r3.Vec{Y: 1, Z: 1})
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    Shaper
		profile Shaper
		edges   EdgeFilter
		want    error
	}{
		{"no path", nil, NewSource("p", square), AllEdges, ErrMissingInput},
		{"empty path", NewSource("p", kernel.NewCompound()), NewSource("p", square), AllEdges, ErrMissingInput},
		{"path without wires", NewSource("p", line(0, 0, 0, 1, 0, 0)), NewSource("p", square), AllEdges, ErrMissingInput},
		{"no profile", NewSource("p", path), nil, AllEdges, ErrMissingInput},
		{"empty profile", NewSource("p", path), NewSource("p", nil), AllEdges, ErrMissingInput},
		{"skew profile", NewSource("p", path), NewSource("p", skew), AllEdges, ErrInvalidGeometry},
		{"nothing selected", NewSource("p", path), NewSource("p", square), VerticalEdges, ErrEmptySelection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New("f", tt.path, tt.profile)
			f.Params.Edges = tt.edges
			res, err := f.Compute()
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, errors.Is(err, ErrAborted))
			assert.False(t, f.Execute())
			assert.Nil(t, f.Shape())
		})
	}
}

func TestAlignmentGolden(t *testing.T) {
	// A 5×3 rectangle path in the XY plane has normal +Z. The 2×1 profile
	// stands up on each horizontal edge: local X along world Y (mirrored on
	// the return edge), local Y up, local Z along the edge.
	f := newFrame(kernel.NewRectangle(5, 3), kernel.NewRectangle(2, 1))
	f.Params.Edges = HorizontalEdges
	res, err := f.Compute()
	require.NoError(t, err)

	want := []r3.Box{
		{Min: r3.Vec{}, Max: r3.Vec{X: 5, Y: 2, Z: 1}},
		{Min: r3.Vec{Y: 1}, Max: r3.Vec{X: 5, Y: 3, Z: 1}},
	}
	if diff := cmp.Diff(want, boxes(res.Shape), approx); diff != "" {
		t.Errorf("aligned bounds mismatch (-want +got):\n%s", diff)
	}
}

func TestPlacementOptions(t *testing.T) {
	path := wire(t, r3.Vec{}, r3.Vec{X: 5})
	tests := []struct {
		name   string
		adjust func(*Parameters)
		want   r3.Box
	}{
		{"default", func(*Parameters) {},
			r3.Box{Min: r3.Vec{Z: -2}, Max: r3.Vec{X: 5, Y: 1}}},
		{"base point on first edge midpoint", func(p *Parameters) { p.BasePoint = 1 },
			r3.Box{Min: r3.Vec{Z: -1}, Max: r3.Vec{X: 5, Y: 1, Z: 1}}},
		{"aligned offset", func(p *Parameters) { p.Offset = r3.Vec{X: 1} },
			r3.Box{Min: r3.Vec{Z: -3}, Max: r3.Vec{X: 5, Y: 1, Z: -1}}},
		{"world offset", func(p *Parameters) { p.Align = false; p.Offset = r3.Vec{Z: 2} },
			r3.Box{Min: r3.Vec{Z: 2}, Max: r3.Vec{X: 7, Y: 1, Z: 2}}},
		{"rotation about edge", func(p *Parameters) { p.Rotation = 90 },
			r3.Box{Max: r3.Vec{X: 5, Y: 2, Z: 1}}},
		{"profile placement", func(p *Parameters) {
			p.ProfilePlacement = geom.Translation(r3.Vec{X: -1})
		}, r3.Box{Min: r3.Vec{Z: -1}, Max: r3.Vec{X: 5, Y: 1, Z: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A single edge has no plane, so the world Y axis becomes the
			// hint: local X maps to -Z and local Y stays +Y.
			f := newFrame(path, kernel.NewRectangle(2, 1))
			tt.adjust(&f.Params)
			res, err := f.Compute()
			require.NoError(t, err)
			got := boxes(res.Shape)
			require.Len(t, got, 1)
			if diff := cmp.Diff(tt.want, got[0], approx); diff != "" {
				t.Errorf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBasePointFallbackWarnsOnce(t *testing.T) {
	path := kernel.NewRectangle(5, 3)
	w := &countingWarner{}
	f := newFrame(path, kernel.NewRectangle(2, 1), WithWarner(w))
	f.Params.BasePoint = 99
	fallback, err := f.Compute()
	require.NoError(t, err)
	assert.Len(t, w.msgs, 1)

	f.Params.BasePoint = 0
	origin, err := f.Compute()
	require.NoError(t, err)
	assert.Len(t, w.msgs, 1, "no warning for a valid index")

	if diff := cmp.Diff(boxes(origin.Shape), boxes(fallback.Shape), approx); diff != "" {
		t.Errorf("fallback differs from index 0 (-want +got):\n%s", diff)
	}

	// 1 origin + 4 edges * (midpoint, end) candidates.
	f.Params.BasePoint = 8
	last, err := f.Compute()
	require.NoError(t, err)
	f.Params.BasePoint = -1
	fromEnd, err := f.Compute()
	require.NoError(t, err)
	assert.Len(t, w.msgs, 1, "negative index within range is valid")
	if diff := cmp.Diff(boxes(last.Shape), boxes(fromEnd.Shape), approx); diff != "" {
		t.Errorf("index -1 differs from the last candidate (-want +got):\n%s", diff)
	}

	f.Params.BasePoint = -10
	below, err := f.Compute()
	require.NoError(t, err)
	assert.Len(t, w.msgs, 2)
	if diff := cmp.Diff(boxes(origin.Shape), boxes(below.Shape), approx); diff != "" {
		t.Errorf("index -10 differs from index 0 (-want +got):\n%s", diff)
	}
}

func TestAnchorIndex(t *testing.T) {
	tests := []struct {
		idx, n int
		want   int
		ok     bool
	}{
		{0, 9, 0, true},
		{8, 9, 8, true},
		{9, 9, 0, false},
		{-1, 9, 8, true},
		{-2, 9, 7, true},
		{-9, 9, 0, true},
		{-10, 9, 0, false},
		{0, 1, 0, true},
	}
	for _, tt := range tests {
		got, ok := anchorIndex(tt.idx, tt.n)
		assert.Equal(t, tt.want, got, "index %d of %d", tt.idx, tt.n)
		assert.Equal(t, tt.ok, ok, "index %d of %d", tt.idx, tt.n)
	}
}

func TestNullVectorEdgeKeepsPrevious(t *testing.T) {
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()

	f := newFrame(wire(t, r3.Vec{}, r3.Vec{Z: 5}), kernel.NewRectangle(1, 1))
	require.True(t, f.Execute())
	before := f.Result()

	mixed := kernel.NewCompound(wire(t, r3.Vec{}, r3.Vec{Z: 5}), kernel.NewCircle(r3.Vec{X: 3}, geom.ZAxis, 1))
	f.Path = NewSource("mixed", mixed)
	require.Len(t, SelectEdges(mixed, AllEdges), 2)

	res, err := f.Compute()
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	assert.False(t, f.Execute())
	assert.Same(t, before, f.Result())
}

func TestSolidCount(t *testing.T) {
	path := kernel.NewRectangle(5, 3)
	for _, fuse := range []bool{false, true} {
		f := newFrame(path, kernel.NewRectangle(0.5, 0.5))
		f.Params.Fuse = fuse
		res, err := f.Compute()
		require.NoError(t, err)
		if fuse {
			_, ok := res.Shape.(*kernel.Solid)
			assert.True(t, ok)
			assert.Len(t, res.Shape.Solids(), 1)
		} else {
			assert.Len(t, res.Shape.Solids(), len(SelectEdges(path, AllEdges)))
		}
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	f := newFrame(kernel.NewRectangle(5, 3), kernel.NewCircle(r3.Vec{}, geom.ZAxis, 0.5))
	f.Params.Fuse = true
	f.Params.Rotation = 30
	f.Params.Offset = r3.Vec{X: 0.25, Y: 0.5}
	a, err := f.Compute()
	require.NoError(t, err)
	b, err := f.Compute()
	require.NoError(t, err)
	exportAll := cmp.Exporter(func(reflect.Type) bool { return true })
	if diff := cmp.Diff(a, b, exportAll); diff != "" {
		t.Errorf("repeated computation differs (-first +second):\n%s", diff)
	}
}

func TestProfileIsNotMutated(t *testing.T) {
	profile := kernel.NewRectangle(2, 1)
	before := profile.BoundingBox()
	f := newFrame(kernel.NewRectangle(5, 3), profile)
	f.Params.ProfilePlacement = geom.NewPlacement(r3.Vec{X: 3}, geom.ZAxis, 45)
	require.True(t, f.Execute())
	assert.Equal(t, before, profile.BoundingBox())
	assert.True(t, profile.Placement().IsIdentity())
}

func TestFramePlacement(t *testing.T) {
	f := newFrame(wire(t, r3.Vec{}, r3.Vec{Z: 10}), kernel.NewRectangle(1, 1))
	f.Placement = geom.Translation(r3.Vec{X: 100})
	res, err := f.Compute()
	require.NoError(t, err)
	assert.True(t, res.Placement.Equal(f.Placement, 0))
	assert.True(t, res.Shape.Placement().Equal(f.Placement, 1e-12))
	assert.InDelta(t, 100, res.Shape.BoundingBox().Min.X, 1e-12)
}

func TestClone(t *testing.T) {
	orig := newFrame(wire(t, r3.Vec{}, r3.Vec{Z: 10}), kernel.NewRectangle(1, 1))
	clone := New("clone", nil, nil)
	clone.CloneOf = orig
	assert.False(t, clone.Execute(), "nothing to clone yet")

	require.True(t, orig.Execute())
	clone.Placement = geom.Translation(r3.Vec{Y: 20})
	require.True(t, clone.Execute())
	assert.InDelta(t, 20, clone.Shape().BoundingBox().Min.Y, 1e-12)
	assert.InDelta(t, 0, orig.Shape().BoundingBox().Min.Y, 1e-12)
}

func TestPlaceAndExtrude(t *testing.T) {
	k := brep.New()
	e := line(0, 0, 0, 0, 0, 4)
	w := &countingWarner{}
	params := DefaultParameters()
	params.BasePoint = 42
	s, err := PlaceAndExtrude(k, kernel.NewRectangle(1, 1), e, r3.Vec{}, params, w)
	require.NoError(t, err)
	assert.Len(t, w.msgs, 1)
	assert.InDelta(t, 4, s.(*kernel.Solid).Volume(), 1e-9)

	_, err = PlaceAndExtrude(k, kernel.NewRectangle(1, 1), kernel.NewCircleEdge(r3.Vec{}, geom.ZAxis, 1), r3.Vec{}, params, nil)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestAssembleEmpty(t *testing.T) {
	_, err := Assemble(brep.New(), nil, true, geom.Identity())
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	assert.True(t, p.Align)
	assert.False(t, p.Fuse)
	assert.Equal(t, AllEdges, p.Edges)
	assert.True(t, p.ProfilePlacement.IsIdentity())
}
