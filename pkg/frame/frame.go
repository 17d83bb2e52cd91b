// Package frame builds structural frames: a planar profile swept along the
// edges of a path shape.
//
// A computation runs in three stages. SelectEdges filters the path edges,
// a placer positions and extrudes one profile copy per edge, and Assemble
// combines the extrusions into the frame shape. Missing or invalid input
// never produces partial output: Compute reports an error wrapping
// ErrAborted and Execute leaves the committed shape untouched.
package frame

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/chazu/archframe/pkg/kernel/brep"
	"github.com/npillmayer/schuko/tracing"
	"gonum.org/v1/gonum/spatial/r3"
)

// tracer writes to trace with key 'frame'
func tracer() tracing.Trace {
	return tracing.Select("frame")
}

// ErrAborted is wrapped by every error that stops a frame computation.
var ErrAborted = errors.New("frame: aborted")

// Abort reasons. All of them wrap ErrAborted.
var (
	ErrMissingInput    = fmt.Errorf("%w: missing input", ErrAborted)
	ErrInvalidGeometry = fmt.Errorf("%w: invalid geometry", ErrAborted)
	ErrEmptySelection  = fmt.Errorf("%w: no edges selected", ErrAborted)
)

// Shaper is implemented by anything owning a shape.
type Shaper interface {
	Shape() kernel.Shape
}

// Parametric is a Shaper that recomputes its shape on demand.
type Parametric interface {
	Shaper
	Execute() bool
}

// Source is a fixed shape, such as a sketched path or a drawn profile.
type Source struct {
	Name  string
	shape kernel.Shape
}

// NewSource returns a source holding shape.
func NewSource(name string, shape kernel.Shape) *Source {
	return &Source{Name: name, shape: shape}
}

// Shape returns the source shape.
func (s *Source) Shape() kernel.Shape {
	return s.shape
}

// Result is a computed frame shape and its placement.
type Result struct {
	Shape     kernel.Shape
	Placement geom.Placement
}

// Frame sweeps a profile along the edges of a path.
type Frame struct {
	Name      string
	Path      Shaper
	Profile   Shaper
	Params    Parameters
	Placement geom.Placement

	// CloneOf makes the frame a copy of another shape owner. The sweep is
	// skipped entirely.
	CloneOf Shaper

	kernel kernel.Kernel
	warner Warner

	mu     sync.RWMutex
	result *Result
}

var _ Parametric = (*Frame)(nil)

// Option configures a Frame.
type Option func(*Frame)

// WithKernel sets the geometry kernel. The default is the analytic brep
// kernel.
func WithKernel(k kernel.Kernel) Option {
	return func(f *Frame) {
		f.kernel = k
	}
}

// WithWarner sets the receiver of warnings. The default writes them to the
// 'frame' trace.
func WithWarner(w Warner) Option {
	return func(f *Frame) {
		f.warner = w
	}
}

// New returns a frame with default parameters and identity placement.
func New(name string, path, profile Shaper, opts ...Option) *Frame {
	f := &Frame{
		Name:      name,
		Path:      path,
		Profile:   profile,
		Params:    DefaultParameters(),
		Placement: geom.Identity(),
		kernel:    brep.New(),
		warner:    traceWarner{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Shape returns the committed frame shape, or nil before the first
// successful execution.
func (f *Frame) Shape() kernel.Shape {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.result == nil {
		return nil
	}
	return f.result.Shape
}

// Result returns the committed result, or nil.
func (f *Frame) Result() *Result {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.result
}

// Execute computes the frame and commits the new shape on success. On abort
// the previous shape is kept. It reports whether a shape was committed.
func (f *Frame) Execute() bool {
	return f.Recompute() == nil
}

// Recompute is Execute reporting the abort reason.
func (f *Frame) Recompute() error {
	res, err := f.Compute()
	if err != nil {
		tracer().Debugf("frame %q: %v", f.Name, err)
		return err
	}
	f.mu.Lock()
	f.result = res
	f.mu.Unlock()
	return nil
}

// Compute runs the frame computation without committing anything.
func (f *Frame) Compute() (*Result, error) {
	pl := f.Placement
	if f.CloneOf != nil {
		return f.clone(pl)
	}
	if f.Path == nil || kernel.IsEmpty(f.Path.Shape()) {
		return nil, fmt.Errorf("%w: no path", ErrMissingInput)
	}
	path := f.Path.Shape()
	if len(path.Solids()) > 0 {
		return f.copySolids(path, pl), nil
	}
	if len(path.Wires()) == 0 {
		return nil, fmt.Errorf("%w: path has no wires", ErrMissingInput)
	}
	if f.Profile == nil {
		return nil, fmt.Errorf("%w: no profile", ErrMissingInput)
	}
	k := f.kernel
	profile, err := PrepareProfile(k, f.Profile.Shape(), f.Params.ProfilePlacement)
	if err != nil {
		return nil, err
	}

	normal, ok := k.FindPlane(path)
	if !ok {
		normal = r3.Vec{}
	}
	p := &placer{k: k, profile: profile, normal: normal, params: f.Params}
	edges := SelectEdges(path, f.Params.Edges)
	tracer().Debugf("frame %q: %d of %d edges selected (%s)", f.Name, len(edges), len(path.Edges()), f.Params.Edges)

	var shapes []kernel.Shape
	warned := false
	for i, e := range edges {
		if geom.IsNull(e.Vector()) {
			return nil, fmt.Errorf("%w: edge %d has a null vector", ErrInvalidGeometry, i)
		}
		s, fellBack, err := p.place(e)
		if err != nil {
			return nil, err
		}
		if fellBack && !warned {
			f.warn(basePointWarning(f.Params.BasePoint))
			warned = true
		}
		shapes = append(shapes, s)
	}
	return Assemble(k, shapes, f.Params.Fuse, pl)
}

// copySolids handles a path that already is a solid: the frame is a copy of
// it, its placement composed with the frame placement.
func (f *Frame) copySolids(path kernel.Shape, pl geom.Placement) *Result {
	shape := path.Copy()
	target := shape.Placement()
	if !pl.IsIdentity() {
		target = target.Multiply(pl)
		kernel.SetPlacement(shape, target)
	}
	return &Result{Shape: shape, Placement: target}
}

func (f *Frame) clone(pl geom.Placement) (*Result, error) {
	src := f.CloneOf.Shape()
	if kernel.IsEmpty(src) {
		return nil, fmt.Errorf("%w: clone source has no shape", ErrMissingInput)
	}
	shape := src.Copy()
	kernel.SetPlacement(shape, pl)
	return &Result{Shape: shape, Placement: pl}, nil
}

func (f *Frame) warn(msg string) {
	if f.warner != nil {
		f.warner.Warn(fmt.Sprintf("frame %q: %s", f.Name, msg))
	}
}
