// Package tessellate recomputes the frames of a document in dependency order
// and produces triangle meshes using a kernel mesher. One mesh is produced
// per frame.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/archframe/pkg/frame"
	"github.com/chazu/archframe/pkg/graph"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/npillmayer/schuko/tracing"
	"github.com/samber/lo"
)

// tracer writes to trace with key 'tessellate'
func tracer() tracing.Trace {
	return tracing.Select("tessellate")
}

// Failure records a frame that aborted during recompute.
type Failure struct {
	NodeID graph.NodeID
	Name   string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("frame %q: %v", f.Name, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Model is a recomputed document: one frame object per frame node, in
// recompute order.
type Model struct {
	Frames   []*frame.Frame
	Failures []Failure

	nodes map[*frame.Frame]graph.NodeID
}

// Frame returns the frame built for the named node, or nil.
func (m *Model) Frame(name string) *frame.Frame {
	f, _ := lo.Find(m.Frames, func(f *frame.Frame) bool {
		return f.Name == name
	})
	return f
}

// NodeID returns the document node f was built from.
func (m *Model) NodeID(f *frame.Frame) graph.NodeID {
	return m.nodes[f]
}

// Shapes returns the committed shape of every frame that has one, keyed by
// frame name.
func (m *Model) Shapes() map[string]kernel.Shape {
	out := make(map[string]kernel.Shape)
	for _, f := range m.Frames {
		if s := f.Shape(); s != nil {
			out[f.Name] = s
		}
	}
	return out
}

// Recompute builds and executes a frame for every frame node of g. Path,
// profile and clone references resolve to sources or to frames computed
// earlier in the same pass. A frame that aborts is recorded as a failure;
// frames depending on it abort for missing input. Warnings of all frames go
// to w, which may be nil. The only error returned is a dependency cycle.
func Recompute(g *graph.Document, k kernel.Kernel, w frame.Warner) (*Model, error) {
	m := &Model{nodes: make(map[*frame.Frame]graph.NodeID)}
	if g == nil {
		return m, nil
	}
	order, err := g.RecomputeOrder()
	if err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	owners := make(map[graph.NodeID]frame.Shaper)
	resolve := func(id graph.NodeID) frame.Shaper {
		if s, ok := owners[id]; ok {
			return s
		}
		return nil
	}

	for _, n := range order {
		switch d := n.Data.(type) {
		case graph.SourceData:
			owners[n.ID] = frame.NewSource(n.Name, d.Shape)
		case graph.FrameData:
			opts := []frame.Option{frame.WithKernel(k)}
			if w != nil {
				opts = append(opts, frame.WithWarner(w))
			}
			f := frame.New(n.Name, resolve(d.Path), resolve(d.Profile), opts...)
			f.CloneOf = resolve(d.CloneOf)
			f.Params = d.Params
			f.Placement = d.Placement
			if err := f.Recompute(); err != nil {
				m.Failures = append(m.Failures, Failure{NodeID: n.ID, Name: n.Name, Err: err})
			}
			owners[n.ID] = f
			m.Frames = append(m.Frames, f)
			m.nodes[f] = n.ID
		default:
			return nil, fmt.Errorf("tessellate: node %s has unsupported data type %T", n.ID.Short(), n.Data)
		}
	}
	tracer().Infof("recomputed %d frames, %d failed", len(m.Frames), len(m.Failures))
	return m, nil
}

// Tessellate meshes every frame of m that holds solids. Frames without a
// shape, or whose shape has no solids, produce no mesh. The mesh carries the
// frame name as its part name. The tessellator is read-only and never
// mutates the model.
func Tessellate(m *Model, mesher kernel.Mesher) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	for _, f := range m.Frames {
		s := f.Shape()
		if s == nil {
			continue
		}
		mesh, err := mesher.ToMesh(s)
		if errors.Is(err, kernel.ErrNoSolids) {
			tracer().Debugf("frame %q has no solids, skipped", f.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for frame %q: %w", f.Name, err)
		}
		mesh.PartName = f.Name
		meshes = append(meshes, mesh)
	}

	return meshes, nil
}
