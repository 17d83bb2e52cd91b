package graph

import (
	"github.com/chazu/archframe/pkg/frame"
	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
)

// NodeKind enumerates the types of nodes in the document graph.
type NodeKind int

const (
	NodeSource NodeKind = iota // fixed shape: path, profile or solid
	NodeFrame                  // profile swept along a path
)

func (k NodeKind) String() string {
	switch k {
	case NodeSource:
		return "source"
	case NodeFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// Node is the fundamental element of the document graph.
type Node struct {
	ID   NodeID   `json:"id"`
	Kind NodeKind `json:"kind"`
	Name string   `json:"name,omitempty"`
	Data NodeData `json:"data"`
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// SourceData holds a fixed shape. The placement has already been applied
// to the shape.
type SourceData struct {
	Shape     kernel.Shape
	Placement geom.Placement
}

func (SourceData) nodeData() {}

// FrameData configures a frame. Zero references are unset.
type FrameData struct {
	Path      NodeID
	Profile   NodeID
	CloneOf   NodeID
	Params    frame.Parameters
	Placement geom.Placement
}

func (FrameData) nodeData() {}

// Dependencies returns the IDs n depends on, in path, profile, clone order.
func (n *Node) Dependencies() []NodeID {
	d, ok := n.Data.(FrameData)
	if !ok {
		return nil
	}
	var deps []NodeID
	for _, id := range []NodeID{d.Path, d.Profile, d.CloneOf} {
		if !id.IsZero() {
			deps = append(deps, id)
		}
	}
	return deps
}
