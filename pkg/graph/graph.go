package graph

import (
	"fmt"

	"github.com/samber/lo"
)

// Document is the data structure produced by script evaluation. Each
// evaluation produces a new document.
type Document struct {
	Nodes     map[NodeID]*Node  `json:"nodes"`
	Order     []NodeID          `json:"order"` // insertion order
	NameIndex map[string]NodeID `json:"name_index"`
}

// New creates an empty Document.
func New() *Document {
	return &Document{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the document and returns its ID. A node without an
// ID gets one derived from its kind, name and insertion position. The first
// node registered under a name keeps the name index entry.
func (g *Document) AddNode(n *Node) NodeID {
	if n.ID.IsZero() {
		n.ID = NewNodeID(fmt.Sprintf("%s/%s/%d", n.Kind, n.Name, len(g.Order)))
	}
	if _, exists := g.Nodes[n.ID]; !exists {
		g.Order = append(g.Order, n.ID)
	}
	g.Nodes[n.ID] = n
	if n.Name != "" {
		if _, taken := g.NameIndex[n.Name]; !taken {
			g.NameIndex[n.Name] = n.ID
		}
	}
	return n.ID
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *Document) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (g *Document) MustLookup(name string) *Node {
	n := g.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("graph: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (g *Document) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// All returns the nodes in insertion order.
func (g *Document) All() []*Node {
	return lo.FilterMap(g.Order, func(id NodeID, _ int) (*Node, bool) {
		n, ok := g.Nodes[id]
		return n, ok
	})
}

// Sources returns all source nodes in insertion order.
func (g *Document) Sources() []*Node {
	return g.ofKind(NodeSource)
}

// Frames returns all frame nodes in insertion order.
func (g *Document) Frames() []*Node {
	return g.ofKind(NodeFrame)
}

func (g *Document) ofKind(k NodeKind) []*Node {
	return lo.Filter(g.All(), func(n *Node, _ int) bool {
		return n.Kind == k
	})
}

// NodeCount returns the total number of nodes.
func (g *Document) NodeCount() int {
	return len(g.Nodes)
}

// RecomputeOrder returns the nodes ordered so that every node comes after
// its dependencies. Independent nodes keep insertion order. Dangling
// references are ignored; a cycle is an error.
func (g *Document) RecomputeOrder() ([]*Node, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[NodeID]int)
	var order []*Node

	var visit func(n *Node) error
	visit = func(n *Node) error {
		switch color[n.ID] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("cycle through node %q (%s)", n.Name, n.ID.Short())
		}
		color[n.ID] = gray
		for _, dep := range n.Dependencies() {
			if d := g.Nodes[dep]; d != nil {
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		color[n.ID] = black
		order = append(order, n)
		return nil
	}

	for _, n := range g.All() {
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}
