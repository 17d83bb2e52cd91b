package graph

import "github.com/google/uuid"

// namespace seeds deterministic node IDs.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/chazu/archframe/node"))

// NodeID is a deterministic identifier derived from node content.
type NodeID uuid.UUID

// NewNodeID derives an ID from a content key. Equal keys give equal IDs.
func NewNodeID(key string) NodeID {
	return NodeID(uuid.NewSHA1(namespace, []byte(key)))
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first 8 hex digits, for messages.
func (id NodeID) Short() string {
	return id.String()[:8]
}
