// Package graph defines the document graph: named source shapes and the
// frames built from them. Frames depend on their path, their profile and an
// optional clone source, which makes the document a DAG that is recomputed
// dependency first.
package graph
