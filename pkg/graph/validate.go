package graph

import (
	"fmt"

	"github.com/chazu/archframe/pkg/kernel"
)

// ValidationSeverity indicates whether a validation finding blocks evaluation
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks evaluation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID             // which node has the problem (zero if graph-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	NodeID  NodeID
	Message string
}

func (w ValidationWarning) String() string {
	if w.NodeID.IsZero() {
		return w.Message
	}
	return fmt.Sprintf("node %s: %s", w.NodeID.Short(), w.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Validate runs all Tier 1 structural validation checks on the document
// and returns a slice of validation findings. An empty slice means the
// document is valid. This function is read-only and never mutates the graph.
func Validate(g *Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(g)...)
	errs = append(errs, validateReferences(g)...)
	errs = append(errs, validateNames(g)...)
	errs = append(errs, validateFrameInputs(g)...)
	errs = append(errs, validateUnused(g)...)
	return errs
}

// ValidateAll runs the structural and geometric tiers and returns a
// ValidationResult with separated errors and warnings. The kernel is used
// to check that profiles are planar.
func ValidateAll(g *Document, k kernel.Kernel) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(g) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, ValidationWarning{
				NodeID:  e.NodeID,
				Message: e.Message,
			})
		} else {
			result.Errors = append(result.Errors, e)
		}
	}

	geoErrs, geoWarnings := validateGeometry(g, k)
	result.Errors = append(result.Errors, geoErrs...)
	result.Warnings = append(result.Warnings, geoWarnings...)
	return result
}

// validateDAG checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
// If we encounter a gray node during traversal, we have found a cycle.
func validateDAG(g *Document) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int) // default zero = white
	var errs []ValidationError

	var visit func(id NodeID) bool // returns true if cycle found
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray

		node, ok := g.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}

		for _, dep := range node.Dependencies() {
			if visit(dep) {
				return true
			}
		}

		color[id] = black
		return false
	}

	// Start DFS from every node, in insertion order, to catch disconnected
	// components deterministically.
	for _, id := range g.Order {
		if color[id] == white {
			if visit(id) {
				// One cycle error is sufficient; stop early.
				break
			}
		}
	}

	return errs
}

// validateReferences checks that every NodeID a frame refers to exists.
func validateReferences(g *Document) []ValidationError {
	var errs []ValidationError

	for _, node := range g.All() {
		d, ok := node.Data.(FrameData)
		if !ok {
			continue
		}
		refs := []struct {
			role string
			id   NodeID
		}{{"path", d.Path}, {"profile", d.Profile}, {"clone-of", d.CloneOf}}
		for _, r := range refs {
			if r.id.IsZero() {
				continue
			}
			if _, ok := g.Nodes[r.id]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("frame %s reference %s does not exist", r.role, r.id.Short()),
					Severity: SeverityError,
				})
			}
		}
		if !d.CloneOf.IsZero() {
			if src := g.Nodes[d.CloneOf]; src != nil && src.Kind != NodeFrame {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("frame clones %s %q, not a frame", src.Kind, src.Name),
					Severity: SeverityError,
				})
			}
		}
	}

	return errs
}

// validateNames checks that the NameIndex is injective (no two nodes share the
// same name) and that every entry in NameIndex points to an existing node.
func validateNames(g *Document) []ValidationError {
	var errs []ValidationError

	for name, id := range g.NameIndex {
		if _, ok := g.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	var names []string
	for _, node := range g.All() {
		if node.Name == "" {
			continue
		}
		if _, seen := nameToNodes[node.Name]; !seen {
			names = append(names, node.Name)
		}
		nameToNodes[node.Name] = append(nameToNodes[node.Name], node.ID)
	}
	for _, name := range names {
		if ids := nameToNodes[name]; len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validateFrameInputs warns about frames that cannot produce a shape
// because their path or profile is unset.
func validateFrameInputs(g *Document) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Frames() {
		d := node.Data.(FrameData)
		if !d.CloneOf.IsZero() {
			continue
		}
		if d.Path.IsZero() {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("frame %q has no path and will not produce a shape", node.Name),
				Severity: SeverityWarning,
			})
		} else if d.Profile.IsZero() {
			if p := g.Nodes[d.Path]; p == nil || !hasSolids(p) {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("frame %q has no profile and will not produce a shape", node.Name),
					Severity: SeverityWarning,
				})
			}
		}
	}

	return errs
}

// validateUnused warns about sources that no frame refers to (orphans).
func validateUnused(g *Document) []ValidationError {
	used := make(map[NodeID]bool)
	for _, node := range g.All() {
		for _, dep := range node.Dependencies() {
			used[dep] = true
		}
	}

	var errs []ValidationError
	for _, node := range g.Sources() {
		if used[node.ID] {
			continue
		}
		name := node.Name
		if name == "" {
			name = node.ID.Short()
		}
		errs = append(errs, ValidationError{
			NodeID:   node.ID,
			Message:  fmt.Sprintf("source %q is not used by any frame (orphan)", name),
			Severity: SeverityWarning,
		})
	}
	return errs
}

func hasSolids(n *Node) bool {
	d, ok := n.Data.(SourceData)
	return ok && d.Shape != nil && len(d.Shape.Solids()) > 0
}
