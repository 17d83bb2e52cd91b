package graph

import (
	"fmt"

	"github.com/chazu/archframe/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Tier 2: geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *Document, k kernel.Kernel) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	errs = append(errs, validateNonEmptySources(g)...)
	warnings = append(warnings, validatePaths(g)...)
	warnings = append(warnings, validateProfiles(g, k)...)

	return errs, warnings
}

// validateNonEmptySources checks that every source holds some geometry.
func validateNonEmptySources(g *Document) []ValidationError {
	var errs []ValidationError

	for _, node := range g.Sources() {
		sd := node.Data.(SourceData)
		if kernel.IsEmpty(sd.Shape) {
			errs = append(errs, ValidationError{
				NodeID:   node.ID,
				Message:  fmt.Sprintf("source %q has no geometry", node.Name),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// frameInput returns the source shape a frame refers to with ref, or nil if
// the reference is unset, dangling or points at another frame.
func frameInput(g *Document, ref NodeID) kernel.Shape {
	n := g.Nodes[ref]
	if n == nil {
		return nil
	}
	sd, ok := n.Data.(SourceData)
	if !ok {
		return nil
	}
	return sd.Shape
}

// validatePaths warns about source paths with neither wires nor solids.
func validatePaths(g *Document) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Frames() {
		path := frameInput(g, node.Data.(FrameData).Path)
		if kernel.IsEmpty(path) {
			continue
		}
		if len(path.Solids()) == 0 && len(path.Wires()) == 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("frame %q: path has no wires, frame will not produce a shape", node.Name),
			})
		}
	}

	return warnings
}

// validateProfiles warns about source profiles the frame would reject: not
// planar, or open wires without faces.
func validateProfiles(g *Document, k kernel.Kernel) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range g.Frames() {
		profile := frameInput(g, node.Data.(FrameData).Profile)
		if kernel.IsEmpty(profile) {
			continue
		}
		if _, ok := k.FindPlane(profile); !ok {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: fmt.Sprintf("frame %q: profile is not planar", node.Name),
			})
			continue
		}
		if len(profile.Faces()) > 0 {
			continue
		}
		for i, w := range profile.Wires() {
			if !w.IsClosed() {
				warnings = append(warnings, ValidationWarning{
					NodeID:  node.ID,
					Message: fmt.Sprintf("frame %q: profile wire %d is open", node.Name, i),
				})
			}
		}
	}

	return warnings
}
