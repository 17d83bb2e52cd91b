package frame

import (
	"fmt"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/samber/lo"
)

// Assemble combines per-edge extrusions into the frame shape. With fuse and
// more than one extrusion the solids are united into one solid and split
// faces are cleaned up; otherwise the extrusions are grouped into a
// compound, even a single one. The result is moved to placement pl.
// An empty input aborts with ErrEmptySelection.
func Assemble(k kernel.Kernel, shapes []kernel.Shape, fuse bool, pl geom.Placement) (*Result, error) {
	if len(shapes) == 0 {
		return nil, fmt.Errorf("%w: nothing to assemble", ErrEmptySelection)
	}
	var shape kernel.Shape
	if fuse && len(shapes) > 1 {
		solids := lo.FlatMap(shapes, func(s kernel.Shape, _ int) []*kernel.Solid {
			return s.Solids()
		})
		fused, err := k.MultiFuse(solids)
		if err != nil {
			return nil, fmt.Errorf("%w: fuse: %v", ErrInvalidGeometry, err)
		}
		shape = k.RemoveSplitter(fused)
	} else {
		shape = k.MakeCompound(shapes...)
	}
	kernel.SetPlacement(shape, pl)
	return &Result{Shape: shape, Placement: pl}, nil
}
