package frame

import (
	"math"
	"slices"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

// levelTolerance is the height band of the top and bottom edge filters.
const levelTolerance = 1e-5

// roundedPi is π rounded to the 4 decimals used when classifying edges.
const roundedPi = 3.1416

// SelectEdges returns the edges of path matching filter, in path order.
// Vertical and horizontal are judged against the path's local Y and X axes.
func SelectEdges(path kernel.Shape, filter EdgeFilter) []*kernel.Edge {
	if path == nil {
		return nil
	}
	edges := path.Edges()
	rot := path.Placement().Rotation
	switch filter {
	case VerticalEdges:
		return parallelTo(edges, rot.MultVec(geom.YAxis))
	case HorizontalEdges:
		return parallelTo(edges, rot.MultVec(geom.XAxis))
	case TopHorizontalEdges:
		return atLevel(parallelTo(edges, rot.MultVec(geom.XAxis)), true)
	case BottomHorizontalEdges:
		return atLevel(parallelTo(edges, rot.MultVec(geom.XAxis)), false)
	default:
		return edges
	}
}

// parallelTo keeps edges whose start tangent is parallel or anti-parallel
// to ref.
func parallelTo(edges []*kernel.Edge, ref r3.Vec) []*kernel.Edge {
	return lo.Filter(edges, func(e *kernel.Edge, _ int) bool {
		a := roundAngle(geom.Angle(ref, e.TangentAt(e.FirstParameter())))
		return a == 0 || a == roundedPi
	})
}

// roundAngle rounds an angle in radians to 4 decimals. Ties round to even.
func roundAngle(a float64) float64 {
	return scalar.RoundEven(a, 4)
}

// atLevel sorts edges by center-of-mass height, highest first for top, and
// keeps those within levelTolerance of the extreme.
func atLevel(edges []*kernel.Edge, top bool) []*kernel.Edge {
	if len(edges) == 0 {
		return nil
	}
	sorted := slices.Clone(edges)
	slices.SortStableFunc(sorted, func(a, b *kernel.Edge) int {
		za, zb := a.CenterOfMass().Z, b.CenterOfMass().Z
		if top {
			za, zb = zb, za
		}
		switch {
		case za < zb:
			return -1
		case za > zb:
			return 1
		}
		return 0
	})
	extreme := sorted[0].CenterOfMass().Z
	return lo.Filter(sorted, func(e *kernel.Edge, _ int) bool {
		return math.Abs(e.CenterOfMass().Z-extreme) < levelTolerance
	})
}
