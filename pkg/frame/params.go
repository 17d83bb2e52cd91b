package frame

import (
	"fmt"
	"strings"

	"github.com/chazu/archframe/pkg/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// EdgeFilter selects which path edges receive a profile.
type EdgeFilter int

const (
	AllEdges EdgeFilter = iota
	VerticalEdges
	HorizontalEdges
	BottomHorizontalEdges
	TopHorizontalEdges
)

var edgeFilterLabels = [...]string{
	AllEdges:              "All edges",
	VerticalEdges:         "Vertical edges",
	HorizontalEdges:       "Horizontal edges",
	BottomHorizontalEdges: "Bottom horizontal edges",
	TopHorizontalEdges:    "Top horizontal edges",
}

var edgeFilterKeywords = [...]string{
	AllEdges:              "all",
	VerticalEdges:         "vertical",
	HorizontalEdges:       "horizontal",
	BottomHorizontalEdges: "bottom-horizontal",
	TopHorizontalEdges:    "top-horizontal",
}

func (f EdgeFilter) String() string {
	if f < 0 || int(f) >= len(edgeFilterLabels) {
		return fmt.Sprintf("EdgeFilter(%d)", int(f))
	}
	return edgeFilterLabels[f]
}

// Keyword returns the script keyword for f.
func (f EdgeFilter) Keyword() string {
	if f < 0 || int(f) >= len(edgeFilterKeywords) {
		return ""
	}
	return edgeFilterKeywords[f]
}

// ParseEdgeFilter accepts either a label ("Top horizontal edges") or a
// keyword ("top-horizontal"). Matching ignores case; underscores count as
// dashes.
func ParseEdgeFilter(s string) (EdgeFilter, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")
	for i := range edgeFilterLabels {
		if norm == strings.ToLower(edgeFilterLabels[i]) || norm == edgeFilterKeywords[i] {
			return EdgeFilter(i), nil
		}
	}
	return AllEdges, fmt.Errorf("unknown edge filter %q", s)
}

// Parameters configure a frame.
type Parameters struct {
	// Align rotates each profile copy so that its local Z follows the edge
	// and its local Y follows the path normal.
	Align bool

	// Offset displaces the placed profile. With Align it is expressed in
	// the aligned profile frame, otherwise in world axes.
	Offset r3.Vec

	// BasePoint indexes the anchor candidates: the profile placement base,
	// then midpoint and end point of each sorted profile edge. Negative
	// values count from the end of that list.
	BasePoint int

	// ProfilePlacement is pre-multiplied into the profile placement.
	ProfilePlacement geom.Placement

	// Rotation turns each placed profile about its edge, in degrees.
	Rotation float64

	Edges EdgeFilter

	// Fuse unites all extrusions into one solid instead of grouping them.
	Fuse bool
}

// DefaultParameters returns aligned, unfused parameters using all edges.
func DefaultParameters() Parameters {
	return Parameters{
		Align:            true,
		ProfilePlacement: geom.Identity(),
		Edges:            AllEdges,
	}
}
