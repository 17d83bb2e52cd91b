package frame

import (
	"fmt"

	"github.com/chazu/archframe/pkg/geom"
	"github.com/chazu/archframe/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// PrepareProfile copies profile, applies the extra profile placement and
// turns bare wires into faces: one face for a single wire, a compound of
// faces otherwise. The input is never modified.
func PrepareProfile(k kernel.Kernel, profile kernel.Shape, extra geom.Placement) (kernel.Shape, error) {
	if kernel.IsEmpty(profile) {
		return nil, fmt.Errorf("%w: profile has no geometry", ErrMissingInput)
	}
	if _, ok := k.FindPlane(profile); !ok {
		return nil, fmt.Errorf("%w: profile is not planar", ErrInvalidGeometry)
	}
	if len(profile.Wires()) == 0 {
		return nil, fmt.Errorf("%w: profile has no wires", ErrMissingInput)
	}
	faced := len(profile.Faces()) > 0
	if !faced {
		for i, w := range profile.Wires() {
			if !w.IsClosed() {
				return nil, fmt.Errorf("%w: profile wire %d is open", ErrInvalidGeometry, i)
			}
		}
	}

	base := profile.Copy()
	if !extra.IsIdentity() {
		kernel.SetPlacement(base, extra.Multiply(base.Placement()))
	}
	if faced {
		return base, nil
	}

	faces := make([]kernel.Shape, 0, len(base.Wires()))
	for i, w := range base.Wires() {
		f, err := k.MakeFace(w)
		if err != nil {
			return nil, fmt.Errorf("%w: profile wire %d: %v", ErrInvalidGeometry, i, err)
		}
		faces = append(faces, f)
	}
	if len(faces) == 1 {
		return faces[0], nil
	}
	return k.MakeCompound(faces...), nil
}

// placer sweeps copies of one prepared profile along path edges.
type placer struct {
	k       kernel.Kernel
	profile kernel.Shape
	normal  r3.Vec // null when the path has no plane
	params  Parameters
}

// alignment returns the rotation that takes the profile's local Z onto the
// edge direction and its local Y towards the path normal.
func (p *placer) alignment(dir r3.Vec) geom.Rotation {
	hint := p.normal
	if geom.IsNull(hint) {
		hint = dir
	}
	return geom.MustRotationByAxes(r3.Vec{}, hint, dir, "ZYX")
}

// anchors lists the candidate crossing points of a placed profile copy.
func (p *placer) anchors(profile kernel.Shape) []r3.Vec {
	list := []r3.Vec{profile.Placement().Base}
	for _, e := range p.k.SortEdges(profile.Edges()) {
		list = append(list, e.Midpoint(), e.LastVertex())
	}
	return list
}

// anchorIndex resolves a base point index against n candidates. Negative
// indexes count back from the end, so -1 is the last candidate. Anything
// outside [-n, n) resolves to 0 and ok is false.
func anchorIndex(idx, n int) (int, bool) {
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

// place positions a copy of the profile on edge e and extrudes it along the
// edge vector. fellBack reports that the base point index was out of range
// and the profile origin was used instead.
func (p *placer) place(e *kernel.Edge) (shape kernel.Shape, fellBack bool, err error) {
	dir := e.Vector()
	start := e.FirstVertex()
	profile := p.profile.Copy()

	var rot geom.Rotation
	aligned := false
	if p.params.Align {
		rot = p.alignment(dir)
		aligned = true
		kernel.SetPlacement(profile, geom.Placement{
			Base:     profile.Placement().Base,
			Rotation: rot,
		})
	}

	anchors := p.anchors(profile)
	idx, ok := anchorIndex(p.params.BasePoint, len(anchors))
	fellBack = !ok
	delta := r3.Sub(start, anchors[idx])
	if off := p.params.Offset; !geom.IsNull(off) {
		if aligned {
			off = rot.MultVec(off)
		}
		delta = r3.Add(delta, off)
	}
	kernel.Translate(profile, delta)

	if p.params.Rotation != 0 {
		kernel.Rotate(profile, start, dir, p.params.Rotation)
	}

	shape, err = p.k.Extrude(profile, dir)
	if err != nil {
		return nil, fellBack, fmt.Errorf("%w: extrude: %v", ErrInvalidGeometry, err)
	}
	return shape, fellBack, nil
}

// PlaceAndExtrude sweeps one copy of profile along edge e. The profile is
// prepared as by PrepareProfile. normal is the path normal, or a null vector
// when the path has none. An out of range base point index falls back to the
// profile origin and is reported to w, which may be nil.
func PlaceAndExtrude(k kernel.Kernel, profile kernel.Shape, e *kernel.Edge, normal r3.Vec, params Parameters, w Warner) (kernel.Shape, error) {
	base, err := PrepareProfile(k, profile, params.ProfilePlacement)
	if err != nil {
		return nil, err
	}
	if geom.IsNull(e.Vector()) {
		return nil, fmt.Errorf("%w: edge has a null vector", ErrInvalidGeometry)
	}
	p := &placer{k: k, profile: base, normal: normal, params: params}
	shape, fellBack, err := p.place(e)
	if fellBack && w != nil {
		w.Warn(basePointWarning(params.BasePoint))
	}
	return shape, err
}

func basePointWarning(idx int) string {
	return fmt.Sprintf("base point index %d is out of range, using the profile origin", idx)
}
