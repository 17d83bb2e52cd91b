package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Placement is a rigid transform: a rotation followed by a translation to
// Base. The zero value is the identity placement.
type Placement struct {
	Base     r3.Vec
	Rotation Rotation
}

// Identity returns the identity placement.
func Identity() Placement {
	return Placement{Rotation: IdentityRotation()}
}

// NewPlacement returns the placement rotating by angle degrees about axis and
// then moving to base.
func NewPlacement(base, axis r3.Vec, angle float64) Placement {
	return Placement{Base: base, Rotation: NewRotation(axis, Radians(angle))}
}

// Translation returns the placement that only moves by v.
func Translation(v r3.Vec) Placement {
	return Placement{Base: v, Rotation: IdentityRotation()}
}

// RotationAbout returns the placement that rotates by angle degrees about the
// axis through center with direction axis.
func RotationAbout(center, axis r3.Vec, angle float64) Placement {
	rot := NewRotation(axis, Radians(angle))
	return Placement{
		Base:     r3.Sub(center, rot.MultVec(center)),
		Rotation: rot,
	}
}

// Multiply returns the placement that applies q first, then p.
func (p Placement) Multiply(q Placement) Placement {
	return Placement{
		Base:     r3.Add(p.Base, p.Rotation.MultVec(q.Base)),
		Rotation: p.Rotation.Multiply(q.Rotation),
	}
}

// MultVec transforms the point v.
func (p Placement) MultVec(v r3.Vec) r3.Vec {
	return r3.Add(p.Base, p.Rotation.MultVec(v))
}

// MultDir transforms the direction v, ignoring the translation.
func (p Placement) MultDir(v r3.Vec) r3.Vec {
	return p.Rotation.MultVec(v)
}

// Inverse returns the placement undoing p.
func (p Placement) Inverse() Placement {
	inv := p.Rotation.Inverse()
	return Placement{
		Base:     r3.Scale(-1, inv.MultVec(p.Base)),
		Rotation: inv,
	}
}

// IsIdentity reports whether p neither moves nor rotates.
func (p Placement) IsIdentity() bool {
	return IsNull(p.Base) && p.Rotation.IsIdentity()
}

// Equal reports whether p and q are the same transform within tol.
func (p Placement) Equal(q Placement, tol float64) bool {
	return r3.Norm(r3.Sub(p.Base, q.Base)) <= tol && p.Rotation.Equal(q.Rotation, tol)
}

// String implements fmt.Stringer.
func (p Placement) String() string {
	return fmt.Sprintf("Placement(base=(%.4g, %.4g, %.4g), %s)", p.Base.X, p.Base.Y, p.Base.Z, p.Rotation)
}
