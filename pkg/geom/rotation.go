package geom

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrPriorityOrder is returned by RotationByAxes for an order string that is
// not a permutation of "XYZ".
var ErrPriorityOrder = errors.New("geom: priority order must be a permutation of XYZ")

// Rotation is a rotation in space stored as a unit quaternion.
// The zero value is the identity rotation.
type Rotation struct {
	q quat.Number
}

// IdentityRotation returns the rotation that leaves every vector unchanged.
func IdentityRotation() Rotation {
	return Rotation{q: quat.Number{Real: 1}}
}

// NewRotation returns the rotation by angle radians about axis, following the
// right-hand rule. A null axis or zero angle yields the identity.
func NewRotation(axis r3.Vec, angle float64) Rotation {
	if IsNull(axis) || angle == 0 {
		return IdentityRotation()
	}
	return Rotation{q: canonical(quat.Number(r3.NewRotation(angle, axis)))}
}

// RotationFromQuat wraps q, normalising it. A zero quaternion is the identity.
func RotationFromQuat(q quat.Number) Rotation {
	if q == (quat.Number{}) {
		return IdentityRotation()
	}
	return Rotation{q: canonical(q)}
}

func (r Rotation) unit() quat.Number {
	if r.q == (quat.Number{}) {
		return quat.Number{Real: 1}
	}
	return r.q
}

// canonical normalises q and picks the sign with a non-negative real part so
// that equal rotations have equal representations.
func canonical(q quat.Number) quat.Number {
	if n := quat.Abs(q); n != 0 && n != 1 {
		q = quat.Scale(1/n, q)
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return q
}

// Quat returns the unit quaternion of r.
func (r Rotation) Quat() quat.Number {
	return r.unit()
}

// MultVec rotates v.
func (r Rotation) MultVec(v r3.Vec) r3.Vec {
	return r3.Rotation(r.unit()).Rotate(v)
}

// Multiply returns the rotation that applies o first, then r.
func (r Rotation) Multiply(o Rotation) Rotation {
	return Rotation{q: canonical(quat.Mul(r.unit(), o.unit()))}
}

// Inverse returns the rotation undoing r.
func (r Rotation) Inverse() Rotation {
	return Rotation{q: canonical(quat.Conj(r.unit()))}
}

// IsIdentity reports whether r is the identity within Confusion.
func (r Rotation) IsIdentity() bool {
	q := r.unit()
	return math.Hypot(math.Hypot(q.Imag, q.Jmag), q.Kmag) <= Confusion
}

// Equal reports whether r and o describe the same rotation within tol.
func (r Rotation) Equal(o Rotation, tol float64) bool {
	a, b := r.unit(), o.unit()
	d := quat.Abs(quat.Sub(a, b))
	s := quat.Abs(quat.Add(a, b))
	return d <= tol || s <= tol
}

// AxisAngle returns the rotation axis and angle in radians. The identity
// reports the Z axis and a zero angle.
func (r Rotation) AxisAngle() (r3.Vec, float64) {
	q := r.unit()
	v := r3.Vec{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	s := r3.Norm(v)
	if s <= Confusion {
		return ZAxis, 0
	}
	return r3.Scale(1/s, v), 2 * math.Atan2(s, q.Real)
}

// Matrix returns the 3×3 rotation matrix of r.
func (r Rotation) Matrix() *r3.Mat {
	x, y, z := r.MultVec(XAxis), r.MultVec(YAxis), r.MultVec(ZAxis)
	return r3.NewMat([]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	})
}

// String implements fmt.Stringer.
func (r Rotation) String() string {
	axis, angle := r.AxisAngle()
	return fmt.Sprintf("Rotation(axis=(%.4g, %.4g, %.4g), angle=%.4g°)", axis.X, axis.Y, axis.Z, Degrees(angle))
}

// rotationFromColumns builds a rotation from the images of the X, Y and Z
// axes, which must form a right-handed orthonormal basis.
func rotationFromColumns(c [3]r3.Vec) Rotation {
	m00, m01, m02 := c[0].X, c[1].X, c[2].X
	m10, m11, m12 := c[0].Y, c[1].Y, c[2].Y
	m20, m21, m22 := c[0].Z, c[1].Z, c[2].Z

	var q quat.Number
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = quat.Number{Real: s / 4, Imag: (m21 - m12) / s, Jmag: (m02 - m20) / s, Kmag: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = quat.Number{Real: (m21 - m12) / s, Imag: s / 4, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = quat.Number{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: s / 4, Kmag: (m12 + m21) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = quat.Number{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: s / 4}
	}
	return Rotation{q: canonical(q)}
}

// parseOrder converts a priority string such as "ZYX" into axis indices.
func parseOrder(order string) ([3]int, error) {
	var idx [3]int
	order = strings.ToUpper(order)
	if len(order) != 3 {
		return idx, fmt.Errorf("%w: %q", ErrPriorityOrder, order)
	}
	var seen [3]bool
	for i := 0; i < 3; i++ {
		a := int(order[i]) - 'X'
		if a < 0 || a > 2 || seen[a] {
			return idx, fmt.Errorf("%w: %q", ErrPriorityOrder, order)
		}
		seen[a] = true
		idx[i] = a
	}
	return idx, nil
}

// RotationByAxes returns the rotation that maps the world X, Y and Z axes
// onto the directions xdir, ydir and zdir as closely as possible.
//
// The directions are considered in the given priority order. The first
// non-null one is matched exactly; the next one not parallel to it only fixes
// the plane of the second axis; the last axis follows from the right-hand
// rule. Null directions are skipped. When no supplied direction can serve as
// the second axis, the world axes named after the main one in order are
// tried instead. All-null input yields the identity.
func RotationByAxes(xdir, ydir, zdir r3.Vec, order string) (Rotation, error) {
	idx, err := parseOrder(order)
	if err != nil {
		return Rotation{}, err
	}
	dirs := [3]r3.Vec{xdir, ydir, zdir}
	world := [3]r3.Vec{XAxis, YAxis, ZAxis}

	main := -1
	for i := 0; i < 3; i++ {
		if !IsNull(dirs[idx[i]]) {
			main = i
			break
		}
	}
	if main < 0 {
		return IdentityRotation(), nil
	}
	m := idx[main]
	mainDir := r3.Unit(dirs[m])

	h := -1
	var hint r3.Vec
	for i := main + 1; i < 3; i++ {
		d := dirs[idx[i]]
		if !IsNull(d) && !Parallel(d, mainDir) {
			h, hint = idx[i], d
			break
		}
	}
	if h < 0 {
		for i := 0; i < 3; i++ {
			if idx[i] == m || Parallel(world[idx[i]], mainDir) {
				continue
			}
			h, hint = idx[i], world[idx[i]]
			break
		}
	}
	if h < 0 {
		// Only reachable when every candidate is parallel to the main axis,
		// which cannot happen for three orthogonal world axes.
		return IdentityRotation(), nil
	}

	var c [3]r3.Vec
	c[m] = mainDir
	if h == (m+1)%3 {
		k := (m + 2) % 3
		c[k] = r3.Unit(r3.Cross(mainDir, hint))
		c[h] = r3.Cross(c[k], mainDir)
	} else {
		k := (m + 1) % 3
		c[k] = r3.Unit(r3.Cross(hint, mainDir))
		c[h] = r3.Cross(mainDir, c[k])
	}
	return rotationFromColumns(c), nil
}

// MustRotationByAxes is like RotationByAxes but panics if order is not a
// permutation of "XYZ". It is meant for constant priority orders.
func MustRotationByAxes(xdir, ydir, zdir r3.Vec, order string) Rotation {
	r, err := RotationByAxes(xdir, ydir, zdir, order)
	if err != nil {
		panic(err)
	}
	return r
}
