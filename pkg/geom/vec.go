// Package geom provides the small amount of 3D transform algebra the frame
// builder needs: vectors, rotations and placements. Vectors are gonum's
// r3.Vec; rotations are unit quaternions.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Confusion is the distance below which two points are considered
// coincident and a vector is considered null.
const Confusion = 1e-7

// Axis unit vectors.
var (
	XAxis = r3.Vec{X: 1}
	YAxis = r3.Vec{Y: 1}
	ZAxis = r3.Vec{Z: 1}
)

// V is shorthand for r3.Vec{X: x, Y: y, Z: z}.
func V(x, y, z float64) r3.Vec {
	return r3.Vec{X: x, Y: y, Z: z}
}

// IsNull reports whether v has (near) zero length.
func IsNull(v r3.Vec) bool {
	return r3.Norm(v) <= Confusion
}

// Coincident reports whether a and b are the same point within Confusion.
func Coincident(a, b r3.Vec) bool {
	return IsNull(r3.Sub(a, b))
}

// Parallel reports whether a and b are parallel or anti-parallel.
// Null vectors are parallel to everything.
func Parallel(a, b r3.Vec) bool {
	if IsNull(a) || IsNull(b) {
		return true
	}
	return r3.Norm(r3.Cross(r3.Unit(a), r3.Unit(b))) <= Confusion
}

// Angle returns the angle between a and b in radians, in [0, π].
// The angle involving a null vector is 0.
func Angle(a, b r3.Vec) float64 {
	if IsNull(a) || IsNull(b) {
		return 0
	}
	c := r3.Cos(a, b)
	switch {
	case c > 1:
		c = 1
	case c < -1:
		c = -1
	}
	return math.Acos(c)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
