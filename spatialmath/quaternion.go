// Package spatialmath provides the quaternion and rigid-transform primitives
// used throughout the estimator: the so(3) exponential/logarithm maps used to
// move between axis-angle correction vectors and unit quaternions, spherical
// interpolation between bracketing poses, and rigid pose composition.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// IdentityQuat is the unit quaternion representing no rotation.
var IdentityQuat = quat.Number{Real: 1}

// QuatNorm returns the Euclidean norm of a quaternion treated as an R4 vector.
func QuatNorm(q quat.Number) float64 {
	return math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// NormalizeQuat rescales q to unit norm. Panics if q is the zero quaternion,
// which can never arise from a correctly-integrated rotation.
func NormalizeQuat(q quat.Number) quat.Number {
	n := QuatNorm(q)
	if n == 0 {
		panic("spatialmath: cannot normalize zero quaternion")
	}
	return quat.Scale(1/n, q)
}

// ComposeQuat returns the rotation that first applies b, then a: a*b in
// Hamilton quaternion convention.
func ComposeQuat(a, b quat.Number) quat.Number {
	return NormalizeQuat(quat.Mul(a, b))
}

// ConjQuat returns the inverse rotation of a unit quaternion.
func ConjQuat(q quat.Number) quat.Number {
	return quat.Conj(q)
}

// Rotate applies the rotation q to the vector v.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// ExpMap is the so(3) exponential map: it converts an axis-angle rotation
// vector (direction = axis, magnitude = angle in radians) into the
// corresponding unit quaternion. The zero vector maps to the identity
// rotation.
//
// See spec.md §4.2/§4.8: `Exp(...)` is used both for IMU gyro integration
// and for applying solved rotation corrections.
func ExpMap(w r3.Vector) quat.Number {
	theta := w.Norm()
	if theta < 1e-12 {
		// First-order Taylor expansion avoids a divide-by-zero for the
		// (extremely common) zero-rotation case.
		return NormalizeQuat(quat.Number{Real: 1, Imag: w.X / 2, Jmag: w.Y / 2, Kmag: w.Z / 2})
	}
	half := theta / 2
	s := math.Sin(half) / theta
	return quat.Number{
		Real: math.Cos(half),
		Imag: w.X * s,
		Jmag: w.Y * s,
		Kmag: w.Z * s,
	}
}

// LogMap is the so(3) logarithm map, the inverse of ExpMap: it converts a
// unit quaternion into its axis-angle rotation vector.
func LogMap(q quat.Number) r3.Vector {
	q = NormalizeQuat(q)
	if q.Real < 0 {
		// Keep the angle in [0, pi] by choosing the antipodal representative;
		// q and -q represent the same rotation.
		q = quat.Scale(-1, q)
	}
	vNorm := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if vNorm < 1e-12 {
		return r3.Vector{X: 2 * q.Imag, Y: 2 * q.Jmag, Z: 2 * q.Kmag}
	}
	theta := 2 * math.Atan2(vNorm, q.Real)
	scale := theta / vNorm
	return r3.Vector{X: q.Imag * scale, Y: q.Jmag * scale, Z: q.Kmag * scale}
}

// Slerp spherically interpolates between two unit quaternions by fraction
// alpha in [0, 1], always taking the shorter arc.
func Slerp(a, b quat.Number, alpha float64) quat.Number {
	a = NormalizeQuat(a)
	b = NormalizeQuat(b)
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	const dotThreshold = 0.9995
	if dot > dotThreshold {
		// Nearly parallel: linear interpolation avoids division by a
		// near-zero sine below.
		return NormalizeQuat(quat.Number{
			Real: a.Real + alpha*(b.Real-a.Real),
			Imag: a.Imag + alpha*(b.Imag-a.Imag),
			Jmag: a.Jmag + alpha*(b.Jmag-a.Jmag),
			Kmag: a.Kmag + alpha*(b.Kmag-a.Kmag),
		})
	}
	theta0 := math.Acos(dot)
	theta := theta0 * alpha
	sinTheta0 := math.Sin(theta0)
	s0 := math.Cos(theta) - dot*math.Sin(theta)/sinTheta0
	s1 := math.Sin(theta) / sinTheta0
	return NormalizeQuat(quat.Number{
		Real: s0*a.Real + s1*b.Real,
		Imag: s0*a.Imag + s1*b.Imag,
		Jmag: s0*a.Jmag + s1*b.Jmag,
		Kmag: s0*a.Kmag + s1*b.Kmag,
	})
}

// AlmostEqualUnitQuat reports whether q has unit norm within tol, the
// quantified invariant in spec.md §8 ("quaternion norm equals 1 to within
// 1e-9").
func AlmostEqualUnitQuat(q quat.Number, tol float64) bool {
	return math.Abs(QuatNorm(q)-1) <= tol
}
