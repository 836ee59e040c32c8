package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Rigid is a rigid-body transform (pos, rot): applying it to a point p
// computes rot*p + pos. Sample states, IMU states, and surfel poses are all
// expressed as a Rigid.
type Rigid struct {
	Pos r3.Vector
	Rot quat.Number
}

// NewRigid constructs a Rigid and normalizes its rotation.
func NewRigid(pos r3.Vector, rot quat.Number) Rigid {
	return Rigid{Pos: pos, Rot: NormalizeQuat(rot)}
}

// IdentityRigid is the identity transform.
func IdentityRigid() Rigid {
	return Rigid{Pos: r3.Vector{}, Rot: IdentityQuat}
}

// Transform maps a point from this frame's local coordinates into the
// parent frame: rot*p + pos.
func (r Rigid) Transform(p r3.Vector) r3.Vector {
	return Rotate(r.Rot, p).Add(r.Pos)
}

// Compose returns the product r * other: applying the result to a point p is
// equivalent to r.Transform(other.Transform(p))... i.e. other is the inner
// (first-applied) transform, matching Eigen's `a * b` convention used by the
// reference implementation (`Rigid3d{...} * Rigid3d{...}.inverse() * ...`).
func (r Rigid) Compose(other Rigid) Rigid {
	return NewRigid(
		Rotate(r.Rot, other.Pos).Add(r.Pos),
		quat.Mul(r.Rot, other.Rot),
	)
}

// Inverse returns the rigid transform that undoes r.
func (r Rigid) Inverse() Rigid {
	inv := ConjQuat(r.Rot)
	return NewRigid(Rotate(inv, r.Pos.Mul(-1)), inv)
}

// InterpolateRigid linearly interpolates position and slerps rotation
// between a (alpha=0) and b (alpha=1). This is the same bracket
// interpolation the predictor, undistorter, and surfel rebake compute
// inline.
func InterpolateRigid(a, b Rigid, alpha float64) Rigid {
	return Rigid{
		Pos: a.Pos.Mul(1 - alpha).Add(b.Pos.Mul(alpha)),
		Rot: Slerp(a.Rot, b.Rot, alpha),
	}
}
