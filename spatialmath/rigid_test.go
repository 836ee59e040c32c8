package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestRigidTransformIdentity(t *testing.T) {
	r := IdentityRigid()
	p := r3.Vector{X: 1, Y: -2, Z: 3}
	test.That(t, r.Transform(p), test.ShouldResemble, p)
}

func TestRigidInverseComposeIsIdentity(t *testing.T) {
	r := NewRigid(r3.Vector{X: 1, Y: 2, Z: 3}, ExpMap(r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}))
	id := r.Compose(r.Inverse())
	test.That(t, id.Pos.X, test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, id.Pos.Y, test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, id.Pos.Z, test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, id.Rot.Real, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestInterpolateRigidEndpoints(t *testing.T) {
	a := NewRigid(r3.Vector{X: 0, Y: 0, Z: 0}, IdentityQuat)
	b := NewRigid(r3.Vector{X: 2, Y: 0, Z: 0}, ExpMap(r3.Vector{X: 0, Y: 0, Z: math.Pi / 2}))
	mid := InterpolateRigid(a, b, 0.5)
	test.That(t, mid.Pos.X, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func TestInterpolateRigidIdentityWhenStatic(t *testing.T) {
	a := NewRigid(r3.Vector{X: 5, Y: -1, Z: 2}, ExpMap(r3.Vector{X: 0.1, Y: 0, Z: 0}))
	mid := InterpolateRigid(a, a, 0.37)
	test.That(t, mid.Pos, test.ShouldResemble, a.Pos)
}
