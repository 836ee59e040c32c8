package lidarpoint

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

func staticImuStates(start, end, dt float64) *window.ImuStates {
	q := &window.ImuStates{}
	for t := start; t <= end+1e-9; t += dt {
		q.Append(&window.ImuState{Timestamp: t, Rot: spatialmath.IdentityQuat})
	}
	return q
}

func TestUndistortStaticRigIsIdentity(t *testing.T) {
	states := staticImuStates(0, 1, 0.1)
	sweep := []Point{
		{Position: r3.Vector{X: 1, Y: 2, Z: 3}, Timestamp: 0.25},
		{Position: r3.Vector{X: -1, Y: 0, Z: 5}, Timestamp: 0.55},
	}

	out, err := Undistort(sweep, states)
	test.That(t, err, test.ShouldBeNil)
	for i, pt := range out {
		test.That(t, pt.Position.X, test.ShouldAlmostEqual, sweep[i].Position.X)
		test.That(t, pt.Position.Y, test.ShouldAlmostEqual, sweep[i].Position.Y)
		test.That(t, pt.Position.Z, test.ShouldAlmostEqual, sweep[i].Position.Z)
	}
}

func TestUndistortOutOfRangeErrors(t *testing.T) {
	states := staticImuStates(0, 1, 0.1)
	sweep := []Point{{Position: r3.Vector{X: 1}, Timestamp: 5}}
	_, err := Undistort(sweep, states)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUndistortAppliesTranslation(t *testing.T) {
	states := &window.ImuStates{}
	states.Append(&window.ImuState{Timestamp: 0, Rot: spatialmath.IdentityQuat, Pos: r3.Vector{}})
	states.Append(&window.ImuState{Timestamp: 1, Rot: spatialmath.IdentityQuat, Pos: r3.Vector{X: 2}})

	out, err := Undistort([]Point{{Position: r3.Vector{X: 1}, Timestamp: 0.5}}, states)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out[0].Position.X, test.ShouldAlmostEqual, 2.0)
}
