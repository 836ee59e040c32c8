package imu

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

func TestPredictorNotReadyBeforeTwoSamples(t *testing.T) {
	p := NewPredictor(100, 0.1, 9.81)
	test.That(t, p.Ready(), test.ShouldBeFalse)
	p.Ingest(Sample{Timestamp: 0, LinearAcceleration: r3.Vector{Z: 9.81}})
	test.That(t, p.Ready(), test.ShouldBeFalse)
	p.Ingest(Sample{Timestamp: 0.01, LinearAcceleration: r3.Vector{Z: 9.81}})
	test.That(t, p.Ready(), test.ShouldBeTrue)
}

func TestPredictorInitializesFirstSampleState(t *testing.T) {
	p := NewPredictor(100, 0.1, 9.81)
	p.Ingest(Sample{Timestamp: 0, LinearAcceleration: r3.Vector{Z: 9.81}})
	p.Ingest(Sample{Timestamp: 0.01, LinearAcceleration: r3.Vector{Z: 9.81}})

	imuStates := &window.ImuStates{}
	sampleStates := &window.SampleStates{}
	ok := p.Predict(0.01, imuStates, sampleStates)
	test.That(t, ok, test.ShouldBeTrue)

	test.That(t, imuStates.Len(), test.ShouldBeGreaterThanOrEqualTo, 2)
	test.That(t, sampleStates.Len(), test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, sampleStates.Front().Timestamp, test.ShouldEqual, float64(0))
	test.That(t, sampleStates.Front().Grav.Z, test.ShouldAlmostEqual, -9.81)
}

func TestPredictorStationaryStaysAtOrigin(t *testing.T) {
	p := NewPredictor(100, 0.1, 9.81)
	imuStates := &window.ImuStates{}
	sampleStates := &window.SampleStates{}

	dt := 0.01
	for i := 0; i < 20; i++ {
		p.Ingest(Sample{Timestamp: float64(i) * dt, LinearAcceleration: r3.Vector{Z: 9.81}})
	}
	ok := p.Predict(0.19, imuStates, sampleStates)
	test.That(t, ok, test.ShouldBeTrue)

	last := imuStates.Back()
	test.That(t, last.Pos.X, test.ShouldAlmostEqual, 0)
	test.That(t, last.Pos.Y, test.ShouldAlmostEqual, 0)
	test.That(t, last.Pos.Z, test.ShouldAlmostEqual, 0)
}

func TestPredictorSampleStatesExtendAtCadence(t *testing.T) {
	p := NewPredictor(100, 0.05, 9.81)
	imuStates := &window.ImuStates{}
	sampleStates := &window.SampleStates{}

	dt := 0.01
	for i := 0; i < 30; i++ {
		p.Ingest(Sample{Timestamp: float64(i) * dt, LinearAcceleration: r3.Vector{Z: 9.81}})
	}
	ok := p.Predict(0.29, imuStates, sampleStates)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sampleStates.Len(), test.ShouldBeGreaterThan, 1)
}

func TestPredictorPureRotationIntegratesGroundTruth(t *testing.T) {
	// Constant angular velocity about z; the accelerometer keeps reading
	// straight gravity since the spin axis is aligned with it.
	p := NewPredictor(100, 0.1, 9.81)
	imuStates := &window.ImuStates{}
	sampleStates := &window.SampleStates{}

	w := 0.5
	dt := 0.01
	n := 100
	for i := 0; i <= n; i++ {
		p.Ingest(Sample{
			Timestamp:          float64(i) * dt,
			AngularVelocity:    r3.Vector{Z: w},
			LinearAcceleration: r3.Vector{Z: 9.81},
		})
	}
	ok := p.Predict(float64(n)*dt, imuStates, sampleStates)
	test.That(t, ok, test.ShouldBeTrue)

	last := imuStates.Back()
	angle := spatialmath.LogMap(last.Rot)
	test.That(t, angle.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, angle.Y, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, angle.Z, test.ShouldAlmostEqual, w*last.Timestamp, 1e-6)
	test.That(t, last.Pos.Norm(), test.ShouldAlmostEqual, 0, 1e-9)
}

func TestPredictorVaryingAxisComposesBodyFrame(t *testing.T) {
	// A gyro signal whose direction changes over the window: increments
	// about different axes do not commute, so this fails if the
	// integrator composes them in world frame instead of body frame.
	p := NewPredictor(100, 0.1, 9.81)
	imuStates := &window.ImuStates{}
	sampleStates := &window.SampleStates{}

	dt := 0.01
	n := 60
	gyrAt := func(i int) r3.Vector {
		if i < n/2 {
			return r3.Vector{Z: 1.2}
		}
		return r3.Vector{X: 0.8}
	}
	for i := 0; i <= n; i++ {
		p.Ingest(Sample{
			Timestamp:          float64(i) * dt,
			AngularVelocity:    gyrAt(i),
			LinearAcceleration: r3.Vector{Z: 9.81},
		})
	}
	ok := p.Predict(float64(n)*dt, imuStates, sampleStates)
	test.That(t, ok, test.ShouldBeTrue)

	// Ground truth: rot_i = rot_{i-1} * Exp(0.5*(gyr_{i-1}+gyr_i)*dt),
	// the increment applied in body coordinates.
	want := spatialmath.IdentityQuat
	for i := 1; i <= n; i++ {
		dw := gyrAt(i - 1).Add(gyrAt(i)).Mul(0.5 * dt)
		want = spatialmath.ComposeQuat(want, spatialmath.ExpMap(dw))
	}

	got := imuStates.Back().Rot
	diff := spatialmath.LogMap(spatialmath.ComposeQuat(spatialmath.ConjQuat(want), got))
	test.That(t, diff.Norm(), test.ShouldAlmostEqual, 0, 1e-9)

	// And the two orderings genuinely differ for this signal.
	wrong := spatialmath.IdentityQuat
	for i := 1; i <= n; i++ {
		dw := gyrAt(i - 1).Add(gyrAt(i)).Mul(0.5 * dt)
		wrong = spatialmath.ComposeQuat(spatialmath.ExpMap(dw), wrong)
	}
	sep := spatialmath.LogMap(spatialmath.ComposeQuat(spatialmath.ConjQuat(want), wrong))
	test.That(t, sep.Norm(), test.ShouldBeGreaterThan, 1e-3)
}
