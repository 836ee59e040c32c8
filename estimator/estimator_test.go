package estimator

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/flex-transformer/Wildcat-SLAM/config"
	"github.com/flex-transformer/Wildcat-SLAM/imu"
	"github.com/flex-transformer/Wildcat-SLAM/lidarpoint"
	"github.com/flex-transformer/Wildcat-SLAM/logging"
	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
)

func newTestEstimator(t *testing.T, mutate func(*config.Config)) *Estimator {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return e
}

// staticScan returns one scan of a stationary rig: a planar patch on
// z=1 observed with per-point timestamps spread across [start, start+0.076].
func staticScan(start float64) []lidarpoint.Point {
	var pts []lidarpoint.Point
	i := 0
	for xi := 0; xi < 4; xi++ {
		for yi := 0; yi < 5; yi++ {
			pts = append(pts, lidarpoint.Point{
				Position:  r3.Vector{X: 1 + 0.3*float64(xi), Y: 1 + 0.2*float64(yi), Z: 1},
				Timestamp: start + float64(i)*0.004,
			})
			i++
		}
	}
	return pts
}

// feedStatic drives e with a stationary rig for the given number of
// 100 ms steps: constant acc = (0,0,g), zero gyro, one scan per step.
func feedStatic(e *Estimator, steps int) {
	for step := 0; step < steps; step++ {
		t0 := float64(step) * 0.1
		for k := 0; k < 10; k++ {
			e.AddImuData(imu.Sample{
				Timestamp:          t0 + float64(k)*0.01,
				LinearAcceleration: r3.Vector{Z: 9.81},
			})
		}
		e.AddLidarScan(staticScan(t0 + 0.015))
	}
}

func TestAddLidarScanBeforeImuIsNoOp(t *testing.T) {
	e := newTestEstimator(t, nil)
	e.AddLidarScan(staticScan(0.015))
	test.That(t, e.SweepCount(), test.ShouldEqual, 0)
	_, _, ok := e.Pose()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestStaticRigStaysAtOrigin(t *testing.T) {
	e := newTestEstimator(t, nil)
	feedStatic(e, 8)
	test.That(t, e.SweepCount(), test.ShouldBeGreaterThan, 2)

	pose, timestamp, ok := e.Pose()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, timestamp, test.ShouldBeGreaterThan, 0.0)
	test.That(t, pose.Pos.Norm(), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, spatialmath.LogMap(pose.Rot).Norm(), test.ShouldAlmostEqual, 0, 1e-6)

	for _, s := range e.SampleStates().All() {
		test.That(t, s.Grav.X, test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, s.Grav.Y, test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, s.Grav.Z, test.ShouldAlmostEqual, -9.81, 1e-9)
	}
}

func TestCorrectionsZeroAfterEverySweep(t *testing.T) {
	e := newTestEstimator(t, nil)
	feedStatic(e, 6)
	test.That(t, e.SweepCount(), test.ShouldBeGreaterThan, 0)
	for _, s := range e.SampleStates().All() {
		test.That(t, s.IsCorrectionZero(), test.ShouldBeTrue)
	}
}

func TestDequesStayOrderedAndQuaternionsUnit(t *testing.T) {
	e := newTestEstimator(t, nil)
	feedStatic(e, 6)

	samples := e.SampleStates().All()
	for i := 1; i < len(samples); i++ {
		test.That(t, samples[i-1].Timestamp, test.ShouldBeLessThanOrEqualTo, samples[i].Timestamp)
	}
	imuAll := e.ImuStates().All()
	for i := 1; i < len(imuAll); i++ {
		test.That(t, imuAll[i-1].Timestamp, test.ShouldBeLessThanOrEqualTo, imuAll[i].Timestamp)
	}
	for _, s := range samples {
		test.That(t, spatialmath.AlmostEqualUnitQuat(s.Rot, 1e-9), test.ShouldBeTrue)
	}
	for _, s := range imuAll {
		test.That(t, spatialmath.AlmostEqualUnitQuat(s.Rot, 1e-9), test.ShouldBeTrue)
	}

	// Window ordering: samples.front <= imu.front <= surfels.front.
	test.That(t, samples[0].Timestamp, test.ShouldBeLessThanOrEqualTo, imuAll[0].Timestamp)
	if surfels := e.Surfels(); len(surfels) > 0 {
		test.That(t, imuAll[0].Timestamp, test.ShouldBeLessThanOrEqualTo, surfels[0].Timestamp)
	}
}

func TestWindowTrimBoundsSampleSpan(t *testing.T) {
	e := newTestEstimator(t, nil)
	feedStatic(e, 25)

	samples := e.SampleStates().All()
	test.That(t, len(samples), test.ShouldBeGreaterThanOrEqualTo, 10)
	test.That(t, len(samples), test.ShouldBeLessThanOrEqualTo, 11)
	span := samples[len(samples)-1].Timestamp - samples[0].Timestamp
	test.That(t, span, test.ShouldBeLessThanOrEqualTo, 1.0+1e-9)
	test.That(t, span, test.ShouldBeGreaterThan, 1.0-0.11)
}

func TestSurfelsExtractedAndPublished(t *testing.T) {
	e := newTestEstimator(t, nil)
	feedStatic(e, 6)
	surfels := e.Surfels()
	test.That(t, len(surfels), test.ShouldBeGreaterThan, 0)
	for _, s := range surfels {
		// The static plane z=1 with an upward (or downward) normal.
		test.That(t, s.CenterWorld.Z, test.ShouldAlmostEqual, 1, 1e-6)
		test.That(t, s.NormalWorld.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
	}
}

func TestBufferedCloudStampedToBufferFront(t *testing.T) {
	e := newTestEstimator(t, nil)
	feedStatic(e, 4)
	cloud, stamp, ok := e.BufferedCloud()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(cloud), test.ShouldBeGreaterThan, 0)
	test.That(t, stamp, test.ShouldEqual, cloud[0].Timestamp)
}

func TestMaxSweepsMakesFurtherScansNoOps(t *testing.T) {
	e := newTestEstimator(t, func(c *config.Config) { c.MaxSweeps = 1 })
	feedStatic(e, 10)
	test.That(t, e.SweepCount(), test.ShouldEqual, 1)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ImuRate = 0
	_, err := New(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
