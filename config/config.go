// Package config defines the estimator's typed configuration. Parsing is
// the caller's concern; this package only carries the parameters from
// spec.md §6 and validates them.
package config

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/flex-transformer/Wildcat-SLAM/lidarpoint"
	"github.com/flex-transformer/Wildcat-SLAM/match"
	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/surfel"
)

// Config enumerates every tunable of the sliding-window estimator.
type Config struct {
	// ExtLidar2Imu is the rigid LiDAR-to-IMU extrinsic applied to every
	// point on ingest.
	ExtLidar2Imu spatialmath.Rigid

	MinRange         float64
	MaxRange         float64
	BlindBoundingBox lidarpoint.Box

	// SweepDuration is the seconds of points collected per sweep.
	SweepDuration float64
	// ImuRate is the IMU sample rate in Hz.
	ImuRate float64
	// SampleDt is the seconds between sample states.
	SampleDt float64
	// SlidingWindowDuration bounds the sample-state span kept for
	// optimization.
	SlidingWindowDuration float64
	// GravityNorm is the local gravity magnitude in m/s^2.
	GravityNorm float64

	GyroscopeNoiseDensityCostWeight     float64
	AccelerometerNoiseDensityCostWeight float64
	GyroscopeRandomWalkCostWeight       float64
	AccelerometerRandomWalkCostWeight   float64

	OuterIterNumMax int
	InnerIterNumMax int

	// MaxSweeps, when positive, makes AddLidarScan a no-op once that many
	// sweeps have been processed. Zero means unbounded.
	MaxSweeps int

	Surfel  surfel.ExtractConfig
	Matcher match.Config
}

// DefaultConfig returns a Config with workable defaults for a typical
// rotating-LiDAR rig; callers override per deployment.
func DefaultConfig() Config {
	return Config{
		ExtLidar2Imu:          spatialmath.IdentityRigid(),
		MinRange:              0.5,
		MaxRange:              80,
		SweepDuration:         0.1,
		ImuRate:               100,
		SampleDt:              0.1,
		SlidingWindowDuration: 1.0,
		GravityNorm:           9.81,

		GyroscopeNoiseDensityCostWeight:     100,
		AccelerometerNoiseDensityCostWeight: 100,
		GyroscopeRandomWalkCostWeight:       1000,
		AccelerometerRandomWalkCostWeight:   1000,

		OuterIterNumMax: 2,
		InnerIterNumMax: 10,

		Surfel: surfel.ExtractConfig{
			VoxelSize:       1.0,
			MinPointsPerVox: 6,
			PlanarityRatio:  4,
			PlanarityMax:    0.3,
		},
		Matcher: match.Config{
			K:           5,
			CosThetaMax: 0.9,
			DistMax:     0.5,
		},
	}
}

// Validate checks the configuration for internal consistency, combining
// every violation into one error.
func (c Config) Validate() error {
	var err error
	if c.MinRange < 0 {
		err = multierr.Combine(err, errors.New("min_range must be non-negative"))
	}
	if c.MaxRange <= c.MinRange {
		err = multierr.Combine(err, errors.Errorf("max_range (%v) must exceed min_range (%v)", c.MaxRange, c.MinRange))
	}
	if c.SweepDuration <= 0 {
		err = multierr.Combine(err, errors.New("sweep_duration must be positive"))
	}
	if c.ImuRate <= 0 {
		err = multierr.Combine(err, errors.New("imu_rate must be positive"))
	}
	if c.SampleDt <= 0 {
		err = multierr.Combine(err, errors.New("sample_dt must be positive"))
	}
	if c.SlidingWindowDuration < c.SampleDt {
		err = multierr.Combine(err, errors.Errorf("sliding_window_duration (%v) must cover at least one sample_dt (%v)", c.SlidingWindowDuration, c.SampleDt))
	}
	if c.GravityNorm <= 0 {
		err = multierr.Combine(err, errors.New("gravity_norm must be positive"))
	}
	if c.OuterIterNumMax <= 0 {
		err = multierr.Combine(err, errors.New("outer_iter_num_max must be positive"))
	}
	if c.InnerIterNumMax <= 0 {
		err = multierr.Combine(err, errors.New("inner_iter_num_max must be positive"))
	}
	if c.MaxSweeps < 0 {
		err = multierr.Combine(err, errors.New("max_sweeps must be non-negative"))
	}
	if c.Surfel.VoxelSize <= 0 {
		err = multierr.Combine(err, errors.New("surfel voxel size must be positive"))
	}
	if c.Matcher.K <= 0 {
		err = multierr.Combine(err, errors.New("matcher k must be positive"))
	}
	return err
}
