// Package estimator wires the sliding-window LiDAR-inertial pipeline
// together behind AddImuData/AddLidarScan: ingest and head-sync, sweep
// assembly, IMU prediction, undistortion, surfel extraction and matching,
// the joint LiDAR+IMU solve, B-spline correction, and window trimming.
// See spec.md §2.
package estimator

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/flex-transformer/Wildcat-SLAM/config"
	"github.com/flex-transformer/Wildcat-SLAM/corrector"
	"github.com/flex-transformer/Wildcat-SLAM/imu"
	"github.com/flex-transformer/Wildcat-SLAM/lidarpoint"
	"github.com/flex-transformer/Wildcat-SLAM/logging"
	"github.com/flex-transformer/Wildcat-SLAM/match"
	"github.com/flex-transformer/Wildcat-SLAM/optimizer"
	"github.com/flex-transformer/Wildcat-SLAM/residuals"
	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/surfel"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// Estimator is the sliding-window batch LIO estimator. It is
// single-threaded: AddImuData and AddLidarScan must be called from one
// logical thread, and AddLidarScan may synchronously run a full sweep of
// the pipeline including the optimizer.
type Estimator struct {
	cfg    config.Config
	logger logging.Logger

	points    *lidarpoint.Buffer
	imuBuff   []imu.Sample
	predictor *imu.Predictor

	imuStates    *window.ImuStates
	sampleStates *window.SampleStates
	surfels      []*surfel.Surfel
	globalMap    *surfel.GlobalMap

	sweepID int
}

// New constructs an estimator from a validated config.
func New(cfg config.Config, logger logging.Logger) (*Estimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "estimator config")
	}
	return &Estimator{
		cfg:    cfg,
		logger: logger,
		points: lidarpoint.NewBuffer(lidarpoint.PrefilterConfig{
			ExtLidar2Imu:     cfg.ExtLidar2Imu,
			MinRange:         cfg.MinRange,
			MaxRange:         cfg.MaxRange,
			BlindBoundingBox: cfg.BlindBoundingBox,
		}),
		predictor:    imu.NewPredictor(cfg.ImuRate, cfg.SampleDt, cfg.GravityNorm),
		imuStates:    &window.ImuStates{},
		sampleStates: &window.SampleStates{},
		globalMap:    surfel.NewGlobalMap(cfg.Surfel.VoxelSize),
	}, nil
}

// AddImuData buffers one IMU sample. Before head-sync completes, samples
// accumulate in a raw queue the sync may trim; after it, they feed the
// predictor directly.
func (e *Estimator) AddImuData(s imu.Sample) {
	if e.points.Synced() {
		e.predictor.Ingest(s)
		return
	}
	if len(e.imuBuff) > 0 && s.Timestamp < e.imuBuff[len(e.imuBuff)-1].Timestamp {
		panic(errors.Errorf("estimator: non-decreasing IMU timestamp invariant violated: %v < %v",
			s.Timestamp, e.imuBuff[len(e.imuBuff)-1].Timestamp))
	}
	e.imuBuff = append(e.imuBuff, s)
}

// AddLidarScan ingests a point cloud (per-point timestamps on the IMU
// clock) and, if a full sweep is available, synchronously runs one
// pipeline pass: predict, build, undistort, extract, match, solve,
// correct, trim.
func (e *Estimator) AddLidarScan(cloud []lidarpoint.Point) {
	if e.cfg.MaxSweeps > 0 && e.sweepID >= e.cfg.MaxSweeps {
		return
	}

	for _, pt := range cloud {
		e.points.Ingest(pt)
	}

	if !e.syncHeads() {
		return
	}
	if e.points.Empty() {
		return
	}

	sweepEndtime := e.points.Front().Timestamp + e.cfg.SweepDuration
	if e.points.Back().Timestamp < sweepEndtime ||
		e.predictor.Len() == 0 || e.predictor.LatestTimestamp() < sweepEndtime {
		// Waiting for the sweep interval to be covered on both streams.
		return
	}
	if !e.predictor.Ready() {
		return
	}

	if !e.predictor.Predict(sweepEndtime, e.imuStates, e.sampleStates) {
		return
	}
	// Pull the sweep boundary back onto the last sample state so every
	// sweep point is inside the optimization window's coverage.
	sweepEndtime = e.sampleStates.Back().Timestamp

	sweep := lidarpoint.BuildSweep(e.points, sweepEndtime)
	if len(sweep) == 0 {
		return
	}
	sweepTag := uuid.New().String()
	e.logger.Infow("built sweep",
		"sweep_id", e.sweepID,
		"sweep_tag", sweepTag,
		"points", len(sweep),
		"start", sweep[0].Timestamp,
		"end", sweep[len(sweep)-1].Timestamp,
		"sweep_endtime", sweepEndtime,
	)

	undistorted, err := lidarpoint.Undistort(sweep, e.imuStates)
	if err != nil {
		panic(errors.Wrap(err, "estimator: sweep outside IMU trajectory support"))
	}

	newSurfels := surfel.Extract(undistorted, e.cfg.Surfel)
	// Extraction runs on world-frame (undistorted) points; re-express each
	// new surfel in its backing IMU state's frame so RebakeWorldPoses maps
	// it back through the current trajectory.
	for _, s := range newSurfels {
		left, right, _, err := window.BracketImuStates(e.imuStates.All(), s.Timestamp)
		if err != nil {
			panic(errors.Wrap(err, "estimator: surfel outside IMU trajectory support"))
		}
		factor := (s.Timestamp - left.Timestamp) / (right.Timestamp - left.Timestamp)
		toLocal := spatialmath.InterpolateRigid(left.Pose(), right.Pose(), factor).Inverse()
		s.CenterLocal = toLocal.Transform(s.CenterLocal)
		s.NormalLocal = spatialmath.Rotate(toLocal.Rot, s.NormalLocal)
	}
	e.surfels = append(e.surfels, newSurfels...)
	if err := surfel.RebakeWorldPoses(e.surfels, e.imuStates); err != nil {
		panic(errors.Wrap(err, "estimator: surfel outside IMU trajectory support"))
	}
	if e.sweepID == 0 {
		e.globalMap.Insert(newSurfels, r3.Vector{})
	}

	for iter := 0; iter < e.cfg.OuterIterNumMax; iter++ {
		corrs := match.Match(e.surfels, e.cfg.Matcher)

		problem := optimizer.NewProblem()
		blocks := residuals.NewBlocks()
		lidarAdded, lidarSkipped := residuals.BuildLidar(corrs, e.sampleStates.All(), blocks, problem)
		imuAdded := residuals.BuildImu(
			e.imuStates.All(), e.sampleStates.All(),
			residuals.ImuWeights{
				GyroNoiseDensity: e.cfg.GyroscopeNoiseDensityCostWeight,
				AccNoiseDensity:  e.cfg.AccelerometerNoiseDensityCostWeight,
				GyroRandomWalk:   e.cfg.GyroscopeRandomWalkCostWeight,
				AccRandomWalk:    e.cfg.AccelerometerRandomWalkCostWeight,
			},
			e.cfg.ImuRate, blocks, problem,
		)

		// Pin the first sample state's translation correction so the
		// problem is observable; rotation stays free.
		first := blocks.Of(e.sampleStates.Front())
		first.SetConstant(window.PosCorSpan)
		first.SetConstant(window.PosCorSpan + 1)
		first.SetConstant(window.PosCorSpan + 2)

		e.logResidualStats("pre-solve", sweepTag, problem)
		summary := optimizer.Solve(problem, e.cfg.InnerIterNumMax)
		if summary.Converged {
			e.logger.Infow("solve finished",
				"sweep_tag", sweepTag, "outer_iter", iter,
				"initial_cost", summary.InitialCost, "final_cost", summary.FinalCost,
				"iterations", summary.Iterations,
				"lidar_residuals", lidarAdded, "lidar_skipped", lidarSkipped,
				"imu_residuals", imuAdded,
			)
		} else {
			// Non-convergence is tolerated: whatever partial correction
			// the solver produced is still applied.
			e.logger.Warnw("solve did not converge",
				"sweep_tag", sweepTag, "outer_iter", iter,
				"initial_cost", summary.InitialCost, "final_cost", summary.FinalCost,
				"iterations", summary.Iterations,
			)
		}

		corrector.UpdateImuPoses(e.sampleStates.All(), e.imuStates)
		if err := surfel.RebakeWorldPoses(e.surfels, e.imuStates); err != nil {
			panic(errors.Wrap(err, "estimator: surfel outside IMU trajectory support"))
		}
		corrector.UpdateSamplePoses(e.sampleStates.All())
		e.logResidualStats("post-solve", sweepTag, problem)
	}

	window.Trim(e.sampleStates, e.imuStates, e.cfg.SlidingWindowDuration, func(olderThan float64) {
		e.surfels = surfel.DropOlderThan(e.surfels, olderThan)
	})

	e.sweepID++
}

// syncHeads runs the one-shot head synchronization between the point
// buffer and the raw IMU queue, handing the surviving IMU samples to the
// predictor once sync latches.
func (e *Estimator) syncHeads() bool {
	alreadySynced := e.points.Synced()
	remaining, ok := lidarpoint.SyncHeads(e.points, e.imuBuff)
	if !ok {
		return false
	}
	if !alreadySynced {
		for _, s := range remaining {
			e.predictor.Ingest(s)
		}
		e.imuBuff = nil
	}
	return true
}

// logResidualStats logs one debug entry with residual counts and RMS per
// factor family: one RMS field for the surfel factors, four for the IMU
// residual parts.
func (e *Estimator) logResidualStats(stage, sweepTag string, problem *optimizer.Problem) {
	var surfelSq float64
	var surfelN int
	var imuSq [4]float64
	var imuN int
	for _, res := range problem.Residuals() {
		vals := res.Evaluate()
		switch res.Dim() {
		case 3:
			for _, v := range vals {
				surfelSq += v * v
			}
			surfelN++
		case 12:
			for part := 0; part < 4; part++ {
				for k := 0; k < 3; k++ {
					v := vals[part*3+k]
					imuSq[part] += v * v
				}
			}
			imuN++
		}
	}

	fields := []interface{}{
		"sweep_tag", sweepTag,
		"surfel_count", surfelN,
		"surfel_rms", rms(surfelSq, surfelN*3),
		"imu_count", imuN,
	}
	for part, name := range []string{"gyro", "acc", "gyro_bias", "acc_bias"} {
		fields = append(fields, name+"_rms", rms(imuSq[part], imuN*3))
	}
	e.logger.Debugw("residual stats "+stage, fields...)
}

func rms(sq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Sqrt(sq / float64(n))
}

// Surfels returns the current window's surfel set, for visualization.
func (e *Estimator) Surfels() []*surfel.Surfel {
	return e.surfels
}

// BufferedCloud returns a copy of the currently buffered points plus the
// stamp of the latest sweep start (the buffer front's timestamp). ok is
// false while the buffer is empty.
func (e *Estimator) BufferedCloud() (cloud []lidarpoint.Point, stamp float64, ok bool) {
	if e.points.Empty() {
		return nil, 0, false
	}
	cloud = append(cloud, e.points.All()...)
	return cloud, e.points.Front().Timestamp, true
}

// Pose returns the rig's latest estimated pose — the newest sample state's
// (pos, rot) as a world-to-imu_link transform — and its timestamp. ok is
// false before the first sample state exists.
func (e *Estimator) Pose() (pose spatialmath.Rigid, timestamp float64, ok bool) {
	if e.sampleStates.Empty() {
		return spatialmath.IdentityRigid(), 0, false
	}
	back := e.sampleStates.Back()
	return back.Pose(), back.Timestamp, true
}

// SweepCount reports how many sweeps have been fully processed.
func (e *Estimator) SweepCount() int {
	return e.sweepID
}

// SampleStates exposes the sample-state deque for tests and diagnostics.
func (e *Estimator) SampleStates() *window.SampleStates {
	return e.sampleStates
}

// ImuStates exposes the IMU-state deque for tests and diagnostics.
func (e *Estimator) ImuStates() *window.ImuStates {
	return e.imuStates
}
