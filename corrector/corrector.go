// Package corrector pushes the optimizer's sparse sample-state corrections
// into the dense IMU trajectory: a cubic B-spline through the correction
// knots covers the interior, relative-transform composition extends the
// head and tail, and the sample states then absorb their own corrections
// and reset to zero. See spec.md §4.8.
package corrector

import (
	"github.com/golang/geo/r3"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/spline"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// UpdateImuPoses applies the sample-state corrections to every IMU state.
// States inside the spline support get rot <- Exp(rot_cor(t))*rot and
// pos <- pos + pos_cor(t); states before the first corrected index and
// after the last are updated by preserving their original relative
// transform to the neighbor that was corrected.
func UpdateImuPoses(samples []*window.SampleState, imuStates *window.ImuStates) {
	rotInterp, posInterp := interpolators(samples)

	all := imuStates.All()
	oldPoses := make([]spatialmath.Rigid, len(all))
	for i, s := range all {
		oldPoses[i] = s.Pose()
	}

	firstIdx, lastIdx := -1, -1
	for i, s := range all {
		rotCor, rotOK := rotInterp.Interp(s.Timestamp)
		posCor, posOK := posInterp.Interp(s.Timestamp)
		if !rotOK || !posOK {
			continue
		}
		s.Rot = spatialmath.ComposeQuat(spatialmath.ExpMap(rotCor), s.Rot)
		s.Pos = s.Pos.Add(posCor)
		if firstIdx == -1 {
			firstIdx = i
		}
		lastIdx = i
	}
	if firstIdx == -1 {
		return
	}

	for i := firstIdx - 1; i >= 0; i-- {
		pose := oldPoses[i].Compose(oldPoses[i+1].Inverse()).Compose(all[i+1].Pose())
		all[i].Rot = pose.Rot
		all[i].Pos = pose.Pos
	}
	for i := lastIdx + 1; i < len(all); i++ {
		pose := oldPoses[i].Compose(oldPoses[i-1].Inverse()).Compose(all[i-1].Pose())
		all[i].Rot = pose.Rot
		all[i].Pos = pose.Pos
	}
}

// UpdateSamplePoses absorbs every sample state's correction block into its
// nominal state and zeroes it.
func UpdateSamplePoses(samples []*window.SampleState) {
	for _, s := range samples {
		s.ApplyCorrection()
	}
}

func interpolators(samples []*window.SampleState) (rot, pos *spline.Interpolator) {
	timestamps := make([]float64, len(samples))
	rotCors := make([]r3.Vector, len(samples))
	posCors := make([]r3.Vector, len(samples))
	for i, s := range samples {
		timestamps[i] = s.Timestamp
		rotCors[i] = s.RotCor()
		posCors[i] = s.PosCor()
	}
	return spline.NewInterpolator(timestamps, rotCors), spline.NewInterpolator(timestamps, posCors)
}
