package lidarpoint

import (
	"github.com/pkg/errors"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// Undistort motion-compensates a sweep's points into the common world frame
// of the IMU trajectory (spec.md §4.3), interpolating each point's
// bracketing IMU-state pair (pose by lerp/slerp) and transforming the
// point by the resulting rigid pose. Grounded on UndistortSweep in the
// original. Returns an error if any point's timestamp has no bracketing
// IMU-state pair, which should not happen for a sweep built against an
// IMU-state deque that already spans sweepEndtime.
func Undistort(sweep []Point, imuStates *window.ImuStates) ([]Point, error) {
	all := imuStates.All()
	out := make([]Point, len(sweep))
	for i, pt := range sweep {
		left, right, _, err := window.BracketImuStates(all, pt.Timestamp)
		if err != nil {
			return nil, errors.Wrapf(err, "lidarpoint: undistort point at t=%v", pt.Timestamp)
		}
		factor := (pt.Timestamp - left.Timestamp) / (right.Timestamp - left.Timestamp)
		pos := left.Pos.Mul(1 - factor).Add(right.Pos.Mul(factor))
		rot := spatialmath.Slerp(left.Rot, right.Rot, factor)
		out[i] = Point{
			Position:  spatialmath.Rotate(rot, pt.Position).Add(pos),
			Timestamp: pt.Timestamp,
		}
	}
	return out, nil
}
