package lidarpoint

import "github.com/flex-transformer/Wildcat-SLAM/imu"

// SyncHeads drops IMU samples older than the first point, then points older
// than the first remaining IMU sample, so neither stream starts before the
// other's original front (the fronts need not be equal); it then latches buf's synced
// flag so this runs at most once (spec.md §4.1, grounded on
// LidarOdometry::SyncHeadingMsgs). Returns false while synchronization
// cannot yet proceed — either buffer is empty, or the IMU stream hasn't
// caught up to the first point yet — which callers treat as transient
// insufficiency, not an error.
func SyncHeads(buf *Buffer, imuSamples []imu.Sample) ([]imu.Sample, bool) {
	if buf.Synced() {
		return imuSamples, true
	}
	if buf.Empty() || len(imuSamples) == 0 {
		return imuSamples, false
	}
	if imuSamples[len(imuSamples)-1].Timestamp < buf.Front().Timestamp {
		return imuSamples, false
	}

	for len(imuSamples) > 0 && imuSamples[0].Timestamp < buf.Front().Timestamp {
		imuSamples = imuSamples[1:]
	}
	for !buf.Empty() && buf.Front().Timestamp < imuSamples[0].Timestamp {
		buf.DropFront()
	}

	buf.SetSynced()
	return imuSamples, true
}
