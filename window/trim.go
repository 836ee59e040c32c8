package window

// Trim shrinks the sliding window to windowDuration: it drops sample
// states from the front until the span fits, then drops IMU states older
// than the new oldest sample state, then invokes dropSurfels with the new
// oldest IMU state's timestamp so the caller can drop surfels older than
// it — in that order, since later drops depend on the invariant the
// earlier ones establish (samples.front <= imu.front <= surfel.front).
// dropSurfels lets callers supply their own surfel deque without window
// importing the surfel package. Grounded on ShrinkToFit.
func Trim(sampleStates *SampleStates, imuStates *ImuStates, windowDuration float64, dropSurfels func(olderThan float64)) {
	if sampleStates.Empty() {
		return
	}
	if sampleStates.Back().Timestamp-sampleStates.Front().Timestamp <= windowDuration {
		return
	}

	n := 0
	for sampleStates.Back().Timestamp-sampleStates.At(n).Timestamp > windowDuration {
		n++
	}
	sampleStates.DropFront(n)

	m := 0
	for m < imuStates.Len() && imuStates.At(m).Timestamp < sampleStates.Front().Timestamp {
		m++
	}
	imuStates.DropFront(m)

	if imuStates.Empty() {
		return
	}
	dropSurfels(imuStates.Front().Timestamp)
}
