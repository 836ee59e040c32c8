// Package imu implements IMU forward integration: the dense IMU-state
// trajectory and the sparse sample-state control points (both defined in
// package window) are grown here from a stream of raw gyro/accelerometer
// samples.
package imu

import "github.com/golang/geo/r3"

// Sample is a single raw IMU reading: 3-axis gyro and accelerometer,
// IMU-clock timestamp. See spec.md §3.
type Sample struct {
	Timestamp          float64
	AngularVelocity    r3.Vector
	LinearAcceleration r3.Vector
}
