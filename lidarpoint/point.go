// Package lidarpoint implements point ingestion (extrinsic transform,
// range/blind-box prefiltering, head-sync with the IMU stream), sweep
// assembly, and motion-compensated undistortion. See spec.md §4.1/§4.3.
package lidarpoint

import (
	"github.com/golang/geo/r3"
)

// Point is a single LiDAR return: position (already transformed into the
// IMU frame and range-filtered on ingest) and timestamp. See spec.md §3.
type Point struct {
	Position  r3.Vector
	Timestamp float64
}
