package lidarpoint

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
)

// Box is an axis-aligned bounding box in the IMU frame, used to drop points
// that land on the sensor rig's own chassis (self-occlusion). See spec.md §6.
type Box struct {
	Min, Max r3.Vector
}

// Contains reports whether p lies inside the box (inclusive).
func (b Box) Contains(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// PrefilterConfig bundles the ingest-time filtering parameters from
// spec.md §6: the rigid LiDAR→IMU extrinsic, range gates, and blind box.
type PrefilterConfig struct {
	ExtLidar2Imu     spatialmath.Rigid
	MinRange         float64
	MaxRange         float64
	BlindBoundingBox Box
}

// Buffer is the FIFO point buffer described in spec.md §4.1: points are
// transformed and range-filtered on ingest, then drained by the sweep
// builder. Buffer enforces non-decreasing ingress timestamps (spec.md §4.1)
// before and after head-sync; once the synced flag has latched, head-sync
// no longer trims the front, per spec.md §4.1 ("latches a synced flag that
// disables further trimming").
type Buffer struct {
	cfg    PrefilterConfig
	points []Point
	synced bool
}

// NewBuffer constructs an empty point buffer with the given prefilter
// configuration.
func NewBuffer(cfg PrefilterConfig) *Buffer {
	return &Buffer{cfg: cfg}
}

// Ingest transforms pt by the configured extrinsic and applies the
// range/blind-box prefilter, appending it to the buffer if it survives.
// Panics (invariant violation, spec.md §7.1) if raw's timestamp is earlier
// than the newest buffered point's; points dropped by the prefilter are
// not part of that check.
func (b *Buffer) Ingest(raw Point) {
	if len(b.points) > 0 && raw.Timestamp < b.points[len(b.points)-1].Timestamp {
		panic(errors.Errorf("lidarpoint: non-decreasing timestamp invariant violated: %v < %v", raw.Timestamp, b.points[len(b.points)-1].Timestamp))
	}
	transformed := b.cfg.ExtLidar2Imu.Transform(raw.Position)
	norm := transformed.Norm()
	if norm < b.cfg.MinRange || norm > b.cfg.MaxRange || b.cfg.BlindBoundingBox.Contains(transformed) {
		return
	}
	b.points = append(b.points, Point{Position: transformed, Timestamp: raw.Timestamp})
}

// Len returns the number of buffered points.
func (b *Buffer) Len() int {
	return len(b.points)
}

// Empty reports whether the buffer holds no points.
func (b *Buffer) Empty() bool {
	return len(b.points) == 0
}

// Front returns the oldest buffered point. Panics if the buffer is empty.
func (b *Buffer) Front() Point {
	return b.points[0]
}

// Back returns the newest buffered point. Panics if the buffer is empty.
func (b *Buffer) Back() Point {
	return b.points[len(b.points)-1]
}

// All returns the buffer's points in timestamp order. The returned slice
// must not be mutated by the caller.
func (b *Buffer) All() []Point {
	return b.points
}

// DropFront removes and discards the single oldest point (used by
// head-sync).
func (b *Buffer) DropFront() {
	if len(b.points) == 0 {
		return
	}
	b.points = b.points[1:]
}

// SetSynced latches the one-shot head-sync flag.
func (b *Buffer) SetSynced() {
	b.synced = true
}

// Synced reports whether head-sync has already completed.
func (b *Buffer) Synced() bool {
	return b.synced
}
