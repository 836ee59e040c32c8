package surfel

import (
	"sort"

	"github.com/golang/geo/r3"

	"github.com/flex-transformer/Wildcat-SLAM/lidarpoint"
	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// Surfel is a planar patch extracted from one sweep's voxel grid, carried
// in the sliding window. CenterLocal/NormalLocal are fixed at extraction
// time (in the frame of the backing IMU state); CenterWorld/NormalWorld
// are rebaked into the estimator's world frame whenever that IMU state's
// pose changes (spec.md §4.4/§4.8).
type Surfel struct {
	Key    Coords
	Points []r3.Vector

	CenterLocal r3.Vector
	NormalLocal r3.Vector
	Eigenvalues [3]float64

	// Timestamp is the representative point's timestamp: the point in
	// Points closest to the voxel's centroid, matching the original's
	// choice of a concrete backing IMU state rather than an averaged one.
	Timestamp float64

	CenterWorld r3.Vector
	NormalWorld r3.Vector
}

// ExtractConfig bundles the surfel extractor's tunables from spec.md §6.
type ExtractConfig struct {
	VoxelSize       float64
	MinPointsPerVox int
	// PlanarityRatio gates acceptance: the middle eigenvalue must be at
	// least this many times the smallest (voxel is flat, not a line or a
	// blob), and the ratio of the smallest to the largest must be below
	// PlanarityMax.
	PlanarityRatio float64
	PlanarityMax   float64
}

// Extract buckets pts into a fresh voxel grid, fits a plane per voxel, and
// returns one Surfel per voxel that passes the point-count and planarity
// gates. Grounded on BuildSurfels/NewVoxelGridFromPointCloud's
// accumulate-then-fit-per-voxel shape.
func Extract(pts []lidarpoint.Point, cfg ExtractConfig) []*Surfel {
	if len(pts) == 0 {
		return nil
	}
	ptMin := pts[0].Position
	for _, p := range pts[1:] {
		if p.Position.X < ptMin.X {
			ptMin.X = p.Position.X
		}
		if p.Position.Y < ptMin.Y {
			ptMin.Y = p.Position.Y
		}
		if p.Position.Z < ptMin.Z {
			ptMin.Z = p.Position.Z
		}
	}

	grid := NewGrid(cfg.VoxelSize)
	byKey := make(map[Coords][]lidarpoint.Point)
	for _, p := range pts {
		grid.Insert(p.Position, ptMin)
		key := GetVoxelCoordinates(p.Position, ptMin, cfg.VoxelSize)
		byKey[key] = append(byKey[key], p)
	}

	var out []*Surfel
	for _, vox := range grid.Voxels() {
		if len(vox.Points) < cfg.MinPointsPerVox {
			continue
		}
		center, normal, eig, ok := FitPlane(vox.Points)
		if !ok {
			continue
		}
		if eig[1] < cfg.PlanarityRatio*eig[0] || eig[0] > cfg.PlanarityMax*eig[2] {
			continue
		}

		rep := byKey[vox.Key][0]
		best := rep.Position.Sub(center).Norm2()
		for _, p := range byKey[vox.Key][1:] {
			if d := p.Position.Sub(center).Norm2(); d < best {
				best, rep = d, p
			}
		}

		out = append(out, &Surfel{
			Key:         vox.Key,
			Points:      vox.Points,
			CenterLocal: center,
			NormalLocal: normal,
			Eigenvalues: eig,
			Timestamp:   rep.Timestamp,
		})
	}
	// Voxel iteration order is unspecified; the window's surfel deque is
	// non-decreasing in timestamp (and DropOlderThan's front scan depends
	// on it), so order the batch before it is appended.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// RebakeWorldPoses recomputes CenterWorld/NormalWorld for every surfel in
// surfels from its backing IMU state's current pose, via bracket-lookup
// interpolation exactly as lidarpoint.Undistort does. Grounded on
// UpdateSurfelPoses.
func RebakeWorldPoses(surfels []*Surfel, imuStates *window.ImuStates) error {
	all := imuStates.All()
	for _, s := range surfels {
		left, right, _, err := window.BracketImuStates(all, s.Timestamp)
		if err != nil {
			return err
		}
		factor := (s.Timestamp - left.Timestamp) / (right.Timestamp - left.Timestamp)
		pos := left.Pos.Mul(1 - factor).Add(right.Pos.Mul(factor))
		rot := spatialmath.Slerp(left.Rot, right.Rot, factor)
		s.CenterWorld = spatialmath.Rotate(rot, s.CenterLocal).Add(pos)
		s.NormalWorld = spatialmath.Rotate(rot, s.NormalLocal)
	}
	return nil
}
