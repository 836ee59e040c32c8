package surfel

import "github.com/golang/geo/r3"

// GlobalMap is the persistent, process-lifetime coarse voxel index
// described in spec.md §4.4: the estimator writes the first sweep's
// surfels into it, keyed by world-frame voxel coordinates, but it is never
// read by the optimizer or matcher — it exists purely as an accumulating
// record of occupied space. Grounded on the original's `GlobalMap`
// collaborator referenced in `LidarOdometry::AddLidarScan`.
type GlobalMap struct {
	voxelSize float64
	occupied  map[Coords]struct{}
}

// NewGlobalMap returns an empty global map with the given voxel size.
func NewGlobalMap(voxelSize float64) *GlobalMap {
	return &GlobalMap{voxelSize: voxelSize, occupied: make(map[Coords]struct{})}
}

// Insert marks every surfel's world-frame voxel as occupied.
func (m *GlobalMap) Insert(surfels []*Surfel, origin r3.Vector) {
	for _, s := range surfels {
		m.occupied[GetVoxelCoordinates(s.CenterWorld, origin, m.voxelSize)] = struct{}{}
	}
}

// Len reports the number of distinct occupied voxels recorded so far.
func (m *GlobalMap) Len() int {
	return len(m.occupied)
}
