// Package surfel extracts planar surfels from undistorted sweep points via
// a voxel grid and per-voxel PCA plane fit, and maintains the persistent
// global voxel map plus the sliding window's live surfel deque. See
// spec.md §4.4.
package surfel

import (
	"math"

	"github.com/golang/geo/r3"
)

// Coords identifies a voxel's integer grid cell.
type Coords struct {
	I, J, K int64
}

// GetVoxelCoordinates buckets pt into a grid cell of the given size,
// anchored at ptMin. Grounded on pointcloud's GetVoxelCoordinates
// convention (floor division from an anchor corner).
func GetVoxelCoordinates(pt, ptMin r3.Vector, voxelSize float64) Coords {
	return Coords{
		I: int64(math.Floor((pt.X - ptMin.X) / voxelSize)),
		J: int64(math.Floor((pt.Y - ptMin.Y) / voxelSize)),
		K: int64(math.Floor((pt.Z - ptMin.Z) / voxelSize)),
	}
}

// Voxel accumulates the points that fell into one grid cell during a
// single sweep's extraction pass. Grid.Insert fills only Key and Points;
// Extract stores the plane fit on the resulting Surfel, not here.
type Voxel struct {
	Key    Coords
	Points []r3.Vector

	Center r3.Vector
	Normal r3.Vector
	// Eigenvalues of the point covariance, ascending. The smallest is the
	// plane-fit residual measure; the planarity gate in Extract compares
	// the middle against the smallest and the smallest against the largest.
	Eigenvalues [3]float64
}

// Grid is a sparse, single-sweep voxel grid, grounded on
// pointcloud/voxel.go's VoxelGrid.
type Grid struct {
	VoxelSize float64
	voxels    map[Coords]*Voxel
}

// NewGrid returns an empty grid with the given cell size.
func NewGrid(voxelSize float64) *Grid {
	return &Grid{VoxelSize: voxelSize, voxels: make(map[Coords]*Voxel)}
}

// Insert buckets pt into its voxel, creating the voxel if needed.
func (g *Grid) Insert(pt r3.Vector, ptMin r3.Vector) {
	coords := GetVoxelCoordinates(pt, ptMin, g.VoxelSize)
	v, ok := g.voxels[coords]
	if !ok {
		v = &Voxel{Key: coords}
		g.voxels[coords] = v
	}
	v.Points = append(v.Points, pt)
}

// Voxels returns every occupied voxel, in no particular order.
func (g *Grid) Voxels() []*Voxel {
	out := make([]*Voxel, 0, len(g.voxels))
	for _, v := range g.voxels {
		out = append(out, v)
	}
	return out
}

// Adjacent returns the (up to 26) neighboring voxel coordinates that are
// occupied in g, 26-connectivity, grounded on
// pointcloud/voxel.go:GetAdjacentVoxels.
func (g *Grid) Adjacent(key Coords) []Coords {
	var out []Coords
	for di := int64(-1); di <= 1; di++ {
		for dj := int64(-1); dj <= 1; dj++ {
			for dk := int64(-1); dk <= 1; dk++ {
				if di == 0 && dj == 0 && dk == 0 {
					continue
				}
				cand := Coords{key.I + di, key.J + dj, key.K + dk}
				if _, ok := g.voxels[cand]; ok {
					out = append(out, cand)
				}
			}
		}
	}
	return out
}
