// Package match builds a spatial index over the current window's surfels
// and derives bounded, strictly time-ordered correspondences between them
// for residual assembly. See spec.md §4.5.
package match

import (
	"sort"

	"github.com/golang/geo/r3"

	"github.com/flex-transformer/Wildcat-SLAM/surfel"
)

type node struct {
	s           *surfel.Surfel
	axis        int
	left, right *node
}

// Tree is a static 3D k-d tree over surfel world centroids. There is no
// library in the example pack offering a k-d tree, so this is hand-written
// data-structure code rather than a dependency decision.
type Tree struct {
	root *node
}

// BuildIndex constructs a balanced k-d tree over surfels' world centroids.
// surfels must not be mutated while the tree is in use.
func BuildIndex(surfels []*surfel.Surfel) *Tree {
	items := make([]*surfel.Surfel, len(surfels))
	copy(items, surfels)
	return &Tree{root: build(items, 0)}
}

func build(items []*surfel.Surfel, depth int) *node {
	if len(items) == 0 {
		return nil
	}
	axis := depth % 3
	sort.Slice(items, func(i, j int) bool {
		return coord(items[i].CenterWorld, axis) < coord(items[j].CenterWorld, axis)
	})
	mid := len(items) / 2
	n := &node{s: items[mid], axis: axis}
	n.left = build(items[:mid], depth+1)
	n.right = build(items[mid+1:], depth+1)
	return n
}

func coord(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

type neighbor struct {
	dist float64
	s    *surfel.Surfel
}

// KNearest returns up to k surfels nearest to center (by squared Euclidean
// distance on world centroids), excluding exclude itself, sorted nearest
// first. The far subtree at each node is pruned once k candidates have
// been found and it cannot hold anything closer than the current k-th
// best.
func (t *Tree) KNearest(center r3.Vector, k int, exclude *surfel.Surfel) []*surfel.Surfel {
	if t.root == nil || k <= 0 {
		return nil
	}
	var found []neighbor // kept sorted ascending by dist, length <= k
	var visit func(n *node)
	visit = func(n *node) {
		if n == nil {
			return
		}
		if n.s != exclude {
			d := n.s.CenterWorld.Sub(center).Norm2()
			insertSorted(&found, neighbor{dist: d, s: n.s}, k)
		}

		delta := coord(center, n.axis) - coord(n.s.CenterWorld, n.axis)
		near, far := n.left, n.right
		if delta > 0 {
			near, far = n.right, n.left
		}
		visit(near)
		if len(found) < k || delta*delta <= found[len(found)-1].dist {
			visit(far)
		}
	}
	visit(t.root)

	out := make([]*surfel.Surfel, len(found))
	for i, n := range found {
		out[i] = n.s
	}
	return out
}

// insertSorted inserts n into found (kept sorted ascending by dist),
// dropping the worst entry if the list would exceed k.
func insertSorted(found *[]neighbor, n neighbor, k int) {
	s := *found
	i := sort.Search(len(s), func(i int) bool { return s[i].dist >= n.dist })
	s = append(s, neighbor{})
	copy(s[i+1:], s[i:])
	s[i] = n
	if len(s) > k {
		s = s[:k]
	}
	*found = s
}
