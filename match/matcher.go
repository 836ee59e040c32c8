package match

import (
	"math"

	"github.com/flex-transformer/Wildcat-SLAM/surfel"
)

// Config bundles the matcher's tunables from spec.md §6.
type Config struct {
	// K bounds the number of candidate neighbors considered per surfel.
	K int
	// CosThetaMax is the minimum |n1·n2| for two surfels' normals to agree.
	CosThetaMax float64
	// DistMax is the maximum point-to-plane distance |n·(c2-c1)|.
	DistMax float64
}

// Correspondence pairs two surfels with a well-defined earlier (Earlier)
// and later (Later) member, per spec.md §4.5's ordering guarantee that
// later residual assembly depends on.
type Correspondence struct {
	Earlier, Later *surfel.Surfel
}

// Match builds a k-d tree over surfels' world centroids and, for each
// surfel, searches up to Config.K nearest neighbors, keeping those that
// pass the normal-agreement and point-to-plane distance gates. Per the
// redesign flag in spec.md §9 ("implementers should make the matcher
// unconditionally enforce the ordering... rather than assert"), pairs with
// equal timestamps are dropped rather than asserted against, and pairs are
// oriented (swapped if necessary) so Earlier.Timestamp < Later.Timestamp
// always holds.
func Match(surfels []*surfel.Surfel, cfg Config) []Correspondence {
	tree := BuildIndex(surfels)
	seen := make(map[[2]*surfel.Surfel]bool)
	var out []Correspondence
	for _, s1 := range surfels {
		for _, s2 := range tree.KNearest(s1.CenterWorld, cfg.K, s1) {
			if s1.Timestamp == s2.Timestamp {
				continue
			}
			if !passesGates(s1, s2, cfg) {
				continue
			}
			c := Correspondence{Earlier: s1, Later: s2}
			if s2.Timestamp < s1.Timestamp {
				c.Earlier, c.Later = s2, s1
			}
			key := [2]*surfel.Surfel{c.Earlier, c.Later}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

func passesGates(s1, s2 *surfel.Surfel, cfg Config) bool {
	dot := s1.NormalWorld.Dot(s2.NormalWorld)
	if math.Abs(dot) < cfg.CosThetaMax {
		return false
	}
	diff := s2.CenterWorld.Sub(s1.CenterWorld)
	if math.Abs(s1.NormalWorld.Dot(diff)) > cfg.DistMax {
		return false
	}
	if math.Abs(s2.NormalWorld.Dot(diff)) > cfg.DistMax {
		return false
	}
	return true
}
