package residuals

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/flex-transformer/Wildcat-SLAM/match"
	"github.com/flex-transformer/Wildcat-SLAM/optimizer"
	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/surfel"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// cauchyScale is the robust-loss scale for every surfel factor
// (spec.md §4.6: "Wrapped in a Cauchy robust loss with scale 0.4").
const cauchyScale = 0.4

// surfelPair is the state shared by all three surfel-factor topologies:
// the two matched surfels and the bracketing sample pairs around each
// surfel's timestamp. Evaluation layers the interpolated correction onto
// each surfel's current world pose and measures the point-to-plane
// distance plus a two-axis normal misalignment.
type surfelPair struct {
	s1, s2     *surfel.Surfel
	sp1l, sp1r *window.SampleState
	sp2l, sp2r *window.SampleState
}

func (f *surfelPair) correctedSurfel(s *surfel.Surfel, l, r *window.SampleState) (center, normal r3.Vector) {
	rotCor, posCor, _, _ := corrAt(l, r, s.Timestamp)
	q := spatialmath.ExpMap(rotCor)
	return spatialmath.Rotate(q, s.CenterWorld).Add(posCor), spatialmath.Rotate(q, s.NormalWorld)
}

func (f *surfelPair) evaluate() []float64 {
	c1, n1 := f.correctedSurfel(f.s1, f.sp1l, f.sp1r)
	c2, n2 := f.correctedSurfel(f.s2, f.sp2l, f.sp2r)
	if n1.Dot(n2) < 0 {
		n2 = n2.Mul(-1)
	}
	e1, e2 := planeBasis(n1)
	return []float64{
		n1.Dot(c2.Sub(c1)),
		e1.Dot(n2),
		e2.Dot(n2),
	}
}

// planeBasis returns an orthonormal pair spanning the plane perpendicular
// to n (assumed unit).
func planeBasis(n r3.Vector) (r3.Vector, r3.Vector) {
	seed := r3.Vector{X: 1}
	if math.Abs(n.X) > math.Abs(n.Y) && math.Abs(n.X) > math.Abs(n.Z) {
		seed = r3.Vector{Y: 1}
	}
	e1 := n.Cross(seed).Normalize()
	return e1, n.Cross(e1)
}

// SurfelMatchDisjointFactor is the 4-block topology: the two surfels'
// bracketing sample pairs do not touch (R1.t < L2.t).
type SurfelMatchDisjointFactor struct {
	surfelPair
	blocks []*optimizer.ParamBlock
}

// ParamBlocks implements optimizer.Residual.
func (f *SurfelMatchDisjointFactor) ParamBlocks() []*optimizer.ParamBlock { return f.blocks }

// Dim implements optimizer.Residual.
func (f *SurfelMatchDisjointFactor) Dim() int { return 3 }

// Evaluate implements optimizer.Residual.
func (f *SurfelMatchDisjointFactor) Evaluate() []float64 { return f.evaluate() }

// Loss implements optimizer.Residual.
func (f *SurfelMatchDisjointFactor) Loss() optimizer.LossFunction {
	return optimizer.CauchyLoss{Scale: cauchyScale}
}

// SurfelMatchAdjacentFactor is the 3-block topology: the brackets share
// one sample state (R1.t == L2.t).
type SurfelMatchAdjacentFactor struct {
	surfelPair
	blocks []*optimizer.ParamBlock
}

// ParamBlocks implements optimizer.Residual.
func (f *SurfelMatchAdjacentFactor) ParamBlocks() []*optimizer.ParamBlock { return f.blocks }

// Dim implements optimizer.Residual.
func (f *SurfelMatchAdjacentFactor) Dim() int { return 3 }

// Evaluate implements optimizer.Residual.
func (f *SurfelMatchAdjacentFactor) Evaluate() []float64 { return f.evaluate() }

// Loss implements optimizer.Residual.
func (f *SurfelMatchAdjacentFactor) Loss() optimizer.LossFunction {
	return optimizer.CauchyLoss{Scale: cauchyScale}
}

// SurfelMatchOverlappingFactor is the 2-block topology: both surfels fall
// inside the same sample bracket (R1.t > L2.t).
type SurfelMatchOverlappingFactor struct {
	surfelPair
	blocks []*optimizer.ParamBlock
}

// ParamBlocks implements optimizer.Residual.
func (f *SurfelMatchOverlappingFactor) ParamBlocks() []*optimizer.ParamBlock { return f.blocks }

// Dim implements optimizer.Residual.
func (f *SurfelMatchOverlappingFactor) Dim() int { return 3 }

// Evaluate implements optimizer.Residual.
func (f *SurfelMatchOverlappingFactor) Evaluate() []float64 { return f.evaluate() }

// Loss implements optimizer.Residual.
func (f *SurfelMatchOverlappingFactor) Loss() optimizer.LossFunction {
	return optimizer.CauchyLoss{Scale: cauchyScale}
}

// BuildLidar adds one surfel factor per correspondence to problem,
// selecting the topology by comparing the inner bracket timestamps.
// Correspondences whose surfel timestamps have no strictly-interior
// bracketing sample pair are skipped (window-boundary guard, spec.md §9:
// skip rather than crash), counted in skipped.
func BuildLidar(
	corrs []match.Correspondence,
	samples []*window.SampleState,
	blocks *Blocks,
	problem *optimizer.Problem,
) (added, skipped int) {
	for _, corr := range corrs {
		sp1l, sp1r, _, err1 := window.BracketSampleStates(samples, corr.Earlier.Timestamp)
		sp2l, sp2r, _, err2 := window.BracketSampleStates(samples, corr.Later.Timestamp)
		if err1 != nil || err2 != nil {
			skipped++
			continue
		}

		pair := surfelPair{
			s1: corr.Earlier, s2: corr.Later,
			sp1l: sp1l, sp1r: sp1r, sp2l: sp2l, sp2r: sp2r,
		}
		switch {
		case sp1r.Timestamp < sp2l.Timestamp:
			problem.AddResidualBlock(&SurfelMatchDisjointFactor{
				surfelPair: pair,
				blocks:     []*optimizer.ParamBlock{blocks.Of(sp1l), blocks.Of(sp1r), blocks.Of(sp2l), blocks.Of(sp2r)},
			})
		case sp1r.Timestamp == sp2l.Timestamp:
			problem.AddResidualBlock(&SurfelMatchAdjacentFactor{
				surfelPair: pair,
				blocks:     []*optimizer.ParamBlock{blocks.Of(sp1l), blocks.Of(sp1r), blocks.Of(sp2r)},
			})
		default:
			problem.AddResidualBlock(&SurfelMatchOverlappingFactor{
				surfelPair: pair,
				blocks:     []*optimizer.ParamBlock{blocks.Of(sp1l), blocks.Of(sp1r)},
			})
		}
		added++
	}
	return added, skipped
}
