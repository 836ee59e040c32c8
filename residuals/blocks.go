// Package residuals assembles the estimator's least-squares factors: the
// LiDAR surfel-to-surfel binary factors (disjoint/adjacent/overlapping
// topologies) and the IMU ternary factors (2-sample and 3-sample
// topologies), all expressed as optimizer.Residual blocks over sample-state
// correction vectors. See spec.md §4.6.
package residuals

import (
	"github.com/golang/geo/r3"

	"github.com/flex-transformer/Wildcat-SLAM/optimizer"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// Blocks maps each sample state to the optimizer parameter block aliasing
// its DataCor array, so every factor touching the same sample shares one
// block. The aliasing is the point: solver writes land directly in
// DataCor, where the factors (through corrAt) and the corrector read them.
type Blocks struct {
	byState map[*window.SampleState]*optimizer.ParamBlock
}

// NewBlocks returns an empty block registry.
func NewBlocks() *Blocks {
	return &Blocks{byState: make(map[*window.SampleState]*optimizer.ParamBlock)}
}

// Of returns the parameter block for ss, creating it on first use.
func (b *Blocks) Of(ss *window.SampleState) *optimizer.ParamBlock {
	blk, ok := b.byState[ss]
	if !ok {
		blk = optimizer.NewParamBlock(ss.DataCor[:])
		b.byState[ss] = blk
	}
	return blk
}

// corrAt linearly interpolates the full 12-dim correction between two
// bracketing sample states at time t, returning the rotation (axis-angle),
// translation, accelerometer-bias, and gyro-bias correction vectors. The
// sample corrections stay small within one solve, so lerping the axis-angle
// channel directly is the same first-order treatment the reference factors
// use.
func corrAt(l, r *window.SampleState, t float64) (rotCor, posCor, baCor, bgCor r3.Vector) {
	alpha := (t - l.Timestamp) / (r.Timestamp - l.Timestamp)
	lerp := func(a, b r3.Vector) r3.Vector {
		return a.Mul(1 - alpha).Add(b.Mul(alpha))
	}
	return lerp(l.RotCor(), r.RotCor()),
		lerp(l.PosCor(), r.PosCor()),
		lerp(l.BaCor(), r.BaCor()),
		lerp(l.BgCor(), r.BgCor())
}
