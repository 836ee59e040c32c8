// Package window owns the sample-state and IMU-state deques the estimator
// keeps over its sliding time window, plus the sample state and IMU state
// types themselves. Trim trims both and hands the cutoff to a callback for
// the caller's surfel slice, which lives outside this package.
package window

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
)

// Named index spans into SampleState.DataCor, the 12-element co-located
// correction block described in spec.md §9: one flat array per sample
// state so the solver can address it as a single opaque parameter block
// while callers use the typed RotCor/PosCor/BaCor/BgCor accessors below.
const (
	RotCorSpan = 0
	PosCorSpan = 3
	BaCorSpan  = 6
	BgCorSpan  = 9
)

// ImuState is a densely-spaced propagated pose, one per IMU sample. Not
// directly optimized; shifted by the B-spline corrector. See spec.md §3.
type ImuState struct {
	Timestamp float64
	Pos       r3.Vector
	Rot       quat.Number
	Acc       r3.Vector
	Gyr       r3.Vector
}

// Pose returns the rigid transform this IMU state represents.
func (s ImuState) Pose() spatialmath.Rigid {
	return spatialmath.Rigid{Pos: s.Pos, Rot: s.Rot}
}

// SampleState is a sparse control point on the estimated trajectory at a
// uniform cadence `sample_dt`: pose, biases, gravity, and the 12-dimensional
// correction block the optimizer mutates. See spec.md §3/§9.
type SampleState struct {
	Timestamp float64
	Pos       r3.Vector
	Rot       quat.Number
	Ba        r3.Vector
	Bg        r3.Vector
	Grav      r3.Vector

	// DataCor is the co-located (rot_cor, pos_cor, ba_cor, bg_cor) block.
	// The optimizer addresses it as one opaque 12-float parameter block;
	// RotCor/PosCor/BaCor/BgCor below are the typed view for the rest of
	// the estimator.
	DataCor [12]float64
}

// RotCor returns the axis-angle rotation correction.
func (s *SampleState) RotCor() r3.Vector {
	return r3.Vector{X: s.DataCor[RotCorSpan], Y: s.DataCor[RotCorSpan+1], Z: s.DataCor[RotCorSpan+2]}
}

// PosCor returns the translation correction.
func (s *SampleState) PosCor() r3.Vector {
	return r3.Vector{X: s.DataCor[PosCorSpan], Y: s.DataCor[PosCorSpan+1], Z: s.DataCor[PosCorSpan+2]}
}

// BaCor returns the accelerometer-bias correction.
func (s *SampleState) BaCor() r3.Vector {
	return r3.Vector{X: s.DataCor[BaCorSpan], Y: s.DataCor[BaCorSpan+1], Z: s.DataCor[BaCorSpan+2]}
}

// BgCor returns the gyroscope-bias correction.
func (s *SampleState) BgCor() r3.Vector {
	return r3.Vector{X: s.DataCor[BgCorSpan], Y: s.DataCor[BgCorSpan+1], Z: s.DataCor[BgCorSpan+2]}
}

// SetRotCor writes the axis-angle rotation correction.
func (s *SampleState) SetRotCor(v r3.Vector) {
	s.DataCor[RotCorSpan], s.DataCor[RotCorSpan+1], s.DataCor[RotCorSpan+2] = v.X, v.Y, v.Z
}

// SetPosCor writes the translation correction.
func (s *SampleState) SetPosCor(v r3.Vector) {
	s.DataCor[PosCorSpan], s.DataCor[PosCorSpan+1], s.DataCor[PosCorSpan+2] = v.X, v.Y, v.Z
}

// Pose returns the rigid transform this sample state's nominal pose
// represents (corrections not applied; see ApplyCorrection).
func (s *SampleState) Pose() spatialmath.Rigid {
	return spatialmath.Rigid{Pos: s.Pos, Rot: s.Rot}
}

// CorrectedPose returns the pose produced by layering this sample's current
// correction block onto its nominal pose, without mutating the state.
// Residual assembly does not call it; it interpolates the correction
// channels between bracketing samples itself.
func (s *SampleState) CorrectedPose() spatialmath.Rigid {
	return spatialmath.Rigid{
		Pos: s.Pos.Add(s.PosCor()),
		Rot: spatialmath.ComposeQuat(spatialmath.ExpMap(s.RotCor()), s.Rot),
	}
}

// ApplyCorrection absorbs the current correction block into the nominal
// state and zeros it, per spec.md §4.8 / the invariant in spec.md §3 ("After
// any iteration of the Corrector, all *_cor components of every sample
// state are exactly zero").
func (s *SampleState) ApplyCorrection() {
	s.Rot = spatialmath.ComposeQuat(spatialmath.ExpMap(s.RotCor()), s.Rot)
	s.Pos = s.Pos.Add(s.PosCor())
	s.Ba = s.Ba.Add(s.BaCor())
	s.Bg = s.Bg.Add(s.BgCor())
	s.DataCor = [12]float64{}
}

// IsCorrectionZero reports whether every correction component is exactly
// zero, the quantified post-Corrector invariant from spec.md §8.
func (s *SampleState) IsCorrectionZero() bool {
	for _, v := range s.DataCor {
		if v != 0 {
			return false
		}
	}
	return true
}
