package residuals

import (
	"github.com/golang/geo/r3"

	"github.com/flex-transformer/Wildcat-SLAM/optimizer"
	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// ImuWeights carries the four per-channel cost weights from spec.md §6.
type ImuWeights struct {
	GyroNoiseDensity float64
	AccNoiseDensity  float64
	GyroRandomWalk   float64
	AccRandomWalk    float64
}

// imuTriple is the state shared by the two IMU-factor topologies: three
// consecutive IMU states and the sample states whose corrections
// interpolate over them. The residual is 12-dimensional in four 3-vector
// parts, in order: gyro, acc, gyro_bias, acc_bias (spec.md §4.6).
type imuTriple struct {
	i1, i2, i3 *window.ImuState
	sp1, sp2   *window.SampleState
	sp3        *window.SampleState // nil in the 2-sample topology
	weights    ImuWeights
	dt         float64
	grav       r3.Vector
}

// corrAtTime routes t to the correct bracketing pair: [sp1, sp2] or, past
// sp2 in the 3-sample topology, [sp2, sp3].
func (f *imuTriple) corrAtTime(t float64) (rotCor, posCor, baCor, bgCor r3.Vector) {
	if f.sp3 != nil && t > f.sp2.Timestamp {
		return corrAt(f.sp2, f.sp3, t)
	}
	return corrAt(f.sp1, f.sp2, t)
}

func (f *imuTriple) evaluate() []float64 {
	rc1, pc1, bac1, bgc1 := f.corrAtTime(f.i1.Timestamp)
	_, pc2, _, _ := f.corrAtTime(f.i2.Timestamp)
	rc3, pc3, bac3, bgc3 := f.corrAtTime(f.i3.Timestamp)

	// Corrected biases at the measurement times, nominal carried by the
	// bracketing samples (identical across the window between solves).
	ba1 := f.sp1.Ba.Add(bac1)
	bg1 := f.sp1.Bg.Add(bgc1)
	ba3 := f.sp1.Ba.Add(bac3)
	bg3 := f.sp1.Bg.Add(bgc3)

	r1 := spatialmath.ComposeQuat(spatialmath.ExpMap(rc1), f.i1.Rot)
	r3c := spatialmath.ComposeQuat(spatialmath.ExpMap(rc3), f.i3.Rot)
	p1 := f.i1.Pos.Add(pc1)
	p2 := f.i2.Pos.Add(pc2)
	p3 := f.i3.Pos.Add(pc3)

	// Predicted rotation over i1->i3 versus the trapezoid-integrated gyro
	// measurement, matching the central integrator's update rule.
	predRot := spatialmath.LogMap(spatialmath.ComposeQuat(spatialmath.ConjQuat(r1), r3c))
	bgMid := bg1.Add(bg3).Mul(0.5)
	measRot := f.i1.Gyr.Add(f.i2.Gyr.Mul(2)).Add(f.i3.Gyr).Mul(0.5).Sub(bgMid.Mul(2)).Mul(f.dt)
	gyro := predRot.Sub(measRot).Mul(f.weights.GyroNoiseDensity)

	// Velocity increment over the triple versus the specific force at i1,
	// mirroring pos_i = 2*pos_{i-1} - pos_{i-2} + (R_{i-2}(a_{i-2}-ba)+g)*dt^2.
	velDiff := p3.Sub(p2.Mul(2)).Add(p1).Mul(1 / f.dt)
	velPred := spatialmath.Rotate(r1, f.i1.Acc.Sub(ba1)).Add(f.grav).Mul(f.dt)
	acc := velDiff.Sub(velPred).Mul(f.weights.AccNoiseDensity)

	gyroBias := bg3.Sub(bg1).Mul(f.weights.GyroRandomWalk)
	accBias := ba3.Sub(ba1).Mul(f.weights.AccRandomWalk)

	return []float64{
		gyro.X, gyro.Y, gyro.Z,
		acc.X, acc.Y, acc.Z,
		gyroBias.X, gyroBias.Y, gyroBias.Z,
		accBias.X, accBias.Y, accBias.Z,
	}
}

// ImuFactor2 is the 2-sample topology: the triple falls entirely inside
// the window's last sample bracket, so only (sp1, sp2) exist.
type ImuFactor2 struct {
	imuTriple
	blocks []*optimizer.ParamBlock
}

// ParamBlocks implements optimizer.Residual.
func (f *ImuFactor2) ParamBlocks() []*optimizer.ParamBlock { return f.blocks }

// Dim implements optimizer.Residual.
func (f *ImuFactor2) Dim() int { return 12 }

// Evaluate implements optimizer.Residual.
func (f *ImuFactor2) Evaluate() []float64 { return f.evaluate() }

// Loss implements optimizer.Residual.
func (f *ImuFactor2) Loss() optimizer.LossFunction { return optimizer.TrivialLoss{} }

// ImuFactor3 is the 3-sample topology: the triple's corrections
// interpolate over (sp1, sp2, sp3).
type ImuFactor3 struct {
	imuTriple
	blocks []*optimizer.ParamBlock
}

// ParamBlocks implements optimizer.Residual.
func (f *ImuFactor3) ParamBlocks() []*optimizer.ParamBlock { return f.blocks }

// Dim implements optimizer.Residual.
func (f *ImuFactor3) Dim() int { return 12 }

// Evaluate implements optimizer.Residual.
func (f *ImuFactor3) Evaluate() []float64 { return f.evaluate() }

// Loss implements optimizer.Residual.
func (f *ImuFactor3) Loss() optimizer.LossFunction { return optimizer.TrivialLoss{} }

// BuildImu adds one factor per consecutive IMU triple fully contained in
// the sample window, choosing the 2-sample topology exactly when the
// upper-bound lookup for i1's timestamp lands on the window's last sample
// state (no sp3 exists), otherwise the 3-sample topology. This reproduces
// the reference loop bound faithfully, including walking every triple
// (i < len-2) rather than skipping partial ones near the edges.
func BuildImu(
	imuStates []*window.ImuState,
	samples []*window.SampleState,
	weights ImuWeights,
	imuRate float64,
	blocks *Blocks,
	problem *optimizer.Problem,
) (added int) {
	if len(samples) < 2 {
		return 0
	}
	grav := samples[len(samples)-1].Grav
	dt := 1 / imuRate
	for i := 0; i+2 < len(imuStates); i++ {
		i1, i2, i3 := imuStates[i], imuStates[i+1], imuStates[i+2]
		if i1.Timestamp < samples[0].Timestamp {
			continue
		}
		if i3.Timestamp > samples[len(samples)-1].Timestamp {
			break
		}
		idx := window.UpperBoundSampleIndex(samples, i1.Timestamp)
		if idx == 0 || idx == len(samples) {
			continue
		}
		sp1, sp2 := samples[idx-1], samples[idx]

		triple := imuTriple{
			i1: i1, i2: i2, i3: i3,
			sp1: sp1, sp2: sp2,
			weights: weights, dt: dt, grav: grav,
		}
		if idx == len(samples)-1 {
			problem.AddResidualBlock(&ImuFactor2{
				imuTriple: triple,
				blocks:    []*optimizer.ParamBlock{blocks.Of(sp1), blocks.Of(sp2)},
			})
		} else {
			triple.sp3 = samples[idx+1]
			problem.AddResidualBlock(&ImuFactor3{
				imuTriple: triple,
				blocks:    []*optimizer.ParamBlock{blocks.Of(sp1), blocks.Of(sp2), blocks.Of(triple.sp3)},
			})
		}
		added++
	}
	return added
}
