package imu

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/flex-transformer/Wildcat-SLAM/spatialmath"
	"github.com/flex-transformer/Wildcat-SLAM/window"
)

// Predictor grows the dense IMU-state deque and the sparse sample-state
// deque from a stream of raw IMU samples, per spec.md §4.2. It is grounded
// on LidarOdometry::PredictImuStatesAndSampleStates: a one-shot
// two-sample initialization followed by a two-step central integrator run
// forward to a target end time, with sample states extended alongside at a
// uniform cadence.
type Predictor struct {
	dt          float64
	sampleDt    float64
	gravityNorm float64

	queue       []Sample
	initialized bool
}

// NewPredictor returns a Predictor configured from the IMU sample rate
// (Hz), the sample-state cadence, and the gravity magnitude used to seed
// the first sample state's gravity estimate.
func NewPredictor(imuRate, sampleDt, gravityNorm float64) *Predictor {
	return &Predictor{dt: 1 / imuRate, sampleDt: sampleDt, gravityNorm: gravityNorm}
}

// Ingest enqueues a raw IMU sample for the next Predict call. Panics if
// samples arrive out of timestamp order.
func (p *Predictor) Ingest(s Sample) {
	if len(p.queue) > 0 && s.Timestamp < p.queue[len(p.queue)-1].Timestamp {
		panic(errors.Errorf("imu: non-decreasing timestamp invariant violated: %v < %v", s.Timestamp, p.queue[len(p.queue)-1].Timestamp))
	}
	p.queue = append(p.queue, s)
}

// Len reports the number of unconsumed queued samples.
func (p *Predictor) Len() int {
	return len(p.queue)
}

// Ready reports whether Predict can make progress: initialization needs at
// least two queued samples.
func (p *Predictor) Ready() bool {
	return p.initialized || len(p.queue) >= 2
}

// LatestTimestamp returns the timestamp of the newest queued sample.
func (p *Predictor) LatestTimestamp() float64 {
	return p.queue[len(p.queue)-1].Timestamp
}

// Predict initializes imuStates/sampleStates on the first call (consuming
// the first two queued samples), then drains the queue, integrating one
// IMU state per sample, until a propagated state's timestamp reaches
// endTime or the queue empties. It then extends sampleStates with new
// control points at the configured cadence up to (but not including)
// endTime. Returns false (no-op) if there are not yet enough samples to
// initialize.
func (p *Predictor) Predict(endTime float64, imuStates *window.ImuStates, sampleStates *window.SampleStates) bool {
	if !p.initialized {
		if len(p.queue) < 2 {
			return false
		}
		p.initializeStates(imuStates, sampleStates)
	}

	ba := sampleStates.Back().Ba
	bg := sampleStates.Back().Bg
	grav := sampleStates.Back().Grav

	for len(p.queue) > 0 {
		n := imuStates.Len()
		msg := p.queue[0]
		p.queue = p.queue[1:]

		prev := imuStates.At(n - 1)
		gyr := msg.AngularVelocity
		rot := spatialmath.ComposeQuat(prev.Rot, spatialmath.ExpMap(prev.Gyr.Add(gyr).Mul(0.5).Sub(bg).Mul(p.dt)))

		var pos r3.Vector
		if n >= 2 {
			prev2 := imuStates.At(n - 2)
			accTerm := spatialmath.Rotate(prev2.Rot, prev2.Acc.Sub(ba)).Add(grav).Mul(p.dt * p.dt)
			pos = accTerm.Add(prev.Pos.Mul(2)).Sub(prev2.Pos)
		} else {
			pos = r3.Vector{}
		}

		imuStates.Append(&window.ImuState{
			Timestamp: msg.Timestamp,
			Pos:       pos,
			Rot:       rot,
			Acc:       msg.LinearAcceleration,
			Gyr:       gyr,
		})

		if msg.Timestamp >= endTime {
			break
		}
	}

	oldTime := sampleStates.Back().Timestamp
	imuAll := imuStates.All()
	for t := oldTime + p.sampleDt; t < endTime; t += p.sampleDt {
		left, right, _, err := window.BracketImuStates(imuAll, t)
		if err != nil {
			break
		}
		factor := (t - left.Timestamp) / (right.Timestamp - left.Timestamp)
		sampleStates.Append(&window.SampleState{
			Timestamp: t,
			Pos:       left.Pos.Mul(1 - factor).Add(right.Pos.Mul(factor)),
			Rot:       spatialmath.Slerp(left.Rot, right.Rot, factor),
			Ba:        ba,
			Bg:        bg,
			Grav:      grav,
		})
	}

	return true
}

func (p *Predictor) initializeStates(imuStates *window.ImuStates, sampleStates *window.SampleStates) {
	for i := 0; i < 2; i++ {
		msg := p.queue[0]
		p.queue = p.queue[1:]

		s := &window.ImuState{
			Timestamp: msg.Timestamp,
			Acc:       msg.LinearAcceleration,
			Gyr:       msg.AngularVelocity,
			Pos:       r3.Vector{},
		}
		if i == 0 {
			s.Rot = spatialmath.IdentityQuat
		} else {
			prev := imuStates.Front()
			s.Rot = spatialmath.ExpMap(prev.Gyr.Add(s.Gyr).Mul(0.5 * p.dt))
		}
		imuStates.Append(s)
	}

	front := imuStates.Front()
	sampleStates.Append(&window.SampleState{
		Timestamp: front.Timestamp,
		Pos:       front.Pos,
		Rot:       front.Rot,
		Ba:        r3.Vector{},
		Bg:        r3.Vector{},
		Grav:      front.Acc.Normalize().Mul(-p.gravityNorm),
	})

	p.initialized = true
}
