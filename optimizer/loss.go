package optimizer

import "math"

// LossFunction robustifies a residual block's squared norm, mirroring
// ceres::LossFunction: Eval(s) returns (rho(s), rho'(s), rho''(s)).
type LossFunction interface {
	Eval(sqNorm float64) (rho, rho1, rho2 float64)
}

// TrivialLoss is the identity loss: rho(s) = s. Used for the IMU factors
// in spec.md §4.6 ("Loss is identity (trivial)").
type TrivialLoss struct{}

// Eval implements LossFunction.
func (TrivialLoss) Eval(sqNorm float64) (float64, float64, float64) {
	return sqNorm, 1, 0
}

// CauchyLoss is ceres' Cauchy robust loss with scale a: rho(s) =
// a^2*log(1+s/a^2). Used for the LiDAR surfel-to-surfel factors in
// spec.md §4.6 ("Wrapped in a Cauchy robust loss with scale 0.4").
type CauchyLoss struct {
	Scale float64
}

// Eval implements LossFunction.
func (c CauchyLoss) Eval(sqNorm float64) (rho, rho1, rho2 float64) {
	a2 := c.Scale * c.Scale
	sum := 1 + sqNorm/a2
	rho = a2 * math.Log(sum)
	rho1 = 1 / sum
	rho2 = -rho1 / (a2 * sum)
	return rho, rho1, rho2
}
