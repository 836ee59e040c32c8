// Package spline implements the uniform cubic B-spline interpolator the
// corrector uses to push sparse sample-state corrections into the dense
// IMU trajectory: one interpolator instance per correction channel
// (axis-angle rotation, translation), knots at the sample timestamps.
// See spec.md §4.8.
package spline

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Interpolator is a uniform cubic B-spline through 3-vector-valued knots.
// Outside its support interval [t0, tN] interpolation reports false and
// callers extrapolate by other means (relative-transform composition in
// the corrector). With fewer than four knots a cubic fit is
// underdetermined; the interpolator degrades to piecewise-linear there so
// early sweeps (one or two sample states in the window) still correct.
type Interpolator struct {
	t0, h float64
	knots []r3.Vector
	ctrl  []r3.Vector // len(knots)+2 control points; nil in linear mode
}

// basis is the uniform cubic B-spline segment matrix: value on segment j
// at local parameter u is 1/6 * [u^3 u^2 u 1] * basis * [c_j c_j+1 c_j+2 c_j+3]^T.
var basis = [4][4]float64{
	{-1, 3, -3, 1},
	{3, -6, 3, 0},
	{-3, 0, 3, 0},
	{1, 4, 1, 0},
}

// NewInterpolator fits a cubic B-spline interpolating values[i] at
// timestamps[i]. Timestamps must be ascending and (per the sample-state
// cadence invariant) uniformly spaced; the knot spacing is taken from the
// overall span. Fewer than two knots yields an interpolator whose Interp
// always reports false.
func NewInterpolator(timestamps []float64, values []r3.Vector) *Interpolator {
	n := len(timestamps)
	ip := &Interpolator{knots: append([]r3.Vector(nil), values...)}
	if n < 2 {
		return ip
	}
	ip.t0 = timestamps[0]
	ip.h = (timestamps[n-1] - timestamps[0]) / float64(n-1)
	if n < 4 {
		return ip
	}
	ip.ctrl = solveControlPoints(values)
	return ip
}

// solveControlPoints solves the (n+2)-unknown interpolation system per
// axis: each knot constrains (c_i + 4c_{i+1} + c_{i+2})/6 = d_i, closed
// with natural end conditions (zero second derivative at both ends).
func solveControlPoints(values []r3.Vector) []r3.Vector {
	n := len(values)
	m := n + 2
	a := mat.NewDense(m, m, nil)
	// Natural ends: c_0 - 2c_1 + c_2 = 0 and c_{n-1} - 2c_n + c_{n+1} = 0.
	a.Set(0, 0, 1)
	a.Set(0, 1, -2)
	a.Set(0, 2, 1)
	a.Set(m-1, m-3, 1)
	a.Set(m-1, m-2, -2)
	a.Set(m-1, m-1, 1)
	for i := 0; i < n; i++ {
		a.Set(i+1, i, 1.0/6)
		a.Set(i+1, i+1, 4.0/6)
		a.Set(i+1, i+2, 1.0/6)
	}

	b := mat.NewDense(m, 3, nil)
	for i, v := range values {
		b.Set(i+1, 0, v.X)
		b.Set(i+1, 1, v.Y)
		b.Set(i+1, 2, v.Z)
	}

	var x mat.Dense
	if err := x.Solve(a, b); err != nil {
		// The interpolation matrix is strictly diagonally dominant away
		// from the end rows and nonsingular for any n >= 4; a solve
		// failure means degenerate (non-finite) correction values fed in.
		panic(err)
	}

	ctrl := make([]r3.Vector, m)
	for i := range ctrl {
		ctrl[i] = r3.Vector{X: x.At(i, 0), Y: x.At(i, 1), Z: x.At(i, 2)}
	}
	return ctrl
}

// Interp evaluates the spline at t. ok is false outside the support
// interval [t0, tN] (and always false with fewer than two knots).
func (ip *Interpolator) Interp(t float64) (r3.Vector, bool) {
	n := len(ip.knots)
	if n < 2 {
		return r3.Vector{}, false
	}
	tN := ip.t0 + float64(n-1)*ip.h
	if t < ip.t0 || t > tN {
		return r3.Vector{}, false
	}

	seg := int((t - ip.t0) / ip.h)
	if seg > n-2 {
		seg = n - 2
	}
	u := (t-ip.t0)/ip.h - float64(seg)

	if ip.ctrl == nil {
		a, b := ip.knots[seg], ip.knots[seg+1]
		return a.Mul(1 - u).Add(b.Mul(u)), true
	}

	c := ip.ctrl[seg : seg+4]
	pow := [4]float64{u * u * u, u * u, u, 1}
	var out r3.Vector
	for j := 0; j < 4; j++ {
		var w float64
		for i := 0; i < 4; i++ {
			w += pow[i] * basis[i][j]
		}
		out = out.Add(c[j].Mul(w / 6))
	}
	return out, true
}
