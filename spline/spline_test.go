package spline

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func uniformTimestamps(n int, t0, dt float64) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = t0 + float64(i)*dt
	}
	return ts
}

func TestInterpolatesKnotsExactly(t *testing.T) {
	ts := uniformTimestamps(6, 0, 0.1)
	vals := []r3.Vector{
		{X: 0}, {X: 0.01, Y: -0.02}, {X: 0.03}, {X: 0.02, Z: 0.05}, {X: -0.01}, {Y: 0.04},
	}
	ip := NewInterpolator(ts, vals)
	for i, knot := range ts {
		got, ok := ip.Interp(knot)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got.X, test.ShouldAlmostEqual, vals[i].X, 1e-9)
		test.That(t, got.Y, test.ShouldAlmostEqual, vals[i].Y, 1e-9)
		test.That(t, got.Z, test.ShouldAlmostEqual, vals[i].Z, 1e-9)
	}
}

func TestZeroKnotsInterpolateToZeroEverywhere(t *testing.T) {
	ts := uniformTimestamps(5, 1, 0.1)
	vals := make([]r3.Vector, 5)
	ip := NewInterpolator(ts, vals)
	for tt := 1.0; tt <= 1.4; tt += 0.013 {
		got, ok := ip.Interp(tt)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got.Norm(), test.ShouldAlmostEqual, 0, 1e-12)
	}
}

func TestOutsideSupportReportsFalse(t *testing.T) {
	ts := uniformTimestamps(4, 0, 0.1)
	ip := NewInterpolator(ts, make([]r3.Vector, 4))
	_, ok := ip.Interp(-0.01)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = ip.Interp(0.31)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestTwoKnotsFallBackToLinear(t *testing.T) {
	ip := NewInterpolator([]float64{0, 0.1}, []r3.Vector{{X: 1}, {X: 3}})
	got, ok := ip.Interp(0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got.X, test.ShouldAlmostEqual, 2)
}

func TestSingleKnotNeverInterpolates(t *testing.T) {
	ip := NewInterpolator([]float64{0}, []r3.Vector{{X: 1}})
	_, ok := ip.Interp(0)
	test.That(t, ok, test.ShouldBeFalse)
}
