package surfel

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestFitPlaneTooFewPoints(t *testing.T) {
	_, _, _, ok := FitPlane([]r3.Vector{{X: 0}, {X: 1}})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestFitPlaneFlatSquareHasZNormal(t *testing.T) {
	pts := []r3.Vector{
		{X: -1, Y: -1, Z: 0},
		{X: 1, Y: -1, Z: 0},
		{X: 1, Y: 1, Z: 0},
		{X: -1, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 0},
	}
	center, normal, eig, ok := FitPlane(pts)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, center.X, test.ShouldAlmostEqual, 0)
	test.That(t, center.Y, test.ShouldAlmostEqual, 0)
	test.That(t, center.Z, test.ShouldAlmostEqual, 0)
	test.That(t, math.Abs(normal.Z), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, eig[0], test.ShouldBeLessThan, eig[1])
	test.That(t, eig[1], test.ShouldBeLessThanOrEqualTo, eig[2])
}
