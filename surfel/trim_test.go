package surfel

import (
	"testing"

	"go.viam.com/test"
)

func TestDropOlderThan(t *testing.T) {
	surfels := []*Surfel{{Timestamp: 0}, {Timestamp: 1}, {Timestamp: 2}, {Timestamp: 3}}
	out := DropOlderThan(surfels, 2)
	test.That(t, len(out), test.ShouldEqual, 2)
	test.That(t, out[0].Timestamp, test.ShouldEqual, float64(2))
}

func TestDropOlderThanKeepsAll(t *testing.T) {
	surfels := []*Surfel{{Timestamp: 5}, {Timestamp: 6}}
	out := DropOlderThan(surfels, 1)
	test.That(t, len(out), test.ShouldEqual, 2)
}
