package lidarpoint

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBuildSweepDrainsBeforeEndtime(t *testing.T) {
	b := NewBuffer(testPrefilter())
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 1})
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 2})
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 3})

	sweep := BuildSweep(b, 2.5)
	test.That(t, len(sweep), test.ShouldEqual, 2)
	test.That(t, b.Len(), test.ShouldEqual, 1)
	test.That(t, b.Front().Timestamp, test.ShouldEqual, float64(3))
}

func TestBuildSweepEmptyBuffer(t *testing.T) {
	b := NewBuffer(testPrefilter())
	sweep := BuildSweep(b, 10)
	test.That(t, len(sweep), test.ShouldEqual, 0)
}
