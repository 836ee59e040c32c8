package lidarpoint

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/flex-transformer/Wildcat-SLAM/imu"
)

func TestSyncHeadsWaitsForEitherStream(t *testing.T) {
	b := NewBuffer(testPrefilter())
	_, ok := SyncHeads(b, nil)
	test.That(t, ok, test.ShouldBeFalse)

	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 1})
	_, ok = SyncHeads(b, nil)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSyncHeadsWaitsForImuToCatchUp(t *testing.T) {
	b := NewBuffer(testPrefilter())
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 5})
	samples := []imu.Sample{{Timestamp: 1}, {Timestamp: 2}}
	_, ok := SyncHeads(b, samples)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestSyncHeadsTrimsBothFronts(t *testing.T) {
	b := NewBuffer(testPrefilter())
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 1})
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 2})
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 3})
	samples := []imu.Sample{{Timestamp: 0}, {Timestamp: 1.5}, {Timestamp: 2.5}, {Timestamp: 5}}

	out, ok := SyncHeads(b, samples)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, b.Front().Timestamp, test.ShouldEqual, float64(2))
	test.That(t, out[0].Timestamp, test.ShouldEqual, float64(1.5))
	test.That(t, b.Synced(), test.ShouldBeTrue)
}

func TestSyncHeadsIsOneShot(t *testing.T) {
	b := NewBuffer(testPrefilter())
	b.SetSynced()
	b.Ingest(Point{Position: r3.Vector{X: 1}, Timestamp: 1})
	out, ok := SyncHeads(b, []imu.Sample{{Timestamp: 100}})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(out), test.ShouldEqual, 1)
	test.That(t, b.Len(), test.ShouldEqual, 1)
}
