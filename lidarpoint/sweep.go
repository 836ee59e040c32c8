package lidarpoint

// BuildSweep drains every buffered point with Timestamp < sweepEndtime from
// buf, in timestamp order, and returns them as a sweep. Grounded on
// BuildSweep in the original: points at or after sweepEndtime remain
// buffered for the next sweep.
func BuildSweep(buf *Buffer, sweepEndtime float64) []Point {
	var sweep []Point
	for !buf.Empty() && buf.Front().Timestamp < sweepEndtime {
		sweep = append(sweep, buf.Front())
		buf.DropFront()
	}
	return sweep
}
