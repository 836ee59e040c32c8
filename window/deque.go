package window

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrBracketNotFound is returned when a timestamp has no bracketing pair in
// a deque: for sample states, t is before the front or at/after the back;
// for IMU states, t is at/before the front or after the back.
// Per spec.md §7, callers treat this as transient insufficiency, not a
// fatal invariant violation, unless the deque itself is known to span the
// timestamp (e.g. undistortion).
var ErrBracketNotFound = errors.New("window: no bracketing pair for timestamp")

// UpperBoundSampleIndex returns the index of the first sample state whose
// timestamp is strictly greater than t (the `std::upper_bound` used
// throughout the original for locating the bracket around a surfel or IMU
// timestamp). Returns len(states) if none qualifies.
func UpperBoundSampleIndex(states []*SampleState, t float64) int {
	return sort.Search(len(states), func(i int) bool {
		return states[i].Timestamp > t
	})
}

// LowerBoundImuIndex returns the index of the first IMU state whose
// timestamp is not less than t. Returns len(states) if none qualifies.
func LowerBoundImuIndex(states []*ImuState, t float64) int {
	return sort.Search(len(states), func(i int) bool {
		return states[i].Timestamp >= t
	})
}

// BracketSampleStates returns the pair (left, right) of sample states with
// left.Timestamp <= t < right.Timestamp, via upper-bound lookup. Returns
// ErrBracketNotFound if t is outside [states[0].Timestamp, states[-1].Timestamp).
func BracketSampleStates(states []*SampleState, t float64) (left, right *SampleState, idx int, err error) {
	idx = UpperBoundSampleIndex(states, t)
	if idx == 0 || idx == len(states) {
		return nil, nil, idx, ErrBracketNotFound
	}
	return states[idx-1], states[idx], idx, nil
}

// BracketImuStates returns the pair (left, right) of IMU states with
// left.Timestamp <= t <= right.Timestamp, via lower-bound lookup, matching
// the original's `std::lower_bound` bracket convention for undistortion and
// surfel pose rebaking.
func BracketImuStates(states []*ImuState, t float64) (left, right *ImuState, idx int, err error) {
	idx = LowerBoundImuIndex(states, t)
	if idx == 0 || idx == len(states) {
		return nil, nil, idx, ErrBracketNotFound
	}
	return states[idx-1], states[idx], idx, nil
}
