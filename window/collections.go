package window

// ImuStates is the dense propagated-pose deque described in spec.md §3,
// ordered by Timestamp ascending. The zero value is an empty deque.
type ImuStates struct {
	states []*ImuState
}

// Append adds a newly-propagated state to the back.
func (q *ImuStates) Append(s *ImuState) {
	q.states = append(q.states, s)
}

// Len returns the number of states currently held.
func (q *ImuStates) Len() int {
	return len(q.states)
}

// Empty reports whether the deque holds no states.
func (q *ImuStates) Empty() bool {
	return len(q.states) == 0
}

// Front returns the oldest state. Panics if empty.
func (q *ImuStates) Front() *ImuState {
	return q.states[0]
}

// Back returns the newest state. Panics if empty.
func (q *ImuStates) Back() *ImuState {
	return q.states[len(q.states)-1]
}

// At returns the i-th oldest state.
func (q *ImuStates) At(i int) *ImuState {
	return q.states[i]
}

// All returns the states in timestamp order. Callers must not mutate the
// returned slice's length; element fields may be mutated in place (e.g. by
// the corrector).
func (q *ImuStates) All() []*ImuState {
	return q.states
}

// DropFront discards the n oldest states.
func (q *ImuStates) DropFront(n int) {
	q.states = q.states[n:]
}

// SampleStates is the sparse control-point deque described in spec.md §3,
// ordered by Timestamp ascending. The zero value is an empty deque.
type SampleStates struct {
	states []*SampleState
}

// Append adds a newly-extended control point to the back.
func (q *SampleStates) Append(s *SampleState) {
	q.states = append(q.states, s)
}

// Len returns the number of sample states currently held.
func (q *SampleStates) Len() int {
	return len(q.states)
}

// Empty reports whether the deque holds no sample states.
func (q *SampleStates) Empty() bool {
	return len(q.states) == 0
}

// Front returns the oldest sample state. Panics if empty.
func (q *SampleStates) Front() *SampleState {
	return q.states[0]
}

// Back returns the newest sample state. Panics if empty.
func (q *SampleStates) Back() *SampleState {
	return q.states[len(q.states)-1]
}

// At returns the i-th oldest sample state.
func (q *SampleStates) At(i int) *SampleState {
	return q.states[i]
}

// All returns the sample states in timestamp order. Callers must not mutate
// the returned slice's length; element fields may be mutated in place (e.g.
// by the optimizer or corrector).
func (q *SampleStates) All() []*SampleState {
	return q.states
}

// DropFront discards the n oldest sample states.
func (q *SampleStates) DropFront(n int) {
	q.states = q.states[n:]
}
