//go:build no_cgo

package optimizer

import "github.com/pkg/errors"

// SolveNlopt is not supported on no_cgo builds; the default Gauss-Newton
// backend (Solve) is pure Go and always available.
func SolveNlopt(problem *Problem, maxIterations int) (Summary, error) {
	return Summary{}, errors.New("nlopt is not supported on this build")
}
