//go:build !no_cgo

package optimizer

import (
	"github.com/go-nlopt/nlopt"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const nloptJump = 1e-8

// SolveNlopt minimizes the problem's robustified cost with NLopt's SLSQP
// instead of the default Gauss-Newton backend, treating the whole cost as
// one scalar objective with finite-difference gradients. It exists so the
// estimator can swap solver backends without touching residual assembly;
// both backends honor constant parameter indices.
func SolveNlopt(problem *Problem, maxIterations int) (Summary, error) {
	free := collectFreeParams(problem)
	summary := Summary{InitialCost: problem.Cost()}
	if len(free) == 0 {
		summary.FinalCost = summary.InitialCost
		summary.Converged = true
		return summary, nil
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(len(free)))
	if err != nil {
		return summary, errors.Wrap(err, "nlopt creation error")
	}
	defer opt.Destroy()

	evals := 0
	objective := func(x, gradient []float64) float64 {
		evals++
		for i, f := range free {
			f.block.Data[f.index] = x[i]
		}
		cost := problem.Cost()
		if len(gradient) > 0 {
			for i, f := range free {
				orig := f.block.Data[f.index]
				f.block.Data[f.index] = orig + nloptJump
				plus := problem.Cost()
				f.block.Data[f.index] = orig - nloptJump
				minus := problem.Cost()
				f.block.Data[f.index] = orig
				gradient[i] = (plus - minus) / (2 * nloptJump)
			}
		}
		return cost
	}

	err = multierr.Combine(
		opt.SetMinObjective(objective),
		opt.SetMaxEval(maxIterations*(len(free)+1)),
		opt.SetFtolRel(1e-10),
	)
	if err != nil {
		return summary, errors.Wrap(err, "nlopt configuration error")
	}

	seed := make([]float64, len(free))
	for i, f := range free {
		seed[i] = f.block.Data[f.index]
	}
	solution, cost, err := opt.Optimize(seed)
	summary.Iterations = evals
	if err != nil {
		// NLopt reports e.g. roundoff-limited progress as an error even
		// when the incumbent improved; keep whatever it produced, the
		// caller logs the summary either way (spec.md §7.3).
		summary.FinalCost = problem.Cost()
		return summary, errors.Wrap(err, "nlopt solve")
	}
	for i, f := range free {
		f.block.Data[f.index] = solution[i]
	}
	summary.FinalCost = cost
	summary.Converged = cost <= summary.InitialCost
	return summary, nil
}
