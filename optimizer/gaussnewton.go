package optimizer

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Summary reports a solve's outcome, mirroring ceres::Solver::Summary's
// fields that spec.md §4.7 cares about.
type Summary struct {
	InitialCost float64
	FinalCost   float64
	Iterations  int
	Converged   bool
}

const (
	finiteDiffStep  = 1e-6
	gaussNewtonDamp = 1e-9
	costTolerance   = 1e-10
)

// Solve runs dense Gauss-Newton (Levenberg-Marquardt-damped normal
// equations, solved by Cholesky) for up to maxIterations. spec.md §4.7
// calls for "sparse normal-Cholesky"; no sparse linear solver exists
// anywhere in the example pack, so this uses gonum's dense Cholesky over
// the window's (modestly sized) normal matrix instead — see DESIGN.md.
// Jacobians are central finite differences, since residuals in package
// residuals expose no analytic derivative.
func Solve(problem *Problem, maxIterations int) Summary {
	free := collectFreeParams(problem)
	summary := Summary{InitialCost: problem.Cost()}
	if len(free) == 0 {
		summary.FinalCost = summary.InitialCost
		summary.Converged = true
		return summary
	}

	lambda := gaussNewtonDamp
	prevCost := summary.InitialCost
	for iter := 0; iter < maxIterations; iter++ {
		summary.Iterations++
		jtj, jtr := buildNormalEquations(problem, free)
		for i := range free {
			jtj.SetSym(i, i, jtj.At(i, i)+lambda)
		}

		var chol mat.Cholesky
		if ok := chol.Factorize(jtj); !ok {
			lambda *= 10
			continue
		}
		var delta mat.VecDense
		if err := chol.SolveVecTo(&delta, jtr); err != nil {
			lambda *= 10
			continue
		}

		applyDelta(free, &delta, 1)
		newCost := problem.Cost()
		if newCost >= prevCost {
			applyDelta(free, &delta, -1)
			if newCost-prevCost <= costTolerance*(prevCost+costTolerance) {
				// The step neither helped nor hurt: the problem is already
				// at a stationary point (e.g. all residuals zero).
				summary.Converged = true
				break
			}
			lambda *= 10
			if lambda > 1e12 {
				break
			}
			continue
		}
		lambda = math.Max(lambda/10, 1e-12)
		if prevCost-newCost < costTolerance*(prevCost+costTolerance) {
			prevCost = newCost
			summary.Converged = true
			break
		}
		prevCost = newCost
	}
	summary.FinalCost = prevCost
	return summary
}

// freeParam addresses one free (non-constant) scalar across every
// parameter block referenced by the problem.
type freeParam struct {
	block *ParamBlock
	index int
}

func collectFreeParams(problem *Problem) []freeParam {
	seen := make(map[*ParamBlock]bool)
	var free []freeParam
	for _, r := range problem.Residuals() {
		for _, b := range r.ParamBlocks() {
			if seen[b] {
				continue
			}
			seen[b] = true
			for i := range b.Data {
				if !b.IsConstant(i) {
					free = append(free, freeParam{block: b, index: i})
				}
			}
		}
	}
	return free
}

func applyDelta(free []freeParam, delta *mat.VecDense, sign float64) {
	for i, f := range free {
		f.block.Data[f.index] += sign * delta.AtVec(i)
	}
}

// buildNormalEquations assembles J^T W J and J^T W r for the whole
// problem, where W per-residual-block is the robustified IRLS weighting
// (rho1*I) from its loss function, following ceres' Cauchy/Trivial loss
// handling for weighting a Gauss-Newton step.
func buildNormalEquations(problem *Problem, free []freeParam) (*mat.SymDense, *mat.VecDense) {
	n := len(free)
	jtj := mat.NewSymDense(n, nil)
	jtr := mat.NewVecDense(n, nil)

	colOf := make(map[*ParamBlock]map[int]int, n)
	for col, f := range free {
		m, ok := colOf[f.block]
		if !ok {
			m = make(map[int]int)
			colOf[f.block] = m
		}
		m[f.index] = col
	}

	for _, r := range problem.Residuals() {
		res := r.Evaluate()
		sqNorm := dot(res, res)
		_, rho1, _ := r.Loss().Eval(sqNorm)
		if rho1 < 0 {
			rho1 = 0
		}
		weight := math.Sqrt(rho1)

		jac := numericJacobian(r)
		dim := r.Dim()

		blocks := r.ParamBlocks()
		// cols[k] lists, for blocks[k], the global free-column index of
		// each of its local parameter positions (-1 if constant).
		var cols [][]int
		offset := 0
		for _, b := range blocks {
			local := make([]int, len(b.Data))
			blockCols := colOf[b]
			for i := range b.Data {
				if c, ok := blockCols[i]; ok {
					local[i] = c
				} else {
					local[i] = -1
				}
			}
			cols = append(cols, local)
			offset += len(b.Data)
		}

		colStart := 0
		for bi, b := range blocks {
			for li := range b.Data {
				gc := cols[bi][li]
				jcol := colStart + li
				if gc < 0 {
					continue
				}
				for row := 0; row < dim; row++ {
					jtr.SetVec(gc, jtr.AtVec(gc)-weight*weight*jac[row][jcol]*res[row])
				}
			}
			colStart += len(b.Data)
		}

		colStart = 0
		for bi, b := range blocks {
			for li := range b.Data {
				gc := cols[bi][li]
				if gc < 0 {
					colStart += 0
					continue
				}
				jcolI := colStart + li
				colStart2 := 0
				for bj, b2 := range blocks {
					for lj := range b2.Data {
						gc2 := cols[bj][lj]
						if gc2 < 0 || gc2 < gc {
							colStart2 += 0
							continue
						}
						jcolJ := colStart2 + lj
						var acc float64
						for row := 0; row < dim; row++ {
							acc += weight * weight * jac[row][jcolI] * jac[row][jcolJ]
						}
						jtj.SetSym(gc, gc2, jtj.At(gc, gc2)+acc)
					}
					colStart2 += len(b2.Data)
				}
			}
			colStart += len(b.Data)
		}
	}

	return jtj, jtr
}

// numericJacobian returns the residual's Jacobian by central finite
// differences over the concatenation of its parameter blocks' Data,
// including constant entries (callers simply skip those columns).
func numericJacobian(r Residual) [][]float64 {
	blocks := r.ParamBlocks()
	totalCols := 0
	for _, b := range blocks {
		totalCols += len(b.Data)
	}
	dim := r.Dim()
	jac := make([][]float64, dim)
	for i := range jac {
		jac[i] = make([]float64, totalCols)
	}

	col := 0
	for _, b := range blocks {
		for i := range b.Data {
			if b.IsConstant(i) {
				col++
				continue
			}
			orig := b.Data[i]
			b.Data[i] = orig + finiteDiffStep
			plus := r.Evaluate()
			b.Data[i] = orig - finiteDiffStep
			minus := r.Evaluate()
			b.Data[i] = orig
			for row := 0; row < dim; row++ {
				jac[row][col] = (plus[row] - minus[row]) / (2 * finiteDiffStep)
			}
			col++
		}
	}
	return jac
}
