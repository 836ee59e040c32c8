// Package optimizer provides a ceres-like nonlinear least-squares
// abstraction — parameter blocks, residual blocks, robust loss wrappers,
// and subset-constant parameterization — plus two interchangeable solve
// backends, per spec.md §4.7 (the specific optimization library is an
// out-of-scope collaborator; this package is that collaborator's contract
// and a real implementation of it).
package optimizer

// ParamBlock is one addressable block of optimization variables: a sample
// state's DataCor[12], or any other flat parameter vector a Residual
// reads from and the solver writes back into.
type ParamBlock struct {
	Data []float64
	// ConstantIndices marks positions within Data that the solver must
	// never perturb, e.g. pinning the first sample state's translation
	// correction (indices 3,4,5) per spec.md §4.7/§9.
	ConstantIndices map[int]bool
}

// NewParamBlock wraps data as a fully-free parameter block.
func NewParamBlock(data []float64) *ParamBlock {
	return &ParamBlock{Data: data}
}

// SetConstant marks index as held fixed across every solve.
func (p *ParamBlock) SetConstant(index int) {
	if p.ConstantIndices == nil {
		p.ConstantIndices = make(map[int]bool)
	}
	p.ConstantIndices[index] = true
}

// IsConstant reports whether index is held fixed.
func (p *ParamBlock) IsConstant(index int) bool {
	return p.ConstantIndices[index]
}

// Residual is one residual block: it reads the current values of its
// parameter blocks and returns the residual vector. Jacobians are
// computed by the solver via central finite differences, since none of
// the factor families in package residuals expose analytic derivatives
// (mirroring spec.md §4.7 treating the solver itself as a black box that
// only needs residual evaluation).
type Residual interface {
	// ParamBlocks returns, in order, the parameter blocks this residual
	// reads. The Jacobian's column blocks follow this same order.
	ParamBlocks() []*ParamBlock
	// Dim is the residual vector's dimension.
	Dim() int
	// Evaluate returns the residual vector for the parameter blocks'
	// current values.
	Evaluate() []float64
	// Loss is the robust loss wrapper applied to this residual's squared
	// norm before it contributes to the total cost.
	Loss() LossFunction
}

// Problem accumulates residual blocks for one solve.
type Problem struct {
	residuals []Residual
}

// NewProblem returns an empty problem.
func NewProblem() *Problem {
	return &Problem{}
}

// AddResidualBlock registers r with the problem.
func (p *Problem) AddResidualBlock(r Residual) {
	p.residuals = append(p.residuals, r)
}

// Residuals returns every registered residual block.
func (p *Problem) Residuals() []Residual {
	return p.residuals
}

// Cost returns the total robustified cost: 0.5 * sum(loss(||r_i||^2)) over
// every residual block, matching ceres' reported cost convention.
func (p *Problem) Cost() float64 {
	var cost float64
	for _, r := range p.residuals {
		res := r.Evaluate()
		sq := dot(res, res)
		rho, _, _ := r.Loss().Eval(sq)
		cost += 0.5 * rho
	}
	return cost
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
