package layered

import (
	"github.com/notargets/gopave/bessel"
	"github.com/notargets/gopave/quadrature"
	"github.com/notargets/gopave/utils"
)

// CalcBuffer is scratch space for one simulation pass. Contents are only
// meaningful for the node being processed. A CalcBuffer must not be shared
// between concurrent evaluations.
type CalcBuffer struct {
	Boundaries     [bessel.NumZeros + 1]float64
	Nodes, Weights [quadrature.MaxOrder]float64
	Assembled      *utils.BandMatrix // system at the current node, unfactored
	Solver         *BandSolver
	Dense          *DenseSolver
	system         FactoredSystem // whichever of Solver, Dense holds the current factors
	DenseSolves    int            // nodes that needed the pivoted fallback
	F1, F3         [6]float64     // per layer decay factors and depth products at the node
	RHS, X         [NumUnknowns]float64
	SensRHS        [NumUnknowns]float64
	SensX          [NumModuli][NumUnknowns]float64
	C              [NumLogical]float64            // constants in logical layout
	DC             [NumModuli][NumLogical]float64 // their modulus sensitivities
	ABCD           [4]float64                     // constants of the active layer
	DABCD          [NumModuli][4]float64
}

func NewCalcBuffer() (buf *CalcBuffer) {
	buf = &CalcBuffer{
		Assembled: utils.NewBandMatrix(NumUnknowns, SubDiagonals, SuperDiagonals),
		Solver:    NewBandSolver(utils.NewBandMatrix(NumUnknowns, SubDiagonals, SuperDiagonals)),
		Dense:     NewDenseSolver(NumUnknowns),
	}
	return
}

// factorAndSolve solves Assembled x = RHS with the banded elimination and
// falls back to the pivoted dense factorization when the banded result has
// a large backward error. Later sensitivity solves reuse the same factors.
func (buf *CalcBuffer) factorAndSolve() (err error) {
	buf.Solver.Load(buf.Assembled)
	if err = buf.Solver.Decompose(); err == nil {
		if err = buf.Solver.Solve(buf.RHS[:], buf.X[:]); err != nil {
			return
		}
		if BackwardError(buf.Assembled, buf.X[:], buf.RHS[:]) <= BackwardErrorLimit {
			buf.system = buf.Solver
			return
		}
	}
	buf.DenseSolves++
	if err = buf.Dense.Decompose(buf.Assembled); err != nil {
		return
	}
	buf.system = buf.Dense
	return buf.Dense.Solve(buf.RHS[:], buf.X[:])
}

// toLogical spreads a banded solution onto the 20 logical constants, the
// dropped half-space constants are zero
func toLogical(x *[NumUnknowns]float64, c *[NumLogical]float64) {
	for l := 0; l < NumLogical; l++ {
		if col := Column(l); col >= 0 {
			c[l] = x[col]
		} else {
			c[l] = 0
		}
	}
}
