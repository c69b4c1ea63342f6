package layered

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gopave/utils"
)

func TestBandSolverMatchesDense(t *testing.T) {
	for _, tc := range testConfigs {
		t.Run(tc.name, func(t *testing.T) {
			mp := tc.model(t)
			buf := NewCalcBuffer()
			for _, m := range []float64{0.8, 1.5, 3} {
				require.True(t, mp.Regular(m))
				mp.Assemble(m, buf)
				var (
					A    = buf.Assembled.ToDense()
					xRef mat.VecDense
				)
				require.NoError(t, xRef.SolveVec(A, mat.NewVecDense(NumUnknowns, buf.RHS[:])))

				bs := buf.Solver
				bs.Load(buf.Assembled)
				require.NoError(t, bs.Decompose())
				x := make([]float64, NumUnknowns)
				require.NoError(t, bs.Solve(buf.RHS[:], x))
				var scale float64
				for i := range x {
					scale = max(scale, abs(xRef.AtVec(i)))
				}
				for i := range x {
					assert.InDelta(t, xRef.AtVec(i), x[i], 1.e-9*scale, "m=%v x[%d]", m, i)
				}
				// the factors are reused for any right hand side
				b := make([]float64, NumUnknowns)
				for i := range b {
					b[i] = float64(i%5) - 2
				}
				require.NoError(t, bs.Solve(b, x))
				assert.Less(t, BackwardError(buf.Assembled, x, b), 1.e-10)
			}
		})
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestBandSolverGuards(t *testing.T) {
	// identity with rows 0 and 1 exchanged, the fixed swap restores it
	swapped := func() *utils.BandMatrix {
		K := utils.NewBandMatrix(NumUnknowns, SubDiagonals, SuperDiagonals)
		for i := 2; i < NumUnknowns; i++ {
			K.Set(i, i, 1)
		}
		K.Set(0, 1, 1)
		K.Set(1, 0, 1)
		return K
	}
	x := make([]float64, NumUnknowns)
	b := make([]float64, NumUnknowns)
	b[0] = 1

	bs := NewBandSolver(swapped())
	assert.Error(t, bs.Solve(b, x))
	require.NoError(t, bs.Decompose())
	assert.Error(t, bs.Decompose())
	require.NoError(t, bs.Solve(b, x))
	assert.Equal(t, 1., x[1])
	assert.Equal(t, 0., x[0])

	K := swapped()
	K.Set(2, 2, 0)
	bs = NewBandSolver(K)
	err := bs.Decompose()
	assert.True(t, errors.Is(err, ErrNumericalInstability))

	K = swapped()
	K.Set(1, 6, 2)
	bs = NewBandSolver(K)
	assert.True(t, errors.Is(bs.Decompose(), ErrNumericalInstability))

	ds := NewDenseSolver(NumUnknowns)
	assert.Error(t, ds.Solve(b, x))
	K = swapped()
	K.Set(4, 4, 0)
	assert.True(t, errors.Is(ds.Decompose(K), ErrNumericalInstability))
}

func TestPivotedFallback(t *testing.T) {
	// a thin stiff surface over a deep structure leaves the fixed order
	// elimination with large growth near the end of the regular regime
	mp := testConfigs[2].model(t)
	buf := NewCalcBuffer()
	m := 68.
	require.True(t, mp.Regular(m))
	require.NoError(t, mp.Coefficients(m, true, buf))
	assert.Equal(t, 1, buf.DenseSolves)
	assert.Less(t, BackwardError(buf.Assembled, buf.X[:], buf.RHS[:]), 1.e-12)
	// top layer constants stay of order one
	for _, c := range buf.ABCD {
		assert.Less(t, abs(c), 10.)
	}
}
