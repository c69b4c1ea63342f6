package layered

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gopave/utils"
	"gonum.org/v1/gonum/mat"
)

// BackwardErrorLimit is the largest normwise backward error accepted from the
// unpivoted banded elimination before the pivoted fallback is used
const BackwardErrorLimit = 1.e-12

// FactoredSystem solves against a factorization computed earlier
type FactoredSystem interface {
	Solve(b, x []float64) error
}

// BandSolver factors the continuity system in place. Rows 0 and 1 are
// exchanged once, then elimination proceeds without pivoting, storing the
// multipliers over the eliminated entries so later right hand sides reuse
// the factorization.
type BandSolver struct {
	K        *utils.BandMatrix
	factored bool
	y        []float64
}

func NewBandSolver(K *utils.BandMatrix) *BandSolver {
	return &BandSolver{
		K: K,
		y: make([]float64, K.N),
	}
}

// Load copies an assembled system into the solver, discarding any factors
func (bs *BandSolver) Load(A *utils.BandMatrix) {
	bs.K.CopyFrom(A)
	bs.factored = false
}

func (bs *BandSolver) Decompose() (err error) {
	var (
		K      = bs.K
		N      = K.N
		kl, ku = K.KL, K.KU
	)
	if bs.factored {
		err = fmt.Errorf("already factored - reassemble the matrix first")
		return
	}
	// the fixed swap needs row 1 to have nothing beyond row 0's last stored column
	if K.At(1, ku+1) != 0 {
		err = fmt.Errorf("%w: row 1 extends past the band of row 0", ErrNumericalInstability)
		return
	}
	K.SwapRows(0, 1, 0, ku)
	for pv := 0; pv < N-1; pv++ {
		d := K.At(pv, pv)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			err = fmt.Errorf("%w: pivot %d is %v", ErrNumericalInstability, pv, d)
			return
		}
		for r := pv + 1; r <= min(pv+kl, N-1); r++ {
			mu := K.At(r, pv) / d
			if mu == 0 {
				continue
			}
			for c := pv + 1; c <= min(pv+ku, N-1); c++ {
				K.Add(r, c, -mu*K.At(pv, c))
			}
			K.Set(r, pv, mu)
		}
	}
	if d := K.At(N-1, N-1); d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		err = fmt.Errorf("%w: pivot %d is %v", ErrNumericalInstability, N-1, d)
		return
	}
	bs.factored = true
	return
}

// Solve applies the stored factorization to b, writing the solution to x.
// b is not modified.
func (bs *BandSolver) Solve(b, x []float64) (err error) {
	var (
		K      = bs.K
		N      = K.N
		kl, ku = K.KL, K.KU
		y      = bs.y
	)
	if !bs.factored {
		err = fmt.Errorf("uninitialized - call Decompose first")
		return
	}
	copy(y, b)
	y[0], y[1] = y[1], y[0]
	for pv := 0; pv < N-1; pv++ {
		for r := pv + 1; r <= min(pv+kl, N-1); r++ {
			y[r] -= K.At(r, pv) * y[pv]
		}
	}
	for i := N - 1; i >= 0; i-- {
		sum := y[i]
		for c := i + 1; c <= min(i+ku, N-1); c++ {
			sum -= K.At(i, c) * x[c]
		}
		x[i] = sum / K.At(i, i)
	}
	return
}

// DenseSolver is the partial pivoting fallback for nodes where the fixed
// elimination order loses accuracy
type DenseSolver struct {
	A        *mat.Dense
	lu       mat.LU
	x, b     *mat.VecDense
	factored bool
}

func NewDenseSolver(N int) *DenseSolver {
	return &DenseSolver{
		A: mat.NewDense(N, N, nil),
		x: mat.NewVecDense(N, nil),
		b: mat.NewVecDense(N, nil),
	}
}

func (ds *DenseSolver) Decompose(B *utils.BandMatrix) (err error) {
	ds.A.Zero()
	for i := 0; i < B.N; i++ {
		for j := max(0, i-B.KL); j <= min(B.N-1, i+B.KU); j++ {
			ds.A.Set(i, j, B.At(i, j))
		}
	}
	ds.factored = false
	ds.lu.Factorize(ds.A)
	if c := ds.lu.Cond(); math.IsInf(c, 1) || math.IsNaN(c) {
		err = fmt.Errorf("%w: singular system, condition %v", ErrNumericalInstability, c)
		return
	}
	ds.factored = true
	return
}

func (ds *DenseSolver) Solve(b, x []float64) (err error) {
	if !ds.factored {
		err = fmt.Errorf("uninitialized - call Decompose first")
		return
	}
	copy(ds.b.RawVector().Data, b)
	if err = ds.lu.SolveVecTo(ds.x, false, ds.b); err != nil {
		// ill conditioning is expected near m = 0, the solution is still used
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return
		}
		err = nil
	}
	copy(x, ds.x.RawVector().Data)
	return
}

// BackwardError is |Kx-b| / (|K| |x| + |b|) in the infinity norm
func BackwardError(K *utils.BandMatrix, x, b []float64) float64 {
	var rMax, kMax, xMax, bMax float64
	for i := 0; i < K.N; i++ {
		var sum, rowSum float64
		for j := max(0, i-K.KL); j <= min(K.N-1, i+K.KU); j++ {
			kij := K.At(i, j)
			sum += kij * x[j]
			rowSum += math.Abs(kij)
		}
		rMax = math.Max(rMax, math.Abs(sum-b[i]))
		kMax = math.Max(kMax, rowSum)
		xMax = math.Max(xMax, math.Abs(x[i]))
		bMax = math.Max(bMax, math.Abs(b[i]))
	}
	den := kMax*xMax + bMax
	if den == 0 {
		return 0
	}
	if math.IsNaN(rMax) {
		return math.Inf(1)
	}
	return rMax / den
}
