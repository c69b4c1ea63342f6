package quadrature

import (
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

const (
	MinOrder  = 4
	OrderStep = 4
	MaxOrder  = 64
)

// Rule is a Gauss-Legendre rule on [-1,1] with ascending nodes
type Rule struct {
	Order int
	X, W  []float64
}

var (
	rulesOnce sync.Once
	rules     map[int]*Rule
	warned    sync.Map
)

// Supported reports whether order is one of 4, 8, ..., 64
func Supported(order int) bool {
	return order >= MinOrder && order <= MaxOrder && order%OrderStep == 0
}

// Canonical returns the cached rule for a supported order
func Canonical(order int) (R *Rule, err error) {
	if !Supported(order) {
		err = fmt.Errorf("unsupported quadrature order %d, want a multiple of %d in [%d,%d]",
			order, OrderStep, MinOrder, MaxOrder)
		return
	}
	rulesOnce.Do(func() {
		rules = make(map[int]*Rule)
		for n := MinOrder; n <= MaxOrder; n += OrderStep {
			rules[n] = newRule(n)
		}
	})
	R = rules[order]
	return
}

// Generate maps the order point rule onto [a,b], writing into nodes and
// weights which must hold at least MaxOrder entries. An unsupported order
// falls back to MaxOrder with a warning. The order used is returned.
func Generate(order int, a, b float64, nodes, weights []float64) (used int) {
	R, err := Canonical(order)
	if err != nil {
		if _, seen := warned.LoadOrStore(order, true); !seen {
			log.WithFields(log.Fields{
				"order":    order,
				"fallback": MaxOrder,
			}).Warn("quadrature order not supported")
		}
		R, _ = Canonical(MaxOrder)
	}
	var (
		half = 0.5 * (b - a)
		mid  = 0.5 * (b + a)
	)
	for i := 0; i < R.Order; i++ {
		nodes[i] = mid + half*R.X[i]
		weights[i] = half * R.W[i]
	}
	return R.Order
}

// newRule builds the N point rule by Golub-Welsch, eigenvalues of the
// symmetric Jacobi matrix of the Legendre recurrence, then polishes each
// node with Newton on P_N
func newRule(N int) (R *Rule) {
	var (
		JJ  = mat.NewSymDense(N, nil)
		eig mat.EigenSym
		V   mat.Dense
	)
	for i := 1; i < N; i++ {
		fi := float64(i)
		JJ.SetSym(i-1, i, fi/math.Sqrt(4*fi*fi-1))
	}
	if ok := eig.Factorize(JJ, true); !ok {
		panic("eigenvalue decomposition failed")
	}
	eig.VectorsTo(&V)
	R = &Rule{
		Order: N,
		X:     eig.Values(nil),
		W:     make([]float64, N),
	}
	for i := 0; i < N; i++ {
		x := R.X[i]
		for iter := 0; iter < 10; iter++ {
			p, dp := legendreP(N, x)
			dx := p / dp
			x -= dx
			if math.Abs(dx) < 1.e-16 {
				break
			}
		}
		_, dp := legendreP(N, x)
		R.X[i] = x
		R.W[i] = 2 / ((1 - x*x) * dp * dp)
		// eigenvector weight, only used when the polish is degenerate
		if math.IsInf(R.W[i], 0) || math.IsNaN(R.W[i]) {
			R.W[i] = 2 * V.At(0, i) * V.At(0, i)
		}
	}
	return
}

// legendreP returns P_N(x) and its derivative
func legendreP(N int, x float64) (p, dp float64) {
	p0, p1 := 1., x
	for k := 2; k <= N; k++ {
		fk := float64(k)
		p0, p1 = p1, ((2*fk-1)*x*p1-(fk-1)*p0)/fk
	}
	p = p1
	dp = float64(N) * (x*p1 - p0) / (x*x - 1)
	return
}
