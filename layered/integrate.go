package layered

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/gopave/bessel"
	"github.com/notargets/gopave/quadrature"
)

const (
	NumPanels        = bessel.NumZeros - 1
	MaxPanelOrder    = 128
	TruncationFactor = 0.01
)

// OrderBase selects the base of the panel order schedule
type OrderBase uint8

const (
	// PanelRoot uses floor(sqrt(number of panels))
	PanelRoot OrderBase = iota
	// FirstBoundaryRoot uses floor(sqrt(first panel boundary)), which grows
	// with the depth of the structure relative to the load radius
	FirstBoundaryRoot
)

func (ob OrderBase) String() string {
	switch ob {
	case PanelRoot:
		return "PanelRoot"
	case FirstBoundaryRoot:
		return "FirstBoundaryRoot"
	}
	return fmt.Sprintf("OrderBase(%d)", uint8(ob))
}

func ParseOrderBase(s string) (ob OrderBase, err error) {
	switch strings.ToLower(s) {
	case "", "panelroot":
		ob = PanelRoot
	case "firstboundaryroot":
		ob = FirstBoundaryRoot
	default:
		err = fmt.Errorf("unknown panel order base %q", s)
	}
	return
}

func (ob OrderBase) base(bounds *[bessel.NumZeros + 1]float64) int {
	if ob == FirstBoundaryRoot {
		return int(math.Sqrt(bounds[1]))
	}
	return int(math.Sqrt(NumPanels))
}

// PanelOrder is the quadrature order requested for panel i, shrinking for
// distant panels where the integrand has decayed
func PanelOrder(base, i int) int {
	fi := float64(i)
	n := 4 * int(math.Ceil(float64(base)/(4*fi+1)+2/math.Sqrt(fi+1)))
	return min(n, MaxPanelOrder)
}

// MinimumPanels is the panel index the running sum must pass before it can
// be truncated, larger near the load
func MinimumPanels(r, a float64) int {
	return int(2 * (3 + math.Floor(3/(1+r/a))))
}

// Accumulator sums panel contributions of the transform integral and its
// modulus gradient
type Accumulator struct {
	Total     float64
	Grad      [NumModuli]float64
	Panels    int // panels summed, the last one possibly at half weight
	Truncated bool
}

// Add folds in the contribution of panel i. When truncation is enabled and
// the panel is small relative to the total, odd, and beyond eva, half of it
// is added and Add returns true to stop the sum.
func (ac *Accumulator) Add(i, eva int, truncate bool, I float64, grad *[NumModuli]float64) (stop bool) {
	weight := 1.
	if truncate && math.Abs(I) < TruncationFactor*math.Abs(ac.Total) && i%2 == 1 && i > eva {
		weight, stop = 0.5, true
		ac.Truncated = true
	}
	ac.Total += weight * I
	if grad != nil {
		for k := range ac.Grad {
			ac.Grad[k] += weight * grad[k]
		}
	}
	ac.Panels = i + 1
	return
}

// PanelFunc integrates panel i spanning [lo,hi], returning the integral and
// optionally its gradient
type PanelFunc func(i int, lo, hi float64) (I float64, grad [NumModuli]float64, err error)

// Accumulate sums panels over bounds until truncation or the last panel
func Accumulate(bounds []float64, eva int, truncate, withGrad bool, panel PanelFunc) (ac Accumulator, err error) {
	for i := 0; i < len(bounds)-1; i++ {
		var (
			I    float64
			grad [NumModuli]float64
			gp   *[NumModuli]float64
		)
		if I, grad, err = panel(i, bounds[i], bounds[i+1]); err != nil {
			return
		}
		if withGrad {
			gp = &grad
		}
		if ac.Add(i, eva, truncate, I, gp) {
			return
		}
	}
	return
}

// integrate evaluates the transform integral at radius r. The integrand at
// node m is (w/m) J0(m r/H) J1(m a/H) sum(w_k ABCD_k).
func (mp *ModelParams) integrate(r float64, opt Options, buf *CalcBuffer) (ac Accumulator, err error) {
	var (
		rH, aH = r / mp.H, mp.A / mp.H
		grad   = opt.Gradient
	)
	Partition(r, mp.A, mp.H, &buf.Boundaries)
	base := opt.OrderBase.base(&buf.Boundaries)
	eva := MinimumPanels(r, mp.A)
	panel := func(i int, lo, hi float64) (I float64, g [NumModuli]float64, err error) {
		n := quadrature.Generate(PanelOrder(base, i), lo, hi, buf.Nodes[:], buf.Weights[:])
		for q := 0; q < n; q++ {
			m := buf.Nodes[q]
			if err = mp.Coefficients(m, grad, buf); err != nil {
				return
			}
			w := mp.kernelWeights(m)
			cf := buf.Weights[q] / m * bessel.J0(m*rH) * bessel.J1(m*aH)
			I += cf * combine(&w, &buf.ABCD)
			if grad {
				for k := 0; k < NumModuli; k++ {
					g[k] += cf * combine(&w, &buf.DABCD[k])
				}
			}
		}
		return
	}
	return Accumulate(buf.Boundaries[:NumPanels+1], eva, !opt.DisableTruncation, grad, panel)
}
