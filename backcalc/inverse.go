package backcalc

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gopave/layered"
	"github.com/notargets/gopave/lsq"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrObservation = errors.New("invalid observation")

type Options struct {
	// Relative residuals (u - obs)/obs, otherwise u - obs
	Relative bool
	// InitialGuess in MPa, nil starts from the geometric middle of the bounds
	InitialGuess *[layered.NumModuli]float64
	Kernel       layered.Options
	Settings     *lsq.Settings
	Logger       *log.Logger
}

// InverseSolver fits E1..E5 of a layered model to observed surface
// deflections. Parameters are x = ln E, bounded by the log of the modulus
// bounds.
type InverseSolver struct {
	Observed     [layered.NumRadii]float64
	Radii        [layered.NumRadii]float64
	Lower, Upper [layered.NumModuli]float64
	Options      Options

	model *layered.ModelParams
	buf   *layered.CalcBuffer
	// last forward evaluation, reused when the optimizer asks for the
	// Jacobian at a point it already evaluated
	lastX       [layered.NumModuli]float64
	last        *layered.SimResults
	Evaluations int
	CacheHits   int
}

// NewInverseSolver takes the bounds as [lower1, upper1, ..., lower5, upper5]
func NewInverseSolver(tab *layered.InputTable, observed [layered.NumRadii]float64,
	bounds [2 * layered.NumModuli]float64, opt Options) (is *InverseSolver, err error) {
	is = &InverseSolver{
		Observed: observed,
		Radii:    tab.Radii(),
		Options:  opt,
		buf:      layered.NewCalcBuffer(),
	}
	for k := 0; k < layered.NumModuli; k++ {
		is.Lower[k], is.Upper[k] = bounds[2*k], bounds[2*k+1]
		if !(is.Lower[k] > 0) || !(is.Lower[k] <= is.Upper[k]) {
			err = fmt.Errorf("%w: E%d in [%v,%v]", lsq.ErrBounds, k+1, is.Lower[k], is.Upper[k])
			return nil, err
		}
	}
	for i, u := range observed {
		if math.IsNaN(u) || math.IsInf(u, 0) || (opt.Relative && u == 0) {
			return nil, fmt.Errorf("%w: deflection %d is %v", ErrObservation, i+1, u)
		}
	}
	// moduli in the table are replaced at every evaluation, only need to be valid
	start := is.start()
	work := *tab
	work.SetModuli(start)
	if is.model, err = layered.NewModelParamsFromTable(&work); err != nil {
		return nil, err
	}
	return
}

func (is *InverseSolver) start() (E [layered.NumModuli]float64) {
	if g := is.Options.InitialGuess; g != nil {
		for k := range E {
			E[k] = math.Min(math.Max(g[k], is.Lower[k]), is.Upper[k])
		}
		return
	}
	for k := range E {
		E[k] = math.Sqrt(is.Lower[k] * is.Upper[k])
	}
	return
}

func (is *InverseSolver) evaluate(x []float64) (res *layered.SimResults, err error) {
	if is.last != nil && floats.Equal(x, is.lastX[:]) {
		is.CacheHits++
		return is.last, nil
	}
	var (
		E   [layered.NumModuli]float64
		mp  *layered.ModelParams
		opt = is.Options.Kernel
	)
	for k := range E {
		E[k] = math.Exp(x[k])
	}
	if mp, err = is.model.WithModuli(E); err != nil {
		return
	}
	// always carry the gradient, the optimizer asks for it at every accepted point
	opt.Gradient = true
	if res, err = layered.Simulate(mp, is.Radii, opt, is.buf); err != nil {
		return
	}
	is.Evaluations++
	copy(is.lastX[:], x)
	is.last = res
	return
}

// residual fills r and, when J is non nil, dr/dlnE
func (is *InverseSolver) residual(x, r []float64, J *mat.Dense) (err error) {
	var res *layered.SimResults
	if res, err = is.evaluate(x); err != nil {
		return
	}
	for i := 0; i < layered.NumRadii; i++ {
		scale := 1.
		if is.Options.Relative {
			scale = 1 / is.Observed[i]
		}
		r[i] = (res.Displacement[i] - is.Observed[i]) * scale
		if J == nil {
			continue
		}
		for k := 0; k < layered.NumModuli; k++ {
			J.Set(i, k, res.J.At(i, k)*math.Exp(x[k])*scale)
		}
	}
	return
}

// Solve runs the bounded least squares fit. A fit that does not converge
// still returns the best iterate, the summary carries the status.
func (is *InverseSolver) Solve() (E [layered.NumModuli]float64, sum *lsq.Summary, err error) {
	var (
		p = &lsq.Problem{
			M: layered.NumRadii, N: layered.NumModuli,
			Func:  is.residual,
			Lower: make([]float64, layered.NumModuli),
			Upper: make([]float64, layered.NumModuli),
		}
		x0       = make([]float64, layered.NumModuli)
		start    = is.start()
		settings = is.Options.Settings
	)
	for k := 0; k < layered.NumModuli; k++ {
		p.Lower[k], p.Upper[k] = math.Log(is.Lower[k]), math.Log(is.Upper[k])
		x0[k] = math.Min(math.Max(math.Log(start[k]), p.Lower[k]), p.Upper[k])
	}
	if settings == nil {
		settings = lsq.DefaultSettings()
	}
	if sum, err = lsq.Minimize(p, x0, settings); err != nil {
		return
	}
	for k := range E {
		E[k] = math.Exp(sum.X[k])
	}
	if is.Options.Logger != nil {
		is.Options.Logger.WithFields(log.Fields{
			"status":      sum.Status,
			"iterations":  sum.Iterations,
			"evaluations": is.Evaluations,
			"cost":        sum.FinalCost,
		}).Info("back calculation")
	}
	return
}

// BackCalculation is the inverse entry point: moduli recovered from the
// observed deflections at the table radii within
// bounds = [lower1, upper1, ..., lower5, upper5]
func BackCalculation(tab *layered.InputTable, observed [layered.NumRadii]float64,
	bounds [2 * layered.NumModuli]float64, opt ...Options) (E [layered.NumModuli]float64, sum *lsq.Summary, err error) {
	var (
		is *InverseSolver
		o  Options
	)
	if len(opt) > 0 {
		o = opt[0]
	}
	if is, err = NewInverseSolver(tab, observed, bounds, o); err != nil {
		return
	}
	return is.Solve()
}
