package lsq

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrBounds = errors.New("invalid bounds")

// Problem is a box constrained nonlinear least squares problem,
// minimize 0.5 |r(x)|^2 with Lower <= x <= Upper
type Problem struct {
	M, N int // residuals, parameters
	// Func fills r, and J (M x N) when it is non nil
	Func         func(x, r []float64, J *mat.Dense) error
	Lower, Upper []float64
}

type Settings struct {
	MaxIterations      int
	FunctionTolerance  float64 // relative change in cost
	GradientTolerance  float64 // max norm of the projected gradient step
	ParameterTolerance float64 // relative step length
	InitialRadius      float64
	MaxRadius          float64
	Logger             *log.Logger
}

func DefaultSettings() *Settings {
	return &Settings{
		MaxIterations:      100,
		FunctionTolerance:  1.e-8,
		GradientTolerance:  1.e-10,
		ParameterTolerance: 1.e-8,
		InitialRadius:      1.e4,
		MaxRadius:          1.e16,
	}
}

type Status uint8

const (
	NotTerminated Status = iota
	FunctionConvergence
	GradientConvergence
	ParameterConvergence
	IterationLimit
	Failure
)

func (s Status) String() string {
	switch s {
	case NotTerminated:
		return "NotTerminated"
	case FunctionConvergence:
		return "FunctionConvergence"
	case GradientConvergence:
		return "GradientConvergence"
	case ParameterConvergence:
		return "ParameterConvergence"
	case IterationLimit:
		return "IterationLimit"
	case Failure:
		return "Failure"
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Converged reports whether the solver stopped on a tolerance
func (s Status) Converged() bool {
	return s == FunctionConvergence || s == GradientConvergence || s == ParameterConvergence
}

type Summary struct {
	Status                 Status
	Iterations             int
	Evaluations            int
	InitialCost, FinalCost float64
	X                      []float64
	Message                string
}

func (s *Summary) String() string {
	return fmt.Sprintf("%s after %d iterations (%d evaluations): cost %.6e -> %.6e",
		s.Status, s.Iterations, s.Evaluations, s.InitialCost, s.FinalCost)
}

func (p *Problem) check(x0 []float64) (err error) {
	if len(p.Lower) != p.N || len(p.Upper) != p.N || len(x0) != p.N {
		return fmt.Errorf("%w: want %d lower, upper and start values", ErrBounds, p.N)
	}
	for k := 0; k < p.N; k++ {
		if !(p.Lower[k] <= p.Upper[k]) {
			return fmt.Errorf("%w: lower %v > upper %v for parameter %d", ErrBounds, p.Lower[k], p.Upper[k], k)
		}
		if x0[k] < p.Lower[k] || x0[k] > p.Upper[k] {
			return fmt.Errorf("%w: start %v outside [%v,%v] for parameter %d", ErrBounds, x0[k], p.Lower[k], p.Upper[k], k)
		}
	}
	return
}

func (p *Problem) project(x []float64) {
	for k := range x {
		x[k] = math.Min(math.Max(x[k], p.Lower[k]), p.Upper[k])
	}
}

// Minimize runs a dogleg trust region iteration from x0. Bounds are handled
// by dropping parameters held at a bound by the gradient from the step and
// projecting the trial point onto the box. Non convergence is reported in
// the summary status, err is only returned for invalid input or a failing
// Func.
func Minimize(p *Problem, x0 []float64, settings *Settings) (sum *Summary, err error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	if err = p.check(x0); err != nil {
		return
	}
	var (
		M, N   = p.M, p.N
		x      = append([]float64{}, x0...)
		xTrial = make([]float64, N)
		step   = make([]float64, N)
		r      = make([]float64, M)
		rTrial = make([]float64, M)
		J      = mat.NewDense(M, N, nil)
		g      = make([]float64, N)
		radius = settings.InitialRadius
	)
	sum = &Summary{}
	if err = p.Func(x, r, J); err != nil {
		return
	}
	sum.Evaluations++
	cost := 0.5 * floats.Dot(r, r)
	sum.InitialCost = cost
	for sum.Iterations = 0; sum.Iterations < settings.MaxIterations; sum.Iterations++ {
		mat.NewVecDense(N, g).MulVec(J.T(), mat.NewVecDense(M, r))
		if projectedGradientNorm(p, x, g) <= settings.GradientTolerance {
			sum.Status = GradientConvergence
			break
		}
		free := freeParameters(p, x, g)
		if len(free) == 0 {
			sum.Status = GradientConvergence
			break
		}
		// retry with a smaller radius until a step is accepted
		accepted := false
		for !accepted {
			doglegStep(J, r, g, free, radius, step)
			copy(xTrial, x)
			floats.Add(xTrial, step)
			p.project(xTrial)
			floats.SubTo(step, xTrial, x)
			stepNorm := floats.Norm(step, 2)
			if stepNorm <= settings.ParameterTolerance*(floats.Norm(x, 2)+settings.ParameterTolerance) {
				sum.Status = ParameterConvergence
				break
			}
			pred := predictedReduction(J, r, step)
			if err = p.Func(xTrial, rTrial, nil); err != nil {
				return
			}
			sum.Evaluations++
			costTrial := 0.5 * floats.Dot(rTrial, rTrial)
			rho := -1.
			if pred > 0 && !math.IsNaN(costTrial) {
				rho = (cost - costTrial) / pred
			}
			switch {
			case rho < 0.25:
				radius = 0.25 * stepNorm
			case rho > 0.75 && stepNorm >= 0.9*radius:
				radius = math.Min(2*radius, settings.MaxRadius)
			}
			if rho > 1.e-3 {
				accepted = true
				decrease := cost - costTrial
				copy(x, xTrial)
				cost = costTrial
				if err = p.Func(x, r, J); err != nil {
					return
				}
				sum.Evaluations++
				if settings.Logger != nil {
					settings.Logger.WithFields(log.Fields{
						"iteration": sum.Iterations,
						"cost":      cost,
						"radius":    radius,
					}).Info("trust region step")
				}
				if decrease <= settings.FunctionTolerance*(cost+decrease) {
					sum.Status = FunctionConvergence
				}
			}
		}
		if sum.Status != NotTerminated {
			sum.Iterations++
			break
		}
	}
	if sum.Status == NotTerminated {
		sum.Status = IterationLimit
	}
	sum.FinalCost = cost
	sum.X = x
	sum.Message = sum.String()
	return
}

// projectedGradientNorm is |x - P(x - g)|_inf
func projectedGradientNorm(p *Problem, x, g []float64) (norm float64) {
	for k := range x {
		xp := math.Min(math.Max(x[k]-g[k], p.Lower[k]), p.Upper[k])
		norm = math.Max(norm, math.Abs(x[k]-xp))
	}
	return
}

// freeParameters lists parameters not pinned to a bound by the descent
// direction
func freeParameters(p *Problem, x, g []float64) (free []int) {
	for k := range x {
		atLower := x[k] <= p.Lower[k] && g[k] > 0
		atUpper := x[k] >= p.Upper[k] && g[k] < 0
		if !atLower && !atUpper {
			free = append(free, k)
		}
	}
	return
}

// doglegStep computes the dogleg step within radius over the free
// parameters, zero for the others
func doglegStep(J *mat.Dense, r, g []float64, free []int, radius float64, step []float64) {
	var (
		M, _ = J.Dims()
		nf   = len(free)
		Jf   = mat.NewDense(M, nf, nil)
		gf   = make([]float64, nf)
		gn   = make([]float64, nf)
		sd   = make([]float64, nf)
		hf   = make([]float64, nf)
	)
	for n, k := range free {
		for i := 0; i < M; i++ {
			Jf.Set(i, n, J.At(i, k))
		}
		gf[n] = g[k]
	}
	for k := range step {
		step[k] = 0
	}

	// steepest descent minimizer along -g
	var Jg mat.VecDense
	Jg.MulVec(Jf, mat.NewVecDense(nf, gf))
	alpha := radius / floats.Norm(gf, 2)
	if curv := mat.Dot(&Jg, &Jg); curv > 0 {
		alpha = floats.Dot(gf, gf) / curv
	}
	floats.ScaleTo(sd, -alpha, gf)

	gnOK := gaussNewtonStep(Jf, r, gn)
	switch {
	case gnOK && floats.Norm(gn, 2) <= radius:
		copy(hf, gn)
	case floats.Norm(sd, 2) >= radius || !gnOK:
		floats.ScaleTo(hf, -math.Min(alpha, radius/floats.Norm(gf, 2)), gf)
	default:
		// walk from the Cauchy point towards the Gauss-Newton point to the boundary
		d := make([]float64, nf)
		floats.SubTo(d, gn, sd)
		var (
			a = floats.Dot(d, d)
			b = 2 * floats.Dot(sd, d)
			c = floats.Dot(sd, sd) - radius*radius
		)
		beta := (-b + math.Sqrt(b*b-4*a*c)) / (2 * a)
		copy(hf, sd)
		floats.AddScaled(hf, beta, d)
	}
	for n, k := range free {
		step[k] = hf[n]
	}
}

// gaussNewtonStep solves min |Jf h + r| by QR
func gaussNewtonStep(Jf *mat.Dense, r, h []float64) (ok bool) {
	var (
		M, nf = Jf.Dims()
		qr    mat.QR
		negR  = mat.NewVecDense(M, nil)
		sol   = mat.NewDense(nf, 1, nil)
	)
	if M < nf {
		return false
	}
	negR.ScaleVec(-1, mat.NewVecDense(M, r))
	qr.Factorize(Jf)
	if err := qr.SolveTo(sol, false, negR); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return false
		}
	}
	for n := 0; n < nf; n++ {
		h[n] = sol.At(n, 0)
		if math.IsNaN(h[n]) || math.IsInf(h[n], 0) {
			return false
		}
	}
	return true
}

// predictedReduction is the decrease of the linear model, -(g.h + 0.5|Jh|^2)
func predictedReduction(J *mat.Dense, r, step []float64) float64 {
	var (
		M, N = J.Dims()
		Jh   = mat.NewVecDense(M, nil)
	)
	Jh.MulVec(J, mat.NewVecDense(N, step))
	// |r + Jh|^2 = |r|^2 + 2 r.Jh + |Jh|^2
	return -(floats.Dot(r, Jh.RawVector().Data) + 0.5*mat.Dot(Jh, Jh))
}
