package layered

import (
	"fmt"

	"github.com/notargets/gopave/utils"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

type Options struct {
	Gradient          bool
	DisableTruncation bool
	OrderBase         OrderBase
	Workers           int // radii evaluated concurrently, <= 1 is serial
	Logger            *log.Logger
}

// RadiusResult is the deflection at one radius and its gradient with respect
// to E1..E5
type RadiusResult struct {
	Radius     float64
	Deflection float64
	Gradient   [NumModuli]float64
	Panels     int
	Truncated  bool
	DenseNodes int // nodes solved with the pivoted fallback
}

type SimResults struct {
	Radii        [NumRadii]RadiusResult
	Displacement [NumRadii]float64
	J            *mat.Dense // NumRadii x NumModuli, dU/dE
}

func newSimResults() *SimResults {
	return &SimResults{
		J: mat.NewDense(NumRadii, NumModuli, nil),
	}
}

// Deflection evaluates the surface (or ZEval) deflection at radius r
func (mp *ModelParams) Deflection(r float64, opt Options, buf *CalcBuffer) (rr RadiusResult, err error) {
	var (
		ac  Accumulator
		act = mp.Active
	)
	buf.DenseSolves = 0
	if ac, err = mp.integrate(r, opt, buf); err != nil {
		err = fmt.Errorf("radius %g: %w", r, err)
		return
	}
	fac := mp.Q * mp.A * (1 + mp.Nu[act]) / mp.E[act]
	rr = RadiusResult{
		Radius:     r,
		Deflection: ac.Total * fac,
		Panels:     ac.Panels,
		Truncated:  ac.Truncated,
		DenseNodes: buf.DenseSolves,
	}
	if opt.Gradient {
		for k := 0; k < NumModuli; k++ {
			rr.Gradient[k] = ac.Grad[k] * fac
		}
		// the prefactor carries 1/E of the active layer
		rr.Gradient[act-1] -= rr.Deflection / mp.E[act]
	}
	if opt.Logger != nil {
		opt.Logger.WithFields(log.Fields{
			"radius":     r,
			"panels":     rr.Panels,
			"truncated":  rr.Truncated,
			"dense":      rr.DenseNodes,
			"deflection": rr.Deflection,
		}).Debug("deflection")
	}
	return
}

// Simulate evaluates every radius against one model snapshot. With
// opt.Workers > 1 the radii are split into contiguous blocks, one goroutine
// and CalcBuffer per block; otherwise buf is reused for all radii, a nil buf
// allocates one.
func Simulate(mp *ModelParams, radii [NumRadii]float64, opt Options, buf *CalcBuffer) (res *SimResults, err error) {
	res = newSimResults()
	if opt.Workers > 1 {
		var (
			g  errgroup.Group
			pm = utils.NewPartitionMap(min(opt.Workers, NumRadii), NumRadii)
		)
		for bn := 0; bn < pm.ParallelDegree; bn++ {
			g.Go(func() (err error) {
				var (
					kMin, kMax = pm.GetBucketRange(bn)
					b          = NewCalcBuffer()
				)
				for i := kMin; i < kMax; i++ {
					if res.Radii[i], err = mp.Deflection(radii[i], opt, b); err != nil {
						return
					}
				}
				return
			})
		}
		if err = g.Wait(); err != nil {
			return nil, err
		}
	} else {
		if buf == nil {
			buf = NewCalcBuffer()
		}
		for i := 0; i < NumRadii; i++ {
			if res.Radii[i], err = mp.Deflection(radii[i], opt, buf); err != nil {
				return nil, err
			}
		}
	}
	for i, rr := range res.Radii {
		res.Displacement[i] = rr.Deflection
		if opt.Gradient {
			res.J.SetRow(i, rr.Gradient[:])
		}
	}
	return
}
