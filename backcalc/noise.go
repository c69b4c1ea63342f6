package backcalc

import (
	"math/rand/v2"

	"github.com/notargets/gopave/layered"
	"gonum.org/v1/gonum/stat/distuv"
)

// Noise holds the half widths of the symmetric triangular errors applied by
// Perturb. Zero entries leave the value untouched.
type Noise struct {
	Deflection [layered.NumRadii]float64  // mm
	Thickness  [layered.NumFinite]float64 // mm
	Radius     [layered.NumRadii]float64  // mm, the first radius is the load centre and is held
	Load       float64                    // relative to q
}

func (n Noise) IsZero() bool {
	return n == Noise{}
}

// Perturb returns a copy of the table and observations with triangular noise
// drawn from src
func Perturb(tab *layered.InputTable, observed [layered.NumRadii]float64, noise Noise,
	src rand.Source) (ptab layered.InputTable, pobs [layered.NumRadii]float64) {
	draw := func(halfWidth float64) float64 {
		if halfWidth == 0 {
			return 0
		}
		if halfWidth < 0 {
			halfWidth = -halfWidth
		}
		return distuv.NewTriangle(-halfWidth, halfWidth, 0, src).Rand()
	}
	ptab, pobs = *tab, observed
	for i := range pobs {
		pobs[i] += draw(noise.Deflection[i])
	}
	h := ptab.Thicknesses()
	for i := range h {
		h[i] += draw(noise.Thickness[i])
	}
	ptab.SetThicknesses(h)
	r := ptab.Radii()
	for i := 1; i < layered.NumRadii; i++ {
		r[i] += draw(noise.Radius[i])
	}
	ptab.SetRadii(r)
	q, a := ptab.Load()
	ptab.SetLoad(q+draw(noise.Load*q), a)
	return
}

// NewSource is a seeded generator for reproducible noise
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}
