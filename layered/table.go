package layered

import (
	"fmt"
	"strings"
)

// InputTable is the 11 x 8 row major forward input. Row 1 is the surface
// placeholder, rows 2..6 hold layers 1..5 as [_, E, nu, thickness, ...].
// Column 6 of rows 1..10 holds the radii, row 10 carries q in column 1 and
// the load radius in column 3.
type InputTable [11][8]float64

const (
	colE      = 1
	colNu     = 2
	colDepth  = 3
	colRadius = 6
	rowLoad   = 10
)

func (tab *InputTable) Moduli() (E [NumModuli]float64) {
	for i := range E {
		E[i] = tab[i+2][colE]
	}
	return
}

func (tab *InputTable) SetModuli(E [NumModuli]float64) {
	for i := range E {
		tab[i+2][colE] = E[i]
	}
}

func (tab *InputTable) PoissonRatios() (nu [NumModuli]float64) {
	for i := range nu {
		nu[i] = tab[i+2][colNu]
	}
	return
}

func (tab *InputTable) Thicknesses() (h [NumFinite]float64) {
	for i := range h {
		h[i] = tab[i+2][colDepth]
	}
	return
}

func (tab *InputTable) SetThicknesses(h [NumFinite]float64) {
	for i := range h {
		tab[i+2][colDepth] = h[i]
	}
}

func (tab *InputTable) Radii() (r [NumRadii]float64) {
	for i := range r {
		r[i] = tab[i+1][colRadius]
	}
	return
}

func (tab *InputTable) SetRadii(r [NumRadii]float64) {
	for i := range r {
		tab[i+1][colRadius] = r[i]
	}
}

func (tab *InputTable) Load() (q, a float64) {
	return tab[rowLoad][colE], tab[rowLoad][colDepth]
}

func (tab *InputTable) SetLoad(q, a float64) {
	tab[rowLoad][colE], tab[rowLoad][colDepth] = q, a
}

func (tab *InputTable) String() string {
	var sb strings.Builder
	for _, row := range tab {
		for j, val := range row {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(fmt.Sprintf("%10.4g", val))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewModelParamsFromTable builds the surface evaluation model described by
// the table
func NewModelParamsFromTable(tab *InputTable) (mp *ModelParams, err error) {
	q, a := tab.Load()
	return NewModelParams(tab.Moduli(), tab.PoissonRatios(), tab.Thicknesses(), q, a, 0)
}

// Calculation is the forward entry point: deflections at the table radii and,
// with calcGrad, the Jacobian with respect to E1..E5. The Jacobian is zero
// when calcGrad is false.
func Calculation(tab *InputTable, calcGrad bool, opt ...Options) (res *SimResults, err error) {
	var (
		mp *ModelParams
		o  Options
	)
	if len(opt) > 0 {
		o = opt[0]
	}
	o.Gradient = calcGrad
	if mp, err = NewModelParamsFromTable(tab); err != nil {
		return
	}
	return Simulate(mp, tab.Radii(), o, nil)
}
