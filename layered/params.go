package layered

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gopave/utils"
)

const (
	NumModuli      = 5  // four finite layers over a half-space
	NumFinite      = 4  // finite layers with a thickness
	NumRadii       = 10 // evaluation radii per forward call
	NumUnknowns    = 18 // integration constants kept in the banded system
	NumLogical     = 20 // A,B,C,D for each of the five layers
	SubDiagonals   = 2
	SuperDiagonals = 5
	HalfSpaceDepth = 1.e10
)

var (
	ErrInvalidModel         = errors.New("invalid layered model")
	ErrNumericalInstability = errors.New("numerical instability in banded solve")
)

// ModelParams is an immutable snapshot of one pavement structure. Index 0 of
// Z, Nu and E is the surface slot, 1..5 are the layers, Z[5] is effectively
// infinite.
type ModelParams struct {
	Q, A     float64 // pressure, load radius
	ZEval    float64 // evaluation depth
	Z        [6]float64
	Nu, E    [6]float64
	F2       [5]float64 // modulus ratios at interfaces 1..4, F2[0] unused
	H        float64    // depth of the last finite interface
	Active   int        // layer containing ZEval, in [1,5]
	Template *utils.BandMatrix
	Surface  SurfaceSolution
}

// SurfaceSolution holds the two integration constants that survive when the
// top layer is thick relative to the transform wavelength. All other
// constants vanish in that regime.
type SurfaceSolution struct {
	B1, D1 float64
}

// NewModelParams builds a model from per layer moduli, Poisson ratios and the
// thicknesses of the four finite layers. Units are mm and MPa.
func NewModelParams(E, nu [NumModuli]float64, thickness [NumFinite]float64, q, a, zEval float64) (mp *ModelParams, err error) {
	mp = &ModelParams{Q: q, A: a, ZEval: zEval}
	for i := 0; i < NumFinite; i++ {
		if !(thickness[i] > 0) {
			err = fmt.Errorf("%w: thickness of layer %d is %v", ErrInvalidModel, i+1, thickness[i])
			return
		}
		mp.Z[i+1] = mp.Z[i] + thickness[i]
	}
	mp.Z[5] = HalfSpaceDepth
	mp.H = mp.Z[4]
	for i := 0; i < NumModuli; i++ {
		if !(nu[i] > -1 && nu[i] < 0.5) {
			err = fmt.Errorf("%w: Poisson ratio of layer %d is %v", ErrInvalidModel, i+1, nu[i])
			return
		}
		mp.Nu[i+1] = nu[i]
	}
	if !(q > 0) || !(a > 0) {
		err = fmt.Errorf("%w: load q=%v a=%v must be positive", ErrInvalidModel, q, a)
		return
	}
	if zEval < 0 || math.IsNaN(zEval) {
		err = fmt.Errorf("%w: evaluation depth %v", ErrInvalidModel, zEval)
		return
	}
	mp.Active = ActiveLayer(mp.Z, zEval)
	return mp.WithModuli(E)
}

// WithModuli returns a fresh snapshot sharing geometry and Poisson ratios
// with new moduli. Derived ratios, the template and the surface solution are
// rebuilt.
func (mp *ModelParams) WithModuli(E [NumModuli]float64) (R *ModelParams, err error) {
	for i := 0; i < NumModuli; i++ {
		if !(E[i] > 0) || math.IsInf(E[i], 0) {
			err = fmt.Errorf("%w: modulus of layer %d is %v", ErrInvalidModel, i+1, E[i])
			return
		}
	}
	R = &ModelParams{
		Q: mp.Q, A: mp.A, ZEval: mp.ZEval,
		Z: mp.Z, Nu: mp.Nu, H: mp.H, Active: mp.Active,
		Template: utils.NewBandMatrix(NumUnknowns, SubDiagonals, SuperDiagonals),
	}
	for i := 0; i < NumModuli; i++ {
		R.E[i+1] = E[i]
	}
	for i := 1; i <= NumFinite; i++ {
		R.F2[i] = R.E[i] * (1 + R.Nu[i+1]) / (R.E[i+1] * (1 + R.Nu[i]))
	}
	R.fillTemplate()
	R.Surface = R.surfaceSolution()
	return
}

// Moduli returns E1..E5
func (mp *ModelParams) Moduli() (E [NumModuli]float64) {
	copy(E[:], mp.E[1:])
	return
}

// ActiveLayer returns the first boundary index whose depth is at or beyond
// zEval, clamped to [1,5]
func ActiveLayer(z [6]float64, zEval float64) (idx int) {
	idx = sort.SearchFloat64s(z[:], zEval)
	switch {
	case idx < 1:
		idx = 1
	case idx > 5:
		idx = 5
	}
	return
}

// Column maps the logical constant index 4(layer-1)+{A,B,C,D} to the
// column of the banded system. The half-space keeps only B and D, the other
// two would grow without bound with depth. Returns -1 for dropped constants.
func Column(l int) int {
	switch {
	case l < 16:
		return l
	case l == 17:
		return 16
	case l == 19:
		return 17
	}
	return -1
}

func setLogical(K *utils.BandMatrix, row, l int, val float64) {
	if c := Column(l); c >= 0 {
		K.Set(row, c, val)
	}
}

func atLogical(K *utils.BandMatrix, row, l int) float64 {
	if c := Column(l); c >= 0 {
		return K.At(row, c)
	}
	return 0
}

// fillTemplate sets the entries of the continuity system that depend only on
// Poisson ratios and modulus ratios. Rows 0,1 are the loaded surface, rows
// 4j-2..4j+1 are the four conditions at interface j.
func (mp *ModelParams) fillTemplate() {
	var (
		T   = mp.Template
		nu1 = mp.Nu[1]
	)
	T.Zero()
	setLogical(T, 0, 1, -2)
	setLogical(T, 0, 3, 4*nu1-1)
	setLogical(T, 1, 1, -1)
	setLogical(T, 1, 2, 2*nu1)
	setLogical(T, 1, 3, 2*nu1)
	for j := 1; j <= NumFinite; j++ {
		var (
			r, b, n = 4*j - 2, 4 * (j - 1), 4 * j
			nj, nn  = mp.Nu[j], mp.Nu[j+1]
			f       = mp.F2[j]
			bA      = 2 - 2*f
			bB      = f*(4*nn-3) - 1
			bC      = 1 - f - 4*nn + 4*f*nn
		)
		setLogical(T, r, b, 2)
		setLogical(T, r, b+2, 4*nj-1)
		setLogical(T, r, n+2, 1-4*nn)
		setLogical(T, r, n+3, -1)

		setLogical(T, r+1, b+2, 1)
		setLogical(T, r+1, b+3, 4*nj-1)
		setLogical(T, r+1, n+1, 2)
		setLogical(T, r+1, n+3, 1-4*nn)

		setLogical(T, r+2, b+2, 4-4*nj)
		setLogical(T, r+2, n+1, bA)
		setLogical(T, r+2, n+2, bB)
		setLogical(T, r+2, n+3, bC)

		setLogical(T, r+3, b+3, 4*nj-4)
		setLogical(T, r+3, n, bA)
		setLogical(T, r+3, n+2, bC)
		setLogical(T, r+3, n+3, -bB)
	}
}

// surfaceSolution solves the 2x2 surface system left when every decaying
// exponential has underflowed
func (mp *ModelParams) surfaceSolution() (S SurfaceSolution) {
	var (
		T   = mp.Template
		det = atLogical(T, 0, 3)*atLogical(T, 1, 1) - atLogical(T, 0, 1)*atLogical(T, 1, 3)
	)
	S.B1 = -atLogical(T, 1, 3) / det
	S.D1 = atLogical(T, 1, 1) / det
	return
}
