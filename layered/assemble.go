package layered

import (
	"fmt"
	"math"
)

// RegularThreshold separates the regular regime from the thick top layer
// limit on exp(m (z0-z1)/H)
const RegularThreshold = 0.05

// Regular reports whether the full banded solve is needed at transform value m
func (mp *ModelParams) Regular(m float64) bool {
	return math.Exp(m*(mp.Z[0]-mp.Z[1])/mp.H) > RegularThreshold
}

// Assemble writes the continuity system at transform value m into
// buf.Assembled, starting from the template, and sets the surface load
// right hand side
func (mp *ModelParams) Assemble(m float64, buf *CalcBuffer) {
	var (
		K      = buf.Assembled
		T      = mp.Template
		F1, F3 = &buf.F1, &buf.F3
	)
	K.CopyFrom(T)
	for k := 1; k <= NumFinite; k++ {
		F1[k] = math.Exp(m * (mp.Z[k-1] - mp.Z[k]) / mp.H)
		F3[k] = m * mp.Z[k] / mp.H
	}
	F1[5], F3[5] = 0, 0

	setLogical(K, 0, 2, F1[1])
	setLogical(K, 1, 0, F1[1])
	setLogical(K, 1, 2, F1[1]*atLogical(T, 1, 2))
	for j := 1; j <= NumFinite; j++ {
		var (
			r, b, n = 4*j - 2, 4 * (j - 1), 4 * j
			x2      = 2 * F3[j]
			cross   = x2 * (1 - mp.F2[j])
			fj, fn  = F1[j], F1[j+1]
		)
		setLogical(K, r, b+2, atLogical(T, r, b+2)+x2)
		setLogical(K, r, b+3, fj)
		setLogical(K, r, n, -2*fn)
		setLogical(K, r, n+2, fn*(atLogical(T, r, n+2)-x2))

		setLogical(K, r+1, b+1, -2*fj)
		setLogical(K, r+1, b+3, fj*(atLogical(T, r+1, b+3)-x2))
		setLogical(K, r+1, n+2, -fn)
		setLogical(K, r+1, n+3, atLogical(T, r+1, n+3)+x2)

		setLogical(K, r+2, n+2, atLogical(T, r+2, n+2)*fn)
		setLogical(K, r+2, n+3, atLogical(T, r+2, n+3)+cross)

		setLogical(K, r+3, b+3, atLogical(T, r+3, b+3)*fj)
		setLogical(K, r+3, n, atLogical(T, r+3, n)*fn)
		setLogical(K, r+3, n+2, fn*(-atLogical(T, r+3, n+2)+cross))
	}
	for i := range buf.RHS {
		buf.RHS[i] = 0
	}
	buf.RHS[0] = 1
}

// Coefficients solves for the integration constants at transform value m,
// and their modulus sensitivities when grad is set. Results land in buf.C,
// buf.DC and, for the active layer, buf.ABCD and buf.DABCD.
func (mp *ModelParams) Coefficients(m float64, grad bool, buf *CalcBuffer) (err error) {
	if mp.Regular(m) {
		mp.Assemble(m, buf)
		if err = buf.factorAndSolve(); err != nil {
			return fmt.Errorf("transform value %g: %w", m, err)
		}
		toLogical(&buf.X, &buf.C)
		if grad {
			if err = mp.Sensitivities(buf); err != nil {
				return
			}
		}
	} else {
		for l := range buf.C {
			buf.C[l] = 0
		}
		buf.C[1], buf.C[3] = mp.Surface.B1, mp.Surface.D1
		if grad {
			for k := range buf.DC {
				for l := range buf.DC[k] {
					buf.DC[k][l] = 0
				}
			}
		}
	}
	base := 4 * (mp.Active - 1)
	copy(buf.ABCD[:], buf.C[base:base+4])
	if grad {
		for k := 0; k < NumModuli; k++ {
			copy(buf.DABCD[k][:], buf.DC[k][base:base+4])
		}
	}
	return
}

// kernelWeights are the depth factors multiplying A,B,C,D of the active layer
// at the evaluation depth
func (mp *ModelParams) kernelWeights(m float64) (w [4]float64) {
	var (
		i  = mp.Active
		zH = mp.ZEval / mp.H
		e0 = math.Exp(m * (zH - mp.Z[i]/mp.H))
		e1 = math.Exp(-m * (zH - mp.Z[i-1]/mp.H))
		c1 = 2 - 4*mp.Nu[i]
		c2 = m * zH
	)
	w = [4]float64{e0, -e1, -(c1 - c2) * e0, -(c1 + c2) * e1}
	return
}

func combine(w, abcd *[4]float64) float64 {
	return w[0]*abcd[0] + w[1]*abcd[1] + w[2]*abcd[2] + w[3]*abcd[3]
}
