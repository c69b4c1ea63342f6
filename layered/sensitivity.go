package layered

// bandEntry is one nonzero of a matrix derivative, logical column
type bandEntry struct {
	row, l int
	val    float64
}

// ratioDerivative returns the nonzeros of dK/dF2[j] at the current node
func (mp *ModelParams) ratioDerivative(j int, buf *CalcBuffer) [6]bandEntry {
	var (
		nn = mp.Nu[j+1]
		r  = 4 * j
		fn = buf.F1[j+1]
		f3 = buf.F3[j]
	)
	return [6]bandEntry{
		{r, r + 1, -2},
		{r, r + 2, (4*nn - 3) * fn},
		{r, r + 3, 4*nn - 2*f3 - 1},
		{r + 1, r, -2 * fn},
		{r + 1, r + 2, fn * (1 - 4*nn - 2*f3)},
		{r + 1, r + 3, 3 - 4*nn},
	}
}

// Sensitivities solves K dx/dE_k = -(dK/dE_k) x for each modulus through the
// factorization left by Coefficients. E_k enters F2[k] directly and F2[k-1]
// inversely, so only the interfaces above and below layer k contribute.
func (mp *ModelParams) Sensitivities(buf *CalcBuffer) (err error) {
	for k := 1; k <= NumModuli; k++ {
		y := &buf.SensRHS
		for i := range y {
			y[i] = 0
		}
		if k <= NumFinite {
			mp.addRatioTerm(k, mp.F2[k]/mp.E[k], buf)
		}
		if k >= 2 {
			mp.addRatioTerm(k-1, -mp.F2[k-1]/mp.E[k], buf)
		}
		if err = buf.system.Solve(y[:], buf.SensX[k-1][:]); err != nil {
			return
		}
		toLogical(&buf.SensX[k-1], &buf.DC[k-1])
	}
	return
}

// addRatioTerm accumulates -(dF2[j]/dE) (dK/dF2[j]) C into the sensitivity
// right hand side, scale being dF2[j]/dE
func (mp *ModelParams) addRatioTerm(j int, scale float64, buf *CalcBuffer) {
	for _, e := range mp.ratioDerivative(j, buf) {
		if Column(e.l) < 0 {
			continue
		}
		buf.SensRHS[e.row] -= scale * e.val * buf.C[e.l]
	}
}
