package bessel

import "math"

// SeriesLimit is the largest |x| evaluated with the ascending power series.
// Beyond it the Hankel asymptotic expansion is used.
const SeriesLimit = 12.

// J0 returns the order zero Bessel function of the first kind
func J0(x float64) float64 {
	return besselJ(0, x)
}

// J1 returns the order one Bessel function of the first kind
func J1(x float64) float64 {
	return besselJ(1, x)
}

func besselJ(nu int, x float64) (val float64) {
	ax := math.Abs(x)
	if ax <= SeriesLimit {
		val = series(nu, ax)
	} else {
		val = asymptotic(nu, ax)
	}
	if nu == 1 && x < 0 {
		val = -val
	}
	return
}

// series sums J_nu(x) = sum_k (-x^2/4)^k (x/2)^nu / (k! (k+nu)!) until the
// terms no longer change the sum
func series(nu int, ax float64) (sum float64) {
	var (
		term = 1.
		q    = -ax * ax / 4
		fnu  = float64(nu)
	)
	if nu == 1 {
		term = ax / 2
	}
	for k := 1; k < 200; k++ {
		sum += term
		fk := float64(k)
		term *= q / (fk * (fk + fnu))
		if k > 2 && math.Abs(term) < 1.e-17*math.Max(math.Abs(sum), math.SmallestNonzeroFloat64) {
			break
		}
	}
	return
}

// asymptotic evaluates the Hankel expansion
//
//	J_nu(x) ~ sqrt(2/(pi x)) (P cos(chi) - Q sin(chi)), chi = x - (nu/2 + 1/4) pi
//
// truncating the divergent P, Q series at the smallest term
func asymptotic(nu int, ax float64) float64 {
	var (
		mu     = 4. * float64(nu*nu)
		P, Q   float64
		term   = 1.
		eightX = 8 * ax
	)
	for k := 0; k < 100; k++ {
		switch k % 4 {
		case 0:
			P += term
		case 1:
			Q += term
		case 2:
			P -= term
		case 3:
			Q -= term
		}
		odd := float64(2*k + 1)
		next := term * (mu - odd*odd) / (float64(k+1) * eightX)
		if math.Abs(next) < 1.e-17 || math.Abs(next) > math.Abs(term) {
			break
		}
		term = next
	}
	chi := ax - (float64(nu)/2+0.25)*math.Pi
	return math.Sqrt(2/(math.Pi*ax)) * (P*math.Cos(chi) - Q*math.Sin(chi))
}
