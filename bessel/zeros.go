package bessel

import (
	"math"
	"sync"
)

// NumZeros is the number of tabulated zeros of each order
const NumZeros = 120

// ZeroTable holds the first NumZeros positive zeros of J0 and J1, ascending
type ZeroTable struct {
	J0, J1 [NumZeros]float64
}

var (
	zeroOnce  sync.Once
	zeroTable *ZeroTable
)

// Zeros returns the process wide zero table, built on first use
func Zeros() *ZeroTable {
	zeroOnce.Do(func() {
		zt := &ZeroTable{}
		for k := 1; k <= NumZeros; k++ {
			zt.J0[k-1] = findZero(0, k)
			zt.J1[k-1] = findZero(1, k)
		}
		zeroTable = zt
	})
	return zeroTable
}

// findZero polishes McMahon's estimate of the k-th zero of J_nu with Newton
func findZero(nu, k int) (x float64) {
	var (
		mu   = 4. * float64(nu*nu)
		beta float64
	)
	if nu == 0 {
		beta = (float64(k) - 0.25) * math.Pi
	} else {
		beta = (float64(k) + 0.25) * math.Pi
	}
	b8 := 8 * beta
	x = beta - (mu-1)/b8 - 4*(mu-1)*(7*mu-31)/(3*b8*b8*b8)
	for i := 0; i < 20; i++ {
		var f, df float64
		if nu == 0 {
			f, df = J0(x), -J1(x)
		} else {
			f = J1(x)
			df = J0(x) - f/x
		}
		dx := f / df
		x -= dx
		if math.Abs(dx) < 1.e-15*x {
			break
		}
	}
	return
}
