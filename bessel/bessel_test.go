package bessel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func relErr(a, b float64) float64 {
	return math.Abs(a-b) / math.Max(math.Abs(b), 1.e-300)
}

func TestBesselValues(t *testing.T) {
	t.Run("series region", func(t *testing.T) {
		for _, x := range []float64{1.e-3, 0.1, 0.5, 1, 3, 5.9, 6} {
			assert.Less(t, relErr(J0(x), math.J0(x)), 1.e-12, "J0(%v)", x)
			assert.Less(t, relErr(J1(x), math.J1(x)), 1.e-12, "J1(%v)", x)
		}
	})
	t.Run("across the boundary", func(t *testing.T) {
		for _, x := range []float64{0.1, 1, 5.9, 6.0, 6.1, 8, 11.9, 12, 12.1, 15, 20, 50, 100} {
			assert.Less(t, relErr(J0(x), math.J0(x)), 1.e-8, "J0(%v)", x)
			assert.Less(t, relErr(J1(x), math.J1(x)), 1.e-8, "J1(%v)", x)
		}
	})
	t.Run("parity", func(t *testing.T) {
		for _, x := range []float64{0.7, 4, 13, 40} {
			assert.Equal(t, J0(x), J0(-x))
			assert.Equal(t, J1(x), -J1(-x))
		}
	})
	assert.Equal(t, 1., J0(0))
	assert.Equal(t, 0., J1(0))
}

func TestZeros(t *testing.T) {
	zt := Zeros()
	assert.Same(t, zt, Zeros())
	assert.InDelta(t, 2.404825557695773, zt.J0[0], 1.e-12)
	assert.InDelta(t, 5.520078110286311, zt.J0[1], 1.e-12)
	assert.InDelta(t, 3.831705970207512, zt.J1[0], 1.e-12)
	assert.InDelta(t, 7.015586669815619, zt.J1[1], 1.e-11)
	for k := 0; k < NumZeros; k++ {
		if k > 0 {
			assert.Greater(t, zt.J0[k], zt.J0[k-1])
			assert.Greater(t, zt.J1[k], zt.J1[k-1])
			// successive zeros are close to pi apart
			assert.InDelta(t, math.Pi, zt.J0[k]-zt.J0[k-1], 0.1)
		}
		assert.InDelta(t, 0, math.J0(zt.J0[k]), 1.e-12)
		assert.InDelta(t, 0, math.J1(zt.J1[k]), 1.e-12)
		// zeros of J0 and J1 interlace
		assert.Less(t, zt.J0[k], zt.J1[k])
	}
}
