package layered

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gopave/bessel"
)

func TestPartition(t *testing.T) {
	var (
		bounds [bessel.NumZeros + 1]float64
		zt     = bessel.Zeros()
		H, a   = 1190., 150.
	)
	t.Run("on axis", func(t *testing.T) {
		for _, r := range []float64{0, 1.e-11} {
			Partition(r, a, H, &bounds)
			assert.Equal(t, 0., bounds[0])
			for i := 0; i < bessel.NumZeros; i++ {
				assert.True(t, near(bounds[i+1], zt.J1[i]*H/a, 1.e-14))
			}
		}
	})
	for _, r := range []float64{1, 150, 300, 1800, 4000} {
		Partition(r, a, H, &bounds)
		assert.Equal(t, 0., bounds[0])
		var n0, n1 int
		for i := 1; i <= bessel.NumZeros; i++ {
			assert.GreaterOrEqual(t, bounds[i], bounds[i-1], "r=%v i=%d", r, i)
			if n0 < bessel.NumZeros && near(bounds[i], zt.J0[n0]*H/r, 1.e-14) {
				n0++
			} else if n1 < bessel.NumZeros && near(bounds[i], zt.J1[n1]*H/a, 1.e-14) {
				n1++
			}
		}
		// every boundary is one of the scaled zeros, taken in order
		assert.Equal(t, bessel.NumZeros, n0+n1, "r=%v", r)
		if r > a {
			assert.Greater(t, n0, n1)
		}
	}
	// equal scaling interlaces the two sequences starting with J0
	Partition(a, a, H, &bounds)
	for i := 0; i < 10; i++ {
		assert.True(t, near(bounds[2*i+1], zt.J0[i]*H/a, 1.e-14))
		assert.True(t, near(bounds[2*i+2], zt.J1[i]*H/a, 1.e-14))
	}
}
