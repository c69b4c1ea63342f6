package layered

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logicalNorm is the Euclidean norm of the 20 logical constants
func logicalNorm(c *[NumLogical]float64) (n float64) {
	for _, v := range c {
		n += v * v
	}
	return math.Sqrt(n)
}

func TestCoefficientSensitivities(t *testing.T) {
	for _, tc := range testConfigs {
		t.Run(tc.name, func(t *testing.T) {
			var (
				mp                 = tc.model(t)
				buf                = NewCalcBuffer()
				plusBuf, minusBuf  = NewCalcBuffer(), NewCalcBuffer()
			)
			for _, m := range []float64{0.5, 1, 3} {
				require.True(t, mp.Regular(m))
				require.NoError(t, mp.Coefficients(m, true, buf))
				for k := 0; k < NumModuli; k++ {
					h := 1.e-6 * tc.E[k]
					Ep, Em := tc.E, tc.E
					Ep[k] += h
					Em[k] -= h
					mpP, err := mp.WithModuli(Ep)
					require.NoError(t, err)
					mpM, err := mp.WithModuli(Em)
					require.NoError(t, err)
					require.NoError(t, mpP.Coefficients(m, false, plusBuf))
					require.NoError(t, mpM.Coefficients(m, false, minusBuf))
					var diff, fd [NumLogical]float64
					for l := 0; l < NumLogical; l++ {
						fd[l] = (plusBuf.C[l] - minusBuf.C[l]) / (2 * h)
						diff[l] = buf.DC[k][l] - fd[l]
					}
					assert.Less(t, logicalNorm(&diff), 1.e-4*logicalNorm(&fd), "m=%v E%d", m, k+1)
				}
			}
		})
	}
}

func TestSurfaceLimit(t *testing.T) {
	mp := testConfigs[0].model(t)
	buf := NewCalcBuffer()
	m := 1000.
	require.False(t, mp.Regular(m))
	require.NoError(t, mp.Coefficients(m, true, buf))
	assert.Equal(t, [4]float64{0, mp.Surface.B1, 0, mp.Surface.D1}, buf.ABCD)
	for k := 0; k < NumModuli; k++ {
		assert.Equal(t, [4]float64{}, buf.DABCD[k])
	}
	// the regular solution approaches the closed form as the top layer
	// decouples from the rest of the structure
	m = 23
	require.True(t, mp.Regular(m))
	require.NoError(t, mp.Coefficients(m, false, buf))
	assert.InDelta(t, mp.Surface.B1, buf.ABCD[1], 0.2)
	assert.InDelta(t, mp.Surface.D1, buf.ABCD[3], 0.2)
}
