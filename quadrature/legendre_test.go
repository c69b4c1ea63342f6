package quadrature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func near(a, b float64, tolI ...float64) bool {
	tol := 1.e-12
	if len(tolI) > 0 {
		tol = tolI[0]
	}
	return math.Abs(a-b) <= tol*math.Max(1, math.Abs(b))
}

func TestCanonical(t *testing.T) {
	_, err := Canonical(6)
	assert.Error(t, err)
	_, err = Canonical(68)
	assert.Error(t, err)
	for n := MinOrder; n <= MaxOrder; n += OrderStep {
		R, err := Canonical(n)
		require.NoError(t, err)
		require.Len(t, R.X, n)
		var sum float64
		for i := 0; i < n; i++ {
			if i > 0 {
				assert.Greater(t, R.X[i], R.X[i-1])
			}
			// symmetric placement
			assert.True(t, near(R.X[i], -R.X[n-1-i], 1.e-14))
			assert.True(t, near(R.W[i], R.W[n-1-i], 1.e-12))
			sum += R.W[i]
		}
		assert.True(t, near(sum, 2))
	}
	R, _ := Canonical(4)
	assert.True(t, near(R.X[3], math.Sqrt(3./7+2./7*math.Sqrt(6./5))))
	assert.True(t, near(R.W[3], (18-math.Sqrt(30))/36))
}

func TestPolynomialExactness(t *testing.T) {
	var (
		x = make([]float64, MaxOrder)
		w = make([]float64, MaxOrder)
	)
	for n := MinOrder; n <= MaxOrder; n += OrderStep {
		for _, iv := range [][2]float64{{-1, 1}, {0.5, 3.25}} {
			a, b := iv[0], iv[1]
			used := Generate(n, a, b, x, w)
			require.Equal(t, n, used)
			// (x-a)^deg keeps every term positive so the sum is well conditioned
			for deg := 0; deg <= 2*n-1; deg++ {
				var sum float64
				for i := 0; i < n; i++ {
					sum += w[i] * math.Pow(x[i]-a, float64(deg))
				}
				exact := math.Pow(b-a, float64(deg+1)) / float64(deg+1)
				assert.True(t, near(sum, exact, 1.e-10), "n=%d deg=%d [%v,%v]", n, deg, a, b)
			}
		}
	}
}

func TestGenerateFallback(t *testing.T) {
	var (
		x = make([]float64, MaxOrder)
		w = make([]float64, MaxOrder)
	)
	for _, order := range []int{7, 128, 0} {
		used := Generate(order, 0, 2, x, w)
		assert.Equal(t, MaxOrder, used)
		var sum float64
		for i := 0; i < used; i++ {
			sum += w[i]
		}
		assert.True(t, near(sum, 2))
	}
}
