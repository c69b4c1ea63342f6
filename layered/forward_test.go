package layered

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

var testRadii = [NumRadii]float64{0, 300, 600, 900, 1200, 1500, 1800, 2000, 3000, 4000}

func TestBoussinesq(t *testing.T) {
	// identical layers form a homogeneous half-space
	var (
		E, nu = 200., 0.35
		q, a  = 0.7, 150.
		same  = [NumModuli]float64{E, E, E, E, E}
		nus   = [NumModuli]float64{nu, nu, nu, nu, nu}
		exact = 2 * q * a * (1 - nu*nu) / E
	)
	mp, err := NewModelParams(same, nus, [4]float64{150, 240, 300, 500}, q, a, 0)
	require.NoError(t, err)
	for _, opt := range []Options{
		{Gradient: true},
		{Gradient: true, DisableTruncation: true},
		{OrderBase: FirstBoundaryRoot},
	} {
		rr, err := mp.Deflection(0, opt, NewCalcBuffer())
		require.NoError(t, err)
		assert.InDelta(t, exact, rr.Deflection, 0.01*exact, "%+v", opt)
		if opt.Gradient {
			// deflection scales as 1/E when all moduli scale together
			var sum float64
			for k, g := range rr.Gradient {
				sum += g * same[k]
			}
			assert.True(t, near(sum, -rr.Deflection, 1.e-6))
		}
		if !opt.DisableTruncation {
			assert.True(t, rr.Truncated)
			assert.Less(t, rr.Panels, NumPanels)
		} else {
			assert.Equal(t, NumPanels, rr.Panels)
		}
	}
}

func TestSimulate(t *testing.T) {
	mp := testConfigs[0].model(t)
	res, err := Simulate(mp, testRadii, Options{Gradient: true}, nil)
	require.NoError(t, err)
	for i := 0; i < NumRadii; i++ {
		assert.Greater(t, res.Displacement[i], 0.)
		if i > 0 {
			assert.Less(t, res.Displacement[i], res.Displacement[i-1])
		}
		assert.Equal(t, testRadii[i], res.Radii[i].Radius)
		assert.Equal(t, res.Radii[i].Gradient[:], mat.Row(nil, i, res.J))
		// a softer subgrade deflects more everywhere
		assert.Less(t, res.J.At(i, 4), 0.)
	}
	// the surface layer matters under the load, the subgrade far from it
	assert.Less(t, res.J.At(0, 0), 0.)
	assert.Less(t, math.Abs(res.J.At(9, 0)*4000), 0.01*math.Abs(res.J.At(9, 4)*100))

	t.Run("parallel radii", func(t *testing.T) {
		par, err := Simulate(mp, testRadii, Options{Gradient: true, Workers: 4}, nil)
		require.NoError(t, err)
		assert.Equal(t, res.Displacement, par.Displacement)
		assert.True(t, mat.Equal(res.J, par.J))
	})
	t.Run("buffer reuse", func(t *testing.T) {
		buf := NewCalcBuffer()
		again, err := Simulate(mp, testRadii, Options{Gradient: true}, buf)
		require.NoError(t, err)
		again, err = Simulate(mp, testRadii, Options{Gradient: true}, buf)
		require.NoError(t, err)
		assert.Equal(t, res.Displacement, again.Displacement)
	})
	t.Run("no gradient", func(t *testing.T) {
		plain, err := Simulate(mp, testRadii, Options{}, nil)
		require.NoError(t, err)
		assert.Equal(t, res.Displacement, plain.Displacement)
		assert.True(t, mat.Equal(mat.NewDense(NumRadii, NumModuli, nil), plain.J))
	})
	t.Run("truncation", func(t *testing.T) {
		full, err := Simulate(mp, testRadii, Options{DisableTruncation: true}, nil)
		require.NoError(t, err)
		for i := range testRadii {
			assert.True(t, near(res.Displacement[i], full.Displacement[i], 2.e-3), "r=%v", testRadii[i])
		}
	})
}

func TestJacobianFiniteDifference(t *testing.T) {
	for _, tc := range testConfigs {
		t.Run(tc.name, func(t *testing.T) {
			var (
				mp   = tc.model(t)
				opt  = Options{Gradient: true, DisableTruncation: true}
				logE = make([]float64, NumModuli)
				J    = mat.NewDense(NumRadii, NumModuli, nil)
			)
			res, err := Simulate(mp, testRadii, opt, nil)
			require.NoError(t, err)
			for k := range logE {
				logE[k] = math.Log(tc.E[k])
			}
			deflections := func(y, x []float64) {
				var E [NumModuli]float64
				for k := range E {
					E[k] = math.Exp(x[k])
				}
				trial, err := mp.WithModuli(E)
				require.NoError(t, err)
				out, err := Simulate(trial, testRadii, Options{DisableTruncation: true}, nil)
				require.NoError(t, err)
				copy(y, out.Displacement[:])
			}
			fd.Jacobian(J, deflections, logE, &fd.JacobianSettings{
				Formula: fd.Central,
				Step:    1.e-3,
			})
			for i := 0; i < NumRadii; i++ {
				var (
					row   [NumModuli]float64
					scale float64
				)
				for k := 0; k < NumModuli; k++ {
					row[k] = res.J.At(i, k) * tc.E[k]
					scale = math.Max(scale, math.Abs(row[k]))
				}
				for k := 0; k < NumModuli; k++ {
					assert.InDelta(t, J.At(i, k), row[k], 1.e-3*scale, "r=%v E%d", testRadii[i], k+1)
				}
			}
		})
	}
}

func TestCalculation(t *testing.T) {
	var tab InputTable
	tc := testConfigs[0]
	tab.SetModuli(tc.E)
	for i, nu := range tc.nu {
		tab[i+2][2] = nu
	}
	tab.SetThicknesses(tc.thickness)
	tab.SetRadii(testRadii)
	tab.SetLoad(tc.q, tc.a)

	res, err := Calculation(&tab, true)
	require.NoError(t, err)
	ref, err := Simulate(tc.model(t), testRadii, Options{Gradient: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, ref.Displacement, res.Displacement)
	assert.True(t, mat.Equal(ref.J, res.J))

	res, err = Calculation(&tab, false, Options{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, ref.Displacement, res.Displacement)
	assert.Equal(t, 0., mat.Norm(res.J, 1))

	tab[3][1] = -1
	_, err = Calculation(&tab, true)
	assert.ErrorIs(t, err, ErrInvalidModel)
}
