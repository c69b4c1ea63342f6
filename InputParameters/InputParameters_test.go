package InputParameters

import (
	"errors"
	"testing"

	"github.com/notargets/gopave/layered"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var surveyInput = []byte(`
Title: Falling weight drop 1
Load:
  Pressure: 0.95
  Radius: 150
Layers:
  - {Name: asphalt, Modulus: 4000, Poisson: 0.30, Thickness: 150, Lower: 1000, Upper: 12000}
  - {Name: base, Modulus: 400, Poisson: 0.35, Thickness: 240, Lower: 100, Upper: 1500}
  - {Name: subbase, Modulus: 300, Poisson: 0.35, Thickness: 300, Lower: 50, Upper: 1000}
  - {Name: improved, Modulus: 200, Poisson: 0.40, Thickness: 500, Lower: 50, Upper: 800}
  - {Name: subgrade, Modulus: 100, Poisson: 0.40, Lower: 20, Upper: 400}
Radii: [0, 300, 600, 900, 1200, 1500, 1800, 2000, 3000, 4000]
Deflections: [441.92, 308.74, 216.70, 168.08, 138.02, 116.80, 100.72, 91.91, 62.45, 46.29]
DeflectionUnits: um # converted to mm
Noise:
  Deflection: [2, 2, 2]
  Thickness: [5, 5]
  Load: 0.02
  Seed: 42
`)

func TestSurvey(t *testing.T) {
	var s Survey
	require.NoError(t, s.Parse(surveyInput))
	s.Print()
	assert.Equal(t, "Falling weight drop 1", s.Title)
	assert.Equal(t, "subgrade", s.Layers[4].Name)

	tab := s.Table()
	assert.Equal(t, [layered.NumModuli]float64{4000, 400, 300, 200, 100}, tab.Moduli())
	assert.Equal(t, [layered.NumModuli]float64{.30, .35, .35, .40, .40}, tab.PoissonRatios())
	assert.Equal(t, [layered.NumFinite]float64{150, 240, 300, 500}, tab.Thicknesses())
	assert.Equal(t, 4000., tab.Radii()[9])
	q, a := tab.Load()
	assert.Equal(t, 0.95, q)
	assert.Equal(t, 150., a)
	// table layout: layer rows 2..6, radii in column 6 from row 1, load in row 10
	assert.Equal(t, 4000., tab[2][1])
	assert.Equal(t, 300., tab[2][6])
	assert.Equal(t, 0.95, tab[10][1])

	obs, err := s.Observed()
	require.NoError(t, err)
	assert.InDelta(t, 0.44192, obs[0], 1.e-12)
	assert.InDelta(t, 0.04629, obs[9], 1.e-12)

	b := s.Bounds()
	assert.Equal(t, 1000., b[0])
	assert.Equal(t, 12000., b[1])
	assert.Equal(t, 400., b[9])
	require.NotNil(t, s.InitialGuess())
	assert.Equal(t, 100., s.InitialGuess()[4])

	n, seed := s.NoiseModel()
	assert.Equal(t, uint64(42), seed)
	assert.InDelta(t, 0.002, n.Deflection[0], 1.e-15)
	assert.Equal(t, 0., n.Deflection[3])
	assert.Equal(t, 5., n.Thickness[1])
	assert.Equal(t, 0.02, n.Load)

	// the parsed table runs through the forward model
	res, err := layered.Calculation(tab, false)
	require.NoError(t, err)
	for i := range obs {
		assert.InEpsilon(t, obs[i], res.Displacement[i], 1.e-3)
	}
}

func TestSurveyErrors(t *testing.T) {
	cases := map[string]string{
		"layers": `
Layers: [{Modulus: 1}]
Radii: [0, 1, 2, 3, 4, 5, 6, 7, 8, 9]`,
		"radii": `
Layers: [{Modulus: 1}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}]
Radii: [0, 1]`,
		"units": `
Layers: [{Modulus: 1}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}]
Radii: [0, 1, 2, 3, 4, 5, 6, 7, 8, 9]
DeflectionUnits: inches`,
		"deflections": `
Layers: [{Modulus: 1}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}]
Radii: [0, 1, 2, 3, 4, 5, 6, 7, 8, 9]
Deflections: [1, 2, 3]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			var s Survey
			assert.True(t, errors.Is(s.Parse([]byte(input)), ErrSurvey))
		})
	}
	t.Run("malformed", func(t *testing.T) {
		var s Survey
		assert.Error(t, s.Parse([]byte("Layers: [")))
	})
	t.Run("no basin", func(t *testing.T) {
		var s Survey
		require.NoError(t, s.Parse([]byte(`
Layers: [{Modulus: 1}, {Modulus: 0}, {Modulus: 1}, {Modulus: 1}, {Modulus: 1}]
Radii: [0, 1, 2, 3, 4, 5, 6, 7, 8, 9]`)))
		_, err := s.Observed()
		assert.True(t, errors.Is(err, ErrSurvey))
		assert.Nil(t, s.InitialGuess())
	})
}
