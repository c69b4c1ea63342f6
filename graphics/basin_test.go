package graphics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotBasin(t *testing.T) {
	var (
		radii    = []float64{0, 300, 600, 900, 1200, 1500, 1800, 2000, 3000, 4000}
		computed = []float64{0.442, 0.309, 0.217, 0.168, 0.138, 0.117, 0.101, 0.092, 0.062, 0.046}
		measured = []float64{0.440, 0.310, 0.215, 0.170, 0.137, 0.118, 0.100, 0.093, 0.061, 0.047}
		file     = filepath.Join(t.TempDir(), "basin.png")
	)
	require.NoError(t, PlotBasin(file, "Drop 1", radii,
		Series{Name: "fit", Deflection: computed, Color: Blue},
		Series{Name: "measured", Deflection: measured, Color: Red, Points: true},
	))
	fi, err := os.Stat(file)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(0))

	assert.Error(t, PlotBasin(file, "", radii, Series{Name: "short", Deflection: computed[:3]}))
	assert.Equal(t, uint8(255), GetColor(Black).A)
}
