package graphics

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

type ColorName uint8

const (
	Blue ColorName = iota
	Red
	Green
	Black
)

func GetColor(name ColorName) (c color.RGBA) {
	switch name {
	case Blue:
		c = color.RGBA{R: 50, G: 0, B: 255, A: 255}
	case Red:
		c = color.RGBA{R: 255, G: 0, B: 50, A: 255}
	case Green:
		c = color.RGBA{R: 25, G: 255, B: 25, A: 255}
	default:
		c = color.RGBA{A: 255}
	}
	return
}

// Series is one deflection basin, drawn downward from the surface
type Series struct {
	Name       string
	Deflection []float64 // mm
	Color      ColorName
	Points     bool // markers only, for measured basins
}

// PlotBasin writes deflection against radius for each series to file, the
// format follows the extension (png, svg, pdf)
func PlotBasin(file, title string, radii []float64, series ...Series) (err error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Radius [mm]"
	p.Y.Label.Text = "Deflection [mm]"
	p.Add(plotter.NewGrid())
	for _, s := range series {
		if len(s.Deflection) != len(radii) {
			return fmt.Errorf("series %q has %d deflections for %d radii", s.Name, len(s.Deflection), len(radii))
		}
		pts := make(plotter.XYs, len(radii))
		for i := range radii {
			pts[i].X, pts[i].Y = radii[i], -s.Deflection[i]
		}
		if s.Points {
			var sc *plotter.Scatter
			if sc, err = plotter.NewScatter(pts); err != nil {
				return
			}
			sc.GlyphStyle.Color = GetColor(s.Color)
			sc.GlyphStyle.Shape = draw.CircleGlyph{}
			p.Add(sc)
			p.Legend.Add(s.Name, sc)
			continue
		}
		var l *plotter.Line
		if l, err = plotter.NewLine(pts); err != nil {
			return
		}
		l.Color = GetColor(s.Color)
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(s.Name, l)
	}
	p.Legend.Top = true
	return p.Save(6*vg.Inch, 4*vg.Inch, file)
}
