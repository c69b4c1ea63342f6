package InputParameters

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/notargets/gopave/backcalc"
	"github.com/notargets/gopave/layered"
)

var ErrSurvey = errors.New("invalid survey")

// ghodss/yaml converts to JSON before decoding, field names come from the json tags

type Layer struct {
	Name      string  `json:"Name"`
	Modulus   float64 `json:"Modulus"`   // MPa
	Poisson   float64 `json:"Poisson"`   // Poisson ratio
	Thickness float64 `json:"Thickness"` // mm, unused for the subgrade
	Lower     float64 `json:"Lower"`     // back calculation bounds, MPa
	Upper     float64 `json:"Upper"`
}

type Load struct {
	Pressure float64 `json:"Pressure"` // MPa
	Radius   float64 `json:"Radius"`   // mm
}

// NoiseParameters are triangular half widths, in the deflection units for
// deflections, mm for thicknesses and radii, relative for the load
type NoiseParameters struct {
	Deflection []float64 `json:"Deflection"`
	Thickness  []float64 `json:"Thickness"`
	Radius     []float64 `json:"Radius"`
	Load       float64   `json:"Load"`
	Seed       uint64    `json:"Seed"`
}

// Survey is one falling weight deflectometer drop: structure, load, sensor
// offsets and, for back calculation, the measured basin
type Survey struct {
	Title           string           `json:"Title"`
	Load            Load             `json:"Load"`
	Layers          []Layer          `json:"Layers"`
	Radii           []float64        `json:"Radii"`       // mm
	Deflections     []float64        `json:"Deflections"` // measured basin
	DeflectionUnits string           `json:"DeflectionUnits"`
	Relative        bool             `json:"Relative"`
	Noise           *NoiseParameters `json:"Noise"`
}

func (s *Survey) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, s); err != nil {
		return
	}
	return s.Validate()
}

func (s *Survey) Validate() (err error) {
	if len(s.Layers) != layered.NumModuli {
		return fmt.Errorf("%w: need %d layers, have %d", ErrSurvey, layered.NumModuli, len(s.Layers))
	}
	if len(s.Radii) != layered.NumRadii {
		return fmt.Errorf("%w: need %d radii, have %d", ErrSurvey, layered.NumRadii, len(s.Radii))
	}
	if len(s.Deflections) != 0 && len(s.Deflections) != layered.NumRadii {
		return fmt.Errorf("%w: need %d deflections, have %d", ErrSurvey, layered.NumRadii, len(s.Deflections))
	}
	if _, err = s.unitScale(); err != nil {
		return
	}
	if n := s.Noise; n != nil {
		if len(n.Deflection) > layered.NumRadii || len(n.Radius) > layered.NumRadii ||
			len(n.Thickness) > layered.NumFinite {
			return fmt.Errorf("%w: too many noise amplitudes", ErrSurvey)
		}
	}
	return
}

func (s *Survey) unitScale() (scale float64, err error) {
	switch strings.ToLower(s.DeflectionUnits) {
	case "", "mm":
		scale = 1
	case "um", "µm", "micron", "microns":
		scale = 1.e-3
	default:
		err = fmt.Errorf("%w: unknown deflection units %q", ErrSurvey, s.DeflectionUnits)
	}
	return
}

// Table is the forward model input for the survey
func (s *Survey) Table() (tab *layered.InputTable) {
	var (
		E  [layered.NumModuli]float64
		h  [layered.NumFinite]float64
		rr [layered.NumRadii]float64
	)
	tab = &layered.InputTable{}
	for i, l := range s.Layers {
		E[i] = l.Modulus
		tab[i+2][2] = l.Poisson
		if i < layered.NumFinite {
			h[i] = l.Thickness
		}
	}
	copy(rr[:], s.Radii)
	tab.SetModuli(E)
	tab.SetThicknesses(h)
	tab.SetRadii(rr)
	tab.SetLoad(s.Load.Pressure, s.Load.Radius)
	return
}

// Observed is the measured basin in mm
func (s *Survey) Observed() (u [layered.NumRadii]float64, err error) {
	var scale float64
	if len(s.Deflections) != layered.NumRadii {
		err = fmt.Errorf("%w: no measured deflections", ErrSurvey)
		return
	}
	if scale, err = s.unitScale(); err != nil {
		return
	}
	for i, v := range s.Deflections {
		u[i] = v * scale
	}
	return
}

// Bounds is [lower1, upper1, ..., lower5, upper5]
func (s *Survey) Bounds() (b [2 * layered.NumModuli]float64) {
	for i, l := range s.Layers {
		b[2*i], b[2*i+1] = l.Lower, l.Upper
	}
	return
}

// InitialGuess is the survey moduli when all are given
func (s *Survey) InitialGuess() *[layered.NumModuli]float64 {
	var E [layered.NumModuli]float64
	for i, l := range s.Layers {
		if l.Modulus == 0 {
			return nil
		}
		E[i] = l.Modulus
	}
	return &E
}

func (s *Survey) NoiseModel() (n backcalc.Noise, seed uint64) {
	if s.Noise == nil {
		return
	}
	scale, _ := s.unitScale()
	for i, v := range s.Noise.Deflection {
		n.Deflection[i] = v * scale
	}
	copy(n.Thickness[:], s.Noise.Thickness)
	copy(n.Radius[:], s.Noise.Radius)
	n.Load = s.Noise.Load
	return n, s.Noise.Seed
}

func (s *Survey) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", s.Title)
	fmt.Printf("%8.5f\t\t= Load Pressure [MPa]\n", s.Load.Pressure)
	fmt.Printf("%8.3f\t\t= Load Radius [mm]\n", s.Load.Radius)
	for i, l := range s.Layers {
		fmt.Printf("Layer[%d] %-12s E=%10.3f nu=%5.3f h=%8.2f bounds=[%g,%g]\n",
			i+1, l.Name, l.Modulus, l.Poisson, l.Thickness, l.Lower, l.Upper)
	}
	fmt.Printf("%v\t= Radii [mm]\n", s.Radii)
	if len(s.Deflections) != 0 {
		units := s.DeflectionUnits
		if units == "" {
			units = "mm"
		}
		fmt.Printf("%v\t= Deflections [%s]\n", s.Deflections, units)
	}
}
