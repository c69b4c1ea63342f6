/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/notargets/gopave/InputParameters"
	"github.com/notargets/gopave/graphics"
	"github.com/notargets/gopave/layered"
	"github.com/notargets/gopave/utils"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

type ForwardRun struct {
	InputFile string
	PlotFile  string
	Jacobian  bool
}

// ForwardCmd represents the forward command
var ForwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Deflection basin of a layered structure",
	Long: `
Computes the surface deflections at the survey radii and, optionally, their
derivatives with respect to the layer moduli.

gopave forward -I survey.yaml --jacobian --plot basin.png`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		fr := &ForwardRun{}
		fr.InputFile, _ = cmd.Flags().GetString("inputFile")
		fr.PlotFile, _ = cmd.Flags().GetString("plot")
		fr.Jacobian, _ = cmd.Flags().GetBool("jacobian")
		_, err = RunForward(fr)
		return
	},
}

func init() {
	rootCmd.AddCommand(ForwardCmd)
	ForwardCmd.Flags().StringP("inputFile", "I", "", "YAML survey file with the layers, load and radii")
	ForwardCmd.Flags().StringP("plot", "p", "", "write the deflection basin to this image file")
	ForwardCmd.Flags().BoolP("jacobian", "j", false, "print dU/dE for each radius and modulus")
}

func RunForward(fr *ForwardRun) (res *layered.SimResults, err error) {
	var (
		s   *InputParameters.Survey
		opt layered.Options
	)
	if s, err = readSurvey(fr.InputFile); err != nil {
		return
	}
	s.Print()
	if opt, err = kernelOptions(); err != nil {
		return
	}
	tab := s.Table()
	if res, err = layered.Calculation(tab, fr.Jacobian, opt); err != nil {
		return
	}
	if utils.IsNan(res.Displacement[:]) {
		logger.Warn("non finite deflections, check the layer structure")
	}
	var observed *[layered.NumRadii]float64
	if obs, oerr := s.Observed(); oerr == nil {
		observed = &obs
	}
	printBasin(tab.Radii(), res.Displacement, observed)
	if fr.Jacobian {
		fmt.Printf("dU/dE [mm/MPa]\n%v\n", mat.Formatted(res.J, mat.Squeeze()))
	}
	if len(fr.PlotFile) != 0 {
		radii := tab.Radii()
		series := []graphics.Series{{Name: "computed", Deflection: res.Displacement[:], Color: graphics.Blue}}
		if observed != nil {
			series = append(series, graphics.Series{Name: "measured", Deflection: observed[:], Color: graphics.Red, Points: true})
		}
		if err = graphics.PlotBasin(fr.PlotFile, s.Title, radii[:], series...); err != nil {
			return
		}
	}
	logger.Debug(utils.GetMemUsage())
	return
}
