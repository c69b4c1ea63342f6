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
	"github.com/notargets/gopave/backcalc"
	"github.com/notargets/gopave/graphics"
	"github.com/notargets/gopave/layered"
	"github.com/notargets/gopave/lsq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type BackCalcRun struct {
	InputFile string
	PlotFile  string
	// Synthetic observations from the survey moduli instead of the measured basin
	Synthetic bool
	// Noise applies the survey noise section before fitting
	Noise bool
}

type BackCalcResult struct {
	Moduli   [layered.NumModuli]float64
	Observed [layered.NumRadii]float64
	Fitted   [layered.NumRadii]float64
	Summary  *lsq.Summary
}

// BackCalcCmd represents the backcalc command
var BackCalcCmd = &cobra.Command{
	Use:   "backcalc",
	Short: "Back calculate layer moduli from a deflection basin",
	Long: `
Fits the five layer moduli, within the survey bounds, to the measured
deflections with a bounded trust region least squares in log moduli.

gopave backcalc -I survey.yaml
gopave backcalc -I survey.yaml --synthetic --noise`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		br := &BackCalcRun{}
		br.InputFile, _ = cmd.Flags().GetString("inputFile")
		br.PlotFile, _ = cmd.Flags().GetString("plot")
		br.Synthetic, _ = cmd.Flags().GetBool("synthetic")
		br.Noise, _ = cmd.Flags().GetBool("noise")
		_, err = RunBackCalc(br)
		return
	},
}

func init() {
	rootCmd.AddCommand(BackCalcCmd)
	BackCalcCmd.Flags().StringP("inputFile", "I", "", "YAML survey file with the layers, bounds, load, radii and deflections")
	BackCalcCmd.Flags().StringP("plot", "p", "", "write measured and fitted basins to this image file")
	BackCalcCmd.Flags().Bool("synthetic", false, "fit deflections computed from the survey moduli")
	BackCalcCmd.Flags().Bool("noise", false, "perturb the inputs with the survey noise section")
	BackCalcCmd.Flags().Bool("relative", true, "relative residuals (u-obs)/obs")
	BackCalcCmd.Flags().Int("max-iterations", 100, "maximum trust region iterations")
	BackCalcCmd.Flags().Float64("tolerance", 1.e-8, "relative cost change for convergence")
	bindFlags(BackCalcCmd, map[string]string{
		"inverse.relative":      "relative",
		"inverse.maxIterations": "max-iterations",
		"inverse.tolerance":     "tolerance",
	}, false)
}

func RunBackCalc(br *BackCalcRun) (out *BackCalcResult, err error) {
	var (
		s   *InputParameters.Survey
		opt layered.Options
		res *layered.SimResults
	)
	if s, err = readSurvey(br.InputFile); err != nil {
		return
	}
	s.Print()
	if opt, err = kernelOptions(); err != nil {
		return
	}
	out = &BackCalcResult{}
	tab := s.Table()
	if br.Synthetic {
		if res, err = layered.Calculation(tab, false, opt); err != nil {
			return
		}
		out.Observed = res.Displacement
	} else if out.Observed, err = s.Observed(); err != nil {
		return
	}
	if br.Noise {
		noise, seed := s.NoiseModel()
		if noise.IsZero() {
			logger.Warn("no noise section in the survey, fitting unperturbed inputs")
		}
		var ptab layered.InputTable
		ptab, out.Observed = backcalc.Perturb(tab, out.Observed, noise, backcalc.NewSource(seed))
		tab = &ptab
	}

	settings := lsq.DefaultSettings()
	settings.MaxIterations = viper.GetInt("inverse.maxIterations")
	settings.FunctionTolerance = viper.GetFloat64("inverse.tolerance")
	settings.Logger = logger
	inv := backcalc.Options{
		Relative: viper.GetBool("inverse.relative"),
		Kernel:   opt,
		Settings: settings,
		Logger:   logger,
	}
	// a synthetic fit starting from the answer proves nothing
	if !br.Synthetic {
		inv.InitialGuess = s.InitialGuess()
	}
	if out.Moduli, out.Summary, err = backcalc.BackCalculation(tab, out.Observed, s.Bounds(), inv); err != nil {
		return
	}
	if !out.Summary.Status.Converged() {
		logger.Warnf("back calculation did not converge: %s", out.Summary.Message)
	}
	fmt.Println(out.Summary.Message)
	for k, E := range out.Moduli {
		fmt.Printf("E%d = %12.4f MPa\n", k+1, E)
	}

	fit := *tab
	fit.SetModuli(out.Moduli)
	if res, err = layered.Calculation(&fit, false, opt); err != nil {
		return
	}
	out.Fitted = res.Displacement
	printBasin(tab.Radii(), out.Fitted, &out.Observed)
	if len(br.PlotFile) != 0 {
		radii := tab.Radii()
		err = graphics.PlotBasin(br.PlotFile, s.Title, radii[:],
			graphics.Series{Name: "fitted", Deflection: out.Fitted[:], Color: graphics.Blue},
			graphics.Series{Name: "measured", Deflection: out.Observed[:], Color: graphics.Red, Points: true},
		)
	}
	return
}
