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
	"github.com/notargets/gopave/layered"
	"github.com/notargets/gopave/utils"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

type InspectRun struct {
	InputFile string
	M         float64 // scaled transform variable
	Dense     bool
}

type InspectResult struct {
	Regular       bool
	Condition     float64
	BackwardError float64
	NonZeros      int
	BandFailed    error
}

// InspectCmd represents the inspect command
var InspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Dump the assembled boundary condition system at one transform value",
	Long: `
Assembles the 18 unknown interface system of the survey structure at the
scaled transform variable m, prints the band storage, its condition number and
the backward error of the unpivoted band solve.

gopave inspect -I survey.yaml -m 1.5 --dense`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ir := &InspectRun{}
		ir.InputFile, _ = cmd.Flags().GetString("inputFile")
		ir.M, _ = cmd.Flags().GetFloat64("m")
		ir.Dense, _ = cmd.Flags().GetBool("dense")
		_, err = RunInspect(ir)
		return
	},
}

func init() {
	rootCmd.AddCommand(InspectCmd)
	InspectCmd.Flags().StringP("inputFile", "I", "", "YAML survey file")
	InspectCmd.Flags().Float64P("m", "m", 1., "scaled transform variable")
	InspectCmd.Flags().Bool("dense", false, "also print the dense form")
}

func RunInspect(ir *InspectRun) (out *InspectResult, err error) {
	var (
		s   *InputParameters.Survey
		mp  *layered.ModelParams
		buf = layered.NewCalcBuffer()
		svd mat.SVD
	)
	if s, err = readSurvey(ir.InputFile); err != nil {
		return
	}
	if mp, err = layered.NewModelParamsFromTable(s.Table()); err != nil {
		return
	}
	out = &InspectResult{Regular: mp.Regular(ir.M)}
	if !out.Regular {
		fmt.Printf("m = %g is past the regular range, the surface solution B1 = %g, D1 = %g is used\n",
			ir.M, mp.Surface.B1, mp.Surface.D1)
	}
	mp.Assemble(ir.M, buf)
	K := buf.Assembled
	fmt.Printf("band storage %d x %d, KL = %d, KU = %d\n%s", K.N, K.Width(), K.KL, K.KU, K.String())

	dok := K.ToDOK()
	out.NonZeros = dok.NNZ()
	dense := K.ToDense()
	if ir.Dense {
		fmt.Printf("%v\n", mat.Formatted(dense, mat.Squeeze()))
	}
	if !svd.Factorize(dense, mat.SVDNone) {
		return out, fmt.Errorf("SVD of the assembled system failed")
	}
	out.Condition = svd.Cond()

	var (
		b  = make([]float64, K.N)
		x  = make([]float64, K.N)
		bs = layered.NewBandSolver(K.Copy())
	)
	b[0] = 1
	if out.BandFailed = bs.Decompose(); out.BandFailed == nil {
		if out.BandFailed = bs.Solve(b, x); out.BandFailed == nil {
			out.BackwardError = layered.BackwardError(K, x, b)
		}
	}
	fmt.Printf("non zeros %d, condition %.3e\n", out.NonZeros, out.Condition)
	switch {
	case out.BandFailed != nil:
		fmt.Printf("band solve failed: %v\n", out.BandFailed)
	case utils.IsNan(x) || out.BackwardError > layered.BackwardErrorLimit:
		fmt.Printf("band backward error %.3e, the pivoted solve is used\n", out.BackwardError)
	default:
		fmt.Printf("band backward error %.3e\n", out.BackwardError)
	}
	return
}
