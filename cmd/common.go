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
	"os"

	"github.com/notargets/gopave/InputParameters"
	"github.com/notargets/gopave/layered"
	"github.com/spf13/viper"
)

const exampleSurvey = `
########################################
Title: "Drop 1"
Load: {Pressure: 0.7, Radius: 150}
Layers:
  - {Name: asphalt, Modulus: 4000, Poisson: 0.30, Thickness: 150, Lower: 1000, Upper: 12000}
  - {Name: base, Modulus: 400, Poisson: 0.35, Thickness: 240, Lower: 100, Upper: 1500}
  - {Name: subbase, Modulus: 300, Poisson: 0.35, Thickness: 300, Lower: 50, Upper: 1000}
  - {Name: improved, Modulus: 200, Poisson: 0.40, Thickness: 500, Lower: 50, Upper: 800}
  - {Name: subgrade, Modulus: 100, Poisson: 0.40, Lower: 20, Upper: 400}
Radii: [0, 300, 600, 900, 1200, 1500, 1800, 2000, 3000, 4000]
Deflections: [442, 309, 217, 168, 138, 117, 101, 92, 62, 46] # optional
DeflectionUnits: um
########################################
`

func readSurvey(file string) (s *InputParameters.Survey, err error) {
	var data []byte
	if len(file) == 0 {
		fmt.Printf("Example File:%s\n", exampleSurvey)
		return nil, fmt.Errorf("must supply a survey file (-I, --inputFile)")
	}
	if data, err = os.ReadFile(file); err != nil {
		return
	}
	s = &InputParameters.Survey{}
	if err = s.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return
}

// kernelOptions collects the forward model settings from flags, config and environment
func kernelOptions() (opt layered.Options, err error) {
	opt = layered.Options{
		DisableTruncation: viper.GetBool("kernel.full"),
		Workers:           viper.GetInt("kernel.workers"),
		Logger:            logger,
	}
	opt.OrderBase, err = layered.ParseOrderBase(viper.GetString("kernel.orderBase"))
	return
}

func printBasin(radii, u [layered.NumRadii]float64, observed *[layered.NumRadii]float64) {
	if observed == nil {
		fmt.Printf("%10s %14s\n", "r [mm]", "u [mm]")
	} else {
		fmt.Printf("%10s %14s %14s %10s\n", "r [mm]", "u [mm]", "measured", "error %")
	}
	for i := range radii {
		if observed == nil {
			fmt.Printf("%10.1f %14.6e\n", radii[i], u[i])
			continue
		}
		fmt.Printf("%10.1f %14.6e %14.6e %10.3f\n", radii[i], u[i], observed[i],
			100*(u[i]-observed[i])/observed[i])
	}
}
