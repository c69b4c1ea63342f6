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
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  = log.New()
	// stops the profile started by --profile
	stopProfile func()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gopave",
	Short: "Layered elastic pavement deflection and modulus back calculation",
	Long: `
Computes surface deflection basins of a five layer elastic half-space under a
circular load, and back calculates the layer moduli from a measured basin.

gopave forward -I survey.yaml
gopave backcalc -I survey.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if err = setupLogger(viper.GetString("log.level")); err != nil {
			return
		}
		stopProfile = startProfile(viper.GetString("profile"))
		return
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if stopProfile != nil {
			stopProfile()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gopave.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("profile", "", "write a cpu or mem profile for the run")
	rootCmd.PersistentFlags().Bool("full", false, "sum all panels of the transform integral, no truncation")
	rootCmd.PersistentFlags().Int("workers", 1, "radii evaluated concurrently")
	rootCmd.PersistentFlags().String("order-base", "PanelRoot", "panel order base: PanelRoot or FirstBoundaryRoot")
	bindFlags(rootCmd, map[string]string{
		"log.level":        "log-level",
		"profile":          "profile",
		"kernel.full":      "full",
		"kernel.workers":   "workers",
		"kernel.orderBase": "order-base",
	}, true)
}

func bindFlags(cmd *cobra.Command, keys map[string]string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for key, flag := range keys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".gopave" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".gopave")
	}

	viper.SetEnvPrefix("GOPAVE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func setupLogger(level string) (err error) {
	var lvl log.Level
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	if lvl, err = log.ParseLevel(level); err != nil {
		return
	}
	logger.SetLevel(lvl)
	// package level diagnostics, e.g. quadrature order fallback
	log.SetLevel(lvl)
	return
}

func startProfile(kind string) func() {
	switch strings.ToLower(kind) {
	case "":
		return nil
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop
	}
	logger.Warnf("unknown profile %q, not profiling", kind)
	return nil
}
