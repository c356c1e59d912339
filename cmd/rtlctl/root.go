// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-rtl/rtl/config"
	"github.com/go-rtl/rtl/rtl"
)

var cfgFile string

// RootCmd is the base command when rtlctl is called without a
// subcommand.
var RootCmd = &cobra.Command{
	Use:   "rtlctl",
	Short: "Operate a runtime link editor instance",
	Long: `rtlctl is a single-shot front end over the rtl package: it loads or
unloads an object, looks up a symbol, dumps the object chain, or shows
diagnostics, then exits. It does not keep an RTL instance resident
between invocations.`,
}

// Execute adds all child commands and runs RootCmd. Called by main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .rtlrc.yaml)")
	cobra.OnInitialize(initConfig)
}

// initConfig reads the config file and RTL_-prefixed environment
// variables via the config package, following cucaracha's
// cmd/root.go initConfig, then applies the result to rtlInstance.
func initConfig() {
	path := cfgFile
	if path == "" {
		path = ".rtlrc.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		colorError.Fprintf(os.Stderr, "config: %v\n", err)
		return
	}
	if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", cfgFile)
	}

	rtlInstance = rtl.NewWithConfig(cfg)
}

// rtlInstance is shared across a single rtlctl invocation's
// subcommand; it is not persisted between process runs.
var rtlInstance = rtl.New()
