// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <object[@offset]|archive:object[@offset]>",
	Short: "Load an object into the RTL instance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := rtlInstance.LoadObject(args[0], defaultMachines())
		if err != nil {
			return err
		}
		colorSuccess.Printf("loaded %s", obj.Oname)
		fmt.Printf(" (users=%d, symbols=%d)\n", obj.Users, len(obj.Symbols.Symbols))
		return nil
	},
}

var colorSuccess = color.New(color.FgGreen, color.Bold)
var colorError = color.New(color.FgRed, color.Bold)
var colorHeader = color.New(color.FgCyan, color.Bold)

func init() {
	RootCmd.AddCommand(loadCmd)
}
