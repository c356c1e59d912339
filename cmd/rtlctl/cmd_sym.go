// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var symCmd = &cobra.Command{
	Use:   "sym <object[@offset]> <symbol>",
	Short: "Load an object and look up one of its symbols",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := rtlInstance.LoadObject(args[0], defaultMachines())
		if err != nil {
			return err
		}
		value, ok := rtlInstance.Sym(obj, args[1])
		if !ok {
			return fmt.Errorf("symbol %q not found in %s", args[1], args[0])
		}
		fmt.Printf("%#016x %s\n", value, args[1])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(symCmd)
}
