// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var colorAddr = color.New(color.FgYellow)
var colorValue = color.New(color.FgWhite)

var nmCmd = &cobra.Command{
	Use:   "nm <object[@offset]|archive:object[@offset]>",
	Short: "Load an object and dump its symbol table, nm-style",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := rtlInstance.LoadObject(args[0], defaultMachines())
		if err != nil {
			return err
		}
		for _, sym := range obj.Symbols.Symbols {
			colorAddr.Printf("%016x", sym.Value)
			fmt.Print(" ")
			colorValue.Printf("%c %s\n", byte(sym.Kind), sym.Name)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(nmCmd)
}
