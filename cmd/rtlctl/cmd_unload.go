// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// unloadCmd loads then immediately unloads name, since a *object.Object
// handle never survives across separate rtlctl invocations. It exists
// mainly to exercise and report the teardown path (destructors,
// symbol erasure) for a single object in isolation.
var unloadCmd = &cobra.Command{
	Use:   "unload <object[@offset]|archive:object[@offset]>",
	Short: "Load then unload an object, reporting teardown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := rtlInstance.LoadObject(args[0], defaultMachines())
		if err != nil {
			return err
		}
		if err := rtlInstance.UnloadObject(obj); err != nil {
			return err
		}
		fmt.Printf("unloaded %s\n", args[0])
		return nil
	},
}

func init() {
	RootCmd.AddCommand(unloadCmd)
}
