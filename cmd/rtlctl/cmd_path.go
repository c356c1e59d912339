// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Inspect or modify the object search path",
}

var pathAppendCmd = &cobra.Command{
	Use:   "append <dir>",
	Short: "Append dir to the search path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rtlInstance.PathAppend(args[0])
		fmt.Println(rtlInstance.Path())
		return nil
	},
}

var pathPrependCmd = &cobra.Command{
	Use:   "prepend <dir>",
	Short: "Prepend dir to the search path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rtlInstance.PathPrepend(args[0])
		fmt.Println(rtlInstance.Path())
		return nil
	},
}

func init() {
	pathCmd.AddCommand(pathAppendCmd, pathPrependCmd)
	RootCmd.AddCommand(pathCmd)
}
