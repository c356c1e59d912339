// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-rtl/rtl/alloc"
)

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Dump the diagnostic ring buffer and any unresolved objects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, rec := range rtlInstance.Diag.Records() {
			fmt.Printf("[%s] %s %v\n", rec.Level, rec.Message, rec.Attrs)
		}
		if last := rtlInstance.Error(); last != "" {
			colorError.Printf("last error: %s\n", last)
		}
		for _, o := range rtlInstance.Objects() {
			if flagString(o.Flags) != "-" {
				fmt.Printf("%-20s %s\n", o.Oname, flagString(o.Flags))
			}
		}
		stats := rtlInstance.Alloc.Stats()
		for _, tag := range []alloc.Tag{alloc.Symbol, alloc.String, alloc.ObjectDesc, alloc.Module} {
			fmt.Printf("alloc %-8s %d live\n", tag, stats[tag])
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(diagCmd)
}
