// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-rtl/rtl/object"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the currently loaded object chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		objs := rtlInstance.Objects()
		if len(objs) == 0 {
			fmt.Println("(no objects loaded)")
			return nil
		}
		colorHeader.Println("NAME                 USERS  FLAGS")
		for _, o := range objs {
			fmt.Printf("%-20s %5d  %s\n", o.Oname, o.Users, flagString(o.Flags))
		}
		return nil
	},
}

func flagString(f object.Flags) string {
	s := ""
	if f.Has(object.Locked) {
		s += "L"
	}
	if f.Has(object.Unresolved) {
		s += "U"
	}
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	RootCmd.AddCommand(lsCmd)
}
