// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	rtlarch "github.com/go-rtl/rtl/arch"
	"github.com/go-rtl/rtl/disasm"
)

var disasmArch string

var disasmCmd = &cobra.Command{
	Use:   "disasm <object[@offset]> <section>",
	Short: "Load an object and disassemble one of its sections",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		obj, err := rtlInstance.LoadObject(args[0], defaultMachines())
		if err != nil {
			return err
		}
		sec := obj.FindSection(args[1])
		if sec == nil {
			return fmt.Errorf("no section named %q in %s", args[1], args[0])
		}
		a := rtlarch.ByGoArch[disasmArch]
		if a == nil {
			return fmt.Errorf("unknown architecture %q", disasmArch)
		}
		seq, err := disasm.DisasmSection(a, sec, &obj.MemoryMap)
		if err != nil {
			return err
		}
		symName := func(addr uint64) (string, uint64) {
			for _, s := range obj.Symbols.Symbols {
				if s.Value == addr {
					return s.Name, 0
				}
			}
			return "", 0
		}
		for i := 0; i < seq.Len(); i++ {
			inst := seq.Get(i)
			colorAddr.Printf("%016x  ", inst.PC())
			fmt.Println(inst.GoSyntax(symName))
		}
		return nil
	},
}

func init() {
	disasmCmd.Flags().StringVar(&disasmArch, "arch", "amd64", "GOARCH-style architecture name")
	RootCmd.AddCommand(disasmCmd)
}
