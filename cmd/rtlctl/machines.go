// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/go-rtl/rtl/reloc"
	"github.com/go-rtl/rtl/rtl"
)

// defaultMachines returns every architecture this build has a
// relocation back end for. rtlctl is a generic operator tool, so it
// doesn't assume the host's own GOARCH is the only one worth trying;
// the object's own machine-type field picks the right one.
func defaultMachines() []rtl.Machine {
	var machs []rtl.Machine
	for _, goarch := range []string{"amd64", "386", "arm"} {
		if b := reloc.ForGoArch(goarch); b != nil {
			machs = append(machs, rtl.Machine{GoArch: goarch, Backend: b})
		}
	}
	return machs
}
