// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "sort"

// SynthesizeSizes assigns sizes to symbols that don't carry an
// explicit size, using the gap to the next symbol in the same section
// (or the end of the section for the last one). ELF relocatable
// objects built with -ffunction-sections sometimes omit symbol sizes.
// The loaders call this once per object after sections have been
// placed in memory (Section.Base is populated).
func SynthesizeSizes(syms []Symbol) {
	todo := []int{}
	for i := range syms {
		if syms[i].Section == nil {
			continue
		}
		sec := syms[i].Section
		if syms[i].Value > sec.Base+sec.Size {
			continue
		}
		todo = append(todo, i)
	}
	sort.Slice(todo, func(i, j int) bool {
		si, sj := &syms[todo[i]], &syms[todo[j]]
		if si.Section != sj.Section {
			return si.Section.Index < sj.Section.Index
		}
		return si.Value < sj.Value
	})

	// Assign sizes to zero-sized symbols within each section.
	for len(todo) != 0 {
		// Collect symbols that have the same value and
		// section. Most of the time we'll get groups of 1,
		// but sometimes there are multiple names for the same
		// address (especially in shared objects).
		s1 := &syms[todo[0]]
		group := 1
		anyZero := s1.Size == 0
		for group < len(todo) {
			s2 := &syms[todo[group]]
			if s1.Value != s2.Value || s1.Section != s2.Section {
				break
			}
			if s2.Size == 0 {
				anyZero = true
			}
			group++
		}
		if !anyZero {
			// They all have sizes. Move on.
			todo = todo[group:]
			continue
		}

		// Compute the size of these symbols.
		var size uint64
		// Cap symbols at the end of the section.

		if group == len(todo) || s1.Section != syms[todo[group]].Section {
			// Cap the symbols at the end of the section.
			size = s1.Section.Base + s1.Section.Size - s1.Value
		} else {
			size = syms[todo[group]].Value - s1.Value
		}

		// Apply this size to all zero-sized symbols in this group.
		for _, symi := range todo[:group] {
			if syms[symi].Size == 0 {
				syms[symi].Size = size
			}
		}
		todo = todo[group:]
	}
}
