// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package object

import "github.com/go-rtl/rtl/arch"

// MemoryMap is the single allocation backing an object's text, const,
// data and bss regions: one contiguous buffer carved into four
// non-overlapping regions. Zeroing of the bss region is the loader's
// job, not MemoryMap's.
type MemoryMap struct {
	Buf    []byte
	Addr   uint64
	Layout arch.Layout

	// Bases holds the starting address of each of the four classes,
	// indexed by Class (classNone is unused).
	Bases [numClasses]uint64
}

func (m *MemoryMap) base() uint64 { return m.Addr }

// ExecSize is the total size of the allocation.
func (m *MemoryMap) ExecSize() uint64 { return uint64(len(m.Buf)) }

// Place assigns addresses to every section in sections whose Class
// matches c, starting at base, each section rounded up to its own
// alignment; it returns the address just past the last section
// placed.
func Place(sections []*Section, c Class, base uint64) uint64 {
	addr := base
	for _, s := range sections {
		if s.Class() != c {
			continue
		}
		a := align(s.Alignment)
		addr = roundUp2(addr, a)
		s.Base = addr
		addr += s.Size
	}
	return addr
}
