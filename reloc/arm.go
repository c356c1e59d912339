// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"debug/elf"
	"encoding/binary"
)

// armBackend implements the small set of ARM relocation types needed
// to load a relocatable ARM object, grounded directly on the
// arithmetic of RTEMS's rtl-mdreloc-arm.c: PC24 branch-displacement
// encoding, ABS32/GLOB_DAT with the Thumb bit folded into the low bit
// of the stored value, and RELATIVE. COPY is explicitly unsupported,
// matching the original (it has no meaning for a relocatable object:
// there is no dynamic linker to elide the copy).
type armBackend struct{}

func (armBackend) ResolveSym(typ uint32) bool {
	switch elf.R_ARM(typ) {
	case elf.R_ARM_RELATIVE, elf.R_ARM_NONE:
		return false
	}
	return true
}

func (b armBackend) RelocateRel(t Target, r Rel) error {
	if int(r.Offset)+4 > len(t.Section) {
		return &ErrUnsupportedType{"arm", r.Type}
	}
	switch elf.R_ARM(r.Type) {
	case elf.R_ARM_PC24:
		word := binary.LittleEndian.Uint32(t.Section[r.Offset:])
		addend := int32(word&0x00ffffff) << 8 >> 6 // sign-extend 24-bit offset, word-aligned
		pc := t.TargetBase + r.Offset
		val := int64(t.SymValue) + int64(addend) - int64(pc)
		if val > (1<<25)-1 || val < -(1<<25) {
			return &ErrUnsupportedType{"arm", r.Type} // out of PC24 range
		}
		encoded := (word &^ 0x00ffffff) | (uint32(val>>2) & 0x00ffffff)
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], encoded)
		return nil
	case elf.R_ARM_ABS32, elf.R_ARM_GLOB_DAT:
		addend := int32(binary.LittleEndian.Uint32(t.Section[r.Offset:]))
		val := t.SymValue + uint64(addend)
		val = foldThumbBit(val, t.SymValue)
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(val))
		return nil
	case elf.R_ARM_RELATIVE:
		addend := int32(binary.LittleEndian.Uint32(t.Section[r.Offset:]))
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(int64(t.TargetBase)+int64(addend)))
		return nil
	case elf.R_ARM_COPY:
		return &ErrUnsupportedType{"arm", r.Type}
	}
	return &ErrUnsupportedType{"arm", r.Type}
}

func (b armBackend) RelocateRela(t Target, r Rela) error {
	if int(r.Offset)+4 > len(t.Section) {
		return &ErrUnsupportedType{"arm", r.Type}
	}
	switch elf.R_ARM(r.Type) {
	case elf.R_ARM_ABS32, elf.R_ARM_GLOB_DAT:
		val := foldThumbBit(uint64(int64(t.SymValue)+r.Addend), t.SymValue)
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(val))
		return nil
	case elf.R_ARM_RELATIVE:
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(int64(t.TargetBase)+r.Addend))
		return nil
	}
	return &ErrUnsupportedType{"arm", r.Type}
}

// foldThumbBit mirrors the original's handling of Thumb-mode function
// symbols: bit 0 of the symbol's value (the ISA-selector bit set by
// the assembler for Thumb code) is preserved in the relocated word
// rather than being treated as part of the address.
func foldThumbBit(val, symValue uint64) uint64 {
	if symValue&1 != 0 {
		return val | 1
	}
	return val &^ 1
}
