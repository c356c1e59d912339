// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"debug/elf"
	"encoding/binary"
)

// amd64Backend implements the handful of R_X86_64 relocation types an
// RTL loader actually needs for relocatable object files: absolute
// and PC-relative references (64, 32, 32S, PC32, PLT32) plus RELATIVE
// and GLOB_DAT. JMP_SLOT and other types are reported as unsupported.
type amd64Backend struct{}

func (amd64Backend) ResolveSym(typ uint32) bool {
	switch elf.R_X86_64(typ) {
	case elf.R_X86_64_RELATIVE, elf.R_X86_64_NONE:
		return false
	}
	return true
}

func (b amd64Backend) RelocateRel(t Target, r Rel) error {
	// REL-style x86-64 relocatable objects are rare (the ABI normally
	// uses RELA for this ISA); treat the existing bytes as the addend.
	switch elf.R_X86_64(r.Type) {
	case elf.R_X86_64_64:
		addend := int64(binary.LittleEndian.Uint64(t.Section[r.Offset:]))
		return writeAt(t, r.Offset, 8, t.SymValue+uint64(addend))
	case elf.R_X86_64_32:
		addend := int64(int32(binary.LittleEndian.Uint32(t.Section[r.Offset:])))
		return writeAt(t, r.Offset, 4, t.SymValue+uint64(addend))
	case elf.R_X86_64_PC32:
		addend := int64(int32(binary.LittleEndian.Uint32(t.Section[r.Offset:])))
		pc := t.TargetBase + r.Offset
		val := int64(t.SymValue) + addend - int64(pc)
		return writeAt(t, r.Offset, 4, uint64(uint32(val)))
	}
	return &ErrUnsupportedType{"amd64", r.Type}
}

func (b amd64Backend) RelocateRela(t Target, r Rela) error {
	switch elf.R_X86_64(r.Type) {
	case elf.R_X86_64_64, elf.R_X86_64_GLOB_DAT:
		return writeAt(t, r.Offset, 8, uint64(int64(t.SymValue)+r.Addend))
	case elf.R_X86_64_32, elf.R_X86_64_32S:
		return writeAt(t, r.Offset, 4, uint64(int64(t.SymValue)+r.Addend))
	case elf.R_X86_64_PC32, elf.R_X86_64_PLT32:
		pc := t.TargetBase + r.Offset
		val := int64(t.SymValue) + r.Addend - int64(pc)
		return writeAt(t, r.Offset, 4, uint64(uint32(val)))
	case elf.R_X86_64_RELATIVE:
		return writeAt(t, r.Offset, 8, uint64(int64(t.TargetBase)+r.Addend))
	}
	return &ErrUnsupportedType{"amd64", r.Type}
}

func writeAt(t Target, offset uint64, size int, value uint64) error {
	if int(offset)+size > len(t.Section) {
		return &ErrUnsupportedType{"amd64", 0}
	}
	switch size {
	case 4:
		binary.LittleEndian.PutUint32(t.Section[offset:], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(t.Section[offset:], value)
	}
	return nil
}
