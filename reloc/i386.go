// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"debug/elf"
	"encoding/binary"
)

// i386Backend implements REL-style (the normal encoding for this ISA)
// relocations for 32-bit ELF relocatable objects.
type i386Backend struct{}

func (i386Backend) ResolveSym(typ uint32) bool {
	switch elf.R_386(typ) {
	case elf.R_386_RELATIVE, elf.R_386_NONE:
		return false
	}
	return true
}

func (b i386Backend) RelocateRel(t Target, r Rel) error {
	if int(r.Offset)+4 > len(t.Section) {
		return &ErrUnsupportedType{"386", r.Type}
	}
	addend := int32(binary.LittleEndian.Uint32(t.Section[r.Offset:]))
	switch elf.R_386(r.Type) {
	case elf.R_386_32, elf.R_386_GLOB_DAT:
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(int64(t.SymValue)+int64(addend)))
		return nil
	case elf.R_386_PC32, elf.R_386_PLT32:
		pc := t.TargetBase + r.Offset
		val := int64(t.SymValue) + int64(addend) - int64(pc)
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(val))
		return nil
	case elf.R_386_RELATIVE:
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(int64(t.TargetBase)+int64(addend)))
		return nil
	}
	return &ErrUnsupportedType{"386", r.Type}
}

func (b i386Backend) RelocateRela(t Target, r Rela) error {
	if int(r.Offset)+4 > len(t.Section) {
		return &ErrUnsupportedType{"386", r.Type}
	}
	switch elf.R_386(r.Type) {
	case elf.R_386_32:
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(int64(t.SymValue)+r.Addend))
		return nil
	case elf.R_386_PC32:
		pc := t.TargetBase + r.Offset
		val := int64(t.SymValue) + r.Addend - int64(pc)
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(val))
		return nil
	case elf.R_386_RELATIVE:
		binary.LittleEndian.PutUint32(t.Section[r.Offset:], uint32(int64(t.TargetBase)+r.Addend))
		return nil
	}
	return &ErrUnsupportedType{"386", r.Type}
}
