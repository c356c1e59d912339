// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reloc

import (
	"debug/elf"
	"encoding/binary"
	"testing"
)

func TestAMD64RelativeRela(t *testing.T) {
	b := ForGoArch("amd64")
	sec := make([]byte, 16)
	tgt := Target{Section: sec, TargetBase: 0x1000}
	err := b.RelocateRela(tgt, Rela{Offset: 0, Type: uint32(elf.R_X86_64_RELATIVE), Addend: 0x20})
	if err != nil {
		t.Fatal(err)
	}
	got := binary.LittleEndian.Uint64(sec)
	if got != 0x1020 {
		t.Fatalf("got 0x%x, want 0x1020", got)
	}
}

func TestAMD64PC32Rela(t *testing.T) {
	b := ForGoArch("amd64")
	sec := make([]byte, 16)
	tgt := Target{Section: sec, TargetBase: 0x2000, SymValue: 0x2100}
	err := b.RelocateRela(tgt, Rela{Offset: 4, Type: uint32(elf.R_X86_64_PC32), Addend: 0})
	if err != nil {
		t.Fatal(err)
	}
	got := int32(binary.LittleEndian.Uint32(sec[4:]))
	want := int32(0x2100 - (0x2000 + 4))
	if got != want {
		t.Fatalf("got %d, want %d", got, want)
	}
}

func TestI386ResolveSym(t *testing.T) {
	b := ForGoArch("386")
	if b.ResolveSym(uint32(elf.R_386_RELATIVE)) {
		t.Fatalf("R_386_RELATIVE should not require symbol resolution")
	}
	if !b.ResolveSym(uint32(elf.R_386_32)) {
		t.Fatalf("R_386_32 should require symbol resolution")
	}
}

func TestARMAbsThumbBit(t *testing.T) {
	b := ForGoArch("arm")
	sec := make([]byte, 8)
	// Thumb function: symbol value has bit 0 set.
	tgt := Target{Section: sec, TargetBase: 0x8000, SymValue: 0x4001}
	err := b.RelocateRel(tgt, Rel{Offset: 0, Type: uint32(elf.R_ARM_ABS32)})
	if err != nil {
		t.Fatal(err)
	}
	got := binary.LittleEndian.Uint32(sec)
	if got&1 == 0 {
		t.Fatalf("expected thumb bit preserved, got 0x%x", got)
	}
}

func TestARMUnsupportedCopy(t *testing.T) {
	b := ForGoArch("arm")
	sec := make([]byte, 8)
	err := b.RelocateRel(Target{Section: sec}, Rel{Type: uint32(elf.R_ARM_COPY)})
	if err == nil {
		t.Fatalf("expected R_ARM_COPY to be unsupported")
	}
}
