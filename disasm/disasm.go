// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm abstracts disassembling machine code from the
// architectures the RTL can load objects for. It exists for the
// rtlctl disasm operator command, not for the loader itself: nothing
// in elf/rap/reloc depends on it.
package disasm

import (
	"fmt"

	"github.com/go-rtl/rtl/arch"
	"github.com/go-rtl/rtl/object"
)

// Disasm disassembles machine code for the given architecture. pc is
// the program counter at which text begins.
func Disasm(a *arch.Arch, text []byte, pc uint64) (Seq, error) {
	switch a.GoArch {
	case "amd64":
		return disasmX86(text, pc, 64), nil
	case "386":
		return disasmX86(text, pc, 32), nil
	case "arm":
		return disasmARM(text, pc), nil
	case "arm64":
		return disasmARM64(text, pc), nil
	}
	return nil, fmt.Errorf("unsupported assembly architecture: %s", a)
}

// DisasmSection disassembles a loaded, relocated section directly, so
// rtlctl disasm can be pointed at a module's section by name without
// the caller having to pull out raw bytes and an address itself.
func DisasmSection(a *arch.Arch, sec *object.Section, m *object.MemoryMap) (Seq, error) {
	return Disasm(a, sec.Bytes(m), sec.Base)
}

// Seq is a sequence of instructions.
type Seq interface {
	Len() int
	Get(i int) Inst
}

// Inst is a single machine instruction.
type Inst interface {
	// GoSyntax returns the Go assembler syntax representation of
	// this instruction. symname, if non-nil, must return the name
	// and base of the symbol containing address addr, or "" if
	// symbol lookup fails.
	GoSyntax(symName func(addr uint64) (string, uint64)) string

	// PC returns the address of this instruction.
	PC() uint64

	// Len returns the length of this instruction in bytes.
	Len() int

	// Control returns the control-flow effects of this
	// instruction.
	Control() Control
}

// Control captures control-flow effects of an instruction.
type Control struct {
	Type        ControlType
	Conditional bool
	TargetPC    uint64
	Target      Arg
}

type ControlType uint8

const (
	ControlNone ControlType = iota
	ControlJump
	ControlCall
	ControlRet

	// ControlJumpUnknown is a jump with an unknown target. This
	// means the control analysis could be incomplete, since this
	// could jump to an instruction in the analyzed function.
	ControlJumpUnknown

	// ControlExit is like a call that never returns.
	ControlExit
)

// Arg is an argument to an instruction.
type Arg interface {
}
