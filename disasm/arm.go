// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disasm

import (
	"golang.org/x/arch/arm/armasm"
)

func disasmARM(text []byte, pc uint64) Seq {
	var out armSeq
	for len(text) > 0 {
		inst, err := armasm.Decode(text, armasm.ModeARM)
		size := inst.Len
		if err != nil || size == 0 || inst.Op == 0 {
			inst = armasm.Inst{}
		}
		if size == 0 {
			size = 4
		}
		out = append(out, armInst{inst, pc})

		text = text[size:]
		pc += uint64(size)
	}
	return out
}

type armSeq []armInst

func (s armSeq) Len() int         { return len(s) }
func (s armSeq) Get(i int) Inst   { return &s[i] }

type armInst struct {
	armasm.Inst
	pc uint64
}

func (i *armInst) GoSyntax(symname func(uint64) (string, uint64)) string {
	if i.Op == 0 {
		return "?"
	}
	return armasm.GoSyntax(i.Inst, i.pc, symname, nil)
}

func (i *armInst) PC() uint64  { return i.pc }
func (i *armInst) Len() int    { return i.Inst.Len }

func (i *armInst) Control() Control {
	var c Control
	switch i.Op {
	case armasm.B:
		c.Type = ControlJump
	case armasm.BL, armasm.BLX:
		c.Type = ControlCall
	case armasm.BX:
		c.Type = ControlJump
	}
	for _, arg := range i.Args {
		if rel, ok := arg.(armasm.PCRel); ok {
			c.TargetPC = uint64(int64(i.pc) + int64(rel))
		}
	}
	return c
}
