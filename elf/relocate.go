// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf

import (
	"fmt"

	"github.com/go-rtl/rtl/object"
	"github.com/go-rtl/rtl/reloc"
)

const (
	relEntSize32  = 8
	relaEntSize32 = 12
	relEntSize64  = 16
	relaEntSize64 = 24
)

// relocate walks each relocation section and applies its entries
// against the already-placed symbol values.
func (l *loader) relocate() error {
	var unresolved int
	for _, relSec := range l.obj.Sections {
		isRela := relSec.Flags.Has(object.SectRela)
		if !relSec.Flags.Has(object.SectRel) && !isRela {
			continue
		}
		target := l.obj.FindSectionByIndex(relSec.Info)
		if target == nil {
			continue // target section was dropped (e.g. debug info)
		}
		symSec := findFlag(l.obj.Sections, object.SectSym)
		n, entSize := l.relocCount(relSec, isRela)
		for i := 0; i < n; i++ {
			off := int64(relSec.Offset) + int64(i)*int64(entSize)
			buf, err := l.caches.Relocs.Read(off, entSize)
			if err != nil || len(buf) < entSize {
				return fmt.Errorf("elf: reading relocation %d in %s: %w", i, relSec.Name, err)
			}
			unres, err := l.applyOne(buf, isRela, target, symSec)
			if err != nil {
				return err
			}
			if unres {
				unresolved++
			}
		}
	}
	if unresolved > 0 {
		l.obj.Flags |= object.Unresolved
	}
	return nil
}

func (l *loader) relocCount(sec *object.Section, isRela bool) (n, entSize int) {
	entSize = relEntSize32
	if isRela {
		entSize = relaEntSize32
	}
	if l.is64 {
		entSize = relEntSize64
		if isRela {
			entSize = relaEntSize64
		}
	}
	return int(sec.Size) / entSize, entSize
}

func (l *loader) applyOne(buf []byte, isRela bool, target, symSec *object.Section) (unresolved bool, err error) {
	var offset uint64
	var symIdx uint32
	var typ uint32
	var addend int64

	if l.is64 {
		offset = l.bo.Uint64(buf[0:8])
		info := l.bo.Uint64(buf[8:16])
		symIdx = uint32(info >> 32)
		typ = uint32(info)
		if isRela {
			addend = int64(l.bo.Uint64(buf[16:24]))
		}
	} else {
		offset = uint64(l.bo.Uint32(buf[0:4]))
		info := l.bo.Uint32(buf[4:8])
		symIdx = info >> 8
		typ = info & 0xff
		if isRela {
			addend = int64(int32(l.bo.Uint32(buf[8:12])))
		}
	}

	symValue, symName, resolved, err := l.resolveSymbol(symSec, symIdx, typ)
	if err != nil {
		return false, err
	}
	if !resolved {
		return true, nil
	}

	t := reloc.Target{
		Section:    target.Bytes(&l.obj.MemoryMap),
		TargetBase: target.Base,
		SymValue:   symValue,
		SymName:    symName,
	}
	if isRela {
		err = l.backend.RelocateRela(t, reloc.Rela{Offset: offset, Type: typ, Sym: symIdx, Addend: addend})
	} else {
		err = l.backend.RelocateRel(t, reloc.Rel{Offset: offset, Type: typ, Sym: symIdx})
	}
	return false, err
}

// resolveSymbol finds the value of the relocation's referenced
// symbol, consulting the global table (via l.resolver) rather than
// the per-object table, so a later-loaded object's definition can
// interpose over an earlier one's.
func (l *loader) resolveSymbol(symSec *object.Section, symIdx, typ uint32) (value uint64, name string, ok bool, err error) {
	if !l.backend.ResolveSym(typ) {
		return 0, "", true, nil
	}
	if symSec == nil {
		return 0, "", false, nil
	}
	entSize := symEntSize32
	if l.is64 {
		entSize = symEntSize64
	}
	buf, rerr := l.caches.Symbols.Read(int64(symSec.Offset)+int64(symIdx)*int64(entSize), entSize)
	if rerr != nil || len(buf) < entSize {
		return 0, "", false, fmt.Errorf("elf: reading referenced symbol %d: %w", symIdx, rerr)
	}
	var nameOff uint32
	if l.is64 {
		nameOff = l.bo.Uint32(buf[0:4])
	} else {
		nameOff = l.bo.Uint32(buf[0:4])
	}
	name = l.cstr(l.strtab, nameOff)
	if name == "" {
		return 0, "", false, nil
	}
	if l.resolver == nil {
		return 0, name, false, nil
	}
	v, ok := l.resolver.Lookup(name)
	if !ok {
		return 0, name, false, nil
	}
	return v, name, true, nil
}
