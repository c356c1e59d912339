// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/go-rtl/rtl/object"
)

const (
	symEntSize32 = 16
	symEntSize64 = 24
)

// ingestSymbols walks the symbol table, keeps only GLOBAL/WEAK
// OBJECT/FUNC symbols, and builds the object's own dense SymbolBlock.
func (l *loader) ingestSymbols() error {
	symSec := findFlag(l.obj.Sections, object.SectSym)
	if symSec == nil {
		return nil // no symbols, nothing to do
	}
	strSec := l.obj.FindSectionByIndex(symSec.Link)
	if strSec == nil {
		return fmt.Errorf("elf: symtab has no linked strtab")
	}
	strtab := make([]byte, strSec.Size)
	if _, err := l.r.ReadAt(strtab, int64(strSec.Offset)); err != nil && err != io.EOF {
		return fmt.Errorf("elf: reading strtab: %w", err)
	}
	l.strtab = strtab

	entSize := symEntSize32
	if l.is64 {
		entSize = symEntSize64
	}
	n := int(symSec.Size) / entSize

	var syms []object.Symbol
	for i := 0; i < n; i++ {
		buf, err := l.caches.Symbols.Read(int64(symSec.Offset)+int64(i)*int64(entSize), entSize)
		if err != nil || len(buf) < entSize {
			return fmt.Errorf("elf: reading symbol %d: %w", i, err)
		}
		var nameOff uint32
		var info, other byte
		var shndx uint16
		var value, size uint64
		if l.is64 {
			nameOff = l.bo.Uint32(buf[0:4])
			info = buf[4]
			other = buf[5]
			shndx = l.bo.Uint16(buf[6:8])
			value = l.bo.Uint64(buf[8:16])
			size = l.bo.Uint64(buf[16:24])
		} else {
			nameOff = l.bo.Uint32(buf[0:4])
			value = uint64(l.bo.Uint32(buf[4:8]))
			size = uint64(l.bo.Uint32(buf[8:12]))
			info = buf[12]
			other = buf[13]
			shndx = l.bo.Uint16(buf[14:16])
		}
		_ = other
		bind := elf.ST_BIND(info)
		typ := elf.ST_TYPE(info)
		if typ != elf.STT_OBJECT && typ != elf.STT_FUNC {
			continue
		}
		if bind != elf.STB_GLOBAL && bind != elf.STB_WEAK {
			continue
		}
		name := l.cstr(strtab, nameOff)
		sec := l.obj.FindSectionByIndex(int(shndx))

		sym := object.Symbol{
			Name: name,
			Size: size,
		}
		switch typ {
		case elf.STT_FUNC:
			sym.Kind = object.KindText
		default:
			sym.Kind = object.KindData
		}
		switch bind {
		case elf.STB_WEAK:
			sym.Bind = object.BindWeak
		default:
			sym.Bind = object.BindGlobal
		}
		if sec != nil {
			sym.Section = sec
			sym.Value = sec.Base + value
		} else {
			sym.Value = value
		}
		syms = append(syms, sym)
	}

	object.SynthesizeSizes(syms)
	l.obj.Symbols = object.SymbolBlock{Symbols: syms}
	return nil
}

func (l *loader) cstr(b []byte, off uint32) string {
	end := int(off)
	for end < len(b) && b[end] != 0 {
		end++
	}
	if int(off) > len(b) {
		return ""
	}
	return string(b[off:end])
}

func findFlag(sections []*object.Section, mask object.SectionFlags) *object.Section {
	for _, s := range sections {
		if s.Flags.Has(mask) {
			return s
		}
	}
	return nil
}
