// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rap

import (
	"fmt"

	"github.com/go-rtl/rtl/object"
)

// readSymbols reads symtab_size/(3*4) triples of (data, name, value).
func (l *loader) readSymbols() error {
	const entSize = 3 * 4
	if l.symtabSize%entSize != 0 {
		return fmt.Errorf("rap: symtab_size %d not a multiple of %d", l.symtabSize, entSize)
	}
	n := int(l.symtabSize / entSize)
	syms := make([]object.Symbol, 0, n)
	for i := 0; i < n; i++ {
		data, err := l.u32()
		if err != nil {
			return fmt.Errorf("rap: reading symbol %d: %w", i, err)
		}
		nameOff, err := l.u32()
		if err != nil {
			return err
		}
		value, err := l.u32()
		if err != nil {
			return err
		}

		secIdx := int(data >> 16)
		// The low byte is an ELF st_info: bind in the high nibble,
		// type in the low nibble.
		bindType := uint8(data & 0xff)

		var sec *object.Section
		if secIdx < len(l.obj.Sections) {
			sec = l.obj.Sections[secIdx]
		}

		sym := object.Symbol{Name: l.cstr(nameOff)}
		switch bindType >> 4 {
		case 1: // STB_GLOBAL
			sym.Bind = object.BindGlobal
		case 2: // STB_WEAK
			sym.Bind = object.BindWeak
		}
		if bindType&0xf == 2 { // STT_FUNC
			sym.Kind = object.KindText
		} else {
			sym.Kind = object.KindData
		}
		if sec != nil {
			sym.Section = sec
			sym.Value = sec.Base + uint64(value)
		} else {
			sym.Value = uint64(value)
		}
		syms = append(syms, sym)
	}
	object.SynthesizeSizes(syms)
	l.obj.Symbols = object.SymbolBlock{Symbols: syms}
	return nil
}
