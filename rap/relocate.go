// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rap

import (
	"fmt"
	"io"

	"github.com/go-rtl/rtl/object"
	"github.com/go-rtl/rtl/reloc"
)

// readRelocations reads, per section (in the same fixed six-section
// order), a header word then that many relocation records.
func (l *loader) readRelocations() error {
	var unresolved int
	for _, sec := range l.obj.Sections {
		header, err := l.u32()
		if err != nil {
			return fmt.Errorf("rap: reading reloc header for %s: %w", sec.Name, err)
		}
		isRela := header&0x80000000 != 0
		count := int(header & 0x7fffffff)
		for i := 0; i < count; i++ {
			unres, err := l.applyOne(sec, isRela)
			if err != nil {
				return fmt.Errorf("rap: relocation %d in %s: %w", i, sec.Name, err)
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

func (l *loader) applyOne(sec *object.Section, isRela bool) (unresolved bool, err error) {
	info, err := l.u32()
	if err != nil {
		return false, err
	}
	offset, err := l.u32()
	if err != nil {
		return false, err
	}
	var addend int64
	typ := info & 0xff

	symValue, symName, resolved, err := l.resolveSymbol(info)
	if err != nil {
		return false, err
	}
	needsAddend := isRela || info&0x80000000 == 0 // section-relative always carries an addend slot
	if needsAddend {
		a, err := l.u32()
		if err != nil {
			return false, err
		}
		addend = int64(int32(a))
	}
	if !resolved {
		return true, nil
	}

	t := reloc.Target{
		Section:    sec.Bytes(&l.obj.MemoryMap),
		TargetBase: sec.Base,
		SymValue:   symValue,
		SymName:    symName,
	}
	if isRela {
		err = l.backend.RelocateRela(t, reloc.Rela{Offset: uint64(offset), Type: typ, Addend: addend})
	} else {
		err = l.backend.RelocateRel(t, reloc.Rel{Offset: uint64(offset), Type: typ})
	}
	return false, err
}

// resolveSymbol decodes the RAP relocation record's symbol-kind
// encoding:
//   - bit 31 clear: info>>8 names a section index; value = that
//     section's base (the addend supplies the offset within it).
//   - bit 31 set, bit 30 clear: an inlined name of (info&0x3FFFFF00)>>8
//     bytes follows in the stream; resolve via the global table.
//   - bit 31 set, bit 30 set: that same field is an offset into the
//     already-loaded string table.
func (l *loader) resolveSymbol(info uint32) (value uint64, name string, ok bool, err error) {
	if info&0x80000000 == 0 {
		secIdx := int(info >> 8)
		if secIdx < 0 || secIdx >= len(l.obj.Sections) {
			return 0, "", false, fmt.Errorf("section index %d out of range", secIdx)
		}
		return l.obj.Sections[secIdx].Base, "", true, nil
	}
	length := int((info & 0x3fffff00) >> 8)
	if info&0x40000000 == 0 {
		buf := make([]byte, length)
		if _, err := io.ReadFull(l.r, buf); err != nil {
			return 0, "", false, fmt.Errorf("reading inline symbol name: %w", err)
		}
		name = string(buf)
	} else {
		name = l.cstr(uint32(length))
	}
	if l.resolver == nil {
		return 0, name, false, nil
	}
	v, found := l.resolver.Lookup(name)
	if !found {
		return 0, name, false, nil
	}
	return v, name, true, nil
}
