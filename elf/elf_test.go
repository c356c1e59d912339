// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf

import (
	"bytes"
	gelf "debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rtl/rtl/object"
)

// buildTinyELF64 constructs a minimal ET_REL x86-64 object with one
// .text section and one GLOBAL FUNC symbol named "entry_point", and
// no relocations, entirely by hand (no cc available in this
// environment to produce a real object file).
func buildTinyELF64(t *testing.T) []byte {
	t.Helper()
	bo := binary.LittleEndian

	text := []byte{0x90, 0x90, 0x90, 0x90, 0xc3} // nop*4; ret
	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	strtab := []byte("\x00entry_point\x00")

	// Layout offsets, computed up front.
	const ehsize = 64
	textOff := int64(ehsize)
	textSize := int64(len(text))

	shstrtabOff := textOff + textSize
	shstrtabSize := int64(len(shstrtab))

	strtabOff := shstrtabOff + shstrtabSize
	strtabSize := int64(len(strtab))

	// One symtab entry (null symbol) + one real entry = 2 * 24 bytes.
	symtabOff := strtabOff + strtabSize
	numSyms := 2
	symtabSize := int64(numSyms * 24)

	shoff := symtabOff + symtabSize

	var buf bytes.Buffer
	// ELF header.
	buf.Write([]byte{0x7f, 'E', 'L', 'F', byte(gelf.ELFCLASS64), byte(gelf.ELFDATA2LSB), 1, 0})
	buf.Write(make([]byte, 8)) // padding
	binary.Write(&buf, bo, uint16(gelf.ET_REL))
	binary.Write(&buf, bo, uint16(gelf.EM_X86_64))
	binary.Write(&buf, bo, uint32(1)) // e_version
	binary.Write(&buf, bo, uint64(0)) // e_entry
	binary.Write(&buf, bo, uint64(0)) // e_phoff
	binary.Write(&buf, bo, uint64(shoff))
	binary.Write(&buf, bo, uint32(0))  // e_flags
	binary.Write(&buf, bo, uint16(64)) // e_ehsize
	binary.Write(&buf, bo, uint16(0))  // e_phentsize
	binary.Write(&buf, bo, uint16(0))  // e_phnum
	binary.Write(&buf, bo, uint16(64)) // e_shentsize
	binary.Write(&buf, bo, uint16(5))  // e_shnum: null,.text,.symtab,.strtab,.shstrtab
	binary.Write(&buf, bo, uint16(4))  // e_shstrndx

	if buf.Len() != ehsize {
		t.Fatalf("header size %d != %d", buf.Len(), ehsize)
	}

	buf.Write(text)
	buf.Write(shstrtab)
	buf.Write(strtab)

	// Symtab: null entry, then entry_point.
	buf.Write(make([]byte, 24))
	var sym bytes.Buffer
	binary.Write(&sym, bo, uint32(1))                     // st_name -> "entry_point"
	sym.WriteByte(byte(gelf.ST_INFO(gelf.STB_GLOBAL, gelf.STT_FUNC)))
	sym.WriteByte(0)
	binary.Write(&sym, bo, uint16(1)) // st_shndx = .text (section 1)
	binary.Write(&sym, bo, uint64(0)) // st_value (offset within section)
	binary.Write(&sym, bo, uint64(len(text)))
	buf.Write(sym.Bytes())

	// Section headers.
	writeShdr := func(name uint32, typ gelf.SectionType, flags uint64, offset, size int64, link, info uint32, align uint64, entsize uint64) {
		binary.Write(&buf, bo, name)
		binary.Write(&buf, bo, uint32(typ))
		binary.Write(&buf, bo, flags)
		binary.Write(&buf, bo, uint64(0)) // addr
		binary.Write(&buf, bo, uint64(offset))
		binary.Write(&buf, bo, uint64(size))
		binary.Write(&buf, bo, link)
		binary.Write(&buf, bo, info)
		binary.Write(&buf, bo, align)
		binary.Write(&buf, bo, entsize)
	}
	writeShdr(0, gelf.SHT_NULL, 0, 0, 0, 0, 0, 0, 0)
	writeShdr(1, gelf.SHT_PROGBITS, 0x2|0x4, textOff, textSize, 0, 0, 4, 0) // ALLOC|EXECINSTR
	writeShdr(7, gelf.SHT_SYMTAB, 0, symtabOff, symtabSize, 3, 1, 8, 24)   // link=strtab(3)
	writeShdr(15, gelf.SHT_STRTAB, 0, strtabOff, strtabSize, 0, 0, 1, 0)
	writeShdr(23, gelf.SHT_STRTAB, 0, shstrtabOff, shstrtabSize, 0, 0, 1, 0)

	return buf.Bytes()
}

func TestLoadTinyObject(t *testing.T) {
	data := buildTinyELF64(t)
	r := bytes.NewReader(data)

	obj := &object.Object{Oname: "tiny.o"}
	caches := newTestCacheSet()
	err := Load(r, int64(len(data)), obj, caches, nil, DefaultMachines)
	require.NoError(t, err)
	require.Len(t, obj.Symbols.Symbols, 1)

	sym := obj.Symbols.Symbols[0]
	assert.Equal(t, "entry_point", sym.Name)
	assert.Equal(t, object.BindGlobal, sym.Bind)
	assert.Equal(t, object.KindText, sym.Kind)

	text := obj.FindSection(".text")
	require.NotNil(t, text)
	assert.Equal(t, text.Base, sym.Value)
}
