// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rap loads the RTL's compact, pre-linked RAP object format:
// an ASCII header line followed by a strictly sequential binary
// stream, optionally LZ77-compressed.
package rap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	rtlarch "github.com/go-rtl/rtl/arch"
	"github.com/go-rtl/rtl/object"
	"github.com/go-rtl/rtl/reloc"
)

// Compression identifies the RAP stream's compression codec.
type Compression int

const (
	CompNone Compression = iota
	CompLZ77
)

// Header is the parsed ASCII RAP header line.
type Header struct {
	Length      int
	Version     int
	Compression Compression
	Checksum    uint32 // recorded, not verified by this package
}

// ParseHeader reads and parses the "RAP,<length>,<version>,<NONE|LZ77>,<hex-checksum>\n" line.
func ParseHeader(r *bufio.Reader) (Header, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return Header{}, fmt.Errorf("rap: reading header: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	fields := strings.Split(line, ",")
	if len(fields) != 5 || fields[0] != "RAP" {
		return Header{}, fmt.Errorf("rap: malformed header %q", line)
	}
	length, err := strconv.Atoi(fields[1])
	if err != nil {
		return Header{}, fmt.Errorf("rap: bad length field: %w", err)
	}
	version, err := strconv.Atoi(fields[2])
	if err != nil {
		return Header{}, fmt.Errorf("rap: bad version field: %w", err)
	}
	var comp Compression
	switch fields[3] {
	case "NONE":
		comp = CompNone
	case "LZ77":
		comp = CompLZ77
	default:
		return Header{}, fmt.Errorf("rap: unknown compression %q", fields[3])
	}
	cksum, err := strconv.ParseUint(fields[4], 16, 32)
	if err != nil {
		return Header{}, fmt.Errorf("rap: bad checksum field: %w", err)
	}
	return Header{length, version, comp, uint32(cksum)}, nil
}

// sectionOrder is the RAP format's fixed section order.
var sectionOrder = []struct {
	name  string
	flags object.SectionFlags
}{
	{".text", object.SectText | object.SectLoad},
	{".const", object.SectConst | object.SectLoad},
	{".ctor", object.SectConst | object.SectCtor | object.SectLoad},
	{".dtor", object.SectConst | object.SectDtor | object.SectLoad},
	{".data", object.SectData | object.SectLoad},
	{".bss", object.SectBss | object.SectZero},
}

// Resolver looks up a global symbol by name for inline/string-table
// symbol references in the relocation stream.
type Resolver interface {
	Lookup(name string) (value uint64, ok bool)
}

// Machines maps a RAP machinetype identifier to the Arch/Backend pair
// to load with. The RAP format doesn't standardize these numbers the
// way ELF's e_machine does, so a caller supplies the mapping its
// toolchain's rap generator uses.
type Machines map[uint32]struct {
	Arch    *rtlarch.Arch
	Backend reloc.Backend
}

// Load reads a full RAP stream (header plus body) from r into obj.
func Load(r io.Reader, obj *object.Object, resolver Resolver, machines Machines) error {
	br := bufio.NewReader(r)
	hdr, err := ParseHeader(br)
	if err != nil {
		return err
	}

	body := io.Reader(br)
	if hdr.Compression == CompLZ77 {
		raw, err := io.ReadAll(br)
		if err != nil {
			return fmt.Errorf("rap: reading compressed body: %w", err)
		}
		decoded, err := decompressLZ77(raw, hdr.Length)
		if err != nil {
			return err
		}
		body = bytes.NewReader(decoded)
	}

	l := &loader{r: body, obj: obj, resolver: resolver, machines: machines, bo: binary.BigEndian}
	if err := l.readIdent(); err != nil {
		return err
	}
	if err := l.readSizes(); err != nil {
		return err
	}
	if err := l.readSectionDescs(); err != nil {
		return err
	}
	l.mapMemory()
	if err := l.readSectionBodies(); err != nil {
		return err
	}
	if err := l.readStrtab(); err != nil {
		return err
	}
	l.resolveIdentNames()
	if err := l.readSymbols(); err != nil {
		return err
	}
	return l.readRelocations()
}

// resolveIdentNames turns readIdent's raw init/fini string-table
// offsets into names now that the string table has been read. A zero
// offset means "not present".
func (l *loader) resolveIdentNames() {
	if l.initOff != 0 {
		l.obj.InitName = l.cstr(l.initOff)
	}
	if l.finiOff != 0 {
		l.obj.FiniName = l.cstr(l.finiOff)
	}
}

type loader struct {
	r        io.Reader
	obj      *object.Object
	resolver Resolver
	machines Machines
	bo       binary.ByteOrder

	arch    *rtlarch.Arch
	backend reloc.Backend

	symtabSize, strtabSize, relocsSize uint32
	strtab                             []byte

	initOff, finiOff uint32
}

func (l *loader) u32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(l.r, b[:]); err != nil {
		return 0, fmt.Errorf("rap: unexpected EOF: %w", err)
	}
	return l.bo.Uint32(b[:]), nil
}

func (l *loader) readIdent() error {
	machinetype, err := l.u32()
	if err != nil {
		return err
	}
	if _, err := l.u32(); err != nil { // datatype
		return err
	}
	if _, err := l.u32(); err != nil { // class
		return err
	}
	m, ok := l.machines[machinetype]
	if !ok {
		return fmt.Errorf("rap: unsupported machinetype %d", machinetype)
	}
	l.arch = m.Arch
	l.backend = m.Backend

	initOff, err := l.u32() // string-table offset of the initializer's name, or 0
	if err != nil {
		return err
	}
	finiOff, err := l.u32() // string-table offset of the finalizer's name, or 0
	if err != nil {
		return err
	}
	l.initOff, l.finiOff = initOff, finiOff
	return nil
}

func (l *loader) readSizes() error {
	var err error
	if l.symtabSize, err = l.u32(); err != nil {
		return err
	}
	if l.strtabSize, err = l.u32(); err != nil {
		return err
	}
	if l.relocsSize, err = l.u32(); err != nil {
		return err
	}
	return nil
}

func (l *loader) readSectionDescs() error {
	for i, o := range sectionOrder {
		size, err := l.u32()
		if err != nil {
			return err
		}
		align, err := l.u32()
		if err != nil {
			return err
		}
		l.obj.Sections = append(l.obj.Sections, &object.Section{
			Index:     i,
			Name:      o.name,
			Size:      uint64(size),
			Alignment: uint64(align),
			Flags:     o.flags,
		})
	}
	return nil
}

func (l *loader) mapMemory() {
	classes := []object.Class{object.ClassText, object.ClassConst, object.ClassData, object.ClassBss}
	masks := []object.SectionFlags{object.SectText, object.SectConst, object.SectData, object.SectBss}

	var total uint64
	starts := make([]uint64, len(classes))
	for i, mask := range masks {
		align := l.obj.SectionAlignment(mask)
		total = roundUp2(total, align)
		starts[i] = total
		total += l.obj.SectionSize(mask)
	}
	l.obj.MemoryMap = object.MemoryMap{Buf: object.NewModuleBuffer(int(total)), Layout: l.arch.Layout}
	for i, c := range classes {
		l.obj.MemoryMap.Bases[c] = starts[i]
		object.Place(l.obj.Sections, c, starts[i])
	}
}

func (l *loader) readSectionBodies() error {
	for _, s := range l.obj.Sections {
		if !s.Flags.Has(object.SectLoad) {
			continue // BSS: zero-filled, no stream bytes
		}
		dst := s.Bytes(&l.obj.MemoryMap)
		if _, err := io.ReadFull(l.r, dst); err != nil {
			return fmt.Errorf("rap: reading section %s body: %w", s.Name, err)
		}
	}
	return nil
}

func (l *loader) readStrtab() error {
	buf := make([]byte, l.strtabSize)
	if _, err := io.ReadFull(l.r, buf); err != nil {
		return fmt.Errorf("rap: reading string table: %w", err)
	}
	l.strtab = buf
	return nil
}

func (l *loader) cstr(off uint32) string {
	end := int(off)
	for end < len(l.strtab) && l.strtab[end] != 0 {
		end++
	}
	if int(off) > len(l.strtab) {
		return ""
	}
	return string(l.strtab[off:end])
}

func roundUp2(x, y uint64) uint64 {
	if y < 1 {
		return x
	}
	return (x + y - 1) &^ (y - 1)
}
