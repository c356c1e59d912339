// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elf loads ET_REL (relocatable) ELF object files into an
// object.Object through a five-stage pipeline: section scan/classify,
// memory map, section loading, symbol ingestion, and relocation.
package elf

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"

	rtlarch "github.com/go-rtl/rtl/arch"
	"github.com/go-rtl/rtl/cache"
	"github.com/go-rtl/rtl/object"
	"github.com/go-rtl/rtl/reloc"
)

// Resolver looks up a global symbol by name, for relocations that
// need interposition against the RTL's global table rather than the
// object's own. It returns ok=false if the symbol is unresolved.
type Resolver interface {
	Lookup(name string) (value uint64, ok bool)
}

// Machine identifies the set of e_machine values this platform
// accepts, together with the Arch and Backend to use.
type Machine struct {
	EM      elf.Machine
	Arch    *rtlarch.Arch
	Backend reloc.Backend
}

// DefaultMachines is the accepted-machine set: every ISA the RTL ships
// a relocation backend for.
var DefaultMachines = []Machine{
	{elf.EM_X86_64, rtlarch.AMD64, reloc.ForGoArch("amd64")},
	{elf.EM_386, rtlarch.I386, reloc.ForGoArch("386")},
	{elf.EM_ARM, rtlarch.ARM, reloc.ForGoArch("arm")},
}

// Load parses the ET_REL object read from r into obj, using caches
// for read-ahead and resolver for cross-object symbol lookups.
// machines restricts acceptance to a specific platform's machine set;
// pass DefaultMachines to accept anything the RTL has a backend for.
func Load(r io.ReaderAt, size int64, obj *object.Object, caches *cache.Set, resolver Resolver, machines []Machine) error {
	caches.Bind(r)
	defer caches.Flush()

	l := &loader{r: r, size: size, obj: obj, caches: caches, resolver: resolver, machines: machines}
	if err := l.readHeader(); err != nil {
		return err
	}
	if err := l.scanSections(); err != nil {
		return err
	}
	l.mapMemory()
	if err := l.loadSections(); err != nil {
		return err
	}
	if err := l.ingestSymbols(); err != nil {
		return err
	}
	return l.relocate()
}

type loader struct {
	r        io.ReaderAt
	size     int64
	obj      *object.Object
	caches   *cache.Set
	resolver Resolver
	machines []Machine

	hdr     elf.Header64
	is64    bool
	bo      binary.ByteOrder
	arch    *rtlarch.Arch
	backend reloc.Backend
	layout  rtlarch.Layout

	shstrtab []byte
	symtab   []elfSym
	strtab   []byte
}

type elfSym struct {
	name    uint32
	info    uint8
	shndx   uint16
	value   uint64
	size    uint64
}

// readHeader validates the ELF preconditions this loader requires:
// magic, class, endianness, e_machine acceptance, ET_REL only, no program
// headers, section header size.
func (l *loader) readHeader() error {
	var ident [16]byte
	if _, err := l.r.ReadAt(ident[:], 0); err != nil {
		return fmt.Errorf("elf: %w", err)
	}
	if ident[0] != '\x7f' || ident[1] != 'E' || ident[2] != 'L' || ident[3] != 'F' {
		return fmt.Errorf("elf: bad magic")
	}
	switch ident[elf.EI_CLASS] {
	case byte(elf.ELFCLASS64):
		l.is64 = true
	case byte(elf.ELFCLASS32):
		l.is64 = false
	default:
		return fmt.Errorf("elf: unknown class")
	}
	switch ident[elf.EI_DATA] {
	case byte(elf.ELFDATA2LSB):
		l.bo = binary.LittleEndian
	case byte(elf.ELFDATA2MSB):
		l.bo = binary.BigEndian
	default:
		return fmt.Errorf("elf: unknown data encoding")
	}

	hdrSize := 64
	if !l.is64 {
		hdrSize = 52
	}
	buf := make([]byte, hdrSize)
	if _, err := l.r.ReadAt(buf, 0); err != nil {
		return fmt.Errorf("elf: %w", err)
	}
	var eType, eMachine uint16
	var ePhnum, eShentsize uint16
	if l.is64 {
		eType = l.bo.Uint16(buf[16:18])
		eMachine = l.bo.Uint16(buf[18:20])
		ePhnum = l.bo.Uint16(buf[56:58])
		eShentsize = l.bo.Uint16(buf[58:60])
		l.hdr.Shoff = l.bo.Uint64(buf[40:48])
		l.hdr.Shnum = l.bo.Uint16(buf[60:62])
		l.hdr.Shstrndx = l.bo.Uint16(buf[62:64])
	} else {
		eType = l.bo.Uint16(buf[16:18])
		eMachine = l.bo.Uint16(buf[18:20])
		ePhnum = l.bo.Uint16(buf[44:46])
		eShentsize = l.bo.Uint16(buf[46:48])
		l.hdr.Shoff = uint64(l.bo.Uint32(buf[32:36]))
		l.hdr.Shnum = l.bo.Uint16(buf[48:50])
		l.hdr.Shstrndx = l.bo.Uint16(buf[50:52])
	}
	if elf.Type(eType) != elf.ET_REL {
		return fmt.Errorf("elf: not a relocatable object (e_type=%d)", eType)
	}
	if ePhnum != 0 {
		return fmt.Errorf("elf: program headers not allowed (e_phnum=%d)", ePhnum)
	}

	var m *Machine
	for i := range l.machines {
		if l.machines[i].EM == elf.Machine(eMachine) {
			m = &l.machines[i]
			break
		}
	}
	if m == nil {
		return fmt.Errorf("elf: unsupported machine %d", eMachine)
	}
	l.arch = m.Arch
	l.backend = m.Backend
	l.layout = m.Arch.Layout

	wantShentsize := uint16(64)
	if !l.is64 {
		wantShentsize = 40
	}
	if eShentsize != wantShentsize {
		return fmt.Errorf("elf: unexpected e_shentsize %d", eShentsize)
	}
	return nil
}

func (l *loader) shEntSize() int64 {
	if l.is64 {
		return 64
	}
	return 40
}

type rawSection struct {
	name      uint32
	shtype    uint32
	flags     uint64
	size      uint64
	offset    uint64
	link      uint32
	info      uint32
	addralign uint64
}

func (l *loader) readSectionHeader(i int) (rawSection, error) {
	entSize := l.shEntSize()
	off := int64(l.hdr.Shoff) + int64(i)*entSize
	buf, err := l.caches.Sections.Read(off, int(entSize))
	if err != nil || len(buf) < int(entSize) {
		return rawSection{}, fmt.Errorf("elf: reading section header %d: %w", i, err)
	}
	var rs rawSection
	if l.is64 {
		rs.name = l.bo.Uint32(buf[0:4])
		rs.shtype = l.bo.Uint32(buf[4:8])
		rs.flags = l.bo.Uint64(buf[8:16])
		rs.offset = l.bo.Uint64(buf[24:32])
		rs.size = l.bo.Uint64(buf[32:40])
		rs.link = l.bo.Uint32(buf[40:44])
		rs.info = l.bo.Uint32(buf[44:48])
		rs.addralign = l.bo.Uint64(buf[48:56])
	} else {
		rs.name = l.bo.Uint32(buf[0:4])
		rs.shtype = l.bo.Uint32(buf[4:8])
		rs.flags = uint64(l.bo.Uint32(buf[8:12]))
		rs.offset = uint64(l.bo.Uint32(buf[16:20]))
		rs.size = uint64(l.bo.Uint32(buf[20:24]))
		rs.link = l.bo.Uint32(buf[24:28])
		rs.info = l.bo.Uint32(buf[28:32])
		rs.addralign = uint64(l.bo.Uint32(buf[32:36]))
	}
	return rs, nil
}

func (l *loader) sectionName(raw []byte, nameOff uint32) string {
	end := int(nameOff)
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	if int(nameOff) > len(raw) {
		return ""
	}
	return string(raw[nameOff:end])
}

// scanSections reads every section header and classifies it.
func (l *loader) scanSections() error {
	if int(l.hdr.Shstrndx) >= int(l.hdr.Shnum) {
		return fmt.Errorf("elf: bad shstrndx")
	}
	strSec, err := l.readSectionHeader(int(l.hdr.Shstrndx))
	if err != nil {
		return err
	}
	l.shstrtab = make([]byte, strSec.size)
	if _, err := l.r.ReadAt(l.shstrtab, int64(strSec.offset)); err != nil && err != io.EOF {
		return fmt.Errorf("elf: reading shstrtab: %w", err)
	}

	for i := 0; i < int(l.hdr.Shnum); i++ {
		rs, err := l.readSectionHeader(i)
		if err != nil {
			return err
		}
		name := l.sectionName(l.shstrtab, rs.name)
		sec := &object.Section{
			Index:     i,
			Name:      name,
			Size:      rs.size,
			Offset:    rs.offset,
			Alignment: rs.addralign,
			Link:      int(rs.link),
			Info:      int(rs.info),
		}
		const (
			shfWrite     = 0x1
			shfAlloc     = 0x2
			shfExecinstr = 0x4
		)
		switch elf.SectionType(rs.shtype) {
		case elf.SHT_PROGBITS:
			switch {
			case rs.flags&(shfAlloc|shfExecinstr) == (shfAlloc | shfExecinstr):
				sec.Flags |= object.SectText | object.SectLoad
			case rs.flags&(shfAlloc|shfWrite) == (shfAlloc | shfWrite):
				sec.Flags |= object.SectData | object.SectLoad
			case rs.flags&shfAlloc == shfAlloc:
				sec.Flags |= object.SectConst | object.SectLoad
			default:
				continue // unclassified, commonly debug info
			}
		case elf.SHT_NOBITS:
			if rs.flags&(shfAlloc|shfWrite) == (shfAlloc | shfWrite) {
				sec.Flags |= object.SectBss | object.SectZero
			} else {
				continue
			}
		case elf.SHT_REL:
			sec.Flags |= object.SectRel
		case elf.SHT_RELA:
			sec.Flags |= object.SectRela
		case elf.SHT_SYMTAB:
			sec.Flags |= object.SectSym
		case elf.SHT_STRTAB:
			sec.Flags |= object.SectStr
		default:
			continue
		}
		if name == ".ctors" {
			sec.Flags |= object.SectCtor
		}
		if name == ".dtors" {
			sec.Flags |= object.SectDtor
		}
		l.obj.Sections = append(l.obj.Sections, sec)
	}
	return nil
}

// mapMemory lays out the object's text/const/data/bss classes into a
// single backing allocation and places each section within it.
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

	l.obj.MemoryMap = object.MemoryMap{
		Buf:    object.NewModuleBuffer(int(total)),
		Addr:   0,
		Layout: l.layout,
	}
	for i, c := range classes {
		l.obj.MemoryMap.Bases[c] = starts[i]
		object.Place(l.obj.Sections, c, starts[i])
	}
}

// loadSections copies each loadable section's bytes into its mapped
// location; bss is left zeroed.
func (l *loader) loadSections() error {
	for _, s := range l.obj.Sections {
		switch {
		case s.Flags.Has(object.SectLoad):
			dst := s.Bytes(&l.obj.MemoryMap)
			if _, err := l.r.ReadAt(dst, int64(s.Offset)); err != nil && err != io.EOF {
				return fmt.Errorf("elf: loading section %s: %w", s.Name, err)
			}
		case s.Flags.Has(object.SectZero):
			// Already zero: make() zero-fills.
		}
	}
	return nil
}

func roundUp2(x, y uint64) uint64 {
	if y < 1 {
		return x
	}
	return (x + y - 1) &^ (y - 1)
}
