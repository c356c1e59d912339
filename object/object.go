// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package object is the central in-memory representation of a loaded
// module: the object descriptor, its sections, its memory map, and its
// per-module symbol table.
//
// Format loaders (elf, rap) populate an Object; the rtl façade manages
// its lifecycle (chain membership, reference counting, teardown). The
// package itself never touches a filesystem or a lock — it is pure
// data plus the bookkeeping both loaders need in common (memory
// layout, section search, constructor/destructor ordering).
package object

import (
	"fmt"
)

// ModuleAllocator, when non-nil, supplies a loaded module's backing
// memory buffer in place of a plain make(). rtl.New wires this to the
// façade's allocator so a hook installed via RTL.AllocHook(Module,
// ...) sees every module's image allocation and release; the zero
// value means "use make".
var ModuleAllocator func(size int) []byte

// NewModuleBuffer allocates a module's memory-map buffer, routing
// through ModuleAllocator when one is installed.
func NewModuleBuffer(size int) []byte {
	if ModuleAllocator != nil {
		return ModuleAllocator(size)
	}
	return make([]byte, size)
}

// Flags is a bitset over an Object's lifecycle state.
type Flags uint32

const (
	// Locked means the object is mid-constructor or mid-destructor and
	// may not be unloaded.
	Locked Flags = 1 << iota
	// Unresolved means at least one relocation referenced a symbol that
	// could not be resolved at load time.
	Unresolved
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// An Object is a single loaded module: a standalone relocatable object
// or an archive member, in ELF or RAP format, after section layout,
// symbol ingestion and relocation have all completed.
type Object struct {
	// Oname is the logical object filename, e.g. "foo.o".
	Oname string
	// Aname is the archive name this object was extracted from, or ""
	// if it was loaded standalone.
	Aname string
	// Fname is the fully resolved filesystem path backing this object.
	Fname string
	// Ooffset is the byte offset into Fname where the object's data
	// begins: 0 for a plain file, the archive-member offset otherwise.
	Ooffset int64
	// Fsize is the length of the object's image within Fname.
	Fsize int64

	// Sections are the object's sections, in file order.
	Sections []*Section

	// MemoryMap is the single allocation backing Text/Const/Data/Bss.
	MemoryMap MemoryMap

	// Entry is the object's optional entry point, or 0 if none.
	Entry uint64

	// InitName/FiniName are the optional names of a single
	// initializer/finalizer function, resolved from the RAP format's
	// init/fini string-table offsets. They are an alternative to the
	// .ctor/.dtor section arrays: either mechanism, both, or neither
	// may be present on a given object.
	InitName, FiniName string

	// Symbols is this object's own exported symbol table, a dense
	// array of entries (see SymbolBlock).
	Symbols SymbolBlock

	// Flags holds the object's lifecycle bits.
	Flags Flags

	// Users is the load reference count. It reaches 0 when the object
	// should be torn down.
	Users int

	// Prev/Next are this object's links in the RTL object chain.
	// Exported so the rtl package can splice objects into its chain
	// without a second indirection; nothing outside rtl should touch
	// these.
	Prev, Next *Object
}

// SectionFlags is a bitset describing a section's role and loading
// behavior.
type SectionFlags uint32

const (
	SectText SectionFlags = 1 << iota
	SectData
	SectConst
	SectBss
	SectLoad
	SectZero
	SectRel
	SectRela
	SectSym
	SectStr
	SectCtor
	SectDtor
)

func (f SectionFlags) Has(bit SectionFlags) bool { return f&bit != 0 }

// A Section is one contiguous region of an object's image, either on
// disk (Offset/Size) or, once loaded, in memory (Base).
type Section struct {
	// Index is the section's numeric index in the source file.
	Index int
	Name  string
	// Size is the section's size in bytes, in memory.
	Size uint64
	// Offset is the section's position within the source file, or 0 if
	// it has no file backing (e.g. BSS).
	Offset uint64
	// Alignment is a power of two, or 0/1 meaning "unaligned".
	Alignment uint64
	// Link and Info mirror the ELF section header fields of the same
	// name: for relocation sections, Link names the symbol table and
	// Info names the target section. RAP sections don't use these.
	Link, Info int
	Flags      SectionFlags
	// Base is the runtime address assigned to this section once
	// loaded. It is always inside the owning Object's MemoryMap.
	Base uint64
}

// Bytes returns the in-memory contents of a loaded section. It is a
// view into the owning Object's MemoryMap and must not be retained
// past Unload.
func (s *Section) Bytes(m *MemoryMap) []byte {
	if s.Base == 0 && s.Size == 0 {
		return nil
	}
	start := s.Base - m.base()
	return m.Buf[start : start+s.Size]
}

func (s *Section) String() string {
	return fmt.Sprintf("%s[%d]", s.Name, s.Index)
}

// Class buckets a section into one of the four memory-map regions.
func (s *Section) Class() Class {
	switch {
	case s.Flags.Has(SectText):
		return ClassText
	case s.Flags.Has(SectConst):
		return ClassConst
	case s.Flags.Has(SectData):
		return ClassData
	case s.Flags.Has(SectBss):
		return ClassBss
	}
	return classNone
}

// Class identifies one of the four non-overlapping regions of a
// module's memory map.
type Class int

const (
	classNone Class = iota
	ClassText
	ClassConst
	ClassData
	ClassBss
	numClasses
)

// FindSection returns the first section with the given name, or nil.
func (o *Object) FindSection(name string) *Section {
	for _, s := range o.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindSectionByIndex returns the section with the given file-relative
// index, or nil.
func (o *Object) FindSectionByIndex(index int) *Section {
	for _, s := range o.Sections {
		if s.Index == index {
			return s
		}
	}
	return nil
}

// SectionSize sums the sizes of the sections in mask, padding the
// running total before each section so that the section starts at a
// multiple of its own alignment. This mirrors the
// RTEMS rtems_rtl_obj_section_size summation.
func (o *Object) SectionSize(mask SectionFlags) uint64 {
	var total uint64
	for _, s := range o.Sections {
		if s.Flags.Has(mask) {
			total = roundUp2(total, align(s.Alignment)) + s.Size
		}
	}
	return total
}

// SectionAlignment returns the coarsest alignment required by any
// section with a flag in mask.
func (o *Object) SectionAlignment(mask SectionFlags) uint64 {
	var best uint64 = 1
	for _, s := range o.Sections {
		if s.Flags.Has(mask) {
			if a := align(s.Alignment); a > best {
				best = a
			}
		}
	}
	return best
}

func align(a uint64) uint64 {
	if a < 1 {
		return 1
	}
	return a
}

// RunCtors runs every constructor function pointer found in the
// object's CTOR-flagged sections, in section-file order, skipping null
// entries, then the single named initializer if InitName is set. call
// is invoked with the address of each constructor.
func (o *Object) RunCtors(call func(addr uint64)) {
	o.runCdtors(SectCtor, call)
	o.runNamed(o.InitName, call)
}

// RunDtors runs every destructor in the object's DTOR-flagged sections,
// in section-file order, then the single named finalizer if FiniName
// is set. Destructors do not run in reverse order.
func (o *Object) RunDtors(call func(addr uint64)) {
	o.runCdtors(SectDtor, call)
	o.runNamed(o.FiniName, call)
}

// runNamed calls call with the value of the own-module symbol named
// name, if one exists. It is a no-op for an empty name or a name that
// doesn't resolve, since both init and fini names are optional.
func (o *Object) runNamed(name string, call func(addr uint64)) {
	if name == "" {
		return
	}
	if sym := o.Symbols.Find(name); sym != nil {
		call(sym.Value)
	}
}

func (o *Object) runCdtors(mask SectionFlags, call func(addr uint64)) {
	for _, s := range o.Sections {
		if !s.Flags.Has(mask) || s.Base == 0 {
			continue
		}
		b := s.Bytes(&o.MemoryMap)
		word := o.MemoryMap.Layout.WordSize()
		for off := 0; off+word <= len(b); off += word {
			addr := o.MemoryMap.Layout.Word(b[off:])
			if addr == 0 {
				continue
			}
			call(addr)
		}
	}
}

// roundUp2 rounds x up to a multiple of y, where y must be a power of 2.
func roundUp2(x, y uint64) uint64 {
	if y == 0 {
		return x
	}
	return (x + y - 1) &^ (y - 1)
}
