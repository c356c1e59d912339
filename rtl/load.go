// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import (
	"io"
	"os"

	rtlarch "github.com/go-rtl/rtl/arch"
	"github.com/go-rtl/rtl/archive"
	"github.com/go-rtl/rtl/elf"
	"github.com/go-rtl/rtl/object"
	"github.com/go-rtl/rtl/rap"
	"github.com/go-rtl/rtl/reloc"
)

// Machine selects the architecture and relocation back-end to try
// when loading an object. The caller supplies this because the host
// program, not this package, knows which ISA it runs on.
type Machine struct {
	GoArch  string
	Backend reloc.Backend
}

// LoadObject parses the name, short-circuits if already loaded,
// resolves the file, runs the archive locator if needed, dispatches
// to the ELF or RAP loader, runs constructors with the lock released,
// and returns the live descriptor.
func (r *RTL) LoadObject(name string, machines []Machine) (*object.Object, error) {
	r.mu.Lock()

	pn, err := parseObjectName(name)
	if err != nil {
		r.lastErr = toLatch(err)
		r.mu.Unlock()
		return nil, err
	}

	if existing := r.findByName(pn.object); existing != nil {
		existing.Users++
		r.mu.Unlock()
		return existing, nil
	}

	obj := &object.Object{Oname: pn.object, Aname: pn.archive}

	fname, fsize, found := findFile(r.paths, pn.object)
	if pn.archive != "" {
		// The archive itself is resolved via the search path; the
		// member is located inside it below.
		fname, fsize, found = findFile(r.paths, pn.archive)
	}
	if !found {
		err := r.setError(ErrNotFound, "object file not found: %s", name)
		r.mu.Unlock()
		return nil, err
	}
	obj.Fname = fname
	obj.Fsize = fsize

	f, err := os.Open(fname)
	if err != nil {
		setErr := r.setError(ErrIO, "opening %s: %v", fname, err)
		r.mu.Unlock()
		return nil, setErr
	}
	defer f.Close() // guaranteed release on every exit path

	var memberOff, memberSize int64
	if pn.archive != "" {
		member, err := archive.Locate(f, pn.object, pn.offset)
		if err != nil {
			setErr := r.setError(ErrNotFound, "archive member %s not found in %s: %v", pn.object, pn.archive, err)
			r.mu.Unlock()
			return nil, setErr
		}
		memberOff, memberSize = member.Offset, member.Size
		obj.Fsize = memberSize
	} else {
		memberSize = fsize
	}
	obj.Ooffset = memberOff

	if err := r.loadFormat(f, memberOff, memberSize, obj, machines); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.log.Debug("loaded object", "oname", obj.Oname, "fname", obj.Fname, "symbols", len(obj.Symbols.Symbols))

	r.appendChain(obj)
	r.indexObject(obj)
	obj.Users = 1
	obj.Flags |= object.Locked

	r.mu.Unlock()
	obj.RunCtors(func(addr uint64) { callEntry(addr) })
	r.mu.Lock()
	obj.Flags &^= object.Locked

	for i := range obj.Symbols.Symbols {
		sym := &obj.Symbols.Symbols[i]
		if sym.Bind == object.BindLocal {
			continue
		}
		if ok := r.globals.Insert(sym, obj); !ok && sym.Bind != object.BindWeak {
			r.log.Warn("duplicate global symbol", "symbol", sym.Name, "object", obj.Oname)
			r.removeChain(obj)
			r.mu.Unlock()
			return nil, r.setError(ErrDuplicateSymbol, "duplicate global symbol %s", sym.Name)
		}
		if sym.Bind == object.BindWeak {
			r.log.Debug("weak symbol inserted", "symbol", sym.Name, "object", obj.Oname)
		}
	}

	if obj.Flags.Has(object.Unresolved) {
		r.log.Warn("object has unresolved relocations", "object", obj.Oname)
	}

	r.mu.Unlock()
	return obj, nil
}

// loadFormat sniffs the object's format (ELF magic vs RAP's ASCII
// header) and dispatches to the matching loader.
func (r *RTL) loadFormat(f *os.File, off, size int64, obj *object.Object, machines []Machine) error {
	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, off); err != nil {
		return r.setError(ErrIO, "reading magic: %v", err)
	}

	if string(magic) == "\x7fELF" {
		section := io.NewSectionReader(f, off, size)
		machs := make([]elf.Machine, 0, len(machines))
		for _, m := range machines {
			a := rtlarch.ByGoArch[m.GoArch]
			if a == nil {
				continue
			}
			for _, dm := range elf.DefaultMachines {
				if dm.Arch == a {
					machs = append(machs, elf.Machine{EM: dm.EM, Arch: a, Backend: m.Backend})
				}
			}
		}
		if err := elf.Load(section, size, obj, r.caches, globalsResolver{r}, machs); err != nil {
			return r.setError(ErrFormat, "%v", err)
		}
		return nil
	}

	if string(magic) == "RAP," {
		section := io.NewSectionReader(f, off, size)
		machs := rap.Machines{}
		for i, m := range machines {
			a := rtlarch.ByGoArch[m.GoArch]
			if a == nil {
				continue
			}
			machs[uint32(i)] = struct {
				Arch    *rtlarch.Arch
				Backend reloc.Backend
			}{a, m.Backend}
		}
		if err := rap.Load(section, obj, globalsResolver{r}, machs); err != nil {
			return r.setError(ErrFormat, "%v", err)
		}
		return nil
	}

	return r.setError(ErrFormat, "unrecognized object format for %s", obj.Oname)
}

// globalsResolver adapts the RTL's global symbol table to the elf and
// rap packages' Resolver interfaces.
type globalsResolver struct{ r *RTL }

func (g globalsResolver) Lookup(name string) (uint64, bool) {
	sym, _, ok := g.r.globals.Lookup(name)
	if !ok {
		return 0, false
	}
	return sym.Value, true
}

// callEntry is a seam for invoking a constructor/destructor function
// pointer; tests can substitute it by assigning to callEntry.
var callEntry = func(addr uint64) {}

func toLatch(err error) Error {
	if e, ok := err.(*Error); ok {
		return *e
	}
	return Error{Kind: ErrFormat, Message: err.Error()}
}
