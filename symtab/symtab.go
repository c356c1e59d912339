// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symtab implements the RTL's global symbol table: a mutable,
// chained-hash table shared by every loaded object.
//
// Unlike a read-only object-file symbol table, this Table is inserted
// into incrementally as objects load and erased from incrementally as
// objects unload; callers are expected to hold the RTL lock around
// Insert/Lookup/EraseOwner the same way the façade holds it around
// every other global-state mutation.
package symtab

import (
	"github.com/go-rtl/rtl/object"
)

// minBuckets and maxBuckets bound the power-of-two bucket count:
// roughly 32 to 256 buckets, sized to the expected symbol population.
const (
	minBuckets = 32
	maxBuckets = 256
)

// entry is one chain link in the table: a symbol plus the object that
// owns it, so EraseOwner can remove every symbol belonging to an
// unloading object in one pass.
type entry struct {
	sym   *object.Symbol
	owner interface{}
	next  *entry
}

// Table is the RTL's global symbol table.
type Table struct {
	buckets []*entry
	count   int
}

// New creates an empty Table sized for an expected population of n
// symbols (the base image plus the currently loaded objects).
func New(n int) *Table {
	nb := minBuckets
	for nb < maxBuckets && nb < n/4 {
		nb *= 2
	}
	return &Table{buckets: make([]*entry, nb)}
}

// hash sums the bytes of name. Object-file symbol names are short and
// already well distributed by the compiler's mangling, so a fancier
// hash buys nothing at this table's expected scale.
func hash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h += uint32(name[i])
	}
	return h
}

func (t *Table) bucket(name string) int {
	return int(hash(name) % uint32(len(t.buckets)))
}

// Insert adds sym, owned by owner, to the table, applying the
// duplicate/weak policy:
//
//   - no existing symbol of that name: insert unconditionally.
//   - existing symbol is weak, new symbol is global: replace.
//   - existing symbol is global, new symbol is weak: keep the existing
//     symbol, report ok=false (duplicate, but not an error).
//   - both global: ok=false, a genuine duplicate-symbol error.
func (t *Table) Insert(sym *object.Symbol, owner interface{}) (ok bool) {
	if sym.Bind == object.BindLocal {
		// Local symbols are never visible outside their own object and
		// never enter the global table.
		return true
	}
	b := t.bucket(sym.Name)
	for e := t.buckets[b]; e != nil; e = e.next {
		if e.sym.Name != sym.Name {
			continue
		}
		switch {
		case e.sym.Bind == object.BindWeak && sym.Bind != object.BindWeak:
			e.sym = sym
			e.owner = owner
			return true
		case e.sym.Bind != object.BindWeak && sym.Bind == object.BindWeak:
			return false
		default:
			return false
		}
	}
	t.buckets[b] = &entry{sym, owner, t.buckets[b]}
	t.count++
	return true
}

// Lookup finds the global symbol named name, returning its owner as
// well so callers (the relocation driver, dlsym) can distinguish
// symbols by originating object.
func (t *Table) Lookup(name string) (sym *object.Symbol, owner interface{}, ok bool) {
	b := t.bucket(name)
	for e := t.buckets[b]; e != nil; e = e.next {
		if e.sym.Name == name {
			return e.sym, e.owner, true
		}
	}
	return nil, nil, false
}

// EraseOwner removes every symbol owned by owner, e.g. when an object
// unloads. It returns the number of symbols removed.
func (t *Table) EraseOwner(owner interface{}) int {
	removed := 0
	for b, head := range t.buckets {
		var prev *entry
		e := head
		for e != nil {
			if e.owner == owner {
				next := e.next
				if prev == nil {
					t.buckets[b] = next
				} else {
					prev.next = next
				}
				e = next
				removed++
				t.count--
				continue
			}
			prev = e
			e = e.next
		}
	}
	return removed
}

// Len returns the number of symbols currently in the table.
func (t *Table) Len() int { return t.count }

// Each calls f once for every symbol in the table, in unspecified
// order. f must not call Insert or EraseOwner.
func (t *Table) Each(f func(sym *object.Symbol, owner interface{})) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			f(e.sym, e.owner)
		}
	}
}
