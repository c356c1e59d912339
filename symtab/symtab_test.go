// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package symtab

import (
	"testing"

	"github.com/go-rtl/rtl/object"
)

func TestInsertLookup(t *testing.T) {
	tab := New(8)
	objA, objB := new(int), new(int)

	sym := &object.Symbol{Name: "foo", Bind: object.BindGlobal, Value: 0x1000}
	if ok := tab.Insert(sym, objA); !ok {
		t.Fatalf("first insert of foo should succeed")
	}
	got, owner, ok := tab.Lookup("foo")
	if !ok || got != sym || owner != objA {
		t.Fatalf("lookup foo: got %v, %v, %v", got, owner, ok)
	}

	dup := &object.Symbol{Name: "foo", Bind: object.BindGlobal, Value: 0x2000}
	if ok := tab.Insert(dup, objB); ok {
		t.Fatalf("duplicate global insert of foo should fail")
	}
	if got, _, _ := tab.Lookup("foo"); got != sym {
		t.Fatalf("duplicate insert should not replace existing symbol")
	}
}

func TestWeakOverride(t *testing.T) {
	tab := New(8)
	objA, objB := new(int), new(int)

	weak := &object.Symbol{Name: "bar", Bind: object.BindWeak, Value: 0x1000}
	if ok := tab.Insert(weak, objA); !ok {
		t.Fatalf("insert of weak bar should succeed")
	}

	strong := &object.Symbol{Name: "bar", Bind: object.BindGlobal, Value: 0x2000}
	if ok := tab.Insert(strong, objB); !ok {
		t.Fatalf("global insert should override existing weak symbol")
	}
	got, owner, _ := tab.Lookup("bar")
	if got != strong || owner != objB {
		t.Fatalf("expected strong symbol to win, got %v owned by %v", got, owner)
	}

	// A later weak definition must not displace the strong one.
	laterWeak := &object.Symbol{Name: "bar", Bind: object.BindWeak, Value: 0x3000}
	if ok := tab.Insert(laterWeak, objA); ok {
		t.Fatalf("weak insert over an existing global symbol should fail")
	}
	if got, _, _ := tab.Lookup("bar"); got != strong {
		t.Fatalf("strong symbol should remain after failed weak insert")
	}
}

func TestLocalNeverGlobal(t *testing.T) {
	tab := New(8)
	local := &object.Symbol{Name: "static_helper", Bind: object.BindLocal}
	if ok := tab.Insert(local, new(int)); !ok {
		t.Fatalf("inserting a local symbol should report ok (no-op)")
	}
	if _, _, ok := tab.Lookup("static_helper"); ok {
		t.Fatalf("local symbol must not be visible in the global table")
	}
	if tab.Len() != 0 {
		t.Fatalf("local symbol must not count towards table length")
	}
}

func TestEraseOwner(t *testing.T) {
	tab := New(8)
	objA, objB := new(int), new(int)

	tab.Insert(&object.Symbol{Name: "a1", Bind: object.BindGlobal}, objA)
	tab.Insert(&object.Symbol{Name: "a2", Bind: object.BindGlobal}, objA)
	tab.Insert(&object.Symbol{Name: "b1", Bind: object.BindGlobal}, objB)

	if n := tab.EraseOwner(objA); n != 2 {
		t.Fatalf("expected to erase 2 symbols owned by objA, got %d", n)
	}
	if _, _, ok := tab.Lookup("a1"); ok {
		t.Fatalf("a1 should be gone after EraseOwner")
	}
	if _, _, ok := tab.Lookup("b1"); !ok {
		t.Fatalf("b1 should survive EraseOwner(objA)")
	}
	if tab.Len() != 1 {
		t.Fatalf("expected table length 1 after erase, got %d", tab.Len())
	}
}

func TestEach(t *testing.T) {
	tab := New(8)
	owner := new(int)
	names := map[string]bool{"x": true, "y": true, "z": true}
	for n := range names {
		tab.Insert(&object.Symbol{Name: n, Bind: object.BindGlobal}, owner)
	}
	seen := map[string]bool{}
	tab.Each(func(sym *object.Symbol, o interface{}) {
		seen[sym.Name] = true
	})
	if len(seen) != len(names) {
		t.Fatalf("Each visited %d symbols, want %d", len(seen), len(names))
	}
}
