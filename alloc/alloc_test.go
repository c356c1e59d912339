// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alloc

import "testing"

func TestNewDelFallsBackToHeap(t *testing.T) {
	var a Allocator

	b := a.New(Module, 16)
	if len(b) != 16 {
		t.Fatalf("len(b) = %d, want 16", len(b))
	}
	if got := a.Stats()[Module]; got != 1 {
		t.Fatalf("Stats()[Module] = %d, want 1", got)
	}

	a.Del(Module, b)
	if got := a.Stats()[Module]; got != 0 {
		t.Fatalf("Stats()[Module] = %d, want 0 after Del", got)
	}
}

func TestNewUsesInstalledHook(t *testing.T) {
	var a Allocator
	var gotAllocate bool
	var gotSize int
	a.SetHook(Symbol, func(allocate bool, addr *[]byte, size int) bool {
		gotAllocate, gotSize = allocate, size
		*addr = make([]byte, size)
		return true
	})

	b := a.New(Symbol, 8)
	if !gotAllocate {
		t.Fatal("hook called with allocate=false on New")
	}
	if gotSize != 8 {
		t.Fatalf("hook size = %d, want 8", gotSize)
	}
	if len(b) != 8 {
		t.Fatalf("len(b) = %d, want 8", len(b))
	}
}

func TestHookReturningFalseFallsBackToHeap(t *testing.T) {
	var a Allocator
	a.SetHook(String, func(allocate bool, addr *[]byte, size int) bool {
		return false // decline, caller should fall back to the heap
	})

	b := a.New(String, 4)
	if len(b) != 4 {
		t.Fatalf("len(b) = %d, want 4", len(b))
	}
	if got := a.Stats()[String]; got != 1 {
		t.Fatalf("Stats()[String] = %d, want 1", got)
	}
}

func TestDelCallsHookAndUntracks(t *testing.T) {
	var a Allocator
	var gotAllocate bool
	a.SetHook(ObjectDesc, func(allocate bool, addr *[]byte, size int) bool {
		if allocate {
			*addr = make([]byte, size)
		} else {
			gotAllocate = allocate
		}
		return true
	})

	b := a.New(ObjectDesc, 2)
	a.Del(ObjectDesc, b)

	if gotAllocate {
		t.Fatal("hook's allocate flag should be false on Del")
	}
	if got := a.Stats()[ObjectDesc]; got != 0 {
		t.Fatalf("Stats()[ObjectDesc] = %d, want 0 after Del", got)
	}
}

func TestSetHookNilRemovesHook(t *testing.T) {
	var a Allocator
	a.SetHook(Module, func(allocate bool, addr *[]byte, size int) bool {
		t.Fatal("hook should have been removed")
		return false
	})
	a.SetHook(Module, nil)

	b := a.New(Module, 4)
	if len(b) != 4 {
		t.Fatalf("len(b) = %d, want 4", len(b))
	}
}

func TestHookReturnsPreviouslyInstalled(t *testing.T) {
	var a Allocator
	if got := a.Hook(Module); got != nil {
		t.Fatal("expected no hook installed initially")
	}

	h := func(allocate bool, addr *[]byte, size int) bool { return false }
	a.SetHook(Module, h)
	if a.Hook(Module) == nil {
		t.Fatal("expected hook to be installed")
	}
}

func TestOutstandingEnumeratesLiveBuffers(t *testing.T) {
	var a Allocator

	b1 := a.New(Module, 4)
	b2 := a.New(Module, 8)

	live := a.Outstanding(Module)
	if len(live) != 2 {
		t.Fatalf("len(Outstanding) = %d, want 2", len(live))
	}
	if len(live[0]) != 8 || len(live[1]) != 4 {
		t.Fatalf("Outstanding order = %v, want most-recent-first [8 4]", []int{len(live[0]), len(live[1])})
	}

	a.Del(Module, b1)
	live = a.Outstanding(Module)
	if len(live) != 1 || len(live[0]) != 8 {
		t.Fatalf("Outstanding after Del(b1) = %v, want one 8-byte buffer", live)
	}

	a.Del(Module, b2)
	if live := a.Outstanding(Module); len(live) != 0 {
		t.Fatalf("Outstanding after both Del = %v, want empty", live)
	}
}

func TestStatsTagsIndependent(t *testing.T) {
	var a Allocator
	a.New(Symbol, 1)
	a.New(Symbol, 1)
	a.New(Module, 1)

	stats := a.Stats()
	if stats[Symbol] != 2 {
		t.Fatalf("Stats()[Symbol] = %d, want 2", stats[Symbol])
	}
	if stats[Module] != 1 {
		t.Fatalf("Stats()[Module] = %d, want 1", stats[Module])
	}
	if stats[String] != 0 || stats[ObjectDesc] != 0 {
		t.Fatalf("untouched tags should report 0, got %v", stats)
	}
}

func TestTagString(t *testing.T) {
	cases := []struct {
		tag  Tag
		want string
	}{
		{Symbol, "symbol"},
		{String, "string"},
		{ObjectDesc, "object"},
		{Module, "module"},
		{numTags, "unknown"},
	}
	for _, c := range cases {
		if got := c.tag.String(); got != c.want {
			t.Errorf("Tag(%d).String() = %q, want %q", c.tag, got, c.want)
		}
	}
}
