// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rtl/rtl/object"
)

func TestParseObjectName(t *testing.T) {
	cases := []struct {
		in      string
		archive string
		object  string
		offset  int64
	}{
		{"foo.o", "", "foo.o", 0},
		{"libdemo.a:bar.o", "libdemo.a", "bar.o", 0},
		{"bar.o@16", "", "bar.o", 16},
		{"libdemo.a:bar.o@0x10", "libdemo.a", "bar.o", 16},
	}
	for _, c := range cases {
		pn, err := parseObjectName(c.in)
		require.NoError(t, err, "parseObjectName(%q)", c.in)
		assert.Equal(t, c.archive, pn.archive, "archive for %q", c.in)
		assert.Equal(t, c.object, pn.object, "object for %q", c.in)
		assert.Equal(t, c.offset, pn.offset, "offset for %q", c.in)
	}
}

func TestParseObjectNameEmpty(t *testing.T) {
	_, err := parseObjectName("")
	assert.Error(t, err)
}

func TestPathAppendPrepend(t *testing.T) {
	r := New()
	require.Equal(t, ".", r.Path())

	r.PathAppend("/lib/modules")
	assert.Equal(t, ".:/lib/modules", r.Path())

	r.PathPrepend("/opt/modules")
	assert.Equal(t, "/opt/modules:.:/lib/modules", r.Path())
}

func TestBaseImageOpenAndSym(t *testing.T) {
	r := New()
	r.RegisterBaseSymbols([]BaseSymbol{
		{Name: "kernel_exported_symbol", Value: 0x1000, Kind: object.KindText},
	})

	h, err := r.Open("", nil)
	require.NoError(t, err)
	assert.Same(t, r.BaseImage(), h)

	v, ok := r.Sym(h, "kernel_exported_symbol")
	require.True(t, ok)
	assert.Equal(t, uint64(0x1000), v)

	_, ok = r.Sym(h, "nonexistent")
	assert.False(t, ok)
}

func TestSymInvalidHandleNoError(t *testing.T) {
	r := New()
	bogus := &object.Object{Oname: "not-in-chain"}

	_, ok := r.Sym(bogus, "anything")
	assert.False(t, ok)
	assert.Equal(t, ErrNone, r.LastErrorKind())
}

func TestLoadObjectNotFound(t *testing.T) {
	r := New()
	_, err := r.LoadObject("missing.o", nil)
	require.Error(t, err)

	got := r.Error()
	require.NotEmpty(t, got)
	assert.Contains(t, got, "object file not found")
}

func TestErrorLatchClearsOnRead(t *testing.T) {
	r := New()
	r.LoadObject("missing.o", nil)

	require.NotEmpty(t, r.Error(), "first read should return the latched message")
	assert.Empty(t, r.Error(), "second read should find the latch cleared")
}

func TestRendezvousFiresOnUnload(t *testing.T) {
	r := New()
	var events []RendezvousEvent
	r.Rendezvous = func(ev RendezvousEvent, obj *object.Object) {
		events = append(events, ev)
	}

	obj := &object.Object{Oname: "manual.o", Users: 1}
	r.appendChain(obj)
	require.NoError(t, r.UnloadObject(obj))

	assert.Equal(t, []RendezvousEvent{BeforeAdd, AfterAdd, BeforeDelete, AfterDelete}, events)
}

func TestUnloadLockedFails(t *testing.T) {
	r := New()
	obj := &object.Object{Oname: "locked.o", Users: 1, Flags: object.Locked}
	r.appendChain(obj)

	err := r.UnloadObject(obj)
	require.Error(t, err)
	assert.Equal(t, ErrState, r.LastErrorKind())
}

func TestLoadObjectTwiceSharesUsers(t *testing.T) {
	r := New()
	obj := &object.Object{Oname: "shared.o", Users: 1}
	r.appendChain(obj)

	got, err := r.LoadObject("shared.o", nil)
	require.NoError(t, err)
	assert.Same(t, obj, got)
	assert.Equal(t, 2, obj.Users)
}
