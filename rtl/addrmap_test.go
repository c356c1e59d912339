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

func TestResolveAddrFindsLoadedSection(t *testing.T) {
	r := New()
	sec := &object.Section{Name: ".text", Base: 0x2000, Size: 0x100}
	obj := &object.Object{Oname: "indexed.o", Sections: []*object.Section{sec}}

	r.mu.Lock()
	r.indexObject(obj)
	r.mu.Unlock()

	gotObj, gotSec, ok := r.ResolveAddr(0x2010)
	require.True(t, ok)
	assert.Same(t, obj, gotObj)
	assert.Same(t, sec, gotSec)

	_, _, ok = r.ResolveAddr(0x3000)
	assert.False(t, ok)
}

func TestResolveAddrClearedAfterUnindex(t *testing.T) {
	r := New()
	sec := &object.Section{Name: ".text", Base: 0x4000, Size: 0x10}
	obj := &object.Object{Oname: "gone.o", Sections: []*object.Section{sec}}

	r.mu.Lock()
	r.indexObject(obj)
	r.unindexObject(obj)
	r.mu.Unlock()

	_, _, ok := r.ResolveAddr(0x4004)
	assert.False(t, ok)
}
