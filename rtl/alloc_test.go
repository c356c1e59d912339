// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-rtl/rtl/alloc"
	"github.com/go-rtl/rtl/object"
)

func TestNewWiresModuleAllocator(t *testing.T) {
	r := New()

	buf := object.NewModuleBuffer(64)
	require.Len(t, buf, 64)
	assert.Equal(t, 1, r.Alloc.Stats()[alloc.Module])

	r.Alloc.Del(alloc.Module, buf)
	assert.Equal(t, 0, r.Alloc.Stats()[alloc.Module])
}

func TestAllocHookInstallAndSwap(t *testing.T) {
	r := New()

	var seen int
	hook := func(allocate bool, addr *[]byte, size int) bool {
		seen++
		*addr = make([]byte, size)
		return true
	}

	prev := r.AllocHook(alloc.Module, hook)
	assert.Nil(t, prev, "no hook should be installed initially")

	object.NewModuleBuffer(8)
	assert.Equal(t, 1, seen, "installed hook should see the module allocation")

	prev = r.AllocHook(alloc.Module, nil)
	require.NotNil(t, prev)
}
