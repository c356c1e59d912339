// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import (
	"github.com/go-rtl/rtl/alloc"
	"github.com/go-rtl/rtl/object"
)

// UnloadObject fails if the object is locked; otherwise decrements
// the reference count and, on reaching zero, runs destructors with
// the lock released, erases the object's symbols from the global
// table, and removes it from the chain.
func (r *RTL) UnloadObject(obj *object.Object) error {
	r.mu.Lock()

	if !r.checkHandle(obj) {
		r.mu.Unlock()
		return r.setError(ErrState, "invalid handle")
	}
	if obj.Flags.Has(object.Locked) {
		r.mu.Unlock()
		return r.setError(ErrState, "cannot unload when locked")
	}

	if obj.Users > 0 {
		obj.Users--
	}
	if obj.Users > 0 {
		r.mu.Unlock()
		return nil
	}

	obj.Flags |= object.Locked
	r.mu.Unlock()
	obj.RunDtors(func(addr uint64) { callEntry(addr) })
	r.mu.Lock()
	obj.Flags &^= object.Locked

	erased := r.globals.EraseOwner(obj)
	r.unindexObject(obj)
	r.removeChain(obj)
	r.Alloc.Del(alloc.Module, obj.MemoryMap.Buf)
	r.log.Debug("unloaded object", "oname", obj.Oname, "symbols_erased", erased)

	r.mu.Unlock()
	return nil
}
