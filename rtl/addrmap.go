// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import (
	"github.com/go-rtl/rtl/internal/imap"
	"github.com/go-rtl/rtl/object"
)

// addrEntry is what the address interval map stores per loaded
// section: enough to answer "what object and section owns this
// address" through ResolveAddr.
type addrEntry struct {
	obj *object.Object
	sec *object.Section
}

// indexObject records every loaded section's runtime range in the
// address map, so ResolveAddr can answer queries against it. The
// caller must hold mu.
func (r *RTL) indexObject(obj *object.Object) {
	for _, s := range obj.Sections {
		if s.Base == 0 || s.Size == 0 {
			continue
		}
		r.addrs.Insert(imap.Interval{Low: s.Base, High: s.Base + s.Size}, addrEntry{obj, s})
	}
}

// unindexObject removes obj's sections from the address map by
// overwriting their ranges with a nil entry. The caller must hold mu.
func (r *RTL) unindexObject(obj *object.Object) {
	for _, s := range obj.Sections {
		if s.Base == 0 || s.Size == 0 {
			continue
		}
		r.addrs.Insert(imap.Interval{Low: s.Base, High: s.Base + s.Size}, nil)
	}
}

// ResolveAddr finds the object and section owning addr, the Go
// analogue of the debugger-facing address lookups rtl-debugger.c's
// rendezvous support exists to make possible.
func (r *RTL) ResolveAddr(addr uint64) (obj *object.Object, sec *object.Section, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, value := r.addrs.Find(addr)
	e, isEntry := value.(addrEntry)
	if !isEntry || e.obj == nil {
		return nil, nil, false
	}
	return e.obj, e.sec, true
}
