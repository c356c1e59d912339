// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import "github.com/go-rtl/rtl/object"

// Handle identifies an opened object: either a loaded module or the
// sentinel base-image handles. It is the Go analogue of the POSIX
// facade's void* handle, minus the C-specific DEFAULT/SELF
// distinction — both map to the same base image here.
type Handle = *object.Object

// Open is the thin POSIX-style entry point (dlopen): name == ""
// returns the base image handle; otherwise it loads name via
// LoadObject.
func (r *RTL) Open(name string, machines []Machine) (Handle, error) {
	if name == "" {
		return r.BaseImage(), nil
	}
	return r.LoadObject(name, machines)
}

// Close is the thin POSIX-style entry point (dlclose). Closing the
// base image is a no-op success, matching the base image's
// teardown-forbidden invariant.
func (r *RTL) Close(h Handle) error {
	if h == r.BaseImage() {
		return nil
	}
	return r.UnloadObject(h)
}

// Sym is the thin POSIX-style entry point (dlsym): looks up name in
// h's own exported symbols. A handle that isn't in the chain (and
// isn't the base image) returns ok=false and sets no error.
func (r *RTL) Sym(h Handle, name string) (value uint64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.checkHandle(h) {
		return 0, false
	}
	sym := h.Symbols.Find(name)
	if sym == nil {
		return 0, false
	}
	return sym.Value, true
}

// InfoRequest selects a dlinfo-style query. Only UNRESOLVED is
// supported.
type InfoRequest int

const (
	InfoUnresolved InfoRequest = iota
)

// Info is the thin POSIX-style entry point (dlinfo).
func (r *RTL) Info(h Handle, req InfoRequest) (result int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.checkHandle(h) {
		return -1, r.setError(ErrState, "invalid handle")
	}
	switch req {
	case InfoUnresolved:
		if h.Flags.Has(object.Unresolved) {
			return 1, nil
		}
		return 0, nil
	default:
		return -1, r.setError(ErrState, "unsupported info request")
	}
}
