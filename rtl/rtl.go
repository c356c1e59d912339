// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rtl is the process-wide runtime link editor façade: the
// object chain, the global symbol table, the shared read-ahead
// caches, the search path, and the single lock that serializes every
// public entry point.
//
// There is exactly one RTL instance per process, created lazily on
// first use by Default. Tests that want an isolated instance should
// call New directly instead.
package rtl

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/go-rtl/rtl/alloc"
	"github.com/go-rtl/rtl/cache"
	"github.com/go-rtl/rtl/config"
	"github.com/go-rtl/rtl/internal/imap"
	"github.com/go-rtl/rtl/object"
	"github.com/go-rtl/rtl/rttlog"
	"github.com/go-rtl/rtl/symtab"
)

// baseOwner is the sentinel owner value the global symbol table uses
// for the base image's exports, so EraseOwner never mistakes them for
// a loaded object's symbols.
type baseOwner struct{}

// RTL is the runtime link editor singleton. Every exported method
// acquires mu, mirroring the C implementation's single binary
// semaphore: there is no finer-grained locking anywhere in this
// package.
type RTL struct {
	mu sync.Mutex

	base    *object.Object
	objects *object.Object // head of the chain; base is never in it
	tail    *object.Object

	globals *symtab.Table
	caches  *cache.Set
	addrs   imap.Imap

	// Alloc is the allocator facade every module-memory allocation and
	// release routes through. Install a per-tag hook with AllocHook to
	// redirect a tag to an embedding application's own pool; read
	// Stats for outstanding-allocation counts.
	Alloc *alloc.Allocator

	paths string

	lastErr Error

	log *slog.Logger
	// Diag is the ring buffer rtlctl diag reads; always non-nil.
	Diag *rttlog.Ring

	// Rendezvous is called at four points: before and after an object
	// is added to the chain, before and after one is removed. It is
	// nil by default; a debugger sets it to place a breakpoint,
	// matching the original's empty extern function.
	Rendezvous func(event RendezvousEvent, obj *object.Object)
}

// RendezvousEvent identifies one of the four debugger-rendezvous call
// points.
type RendezvousEvent int

const (
	BeforeAdd RendezvousEvent = iota
	AfterAdd
	BeforeDelete
	AfterDelete
)

var (
	defaultOnce sync.Once
	defaultRTL  *RTL
)

// Default returns the process-wide RTL instance, creating it (and its
// base image, caches, and lock) on first call. This mirrors the
// lazy, filesystem-lock-guarded initialization in rtems_rtl_data_init.
func Default() *RTL {
	defaultOnce.Do(func() {
		defaultRTL = New()
	})
	return defaultRTL
}

// New creates a standalone RTL instance with its own lock, chain, and
// symbol table, using the package's built-in bootstrap defaults. Most
// callers want Default; New exists for tests and for embedding more
// than one RTL in a single process. Callers that loaded a config file
// should use NewWithConfig instead.
func New() *RTL {
	return NewWithConfig(config.Config{Path: ".", CacheSize: cache.DefaultSize})
}

// NewWithConfig is like New but seeds the search path and read-ahead
// cache size from cfg instead of the built-in defaults, for callers
// that bootstrap from a config.Load result.
func NewWithConfig(cfg config.Config) *RTL {
	path := cfg.Path
	if path == "" {
		path = "."
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = cache.DefaultSize
	}

	ring := rttlog.NewRing(256)
	r := &RTL{
		base:    &object.Object{Oname: "rtl-base"},
		globals: symtab.New(256),
		caches:  cache.NewSet(cacheSize),
		Alloc:   &alloc.Allocator{},
		paths:   path,
		Diag:    ring,
		log:     rttlog.New(os.Stderr, ring),
	}
	object.ModuleAllocator = func(size int) []byte { return r.Alloc.New(alloc.Module, size) }
	return r
}

// AllocHook installs (or, with hook == nil, removes) the allocation
// hook for tag and returns the previously installed hook, mirroring
// rtems_rtl_alloc_hook's swap-and-return-previous semantics.
func (r *RTL) AllocHook(tag alloc.Tag, hook alloc.Hook) alloc.Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.Alloc.Hook(tag)
	r.Alloc.SetHook(tag, hook)
	return prev
}

// SetLogOutput replaces the human-readable log sink; the ring sink
// backing Diag is unaffected. Defaults to os.Stderr.
func (r *RTL) SetLogOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = rttlog.New(w, r.Diag)
}

// BaseSymbol is one entry of the base image's exported-symbol table,
// seeded at startup the way rtems_rtl_base_global_syms_init populates
// the RTEMS base image's symbols.
type BaseSymbol struct {
	Name  string
	Value uint64
	Kind  object.Kind
}

// RegisterBaseSymbols populates the base image's exported-symbol
// table. It is a stand-in for the build-time-generated, optionally
// absent weak hook the original links in; calling it with zero
// symbols (or not calling it at all) is valid — the base image is
// simply empty.
func (r *RTL) RegisterBaseSymbols(syms []BaseSymbol) {
	r.mu.Lock()
	defer r.mu.Unlock()

	objSyms := make([]object.Symbol, len(syms))
	for i, s := range syms {
		objSyms[i] = object.Symbol{Name: s.Name, Value: s.Value, Bind: object.BindGlobal, Kind: s.Kind}
	}
	r.base.Symbols = object.SymbolBlock{Symbols: objSyms}
	for i := range objSyms {
		r.globals.Insert(&r.base.Symbols.Symbols[i], baseOwner{})
	}
}

// cacheSet returns the shared cache set backing every loader pass. The
// caller must hold mu and must not begin a second loader pass until
// the first has flushed and returned: the shared caches are not
// reentrant.
func (r *RTL) cacheSet() *cache.Set { return r.caches }

// appendChain adds obj at the tail of the object chain, firing the
// rendezvous hook before and after.
func (r *RTL) appendChain(obj *object.Object) {
	r.fireRendezvous(BeforeAdd, obj)
	if r.objects == nil {
		r.objects = obj
		r.tail = obj
	} else {
		r.tail.Next = obj
		obj.Prev = r.tail
		r.tail = obj
	}
	r.fireRendezvous(AfterAdd, obj)
}

// removeChain splices obj out of the object chain, firing the
// rendezvous hook before and after.
func (r *RTL) removeChain(obj *object.Object) {
	r.fireRendezvous(BeforeDelete, obj)
	if obj.Prev != nil {
		obj.Prev.Next = obj.Next
	} else {
		r.objects = obj.Next
	}
	if obj.Next != nil {
		obj.Next.Prev = obj.Prev
	} else {
		r.tail = obj.Prev
	}
	obj.Prev, obj.Next = nil, nil
	r.fireRendezvous(AfterDelete, obj)
}

func (r *RTL) fireRendezvous(ev RendezvousEvent, obj *object.Object) {
	if r.Rendezvous != nil {
		r.Rendezvous(ev, obj)
	}
}

// findByName returns the chain object whose Oname matches name, or
// nil. The caller must hold mu.
func (r *RTL) findByName(name string) *object.Object {
	for o := r.objects; o != nil; o = o.Next {
		if o.Oname == name {
			return o
		}
	}
	return nil
}

// checkHandle reports whether obj is a live object in the chain or is
// the base image. It is the Go analogue of rtems_rtl_check_handle.
func (r *RTL) checkHandle(obj *object.Object) bool {
	if obj == r.base {
		return true
	}
	for o := r.objects; o != nil; o = o.Next {
		if o == obj {
			return true
		}
	}
	return false
}

// BaseImage returns the object descriptor representing the host
// program's own exported symbols. It is never nil and is never
// present in the object chain.
func (r *RTL) BaseImage() *object.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.base
}

// Objects returns a snapshot of the currently loaded object chain, in
// load order. The base image is never included.
func (r *RTL) Objects() []*object.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*object.Object
	for o := r.objects; o != nil; o = o.Next {
		out = append(out, o)
	}
	return out
}

func (r *RTL) setError(kind ErrorKind, format string, args ...interface{}) error {
	e := Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
	r.lastErr = e
	return e
}
