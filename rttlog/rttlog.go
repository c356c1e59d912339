// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rttlog provides the RTL's structured logging, fanned out to
// a human-readable stream and an in-memory ring the rtlctl diag
// subcommand can dump. It stands in for RTEMS's rtems_rtl_trace
// bitmask (RTEMS_RTL_TRACE_LOAD/RELOC/SYMBOL/ARCHIVE/DETAIL), replaced
// here by ordinary slog levels and attributes, which is the
// idiomatic Go equivalent of a trace-category mask.
package rttlog

import (
	"context"
	"io"
	"log/slog"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

// Ring is a fixed-capacity, thread-safe ring buffer of log records,
// read by rtlctl diag.
type Ring struct {
	mu      sync.Mutex
	records []Record
	cap     int
	next    int
	full    bool
}

// Record is a single captured log line, flattened for display.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// NewRing creates a Ring holding at most cap records, oldest
// overwritten first.
func NewRing(cap int) *Ring {
	if cap <= 0 {
		cap = 256
	}
	return &Ring{records: make([]Record, cap), cap: cap}
}

func (r *Ring) push(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[r.next] = rec
	r.next = (r.next + 1) % r.cap
	if r.next == 0 {
		r.full = true
	}
}

// Records returns the ring's contents in oldest-to-newest order.
func (r *Ring) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Record, r.next)
		copy(out, r.records[:r.next])
		return out
	}
	out := make([]Record, r.cap)
	copy(out, r.records[r.next:])
	copy(out[r.cap-r.next:], r.records[:r.next])
	return out
}

// ringHandler is a minimal slog.Handler that appends every record it
// sees to a Ring.
type ringHandler struct {
	ring  *Ring
	attrs []slog.Attr
}

func (h *ringHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *ringHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.ring.push(Record{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *ringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ringHandler{ring: h.ring, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *ringHandler) WithGroup(name string) slog.Handler { return h }

// New builds a logger that writes human-readable text to w and also
// retains every record in ring, via slog-multi's fan-out handler.
func New(w io.Writer, ring *Ring) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := slogmulti.Fanout(text, &ringHandler{ring: ring})
	return slog.New(handler)
}
