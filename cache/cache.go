// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache implements the RTL's read-ahead caches: fixed-size
// buffers that the ELF and RAP loaders stream section headers, symbol
// table entries, and string table bytes through, so a format loader
// never issues one tiny read per record.
package cache

import (
	"io"
)

// DefaultSize is a reasonable default buffer size for a new Cache.
const DefaultSize = 2048

// A Cache is one fixed-size read-ahead buffer bound to a single
// io.ReaderAt at a time. It is not safe for concurrent use; the RTL
// lock serializes access the same way it serializes every other
// loader operation.
type Cache struct {
	buf    []byte
	r      io.ReaderAt
	offset int64
	valid  int
}

// New creates a Cache with the given buffer size.
func New(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{buf: make([]byte, size)}
}

// Bind switches the cache to read from r, invalidating any cached
// content from a previous reader. Loaders call this once per object,
// before any cache reads against that object's file.
func (c *Cache) Bind(r io.ReaderAt) {
	c.r = r
	c.valid = 0
}

// Flush invalidates the cache without changing its bound reader,
// for use between separate file operations on the same object.
func (c *Cache) Flush() {
	c.valid = 0
}

// Read returns a slice into the cache's buffer covering up to want
// bytes starting at offset. If want exceeds the cache's size, the
// returned slice is shorter than requested, which is why string
// reads through this method are bounded by the cache size. The
// returned slice is only valid until the next Read/ReadInto call.
func (c *Cache) Read(offset int64, want int) ([]byte, error) {
	if want > len(c.buf) {
		want = len(c.buf)
	}
	if !c.covers(offset, want) {
		if err := c.fill(offset); err != nil {
			return nil, err
		}
		if !c.covers(offset, want) {
			// Even a fresh fill doesn't cover it: offset is past EOF,
			// or want still exceeds what's available after the short
			// read at EOF.
			avail := c.valid - int(offset-c.offset)
			if avail < 0 {
				avail = 0
			}
			if avail < want {
				want = avail
			}
		}
	}
	start := int(offset - c.offset)
	return c.buf[start : start+want], nil
}

// ReadInto copies len(dst) bytes starting at offset into dst, for
// fixed-size records whose lifetime must outlive the next cache fill.
func (c *Cache) ReadInto(offset int64, dst []byte) error {
	src, err := c.Read(offset, len(dst))
	if err != nil {
		return err
	}
	n := copy(dst, src)
	if n < len(dst) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (c *Cache) covers(offset int64, want int) bool {
	if c.valid == 0 {
		return false
	}
	if offset < c.offset || offset >= c.offset+int64(c.valid) {
		return false
	}
	return int(offset-c.offset)+want <= c.valid
}

func (c *Cache) fill(offset int64) error {
	n, err := c.r.ReadAt(c.buf, offset)
	if n == 0 && err != nil && err != io.EOF {
		c.valid = 0
		return err
	}
	c.offset = offset
	c.valid = n
	return nil
}

// Set is the RTL's read-ahead caches: section headers, symbol table
// entries, string table bytes, and relocation records, kept distinct
// so their fills don't thrash each other — relocation records get
// their own buffer rather than overloading one of the other three.
type Set struct {
	Sections *Cache
	Symbols  *Cache
	Strings  *Cache
	Relocs   *Cache
}

// NewSet creates a Set of four caches of the given size.
func NewSet(size int) *Set {
	return &Set{New(size), New(size), New(size), New(size)}
}

// Bind binds every cache in the set to r.
func (s *Set) Bind(r io.ReaderAt) {
	s.Sections.Bind(r)
	s.Symbols.Bind(r)
	s.Strings.Bind(r)
	s.Relocs.Bind(r)
}

// Flush invalidates every cache in the set.
func (s *Set) Flush() {
	s.Sections.Flush()
	s.Symbols.Flush()
	s.Strings.Flush()
	s.Relocs.Flush()
}
