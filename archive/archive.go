// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive locates a named member within a classic Unix "ar"
// archive, including GNU's "//" extended-filename table for member
// names longer than 15 characters.
package archive

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	globalMagic = "!<arch>\n"
	headerSize  = 60
	nameSize    = 16
)

// A Member describes where a located member's body lives within the
// archive file.
type Member struct {
	Name   string
	Offset int64 // body start, relative to the archive file
	Size   int64 // body length, unpadded
}

// Locate finds the member named name within the archive read from r.
// If hint is non-zero, it is tried first as the byte offset of the
// member's header (the "foo.a:bar.o@12345" fast path); if the header
// at that offset doesn't match name, Locate falls back to a full
// linear scan from the start of the archive.
func Locate(r io.ReaderAt, name string, hint int64) (Member, error) {
	if hint != 0 {
		if m, ok := tryHeaderAt(r, name, hint); ok {
			return m, nil
		}
	}
	return scan(r, name)
}

func tryHeaderAt(r io.ReaderAt, name string, offset int64) (Member, bool) {
	var hdr [headerSize]byte
	if _, err := r.ReadAt(hdr[:], offset); err != nil {
		return Member{}, false
	}
	if !validHeader(hdr[:]) {
		return Member{}, false
	}
	rawName := strings.TrimRight(string(hdr[0:nameSize]), " ")
	if !matchesName(rawName, name) {
		return Member{}, false
	}
	size, err := parseSize(hdr[:])
	if err != nil {
		return Member{}, false
	}
	return Member{Name: name, Offset: offset + headerSize, Size: size}, true
}

func scan(r io.ReaderAt, name string) (Member, error) {
	var magic [len(globalMagic)]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return Member{}, fmt.Errorf("archive: %w", err)
	}
	if string(magic[:]) != globalMagic {
		return Member{}, fmt.Errorf("archive: bad magic")
	}

	var extNames []byte
	var extNamesOffset int64 = -1

	offset := int64(len(globalMagic))
	for {
		var hdr [headerSize]byte
		n, err := r.ReadAt(hdr[:], offset)
		if n < headerSize {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			if err != nil {
				return Member{}, fmt.Errorf("archive: %w", err)
			}
			break
		}
		if !validHeader(hdr[:]) {
			return Member{}, fmt.Errorf("archive: malformed member header at offset %d", offset)
		}
		size, err := parseSize(hdr[:])
		if err != nil {
			return Member{}, fmt.Errorf("archive: %w", err)
		}
		bodyOffset := offset + headerSize
		rawName := strings.TrimRight(string(hdr[0:nameSize]), " ")

		switch {
		case rawName == "/":
			// Symbol table; skip.
		case rawName == "//":
			extNamesOffset = bodyOffset
			buf := make([]byte, size)
			if _, err := r.ReadAt(buf, bodyOffset); err != nil && err != io.EOF {
				return Member{}, fmt.Errorf("archive: reading extended name table: %w", err)
			}
			extNames = buf
			if matchesName("//", name) {
				// Nobody ever asks for the table itself; defensive only.
			}
		case strings.HasPrefix(rawName, "/") && isDecimal(rawName[1:]):
			if extNamesOffset < 0 {
				// Extended-name table not seen yet: keep scanning
				// forward until "//" turns up or we exhaust the
				// archive, then resolve this member's real name.
				resolved, err := resolveLater(r, offset, rawName, name, size, bodyOffset)
				if err == nil && resolved {
					return Member{Name: name, Offset: bodyOffset, Size: size}, nil
				}
			} else if realName, ok := lookupExtName(extNames, rawName); ok && matchesName(realName, name) {
				return Member{Name: name, Offset: bodyOffset, Size: size}, nil
			}
		default:
			if matchesName(rawName, name) {
				return Member{Name: name, Offset: bodyOffset, Size: size}, nil
			}
		}

		offset = bodyOffset + size
		if size%2 != 0 {
			offset++ // body padded to even length
		}
	}
	return Member{}, fmt.Errorf("archive: member %q not found", name)
}

// resolveLater continues scanning past the current member looking for
// the "//" table, then checks whether this member (whose name we
// couldn't yet resolve) is the one being searched for. This mirrors
// the original RTL's behavior of not requiring "//" to precede every
// "/<digits>" reference.
func resolveLater(r io.ReaderAt, afterOffset int64, rawName, wantName string, size, bodyOffset int64) (bool, error) {
	offset := bodyOffset + size
	if size%2 != 0 {
		offset++
	}
	for {
		var hdr [headerSize]byte
		n, err := r.ReadAt(hdr[:], offset)
		if n < headerSize {
			return false, io.EOF
		}
		if err != nil && err != io.EOF {
			return false, err
		}
		if !validHeader(hdr[:]) {
			return false, fmt.Errorf("malformed header while resolving extended name")
		}
		name2 := strings.TrimRight(string(hdr[0:nameSize]), " ")
		sz2, err := parseSize(hdr[:])
		if err != nil {
			return false, err
		}
		body2 := offset + headerSize
		if name2 == "//" {
			buf := make([]byte, sz2)
			if _, err := r.ReadAt(buf, body2); err != nil && err != io.EOF {
				return false, err
			}
			real, ok := lookupExtName(buf, rawName)
			return ok && matchesName(real, wantName), nil
		}
		offset = body2 + sz2
		if sz2%2 != 0 {
			offset++
		}
	}
}

func lookupExtName(table []byte, ref string) (string, bool) {
	idx, err := strconv.Atoi(ref[1:])
	if err != nil || idx < 0 || idx >= len(table) {
		return "", false
	}
	end := idx
	for end < len(table) && table[end] != '\n' {
		end++
	}
	name := string(table[idx:end])
	return strings.TrimRight(name, "/"), true
}

func validHeader(hdr []byte) bool {
	return hdr[58] == '`' && hdr[59] == '\n'
}

func parseSize(hdr []byte) (int64, error) {
	s := strings.TrimSpace(string(hdr[48:58]))
	return strconv.ParseInt(s, 10, 64)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// matchesName compares a raw archive member-name field against a
// requested name, accepting the terminators '/', '\n', '\0' that the
// ar format uses after a short name.
func matchesName(raw, want string) bool {
	raw = strings.TrimRight(raw, "/\n\x00")
	return raw == want
}
