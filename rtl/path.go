// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtl

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PathAppend adds path to the end of the colon-delimited search path.
func (r *RTL) PathAppend(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = joinPath(r.paths, path, false)
}

// PathPrepend adds path to the front of the search path.
func (r *RTL) PathPrepend(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = joinPath(r.paths, path, true)
}

// Path returns the current colon-delimited search path.
func (r *RTL) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths
}

func joinPath(existing, add string, prepend bool) string {
	if existing == "" {
		return add
	}
	if prepend {
		return add + ":" + existing
	}
	return existing + ":" + add
}

// parsedName is the result of parsing an object name's grammar:
// "object[@offset]" or "archive:object[@offset]".
type parsedName struct {
	archive string // "" if standalone
	object  string
	offset  int64 // 0 if absent
}

// parseObjectName parses the grammar object[@offset] or
// archive:object[@offset]. offset is base-0, so "0x10" and "16" are
// both accepted.
func parseObjectName(name string) (parsedName, error) {
	var pn parsedName
	rest := name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		pn.archive = name[:i]
		rest = name[i+1:]
	}
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		pn.object = rest[:i]
		off, err := strconv.ParseInt(rest[i+1:], 0, 64)
		if err != nil {
			return parsedName{}, &Error{Kind: ErrFormat, Message: "bad offset in object name " + name}
		}
		pn.offset = off
	} else {
		pn.object = rest
	}
	if pn.object == "" {
		return parsedName{}, &Error{Kind: ErrFormat, Message: "empty object name"}
	}
	return pn, nil
}

// findFile resolves an object name to a full filesystem path by
// trying it as an absolute path first, then searching each
// colon-separated entry of paths.
func findFile(paths, name string) (fname string, fsize int64, ok bool) {
	if filepath.IsAbs(name) {
		if fi, err := os.Stat(name); err == nil {
			return name, fi.Size(), true
		}
		return "", 0, false
	}
	for _, dir := range strings.Split(paths, ":") {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil {
			return candidate, fi.Size(), true
		}
	}
	return "", 0, false
}
