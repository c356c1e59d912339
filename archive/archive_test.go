// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildHeader renders a 60-byte ar member header: 16-byte name field,
// 12-byte mtime, 6-byte uid, 6-byte gid, 8-byte mode, 10-byte size,
// then the 2-byte "`\n" magic — mirroring genext of real ar output
// closely enough for Locate, which only reads name and size.
func buildHeader(name string, size int) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%-16s", name)
	fmt.Fprintf(&b, "%-12s", "0")
	fmt.Fprintf(&b, "%-6s", "0")
	fmt.Fprintf(&b, "%-6s", "0")
	fmt.Fprintf(&b, "%-8s", "100644")
	fmt.Fprintf(&b, "%-10d", size)
	b.WriteString("`\n")
	if b.Len() != headerSize {
		panic("bad test header size")
	}
	return b.Bytes()
}

func pad(body []byte) []byte {
	if len(body)%2 != 0 {
		return append(body, '\n')
	}
	return body
}

func buildArchive(members []struct {
	name string
	body []byte
}) []byte {
	var buf bytes.Buffer
	buf.WriteString(globalMagic)
	for _, m := range members {
		buf.Write(buildHeader(m.name, len(m.body)))
		buf.Write(pad(m.body))
	}
	return buf.Bytes()
}

func TestLocateShortName(t *testing.T) {
	data := buildArchive([]struct {
		name string
		body []byte
	}{
		{"foo.o/", []byte("FOOBODY")},
		{"bar.o/", []byte("BARBODY!")},
	})
	r := bytes.NewReader(data)
	m, err := Locate(r, "bar.o", 0)
	require.NoError(t, err)

	got := make([]byte, m.Size)
	_, err = r.ReadAt(got, m.Offset)
	require.NoError(t, err)
	assert.Equal(t, "BARBODY!", string(got))
}

func TestLocateExtendedName(t *testing.T) {
	longName := "this_is_a_really_long_object_filename.o"
	extTable := longName + "/\n"
	data := buildArchive([]struct {
		name string
		body []byte
	}{
		{"//", []byte(extTable)},
		{"/0", []byte("LONGBODY")},
	})
	r := bytes.NewReader(data)
	m, err := Locate(r, longName, 0)
	require.NoError(t, err)
	assert.Equal(t, longName, m.Name)
}

func TestLocateExtendedNameBeforeTable(t *testing.T) {
	// The "/<digits>" reference appears before the "//" table in file
	// order; Locate must keep scanning forward to resolve it.
	longName := "another_long_name_that_needs_the_table.o"
	extTable := longName + "/\n"
	data := buildArchive([]struct {
		name string
		body []byte
	}{
		{"/0", []byte("EARLYBODY")},
		{"//", []byte(extTable)},
	})
	r := bytes.NewReader(data)
	m, err := Locate(r, longName, 0)
	require.NoError(t, err)
	assert.Equal(t, longName, m.Name)
}

func TestLocateNotFound(t *testing.T) {
	data := buildArchive([]struct {
		name string
		body []byte
	}{
		{"foo.o/", []byte("X")},
	})
	_, err := Locate(bytes.NewReader(data), "missing.o", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLocateOffsetHint(t *testing.T) {
	data := buildArchive([]struct {
		name string
		body []byte
	}{
		{"foo.o/", []byte("FOOBODY")},
		{"bar.o/", []byte("BARBODY!")},
	})
	// Compute bar.o's header offset by hand: magic + one header + padded body.
	hint := int64(len(globalMagic) + headerSize + len(pad([]byte("FOOBODY"))))
	m, err := Locate(bytes.NewReader(data), "bar.o", hint)
	require.NoError(t, err)
	assert.EqualValues(t, 8, m.Size)
}
