// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rap

import "testing"

func TestDecompressLZ77Literal(t *testing.T) {
	want := []byte("hello, world")
	src := append([]byte{byte(len(want))}, want...)

	got, err := decompressLZ77(src, len(want))
	if err != nil {
		t.Fatalf("decompressLZ77: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecompressLZ77BackReference(t *testing.T) {
	// "ab" literal, then a 4-byte back reference to offset 2 ("abab").
	src := []byte{2, 'a', 'b', 0x80, 0, 2}
	want := []byte("abab")

	got, err := decompressLZ77(src, len(want))
	if err != nil {
		t.Fatalf("decompressLZ77: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestDecompressLZ77MatchesNone checks that the NONE and LZ77
// compression variants decode to identical section bytes.
func TestDecompressLZ77MatchesNone(t *testing.T) {
	none := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04}

	lit := append([]byte{byte(len(none))}, none...)
	got, err := decompressLZ77(lit, len(none))
	if err != nil {
		t.Fatalf("decompressLZ77: %v", err)
	}
	if string(got) != string(none) {
		t.Fatalf("lz77 literal decode = %x, want %x (NONE bytes)", got, none)
	}
}

func TestDecompressLZ77OffsetOutOfRange(t *testing.T) {
	src := []byte{0x80, 0, 5}
	if _, err := decompressLZ77(src, 4); err == nil {
		t.Fatal("expected error for out-of-range back-reference offset")
	}
}

func TestDecompressLZ77TruncatedLiteral(t *testing.T) {
	src := []byte{5, 'a', 'b'}
	if _, err := decompressLZ77(src, 5); err == nil {
		t.Fatal("expected error for truncated literal run")
	}
}
