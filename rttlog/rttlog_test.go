// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rttlog

import (
	"bytes"
	"log/slog"
	"testing"
)

func TestNewLogsToBothSinks(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRing(4)
	log := New(&buf, ring)

	log.Warn("relocation unresolved", "symbol", "foo", "object", "bar.o")

	if buf.Len() == 0 {
		t.Fatal("expected text handler to receive the record")
	}
	recs := ring.Records()
	if len(recs) != 1 {
		t.Fatalf("ring has %d records, want 1", len(recs))
	}
	if recs[0].Message != "relocation unresolved" || recs[0].Level != slog.LevelWarn {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
	if recs[0].Attrs["symbol"] != "foo" {
		t.Fatalf("expected symbol attr, got %+v", recs[0].Attrs)
	}
}

func TestRingWraps(t *testing.T) {
	ring := NewRing(2)
	var buf bytes.Buffer
	log := New(&buf, ring)

	log.Info("one")
	log.Info("two")
	log.Info("three")

	recs := ring.Records()
	if len(recs) != 2 {
		t.Fatalf("ring has %d records, want 2", len(recs))
	}
	if recs[0].Message != "two" || recs[1].Message != "three" {
		t.Fatalf("unexpected ring order: %+v", recs)
	}
}
