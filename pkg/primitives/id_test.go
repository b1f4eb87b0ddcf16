// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package primitives

import (
	"testing"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

func TestNewDocID_NeverZero(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewDocID()
		if id.IsZero() {
			t.Fatal("NewDocID produced the all-zero id")
		}
	}
}

func TestDocIDFromBytes_RejectsZero(t *testing.T) {
	zero := make([]byte, 16)
	_, err := DocIDFromBytes(zero)
	if !kerrors.Is(err, kerrors.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}

func TestDocIDFromBytes_RejectsWrongLength(t *testing.T) {
	_, err := DocIDFromBytes([]byte{1, 2, 3})
	if !kerrors.Is(err, kerrors.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}

func TestDocIDFromBytes_Roundtrip(t *testing.T) {
	raw := make([]byte, 16)
	raw[15] = 1
	id, err := DocIDFromBytes(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.String() == "" {
		t.Fatal("expected non-empty string representation")
	}
	if got := id.Bytes(); len(got) != 16 {
		t.Fatalf("Bytes() length = %d, want 16", len(got))
	}
}

func TestDocID_Compare(t *testing.T) {
	a, _ := DocIDFromBytes(append(make([]byte, 15), 0x01))
	b, _ := DocIDFromBytes(append(make([]byte, 15), 0x02))

	if !a.Less(b) {
		t.Error("expected a < b")
	}
	if b.Less(a) == false && b.Compare(a) <= 0 {
		t.Error("expected b > a")
	}
	if a.Compare(a) != 0 {
		t.Error("expected a == a")
	}
}

func TestSymbolIDFromBytes_RejectsZero(t *testing.T) {
	zero := make([]byte, 16)
	_, err := SymbolIDFromBytes(zero)
	if !kerrors.Is(err, kerrors.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
}
