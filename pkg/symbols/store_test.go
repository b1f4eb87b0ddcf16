// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package symbols

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/kotadb/pkg/primitives"
)

func mustPath(t *testing.T, s string) primitives.Path {
	t.Helper()
	p, err := primitives.NewPath(s)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func TestStore_AppendAndLookup(t *testing.T) {
	s := New()
	id := primitives.NewSymbolID()
	sym := Symbol{ID: id, Kind: KindFunction, Name: "handleRequest", File: mustPath(t, "a.go"), StartLine: 10, EndLine: 20}
	if err := s.Append(sym); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, ok := s.Lookup(id)
	if !ok {
		t.Fatal("Lookup did not find appended symbol")
	}
	if got.Name != "handleRequest" || got.StartLine != 10 {
		t.Errorf("Lookup = %+v, want name=handleRequest start=10", got)
	}
}

func TestStore_RejectsInvalidLineRange(t *testing.T) {
	s := New()
	sym := Symbol{ID: primitives.NewSymbolID(), Kind: KindFunction, Name: "f", File: mustPath(t, "a.go"), StartLine: 20, EndLine: 10}
	if err := s.Append(sym); err == nil {
		t.Fatal("expected error for start_line > end_line")
	}
}

func TestStore_RejectsUnresolvedParent(t *testing.T) {
	s := New()
	ghost := primitives.NewSymbolID()
	sym := Symbol{ID: primitives.NewSymbolID(), Kind: KindMethod, Name: "m", File: mustPath(t, "a.go"), StartLine: 1, EndLine: 2, Parent: &ghost}
	if err := s.Append(sym); err == nil {
		t.Fatal("expected error for parent referencing an unappended symbol")
	}
}

func TestStore_ByNameAndByFile(t *testing.T) {
	s := New()
	f1 := mustPath(t, "a.go")
	f2 := mustPath(t, "b.go")
	s1 := Symbol{ID: primitives.NewSymbolID(), Kind: KindFunction, Name: "run", File: f1, StartLine: 1, EndLine: 2}
	s2 := Symbol{ID: primitives.NewSymbolID(), Kind: KindFunction, Name: "run", File: f2, StartLine: 3, EndLine: 4}
	if err := s.Append(s1); err != nil {
		t.Fatalf("Append s1: %v", err)
	}
	if err := s.Append(s2); err != nil {
		t.Fatalf("Append s2: %v", err)
	}
	byName := s.ByName("run")
	if len(byName) != 2 {
		t.Fatalf("ByName(run) = %v, want 2 entries", byName)
	}
	byFile := s.ByFile(f1)
	if len(byFile) != 1 || byFile[0] != s1.ID {
		t.Fatalf("ByFile(a.go) = %v, want [%s]", byFile, s1.ID)
	}
}

func TestStore_SaveAndReopenPreservesParentLink(t *testing.T) {
	s := New()
	parentID := primitives.NewSymbolID()
	parent := Symbol{ID: parentID, Kind: KindStruct, Name: "Handler", File: mustPath(t, "a.go"), StartLine: 1, EndLine: 50}
	child := Symbol{ID: primitives.NewSymbolID(), Kind: KindMethod, Name: "Serve", File: mustPath(t, "a.go"), StartLine: 10, EndLine: 20, Parent: &parentID}
	if err := s.Append(parent); err != nil {
		t.Fatalf("Append parent: %v", err)
	}
	if err := s.Append(child); err != nil {
		t.Fatalf("Append child: %v", err)
	}

	path := filepath.Join(t.TempDir(), "symbols.kota")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reopened.Len())
	}
	gotChild, ok := reopened.Lookup(child.ID)
	if !ok {
		t.Fatal("reopened store missing child symbol")
	}
	if gotChild.Parent == nil || *gotChild.Parent != parentID {
		t.Errorf("reopened child.Parent = %v, want %s", gotChild.Parent, parentID)
	}
}

func TestStore_OpenMissingFileReturnsEmptyStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "missing.kota"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestStore_OpenRejectsCorruptChecksum(t *testing.T) {
	s := New()
	if err := s.Append(Symbol{ID: primitives.NewSymbolID(), Kind: KindFunction, Name: "f", File: mustPath(t, "a.go"), StartLine: 1, EndLine: 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	path := filepath.Join(t.TempDir(), "symbols.kota")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	buf[headerSize] ^= 0xFF // corrupt the first record byte
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening a file with a corrupted checksum")
	}
}
