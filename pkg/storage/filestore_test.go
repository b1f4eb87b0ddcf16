// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

func newTestDoc(t *testing.T, path, title, content string) contract.Document {
	t.Helper()
	p, err := primitives.NewPath(path)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	ti, err := primitives.NewTitle(title)
	if err != nil {
		t.Fatalf("NewTitle: %v", err)
	}
	return contract.Document{
		ID:        primitives.NewDocID(),
		Path:      p,
		Title:     ti,
		Content:   []byte(content),
		CreatedAt: 1,
		UpdatedAt: 1,
	}
}

func TestFileStore_InsertGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	fs, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fs.Close()

	doc := newTestDoc(t, "a/b.md", "Hello", "hello world")
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, ok, err := fs.Get(ctx, doc.ID)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got.Content) != "hello world" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestFileStore_InsertDuplicateFails(t *testing.T) {
	ctx := context.Background()
	fs, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fs.Close()

	doc := newTestDoc(t, "a.md", "A", "x")
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err = fs.Insert(ctx, doc)
	if !kerrors.Is(err, kerrors.AlreadyExists) {
		t.Fatalf("second Insert = %v, want AlreadyExists", err)
	}
}

func TestFileStore_UpdatePreservesCreatedAt(t *testing.T) {
	ctx := context.Background()
	fs, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fs.Close()

	doc := newTestDoc(t, "a.md", "A", "v1")
	doc.CreatedAt = 100
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	doc.Content = []byte("v2")
	doc.CreatedAt = 999 // should be ignored
	if err := fs.Update(ctx, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _, _ := fs.Get(ctx, doc.ID)
	if got.CreatedAt != 100 {
		t.Errorf("CreatedAt = %d, want 100", got.CreatedAt)
	}
	if string(got.Content) != "v2" {
		t.Errorf("Content = %q, want v2", got.Content)
	}
}

func TestFileStore_UpdateMissingFails(t *testing.T) {
	fs, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fs.Close()

	doc := newTestDoc(t, "a.md", "A", "x")
	err = fs.Update(context.Background(), doc)
	if !kerrors.Is(err, kerrors.NotFound) {
		t.Fatalf("Update on missing doc = %v, want NotFound", err)
	}
}

func TestFileStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	fs, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fs.Close()

	doc := newTestDoc(t, "a.md", "A", "x")
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	ok, err := fs.Delete(ctx, doc.ID)
	if err != nil || !ok {
		t.Fatalf("first Delete: ok=%v err=%v", ok, err)
	}
	ok, err = fs.Delete(ctx, doc.ID)
	if err != nil || ok {
		t.Fatalf("second Delete: ok=%v err=%v, want false/nil", ok, err)
	}
	if _, ok, _ := fs.Get(ctx, doc.ID); ok {
		t.Error("expected document to be gone after delete")
	}
}

func TestFileStore_ListAllInsertionOrder(t *testing.T) {
	ctx := context.Background()
	fs, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer fs.Close()

	var ids []primitives.DocID
	for i := 0; i < 5; i++ {
		doc := newTestDoc(t, "f.md", "T", "c")
		ids = append(ids, doc.ID)
		if err := fs.Insert(ctx, doc); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	docs, err := fs.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(docs) != 5 {
		t.Fatalf("len = %d, want 5", len(docs))
	}
	for i, d := range docs {
		if d.ID != ids[i] {
			t.Errorf("docs[%d].ID = %s, want %s", i, d.ID, ids[i])
		}
	}
}

func TestFileStore_ReopenRecoversState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc := newTestDoc(t, "a.md", "A", "persisted")
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := fs.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fs2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen Open: %v", err)
	}
	defer fs2.Close()

	got, ok, err := fs2.Get(ctx, doc.ID)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if string(got.Content) != "persisted" {
		t.Errorf("Content after reopen = %q", got.Content)
	}
}

// TestFileStore_RecoveryIgnoresMissingSidecar simulates a crash between
// the WAL write and the metadata sidecar write (§4.2 S4): the WAL
// record exists but documents/<id>.json was never created. Recovery
// must not surface a partially populated document.
func TestFileStore_RecoveryIgnoresMissingSidecar(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc := newTestDoc(t, "a.md", "A", "committed")
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Simulate the crash: append a second insert's WAL record directly
	// without ever writing its content/metadata files.
	ghost := newTestDoc(t, "b.md", "B", "never written")
	hash := contentHash(ghost.Content)
	payload := encodeMutationPayload(ghost.ID, ghost.Path.String(), uint64(len(ghost.Content)), hash)
	if err := fs.wal.Append(opInsert, payload); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := fs.wal.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := fs.wal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fs2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer fs2.Close()

	if _, ok, _ := fs2.Get(ctx, doc.ID); !ok {
		t.Error("expected first document to survive recovery")
	}
	if _, ok, _ := fs2.Get(ctx, ghost.ID); ok {
		t.Error("expected ghost document (no sidecar) to be absent after recovery")
	}
}

// TestFileStore_RecoveryTruncatesCorruptTail simulates a crash mid
// WAL-record write: a truncated trailing record must not stop
// recovery from returning the previously committed documents, and the
// corrupt tail must be truncated away so later writers do not append
// after garbage bytes.
func TestFileStore_RecoveryTruncatesCorruptTail(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	fs, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc := newTestDoc(t, "a.md", "A", "good")
	if err := fs.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	walPath := filepath.Join(dir, "wal", "current.wal")
	f, err := os.OpenFile(walPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	// a header claiming a large payload with none of the bytes present.
	if _, err := f.Write([]byte{0xFF, 0xFF, 0x00, 0x00, 0, 0, 0, 0}); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f.Close()

	fi, err := os.Stat(walPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	sizeBefore := fi.Size()

	fs2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer fs2.Close()

	if _, ok, _ := fs2.Get(ctx, doc.ID); !ok {
		t.Error("expected committed document to survive truncated-tail recovery")
	}

	fi2, err := os.Stat(walPath)
	if err != nil {
		t.Fatalf("stat after recovery: %v", err)
	}
	if fi2.Size() >= sizeBefore {
		t.Errorf("expected wal to be truncated, size before=%d after=%d", sizeBefore, fi2.Size())
	}
}
