// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package wrapper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// fakeStorage is a minimal in-memory contract.Storage used to exercise
// the wrapper layers without involving pkg/storage's file format.
type fakeStorage struct {
	docs      map[primitives.DocID]contract.Document
	getCalls  int32
	failNext  int32 // if > 0, the next N Get calls return a failKind error, marked transient if transient is set
	failKind  kerrors.Kind
	transient bool
	insertCtx context.Context
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{docs: make(map[primitives.DocID]contract.Document)}
}

func (f *fakeStorage) Insert(ctx context.Context, doc contract.Document) error {
	f.insertCtx = ctx
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeStorage) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	atomic.AddInt32(&f.getCalls, 1)
	if atomic.LoadInt32(&f.failNext) > 0 {
		atomic.AddInt32(&f.failNext, -1)
		err := kerrors.New(f.failKind, "injected failure", "", "", nil)
		if f.transient {
			err = kerrors.MarkTransient(err)
		}
		return contract.Document{}, false, err
	}
	doc, ok := f.docs[id]
	return doc, ok, nil
}

func (f *fakeStorage) Update(ctx context.Context, doc contract.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	_, ok := f.docs[id]
	delete(f.docs, id)
	return ok, nil
}

func (f *fakeStorage) ListAll(ctx context.Context) ([]contract.Document, error) {
	out := make([]contract.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStorage) Flush(ctx context.Context) error { return nil }
func (f *fakeStorage) Sync(ctx context.Context) error  { return nil }
func (f *fakeStorage) Close() error                    { return nil }

func mustTitle(t *testing.T, s string) primitives.Title {
	t.Helper()
	title, err := primitives.NewTitle(s)
	if err != nil {
		t.Fatalf("NewTitle: %v", err)
	}
	return title
}

func mustPath(t *testing.T, s string) primitives.Path {
	t.Helper()
	p, err := primitives.NewPath(s)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func sampleDoc(t *testing.T) contract.Document {
	return contract.Document{
		ID:        primitives.NewDocID(),
		Path:      mustPath(t, "a.go"),
		Title:     mustTitle(t, "a"),
		Content:   []byte("package a"),
		CreatedAt: time.Now().UnixNano(),
		UpdatedAt: time.Now().UnixNano(),
	}
}

func TestCachedStorage_ServesFromCacheWithoutHittingInner(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	cached := NewCachedStorage(base, 10)

	doc := sampleDoc(t)
	if err := cached.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, _, err := cached.Get(ctx, doc.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, _, err := cached.Get(ctx, doc.ID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := atomic.LoadInt32(&base.getCalls); got != 0 {
		t.Errorf("inner Get called %d times, want 0 (Insert should have primed the cache)", got)
	}
}

func TestCachedStorage_DeleteInvalidatesEntry(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	cached := NewCachedStorage(base, 10)
	doc := sampleDoc(t)
	if err := cached.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := cached.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, found, err := cached.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Error("Get found a deleted document")
	}
}

func TestRetryableStorage_RetriesTransientThenSucceeds(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	base.failNext = 2
	base.failKind = kerrors.IoFailed
	base.transient = true
	id := primitives.NewDocID()
	base.docs[id] = contract.Document{ID: id}

	cfg := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
	retryable := NewRetryableStorage(base, cfg)

	_, found, err := retryable.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found {
		t.Error("expected document to be found after retries succeeded")
	}
}

func TestRetryableStorage_DoesNotRetryValidationFailed(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	base.failNext = 1
	base.failKind = kerrors.ValidationFailed

	cfg := RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2}
	retryable := NewRetryableStorage(base, cfg)

	_, _, err := retryable.Get(ctx, primitives.NewDocID())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(&base.getCalls); got != 1 {
		t.Errorf("inner Get called %d times, want 1 (non-retryable error must not be retried)", got)
	}
}

func TestRetryableStorage_ExhaustsRetriesAndReturnsLastError(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	base.failNext = 100
	base.failKind = kerrors.IoFailed
	base.transient = true

	cfg := RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2}
	retryable := NewRetryableStorage(base, cfg)

	_, _, err := retryable.Get(ctx, primitives.NewDocID())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := atomic.LoadInt32(&base.getCalls); got != 3 {
		t.Errorf("inner Get called %d times, want 3 (1 initial + 2 retries)", got)
	}
}

func TestValidatedStorage_RejectsZeroID(t *testing.T) {
	ctx := context.Background()
	validated := NewValidatedStorage(newFakeStorage())
	doc := sampleDoc(t)
	doc.ID = primitives.DocID{}
	err := validated.Insert(ctx, doc)
	if err == nil {
		t.Fatal("expected validation error for zero id")
	}
	var ke *kerrors.KotaError
	if !errors.As(err, &ke) || ke.Kind != kerrors.ValidationFailed {
		t.Errorf("err kind = %v, want ValidationFailed", err)
	}
}

func TestValidatedStorage_RejectsZeroCreatedAt(t *testing.T) {
	ctx := context.Background()
	validated := NewValidatedStorage(newFakeStorage())
	doc := sampleDoc(t)
	doc.CreatedAt = 0
	if err := validated.Insert(ctx, doc); err == nil {
		t.Fatal("expected validation error for zero CreatedAt")
	}
}

func TestValidatedStorage_PassesThroughValidDocument(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	validated := NewValidatedStorage(base)
	doc := sampleDoc(t)
	if err := validated.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, ok := base.docs[doc.ID]; !ok {
		t.Error("valid document did not reach the inner storage")
	}
}

func TestTracedStorage_AttachesTraceIDAndForwards(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	traced := NewTracedStorage(base, nil)
	doc := sampleDoc(t)
	if err := traced.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, ok := base.docs[doc.ID]; !ok {
		t.Error("document did not reach the inner storage through the traced layer")
	}
	if observability.TraceID(base.insertCtx) == "" {
		t.Error("inner Insert received a context without a trace id")
	}
}

func TestStorageStack_ComposesAllFourLayers(t *testing.T) {
	ctx := context.Background()
	base := newFakeStorage()
	stack := StorageStack(base, StackConfig{Retry: RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 2}})

	doc := sampleDoc(t)
	if err := stack.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, found, err := stack.Get(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || got.ID != doc.ID {
		t.Fatalf("Get = %+v, found=%v, want doc %s", got, found, doc.ID)
	}

	// Validated layer should still reject a malformed document even
	// through the full stack.
	bad := doc
	bad.ID = primitives.DocID{}
	if err := stack.Insert(ctx, bad); err == nil {
		t.Error("expected validation error through full stack for zero id")
	}
}

func TestIndexStack_ComposesAllFourLayers(t *testing.T) {
	ctx := context.Background()
	base := newTestIndex()
	stack := IndexStack(base, StackConfig{Retry: DefaultRetryConfig()})

	id := primitives.NewDocID()
	path := mustPath(t, "a.go")
	if err := stack.Insert(ctx, id, path); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := stack.Search(ctx, contract.Query{ExactID: &id})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0] != id {
		t.Fatalf("Search = %v, want [%s]", got, id)
	}
}

// fakeIndex is a minimal contract.Index backed by an id set, enough to
// exercise the wrapper stack's Search/Insert/Delete plumbing.
type fakeIndex struct {
	ids map[primitives.DocID]bool
}

func newTestIndex() *fakeIndex { return &fakeIndex{ids: make(map[primitives.DocID]bool)} }

func (f *fakeIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	f.ids[id] = true
	return nil
}

func (f *fakeIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	f.ids[id] = true
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	ok := f.ids[id]
	delete(f.ids, id)
	return ok, nil
}

func (f *fakeIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	if q.ExactID != nil {
		if f.ids[*q.ExactID] {
			return []primitives.DocID{*q.ExactID}, nil
		}
		return nil, nil
	}
	out := make([]primitives.DocID, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeIndex) Flush(ctx context.Context) error { return nil }
