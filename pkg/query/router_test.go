// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package query

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

type fakeIndex struct {
	mu    sync.Mutex
	ids   []primitives.DocID
	calls int
}

func (f *fakeIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	return nil
}
func (f *fakeIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	return nil
}
func (f *fakeIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) { return false, nil }
func (f *fakeIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.ids, nil
}
func (f *fakeIndex) Flush(ctx context.Context) error { return nil }

type fakeStorage struct {
	docs map[primitives.DocID]contract.Document
}

func (s *fakeStorage) Insert(ctx context.Context, doc contract.Document) error {
	s.docs[doc.ID] = doc
	return nil
}
func (s *fakeStorage) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	d, ok := s.docs[id]
	return d, ok, nil
}
func (s *fakeStorage) Update(ctx context.Context, doc contract.Document) error { return nil }
func (s *fakeStorage) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	return false, nil
}
func (s *fakeStorage) ListAll(ctx context.Context) ([]contract.Document, error) { return nil, nil }
func (s *fakeStorage) Flush(ctx context.Context) error                         { return nil }
func (s *fakeStorage) Sync(ctx context.Context) error                          { return nil }
func (s *fakeStorage) Close() error                                            { return nil }

func newFakeStorage() *fakeStorage {
	return &fakeStorage{docs: make(map[primitives.DocID]contract.Document)}
}

func TestRouter_EmptyTermsRoutesToPrimary(t *testing.T) {
	primary, trigram := &fakeIndex{}, &fakeIndex{}
	r := New(primary, trigram, newFakeStorage())
	if got := r.Decide(contract.Query{}); got != RoutePrimary {
		t.Errorf("Decide(empty) = %s, want primary", got)
	}
}

func TestRouter_WildcardRoutesToPrimary(t *testing.T) {
	primary, trigram := &fakeIndex{}, &fakeIndex{}
	r := New(primary, trigram, newFakeStorage())
	q := contract.Query{SearchTerms: []string{"*"}, Limit: 10}
	if got := r.Decide(q); got != RoutePrimary {
		t.Errorf("Decide(wildcard) = %s, want primary", got)
	}
	if _, err := r.Route(context.Background(), q); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if primary.calls != 1 || trigram.calls != 0 {
		t.Errorf("primary.calls=%d trigram.calls=%d, want 1/0", primary.calls, trigram.calls)
	}
}

func TestRouter_NonWildcardTermRoutesToTrigram(t *testing.T) {
	primary, trigram := &fakeIndex{}, &fakeIndex{}
	r := New(primary, trigram, newFakeStorage())
	q := contract.Query{SearchTerms: []string{"handler"}}
	if got := r.Decide(q); got != RouteTrigram {
		t.Errorf("Decide(handler) = %s, want trigram", got)
	}
	if _, err := r.Route(context.Background(), q); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if trigram.calls != 1 || primary.calls != 0 {
		t.Errorf("primary.calls=%d trigram.calls=%d, want 0/1", primary.calls, trigram.calls)
	}
}

func mustTag(t *testing.T, s string) primitives.Tag {
	t.Helper()
	tag, err := primitives.NewTag(s)
	if err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	return tag
}

func TestRouter_FiltersByTagsAfterResolution(t *testing.T) {
	id1, id2 := primitives.NewDocID(), primitives.NewDocID()
	storage := newFakeStorage()
	storage.docs[id1] = contract.Document{ID: id1, Tags: []primitives.Tag{mustTag(t, "go")}}
	storage.docs[id2] = contract.Document{ID: id2, Tags: []primitives.Tag{mustTag(t, "rust")}}

	trigram := &fakeIndex{ids: []primitives.DocID{id1, id2}}
	r := New(&fakeIndex{}, trigram, storage)

	got, err := r.Route(context.Background(), contract.Query{SearchTerms: []string{"handler"}, Tags: []primitives.Tag{mustTag(t, "go")}})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(got) != 1 || got[0] != id1 {
		t.Errorf("tag-filtered result = %v, want [%s]", got, id1)
	}
}

func TestRouter_DecisionOverheadIsFast(t *testing.T) {
	primary, trigram := &fakeIndex{}, &fakeIndex{}
	r := New(primary, trigram, newFakeStorage())
	q := contract.Query{SearchTerms: []string{"term"}}

	const iterations = 1000
	start := time.Now()
	for i := 0; i < iterations; i++ {
		r.Decide(q)
	}
	perDecision := time.Since(start) / iterations
	if perDecision > 10*time.Millisecond {
		t.Errorf("routing decision took %s on average, want < 10ms p95 budget", perDecision)
	}
}

func TestRouter_DeterministicAcrossRepeatedCalls(t *testing.T) {
	primary, trigram := &fakeIndex{}, &fakeIndex{}
	r := New(primary, trigram, newFakeStorage())
	q := contract.Query{SearchTerms: []string{"stable"}}
	first := r.Decide(q)
	for i := 0; i < 50; i++ {
		if got := r.Decide(q); got != first {
			t.Fatalf("Decide is not deterministic: got %s then %s", first, got)
		}
	}
}
