// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package optimized

import (
	"context"
	"testing"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// bulkFakeIndex is a contract.Index + contract.BulkInserter fake that
// records whether inserts arrived via the single-item path or the
// bulk path, to verify coalescing.
type bulkFakeIndex struct {
	ids         map[primitives.DocID]bool
	singleCalls int
	bulkCalls   int
	bulkItems   int
}

func newBulkFakeIndex() *bulkFakeIndex {
	return &bulkFakeIndex{ids: make(map[primitives.DocID]bool)}
}

func (f *bulkFakeIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	f.singleCalls++
	f.ids[id] = true
	return nil
}

func (f *bulkFakeIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	f.ids[id] = true
	return nil
}

func (f *bulkFakeIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	ok := f.ids[id]
	delete(f.ids, id)
	return ok, nil
}

func (f *bulkFakeIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
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

func (f *bulkFakeIndex) Flush(ctx context.Context) error { return nil }

func (f *bulkFakeIndex) BulkInsert(ctx context.Context, pairs []contract.BulkPair) (contract.BulkResult, error) {
	f.bulkCalls++
	f.bulkItems += len(pairs)
	for _, p := range pairs {
		f.ids[p.ID] = true
	}
	return contract.BulkResult{Inserted: len(pairs)}, nil
}

var _ contract.BulkInserter = (*bulkFakeIndex)(nil)

func mustPath(t *testing.T, s string) primitives.Path {
	t.Helper()
	p, err := primitives.NewPath(s)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func TestIndex_CoalescesBelowThreshold(t *testing.T) {
	ctx := context.Background()
	base := newBulkFakeIndex()
	idx := New(base, WithCoalesceThreshold(10))

	id := primitives.NewDocID()
	if err := idx.Insert(ctx, id, mustPath(t, "a.go")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if base.singleCalls != 0 || base.bulkCalls != 0 {
		t.Errorf("base mutated before threshold reached: single=%d bulk=%d", base.singleCalls, base.bulkCalls)
	}
}

func TestIndex_DrainsAtThreshold(t *testing.T) {
	ctx := context.Background()
	base := newBulkFakeIndex()
	idx := New(base, WithCoalesceThreshold(3))

	for i := 0; i < 3; i++ {
		if err := idx.Insert(ctx, primitives.NewDocID(), mustPath(t, "a.go")); err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
	}
	if base.bulkCalls != 1 || base.bulkItems != 3 {
		t.Errorf("bulkCalls=%d bulkItems=%d, want 1/3", base.bulkCalls, base.bulkItems)
	}
}

func TestIndex_FlushObservesPriorMutations(t *testing.T) {
	ctx := context.Background()
	base := newBulkFakeIndex()
	idx := New(base, WithCoalesceThreshold(1000))

	id := primitives.NewDocID()
	if err := idx.Insert(ctx, id, mustPath(t, "a.go")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, err := idx.Search(ctx, contract.Query{ExactID: &id})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0] != id {
		t.Fatalf("Search after flush = %v, want [%s]", got, id)
	}
}

func TestIndex_DeleteDropsQueuedPendingInsert(t *testing.T) {
	ctx := context.Background()
	base := newBulkFakeIndex()
	idx := New(base, WithCoalesceThreshold(1000))

	id := primitives.NewDocID()
	if err := idx.Insert(ctx, id, mustPath(t, "a.go")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := idx.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := idx.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if base.ids[id] {
		t.Error("deleted id resurrected by a queued insert surviving the delete")
	}
}

func TestIndex_SearchCachesByCanonicalizedQuery(t *testing.T) {
	ctx := context.Background()
	base := newBulkFakeIndex()
	idx := New(base)

	q1 := contract.Query{SearchTerms: []string{"b", "a"}}
	q2 := contract.Query{SearchTerms: []string{"a", "b"}}

	if _, err := idx.Search(ctx, q1); err != nil {
		t.Fatalf("Search q1: %v", err)
	}
	if _, ok := idx.results.Get(canonicalKey(q2)); !ok {
		t.Error("differently-ordered but equivalent query did not hit the same cache entry")
	}
}

func TestIndex_WithoutBulkInserterForwardsImmediately(t *testing.T) {
	ctx := context.Background()
	base := &fakeNonBulkIndex{ids: make(map[primitives.DocID]bool)}
	idx := New(base)

	id := primitives.NewDocID()
	if err := idx.Insert(ctx, id, mustPath(t, "a.go")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !base.ids[id] {
		t.Error("non-bulk index should receive inserts immediately")
	}
}

type fakeNonBulkIndex struct {
	ids map[primitives.DocID]bool
}

func (f *fakeNonBulkIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	f.ids[id] = true
	return nil
}

func (f *fakeNonBulkIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	f.ids[id] = true
	return nil
}

func (f *fakeNonBulkIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	ok := f.ids[id]
	delete(f.ids, id)
	return ok, nil
}

func (f *fakeNonBulkIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	return nil, nil
}

func (f *fakeNonBulkIndex) Flush(ctx context.Context) error { return nil }
