// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package optimized

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// DefaultCoalesceThreshold is the number of queued plain Insert calls
// that triggers an automatic coalesce into the wrapped index's bulk
// path, matching spec.md §4.6's "every N mutations".
const DefaultCoalesceThreshold = 64

// DefaultResultCacheSize bounds the canonicalized-query result cache.
const DefaultResultCacheSize = 256

// Index wraps a base contract.Index with a bounded, canonicalized
// result cache and a coalescing insert queue (C6).
type Index struct {
	mu sync.Mutex

	base      contract.Index
	threshold int

	pending []contract.BulkPair

	results *lru.Cache[string, []primitives.DocID]
}

// Option configures an Index at construction time.
type Option func(*Index)

// WithCoalesceThreshold overrides DefaultCoalesceThreshold.
func WithCoalesceThreshold(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			idx.threshold = n
		}
	}
}

// WithResultCacheSize overrides DefaultResultCacheSize.
func WithResultCacheSize(n int) Option {
	return func(idx *Index) {
		if n > 0 {
			cache, _ := lru.New[string, []primitives.DocID](n)
			idx.results = cache
		}
	}
}

// New wraps base with the C6 optimizations.
func New(base contract.Index, opts ...Option) *Index {
	cache, _ := lru.New[string, []primitives.DocID](DefaultResultCacheSize)
	idx := &Index{base: base, threshold: DefaultCoalesceThreshold, results: cache}
	for _, o := range opts {
		o(idx)
	}
	return idx
}

var _ contract.Index = (*Index)(nil)

// Insert queues (id, path) for coalesced bulk insertion when base
// implements contract.BulkInserter, flushing automatically once the
// queue reaches the coalesce threshold. When base has no bulk path,
// Insert forwards immediately.
func (idx *Index) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	idx.mu.Lock()
	if _, ok := idx.base.(contract.BulkInserter); !ok {
		idx.mu.Unlock()
		idx.invalidateAll()
		return idx.base.Insert(ctx, id, path)
	}
	idx.pending = append(idx.pending, contract.BulkPair{ID: id, Path: path})
	shouldDrain := len(idx.pending) >= idx.threshold
	idx.mu.Unlock()
	idx.invalidateAll()
	if shouldDrain {
		return idx.drain(ctx)
	}
	return nil
}

// InsertWithContent is content-addressed (§4.4) and has no bulk
// counterpart; it always forwards immediately.
func (idx *Index) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	idx.invalidateAll()
	return idx.base.InsertWithContent(ctx, id, path, content)
}

// Delete forwards immediately; deletes are never coalesced since they
// must be visible to the very next Search regardless of the pending
// queue's state.
func (idx *Index) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	idx.invalidateAll()
	idx.dropPending(id)
	return idx.base.Delete(ctx, id)
}

// dropPending removes id from the coalescing queue if it was queued
// but not yet flushed, so a delete immediately following an insert of
// the same id never races the coalesce drain.
func (idx *Index) dropPending(id primitives.DocID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := idx.pending[:0]
	for _, p := range idx.pending {
		if p.ID != id {
			out = append(out, p)
		}
	}
	idx.pending = out
}

// Search serves from the canonicalized-query cache when present,
// otherwise queries base and caches the result. Per §4.6's guarantee,
// call Flush before a Search that must observe every prior mutation.
func (idx *Index) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	metrics := observability.Default()
	key := canonicalKey(q)
	if ids, ok := idx.results.Get(key); ok {
		metrics.CacheHits.WithLabelValues("optimized_index").Inc()
		return ids, nil
	}
	metrics.CacheMisses.WithLabelValues("optimized_index").Inc()
	ids, err := idx.base.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	idx.results.Add(key, ids)
	return ids, nil
}

// Flush drains any pending coalesced inserts into base's bulk path and
// then flushes base itself.
func (idx *Index) Flush(ctx context.Context) error {
	if err := idx.drain(ctx); err != nil {
		return err
	}
	return idx.base.Flush(ctx)
}

func (idx *Index) drain(ctx context.Context) error {
	idx.mu.Lock()
	pairs := idx.pending
	idx.pending = nil
	idx.mu.Unlock()
	if len(pairs) == 0 {
		return nil
	}
	bi, ok := idx.base.(contract.BulkInserter)
	if !ok {
		for _, p := range pairs {
			if err := idx.base.Insert(ctx, p.ID, p.Path); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := bi.BulkInsert(ctx, pairs)
	return err
}

func (idx *Index) invalidateAll() {
	idx.results.Purge()
}
