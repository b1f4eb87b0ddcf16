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

package wrapper

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// DefaultCacheSize is the number of documents kept in a CachedStorage's
// read cache.
const DefaultCacheSize = 1000

// CachedStorage serves Get from an in-memory LRU before falling
// through to the inner Storage, invalidating entries on Update/Delete.
type CachedStorage struct {
	inner contract.Storage
	cache *lru.Cache[primitives.DocID, contract.Document]
}

// NewCachedStorage wraps inner with a read cache of the given size
// (DefaultCacheSize if size <= 0).
func NewCachedStorage(inner contract.Storage, size int) *CachedStorage {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[primitives.DocID, contract.Document](size)
	return &CachedStorage{inner: inner, cache: cache}
}

var _ contract.Storage = (*CachedStorage)(nil)

func (c *CachedStorage) Insert(ctx context.Context, doc contract.Document) error {
	if err := c.inner.Insert(ctx, doc); err != nil {
		return err
	}
	c.cache.Add(doc.ID, doc)
	return nil
}

func (c *CachedStorage) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	metrics := observability.Default()
	if doc, ok := c.cache.Get(id); ok {
		metrics.CacheHits.WithLabelValues("storage").Inc()
		return doc, true, nil
	}
	metrics.CacheMisses.WithLabelValues("storage").Inc()
	doc, found, err := c.inner.Get(ctx, id)
	if err == nil && found {
		c.cache.Add(id, doc)
	}
	return doc, found, err
}

func (c *CachedStorage) Update(ctx context.Context, doc contract.Document) error {
	if err := c.inner.Update(ctx, doc); err != nil {
		return err
	}
	c.cache.Add(doc.ID, doc)
	return nil
}

func (c *CachedStorage) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	deleted, err := c.inner.Delete(ctx, id)
	if err == nil {
		c.cache.Remove(id)
	}
	return deleted, err
}

func (c *CachedStorage) ListAll(ctx context.Context) ([]contract.Document, error) {
	return c.inner.ListAll(ctx)
}

func (c *CachedStorage) Flush(ctx context.Context) error { return c.inner.Flush(ctx) }
func (c *CachedStorage) Sync(ctx context.Context) error  { return c.inner.Sync(ctx) }
func (c *CachedStorage) Close() error                    { return c.inner.Close() }

// cachedQueryKey identifies a search whose result list is cacheable:
// only exact-id lookups are keyed (free-text search results change
// whenever any document in the corpus changes, so they are not
// cached here; per-path invalidation of a text-query cache lives in
// pkg/hybrid's router-level cache instead).
type cachedQueryKey = primitives.DocID

// CachedIndex caches exact-id lookups; every other query shape passes
// through uncached.
type CachedIndex struct {
	inner contract.Index
	cache *lru.Cache[cachedQueryKey, []primitives.DocID]
}

// NewCachedIndex wraps inner with an exact-id lookup cache of the
// given size (DefaultCacheSize if size <= 0).
func NewCachedIndex(inner contract.Index, size int) *CachedIndex {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[cachedQueryKey, []primitives.DocID](size)
	return &CachedIndex{inner: inner, cache: cache}
}

var (
	_ contract.Index        = (*CachedIndex)(nil)
	_ contract.BulkInserter = (*CachedIndex)(nil)
)

func (c *CachedIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	c.cache.Remove(id)
	return c.inner.Insert(ctx, id, path)
}

func (c *CachedIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	c.cache.Remove(id)
	return c.inner.InsertWithContent(ctx, id, path, content)
}

func (c *CachedIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	c.cache.Remove(id)
	return c.inner.Delete(ctx, id)
}

func (c *CachedIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	metrics := observability.Default()
	if q.ExactID != nil && len(q.SearchTerms) == 0 && len(q.Tags) == 0 && q.DateRange == nil && q.RangeFrom == nil {
		if ids, ok := c.cache.Get(*q.ExactID); ok {
			metrics.CacheHits.WithLabelValues("index").Inc()
			return ids, nil
		}
		metrics.CacheMisses.WithLabelValues("index").Inc()
		ids, err := c.inner.Search(ctx, q)
		if err == nil {
			c.cache.Add(*q.ExactID, ids)
		}
		return ids, err
	}
	return c.inner.Search(ctx, q)
}

func (c *CachedIndex) Flush(ctx context.Context) error { return c.inner.Flush(ctx) }

// BulkInsert forwards to the inner index if it supports bulk loading,
// invalidating the whole cache since bulk loads skip the per-id path.
func (c *CachedIndex) BulkInsert(ctx context.Context, pairs []contract.BulkPair) (contract.BulkResult, error) {
	bi, ok := c.inner.(contract.BulkInserter)
	if !ok {
		return contract.BulkResult{}, contractBulkUnsupported("wrapper.cached.bulk_insert")
	}
	c.cache.Purge()
	return bi.BulkInsert(ctx, pairs)
}
