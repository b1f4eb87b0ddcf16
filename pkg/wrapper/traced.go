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
	"log/slog"
	"time"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// TracedStorage is the outermost layer of the Storage stack: it
// attaches a trace id to ctx (generating one if the caller didn't),
// logs a dotted start/done event pair around every call matching
// pkg/ingestion/local_pipeline.go's event-name style, and records
// operation latency/error-kind via pkg/observability's metrics.
type TracedStorage struct {
	inner   contract.Storage
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTracedStorage wraps inner with tracing, logging, and metrics.
// logger defaults to slog.Default() when nil.
func NewTracedStorage(inner contract.Storage, logger *slog.Logger) *TracedStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TracedStorage{inner: inner, logger: logger, metrics: observability.Default()}
}

var _ contract.Storage = (*TracedStorage)(nil)

func (t *TracedStorage) traced(ctx context.Context, op string) (context.Context, *slog.Logger, time.Time) {
	ctx = observability.WithTraceID(ctx)
	log := observability.LoggerFromContext(ctx, t.logger)
	log.Debug(op + ".start")
	return ctx, log, time.Now()
}

func (t *TracedStorage) finish(op string, log *slog.Logger, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = kindOf(err)
	}
	t.metrics.ObserveStorageOp(op, start, kind)
	if err != nil {
		log.Warn(op+".error", "err", err, "kind", kind)
		return
	}
	log.Debug(op+".done", "elapsed_ms", time.Since(start).Milliseconds())
}

func (t *TracedStorage) Insert(ctx context.Context, doc contract.Document) error {
	ctx, log, start := t.traced(ctx, "storage.insert")
	err := t.inner.Insert(ctx, doc)
	t.finish("storage.insert", log, start, err)
	if err == nil {
		t.metrics.StorageInserts.Inc()
	}
	return err
}

func (t *TracedStorage) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	ctx, log, start := t.traced(ctx, "storage.get")
	doc, found, err := t.inner.Get(ctx, id)
	t.finish("storage.get", log, start, err)
	if err == nil {
		t.metrics.StorageGets.Inc()
	}
	return doc, found, err
}

func (t *TracedStorage) Update(ctx context.Context, doc contract.Document) error {
	ctx, log, start := t.traced(ctx, "storage.update")
	err := t.inner.Update(ctx, doc)
	t.finish("storage.update", log, start, err)
	if err == nil {
		t.metrics.StorageUpdates.Inc()
	}
	return err
}

func (t *TracedStorage) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	ctx, log, start := t.traced(ctx, "storage.delete")
	deleted, err := t.inner.Delete(ctx, id)
	t.finish("storage.delete", log, start, err)
	if err == nil && deleted {
		t.metrics.StorageDeletes.Inc()
	}
	return deleted, err
}

func (t *TracedStorage) ListAll(ctx context.Context) ([]contract.Document, error) {
	ctx, log, start := t.traced(ctx, "storage.list_all")
	docs, err := t.inner.ListAll(ctx)
	t.finish("storage.list_all", log, start, err)
	return docs, err
}

func (t *TracedStorage) Flush(ctx context.Context) error {
	ctx, log, start := t.traced(ctx, "storage.flush")
	err := t.inner.Flush(ctx)
	t.finish("storage.flush", log, start, err)
	return err
}

func (t *TracedStorage) Sync(ctx context.Context) error {
	ctx, log, start := t.traced(ctx, "storage.sync")
	err := t.inner.Sync(ctx)
	t.finish("storage.sync", log, start, err)
	return err
}

func (t *TracedStorage) Close() error { return t.inner.Close() }

// TracedIndex is the outermost layer of the Index stack.
type TracedIndex struct {
	inner   contract.Index
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTracedIndex wraps inner with tracing, logging, and metrics.
func NewTracedIndex(inner contract.Index, logger *slog.Logger) *TracedIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &TracedIndex{inner: inner, logger: logger, metrics: observability.Default()}
}

var (
	_ contract.Index        = (*TracedIndex)(nil)
	_ contract.BulkInserter = (*TracedIndex)(nil)
)

func (t *TracedIndex) traced(ctx context.Context, op string) (context.Context, *slog.Logger, time.Time) {
	ctx = observability.WithTraceID(ctx)
	log := observability.LoggerFromContext(ctx, t.logger)
	log.Debug(op + ".start")
	return ctx, log, time.Now()
}

func (t *TracedIndex) finish(op string, log *slog.Logger, start time.Time, err error) {
	if err != nil {
		log.Warn(op+".error", "err", err, "kind", kindOf(err))
		return
	}
	log.Debug(op+".done", "elapsed_ms", time.Since(start).Milliseconds())
}

func (t *TracedIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	ctx, log, start := t.traced(ctx, "index.insert")
	err := t.inner.Insert(ctx, id, path)
	t.finish("index.insert", log, start, err)
	if err == nil {
		t.metrics.PrimaryIndexInserts.Inc()
	}
	return err
}

func (t *TracedIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	ctx, log, start := t.traced(ctx, "index.insert_with_content")
	err := t.inner.InsertWithContent(ctx, id, path, content)
	t.finish("index.insert_with_content", log, start, err)
	if err == nil {
		t.metrics.TrigramInserts.Inc()
	}
	return err
}

func (t *TracedIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	ctx, log, start := t.traced(ctx, "index.delete")
	deleted, err := t.inner.Delete(ctx, id)
	t.finish("index.delete", log, start, err)
	return deleted, err
}

func (t *TracedIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	ctx, log, start := t.traced(ctx, "index.search")
	ids, err := t.inner.Search(ctx, q)
	t.finish("index.search", log, start, err)
	if err == nil {
		t.metrics.TrigramQueries.Inc()
		t.metrics.PrimaryIndexLookups.Inc()
	}
	return ids, err
}

func (t *TracedIndex) Flush(ctx context.Context) error {
	ctx, log, start := t.traced(ctx, "index.flush")
	err := t.inner.Flush(ctx)
	t.finish("index.flush", log, start, err)
	return err
}

func (t *TracedIndex) BulkInsert(ctx context.Context, pairs []contract.BulkPair) (contract.BulkResult, error) {
	bi, ok := t.inner.(contract.BulkInserter)
	if !ok {
		return contract.BulkResult{}, contractBulkUnsupported("wrapper.traced.bulk_insert")
	}
	ctx, log, start := t.traced(ctx, "index.bulk_insert")
	res, err := bi.BulkInsert(ctx, pairs)
	t.finish("index.bulk_insert", log, start, err)
	if err == nil {
		t.metrics.PrimaryBulkLoads.Inc()
		t.metrics.PrimaryBulkItems.Add(float64(res.Inserted))
	}
	return res, err
}
