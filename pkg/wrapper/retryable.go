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
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// RetryConfig mirrors pkg/ingestion's embedding retry policy: bounded
// attempts with full-jitter exponential backoff.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig matches the embedding generator's defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: 200 * time.Millisecond, MaxBackoff: 2 * time.Second, Multiplier: 2.0}
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 2 * time.Second
	}
	if c.Multiplier <= 1.0 {
		c.Multiplier = 2.0
	}
	return c
}

// isRetryableErr reports whether err is a KotaError whose Kind marks it
// transient: IoFailed errors explicitly flagged Transient, or Timeout.
// Everything else (ValidationFailed, NotFound, Corrupt, ...) is not
// worth retrying since a retry would return the identical result.
func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	var ke *kerrors.KotaError
	if errors.As(err, &ke) {
		if ke.Kind == kerrors.Timeout {
			return true
		}
		if ke.Kind == kerrors.IoFailed && ke.Transient {
			return true
		}
		return false
	}
	return false
}

// computeBackoffWithJitter reproduces pkg/ingestion/embedding.go's
// full-jitter exponential backoff: exp = base*mult^attempt capped at
// capDur, then a uniform random draw in [0, exp].
func computeBackoffWithJitter(base time.Duration, attempt int, mult float64, capDur time.Duration) time.Duration {
	exp := float64(base)
	for i := 0; i < attempt; i++ {
		exp *= mult
	}
	d := time.Duration(exp)
	if d > capDur {
		d = capDur
	}
	if d <= 0 {
		return base
	}
	return time.Duration(randInt63n(int64(d) + 1))
}

// randInt63n returns a uniform random value in [0, n) using
// crypto/rand, avoiding a process-global math/rand source.
func randInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func retryLoop(ctx context.Context, cfg RetryConfig, component string, fn func() error) error {
	cfg = cfg.withDefaults()
	metrics := observability.Default()
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryableErr(lastErr) || attempt == cfg.MaxRetries {
			return lastErr
		}
		sleep := computeBackoffWithJitter(cfg.InitialBackoff, attempt, cfg.Multiplier, cfg.MaxBackoff)
		metrics.RetryAttempts.WithLabelValues(component).Inc()
		observability.LoggerFromContext(ctx, nil).Warn(component+".retry",
			"attempt", attempt+1, "sleep_ms", sleep.Milliseconds(), "err", lastErr)
		if err := sleepWithContext(ctx, sleep); err != nil {
			return err
		}
	}
	return lastErr
}

// RetryableStorage retries transient failures from an inner Storage
// using jittered exponential backoff.
type RetryableStorage struct {
	inner contract.Storage
	cfg   RetryConfig
}

// NewRetryableStorage wraps inner with retry behavior.
func NewRetryableStorage(inner contract.Storage, cfg RetryConfig) *RetryableStorage {
	return &RetryableStorage{inner: inner, cfg: cfg}
}

var _ contract.Storage = (*RetryableStorage)(nil)

func (r *RetryableStorage) Insert(ctx context.Context, doc contract.Document) error {
	return retryLoop(ctx, r.cfg, "storage.insert", func() error { return r.inner.Insert(ctx, doc) })
}

func (r *RetryableStorage) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	var doc contract.Document
	var found bool
	err := retryLoop(ctx, r.cfg, "storage.get", func() error {
		var innerErr error
		doc, found, innerErr = r.inner.Get(ctx, id)
		return innerErr
	})
	return doc, found, err
}

func (r *RetryableStorage) Update(ctx context.Context, doc contract.Document) error {
	return retryLoop(ctx, r.cfg, "storage.update", func() error { return r.inner.Update(ctx, doc) })
}

func (r *RetryableStorage) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	var deleted bool
	err := retryLoop(ctx, r.cfg, "storage.delete", func() error {
		var innerErr error
		deleted, innerErr = r.inner.Delete(ctx, id)
		return innerErr
	})
	return deleted, err
}

func (r *RetryableStorage) ListAll(ctx context.Context) ([]contract.Document, error) {
	var docs []contract.Document
	err := retryLoop(ctx, r.cfg, "storage.list_all", func() error {
		var innerErr error
		docs, innerErr = r.inner.ListAll(ctx)
		return innerErr
	})
	return docs, err
}

func (r *RetryableStorage) Flush(ctx context.Context) error {
	return retryLoop(ctx, r.cfg, "storage.flush", func() error { return r.inner.Flush(ctx) })
}

func (r *RetryableStorage) Sync(ctx context.Context) error {
	return retryLoop(ctx, r.cfg, "storage.sync", func() error { return r.inner.Sync(ctx) })
}

func (r *RetryableStorage) Close() error { return r.inner.Close() }

// RetryableIndex retries transient failures from an inner Index.
type RetryableIndex struct {
	inner contract.Index
	cfg   RetryConfig
}

// NewRetryableIndex wraps inner with retry behavior.
func NewRetryableIndex(inner contract.Index, cfg RetryConfig) *RetryableIndex {
	return &RetryableIndex{inner: inner, cfg: cfg}
}

var (
	_ contract.Index        = (*RetryableIndex)(nil)
	_ contract.BulkInserter = (*RetryableIndex)(nil)
)

func (r *RetryableIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	return retryLoop(ctx, r.cfg, "index.insert", func() error { return r.inner.Insert(ctx, id, path) })
}

func (r *RetryableIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	return retryLoop(ctx, r.cfg, "index.insert_with_content", func() error {
		return r.inner.InsertWithContent(ctx, id, path, content)
	})
}

func (r *RetryableIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	var deleted bool
	err := retryLoop(ctx, r.cfg, "index.delete", func() error {
		var innerErr error
		deleted, innerErr = r.inner.Delete(ctx, id)
		return innerErr
	})
	return deleted, err
}

func (r *RetryableIndex) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	var ids []primitives.DocID
	err := retryLoop(ctx, r.cfg, "index.search", func() error {
		var innerErr error
		ids, innerErr = r.inner.Search(ctx, q)
		return innerErr
	})
	return ids, err
}

func (r *RetryableIndex) Flush(ctx context.Context) error {
	return retryLoop(ctx, r.cfg, "index.flush", func() error { return r.inner.Flush(ctx) })
}

// BulkInsert forwards to inner's BulkInserter if it implements one,
// retrying the whole batch on a transient failure.
func (r *RetryableIndex) BulkInsert(ctx context.Context, pairs []contract.BulkPair) (contract.BulkResult, error) {
	bi, ok := r.inner.(contract.BulkInserter)
	if !ok {
		return contract.BulkResult{}, contractBulkUnsupported("wrapper.retryable.bulk_insert")
	}
	var res contract.BulkResult
	err := retryLoop(ctx, r.cfg, "index.bulk_insert", func() error {
		var innerErr error
		res, innerErr = bi.BulkInsert(ctx, pairs)
		return innerErr
	})
	return res, err
}
