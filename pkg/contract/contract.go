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

// Package contract defines the capability sets every storage backend and
// every index implementation must satisfy.
//
// Rust's trait objects behind a heap allocation become, in Go, two small
// interfaces (Storage and Index) implemented by each concrete base (C2,
// C3, C4) and by each wrapper layer (C5). Composition is expressed as
// static struct nesting in pkg/wrapper, not dynamic dispatch, so the
// wrapper order (Traced(Validated(Retryable(Cached(Base))))) is visible
// at construction time; these interfaces exist only at the boundary
// exposed to external collaborators (the query router, the ingester,
// the CLI).
package contract

import (
	"context"

	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Document is the durable unit stored by a Storage backend (§3).
type Document struct {
	ID        primitives.DocID
	Path      primitives.Path
	Title     primitives.Title
	Content   []byte
	Tags      []primitives.Tag
	CreatedAt int64 // unix nanoseconds, monotone wall clock
	UpdatedAt int64
	Embedding []float32 // optional, fixed dimension when present
}

// Size returns len(Content), which must always equal the document's
// recorded size (§3 invariant: size == content.len()).
func (d Document) Size() int { return len(d.Content) }

// Storage is the capability set every document storage backend (and
// every wrapper around one) implements (§4.2).
type Storage interface {
	Insert(ctx context.Context, doc Document) error
	Get(ctx context.Context, id primitives.DocID) (Document, bool, error)
	Update(ctx context.Context, doc Document) error
	Delete(ctx context.Context, id primitives.DocID) (bool, error)
	ListAll(ctx context.Context) ([]Document, error)
	Flush(ctx context.Context) error
	Sync(ctx context.Context) error
	Close() error
}

// Query is the structured query model the query router (C10) compiles
// requests into; indices never see free-text natural language (§1, §4.10).
// A single Query shape is shared by both indices: the trigram index
// reads SearchTerms/Limit, the B+ tree primary index reads
// ExactID/RangeFrom/RangeTo, Tags/DateRange are applied by the router
// (C10) to the resolved documents, and the router decides which fields
// are populated based on the caller's request shape.
type Query struct {
	SearchTerms []string
	Tags        []primitives.Tag
	DateRange   *DateRange
	Limit       int

	// ExactID, when set, requests the single matching id from the
	// primary index (§4.3 "exact-id lookup is O(log n)").
	ExactID *primitives.DocID
	// RangeFrom/RangeTo, when both set, request a primary-index range
	// scan walking the linked leaf list (§4.3).
	RangeFrom *primitives.DocID
	RangeTo   *primitives.DocID
}

// DateRange bounds a query by document timestamp, inclusive.
type DateRange struct {
	From int64
	To   int64
}

// Index is the capability set every primary/trigram index (and every
// wrapper around one) implements (§4.3, §4.4).
type Index interface {
	Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error
	InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error
	Delete(ctx context.Context, id primitives.DocID) (bool, error)
	Search(ctx context.Context, q Query) ([]primitives.DocID, error)
	Flush(ctx context.Context) error
}

// BulkPair is one (id, path) pair fed to a bulk-loading index build.
type BulkPair struct {
	ID   primitives.DocID
	Path primitives.Path
}

// BulkResult reports the outcome of a bulk_insert call (§4.3).
type BulkResult struct {
	Inserted int
	Elapsed  int64 // nanoseconds
}

// BulkInserter is implemented by indices that support a dedicated bulk
// load path (the B+ tree primary index; the trigram index does not
// implement it, matching §4.4's content-addressed insert model).
type BulkInserter interface {
	BulkInsert(ctx context.Context, pairs []BulkPair) (BulkResult, error)
}
