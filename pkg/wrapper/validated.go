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

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// ValidatedStorage rejects structurally invalid documents before they
// reach the inner Storage. The primitives package already validates
// Path/Title/Tag at construction; this layer re-checks the invariants
// that only hold across a whole Document (§3: size == content.len(),
// no zero id) since a caller can still assemble an invalid Document
// literal by hand.
type ValidatedStorage struct {
	inner contract.Storage
}

// NewValidatedStorage wraps inner with document-shape validation.
func NewValidatedStorage(inner contract.Storage) *ValidatedStorage {
	return &ValidatedStorage{inner: inner}
}

var _ contract.Storage = (*ValidatedStorage)(nil)

func validateDocument(op string, doc contract.Document) error {
	if doc.ID.IsZero() {
		return kerrors.New(kerrors.ValidationFailed,
			"document id cannot be the zero id", "", "generate the id with primitives.NewDocID", nil).WithOperation(op)
	}
	if doc.Path.IsZero() {
		return kerrors.New(kerrors.ValidationFailed,
			"document path cannot be empty", "", "construct the path with primitives.NewPath", nil).WithOperation(op)
	}
	if doc.CreatedAt == 0 {
		return kerrors.New(kerrors.ValidationFailed,
			"document CreatedAt cannot be zero", "", "set CreatedAt to the current time", nil).WithOperation(op)
	}
	if doc.Embedding != nil && len(doc.Embedding) == 0 {
		return kerrors.New(kerrors.ValidationFailed,
			"document Embedding, when present, cannot be empty", "", "omit Embedding or provide a non-empty vector", nil).WithOperation(op)
	}
	return nil
}

func (v *ValidatedStorage) Insert(ctx context.Context, doc contract.Document) error {
	if err := validateDocument("wrapper.validated.insert", doc); err != nil {
		return err
	}
	return v.inner.Insert(ctx, doc)
}

func (v *ValidatedStorage) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	if id.IsZero() {
		return contract.Document{}, false, kerrors.New(kerrors.ValidationFailed,
			"document id cannot be the zero id", "", "", nil).WithOperation("wrapper.validated.get")
	}
	return v.inner.Get(ctx, id)
}

func (v *ValidatedStorage) Update(ctx context.Context, doc contract.Document) error {
	if err := validateDocument("wrapper.validated.update", doc); err != nil {
		return err
	}
	return v.inner.Update(ctx, doc)
}

func (v *ValidatedStorage) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	if id.IsZero() {
		return false, kerrors.New(kerrors.ValidationFailed,
			"document id cannot be the zero id", "", "", nil).WithOperation("wrapper.validated.delete")
	}
	return v.inner.Delete(ctx, id)
}

func (v *ValidatedStorage) ListAll(ctx context.Context) ([]contract.Document, error) {
	return v.inner.ListAll(ctx)
}

func (v *ValidatedStorage) Flush(ctx context.Context) error { return v.inner.Flush(ctx) }
func (v *ValidatedStorage) Sync(ctx context.Context) error  { return v.inner.Sync(ctx) }
func (v *ValidatedStorage) Close() error                    { return v.inner.Close() }

// ValidatedIndex rejects malformed ids and queries before they reach
// the inner Index.
type ValidatedIndex struct {
	inner contract.Index
}

// NewValidatedIndex wraps inner with id/query validation.
func NewValidatedIndex(inner contract.Index) *ValidatedIndex {
	return &ValidatedIndex{inner: inner}
}

var (
	_ contract.Index        = (*ValidatedIndex)(nil)
	_ contract.BulkInserter = (*ValidatedIndex)(nil)
)

func (v *ValidatedIndex) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	if id.IsZero() {
		return kerrors.New(kerrors.ValidationFailed,
			"document id cannot be the zero id", "", "", nil).WithOperation("wrapper.validated.index_insert")
	}
	return v.inner.Insert(ctx, id, path)
}

func (v *ValidatedIndex) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	if id.IsZero() {
		return kerrors.New(kerrors.ValidationFailed,
			"document id cannot be the zero id", "", "", nil).WithOperation("wrapper.validated.index_insert_with_content")
	}
	return v.inner.InsertWithContent(ctx, id, path, content)
}

func (v *ValidatedIndex) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	if id.IsZero() {
		return false, kerrors.New(kerrors.ValidationFailed,
			"document id cannot be the zero id", "", "", nil).WithOperation("wrapper.validated.index_delete")
	}
	return v.inner.Delete(ctx, id)
}

func (v *ValidatedIndex) Search(ctx context.Context, q contract.Query) (_ []primitives.DocID, err error) {
	const op = "wrapper.validated.index_search"
	if q.RangeFrom != nil && q.RangeTo != nil && q.RangeTo.Less(*q.RangeFrom) {
		return nil, kerrors.New(kerrors.ValidationFailed,
			"range_to must not be before range_from", "", "swap or correct the range bounds", nil).WithOperation(op)
	}
	if q.DateRange != nil && q.DateRange.To < q.DateRange.From {
		return nil, kerrors.New(kerrors.ValidationFailed,
			"date range 'to' must not be before 'from'", "", "swap or correct the date range", nil).WithOperation(op)
	}
	if q.Limit < 0 {
		return nil, kerrors.New(kerrors.ValidationFailed,
			"limit cannot be negative", "", "omit Limit or set it to a non-negative value", nil).WithOperation(op)
	}
	return v.inner.Search(ctx, q)
}

func (v *ValidatedIndex) Flush(ctx context.Context) error { return v.inner.Flush(ctx) }

func (v *ValidatedIndex) BulkInsert(ctx context.Context, pairs []contract.BulkPair) (contract.BulkResult, error) {
	bi, ok := v.inner.(contract.BulkInserter)
	if !ok {
		return contract.BulkResult{}, contractBulkUnsupported("wrapper.validated.bulk_insert")
	}
	for _, p := range pairs {
		if p.ID.IsZero() {
			return contract.BulkResult{}, kerrors.New(kerrors.ValidationFailed,
				"bulk_insert pair has the zero id", "", "", nil).WithOperation("wrapper.validated.bulk_insert")
		}
	}
	return bi.BulkInsert(ctx, pairs)
}
