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

package storage

import (
	"context"
	"os"
	"path/filepath"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// FileStore is the base page-cached, WAL-backed document store (C2).
// It implements contract.Storage directly and takes no locks; pkg/wrapper
// adds caching, retries, validation and tracing, but no locking.
type FileStore struct {
	dir   string
	wal   *walWriter
	index map[string]contract.Document
	order []primitives.DocID
}

var _ contract.Storage = (*FileStore)(nil)

// Open opens (or creates) a FileStore rooted at dir, replaying
// wal/current.wal to rebuild the in-memory index (§4.2 crash recovery).
func Open(dir string) (*FileStore, error) {
	const op = "storage.open"
	for _, sub := range []string{"documents", "wal", "meta"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, kerrors.New(kerrors.IoFailed, "create database directory", err.Error(),
				"check filesystem permissions", err).WithOperation(op)
		}
	}

	fs := &FileStore{
		dir:   dir,
		index: make(map[string]contract.Document),
	}

	walPath := filepath.Join(dir, "wal", "current.wal")
	records, validLen, err := readWAL(walPath)
	if err != nil {
		return nil, err
	}
	if err := fs.replay(records); err != nil {
		return nil, err
	}
	if fi, statErr := os.Stat(walPath); statErr == nil && fi.Size() > validLen {
		if err := truncateWAL(walPath, validLen); err != nil {
			return nil, err
		}
	}

	w, err := openWALWriter(dir)
	if err != nil {
		return nil, err
	}
	fs.wal = w
	return fs, nil
}

// replay applies each CRC-valid WAL record to the in-memory index. An
// insert/update record whose sidecar or content file is missing or
// whose hash does not match is skipped, not treated as corrupt — it
// means the crash happened between the WAL write and the data-file
// write, and §4.2/S4 requires that the document simply not appear,
// not that recovery aborts.
func (fs *FileStore) replay(records []walRecord) error {
	for _, rec := range records {
		switch rec.op {
		case opInsert, opUpdate:
			mp, err := decodeMutationPayload(rec.payload)
			if err != nil {
				continue
			}
			meta, err := readMetadataFile(fs.dir, mp.id)
			if err != nil {
				continue
			}
			content, err := readContentFile(fs.dir, mp.id)
			if err != nil {
				continue
			}
			if contentHash(content) != mp.hash {
				continue
			}
			doc, err := documentFromRecord(meta, content)
			if err != nil {
				continue
			}
			if _, exists := fs.index[mp.id.String()]; !exists {
				fs.order = append(fs.order, mp.id)
			}
			fs.index[mp.id.String()] = doc
		case opDelete:
			id, err := decodeDeletePayload(rec.payload)
			if err != nil {
				continue
			}
			delete(fs.index, id.String())
		case opCheckpoint:
			// marks a retired segment boundary; no index change.
		}
	}
	return nil
}

func documentFromRecord(meta metadataRecord, content []byte) (contract.Document, error) {
	idBytes, err := hexDecode(meta.ID)
	if err != nil {
		return contract.Document{}, kerrors.New(kerrors.Corrupt, "decode document id", err.Error(),
			"the metadata sidecar id field is malformed", err).WithOperation("storage.decode_id")
	}
	id, err := primitives.DocIDFromBytes(idBytes)
	if err != nil {
		return contract.Document{}, err
	}
	path, err := primitives.NewPath(meta.Path)
	if err != nil {
		return contract.Document{}, err
	}
	var title primitives.Title
	if meta.Title != "" {
		title, err = primitives.NewTitle(meta.Title)
		if err != nil {
			return contract.Document{}, err
		}
	}
	tags := make([]primitives.Tag, 0, len(meta.Tags))
	for _, t := range meta.Tags {
		tag, err := primitives.NewTag(t)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	return contract.Document{
		ID:        id,
		Path:      path,
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
	}, nil
}

// Insert implements contract.Storage.
func (fs *FileStore) Insert(ctx context.Context, doc contract.Document) error {
	const op = "storage.insert"
	if _, exists := fs.index[doc.ID.String()]; exists {
		return kerrors.New(kerrors.AlreadyExists, "document already exists", doc.ID.String(),
			"use update to modify an existing document", nil).WithOperation(op)
	}
	if err := fs.writeThrough(opInsert, doc); err != nil {
		return err
	}
	fs.order = append(fs.order, doc.ID)
	fs.index[doc.ID.String()] = doc
	return nil
}

// Get implements contract.Storage.
func (fs *FileStore) Get(ctx context.Context, id primitives.DocID) (contract.Document, bool, error) {
	doc, ok := fs.index[id.String()]
	return doc, ok, nil
}

// Update implements contract.Storage. created_at is preserved from the
// existing record regardless of what doc.CreatedAt carries.
func (fs *FileStore) Update(ctx context.Context, doc contract.Document) error {
	const op = "storage.update"
	existing, ok := fs.index[doc.ID.String()]
	if !ok {
		return kerrors.New(kerrors.NotFound, "document not found", doc.ID.String(),
			"insert the document before updating it", nil).WithOperation(op)
	}
	doc.CreatedAt = existing.CreatedAt
	if err := fs.writeThrough(opUpdate, doc); err != nil {
		return err
	}
	fs.index[doc.ID.String()] = doc
	return nil
}

// writeThrough appends and fsyncs the WAL intent, writes the content
// file, then the metadata sidecar, in that order — matching §4.2's insert
// sequencing so a crash mid-write leaves recovery with enough
// information to decide inclusion.
func (fs *FileStore) writeThrough(op opType, doc contract.Document) error {
	hash := contentHash(doc.Content)
	payload := encodeMutationPayload(doc.ID, doc.Path.String(), uint64(len(doc.Content)), hash)
	if err := fs.wal.Append(op, payload); err != nil {
		return err
	}
	if err := fs.wal.Sync(); err != nil {
		return err
	}
	if err := writeContentFile(fs.dir, doc.ID, doc.Content); err != nil {
		return err
	}
	tags := make([]string, 0, len(doc.Tags))
	for _, t := range doc.Tags {
		tags = append(tags, t.String())
	}
	rec := metadataRecord{
		ID:          doc.ID.String(),
		Path:        doc.Path.String(),
		Title:       doc.Title.String(),
		Tags:        tags,
		Size:        len(doc.Content),
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		ContentHash: hexEncode(hash[:]),
	}
	return writeMetadataFile(fs.dir, doc.ID, rec)
}

// Delete implements contract.Storage.
func (fs *FileStore) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	if _, ok := fs.index[id.String()]; !ok {
		return false, nil
	}
	if err := fs.wal.Append(opDelete, encodeDeletePayload(id)); err != nil {
		return false, err
	}
	_ = os.Remove(contentPath(fs.dir, id))
	_ = os.Remove(metadataPath(fs.dir, id))
	delete(fs.index, id.String())
	return true, nil
}

// ListAll implements contract.Storage, iterating in insertion order.
func (fs *FileStore) ListAll(ctx context.Context) ([]contract.Document, error) {
	docs := make([]contract.Document, 0, len(fs.index))
	for _, id := range fs.order {
		if doc, ok := fs.index[id.String()]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Flush drains in-memory buffers to the OS. FileStore writes through
// synchronously, so there is nothing to drain; Flush exists to satisfy
// contract.Storage and to give wrapper layers (C5) a hook.
func (fs *FileStore) Flush(ctx context.Context) error { return nil }

// Sync fsyncs the WAL, matching §4.2: "sync issues fsync on WAL and
// data files". Data files are written with os.WriteFile per mutation;
// fsyncing the parent directory here ensures their directory entries
// are durable too.
func (fs *FileStore) Sync(ctx context.Context) error {
	if err := fs.wal.Sync(); err != nil {
		return err
	}
	d, err := os.Open(filepath.Join(fs.dir, "documents"))
	if err != nil {
		return kerrors.New(kerrors.IoFailed, "open documents dir for sync", err.Error(), "", err).WithOperation("storage.sync")
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return kerrors.New(kerrors.IoFailed, "fsync documents dir", err.Error(), "", err).WithOperation("storage.sync")
	}
	return nil
}

// Close flushes then releases the WAL file handle.
func (fs *FileStore) Close() error {
	if err := fs.Flush(context.Background()); err != nil {
		return err
	}
	return fs.wal.Close()
}
