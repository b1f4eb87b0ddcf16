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
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// metadataRecord is the documents/<id>.json sidecar.
type metadataRecord struct {
	ID          string   `json:"id"`
	Path        string   `json:"path"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Size        int      `json:"size"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
	ContentHash string   `json:"content_hash"`
}

func contentHash(content []byte) [32]byte {
	return sha256.Sum256(content)
}

func contentPath(dir string, id primitives.DocID) string {
	return filepath.Join(dir, "documents", id.String()+".md")
}

func metadataPath(dir string, id primitives.DocID) string {
	return filepath.Join(dir, "documents", id.String()+".json")
}

func writeContentFile(dir string, id primitives.DocID, content []byte) error {
	path := contentPath(dir, id)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return kerrors.New(kerrors.IoFailed, "write document content", err.Error(), "", err).WithOperation("storage.write_content")
	}
	return nil
}

func writeMetadataFile(dir string, id primitives.DocID, rec metadataRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return kerrors.New(kerrors.Internal, "marshal metadata record", err.Error(), "", err).WithOperation("storage.write_metadata")
	}
	// write-new, rename keeps a reader from ever observing a
	// partially written sidecar.
	tmp := metadataPath(dir, id) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return kerrors.New(kerrors.IoFailed, "write metadata sidecar", err.Error(), "", err).WithOperation("storage.write_metadata")
	}
	if err := os.Rename(tmp, metadataPath(dir, id)); err != nil {
		return kerrors.New(kerrors.IoFailed, "rename metadata sidecar", err.Error(), "", err).WithOperation("storage.write_metadata")
	}
	return nil
}

func readMetadataFile(dir string, id primitives.DocID) (metadataRecord, error) {
	var rec metadataRecord
	b, err := os.ReadFile(metadataPath(dir, id))
	if err != nil {
		return rec, kerrors.New(kerrors.IoFailed, "read metadata sidecar", err.Error(), "", err).WithOperation("storage.read_metadata")
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, kerrors.New(kerrors.Corrupt, "decode metadata sidecar", err.Error(),
			"the metadata sidecar is corrupt; restore from backup", err).WithOperation("storage.read_metadata")
	}
	return rec, nil
}

func readContentFile(dir string, id primitives.DocID) ([]byte, error) {
	b, err := os.ReadFile(contentPath(dir, id))
	if err != nil {
		return nil, kerrors.New(kerrors.IoFailed, "read document content", err.Error(), "", err).WithOperation("storage.read_content")
	}
	return b, nil
}
