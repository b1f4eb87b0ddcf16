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

package btree

import (
	"encoding/json"
	"os"
	"path/filepath"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

type manifest struct {
	RootPageID uint64 `json:"root_page_id"`
	NextPageID uint64 `json:"next_page_id"`
}

func manifestPath(dir string) string { return filepath.Join(dir, "manifest.json") }

func readManifest(dir string) (manifest, bool, error) {
	b, err := os.ReadFile(manifestPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return manifest{}, false, nil
		}
		return manifest{}, false, kerrors.New(kerrors.IoFailed, "read btree manifest", err.Error(), "", err).WithOperation("btree.read_manifest")
	}
	var m manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return manifest{}, false, kerrors.New(kerrors.Corrupt, "decode btree manifest", err.Error(),
			"the primary index manifest is corrupt; reindex", err).WithOperation("btree.read_manifest")
	}
	return m, true, nil
}

// writeManifest durably replaces the manifest via write-new, rename.
func writeManifest(dir string, m manifest) error {
	b, err := json.Marshal(m)
	if err != nil {
		return kerrors.New(kerrors.Internal, "marshal btree manifest", err.Error(), "", err).WithOperation("btree.write_manifest")
	}
	tmp := manifestPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return kerrors.New(kerrors.IoFailed, "write btree manifest", err.Error(), "", err).WithOperation("btree.write_manifest")
	}
	if err := os.Rename(tmp, manifestPath(dir)); err != nil {
		return kerrors.New(kerrors.IoFailed, "rename btree manifest", err.Error(), "", err).WithOperation("btree.write_manifest")
	}
	return nil
}
