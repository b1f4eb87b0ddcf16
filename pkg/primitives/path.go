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

package primitives

import (
	"strings"
	"unicode/utf8"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

// MaxPathBytes is the maximum encoded length of a Path (§4.1).
const MaxPathBytes = 4096

// Path is a validated, normalized document path: non-empty, UTF-8,
// without directory traversal, at most MaxPathBytes long, and with
// separators normalized to '/'.
type Path struct {
	value string
}

// NewPath validates s and returns a normalized Path.
//
// Rejects: empty strings, invalid UTF-8, paths containing a NUL byte,
// paths containing a ".." segment, paths that resolve to the filesystem root, and paths
// longer than MaxPathBytes after normalization. Backslash separators are
// normalized to '/'.
func NewPath(s string) (Path, error) {
	op := "primitives.NewPath"
	if s == "" {
		return Path{}, kerrors.New(kerrors.ValidationFailed,
			"path cannot be empty", "", "provide a non-empty relative path", nil).WithOperation(op)
	}
	if !utf8.ValidString(s) {
		return Path{}, kerrors.New(kerrors.ValidationFailed,
			"path is not valid UTF-8", "", "use a UTF-8 encoded path", nil).WithOperation(op)
	}
	if strings.ContainsRune(s, 0) {
		return Path{}, kerrors.New(kerrors.ValidationFailed,
			"path contains a null byte", "", "remove embedded NUL bytes from the path", nil).WithOperation(op)
	}

	normalized := strings.ReplaceAll(s, "\\", "/")
	if len(normalized) > MaxPathBytes {
		return Path{}, kerrors.New(kerrors.ValidationFailed,
			"path exceeds maximum length",
			"paths must be at most 4096 bytes",
			"shorten the path", nil).WithOperation(op)
	}

	segments := strings.Split(normalized, "/")
	for _, seg := range segments {
		if seg == ".." {
			return Path{}, kerrors.New(kerrors.ValidationFailed,
				"path contains directory traversal",
				`".." segments are not allowed`,
				"use a path relative to the database root", nil).WithOperation(op)
		}
	}

	if normalized == "/" || normalized == "." {
		return Path{}, kerrors.New(kerrors.ValidationFailed,
			"path cannot resolve to the filesystem root", "", "provide a specific document path", nil).WithOperation(op)
	}

	return Path{value: normalized}, nil
}

// String returns the normalized path.
func (p Path) String() string { return p.value }

// IsZero reports whether p is the unconstructed zero value.
func (p Path) IsZero() bool { return p.value == "" }
