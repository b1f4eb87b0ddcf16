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
	"unicode"
	"unicode/utf8"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

// MaxTagRunes is the maximum number of characters a Tag may hold (§4.1).
const MaxTagRunes = 64

// Tag is a validated short label: non-empty, at most MaxTagRunes
// characters, with no whitespace or control characters.
type Tag struct {
	value string
}

// NewTag validates s and returns a Tag.
func NewTag(s string) (Tag, error) {
	op := "primitives.NewTag"
	if s == "" {
		return Tag{}, kerrors.New(kerrors.ValidationFailed,
			"tag cannot be empty", "", "provide a non-empty tag", nil).WithOperation(op)
	}
	if n := utf8.RuneCountInString(s); n > MaxTagRunes {
		return Tag{}, kerrors.New(kerrors.ValidationFailed,
			"tag exceeds maximum length",
			"tags must be at most 64 characters",
			"shorten the tag", nil).WithOperation(op)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return Tag{}, kerrors.New(kerrors.ValidationFailed,
				"tag contains whitespace or control characters",
				"tags must be a single unbroken label",
				"remove whitespace or control characters from the tag", nil).WithOperation(op)
		}
	}
	return Tag{value: s}, nil
}

// String returns the tag text.
func (t Tag) String() string { return t.value }

// Equal reports whether two tags carry the same text.
func (t Tag) Equal(other Tag) bool { return t.value == other.value }
