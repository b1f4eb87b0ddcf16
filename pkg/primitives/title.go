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
	"unicode/utf8"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

// MaxTitleRunes is the maximum number of characters a Title may hold (§4.1).
const MaxTitleRunes = 1024

// Title is a validated, non-empty document title of at most
// MaxTitleRunes characters.
type Title struct {
	value string
}

// NewTitle validates s and returns a Title.
func NewTitle(s string) (Title, error) {
	op := "primitives.NewTitle"
	if s == "" {
		return Title{}, kerrors.New(kerrors.ValidationFailed,
			"title cannot be empty", "", "provide a non-empty title", nil).WithOperation(op)
	}
	if n := utf8.RuneCountInString(s); n > MaxTitleRunes {
		return Title{}, kerrors.New(kerrors.ValidationFailed,
			"title exceeds maximum length",
			"titles must be at most 1024 characters",
			"shorten the title", nil).WithOperation(op)
	}
	return Title{value: s}, nil
}

// String returns the title text.
func (t Title) String() string { return t.value }

// IsZero reports whether t is the unconstructed zero value.
func (t Title) IsZero() bool { return t.value == "" }
