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

// Package trigram implements the content-addressed trigram inverted
// index (C4): approximate substring search over raw content bytes.
//
// Trigrams are three-byte windows, not three-rune windows, matching
// the Russ Cox codesearch index format this package is grounded on —
// the index is a byte index, oblivious to UTF-8 structure, which is
// exactly what lets the on-disk trigram key stay a fixed 3 bytes.
// Unicode correctness instead lives at the edges: Snippet clamps any
// byte offset it is given to the nearest valid rune boundary before
// slicing content for display.
package trigram
