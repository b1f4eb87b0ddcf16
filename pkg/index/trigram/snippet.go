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

package trigram

import "unicode/utf8"

// clampToRuneBoundary moves byte offset i in s backward to the start
// of the rune it falls inside, if it isn't already on one. Trigram
// match positions are raw byte offsets and can legitimately land
// mid-rune; callers that turn a position into a displayable slice must
// run it through this first (§4.4 "Unicode handling").
func clampToRuneBoundary(s []byte, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// Snippet extracts a human-readable window of content around byte
// offset pos, radius bytes on each side, with both edges corrected to
// the nearest valid rune boundary so the result is always valid UTF-8.
func Snippet(content []byte, pos, radius int) string {
	if radius < 0 {
		radius = 0
	}
	start := clampToRuneBoundary(content, pos-radius)
	end := clampToRuneBoundary(content, pos+radius)
	if end < start {
		end = start
	}
	return string(content[start:end])
}
