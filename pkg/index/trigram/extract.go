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

import (
	"bytes"
	"unicode"
)

// trigramKey is a 3-byte window of normalized content.
type trigramKey [3]byte

// normalizeContent lowercases content and collapses runs of whitespace
// into a single ASCII space, per §4.4 step 1 applied uniformly to both
// indexed content and query text.
func normalizeContent(content []byte) []byte {
	lower := bytes.ToLower(content)
	var out bytes.Buffer
	inSpace := false
	for _, r := range string(lower) {
		if unicode.IsSpace(r) {
			if !inSpace {
				out.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		out.WriteRune(r)
	}
	return bytes.TrimSpace(out.Bytes())
}

// normalizeQuery applies the same normalization query text goes
// through before trigram extraction.
func normalizeQuery(text string) string {
	return string(normalizeContent([]byte(text)))
}

type trigramOccurrence struct {
	key trigramKey
	pos int // byte offset into the normalized content
}

// extractTrigrams slides a 3-byte window across normalized, recording
// every occurrence's byte offset.
func extractTrigrams(normalized []byte) []trigramOccurrence {
	if len(normalized) < 3 {
		return nil
	}
	occs := make([]trigramOccurrence, 0, len(normalized)-2)
	for i := 0; i+3 <= len(normalized); i++ {
		var k trigramKey
		copy(k[:], normalized[i:i+3])
		occs = append(occs, trigramOccurrence{key: k, pos: i})
	}
	return occs
}

// groupByKey buckets occurrences by trigram key, preserving position order.
func groupByKey(occs []trigramOccurrence) map[trigramKey][]int {
	grouped := make(map[trigramKey][]int)
	for _, o := range occs {
		grouped[o.key] = append(grouped[o.key], o.pos)
	}
	return grouped
}

// uniqueKeys returns the distinct trigram keys found in occs.
func uniqueKeys(occs []trigramOccurrence) []trigramKey {
	seen := make(map[trigramKey]bool)
	var keys []trigramKey
	for _, o := range occs {
		if !seen[o.key] {
			seen[o.key] = true
			keys = append(keys, o.key)
		}
	}
	return keys
}
