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
	"sort"

	"github.com/kraklabs/kotadb/pkg/primitives"
)

// postingEntry is one document's occurrence record within a single
// trigram's posting list, sorted ascending by id within the list.
type postingEntry struct {
	id        primitives.DocID
	frequency int
	positions []int
}

func findEntry(list []postingEntry, id primitives.DocID) int {
	return sort.Search(len(list), func(i int) bool { return !list[i].id.Less(id) })
}

// upsertEntry inserts or replaces id's entry, keeping the list sorted.
func upsertEntry(list []postingEntry, id primitives.DocID, positions []int) []postingEntry {
	idx := findEntry(list, id)
	entry := postingEntry{id: id, frequency: len(positions), positions: positions}
	if idx < len(list) && list[idx].id == id {
		list[idx] = entry
		return list
	}
	list = append(list, postingEntry{})
	copy(list[idx+1:], list[idx:])
	list[idx] = entry
	return list
}

// removeEntry deletes id's entry if present.
func removeEntry(list []postingEntry, id primitives.DocID) []postingEntry {
	idx := findEntry(list, id)
	if idx < len(list) && list[idx].id == id {
		return append(list[:idx], list[idx+1:]...)
	}
	return list
}

// termMatch accumulates the per-document evidence gathered while
// resolving one search term.
type termMatch struct {
	totalFreq int
	positions []int
}

// andMergeTrigramLists intersects postings across keys (a single
// term's trigrams), §4.4 step 3's AND semantics, accumulating each
// matched document's combined frequency and positions for ranking.
func andMergeTrigramLists(lists [][]postingEntry) map[primitives.DocID]*termMatch {
	if len(lists) == 0 {
		return nil
	}
	counts := make(map[primitives.DocID]int)
	matches := make(map[primitives.DocID]*termMatch)
	for _, list := range lists {
		seen := make(map[primitives.DocID]bool, len(list))
		for _, e := range list {
			if seen[e.id] {
				continue
			}
			seen[e.id] = true
			counts[e.id]++
			m, ok := matches[e.id]
			if !ok {
				m = &termMatch{}
				matches[e.id] = m
			}
			m.totalFreq += e.frequency
			m.positions = append(m.positions, e.positions...)
		}
	}
	out := make(map[primitives.DocID]*termMatch)
	for id, c := range counts {
		if c == len(lists) {
			out[id] = matches[id]
		}
	}
	return out
}

// unionTrigramLists merges postings across keys without requiring
// presence in every list — used for the prefix-match fallback (§4.4
// step 2) where a short query maps to several candidate trigrams.
func unionTrigramLists(lists [][]postingEntry) map[primitives.DocID]*termMatch {
	out := make(map[primitives.DocID]*termMatch)
	for _, list := range lists {
		for _, e := range list {
			m, ok := out[e.id]
			if !ok {
				m = &termMatch{}
				out[e.id] = m
			}
			m.totalFreq += e.frequency
			m.positions = append(m.positions, e.positions...)
		}
	}
	return out
}

// intersectTermMatches ANDs multiple terms' per-document matches
// together (§4.4's query model treats a multi-term query as
// conjunctive) and merges their score inputs.
func intersectTermMatches(terms []map[primitives.DocID]*termMatch) map[primitives.DocID]*termMatch {
	if len(terms) == 0 {
		return nil
	}
	out := terms[0]
	for _, t := range terms[1:] {
		merged := make(map[primitives.DocID]*termMatch)
		for id, m := range out {
			if other, ok := t[id]; ok {
				merged[id] = &termMatch{
					totalFreq: m.totalFreq + other.totalFreq,
					positions: append(append([]int(nil), m.positions...), other.positions...),
				}
			}
		}
		out = merged
	}
	return out
}

// score combines frequency and proximity per §4.4 step 4: each matched
// occurrence adds 1000, and the byte span between the first and last
// matched position is subtracted. For equal frequency, occurrences
// clustered closer together (smaller span) rank higher; a span wider
// than 1000 bytes can outweigh one extra occurrence.
func score(m *termMatch) float64 {
	if len(m.positions) == 0 {
		return float64(m.totalFreq) * 1000
	}
	sorted := append([]int(nil), m.positions...)
	sort.Ints(sorted)
	span := sorted[len(sorted)-1] - sorted[0]
	return float64(m.totalFreq)*1000 - float64(span)
}

type scoredDoc struct {
	id    primitives.DocID
	score float64
}

func rankAndTruncate(matches map[primitives.DocID]*termMatch, limit int) []primitives.DocID {
	scored := make([]scoredDoc, 0, len(matches))
	for id, m := range matches {
		scored = append(scored, scoredDoc{id: id, score: score(m)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id.Less(scored[j].id)
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	out := make([]primitives.DocID, len(scored))
	for i, s := range scored {
		out[i] = s.id
	}
	return out
}
