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
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Index is the content-addressed trigram inverted index.
type Index struct {
	dir         string
	postings    map[trigramKey][]postingEntry
	docTrigrams map[string][]trigramKey
	dirty       bool
}

var _ contract.Index = (*Index)(nil)

// Open opens (or creates) a trigram index rooted at dir, loading any
// previously flushed block.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	idx := &Index{
		dir:         dir,
		postings:    make(map[trigramKey][]postingEntry),
		docTrigrams: make(map[string][]trigramKey),
	}
	buf, err := os.ReadFile(blockPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	postings, err := decodeBlock(buf)
	if err != nil {
		return nil, err
	}
	idx.postings = postings
	for key, list := range postings {
		for _, e := range list {
			idStr := e.id.String()
			idx.docTrigrams[idStr] = append(idx.docTrigrams[idStr], key)
		}
	}
	return idx, nil
}

// Insert implements contract.Index: the plain variant inserts no
// postings, matching §4.4's API-symmetry note.
func (idx *Index) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	return nil
}

// InsertWithContent implements contract.Index's content-addressed
// insert. Re-inserting an id first removes its prior postings so
// repeated inserts behave like an update rather than accumulating.
func (idx *Index) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	idx.removeID(id)

	normalized := normalizeContent(content)
	occs := extractTrigrams(normalized)
	grouped := groupByKey(occs)

	var keys []trigramKey
	for key, positions := range grouped {
		idx.postings[key] = upsertEntry(idx.postings[key], id, positions)
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		idx.docTrigrams[id.String()] = keys
	}
	idx.dirty = true
	return nil
}

func (idx *Index) removeID(id primitives.DocID) bool {
	keys, ok := idx.docTrigrams[id.String()]
	if !ok {
		return false
	}
	for _, key := range keys {
		list := removeEntry(idx.postings[key], id)
		if len(list) == 0 {
			delete(idx.postings, key)
		} else {
			idx.postings[key] = list
		}
	}
	delete(idx.docTrigrams, id.String())
	return true
}

// Delete implements contract.Index.
func (idx *Index) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	removed := idx.removeID(id)
	if removed {
		idx.dirty = true
	}
	return removed, nil
}

// Search implements contract.Index per §4.4's query processing steps.
func (idx *Index) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	var termResults []map[primitives.DocID]*termMatch
	for _, term := range q.SearchTerms {
		normalized := normalizeQuery(term)
		if normalized == "" {
			return nil, nil
		}
		occs := extractTrigrams([]byte(normalized))
		var result map[primitives.DocID]*termMatch
		if len(occs) >= 1 {
			keys := uniqueKeys(occs)
			lists := make([][]postingEntry, 0, len(keys))
			for _, k := range keys {
				lists = append(lists, idx.postings[k])
			}
			result = andMergeTrigramLists(lists)
		} else {
			result = idx.prefixFallback(normalized)
		}
		termResults = append(termResults, result)
	}

	if len(termResults) == 0 {
		return nil, nil
	}
	final := intersectTermMatches(termResults)
	return rankAndTruncate(final, q.Limit), nil
}

// prefixFallback implements §4.4 step 2's short-query path: the query
// normalizes to fewer than 3 bytes, so no full trigram can be formed;
// instead union every trigram whose key starts with the query text.
func (idx *Index) prefixFallback(text string) map[primitives.DocID]*termMatch {
	if text == "" {
		return nil
	}
	prefix := []byte(text)
	var lists [][]postingEntry
	for key, list := range idx.postings {
		if bytes.HasPrefix(key[:], prefix) {
			lists = append(lists, list)
		}
	}
	return unionTrigramLists(lists)
}

// Flush compacts the in-memory posting accumulators into the on-disk
// block (§4.4).
func (idx *Index) Flush(ctx context.Context) error {
	if !idx.dirty {
		return nil
	}
	buf := encodeBlock(idx.postings)
	tmp := blockPath(idx.dir) + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, blockPath(idx.dir)); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func blockPath(dir string) string { return filepath.Join(dir, "block.ktr") }

// sortedKeys returns the index's trigram keys in byte order, the
// ordering the on-disk index section is serialized in.
func sortedKeys(postings map[trigramKey][]postingEntry) []trigramKey {
	keys := make([]trigramKey, 0, len(postings))
	for k := range postings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}
