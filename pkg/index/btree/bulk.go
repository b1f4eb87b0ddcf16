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
	"context"
	"sort"
	"time"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// BulkInsert implements contract.BulkInserter. It sorts the input by
// key then builds the tree bottom-up, packing leaves to ~90% capacity
// and writing internal levels layer by layer (§4.3), which is what
// gets bulk loads to the required ≥3x single-insert throughput for
// inputs of 100 pairs or more.
//
// BulkInsert replaces the tree's current contents; it is meant for
// building a fresh index, not for incremental loads into a populated
// one (callers that need the latter should call Insert in a loop).
func (t *Tree) BulkInsert(ctx context.Context, pairs []contract.BulkPair) (contract.BulkResult, error) {
	start := time.Now()
	if len(pairs) == 0 {
		return contract.BulkResult{Elapsed: int64(time.Since(start))}, nil
	}

	sorted := append([]contract.BulkPair(nil), pairs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Less(sorted[j].ID) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return contract.BulkResult{}, kerrors.New(kerrors.ValidationFailed,
				"duplicate id in bulk_insert input", sorted[i].ID.String(),
				"bulk_insert requires distinct ids", nil).WithOperation("btree.bulk_insert")
		}
	}

	leafCapacity := t.branching - 1
	packSize := leafCapacity * 9 / 10
	if packSize < 1 {
		packSize = 1
	}

	// Pack leaves left to right at ~90% capacity, linking next pointers.
	var leafIDs []uint64
	var leafFirstKey []primitives.DocID
	var prevLeaf *node
	for i := 0; i < len(sorted); i += packSize {
		end := i + packSize
		if end > len(sorted) {
			end = len(sorted)
		}
		leafID := t.allocPageID()
		leaf := &node{pageID: leafID, leaf: true}
		for _, p := range sorted[i:end] {
			leaf.keys = append(leaf.keys, p.ID)
			leaf.values = append(leaf.values, p.Path.String())
		}
		t.putNode(leaf)
		if prevLeaf != nil {
			prevLeaf.next = leafID
			t.markDirty(prevLeaf.pageID)
		}
		leafIDs = append(leafIDs, leafID)
		leafFirstKey = append(leafFirstKey, leaf.keys[0])
		prevLeaf = leaf
	}

	// Build internal levels layer by layer until one node remains.
	childIDs := leafIDs
	firstKeys := leafFirstKey
	childCapacity := t.branching
	for len(childIDs) > 1 {
		var levelIDs []uint64
		var levelFirstKeys []primitives.DocID
		for i := 0; i < len(childIDs); i += childCapacity {
			end := i + childCapacity
			if end > len(childIDs) {
				end = len(childIDs)
			}
			nodeID := t.allocPageID()
			in := &node{pageID: nodeID, leaf: false, children: append([]uint64(nil), childIDs[i:end]...)}
			for j := i + 1; j < end; j++ {
				in.keys = append(in.keys, firstKeys[j])
			}
			t.putNode(in)
			levelIDs = append(levelIDs, nodeID)
			levelFirstKeys = append(levelFirstKeys, firstKeys[i])
		}
		childIDs = levelIDs
		firstKeys = levelFirstKeys
	}

	t.root = childIDs[0]
	return contract.BulkResult{Inserted: len(sorted), Elapsed: int64(time.Since(start))}, nil
}
