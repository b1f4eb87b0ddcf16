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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// DefaultBranchingFactor is B in §4.3's node-shape specification: leaf
// capacity L = B-1 entries, internal capacity B-1 keys / B children.
const DefaultBranchingFactor = 64

// Tree is the persistent B+ tree primary index.
type Tree struct {
	dir        string
	branching  int
	root       uint64
	nextPageID uint64
	cache      map[uint64]*node
	dirtySet   map[uint64]bool
}

var _ contract.Index = (*Tree)(nil)
var _ contract.BulkInserter = (*Tree)(nil)

// Open opens (or creates) a B+ tree index rooted at dir.
func Open(dir string) (*Tree, error) {
	return OpenWithBranching(dir, DefaultBranchingFactor)
}

// OpenWithBranching is Open with an explicit branching factor, mainly
// for tests that want small trees to exercise splits/merges cheaply.
func OpenWithBranching(dir string, branching int) (*Tree, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, kerrors.New(kerrors.IoFailed, "create btree directory", err.Error(), "", err).WithOperation("btree.open")
	}
	t := &Tree{
		dir:       dir,
		branching: branching,
		cache:     make(map[uint64]*node),
		dirtySet:  make(map[uint64]bool),
	}
	m, exists, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if exists {
		t.root = m.RootPageID
		t.nextPageID = m.NextPageID
	}
	return t, nil
}

func (t *Tree) minKeys() int { return t.branching / 2 }

func (t *Tree) pagePath(id uint64) string {
	return filepath.Join(t.dir, fmt.Sprintf("page-%020d.page", id))
}

func (t *Tree) allocPageID() uint64 {
	t.nextPageID++
	return t.nextPageID
}

func (t *Tree) loadNode(id uint64) (*node, error) {
	if n, ok := t.cache[id]; ok {
		return n, nil
	}
	buf, err := os.ReadFile(t.pagePath(id))
	if err != nil {
		return nil, kerrors.New(kerrors.IoFailed, "read btree page", err.Error(), "", err).WithOperation("btree.load_node")
	}
	n, err := decodePage(id, buf)
	if err != nil {
		return nil, err
	}
	t.cache[id] = n
	return n, nil
}

func (t *Tree) putNode(n *node) {
	t.cache[n.pageID] = n
	t.dirtySet[n.pageID] = true
}

func (t *Tree) markDirty(id uint64) { t.dirtySet[id] = true }

// Flush writes every dirty page to disk and atomically updates the
// manifest (§4.3: "the tree root identifier lives in a small manifest
// file and is updated atomically (write-new, rename)").
func (t *Tree) Flush(ctx context.Context) error {
	for id := range t.dirtySet {
		n, ok := t.cache[id]
		if !ok {
			continue
		}
		if err := os.WriteFile(t.pagePath(id), encodePage(n), 0o644); err != nil {
			return kerrors.New(kerrors.IoFailed, "write btree page", err.Error(), "", err).WithOperation("btree.flush")
		}
	}
	t.dirtySet = make(map[uint64]bool)
	return writeManifest(t.dir, manifest{RootPageID: t.root, NextPageID: t.nextPageID})
}

// Insert implements contract.Index.
func (t *Tree) Insert(ctx context.Context, id primitives.DocID, path primitives.Path) error {
	if t.root == 0 {
		leafID := t.allocPageID()
		leaf := &node{pageID: leafID, leaf: true, keys: []primitives.DocID{id}, values: []string{path.String()}}
		t.putNode(leaf)
		t.root = leafID
		return nil
	}

	splitKey, rightID, err := t.insertRec(t.root, id, path.String())
	if err != nil {
		return err
	}
	if rightID != 0 {
		newRootID := t.allocPageID()
		newRoot := &node{pageID: newRootID, leaf: false, keys: []primitives.DocID{*splitKey}, children: []uint64{t.root, rightID}}
		t.putNode(newRoot)
		t.root = newRootID
	}
	return nil
}

// InsertWithContent satisfies contract.Index; the primary index is
// keyed purely by id/path, so content is ignored (trigram.Index is the
// content-addressed collaborator).
func (t *Tree) InsertWithContent(ctx context.Context, id primitives.DocID, path primitives.Path, content []byte) error {
	return t.Insert(ctx, id, path)
}

func (t *Tree) insertRec(pageID uint64, id primitives.DocID, path string) (*primitives.DocID, uint64, error) {
	n, err := t.loadNode(pageID)
	if err != nil {
		return nil, 0, err
	}

	if n.leaf {
		idx := sort.Search(len(n.keys), func(i int) bool { return !n.keys[i].Less(id) })
		if idx < len(n.keys) && n.keys[idx] == id {
			n.values[idx] = path
			t.markDirty(pageID)
			return nil, 0, nil
		}
		n.keys = append(n.keys, primitives.DocID{})
		copy(n.keys[idx+1:], n.keys[idx:])
		n.keys[idx] = id
		n.values = append(n.values, "")
		copy(n.values[idx+1:], n.values[idx:])
		n.values[idx] = path
		t.markDirty(pageID)

		if len(n.keys) <= t.branching-1 {
			return nil, 0, nil
		}
		mid := len(n.keys) / 2
		rightID := t.allocPageID()
		right := &node{
			pageID: rightID, leaf: true,
			keys:   append([]primitives.DocID(nil), n.keys[mid:]...),
			values: append([]string(nil), n.values[mid:]...),
			next:   n.next,
		}
		n.keys = n.keys[:mid]
		n.values = n.values[:mid]
		n.next = rightID
		t.putNode(right)
		t.markDirty(pageID)
		sep := right.keys[0]
		return &sep, rightID, nil
	}

	childIdx := sort.Search(len(n.keys), func(i int) bool { return id.Less(n.keys[i]) })
	childID := n.children[childIdx]
	splitKey, rightChildID, err := t.insertRec(childID, id, path)
	if err != nil {
		return nil, 0, err
	}
	if rightChildID == 0 {
		return nil, 0, nil
	}

	n.keys = append(n.keys, primitives.DocID{})
	copy(n.keys[childIdx+1:], n.keys[childIdx:])
	n.keys[childIdx] = *splitKey
	n.children = append(n.children, 0)
	copy(n.children[childIdx+2:], n.children[childIdx+1:])
	n.children[childIdx+1] = rightChildID
	t.markDirty(pageID)

	if len(n.keys) <= t.branching-1 {
		return nil, 0, nil
	}
	mid := len(n.keys) / 2
	upKey := n.keys[mid]
	rightID := t.allocPageID()
	right := &node{
		pageID: rightID, leaf: false,
		keys:     append([]primitives.DocID(nil), n.keys[mid+1:]...),
		children: append([]uint64(nil), n.children[mid+1:]...),
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]
	t.putNode(right)
	t.markDirty(pageID)
	return &upKey, rightID, nil
}

// Delete implements contract.Index.
func (t *Tree) Delete(ctx context.Context, id primitives.DocID) (bool, error) {
	if t.root == 0 {
		return false, nil
	}
	removed, err := t.deleteRec(t.root, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}
	root, err := t.loadNode(t.root)
	if err == nil && !root.leaf && len(root.children) == 1 {
		t.root = root.children[0]
	}
	return true, nil
}

func (t *Tree) deleteRec(pageID uint64, id primitives.DocID) (bool, error) {
	n, err := t.loadNode(pageID)
	if err != nil {
		return false, err
	}

	if n.leaf {
		idx := sort.Search(len(n.keys), func(i int) bool { return !n.keys[i].Less(id) })
		if idx >= len(n.keys) || n.keys[idx] != id {
			return false, nil
		}
		n.keys = append(n.keys[:idx], n.keys[idx+1:]...)
		n.values = append(n.values[:idx], n.values[idx+1:]...)
		t.markDirty(pageID)
		return true, nil
	}

	childIdx := sort.Search(len(n.keys), func(i int) bool { return id.Less(n.keys[i]) })
	childID := n.children[childIdx]
	removed, err := t.deleteRec(childID, id)
	if err != nil || !removed {
		return removed, err
	}

	child, err := t.loadNode(childID)
	if err != nil {
		return true, err
	}
	if len(child.keys) >= t.minKeys() {
		return true, nil
	}
	if err := t.fixUnderflow(n, childIdx); err != nil {
		return true, err
	}
	t.markDirty(pageID)
	return true, nil
}

// fixUnderflow restores child[idx]'s minimum occupancy by borrowing
// from an adjacent sibling, or merging with one when no sibling has a
// spare entry (§4.3: "borrow from a sibling if possible, else merge
// and recursively fix the parent").
func (t *Tree) fixUnderflow(parent *node, idx int) error {
	child, err := t.loadNode(parent.children[idx])
	if err != nil {
		return err
	}

	if idx > 0 {
		left, err := t.loadNode(parent.children[idx-1])
		if err != nil {
			return err
		}
		if len(left.keys) > t.minKeys() {
			t.borrowFromLeft(parent, idx, left, child)
			return nil
		}
	}
	if idx < len(parent.children)-1 {
		right, err := t.loadNode(parent.children[idx+1])
		if err != nil {
			return err
		}
		if len(right.keys) > t.minKeys() {
			t.borrowFromRight(parent, idx, child, right)
			return nil
		}
	}

	if idx > 0 {
		left, err := t.loadNode(parent.children[idx-1])
		if err != nil {
			return err
		}
		t.merge(parent, idx-1, left, child)
		return nil
	}
	right, err := t.loadNode(parent.children[idx+1])
	if err != nil {
		return err
	}
	t.merge(parent, idx, child, right)
	return nil
}

func (t *Tree) borrowFromLeft(parent *node, idx int, left, child *node) {
	if child.leaf {
		lastKey := left.keys[len(left.keys)-1]
		lastVal := left.values[len(left.values)-1]
		left.keys = left.keys[:len(left.keys)-1]
		left.values = left.values[:len(left.values)-1]
		child.keys = append([]primitives.DocID{lastKey}, child.keys...)
		child.values = append([]string{lastVal}, child.values...)
		parent.keys[idx-1] = child.keys[0]
	} else {
		lastKey := left.keys[len(left.keys)-1]
		lastChild := left.children[len(left.children)-1]
		left.keys = left.keys[:len(left.keys)-1]
		left.children = left.children[:len(left.children)-1]
		child.keys = append([]primitives.DocID{parent.keys[idx-1]}, child.keys...)
		child.children = append([]uint64{lastChild}, child.children...)
		parent.keys[idx-1] = lastKey
	}
	t.markDirty(left.pageID)
	t.markDirty(child.pageID)
	t.markDirty(parent.pageID)
}

func (t *Tree) borrowFromRight(parent *node, idx int, child, right *node) {
	if child.leaf {
		firstKey := right.keys[0]
		firstVal := right.values[0]
		right.keys = right.keys[1:]
		right.values = right.values[1:]
		child.keys = append(child.keys, firstKey)
		child.values = append(child.values, firstVal)
		parent.keys[idx] = right.keys[0]
	} else {
		firstKey := right.keys[0]
		firstChild := right.children[0]
		right.keys = right.keys[1:]
		right.children = right.children[1:]
		child.keys = append(child.keys, parent.keys[idx])
		child.children = append(child.children, firstChild)
		parent.keys[idx] = firstKey
	}
	t.markDirty(right.pageID)
	t.markDirty(child.pageID)
	t.markDirty(parent.pageID)
}

// merge folds parent.children[idx+1] into parent.children[idx] and
// removes the separator at parent.keys[idx].
func (t *Tree) merge(parent *node, idx int, left, right *node) {
	if left.leaf {
		left.keys = append(left.keys, right.keys...)
		left.values = append(left.values, right.values...)
		left.next = right.next
	} else {
		left.keys = append(left.keys, parent.keys[idx])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}
	parent.keys = append(parent.keys[:idx], parent.keys[idx+1:]...)
	parent.children = append(parent.children[:idx+1], parent.children[idx+2:]...)
	t.markDirty(left.pageID)
	t.markDirty(parent.pageID)
	delete(t.cache, right.pageID)
	delete(t.dirtySet, right.pageID)
	_ = os.Remove(t.pagePath(right.pageID))
}

// Search implements contract.Index, dispatching on the populated
// fields of q per §4.3.
func (t *Tree) Search(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	if t.root == 0 {
		return nil, nil
	}
	if q.ExactID != nil {
		ok, err := t.lookup(*q.ExactID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []primitives.DocID{*q.ExactID}, nil
	}
	if q.RangeFrom != nil && q.RangeTo != nil {
		return t.rangeScan(*q.RangeFrom, *q.RangeTo, q.Limit)
	}
	return t.fullScan(q.Limit)
}

func (t *Tree) lookup(id primitives.DocID) (bool, error) {
	pageID := t.root
	for {
		n, err := t.loadNode(pageID)
		if err != nil {
			return false, err
		}
		if n.leaf {
			idx := sort.Search(len(n.keys), func(i int) bool { return !n.keys[i].Less(id) })
			return idx < len(n.keys) && n.keys[idx] == id, nil
		}
		idx := sort.Search(len(n.keys), func(i int) bool { return id.Less(n.keys[i]) })
		pageID = n.children[idx]
	}
}

func (t *Tree) firstLeaf() (uint64, error) {
	pageID := t.root
	for {
		n, err := t.loadNode(pageID)
		if err != nil {
			return 0, err
		}
		if n.leaf {
			return pageID, nil
		}
		pageID = n.children[0]
	}
}

func (t *Tree) fullScan(limit int) ([]primitives.DocID, error) {
	pageID, err := t.firstLeaf()
	if err != nil {
		return nil, err
	}
	var out []primitives.DocID
	for pageID != 0 {
		n, err := t.loadNode(pageID)
		if err != nil {
			return nil, err
		}
		out = append(out, n.keys...)
		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		pageID = n.next
	}
	return out, nil
}

func (t *Tree) rangeScan(from, to primitives.DocID, limit int) ([]primitives.DocID, error) {
	pageID := t.root
	for {
		n, err := t.loadNode(pageID)
		if err != nil {
			return nil, err
		}
		if n.leaf {
			break
		}
		idx := sort.Search(len(n.keys), func(i int) bool { return from.Less(n.keys[i]) })
		pageID = n.children[idx]
	}

	var out []primitives.DocID
	for pageID != 0 {
		n, err := t.loadNode(pageID)
		if err != nil {
			return nil, err
		}
		for _, k := range n.keys {
			if k.Less(from) {
				continue
			}
			if to.Less(k) {
				return out, nil
			}
			out = append(out, k)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		pageID = n.next
	}
	return out, nil
}
