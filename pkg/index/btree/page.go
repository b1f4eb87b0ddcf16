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
	"encoding/binary"
	"hash/crc32"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

const (
	pageMagic      = "KTBT"
	pageVersion    = uint16(1)
	kindLeaf       = uint8(1)
	kindInternal   = uint8(2)
	pageHeaderSize = 4 + 2 + 1 + 2 + 4
)

// node is the in-memory form of one page. A node is either a leaf
// (keys/values populated, next set) or an internal node (keys/children
// populated).
type node struct {
	pageID   uint64
	leaf     bool
	keys     []primitives.DocID
	values   []string // leaf only: serialized path
	children []uint64 // internal only
	next     uint64   // leaf only: next leaf's page id, 0 = none
	dirty    bool
}

// encodePage serializes n into the on-disk page format:
// magic | version | kind | entry_count | crc32 | entries...
func encodePage(n *node) []byte {
	var body []byte
	entryCount := len(n.keys)
	if n.leaf {
		for i, k := range n.keys {
			pathBytes := []byte(n.values[i])
			entry := make([]byte, 16+2+len(pathBytes))
			copy(entry[0:16], k.Bytes())
			binary.LittleEndian.PutUint16(entry[16:18], uint16(len(pathBytes)))
			copy(entry[18:], pathBytes)
			body = append(body, entry...)
		}
		nextBuf := make([]byte, 8)
		binary.LittleEndian.PutUint64(nextBuf, n.next)
		body = append(body, nextBuf...)
	} else {
		for _, k := range n.keys {
			body = append(body, k.Bytes()...)
		}
		childBuf := make([]byte, 8*len(n.children))
		for i, c := range n.children {
			binary.LittleEndian.PutUint64(childBuf[i*8:i*8+8], c)
		}
		body = append(body, childBuf...)
	}

	kind := kindInternal
	if n.leaf {
		kind = kindLeaf
	}

	header := make([]byte, pageHeaderSize)
	copy(header[0:4], pageMagic)
	binary.LittleEndian.PutUint16(header[4:6], pageVersion)
	header[6] = kind
	binary.LittleEndian.PutUint16(header[7:9], uint16(entryCount))
	crc := crc32.ChecksumIEEE(body)
	binary.LittleEndian.PutUint32(header[9:13], crc)

	return append(header, body...)
}

// decodePage parses a page file's contents into a node.
func decodePage(pageID uint64, buf []byte) (*node, error) {
	const op = "btree.decode_page"
	if len(buf) < pageHeaderSize {
		return nil, kerrors.New(kerrors.Corrupt, "btree page too short", "", "", nil).WithOperation(op)
	}
	if string(buf[0:4]) != pageMagic {
		return nil, kerrors.New(kerrors.Corrupt, "btree page bad magic", "",
			"the on-disk file is not a KotaDB btree page, or the format version is unsupported", nil).WithOperation(op)
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != pageVersion {
		return nil, kerrors.New(kerrors.Corrupt, "btree page unsupported version", "",
			"refuse to silently upgrade; reindex with the current version", nil).WithOperation(op)
	}
	kind := buf[6]
	entryCount := int(binary.LittleEndian.Uint16(buf[7:9]))
	wantCRC := binary.LittleEndian.Uint32(buf[9:13])
	body := buf[pageHeaderSize:]
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, kerrors.New(kerrors.Corrupt, "btree page checksum mismatch", "", "", nil).WithOperation(op)
	}

	n := &node{pageID: pageID, leaf: kind == kindLeaf}
	off := 0
	if n.leaf {
		for i := 0; i < entryCount; i++ {
			if off+18 > len(body) {
				return nil, kerrors.New(kerrors.Corrupt, "btree leaf entry truncated", "", "", nil).WithOperation(op)
			}
			key, err := primitives.DocIDFromBytes(body[off : off+16])
			if err != nil {
				return nil, kerrors.New(kerrors.Corrupt, "btree leaf key invalid", err.Error(), "", err).WithOperation(op)
			}
			pathLen := int(binary.LittleEndian.Uint16(body[off+16 : off+18]))
			off += 18
			if off+pathLen > len(body) {
				return nil, kerrors.New(kerrors.Corrupt, "btree leaf path truncated", "", "", nil).WithOperation(op)
			}
			n.keys = append(n.keys, key)
			n.values = append(n.values, string(body[off:off+pathLen]))
			off += pathLen
		}
		if off+8 > len(body) {
			return nil, kerrors.New(kerrors.Corrupt, "btree leaf footer truncated", "", "", nil).WithOperation(op)
		}
		n.next = binary.LittleEndian.Uint64(body[off : off+8])
	} else {
		for i := 0; i < entryCount; i++ {
			if off+16 > len(body) {
				return nil, kerrors.New(kerrors.Corrupt, "btree internal key truncated", "", "", nil).WithOperation(op)
			}
			key, err := primitives.DocIDFromBytes(body[off : off+16])
			if err != nil {
				return nil, kerrors.New(kerrors.Corrupt, "btree internal key invalid", err.Error(), "", err).WithOperation(op)
			}
			n.keys = append(n.keys, key)
			off += 16
		}
		childCount := entryCount + 1
		for i := 0; i < childCount; i++ {
			if off+8 > len(body) {
				return nil, kerrors.New(kerrors.Corrupt, "btree internal children truncated", "", "", nil).WithOperation(op)
			}
			n.children = append(n.children, binary.LittleEndian.Uint64(body[off:off+8]))
			off += 8
		}
	}
	return n, nil
}
