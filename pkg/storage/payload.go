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

package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/kraklabs/kotadb/pkg/primitives"
)

// encodeMutationPayload builds the insert/update WAL payload:
// id(16B) | path_len(u16) | path | size(u64) | content_hash(32B).
func encodeMutationPayload(id primitives.DocID, path string, size uint64, hash [32]byte) []byte {
	pathBytes := []byte(path)
	buf := make([]byte, 16+2+len(pathBytes)+8+32)
	copy(buf[0:16], id.Bytes())
	binary.LittleEndian.PutUint16(buf[16:18], uint16(len(pathBytes)))
	copy(buf[18:18+len(pathBytes)], pathBytes)
	off := 18 + len(pathBytes)
	binary.LittleEndian.PutUint64(buf[off:off+8], size)
	copy(buf[off+8:off+40], hash[:])
	return buf
}

type mutationPayload struct {
	id   primitives.DocID
	path string
	size uint64
	hash [32]byte
}

func decodeMutationPayload(b []byte) (mutationPayload, error) {
	var p mutationPayload
	if len(b) < 18 {
		return p, fmt.Errorf("wal payload too short: %d bytes", len(b))
	}
	id, err := primitives.DocIDFromBytes(b[0:16])
	if err != nil {
		return p, err
	}
	pathLen := int(binary.LittleEndian.Uint16(b[16:18]))
	if len(b) < 18+pathLen+8+32 {
		return p, fmt.Errorf("wal payload truncated for path_len %d", pathLen)
	}
	path := string(b[18 : 18+pathLen])
	off := 18 + pathLen
	size := binary.LittleEndian.Uint64(b[off : off+8])
	var hash [32]byte
	copy(hash[:], b[off+8:off+40])
	p.id, p.path, p.size, p.hash = id, path, size, hash
	return p, nil
}

// encodeDeletePayload builds the delete WAL payload: id(16B).
func encodeDeletePayload(id primitives.DocID) []byte {
	return append([]byte(nil), id.Bytes()...)
}

func decodeDeletePayload(b []byte) (primitives.DocID, error) {
	return primitives.DocIDFromBytes(b)
}
