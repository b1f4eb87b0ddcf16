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
	"encoding/binary"
	"hash/crc32"
	"math/big"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

const (
	blockMagic   = "KTTR"
	blockVersion = uint16(1)
)

// encodeBlock serializes postings into the §6 trigram block format:
// magic | version | trigram_count | crc32 | (trigram(3B), posting_offset u32)* | posting_lists...
// posting_offset is relative to the start of the posting-lists section.
func encodeBlock(postings map[trigramKey][]postingEntry) []byte {
	keys := sortedKeys(postings)

	var listsBuf bytes.Buffer
	offsets := make([]uint32, len(keys))
	for i, key := range keys {
		offsets[i] = uint32(listsBuf.Len())
		encodePostingList(&listsBuf, postings[key])
	}

	var body bytes.Buffer
	for i, key := range keys {
		body.Write(key[:])
		var off [4]byte
		binary.LittleEndian.PutUint32(off[:], offsets[i])
		body.Write(off[:])
	}
	body.Write(listsBuf.Bytes())

	header := make([]byte, 4+2+4+4)
	copy(header[0:4], blockMagic)
	binary.LittleEndian.PutUint16(header[4:6], blockVersion)
	binary.LittleEndian.PutUint32(header[6:10], uint32(len(keys)))
	binary.LittleEndian.PutUint32(header[10:14], crc32.ChecksumIEEE(body.Bytes()))

	return append(header, body.Bytes()...)
}

func encodePostingList(buf *bytes.Buffer, list []postingEntry) {
	writeUvarint(buf, uint64(len(list)))
	prevID := new(big.Int)
	for _, e := range list {
		cur := docIDToBigInt(e.id)
		delta := new(big.Int).Sub(cur, prevID)
		putBigVarint(buf, delta)
		prevID = cur

		writeUvarint(buf, uint64(e.frequency))
		writeUvarint(buf, uint64(len(e.positions)))
		prevPos := 0
		for _, p := range e.positions {
			writeUvarint(buf, uint64(p-prevPos))
			prevPos = p
		}
	}
}

func docIDToBigInt(id primitives.DocID) *big.Int {
	return new(big.Int).SetBytes(id.Bytes())
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

// decodeBlock parses a block produced by encodeBlock, validating the
// magic, version, and checksum before trusting any posting data.
func decodeBlock(buf []byte) (map[trigramKey][]postingEntry, error) {
	const op = "trigram.decode_block"
	if len(buf) < 14 {
		return nil, kerrors.New(kerrors.Corrupt, "trigram block too short", "", "", nil).WithOperation(op)
	}
	if string(buf[0:4]) != blockMagic {
		return nil, kerrors.New(kerrors.Corrupt, "trigram block bad magic", "",
			"the on-disk file is not a KotaDB trigram block, or the format version is unsupported", nil).WithOperation(op)
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != blockVersion {
		return nil, kerrors.New(kerrors.Corrupt, "trigram block unsupported version", "",
			"refuse to silently upgrade; reindex with the current version", nil).WithOperation(op)
	}
	trigramCount := int(binary.LittleEndian.Uint32(buf[6:10]))
	wantCRC := binary.LittleEndian.Uint32(buf[10:14])
	body := buf[14:]
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, kerrors.New(kerrors.Corrupt, "trigram block checksum mismatch", "", "", nil).WithOperation(op)
	}

	indexSize := trigramCount * (3 + 4)
	if indexSize > len(body) {
		return nil, kerrors.New(kerrors.Corrupt, "trigram block index truncated", "", "", nil).WithOperation(op)
	}
	type indexEntry struct {
		key trigramKey
		off uint32
	}
	entries := make([]indexEntry, trigramCount)
	for i := 0; i < trigramCount; i++ {
		off := i * 7
		var e indexEntry
		copy(e.key[:], body[off:off+3])
		e.off = binary.LittleEndian.Uint32(body[off+3 : off+7])
		entries[i] = e
	}

	listsSection := body[indexSize:]
	postings := make(map[trigramKey][]postingEntry, trigramCount)
	for _, e := range entries {
		if int(e.off) > len(listsSection) {
			return nil, kerrors.New(kerrors.Corrupt, "trigram posting offset out of range", "", "", nil).WithOperation(op)
		}
		list, err := decodePostingList(listsSection[e.off:])
		if err != nil {
			return nil, err
		}
		postings[e.key] = list
	}
	return postings, nil
}

func decodePostingList(buf []byte) ([]postingEntry, error) {
	const op = "trigram.decode_posting_list"
	r := bytes.NewReader(buf)
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, kerrors.New(kerrors.Corrupt, "trigram posting list truncated", err.Error(), "", err).WithOperation(op)
	}
	list := make([]postingEntry, 0, count)
	prevID := new(big.Int)
	for i := uint64(0); i < count; i++ {
		delta, err := readBigVarint(r)
		if err != nil {
			return nil, kerrors.New(kerrors.Corrupt, "trigram posting id delta truncated", err.Error(), "", err).WithOperation(op)
		}
		cur := new(big.Int).Add(prevID, delta)
		prevID = cur
		idBytes := cur.FillBytes(make([]byte, 16))
		id, err := primitives.DocIDFromBytes(idBytes)
		if err != nil {
			return nil, kerrors.New(kerrors.Corrupt, "trigram posting id invalid", err.Error(), "", err).WithOperation(op)
		}

		freq, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, kerrors.New(kerrors.Corrupt, "trigram posting frequency truncated", err.Error(), "", err).WithOperation(op)
		}
		posCount, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, kerrors.New(kerrors.Corrupt, "trigram posting position count truncated", err.Error(), "", err).WithOperation(op)
		}
		positions := make([]int, 0, posCount)
		prevPos := 0
		for j := uint64(0); j < posCount; j++ {
			delta, err := binary.ReadUvarint(r)
			if err != nil {
				return nil, kerrors.New(kerrors.Corrupt, "trigram posting position truncated", err.Error(), "", err).WithOperation(op)
			}
			prevPos += int(delta)
			positions = append(positions, prevPos)
		}
		list = append(list, postingEntry{id: id, frequency: int(freq), positions: positions})
	}
	return list, nil
}
