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

package symbols

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

const (
	fileMagic   = "KTSY"
	fileVersion = uint16(1)
	headerSize  = 4 + 2 + 4 + 8 + 4 // magic | version | record_count | string_table_offset | crc32
)

// stringTable interns strings append-only; identical strings MAY be
// deduplicated (§4.7 says this is optional), and this implementation
// does so since it is nearly free to build alongside the name index.
type stringTable struct {
	buf    bytes.Buffer
	offset map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{offset: make(map[string]uint32)}
}

func (t *stringTable) intern(s string) (off uint32, n uint16) {
	if existing, ok := t.offset[s]; ok {
		return existing, uint16(len(s))
	}
	off = uint32(t.buf.Len())
	t.offset[s] = off
	t.buf.WriteString(s)
	return off, uint16(len(s))
}

// encodeFile serializes symbols into the §6 binary symbol file format:
// header | packed record array | string table.
func encodeFile(symbols []Symbol) []byte {
	table := newStringTable()
	// parentIndex maps a SymbolID to its 1-based position in symbols,
	// since parent_off of 0 means "no parent" (§3).
	parentIndex := make(map[primitives.SymbolID]uint32, len(symbols))
	for i, sym := range symbols {
		parentIndex[sym.ID] = uint32(i) + 1
	}

	var records bytes.Buffer
	for _, sym := range symbols {
		nameOff, nameLen := table.intern(sym.Name)
		fileOff, fileLen := table.intern(sym.File.String())
		var parentOff uint32
		if sym.Parent != nil {
			parentOff = parentIndex[*sym.Parent]
		}
		writePackedRecord(&records, packedRecord{
			id: sym.ID, kind: sym.Kind,
			nameOff: nameOff, nameLen: nameLen,
			fileOff: fileOff, fileLen: fileLen,
			startLine: sym.StartLine, endLine: sym.EndLine,
			parentOff: parentOff,
		})
	}

	stringTableOffset := uint64(headerSize + records.Len())
	body := append(append([]byte(nil), records.Bytes()...), table.buf.Bytes()...)

	header := make([]byte, headerSize)
	copy(header[0:4], fileMagic)
	binary.LittleEndian.PutUint16(header[4:6], fileVersion)
	binary.LittleEndian.PutUint32(header[6:10], uint32(len(symbols)))
	binary.LittleEndian.PutUint64(header[10:18], stringTableOffset)
	binary.LittleEndian.PutUint32(header[18:22], crc32.ChecksumIEEE(body))

	return append(header, body...)
}

func writePackedRecord(buf *bytes.Buffer, r packedRecord) {
	buf.Write(r.id.Bytes())
	buf.WriteByte(byte(r.kind))
	var tmp4 [4]byte
	var tmp2 [2]byte
	binary.LittleEndian.PutUint32(tmp4[:], r.nameOff)
	buf.Write(tmp4[:])
	binary.LittleEndian.PutUint16(tmp2[:], r.nameLen)
	buf.Write(tmp2[:])
	binary.LittleEndian.PutUint32(tmp4[:], r.fileOff)
	buf.Write(tmp4[:])
	binary.LittleEndian.PutUint16(tmp2[:], r.fileLen)
	buf.Write(tmp2[:])
	binary.LittleEndian.PutUint32(tmp4[:], r.startLine)
	buf.Write(tmp4[:])
	binary.LittleEndian.PutUint32(tmp4[:], r.endLine)
	buf.Write(tmp4[:])
	binary.LittleEndian.PutUint32(tmp4[:], r.parentOff)
	buf.Write(tmp4[:])
}

// decodeFile parses a file produced by encodeFile, validating magic,
// version, checksum, and the record_count/file-length relationship
// before trusting any record (§4.7's partial-write detection).
func decodeFile(buf []byte) ([]Symbol, error) {
	const op = "symbols.decode_file"
	if len(buf) < headerSize {
		return nil, kerrors.New(kerrors.Corrupt, "symbol file too short", "", "", nil).WithOperation(op)
	}
	if string(buf[0:4]) != fileMagic {
		return nil, kerrors.New(kerrors.Corrupt, "symbol file bad magic", "",
			"the file is not a KotaDB symbol store, or its version is unsupported", nil).WithOperation(op)
	}
	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != fileVersion {
		return nil, kerrors.New(kerrors.Corrupt, "symbol file unsupported version", "",
			"refuse to silently upgrade; rerun ingestion with the current version", nil).WithOperation(op)
	}
	recordCount := binary.LittleEndian.Uint32(buf[6:10])
	stringTableOffset := binary.LittleEndian.Uint64(buf[10:18])
	wantCRC := binary.LittleEndian.Uint32(buf[18:22])

	body := buf[headerSize:]
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, kerrors.New(kerrors.Corrupt, "symbol file checksum mismatch", "", "", nil).WithOperation(op)
	}

	expectedRecordsLen := uint64(recordCount) * packedRecordSize
	if uint64(headerSize)+expectedRecordsLen != stringTableOffset {
		return nil, kerrors.New(kerrors.Corrupt,
			"symbol file record_count does not match the derivable file length",
			"", "the file was partially written and never completed", nil).WithOperation(op)
	}
	if stringTableOffset > uint64(len(buf)) {
		return nil, kerrors.New(kerrors.Corrupt, "symbol file string table offset out of range", "", "", nil).WithOperation(op)
	}

	records := buf[headerSize:stringTableOffset]
	stringTable := buf[stringTableOffset:]

	symbols := make([]Symbol, recordCount)
	ids := make([]primitives.SymbolID, recordCount)
	for i := uint32(0); i < recordCount; i++ {
		rec, err := readPackedRecord(records[i*packedRecordSize:])
		if err != nil {
			return nil, err
		}
		name, err := sliceString(stringTable, rec.nameOff, rec.nameLen, op)
		if err != nil {
			return nil, err
		}
		filePath, err := sliceString(stringTable, rec.fileOff, rec.fileLen, op)
		if err != nil {
			return nil, err
		}
		path, err := primitives.NewPath(filePath)
		if err != nil {
			return nil, kerrors.New(kerrors.Corrupt, "symbol file record has invalid path", err.Error(), "", err).WithOperation(op)
		}
		sym := Symbol{
			ID: rec.id, Kind: rec.kind, Name: name, File: path,
			StartLine: rec.startLine, EndLine: rec.endLine,
		}
		ids[i] = rec.id
		if rec.parentOff != 0 {
			if rec.parentOff > i {
				return nil, kerrors.New(kerrors.Corrupt,
					"symbol file parent_off does not reference an earlier record", "", "", nil).WithOperation(op)
			}
			parent := ids[rec.parentOff-1]
			sym.Parent = &parent
		}
		symbols[i] = sym
	}
	return symbols, nil
}

func readPackedRecord(buf []byte) (packedRecord, error) {
	const op = "symbols.decode_record"
	if len(buf) < packedRecordSize {
		return packedRecord{}, kerrors.New(kerrors.Corrupt, "symbol record truncated", "", "", nil).WithOperation(op)
	}
	id, err := primitives.SymbolIDFromBytes(buf[0:16])
	if err != nil {
		return packedRecord{}, kerrors.New(kerrors.Corrupt, "symbol record has invalid id", err.Error(), "", err).WithOperation(op)
	}
	kind := Kind(buf[16])
	if !validKind(kind) {
		return packedRecord{}, kerrors.New(kerrors.Corrupt, "symbol record has invalid kind", "", "", nil).WithOperation(op)
	}
	rec := packedRecord{
		id:        id,
		kind:      kind,
		nameOff:   binary.LittleEndian.Uint32(buf[17:21]),
		nameLen:   binary.LittleEndian.Uint16(buf[21:23]),
		fileOff:   binary.LittleEndian.Uint32(buf[23:27]),
		fileLen:   binary.LittleEndian.Uint16(buf[27:29]),
		startLine: binary.LittleEndian.Uint32(buf[29:33]),
		endLine:   binary.LittleEndian.Uint32(buf[33:37]),
		parentOff: binary.LittleEndian.Uint32(buf[37:41]),
	}
	if rec.startLine > rec.endLine {
		return packedRecord{}, kerrors.New(kerrors.Corrupt, "symbol record start_line > end_line", "", "", nil).WithOperation(op)
	}
	return rec, nil
}

func sliceString(table []byte, off uint32, n uint16, op string) (string, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(table)) {
		return "", kerrors.New(kerrors.Corrupt, "symbol record string offset out of range", "", "", nil).WithOperation(op)
	}
	return string(table[off:end]), nil
}
