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
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

type opType uint8

const (
	opInsert     opType = 0x01
	opUpdate     opType = 0x02
	opDelete     opType = 0x03
	opCheckpoint opType = 0x04
)

// walRecord is one entry in wal/current.wal: len | crc32 | op_type | payload.
type walRecord struct {
	op      opType
	payload []byte
	endOff  int64 // byte offset in the WAL file immediately after this record
}

// walWriter appends records to a single append-only file handle, the
// one writer §4.2 describes ("WAL is a single append handle held by
// the writer").
type walWriter struct {
	f *os.File
}

func openWALWriter(dir string) (*walWriter, error) {
	path := filepath.Join(dir, "wal", "current.wal")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, kerrors.New(kerrors.IoFailed, "open wal for append", err.Error(),
			"check filesystem permissions on the database directory", err).WithOperation("storage.wal.open")
	}
	return &walWriter{f: f}, nil
}

// Append writes one record and returns once its bytes are handed to
// the OS; it does not fsync (see Sync).
func (w *walWriter) Append(op opType, payload []byte) error {
	body := make([]byte, 1+len(payload))
	body[0] = byte(op)
	copy(body[1:], payload)

	buf := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(body)))
	binary.LittleEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(body))
	copy(buf[8:], body)
	if _, err := w.f.Write(buf); err != nil {
		return kerrors.New(kerrors.IoFailed, "append wal record", err.Error(),
			"check available disk space", err).WithOperation("storage.wal.append")
	}
	return nil
}

func (w *walWriter) Sync() error {
	if err := w.f.Sync(); err != nil {
		return kerrors.New(kerrors.IoFailed, "fsync wal", err.Error(), "", err).WithOperation("storage.wal.sync")
	}
	return nil
}

func (w *walWriter) Close() error {
	return w.f.Close()
}

// readWAL reads every well-formed record from path in order. It stops
// at the first corrupt record (bad length, bad CRC, or truncated tail)
// rather than erroring, per §4.2's recovery semantics, and reports via
// truncateAt the byte offset recovery should keep; callers that reopen
// for writing truncate the WAL file to that offset so the corrupt tail
// is discarded rather than replayed again next time.
func readWAL(path string) (records []walRecord, truncateAt int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, kerrors.New(kerrors.IoFailed, "open wal for read", err.Error(), "", err).WithOperation("storage.wal.read")
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var offset int64
	for {
		header := make([]byte, 8)
		n, rerr := io.ReadFull(br, header)
		if rerr != nil || n < 8 {
			break
		}
		length := binary.LittleEndian.Uint32(header[0:4])
		wantCRC := binary.LittleEndian.Uint32(header[4:8])
		if length == 0 || length > 64<<20 {
			break
		}
		body := make([]byte, length)
		n, rerr = io.ReadFull(br, body)
		if rerr != nil || uint32(n) != length {
			break
		}
		if crc32.ChecksumIEEE(body) != wantCRC {
			break
		}
		offset += int64(8 + length)
		records = append(records, walRecord{op: opType(body[0]), payload: body[1:], endOff: offset})
	}
	return records, offset, nil
}

// truncateWAL truncates the WAL file at path to size bytes, discarding
// any trailing corrupt record detected by readWAL.
func truncateWAL(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return kerrors.New(kerrors.IoFailed, "truncate wal", err.Error(), "", err).WithOperation("storage.wal.truncate")
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		return kerrors.New(kerrors.IoFailed, "truncate wal", err.Error(), "", err).WithOperation("storage.wal.truncate")
	}
	return nil
}
