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

package primitives

import (
	"bytes"
	"encoding/hex"

	"github.com/google/uuid"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
)

// idLen is the width of both DocID and SymbolID: 128 bits.
const idLen = 16

// DocID is a 128-bit opaque document identifier. The zero value (all
// zero bytes) is never a valid id.
type DocID [idLen]byte

// SymbolID is a 128-bit opaque identifier of a parsed code symbol. It
// shares DocID's representation and ordering rules but is kept as a
// distinct type so the two id spaces can never be confused at compile
// time.
type SymbolID [idLen]byte

var zeroID [idLen]byte

// NewDocID generates a fresh, random DocID. It never returns the zero id.
func NewDocID() DocID {
	return DocID(uuid.New())
}

// NewSymbolID generates a fresh, random SymbolID.
func NewSymbolID() SymbolID {
	return SymbolID(uuid.New())
}

// DocIDFromBytes constructs a DocID from exactly 16 bytes, rejecting the
// all-zero id.
func DocIDFromBytes(b []byte) (DocID, error) {
	var id DocID
	if len(b) != idLen {
		return id, kerrors.New(kerrors.ValidationFailed,
			"invalid document id length",
			"document ids must be exactly 16 bytes",
			"construct the id from a 16-byte value", nil).WithOperation("primitives.DocIDFromBytes")
	}
	copy(id[:], b)
	if bytes.Equal(id[:], zeroID[:]) {
		return DocID{}, kerrors.New(kerrors.ValidationFailed,
			"document id cannot be all zero",
			"the all-zero id is reserved to mean \"no id\"",
			"generate the id with NewDocID or a non-zero value", nil).WithOperation("primitives.DocIDFromBytes")
	}
	return id, nil
}

// SymbolIDFromBytes constructs a SymbolID from exactly 16 bytes,
// rejecting the all-zero id.
func SymbolIDFromBytes(b []byte) (SymbolID, error) {
	var id SymbolID
	if len(b) != idLen {
		return id, kerrors.New(kerrors.ValidationFailed,
			"invalid symbol id length",
			"symbol ids must be exactly 16 bytes",
			"construct the id from a 16-byte value", nil).WithOperation("primitives.SymbolIDFromBytes")
	}
	copy(id[:], b)
	if bytes.Equal(id[:], zeroID[:]) {
		return SymbolID{}, kerrors.New(kerrors.ValidationFailed,
			"symbol id cannot be all zero",
			"the all-zero id is reserved to mean \"no symbol\"",
			"generate the id with NewSymbolID or a non-zero value", nil).WithOperation("primitives.SymbolIDFromBytes")
	}
	return id, nil
}

// Bytes returns the 16 raw bytes of the id.
func (d DocID) Bytes() []byte { return d[:] }

// Bytes returns the 16 raw bytes of the id.
func (s SymbolID) Bytes() []byte { return s[:] }

// String renders the id as lowercase hex, matching the on-disk
// metadata JSON's "id" field encoding.
func (d DocID) String() string { return hex.EncodeToString(d[:]) }

// String renders the id as lowercase hex.
func (s SymbolID) String() string { return hex.EncodeToString(s[:]) }

// IsZero reports whether d is the reserved all-zero id.
func (d DocID) IsZero() bool { return d == DocID{} }

// IsZero reports whether s is the reserved all-zero id.
func (s SymbolID) IsZero() bool { return s == SymbolID{} }

// Compare orders two DocIDs by big-endian byte value, as required by
// the B+ tree primary index (§4.3: "DocId as big-endian 128-bit
// unsigned integer"). It returns -1, 0 or 1.
func (d DocID) Compare(other DocID) int {
	return bytes.Compare(d[:], other[:])
}

// Less reports whether d sorts strictly before other under Compare.
func (d DocID) Less(other DocID) bool {
	return d.Compare(other) < 0
}

// Compare orders two SymbolIDs by big-endian byte value.
func (s SymbolID) Compare(other SymbolID) int {
	return bytes.Compare(s[:], other[:])
}

// Less reports whether s sorts strictly before other under Compare.
func (s SymbolID) Less(other SymbolID) bool {
	return s.Compare(other) < 0
}
