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
	"math/big"
)

// putBigVarint appends n (must be >= 0) to buf as a base-128
// continuation-byte varint, the same scheme encoding/binary.PutUvarint
// uses but over an arbitrary-precision big.Int so 128-bit DocId deltas
// never overflow a uint64 varint.
func putBigVarint(buf *bytes.Buffer, n *big.Int) {
	if n.Sign() == 0 {
		buf.WriteByte(0)
		return
	}
	v := new(big.Int).Set(n)
	mask := big.NewInt(0x7f)
	for v.Sign() != 0 {
		chunk := new(big.Int).And(v, mask)
		v.Rsh(v, 7)
		b := byte(chunk.Uint64())
		if v.Sign() != 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
	}
}

// readBigVarint reads a value written by putBigVarint.
func readBigVarint(r *bytes.Reader) (*big.Int, error) {
	result := new(big.Int)
	shift := uint(0)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		chunk := big.NewInt(int64(b & 0x7f))
		chunk.Lsh(chunk, shift)
		result.Or(result, chunk)
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, nil
}
