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
	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Kind is the closed enum of symbol kinds a parser can emit (§3).
type Kind uint8

const (
	KindFunction Kind = iota
	KindMethod
	KindStruct
	KindClass
	KindInterface
	KindEnum
	KindTrait
	KindField
	KindVariable
	KindModule
	KindMacro
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindMethod:
		return "method"
	case KindStruct:
		return "struct"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindField:
		return "field"
	case KindVariable:
		return "variable"
	case KindModule:
		return "module"
	case KindMacro:
		return "macro"
	default:
		return "unknown"
	}
}

func validKind(k Kind) bool { return k <= KindUnknown }

// Symbol is the in-memory view of one parsed code symbol (§3).
type Symbol struct {
	ID        primitives.SymbolID
	Kind      Kind
	Name      string
	File      primitives.Path
	StartLine uint32
	EndLine   uint32
	// Parent, when non-nil, is the id of the enclosing symbol (e.g. a
	// method's owning struct), resolved from parent_off at decode time.
	Parent *primitives.SymbolID
}

// packedRecord is the fixed-width on-disk representation of Symbol
// preceding string-table resolution (§3):
//
//	SymbolId(16B) | kind(u8) | name_off(u32) | name_len(u16) |
//	file_off(u32) | file_len(u16) | start_line(u32) | end_line(u32) |
//	parent_off(u32, 0=none)
const packedRecordSize = 16 + 1 + 4 + 2 + 4 + 2 + 4 + 4 + 4

type packedRecord struct {
	id        primitives.SymbolID
	kind      Kind
	nameOff   uint32
	nameLen   uint16
	fileOff   uint32
	fileLen   uint16
	startLine uint32
	endLine   uint32
	parentOff uint32
}

func validateSymbol(op string, s Symbol) error {
	if s.ID.IsZero() {
		return kerrors.New(kerrors.ValidationFailed,
			"symbol id cannot be the zero id", "", "generate the id with primitives.NewSymbolID", nil).WithOperation(op)
	}
	if !validKind(s.Kind) {
		return kerrors.New(kerrors.ValidationFailed,
			"symbol kind is not a recognized value", "", "use one of the symbols.Kind constants", nil).WithOperation(op)
	}
	if s.Name == "" {
		return kerrors.New(kerrors.ValidationFailed,
			"symbol name cannot be empty", "", "", nil).WithOperation(op)
	}
	if s.StartLine > s.EndLine {
		return kerrors.New(kerrors.ValidationFailed,
			"symbol start_line must be <= end_line", "", "", nil).WithOperation(op)
	}
	return nil
}
