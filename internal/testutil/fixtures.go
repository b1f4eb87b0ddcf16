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

package testutil

import (
	"testing"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/graph"
	"github.com/kraklabs/kotadb/pkg/primitives"
	"github.com/kraklabs/kotadb/pkg/symbols"
)

// Document builds a valid fixture Document for path and content,
// deterministic except for its freshly generated DocID.
func Document(t *testing.T, path, content string) contract.Document {
	t.Helper()
	now := int64(1700000000000000000)
	return contract.Document{
		ID:        primitives.NewDocID(),
		Path:      mustPath(t, path),
		Title:     mustTitle(t, path),
		Content:   []byte(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Symbol builds a valid fixture Symbol for the given file and line
// range.
func Symbol(t *testing.T, kind symbols.Kind, name, file string, startLine, endLine uint32) symbols.Symbol {
	t.Helper()
	return symbols.Symbol{
		ID:        primitives.NewSymbolID(),
		Kind:      kind,
		Name:      name,
		File:      mustPath(t, file),
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// Node builds a valid fixture graph.Node for the given symbol id.
func Node(t *testing.T, id primitives.SymbolID, kind, qualifiedName, file string, startLine, endLine uint32) graph.Node {
	t.Helper()
	return graph.Node{
		ID:            id,
		Kind:          kind,
		QualifiedName: qualifiedName,
		File:          mustPath(t, file),
		StartLine:     startLine,
		EndLine:       endLine,
	}
}
