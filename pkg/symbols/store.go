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
	"os"
	"path/filepath"
	"sync"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Store is the in-memory view of a symbols.kota file (§4.7, §6).
// A fresh ingestion run builds a Store with New, appends every parsed
// symbol with Append, and supersedes the on-disk file with Save; a
// reader opens the existing file with Open and queries it with
// Symbols/Lookup/ByName/ByFile.
type Store struct {
	mu sync.RWMutex

	path string

	symbols []Symbol
	byID    map[primitives.SymbolID]int // index into symbols
	byName  map[string][]primitives.SymbolID
	byFile  map[string][]primitives.SymbolID
}

// New creates an empty, unsaved Store.
func New() *Store {
	return &Store{
		byID:   make(map[primitives.SymbolID]int),
		byName: make(map[string][]primitives.SymbolID),
		byFile: make(map[string][]primitives.SymbolID),
	}
}

// Open reads path into a Store. A missing file yields an empty Store
// (matching a fresh project with no symbols extracted yet) rather than
// an error.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, kerrors.New(kerrors.IoFailed, "failed to read symbol store", err.Error(), "", err).WithOperation("symbols.Open")
	}
	symbols, err := decodeFile(buf)
	if err != nil {
		return nil, err
	}
	for _, sym := range symbols {
		s.index(sym)
	}
	return s, nil
}

func (s *Store) index(sym Symbol) {
	s.byID[sym.ID] = len(s.symbols)
	s.symbols = append(s.symbols, sym)
	s.byName[sym.Name] = append(s.byName[sym.Name], sym.ID)
	s.byFile[sym.File.String()] = append(s.byFile[sym.File.String()], sym.ID)
}

// Append validates and adds sym to the store. sym.Parent, if set, must
// already have been appended (§3: "parent_off points to an earlier
// record").
func (s *Store) Append(sym Symbol) error {
	const op = "symbols.Store.Append"
	if err := validateSymbol(op, sym); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[sym.ID]; exists {
		return kerrors.New(kerrors.AlreadyExists,
			"symbol already present in store", "", "", nil).WithOperation(op)
	}
	if sym.Parent != nil {
		if _, ok := s.byID[*sym.Parent]; !ok {
			return kerrors.New(kerrors.ValidationFailed,
				"symbol parent must reference an already-appended symbol", "", "", nil).WithOperation(op)
		}
	}
	s.index(sym)
	return nil
}

// Len returns the number of symbols currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.symbols)
}

// Symbols returns every symbol in append order.
func (s *Store) Symbols() []Symbol {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Symbol, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Lookup returns the symbol with the given id, and whether it exists.
func (s *Store) Lookup(id primitives.SymbolID) (Symbol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return Symbol{}, false
	}
	return s.symbols[idx], true
}

// PathOf returns the file path recorded for id, as required by
// §4.7's "lookup of file path by SymbolId".
func (s *Store) PathOf(id primitives.SymbolID) (primitives.Path, bool) {
	sym, ok := s.Lookup(id)
	if !ok {
		return primitives.Path{}, false
	}
	return sym.File, true
}

// ByName returns every symbol id recorded under the exact name.
func (s *Store) ByName(name string) []primitives.SymbolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]primitives.SymbolID(nil), s.byName[name]...)
}

// ByFile returns every symbol id recorded in the given file.
func (s *Store) ByFile(file primitives.Path) []primitives.SymbolID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]primitives.SymbolID(nil), s.byFile[file.String()]...)
}

// Save atomically (re)writes the store to path (or the path it was
// opened from, if path is ""), rewriting the header last via a
// scratch-file rename (§4.7).
func (s *Store) Save(path string) error {
	const op = "symbols.Store.Save"
	if path == "" {
		path = s.path
	}
	if path == "" {
		return kerrors.New(kerrors.Internal, "Save requires a path", "", "", nil).WithOperation(op)
	}
	s.mu.RLock()
	buf := encodeFile(s.symbols)
	s.mu.RUnlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return kerrors.New(kerrors.IoFailed, "failed to create symbol store directory", err.Error(), "", err).WithOperation(op)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return kerrors.New(kerrors.IoFailed, "failed to write symbol store scratch file", err.Error(), "", err).WithOperation(op)
	}
	if err := os.Rename(tmp, path); err != nil {
		return kerrors.New(kerrors.IoFailed, "failed to rename symbol store scratch file", err.Error(), "", err).WithOperation(op)
	}
	s.path = path
	return nil
}
