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

// Package testutil provides shared test fixtures for KotaDB's storage,
// index, symbol, and graph packages. TempDB wires a temp-dir-backed
// stack the way the teacher's internal/testing.SetupTestBackend wires a
// CozoDB embedded backend for its own tests, down to the t.Cleanup
// registration.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/kraklabs/kotadb/pkg/graph"
	"github.com/kraklabs/kotadb/pkg/index/btree"
	"github.com/kraklabs/kotadb/pkg/index/trigram"
	"github.com/kraklabs/kotadb/pkg/primitives"
	"github.com/kraklabs/kotadb/pkg/storage"
	"github.com/kraklabs/kotadb/pkg/symbols"
)

// Harness wires one of each base component against a fresh temp
// directory, ready for integration tests that exercise more than one
// component at a time.
type Harness struct {
	Storage *storage.FileStore
	Primary *btree.Tree
	Trigram *trigram.Index
	Symbols *symbols.Store
	Graph   *graph.Graph

	dir string
}

// TempDB builds a Harness rooted at a fresh t.TempDir(), closing every
// open component on test cleanup.
func TempDB(t *testing.T) *Harness {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.Open(filepath.Join(dir, "storage"))
	if err != nil {
		t.Fatalf("testutil: open storage: %v", err)
	}
	primary, err := btree.Open(filepath.Join(dir, "primary"))
	if err != nil {
		t.Fatalf("testutil: open primary index: %v", err)
	}
	tri, err := trigram.Open(filepath.Join(dir, "trigram"))
	if err != nil {
		t.Fatalf("testutil: open trigram index: %v", err)
	}
	symStore, err := symbols.Open(filepath.Join(dir, "symbols.kota"))
	if err != nil {
		t.Fatalf("testutil: open symbol store: %v", err)
	}
	g, err := graph.Open(filepath.Join(dir, "graph.kota"))
	if err != nil {
		t.Fatalf("testutil: open graph: %v", err)
	}

	h := &Harness{Storage: store, Primary: primary, Trigram: tri, Symbols: symStore, Graph: g, dir: dir}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return h
}

// Dir returns the harness's root temp directory, for tests that need to
// reopen a component after a simulated restart.
func (h *Harness) Dir() string { return h.dir }

// mustPath panics-via-t.Fatalf on an invalid fixture path; fixture
// builders below call it since a bad literal path is a test bug, not a
// case under test.
func mustPath(t *testing.T, s string) primitives.Path {
	t.Helper()
	p, err := primitives.NewPath(s)
	if err != nil {
		t.Fatalf("testutil: invalid fixture path %q: %v", s, err)
	}
	return p
}

func mustTitle(t *testing.T, s string) primitives.Title {
	t.Helper()
	title, err := primitives.NewTitle(s)
	if err != nil {
		t.Fatalf("testutil: invalid fixture title %q: %v", s, err)
	}
	return title
}
