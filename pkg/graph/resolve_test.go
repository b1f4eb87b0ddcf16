// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"
)

func TestResolveByName_PrefersExactFileMatch(t *testing.T) {
	g := New()
	deep := node(t, "vendor/pkg/util/handler.go", 1)
	deep.QualifiedName = "Handle"
	shallow := node(t, "handler.go", 1)
	shallow.QualifiedName = "Handle"
	must(t, g.StoreNode(deep))
	must(t, g.StoreNode(shallow))

	got := g.ResolveByName("Handle", "vendor/pkg/util/handler.go")
	if len(got) != 2 {
		t.Fatalf("ResolveByName = %d candidates, want 2", len(got))
	}
	if got[0].ID != deep.ID {
		t.Errorf("best candidate = %+v, want the exact file match %+v", got[0], deep)
	}
}

func TestResolveByName_PrefersFewerPathSegments(t *testing.T) {
	g := New()
	nested := node(t, "internal/pkg/util/handler.go", 1)
	nested.QualifiedName = "Handle"
	root := node(t, "handler.go", 1)
	root.QualifiedName = "Handle"
	must(t, g.StoreNode(nested))
	must(t, g.StoreNode(root))

	got := g.ResolveByName("Handle", "")
	if got[0].ID != root.ID {
		t.Errorf("best candidate = %+v, want the symbol nearer the repo root %+v", got[0], root)
	}
}

func TestResolveByName_TieBreaksOnFileThenStartLine(t *testing.T) {
	g := New()
	a := node(t, "a.go", 10)
	a.QualifiedName = "Handle"
	b := node(t, "a.go", 5)
	b.QualifiedName = "Handle"
	must(t, g.StoreNode(a))
	must(t, g.StoreNode(b))

	got := g.ResolveByName("Handle", "")
	if got[0].ID != b.ID {
		t.Errorf("best candidate = %+v, want the earlier start_line %+v", got[0], b)
	}
}

func TestResolveByName_NoMatchReturnsEmpty(t *testing.T) {
	g := New()
	must(t, g.StoreNode(node(t, "a.go", 1)))
	if got := g.ResolveByName("Nonexistent", ""); len(got) != 0 {
		t.Errorf("ResolveByName for unknown name = %v, want empty", got)
	}
}
