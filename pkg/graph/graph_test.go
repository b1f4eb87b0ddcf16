// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kraklabs/kotadb/pkg/primitives"
)

func mustPath(t *testing.T, s string) primitives.Path {
	t.Helper()
	p, err := primitives.NewPath(s)
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	return p
}

func node(t *testing.T, file string, line uint32) Node {
	return Node{ID: primitives.NewSymbolID(), Kind: "function", QualifiedName: "f", File: mustPath(t, file), StartLine: line, EndLine: line + 5}
}

func TestGraph_StoreAndGetNode(t *testing.T) {
	g := New()
	n := node(t, "a.go", 1)
	if err := g.StoreNode(n); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}
	got, ok := g.GetNode(n.ID)
	if !ok || got.QualifiedName != "f" {
		t.Fatalf("GetNode = %+v, %v", got, ok)
	}
}

func TestGraph_StoreEdgeRejectsSelfLoopExceptReferences(t *testing.T) {
	g := New()
	id := primitives.NewSymbolID()
	if err := g.StoreEdge(Edge{From: id, To: id, Relation: RelationCalls}); err == nil {
		t.Fatal("expected error for self-loop with Calls relation")
	}
	if err := g.StoreEdge(Edge{From: id, To: id, Relation: RelationReferences}); err != nil {
		t.Fatalf("self-loop with References should be allowed: %v", err)
	}
}

func TestGraph_AtMostOneEdgePerFromToRelation(t *testing.T) {
	g := New()
	a, b := primitives.NewSymbolID(), primitives.NewSymbolID()
	if err := g.StoreEdge(Edge{From: a, To: b, Relation: RelationCalls}); err != nil {
		t.Fatalf("StoreEdge 1: %v", err)
	}
	if err := g.StoreEdge(Edge{From: a, To: b, Relation: RelationCalls, Metadata: map[string]string{"count": "2"}}); err != nil {
		t.Fatalf("StoreEdge 2: %v", err)
	}
	edges := g.GetEdges(a, DirectionOut)
	if len(edges) != 1 {
		t.Fatalf("GetEdges = %d edges, want exactly 1 (overwrite not duplicate)", len(edges))
	}
	if edges[0].Edge.Metadata["count"] != "2" {
		t.Errorf("second StoreEdge should overwrite metadata, got %+v", edges[0].Edge)
	}
}

func TestGraph_DeleteNodeRemovesTouchingEdges(t *testing.T) {
	g := New()
	a, b := primitives.NewSymbolID(), primitives.NewSymbolID()
	if err := g.StoreEdge(Edge{From: a, To: b, Relation: RelationCalls}); err != nil {
		t.Fatalf("StoreEdge: %v", err)
	}
	if !g.DeleteNode(a) {
		t.Fatal("DeleteNode returned false for a node never stored directly but referenced by an edge")
	}
	if len(g.GetEdges(b, DirectionIn)) != 0 {
		t.Error("expected edge to be removed when an endpoint node is deleted")
	}
}

func TestGraph_SubgraphBoundsByDepthAndDedupesCycles(t *testing.T) {
	g := New()
	a, b, c := primitives.NewSymbolID(), primitives.NewSymbolID(), primitives.NewSymbolID()
	must(t, g.StoreEdge(Edge{From: a, To: b, Relation: RelationCalls}))
	must(t, g.StoreEdge(Edge{From: b, To: c, Relation: RelationCalls}))
	must(t, g.StoreEdge(Edge{From: c, To: a, Relation: RelationCalls})) // cycle back to root

	sub := g.Subgraph([]primitives.SymbolID{a}, 1)
	if len(sub.Edges) != 1 {
		t.Fatalf("depth=1 subgraph has %d edges, want 1", len(sub.Edges))
	}

	sub2 := g.Subgraph([]primitives.SymbolID{a}, 5)
	if len(sub2.Edges) != 3 {
		t.Fatalf("depth=5 subgraph has %d edges, want 3 (cycle enumerated once)", len(sub2.Edges))
	}
}

func TestGraph_FindPathsReturnsShortestFirst(t *testing.T) {
	g := New()
	a, b, c, d := primitives.NewSymbolID(), primitives.NewSymbolID(), primitives.NewSymbolID(), primitives.NewSymbolID()
	must(t, g.StoreEdge(Edge{From: a, To: b, Relation: RelationCalls}))
	must(t, g.StoreEdge(Edge{From: b, To: d, Relation: RelationCalls}))
	must(t, g.StoreEdge(Edge{From: a, To: c, Relation: RelationCalls}))
	must(t, g.StoreEdge(Edge{From: c, To: d, Relation: RelationCalls}))

	paths := g.FindPaths(a, d, 10)
	if len(paths) != 2 {
		t.Fatalf("FindPaths = %d paths, want 2", len(paths))
	}
	for _, p := range paths {
		if len(p.Edges) != 2 {
			t.Errorf("path %+v has length %d, want 2 (shortest)", p.Nodes, len(p.Edges))
		}
	}
}

func TestGraph_FindPathsUnreachableReturnsEmpty(t *testing.T) {
	g := New()
	a, b := primitives.NewSymbolID(), primitives.NewSymbolID()
	if paths := g.FindPaths(a, b, 5); len(paths) != 0 {
		t.Errorf("FindPaths for unreachable nodes = %v, want empty", paths)
	}
}

func TestGraph_SaveAndOpenRoundTrip(t *testing.T) {
	g := New()
	n1 := node(t, "a.go", 1)
	n2 := node(t, "b.go", 10)
	must(t, g.StoreNode(n1))
	must(t, g.StoreNode(n2))
	must(t, g.StoreEdge(Edge{From: n1.ID, To: n2.ID, Relation: RelationImports, Metadata: map[string]string{"alias": "b"}}))

	path := filepath.Join(t.TempDir(), "graph.kota")
	if err := g.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, ok := reopened.GetNode(n1.ID)
	if !ok || got.File.String() != "a.go" {
		t.Fatalf("reopened node = %+v, %v", got, ok)
	}
	edges := reopened.GetEdges(n1.ID, DirectionOut)
	if len(edges) != 1 || edges[0].Edge.Metadata["alias"] != "b" {
		t.Fatalf("reopened edges = %+v", edges)
	}
}

func TestGraph_OpenMissingFileReturnsEmptyGraph(t *testing.T) {
	g, err := Open(filepath.Join(t.TempDir(), "missing.kota"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(g.nodes) != 0 {
		t.Errorf("expected empty graph, got %d nodes", len(g.nodes))
	}
}

func TestGraph_OpenRejectsUnknownVersion(t *testing.T) {
	g := New()
	must(t, g.StoreNode(node(t, "a.go", 1)))
	path := filepath.Join(t.TempDir(), "graph.kota")
	if err := g.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	buf := readAll(t, path)
	buf[4] = 0xFF // corrupt version byte
	writeAll(t, path, buf)

	if _, err := Open(path); err == nil {
		t.Fatal("expected error opening a graph blob with an unrecognized version")
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return buf
}

func writeAll(t *testing.T, path string, buf []byte) {
	t.Helper()
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
