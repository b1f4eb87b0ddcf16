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

package graph

import (
	"sync"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Relation is the closed set of edge kinds (§3).
type Relation uint8

const (
	RelationCalls Relation = iota
	RelationImports
	RelationExtends
	RelationImplements
	RelationContains
	RelationReferences
)

func (r Relation) String() string {
	switch r {
	case RelationCalls:
		return "calls"
	case RelationImports:
		return "imports"
	case RelationExtends:
		return "extends"
	case RelationImplements:
		return "implements"
	case RelationContains:
		return "contains"
	case RelationReferences:
		return "references"
	default:
		return "unknown"
	}
}

func validRelation(r Relation) bool { return r <= RelationReferences }

// Node is a graph vertex (§3): a symbol with enough denormalized
// metadata to answer queries without round-tripping to pkg/symbols.
type Node struct {
	ID            primitives.SymbolID
	Kind          string // free-form kind tag, e.g. "function", "struct"
	QualifiedName string
	File          primitives.Path
	StartLine     uint32
	EndLine       uint32
}

// Edge is a directed relationship between two nodes (§3).
type Edge struct {
	From     primitives.SymbolID
	To       primitives.SymbolID
	Relation Relation
	Metadata map[string]string
}

// edgeKey identifies an edge for the "at most one edge per (from, to,
// relation)" multigraph invariant (§3).
type edgeKey struct {
	from, to primitives.SymbolID
	relation Relation
}

// Graph is a directed multigraph over symbols with binary
// serialization and subgraph/path queries (§4.8).
type Graph struct {
	mu sync.RWMutex

	nodes map[primitives.SymbolID]Node
	// out/in index edges by endpoint for O(degree) traversal; edges
	// itself is the canonical store, keyed for the uniqueness
	// invariant and iterated in insertion order via edgeOrder.
	edges     map[edgeKey]Edge
	edgeOrder []edgeKey
	out       map[primitives.SymbolID][]edgeKey
	in        map[primitives.SymbolID][]edgeKey
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[primitives.SymbolID]Node),
		edges: make(map[edgeKey]Edge),
		out:   make(map[primitives.SymbolID][]edgeKey),
		in:    make(map[primitives.SymbolID][]edgeKey),
	}
}

// StoreNode inserts or replaces a node.
func (g *Graph) StoreNode(node Node) error {
	if node.ID.IsZero() {
		return kerrors.New(kerrors.ValidationFailed,
			"graph node id cannot be the zero id", "", "", nil).WithOperation("graph.StoreNode")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[node.ID] = node
	return nil
}

// GetNode returns the node for id, if present.
func (g *Graph) GetNode(id primitives.SymbolID) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// BatchInsertNodes inserts many nodes under a single write lock.
func (g *Graph) BatchInsertNodes(nodes []Node) error {
	for _, n := range nodes {
		if n.ID.IsZero() {
			return kerrors.New(kerrors.ValidationFailed,
				"graph node id cannot be the zero id", "", "", nil).WithOperation("graph.BatchInsertNodes")
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	return nil
}

// DeleteNode removes a node and every edge touching it. An id that
// only appears as an edge endpoint still counts as present: its edges
// are removed and DeleteNode returns true.
func (g *Graph) DeleteNode(id primitives.SymbolID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[id]
	if !ok && len(g.out[id]) == 0 && len(g.in[id]) == 0 {
		return false
	}
	delete(g.nodes, id)
	for _, key := range append([]edgeKey(nil), g.out[id]...) {
		g.removeEdgeLocked(key)
	}
	for _, key := range append([]edgeKey(nil), g.in[id]...) {
		g.removeEdgeLocked(key)
	}
	return true
}

// GetNodesByType returns every node id whose Kind matches kind, in
// insertion order is not guaranteed since nodes is a map; callers
// needing a stable order should sort the result.
func (g *Graph) GetNodesByType(kind string) []primitives.SymbolID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []primitives.SymbolID
	for id, n := range g.nodes {
		if n.Kind == kind {
			out = append(out, id)
		}
	}
	return out
}

// StoreEdge inserts or replaces an edge. A self-loop is rejected
// unless relation is References (§3 invariant).
func (g *Graph) StoreEdge(e Edge) error {
	const op = "graph.StoreEdge"
	if e.From.IsZero() || e.To.IsZero() {
		return kerrors.New(kerrors.ValidationFailed, "edge endpoints cannot be the zero id", "", "", nil).WithOperation(op)
	}
	if !validRelation(e.Relation) {
		return kerrors.New(kerrors.ValidationFailed, "edge relation is not a recognized value", "", "", nil).WithOperation(op)
	}
	if e.From == e.To && e.Relation != RelationReferences {
		return kerrors.New(kerrors.ValidationFailed,
			"self-loops are only allowed for the References relation", "", "", nil).WithOperation(op)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.storeEdgeLocked(e)
	return nil
}

func (g *Graph) storeEdgeLocked(e Edge) {
	key := edgeKey{from: e.From, to: e.To, relation: e.Relation}
	if _, exists := g.edges[key]; !exists {
		g.edgeOrder = append(g.edgeOrder, key)
		g.out[e.From] = append(g.out[e.From], key)
		g.in[e.To] = append(g.in[e.To], key)
	}
	g.edges[key] = e
}

func (g *Graph) removeEdgeLocked(key edgeKey) {
	if _, ok := g.edges[key]; !ok {
		return
	}
	delete(g.edges, key)
	g.out[key.from] = removeKey(g.out[key.from], key)
	g.in[key.to] = removeKey(g.in[key.to], key)
	g.edgeOrder = removeKey(g.edgeOrder, key)
}

func removeKey(keys []edgeKey, target edgeKey) []edgeKey {
	out := keys[:0]
	for _, k := range keys {
		if k != target {
			out = append(out, k)
		}
	}
	return out
}

// BatchInsertEdges inserts many edges under a single write lock.
func (g *Graph) BatchInsertEdges(edges []Edge) error {
	for _, e := range edges {
		if e.From.IsZero() || e.To.IsZero() {
			return kerrors.New(kerrors.ValidationFailed, "edge endpoints cannot be the zero id", "", "", nil).WithOperation("graph.BatchInsertEdges")
		}
		if !validRelation(e.Relation) {
			return kerrors.New(kerrors.ValidationFailed, "edge relation is not a recognized value", "", "", nil).WithOperation("graph.BatchInsertEdges")
		}
		if e.From == e.To && e.Relation != RelationReferences {
			return kerrors.New(kerrors.ValidationFailed,
				"self-loops are only allowed for the References relation", "", "", nil).WithOperation("graph.BatchInsertEdges")
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range edges {
		g.storeEdgeLocked(e)
	}
	return nil
}

// RemoveEdge deletes the edge matching (from, to, relation), returning
// whether one was present.
func (g *Graph) RemoveEdge(from, to primitives.SymbolID, relation Relation) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := edgeKey{from: from, to: to, relation: relation}
	if _, ok := g.edges[key]; !ok {
		return false
	}
	g.removeEdgeLocked(key)
	return true
}

// Direction selects which endpoint GetEdges walks from.
type Direction uint8

const (
	DirectionOut Direction = iota
	DirectionIn
)

// EdgeView pairs an edge's other endpoint with the edge itself (§4.8:
// "get_edges(node, direction) -> Sequence<(other, edge)>").
type EdgeView struct {
	Other primitives.SymbolID
	Edge  Edge
}

// GetEdges returns every edge touching node in the given direction.
func (g *Graph) GetEdges(node primitives.SymbolID, dir Direction) []EdgeView {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var keys []edgeKey
	if dir == DirectionOut {
		keys = g.out[node]
	} else {
		keys = g.in[node]
	}
	out := make([]EdgeView, 0, len(keys))
	for _, key := range keys {
		e := g.edges[key]
		other := e.To
		if dir == DirectionIn {
			other = e.From
		}
		out = append(out, EdgeView{Other: other, Edge: e})
	}
	return out
}
