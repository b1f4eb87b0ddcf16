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
	"sort"

	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Subgraph is the result of a bounded-depth BFS (§4.8).
type Subgraph struct {
	Nodes []Node
	Edges []Edge
}

// Subgraph returns the induced subgraph reachable from roots within
// max_depth hops, walking outgoing edges. Cycles are enumerated once:
// a node already visited is never re-expanded.
func (g *Graph) Subgraph(roots []primitives.SymbolID, maxDepth int) Subgraph {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[primitives.SymbolID]bool)
	type frontierEntry struct {
		id    primitives.SymbolID
		depth int
	}
	var queue []frontierEntry
	for _, r := range roots {
		if !visited[r] {
			visited[r] = true
			queue = append(queue, frontierEntry{id: r, depth: 0})
		}
	}

	var nodes []Node
	var edges []Edge
	seenEdge := make(map[edgeKey]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if n, ok := g.nodes[cur.id]; ok {
			nodes = append(nodes, n)
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, key := range g.out[cur.id] {
			e := g.edges[key]
			if !seenEdge[key] {
				seenEdge[key] = true
				edges = append(edges, e)
			}
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, frontierEntry{id: e.To, depth: cur.depth + 1})
			}
		}
	}
	return Subgraph{Nodes: nodes, Edges: edges}
}

// Path is one route from a FindPaths query.
type Path struct {
	Nodes []primitives.SymbolID
	Edges []Edge
}

// FindPaths returns up to maxPaths shortest (by edge count) simple
// paths from `from` to `to`. Only paths of the minimum length are
// returned; longer paths are not enumerated, even when fewer than
// maxPaths shortest paths exist. Ties at the same length are broken
// deterministically by lexical order of successive (from, to) node
// ids along the path (§4.8).
func (g *Graph) FindPaths(from, to primitives.SymbolID, maxPaths int) []Path {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if from == to {
		return nil
	}

	// First find the shortest distance via BFS, then enumerate simple
	// paths of exactly that length via bounded DFS, stopping once
	// maxPaths have been found.
	dist := map[primitives.SymbolID]int{from: 0}
	queue := []primitives.SymbolID{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, key := range g.out[cur] {
			e := g.edges[key]
			if _, seen := dist[e.To]; !seen {
				dist[e.To] = dist[cur] + 1
				queue = append(queue, e.To)
			}
		}
	}
	targetDist, reachable := dist[to]
	if !reachable {
		return nil
	}

	var found []Path
	var walk func(node primitives.SymbolID, visited map[primitives.SymbolID]bool, nodes []primitives.SymbolID, edges []Edge)
	walk = func(node primitives.SymbolID, visited map[primitives.SymbolID]bool, nodes []primitives.SymbolID, edges []Edge) {
		if len(found) >= maxPaths {
			return
		}
		if node == to {
			found = append(found, Path{
				Nodes: append([]primitives.SymbolID(nil), nodes...),
				Edges: append([]Edge(nil), edges...),
			})
			return
		}
		if len(edges) >= targetDist {
			return
		}
		keys := append([]edgeKey(nil), g.out[node]...)
		sort.Slice(keys, func(i, j int) bool { return edgeLess(keys[i], keys[j]) })
		for _, key := range keys {
			e := g.edges[key]
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			walk(e.To, visited, append(nodes, e.To), append(edges, e))
			delete(visited, e.To)
			if len(found) >= maxPaths {
				return
			}
		}
	}
	walk(from, map[primitives.SymbolID]bool{from: true}, []primitives.SymbolID{from}, nil)
	return found
}

func edgeLess(a, b edgeKey) bool {
	if a.from != b.from {
		return a.from.Less(b.from)
	}
	return a.to.Less(b.to)
}
