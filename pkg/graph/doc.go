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

// Package graph implements the C8 relationship graph: a directed
// multigraph over symbols (§3, §4.8), persisted as a single binary
// blob (§6 "Graph blob"). It replaces the teacher's Datalog relations
// (cie_calls/cie_defines/cie_import in pkg/cozodb) with an explicit
// in-memory adjacency structure plus binary serialization, since this
// repository has no embedded Datalog engine to delegate graph queries
// to.
//
// All mutating operations are serialized by a single writer lock
// (Graph.mu); reads (GetNode, GetEdges, Subgraph, FindPaths) take the
// same RWMutex for reading and may proceed concurrently with each
// other.
package graph
