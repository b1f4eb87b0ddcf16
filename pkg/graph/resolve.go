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
	"strings"
)

// ResolveByName ranks every node whose QualifiedName equals name,
// resolving ambiguity (the same name defined in more than one file)
// deterministically:
//
//  1. an exact match against preferFile, if one was supplied;
//  2. fewest path segments in the defining file, preferring symbols
//     nearer the repository root;
//  3. lexical order of (file path, start line) as a final tie-break.
//
// The best candidate is returned first.
func (g *Graph) ResolveByName(name string, preferFile string) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var candidates []Node
	for _, n := range g.nodes {
		if n.QualifiedName == name {
			candidates = append(candidates, n)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if preferFile != "" {
			aMatch := a.File.String() == preferFile
			bMatch := b.File.String() == preferFile
			if aMatch != bMatch {
				return aMatch
			}
		}
		aSeg, bSeg := pathSegments(a.File.String()), pathSegments(b.File.String())
		if aSeg != bSeg {
			return aSeg < bSeg
		}
		if a.File.String() != b.File.String() {
			return a.File.String() < b.File.String()
		}
		return a.StartLine < b.StartLine
	})
	return candidates
}

func pathSegments(p string) int {
	if p == "" {
		return 0
	}
	return len(strings.Split(p, "/"))
}
