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

package optimized

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kraklabs/kotadb/pkg/contract"
)

// canonicalKey renders q into a deterministic string independent of
// slice ordering, so two Query values naming the same logical search
// collide in the cache regardless of the order the caller built them
// in (spec.md §4.6: "keyed by the canonicalized query").
func canonicalKey(q contract.Query) string {
	terms := append([]string(nil), q.SearchTerms...)
	sort.Strings(terms)

	tags := make([]string, len(q.Tags))
	for i, t := range q.Tags {
		tags[i] = t.String()
	}
	sort.Strings(tags)

	var b strings.Builder
	b.WriteString("terms=")
	b.WriteString(strings.Join(terms, ","))
	b.WriteString("|tags=")
	b.WriteString(strings.Join(tags, ","))
	b.WriteString("|limit=")
	fmt.Fprintf(&b, "%d", q.Limit)
	if q.DateRange != nil {
		fmt.Fprintf(&b, "|date=%d-%d", q.DateRange.From, q.DateRange.To)
	}
	if q.ExactID != nil {
		b.WriteString("|exact=")
		b.WriteString(q.ExactID.String())
	}
	if q.RangeFrom != nil && q.RangeTo != nil {
		fmt.Fprintf(&b, "|range=%s-%s", q.RangeFrom.String(), q.RangeTo.String())
	}
	return b.String()
}
