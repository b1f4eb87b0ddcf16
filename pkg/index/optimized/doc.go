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

// Package optimized implements the C6 adapter: a lightweight wrapper
// around any contract.Index that adds a bounded, canonicalized-query
// result cache and an insertion-order pending-mutation queue that
// coalesces into the wrapped index's bulk path (contract.BulkInserter)
// every N mutations or on an explicit Flush.
//
// Unlike pkg/wrapper's CachedIndex (which only caches exact-id lookups
// as part of the fixed C5 stack), Index here caches full query results
// keyed by a canonical string form of the query, matching spec.md
// §4.6's "bounded in-memory result cache keyed by the canonicalized
// query". A Search issued after Flush always observes every preceding
// queued mutation from the same Index value, since Flush drains the
// queue before returning.
package optimized
