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

// Package btree implements the persistent B+ tree primary index (C3):
// DocId-ordered keys, big-endian comparison, page-per-node persistence
// under a database directory, and a dedicated bulk-load path that
// packs leaves bottom-up instead of inserting one key at a time.
//
// Each node lives in its own page file named by a monotonically
// increasing page id; the root page id and next-page-id counter live
// in a manifest file updated by write-new-then-rename so a crash never
// leaves a half-written manifest observable to the next Open.
package btree
