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

// Package symbols implements the C7 binary symbol store: a single
// file holding a header, a fixed-width packed record array, and a
// trailing interned string table (§3, §4.7, §6 "Binary symbol file").
//
// Records are appended in parse order during an ingestion run; the
// header is rewritten last via write-new-then-rename, the same atomic
// discipline pkg/storage's metadata sidecar and pkg/index/trigram's
// block file use. At Open, two in-memory indices are built for O(1)
// lookup: name -> []SymbolId and file -> []SymbolId.
package symbols
