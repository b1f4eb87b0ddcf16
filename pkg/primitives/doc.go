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

// Package primitives defines the validated newtypes shared across KotaDB:
// DocID, SymbolID, Path, Title and Tag. Every public KotaDB operation
// accepts only these types, never raw strings or byte slices, so that
// invalid input is rejected once at construction time instead of being
// re-validated at every layer.
//
// Construction functions return an *errors.KotaError tagged
// ValidationFailed when their input violates the rule documented on the
// function. Primitives are immutable value types; they expose only read
// accessors and serialize as their underlying bytes/strings.
package primitives
