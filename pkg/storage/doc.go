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

// Package storage provides the page-cached, WAL-backed document store
// that sits under KotaDB's primary and trigram indices.
//
// # On-disk layout
//
// A database directory looks like:
//
//	documents/<id>.md    content bytes
//	documents/<id>.json  metadata sidecar (id, path, size, timestamps, content hash)
//	wal/current.wal      append-only intent log
//	meta/                reserved for future use
//
// # Crash recovery
//
// Opening a FileStore replays wal/current.wal forward. The first record
// whose length or CRC32 check fails truncates the WAL to the last good
// record boundary and recovery stops there — later records are
// discarded rather than applied out of order. An insert/update record
// whose content file or sidecar is missing, or whose content hash does
// not match the WAL payload, is skipped and replay continues.
//
// # Concurrency
//
// FileStore does not serialize its own callers, and none of the
// pkg/wrapper layers takes a lock either. A FileStore shared across
// goroutines is not synchronized by this package or by the wrapper
// stack.
package storage
