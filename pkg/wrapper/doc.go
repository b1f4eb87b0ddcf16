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

// Package wrapper composes contract.Storage and contract.Index
// implementations into the fixed stack (C5):
//
//	Traced( Validated( Retryable( Cached( Base ) ) ) )
//
// Each layer implements the same contract as the one it wraps and
// forwards every call to the inner layer, adding exactly one
// responsibility: Cached serves reads from an LRU without touching
// Base, Retryable retries transient failures with jittered exponential
// backoff (the same shape pkg/ingestion's embedding retry loop uses),
// Validated rejects malformed primitives before they reach storage,
// and Traced attaches a trace id and emits structured log lines around
// every call, plus Prometheus latency observations for storage calls.
//
// StorageStack and IndexStack build the full ordered composition;
// the individual constructors (NewCachedStorage, NewRetryableIndex, ...) are
// exported so callers that need a partial stack (tests, the query
// router's read-only paths) can compose a subset.
package wrapper
