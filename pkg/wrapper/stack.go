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

package wrapper

import (
	"log/slog"

	"github.com/kraklabs/kotadb/pkg/contract"
)

// StackConfig configures a wrapper stack build.
type StackConfig struct {
	CacheSize int
	Retry     RetryConfig
	Logger    *slog.Logger
}

func (c StackConfig) cacheSize() int {
	if c.CacheSize > 0 {
		return c.CacheSize
	}
	return DefaultCacheSize
}

// StorageStack builds the fixed C5 composition around a base Storage:
//
//	Traced(Validated(Retryable(Cached(base))))
func StorageStack(base contract.Storage, cfg StackConfig) contract.Storage {
	cached := NewCachedStorage(base, cfg.cacheSize())
	retryable := NewRetryableStorage(cached, cfg.Retry)
	validated := NewValidatedStorage(retryable)
	return NewTracedStorage(validated, cfg.Logger)
}

// IndexStack builds the fixed C5 composition around a base Index:
//
//	Traced(Validated(Retryable(Cached(base))))
func IndexStack(base contract.Index, cfg StackConfig) contract.Index {
	cached := NewCachedIndex(base, cfg.cacheSize())
	retryable := NewRetryableIndex(cached, cfg.Retry)
	validated := NewValidatedIndex(retryable)
	return NewTracedIndex(validated, cfg.Logger)
}
