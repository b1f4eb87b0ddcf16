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

// Package query implements the C10 query router: it chooses between the
// primary and trigram indices by query shape (§4.10) and applies any
// tag/date-range filter at the document-metadata layer after id
// resolution.
package query

import (
	"context"
	"time"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/kraklabs/kotadb/pkg/primitives"
)

// Route names the backend a query was sent to, recorded as the
// QueryLatency histogram's label and returned to callers that need to
// assert routing determinism (§8 property 8).
type Route string

const (
	RoutePrimary Route = "primary"
	RouteTrigram Route = "trigram"
)

// DefaultWildcardToken is the search term that forces primary-index
// routing when no router.wildcard_token override is configured.
const DefaultWildcardToken = "*"

// Router selects between the primary and trigram indices by query shape
// and applies tag/date filtering after id resolution (§4.10).
type Router struct {
	Primary       contract.Index
	Trigram       contract.Index
	Storage       contract.Storage
	WildcardToken string
}

// New returns a Router using the default wildcard token "*".
func New(primary, trigram contract.Index, storage contract.Storage) *Router {
	return &Router{Primary: primary, Trigram: trigram, Storage: storage, WildcardToken: DefaultWildcardToken}
}

// Decide returns which backend q routes to, without executing the
// query. Routing is a pure function of q's shape (§8 property 8:
// "the same Query always routes to the same backend given the same
// routing config").
func (r *Router) Decide(q contract.Query) Route {
	token := r.WildcardToken
	if token == "" {
		token = DefaultWildcardToken
	}
	if len(q.SearchTerms) == 0 || q.SearchTerms[0] == token {
		return RoutePrimary
	}
	return RouteTrigram
}

// Route executes q against the chosen backend, then applies any
// tags/date_range filter against document metadata (§4.10).
func (r *Router) Route(ctx context.Context, q contract.Query) ([]primitives.DocID, error) {
	start := time.Now()
	route := r.Decide(q)

	var (
		ids []primitives.DocID
		err error
	)
	switch route {
	case RoutePrimary:
		ids, err = r.Primary.Search(ctx, q)
	default:
		ids, err = r.Trigram.Search(ctx, q)
	}
	observability.Default().QueryLatency.WithLabelValues(string(route)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if len(q.Tags) == 0 && q.DateRange == nil {
		return ids, nil
	}
	return r.filterByMetadata(ctx, ids, q)
}

func (r *Router) filterByMetadata(ctx context.Context, ids []primitives.DocID, q contract.Query) ([]primitives.DocID, error) {
	filtered := make([]primitives.DocID, 0, len(ids))
	for _, id := range ids {
		doc, ok, err := r.Storage.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if len(q.Tags) > 0 && !hasAllTags(doc.Tags, q.Tags) {
			continue
		}
		if q.DateRange != nil && (doc.CreatedAt < q.DateRange.From || doc.CreatedAt > q.DateRange.To) {
			continue
		}
		filtered = append(filtered, id)
	}
	return filtered, nil
}

func hasAllTags(have []primitives.Tag, want []primitives.Tag) bool {
	present := make(map[string]bool, len(have))
	for _, t := range have {
		present[t.String()] = true
	}
	for _, t := range want {
		if !present[t.String()] {
			return false
		}
	}
	return true
}
