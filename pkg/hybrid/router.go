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

// Package hybrid implements the C11 hybrid storage router: it routes by
// document path prefix between document storage (C2) and the
// relationship graph (C8), memoizing prefix decisions in a small LRU
// cache (§4.11). This is the same read-through-cache shape as
// pkg/index/optimized, parameterized over string -> Backend instead of
// query -> result.
package hybrid

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Backend is which storage layer a path routes to.
type Backend uint8

const (
	BackendStorage Backend = iota
	BackendGraph
	BackendBoth
)

// Rule is one path-prefix routing rule, tested in order.
type Rule struct {
	Prefix  string
	Suffix  string // optional, e.g. ".md"; empty matches any suffix
	Backend Backend
}

// DefaultRules implements §4.11's routing table.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/symbols/", Suffix: ".md", Backend: BackendBoth},
		{Prefix: "/symbols/", Backend: BackendGraph},
		{Prefix: "/relationships/", Backend: BackendGraph},
		{Prefix: "/dependencies/", Backend: BackendGraph},
	}
}

const defaultCacheSize = 512

// Router decides, per document path, which backend(s) own it.
type Router struct {
	rules []Rule
	cache *lru.Cache[string, Backend]
}

// New returns a Router using DefaultRules. Pass custom rules with
// NewWithRules for tests or deployments that override the prefix table.
func New() *Router {
	return NewWithRules(DefaultRules())
}

// NewWithRules returns a Router using an explicit rule set.
func NewWithRules(rules []Rule) *Router {
	cache, _ := lru.New[string, Backend](defaultCacheSize)
	return &Router{rules: rules, cache: cache}
}

// Decide returns which backend(s) path routes to, memoizing the result.
// Rules are evaluated in order; the first match wins. A path matching no
// rule routes to document storage (§4.11 "everything else").
func (r *Router) Decide(path string) Backend {
	if b, ok := r.cache.Get(path); ok {
		return b
	}
	b := BackendStorage
	for _, rule := range r.rules {
		if !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		if rule.Suffix != "" && !strings.HasSuffix(path, rule.Suffix) {
			continue
		}
		b = rule.Backend
		break
	}
	r.cache.Add(path, b)
	return b
}

// SetRules replaces the rule set and invalidates the cache, since a
// rule-set change can change the decision for any already-cached path
// (§4.11: "the cache MUST be invalidated whenever the rule set
// changes").
func (r *Router) SetRules(rules []Rule) {
	r.rules = rules
	r.cache.Purge()
}
