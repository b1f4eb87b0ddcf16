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

// Package observability centralizes the structured logging and
// Prometheus metrics every component wires through (C12). Metrics are
// registered exactly once behind a sync.Once, matching the
// pkg/ingestion/metrics.go pattern; logging uses log/slog with dotted
// event names ("storage.insert.start") as the first argument and
// key/value pairs after, matching pkg/ingestion/local_pipeline.go.
package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector KotaDB registers.
type Metrics struct {
	once sync.Once

	StorageInserts   prometheus.Counter
	StorageUpdates   prometheus.Counter
	StorageDeletes   prometheus.Counter
	StorageGets      prometheus.Counter
	StorageErrors    *prometheus.CounterVec
	StorageOpLatency *prometheus.HistogramVec

	PrimaryIndexInserts prometheus.Counter
	PrimaryIndexLookups prometheus.Counter
	PrimaryBulkLoads    prometheus.Counter
	PrimaryBulkItems    prometheus.Counter

	TrigramInserts     prometheus.Counter
	TrigramQueries     prometheus.Counter
	TrigramPostingSize prometheus.Histogram

	SymbolsInserts prometheus.Counter
	SymbolsLookups prometheus.Counter

	GraphEdgesAdded prometheus.Counter
	GraphBFSQueries prometheus.Counter

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	RetryAttempts *prometheus.CounterVec

	IngestionFilesProcessed prometheus.Counter
	IngestionDuration       prometheus.Histogram

	QueryLatency *prometheus.HistogramVec
}

var (
	defaultMetrics     Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide Metrics instance, registering its
// collectors with the default Prometheus registry on first use.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics.init()
	})
	return &defaultMetrics
}

func (m *Metrics) init() {
	m.once.Do(func() {
		opLatencyBuckets := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

		m.StorageInserts = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_storage_inserts_total", Help: "Documents inserted into storage"})
		m.StorageUpdates = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_storage_updates_total", Help: "Documents updated in storage"})
		m.StorageDeletes = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_storage_deletes_total", Help: "Documents deleted from storage"})
		m.StorageGets = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_storage_gets_total", Help: "Documents read from storage"})
		m.StorageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "kotadb_storage_errors_total", Help: "Storage operation errors by kind"}, []string{"kind"})
		m.StorageOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "kotadb_storage_op_seconds", Help: "Storage operation latency", Buckets: opLatencyBuckets}, []string{"op"})

		m.PrimaryIndexInserts = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_primary_index_inserts_total", Help: "Primary index inserts"})
		m.PrimaryIndexLookups = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_primary_index_lookups_total", Help: "Primary index lookups"})
		m.PrimaryBulkLoads = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_primary_bulk_loads_total", Help: "Primary index bulk_insert calls"})
		m.PrimaryBulkItems = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_primary_bulk_items_total", Help: "Items loaded via bulk_insert"})

		m.TrigramInserts = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_trigram_inserts_total", Help: "Trigram index document inserts"})
		m.TrigramQueries = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_trigram_queries_total", Help: "Trigram index search queries"})
		m.TrigramPostingSize = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kotadb_trigram_posting_size", Help: "Posting list length observed at query time", Buckets: prometheus.ExponentialBuckets(1, 4, 10)})

		m.SymbolsInserts = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_symbols_inserts_total", Help: "Symbols inserted into the symbol store"})
		m.SymbolsLookups = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_symbols_lookups_total", Help: "Symbol store lookups"})

		m.GraphEdgesAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_graph_edges_added_total", Help: "Relationship edges added"})
		m.GraphBFSQueries = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_graph_bfs_queries_total", Help: "Graph BFS/k-shortest-path queries"})

		m.CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "kotadb_cache_hits_total", Help: "Cache hits by component"}, []string{"component"})
		m.CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "kotadb_cache_misses_total", Help: "Cache misses by component"}, []string{"component"})

		m.RetryAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "kotadb_retry_attempts_total", Help: "Retry attempts by component"}, []string{"component"})

		m.IngestionFilesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ingestion_files_processed_total", Help: "Files processed during ingestion"})
		m.IngestionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kotadb_ingestion_duration_seconds", Help: "Ingestion run duration", Buckets: prometheus.DefBuckets})

		m.QueryLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "kotadb_query_latency_seconds", Help: "End-to-end query latency by route", Buckets: opLatencyBuckets}, []string{"route"})

		prometheus.MustRegister(
			m.StorageInserts, m.StorageUpdates, m.StorageDeletes, m.StorageGets, m.StorageErrors, m.StorageOpLatency,
			m.PrimaryIndexInserts, m.PrimaryIndexLookups, m.PrimaryBulkLoads, m.PrimaryBulkItems,
			m.TrigramInserts, m.TrigramQueries, m.TrigramPostingSize,
			m.SymbolsInserts, m.SymbolsLookups,
			m.GraphEdgesAdded, m.GraphBFSQueries,
			m.CacheHits, m.CacheMisses,
			m.RetryAttempts,
			m.IngestionFilesProcessed, m.IngestionDuration,
			m.QueryLatency,
		)
	})
}

// ObserveStorageOp records op's latency and increments the error
// counter for the given kind when err is non-nil ("" for no error).
func (m *Metrics) ObserveStorageOp(op string, start time.Time, errKind string) {
	m.StorageOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if errKind != "" {
		m.StorageErrors.WithLabelValues(errKind).Inc()
	}
}
