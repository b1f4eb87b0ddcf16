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

package ingestion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	// Delta
	deltaAdded    prometheus.Counter
	deltaModified prometheus.Counter
	deltaDeleted  prometheus.Counter
	deltaRenamed  prometheus.Counter

	// Delta (post-filter)
	deltaFilteredAdded    prometheus.Counter
	deltaFilteredModified prometheus.Counter
	deltaFilteredDeleted  prometheus.Counter
	deltaFilteredRenamed  prometheus.Counter

	// Functions/symbols
	funcsAdded    prometheus.Counter
	funcsModified prometheus.Counter
	funcsRemoved  prometheus.Counter

	// Defensive cleanups
	pathSweeps prometheus.Counter

	// Durations
	deltaDuration prometheus.Histogram
	parseDuration prometheus.Histogram
	writeDuration prometheus.Histogram
	totalDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.deltaAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_added_total", Help: "Files added, as detected by delta"})
		m.deltaModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_modified_total", Help: "Files modified, as detected by delta"})
		m.deltaDeleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_deleted_total", Help: "Files deleted, as detected by delta"})
		m.deltaRenamed = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_renamed_total", Help: "Renames detected by delta"})

		m.deltaFilteredAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_filtered_added_total", Help: "Files added after exclude-glob/size filtering"})
		m.deltaFilteredModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_filtered_modified_total", Help: "Files modified after exclude-glob/size filtering"})
		m.deltaFilteredDeleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_filtered_deleted_total", Help: "Files deleted after exclude-glob/size filtering"})
		m.deltaFilteredRenamed = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_delta_filtered_renamed_total", Help: "Renames after exclude-glob/size filtering"})

		m.funcsAdded = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_functions_added_total", Help: "Functions/methods added"})
		m.funcsModified = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_functions_modified_total", Help: "Functions/methods modified"})
		m.funcsRemoved = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_functions_removed_total", Help: "Functions/methods removed"})

		m.pathSweeps = prometheus.NewCounter(prometheus.CounterOpts{Name: "kotadb_ing_path_sweeps_total", Help: "Stale-symbol cleanups by file path on reingest"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.deltaDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kotadb_ing_delta_seconds", Help: "Delta detection duration", Buckets: buckets})
		m.parseDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kotadb_ing_parse_seconds", Help: "Parse duration", Buckets: buckets})
		m.writeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kotadb_ing_write_seconds", Help: "Storage/index write duration", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "kotadb_ing_total_seconds", Help: "Total run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.deltaAdded, m.deltaModified, m.deltaDeleted, m.deltaRenamed,
			m.deltaFilteredAdded, m.deltaFilteredModified, m.deltaFilteredDeleted, m.deltaFilteredRenamed,
			m.funcsAdded, m.funcsModified, m.funcsRemoved,
			m.pathSweeps,
			m.deltaDuration, m.parseDuration, m.writeDuration, m.totalDuration,
		)
	})
}

func recordPathSweep() { ingMetrics.init(); ingMetrics.pathSweeps.Inc() }
