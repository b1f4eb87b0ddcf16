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

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// runServeMetrics executes the 'serve-metrics' CLI command, exposing the
// process's Prometheus metrics over HTTP until interrupted.
//
// Flags:
//   - --addr: HTTP listen address (default: ":9400")
//
// Examples:
//
//	kotadb serve-metrics
//	kotadb serve-metrics --addr :9090
func runServeMetrics(args []string, _ string) {
	fs := flag.NewFlagSet("serve-metrics", flag.ExitOnError)
	addr := fs.String("addr", ":9400", "HTTP listen address for Prometheus metrics")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb serve-metrics [options]

Serves Prometheus metrics at /metrics over HTTP until interrupted.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Touch Default() so the process's collectors are registered even if
	// no indexing or querying has happened yet in this process.
	observability.Default()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: *addr, Handler: mux}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("metrics.http.shutdown", "signal", sig.String())
		_ = srv.Close()
	}()

	logger.Info("metrics.http.start", "addr", *addr, "path", "/metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		kerrors.FatalError(kerrors.New(kerrors.IoFailed, "metrics server failed", err.Error(), "", err), false)
	}
}
