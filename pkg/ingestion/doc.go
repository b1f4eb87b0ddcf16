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

// Package ingestion provides the code indexing pipeline for KotaDB.
//
// The ingestion package parses source code, extracts semantic
// information (functions, types, calls, imports), and writes the
// results into a project's document storage, primary and trigram
// indices, symbol store, and relationship graph.
//
// # Pipeline Overview
//
// The ingestion pipeline processes a repository in four stages:
//
//  1. Discovery: find source files via RepoLoader, honoring ExcludeGlobs
//     and MaxFileSizeBytes, or a git delta since the last indexed SHA
//  2. Parsing: TreeSitterParser extracts a precise AST for Go; every
//     other language falls through to the regex-based Parser
//  3. Resolution: CallResolver matches unresolved cross-package calls
//     against the global function index built from this run's files
//  4. Write: each file becomes a contract.Document plus a primary/trigram
//     index entry; each function/type becomes a symbol and graph node;
//     defines/calls/imports become graph edges
//
// # Quick Start
//
// Create and run a local indexing pipeline:
//
//	config := ingestion.Config{
//	    ProjectID: "my-project",
//	    RepoSource: ingestion.RepoSource{
//	        Type:  "local_path",
//	        Value: "/path/to/code",
//	    },
//	    IngestionConfig: ingestion.DefaultConfig(),
//	}
//
//	pipeline, err := ingestion.NewLocalPipeline(config, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pipeline.Close()
//
//	result, err := pipeline.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Indexed %d files, %d functions\n",
//	    result.FilesProcessed, result.FunctionsExtracted)
//
// # Key Components
//
// LocalPipeline is the main entry point for indexing. It opens (or
// reopens) a project's storage, primary/trigram index, symbol store,
// and graph under Config.DataDir/ProjectID, and orchestrates a run
// across all four stages.
//
// CallResolver handles import resolution and cross-file references:
//
//	resolver := ingestion.NewCallResolver()
//	resolver.BuildIndex(files, functions, imports, packageNames)
//	resolvedCalls := resolver.ResolveCalls(unresolvedCalls)
//
// DeltaDetector and FilterDelta detect and filter the files changed
// since a prior run via `git diff --name-status`, letting a reingest
// only touch what actually changed.
//
// RepoLoader loads code from git repositories or local paths:
//
//	repoLoader := ingestion.NewRepoLoader(logger)
//	result, err := repoLoader.LoadRepository(repoSource, excludeGlobs, maxFileSizeBytes)
//	defer repoLoader.Close() // cleans up temp clone directories
//
// # Configuration
//
// The pipeline is configured through Config and IngestionConfig:
//
//	config := ingestion.Config{
//	    ProjectID: "my-project",
//	    DataDir:   "~/.kotadb/data",
//	    RepoSource: ingestion.RepoSource{
//	        Type:  "local_path",
//	        Value: "/path/to/code",
//	    },
//	    IngestionConfig: ingestion.IngestionConfig{
//	        ParserMode:       "auto", // "treesitter", "simplified", "auto"
//	        MaxFileSizeBytes: 1024 * 1024,
//	        MaxCodeTextBytes: 100 * 1024,
//	        ExcludeGlobs:     []string{"node_modules/**", ".git/**", "vendor/**"},
//	        Concurrency:      ingestion.ConcurrencyConfig{ParseWorkers: 4},
//	        UseGitDelta:      true,
//	    },
//	}
//
// Use DefaultConfig() for sensible IngestionConfig defaults.
//
// # Incremental Updates
//
// When UseGitDelta is enabled and a project has a recorded
// LastIndexedSHA (see ProjectMetaStore), Run only re-parses files
// changed since that commit; the graph nodes, index entries, and stored
// documents of modified, renamed, or deleted files are swept first. The
// append-only symbol store keeps those files' earlier symbol records.
//
// # Metrics
//
// Prometheus metrics for delta counts, parse/write durations, and
// function add/modify/remove counts are defined in metrics.go. The
// pipeline itself only increments the stale-path sweep counter; the
// other metrics are not updated by Run.
package ingestion
