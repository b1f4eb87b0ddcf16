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
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/internal/ui"
	"github.com/kraklabs/kotadb/pkg/ingestion"
)

// runIndex executes the 'index' CLI command, parsing source files and
// writing the results into the project's storage, indices, symbol
// store, and relationship graph.
//
// Flags:
//   - --full: Force full reindex, ignoring the previous checkpoint (default: false)
//   - --debug: Enable debug logging (default: false)
//
// Examples:
//
//	kotadb index                  Incremental index (only changed files)
//	kotadb index --full           Force full reindex
func runIndex(args []string, configPath string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Force full reindex, ignoring the previous checkpoint")
	debug := fs.Bool("debug", false, "Enable debug logging")
	quiet := fs.Bool("q", false, "Disable progress output")
	noColor := fs.Bool("no-color", false, "Disable colored output")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb index [options]

Indexes the current repository using configuration from .kotadb/project.yaml.
Data is stored locally in ~/.kotadb/data/<project_id>/

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ui.InitColors(*noColor)

	cwd, err := os.Getwd()
	if err != nil {
		kerrors.FatalError(kerrors.New(kerrors.IoFailed, "cannot get current directory", err.Error(), "", err), false)
	}
	cfgPath := resolveConfigPath(cwd, configPath)
	pid, err := readProjectID(cfgPath)
	if err != nil {
		kerrors.FatalError(kerrors.New(kerrors.NotFound, "no project found", err.Error(), "run 'kotadb init' first", err), false)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	checkpointDir := filepath.Join(filepath.Dir(cfgPath), "checkpoints")
	if err := os.MkdirAll(checkpointDir, 0o750); err != nil {
		kerrors.FatalError(kerrors.New(kerrors.IoFailed, "cannot create checkpoint directory", err.Error(), "", err), false)
	}

	ingestCfg := ingestion.Config{
		ProjectID: pid,
		RepoSource: ingestion.RepoSource{
			Type:  "local_path",
			Value: cwd,
		},
		IngestionConfig: ingestion.DefaultConfig(),
	}
	ingestCfg.IngestionConfig.CheckpointPath = checkpointDir
	ingestCfg.IngestionConfig.ForceReindex = *full
	ingestCfg.IngestionConfig.UseGitDelta = !*full

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	progressCfg := NewProgressConfig(GlobalFlags{Quiet: *quiet, NoColor: *noColor})
	spinner := NewSpinner(progressCfg, "Indexing")
	if spinner != nil {
		defer func() { _ = spinner.Finish() }()
	}

	pipeline, err := ingestion.NewLocalPipeline(ingestCfg, logger)
	if err != nil {
		kerrors.FatalError(kerrors.New(kerrors.Internal, "cannot create ingestion pipeline", err.Error(), "", err), false)
	}
	defer func() { _ = pipeline.Close() }()

	logger.Info("indexing.starting", "project_id", pid, "repo_path", cwd, "full", *full)

	result, err := pipeline.Run(ctx)
	if err != nil {
		kerrors.FatalError(kerrors.New(kerrors.Internal, "indexing failed", err.Error(), "", err), false)
	}

	printIndexResult(result)
}

// printIndexResult prints the indexing result summary to stdout.
func printIndexResult(result *ingestion.IngestionResult) {
	fmt.Println()
	ui.Header("Indexing Complete")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), result.ProjectID)
	fmt.Printf("%s %s\n", ui.Label("Run ID:"), result.RunID)
	fmt.Printf("%s %s\n", ui.Label("Files Processed:"), ui.CountText(result.FilesProcessed))
	fmt.Printf("%s %s\n", ui.Label("Functions Extracted:"), ui.CountText(result.FunctionsExtracted))
	fmt.Printf("%s %s\n", ui.Label("Types Extracted:"), ui.CountText(result.TypesExtracted))
	fmt.Printf("%s %s\n", ui.Label("Defines Edges:"), ui.CountText(result.DefinesEdges))
	fmt.Printf("%s %s\n", ui.Label("Calls Edges:"), ui.CountText(result.CallsEdges))
	fmt.Printf("%s %s\n", ui.Label("Entities Written:"), ui.CountText(result.EntitiesWritten))

	if result.ParseErrors > 0 {
		ui.Warningf("Parse Errors: %d (%.2f%%)", result.ParseErrors, result.ParseErrorRate)
	}
	if result.CodeTextTruncated > 0 {
		fmt.Printf("%s %d\n", ui.Label("CodeText Truncated:"), result.CodeTextTruncated)
	}

	if len(result.TopSkipReasons) > 0 {
		fmt.Println()
		ui.SubHeader("Skipped Files:")
		for reason, count := range result.TopSkipReasons {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}

	fmt.Println()
	ui.SubHeader("Timings:")
	fmt.Printf("  Parse: %s\n", result.ParseDuration)
	fmt.Printf("  Write: %s\n", result.WriteDuration)
	fmt.Printf("  Total: %s\n", result.TotalDuration)
	fmt.Println()

	homeDir, _ := os.UserHomeDir()
	fmt.Printf("Data stored in: %s\n", ui.DimText(filepath.Join(homeDir, ".kotadb", "data", result.ProjectID)))
}
