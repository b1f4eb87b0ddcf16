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
	"os"
	"path/filepath"
	"time"

	"github.com/kraklabs/kotadb/internal/bootstrap"
	"github.com/kraklabs/kotadb/internal/output"
	"github.com/kraklabs/kotadb/internal/ui"
	"github.com/kraklabs/kotadb/pkg/graph"
)

// StatusResult represents the project status for JSON output.
type StatusResult struct {
	ProjectID string    `json:"project_id"`
	DataDir   string    `json:"data_dir"`
	Connected bool      `json:"connected"`
	Files     int       `json:"files"`
	Functions int       `json:"functions"`
	Types     int       `json:"types"`
	CallEdges int       `json:"call_edges"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, displaying project index statistics.
//
// Flags:
//   - --json: Output results as JSON (default: false)
//
// Examples:
//
//	kotadb status           Display formatted status
//	kotadb status --json    Output as JSON for programmatic use
func runStatus(args []string, configPath string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb status [options]

Shows local project status.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fail(&StatusResult{Timestamp: time.Now()}, err, *jsonOutput)
	}
	cfgPath := resolveConfigPath(cwd, configPath)
	pid, err := readProjectID(cfgPath)
	if err != nil {
		fail(&StatusResult{Timestamp: time.Now()}, err, *jsonOutput)
	}

	result := &StatusResult{ProjectID: pid, Timestamp: time.Now()}

	handle, err := bootstrap.OpenProject(bootstrap.ProjectConfig{ProjectID: pid}, nil)
	if err != nil {
		result.Connected = false
		result.Error = "Project not indexed yet. Run 'kotadb index' first."
		if *jsonOutput {
			_ = output.JSON(result)
		} else {
			fmt.Printf("Project '%s' not indexed yet.\n", pid)
			fmt.Println("Run 'kotadb index' to index the repository.")
		}
		return
	}
	defer func() { _ = handle.Close() }()

	result.Connected = true
	result.DataDir = projectDataDir(pid)

	ctx := context.Background()
	docs, err := handle.Storage.ListAll(ctx)
	if err == nil {
		result.Files = len(docs)
	}
	result.Functions = len(handle.Graph.GetNodesByType("function"))
	result.Types = len(handle.Graph.GetNodesByType("type"))
	result.CallEdges = countCallEdges(handle)

	if *jsonOutput {
		_ = output.JSON(result)
	} else {
		printLocalStatus(result)
	}
}

func countCallEdges(handle *bootstrap.ProjectHandle) int {
	total := 0
	for _, id := range handle.Graph.GetNodesByType("function") {
		for _, e := range handle.Graph.GetEdges(id, graph.DirectionOut) {
			if e.Relation.String() == "calls" {
				total++
			}
		}
	}
	return total
}

// projectDataDir reports the directory storing a project's data by
// re-deriving the default path; ProjectHandle does not expose it directly.
func projectDataDir(projectID string) string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".kotadb", "data", projectID)
}

func fail(result *StatusResult, err error, jsonOutput bool) {
	result.Error = err.Error()
	if jsonOutput {
		_ = output.JSON(result)
	} else {
		ui.Errorf("%v", err)
	}
	os.Exit(1)
}

// printLocalStatus prints the status result as formatted text to stdout.
func printLocalStatus(result *StatusResult) {
	ui.Header("KotaDB Project Status")
	fmt.Printf("%s %s\n", ui.Label("Project ID:"), result.ProjectID)
	fmt.Printf("%s %s\n", ui.Label("Data Dir:"), ui.DimText(result.DataDir))
	fmt.Println()

	ui.SubHeader("Entities:")
	fmt.Printf("  Files:         %s\n", ui.CountText(result.Files))
	fmt.Printf("  Functions:     %s\n", ui.CountText(result.Functions))
	fmt.Printf("  Types:         %s\n", ui.CountText(result.Types))
	fmt.Printf("  Call Edges:    %s\n", ui.CountText(result.CallEdges))

	if result.Error != "" {
		fmt.Println()
		ui.Warning(result.Error)
	}
}
