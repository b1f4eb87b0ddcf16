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

// Package main implements the KotaDB CLI for indexing repositories and
// querying the resulting document/code-intelligence database.
//
// Usage:
//
//	kotadb init                       Create .kotadb/project.yaml configuration
//	kotadb index                      Index the current repository
//	kotadb status [--json]            Show project status
//	kotadb query [options]            Execute a structured query
//	kotadb reset --yes                Delete local project data
//	kotadb serve-metrics              Serve Prometheus metrics over HTTP
//	kotadb completion <shell>         Generate shell completion scripts
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	version = "dev"     // Version string (set via ldflags during build)
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .kotadb/project.yaml (default: ./.kotadb/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `KotaDB CLI

Usage:
  kotadb <command> [options]

Commands:
  init            Create .kotadb/project.yaml configuration
  index           Index the current repository
  status          Show project status
  query           Execute a structured query
  reset           Reset local project data (destructive!)
  serve-metrics   Serve Prometheus /metrics over HTTP
  completion      Generate shell completion scripts

Global Options:
  --config      Path to .kotadb/project.yaml
  --version     Show version and exit

Examples:
  kotadb init
  kotadb index
  kotadb index --full
  kotadb status --json
  kotadb query -terms foo,bar -limit 10
  kotadb reset --yes

Data Storage:
  Data is stored locally in ~/.kotadb/data/<project_id>/

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("kotadb version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "index":
		runIndex(cmdArgs, *configPath)
	case "status":
		runStatus(cmdArgs, *configPath)
	case "query":
		runQuery(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	case "serve-metrics":
		runServeMetrics(cmdArgs, *configPath)
	case "completion":
		runCompletion(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
