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
	"os"

	"github.com/kraklabs/kotadb/internal/ui"
)

// runReset executes the 'reset' CLI command, deleting all local data
// for a project. Destructive: requires --yes.
func runReset(args []string, configPath string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb reset [options]

Resets the local project data, clearing all indexed data.
This is useful before a full re-index to ensure a clean slate.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		ui.Error("you must pass --yes to confirm the reset")
		fmt.Fprintln(os.Stderr, "This will delete all indexed data for the project.")
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		ui.Errorf("cannot get current directory: %v", err)
		os.Exit(1)
	}
	cfgPath := resolveConfigPath(cwd, configPath)
	pid, err := readProjectID(cfgPath)
	if err != nil {
		ui.Errorf("no project found: %v", err)
		os.Exit(1)
	}

	dataDir := projectDataDir(pid)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Printf("No local data found for project %s\n", pid)
		return
	}

	fmt.Printf("Resetting project %s (deleting %s)...\n", pid, dataDir)

	if err := os.RemoveAll(dataDir); err != nil {
		ui.Errorf("failed to delete data: %v", err)
		os.Exit(1)
	}

	ui.Success("Reset complete. All local indexed data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  kotadb index --full    Reindex the project")
}
