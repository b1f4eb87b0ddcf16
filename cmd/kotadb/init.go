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
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kraklabs/kotadb/internal/config"
	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"github.com/kraklabs/kotadb/internal/ui"
)

// runInit executes the 'init' CLI command, creating a .kotadb/project.yaml
// configuration file and recording the project's identifier.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --project-id: Project identifier (default: directory name)
//
// Examples:
//
//	kotadb init                 Interactive setup
//	kotadb init -y              Use all defaults
//	kotadb init --project-id mydb
func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var (
		force          = fs.Bool("force", false, "Overwrite existing configuration")
		nonInteractive = fs.Bool("y", false, "Non-interactive mode (use defaults)")
		projectID      = fs.String("project-id", "", "Project identifier (default: directory name)")
	)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kotadb init [options]

Creates .kotadb/project.yaml configuration file.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		kerrors.FatalError(kerrors.New(kerrors.IoFailed, "cannot get current directory", err.Error(), "", err), false)
	}

	cfgPath := resolveConfigPath(cwd, "")
	if _, err := os.Stat(cfgPath); err == nil && !*force {
		kerrors.FatalError(kerrors.New(kerrors.AlreadyExists,
			fmt.Sprintf("%s already exists", cfgPath), "", "use --force to overwrite", nil), false)
	}

	pid := *projectID
	if pid == "" {
		pid = defaultProjectID(cwd)
	}

	cfg := config.Default()
	reader := bufio.NewReader(os.Stdin)
	if !*nonInteractive {
		pid = runInteractiveConfig(reader, pid, cfg)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		kerrors.FatalError(err, false)
	}
	if err := writeProjectID(cfgPath, pid); err != nil {
		kerrors.FatalError(kerrors.New(kerrors.IoFailed, "cannot save project id", err.Error(), "", err), false)
	}
	ui.Successf("Created %s", cfgPath)
	addToGitignore(cwd)

	printInitNextSteps()
}

func runInteractiveConfig(reader *bufio.Reader, pid string, cfg *config.Config) string {
	ui.Header("KotaDB Project Configuration")
	fmt.Println()

	pid = prompt(reader, "Project ID", pid)

	maxDocs := prompt(reader, "Maximum documents", strconv.Itoa(cfg.MaxDocuments))
	if n, err := strconv.Atoi(maxDocs); err == nil && n > 0 {
		cfg.MaxDocuments = n
	}

	cacheSize := prompt(reader, "Cache size", strconv.Itoa(cfg.CacheSize))
	if n, err := strconv.Atoi(cacheSize); err == nil && n >= 0 {
		cfg.CacheSize = n
	}
	fmt.Println()

	return pid
}

func printInitNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .kotadb/project.yaml if needed")
	fmt.Println("  2. Run 'kotadb index' to index your repository")
	fmt.Println("  3. Run 'kotadb status' to verify indexing")
}

// prompt displays an interactive prompt and reads user input from stdin,
// returning defaultValue if the user presses Enter without typing anything.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .kotadb/ to the project's .gitignore file if present
// and not already listed. Silently does nothing if .gitignore is absent.
func addToGitignore(dir string) {
	gitignorePath := dir + string(os.PathSeparator) + ".gitignore"

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: path built from repo dir
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".kotadb/" || line == ".kotadb" || line == "/.kotadb/" || line == "/.kotadb" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: path built from repo dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# KotaDB configuration\n.kotadb/\n")
	ui.Info("Added .kotadb/ to .gitignore")
}
