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
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/kotadb/internal/config"
)

// projectIDFileName holds the project identifier next to project.yaml.
// Unlike project.yaml (spec.md §6 library config), the project ID is a
// CLI-only bootstrapping concern used to locate ~/.kotadb/data/<id>.
const projectIDFileName = "project_id"

// resolveConfigPath returns the effective project.yaml path: the
// explicit --config flag if set, otherwise cwd/.kotadb/project.yaml.
func resolveConfigPath(cwd, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(cwd, config.DefaultProjectPath)
}

func projectIDPath(cfgPath string) string {
	return filepath.Join(filepath.Dir(cfgPath), projectIDFileName)
}

// readProjectID loads the project ID recorded alongside cfgPath, falling
// back to the containing directory's base name for projects initialized
// before this file existed.
func readProjectID(cfgPath string) (string, error) {
	buf, err := os.ReadFile(projectIDPath(cfgPath))
	if err != nil {
		if os.IsNotExist(err) {
			return defaultProjectID(filepath.Dir(filepath.Dir(cfgPath))), nil
		}
		return "", err
	}
	return strings.TrimSpace(string(buf)), nil
}

func writeProjectID(cfgPath, id string) error {
	return os.WriteFile(projectIDPath(cfgPath), []byte(id+"\n"), 0o644)
}

func defaultProjectID(cwd string) string {
	base := filepath.Base(cwd)
	if base == "." || base == "/" || base == "" {
		return "kotadb-project"
	}
	return base
}
