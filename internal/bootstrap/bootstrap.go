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

// Package bootstrap creates and opens KotaDB projects: the on-disk
// directory holding one project's document storage, primary and
// trigram indices, symbol store, and relationship graph.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/kotadb/pkg/graph"
	"github.com/kraklabs/kotadb/pkg/index/btree"
	"github.com/kraklabs/kotadb/pkg/index/trigram"
	"github.com/kraklabs/kotadb/pkg/storage"
	"github.com/kraklabs/kotadb/pkg/symbols"
)

// ProjectConfig holds configuration for initializing or opening a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier.
	ProjectID string

	// DataDir is the directory under which project data lives.
	// Defaults to ~/.kotadb/data.
	DataDir string
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
}

// ProjectHandle bundles one project's open components. Callers are
// responsible for calling Close when done.
type ProjectHandle struct {
	Storage *storage.FileStore
	Primary *btree.Tree
	Trigram *trigram.Index
	Symbols *symbols.Store
	Graph   *graph.Graph

	dir string
}

// Close persists the symbol store and graph and closes document storage.
func (h *ProjectHandle) Close() error {
	var lastErr error
	if h.Symbols != nil {
		if err := h.Symbols.Save(filepath.Join(h.dir, "symbols.kota")); err != nil {
			lastErr = err
		}
	}
	if h.Graph != nil {
		if err := h.Graph.Save(filepath.Join(h.dir, "graph.kota")); err != nil {
			lastErr = err
		}
	}
	if h.Storage != nil {
		if err := h.Storage.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func defaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(homeDir, ".kotadb", "data"), nil
}

func resolveProjectDir(config ProjectConfig) (string, error) {
	dataDir := config.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = defaultDataDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dataDir, config.ProjectID), nil
}

// InitProject creates a new KotaDB project directory and opens its
// storage, indices, symbol store, and graph. This function is
// idempotent: calling it on an already-initialized project reopens it.
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	projectDir, err := resolveProjectDir(config)
	if err != nil {
		return nil, err
	}

	logger.Info("bootstrap.project.init.start", "project_id", config.ProjectID, "data_dir", projectDir)

	handle, err := openComponents(projectDir)
	if err != nil {
		return nil, fmt.Errorf("open project components: %w", err)
	}
	if err := handle.Close(); err != nil {
		return nil, fmt.Errorf("persist new project: %w", err)
	}

	logger.Info("bootstrap.project.init.success", "project_id", config.ProjectID, "data_dir", projectDir)

	return &ProjectInfo{ProjectID: config.ProjectID, DataDir: projectDir}, nil
}

// OpenProject opens an existing KotaDB project's components. The
// caller must call Close on the returned handle.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*ProjectHandle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	projectDir, err := resolveProjectDir(config)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(projectDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'kotadb init' first)", projectDir)
	}

	logger.Debug("bootstrap.project.open", "project_id", config.ProjectID, "data_dir", projectDir)

	return openComponents(projectDir)
}

func openComponents(projectDir string) (*ProjectHandle, error) {
	store, err := storage.Open(filepath.Join(projectDir, "storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	primary, err := btree.Open(filepath.Join(projectDir, "primary"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open primary index: %w", err)
	}
	tri, err := trigram.Open(filepath.Join(projectDir, "trigram"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open trigram index: %w", err)
	}
	symStore, err := symbols.Open(filepath.Join(projectDir, "symbols.kota"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open symbol store: %w", err)
	}
	g, err := graph.Open(filepath.Join(projectDir, "graph.kota"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open graph: %w", err)
	}

	return &ProjectHandle{Storage: store, Primary: primary, Trigram: tri, Symbols: symStore, Graph: g, dir: projectDir}, nil
}

// ListProjects returns the project IDs found in the default data directory.
func ListProjects() ([]string, error) {
	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	return projects, nil
}
