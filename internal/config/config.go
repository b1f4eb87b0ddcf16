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

// Package config loads and validates kotadb.yaml, the project
// configuration recognized by both the library and the CLI (spec.md §6).
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	kerrors "github.com/kraklabs/kotadb/internal/errors"
	"gopkg.in/yaml.v3"
)

// DefaultProjectPath is where kotadb init writes project configuration,
// matching the teacher's .cie/project.yaml convention.
const DefaultProjectPath = ".kotadb/project.yaml"

// Ingest holds ingestion-specific options (spec.md §6 "ingest.*").
type Ingest struct {
	IncludePaths   []string `yaml:"include_paths"`
	ExcludePaths   []string `yaml:"exclude_paths"`
	MaxFileSizeMB  int      `yaml:"max_file_size_mb"`
	ExtractSymbols bool     `yaml:"extract_symbols"`
	MaxParallel    int      `yaml:"max_parallel_files"`
}

// Retry holds the Retryable wrapper's policy (spec.md §6 "retry.*").
type Retry struct {
	BaseMS      int `yaml:"base_ms"`
	Factor      int `yaml:"factor"`
	MaxAttempts int `yaml:"max_attempts"`
	CapMS       int `yaml:"cap_ms"`
}

// Timeout holds per-operation deadlines (spec.md §6 "timeout.*").
type Timeout struct {
	OperationMS int `yaml:"operation_ms"`
}

// Router holds the query router's configuration (spec.md §6 "router.*").
type Router struct {
	WildcardToken string `yaml:"wildcard_token"`
}

// Config is the full set of recognized options from spec.md §6.
type Config struct {
	CacheSize                 int     `yaml:"cache_size"`
	MaxDocuments              int     `yaml:"max_documents"`
	BtreeBranchingFactor      int     `yaml:"btree_branching_factor"`
	TrigramMaxPositionsPerDoc int     `yaml:"trigram_max_positions_per_doc"`
	Ingest                    Ingest  `yaml:"ingest"`
	Retry                     Retry   `yaml:"retry"`
	Timeout                   Timeout `yaml:"timeout"`
	Router                    Router  `yaml:"router"`
}

// Default returns the configuration with every spec.md §6 default applied.
func Default() *Config {
	return &Config{
		CacheSize:                 1000,
		MaxDocuments:              10000,
		BtreeBranchingFactor:      64,
		TrigramMaxPositionsPerDoc: 0, // 0 means unbounded, per spec's [∞] default
		Ingest: Ingest{
			MaxFileSizeMB:  10,
			ExtractSymbols: true,
			MaxParallel:    runtime.NumCPU(),
		},
		Retry: Retry{
			BaseMS:      10,
			Factor:      2,
			MaxAttempts: 3,
			CapMS:       1000,
		},
		Timeout: Timeout{OperationMS: 30000},
		Router:  Router{WildcardToken: "*"},
	}
}

// Load reads path (falling back to Default's values for anything the
// file doesn't set), applies KOTADB_* environment overrides, and
// validates the result. A missing file yields Default(), matching the
// teacher's LoadConfig behavior for a project with no .cie/project.yaml.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	cfg := Default()

	buf, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, kerrors.New(kerrors.IoFailed, "failed to read config file", err.Error(), "", err).WithOperation(op)
		}
	} else if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, kerrors.New(kerrors.ValidationFailed, "failed to parse config file", err.Error(),
			"check kotadb.yaml for syntax errors", err).WithOperation(op)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides mirrors the teacher's CIE_SOFT_LIMIT_BYTES pattern:
// a handful of hot-path numeric options can be overridden without
// touching the YAML file, for quick experimentation or CI tuning.
func applyEnvOverrides(cfg *Config) {
	if n, ok := envInt("KOTADB_CACHE_SIZE"); ok {
		cfg.CacheSize = n
	}
	if n, ok := envInt("KOTADB_MAX_DOCUMENTS"); ok {
		cfg.MaxDocuments = n
	}
	if n, ok := envInt("KOTADB_RETRY_MAX_ATTEMPTS"); ok {
		cfg.Retry.MaxAttempts = n
	}
	if n, ok := envInt("KOTADB_TIMEOUT_OPERATION_MS"); ok {
		cfg.Timeout.OperationMS = n
	}
	if v := os.Getenv("KOTADB_ROUTER_WILDCARD_TOKEN"); v != "" {
		cfg.Router.WildcardToken = v
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Validate rejects out-of-range configuration values.
func (c *Config) Validate() error {
	const op = "config.Validate"
	if c.CacheSize < 0 {
		return kerrors.New(kerrors.ValidationFailed, "cache_size cannot be negative", "", "set cache_size to 0 or greater", nil).WithOperation(op)
	}
	if c.MaxDocuments <= 0 {
		return kerrors.New(kerrors.ValidationFailed, "max_documents must be positive", "", "", nil).WithOperation(op)
	}
	if c.BtreeBranchingFactor < 3 {
		return kerrors.New(kerrors.ValidationFailed, "btree_branching_factor must be at least 3", "",
			"a B+ tree needs at least 3 children per internal node to stay balanced", nil).WithOperation(op)
	}
	if c.TrigramMaxPositionsPerDoc < 0 {
		return kerrors.New(kerrors.ValidationFailed, "trigram_max_positions_per_doc cannot be negative", "", "", nil).WithOperation(op)
	}
	if c.Ingest.MaxFileSizeMB <= 0 {
		return kerrors.New(kerrors.ValidationFailed, "ingest.max_file_size_mb must be positive", "", "", nil).WithOperation(op)
	}
	if c.Ingest.MaxParallel <= 0 {
		return kerrors.New(kerrors.ValidationFailed, "ingest.max_parallel_files must be positive", "", "", nil).WithOperation(op)
	}
	if c.Retry.MaxAttempts < 0 {
		return kerrors.New(kerrors.ValidationFailed, "retry.max_attempts cannot be negative", "", "", nil).WithOperation(op)
	}
	if c.Retry.Factor < 1 {
		return kerrors.New(kerrors.ValidationFailed, "retry.factor must be at least 1", "", "", nil).WithOperation(op)
	}
	if c.Retry.BaseMS <= 0 || c.Retry.CapMS <= 0 {
		return kerrors.New(kerrors.ValidationFailed, "retry.base_ms and retry.cap_ms must be positive", "", "", nil).WithOperation(op)
	}
	if c.Retry.CapMS < c.Retry.BaseMS {
		return kerrors.New(kerrors.ValidationFailed, "retry.cap_ms cannot be less than retry.base_ms", "", "", nil).WithOperation(op)
	}
	if c.Timeout.OperationMS <= 0 {
		return kerrors.New(kerrors.ValidationFailed, "timeout.operation_ms must be positive", "", "", nil).WithOperation(op)
	}
	if c.Router.WildcardToken == "" {
		return kerrors.New(kerrors.ValidationFailed, "router.wildcard_token cannot be empty", "", "", nil).WithOperation(op)
	}
	return nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	const op = "config.Save"
	buf, err := yaml.Marshal(cfg)
	if err != nil {
		return kerrors.New(kerrors.Internal, "failed to marshal config", err.Error(), "", err).WithOperation(op)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return kerrors.New(kerrors.IoFailed, "failed to create config directory", err.Error(), "", err).WithOperation(op)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return kerrors.New(kerrors.IoFailed, "failed to write config file", err.Error(), "", err).WithOperation(op)
	}
	return nil
}
