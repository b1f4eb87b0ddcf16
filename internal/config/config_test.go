// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheSize != 1000 || cfg.BtreeBranchingFactor != 64 {
		t.Errorf("Load of missing file = %+v, want defaults", cfg)
	}
}

func TestLoad_ParsesYAMLAndOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kotadb.yaml")
	yamlBody := "cache_size: 50\ningest:\n  max_parallel_files: 4\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheSize != 50 {
		t.Errorf("CacheSize = %d, want 50", cfg.CacheSize)
	}
	if cfg.Ingest.MaxParallel != 4 {
		t.Errorf("Ingest.MaxParallel = %d, want 4", cfg.Ingest.MaxParallel)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("Retry.MaxAttempts = %d, want default 3 (unset by YAML)", cfg.Retry.MaxAttempts)
	}
}

func TestLoad_EnvOverridesWinOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kotadb.yaml")
	if err := os.WriteFile(path, []byte("cache_size: 50\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("KOTADB_CACHE_SIZE", "200")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheSize != 200 {
		t.Errorf("CacheSize = %d, want env override 200", cfg.CacheSize)
	}
}

func TestValidate_RejectsSmallBranchingFactor(t *testing.T) {
	cfg := Default()
	cfg.BtreeBranchingFactor = 2
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for btree_branching_factor < 3")
	}
}

func TestValidate_RejectsEmptyWildcardToken(t *testing.T) {
	cfg := Default()
	cfg.Router.WildcardToken = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty router.wildcard_token")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kotadb.yaml")
	cfg := Default()
	cfg.CacheSize = 777
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.CacheSize != 777 {
		t.Errorf("reloaded CacheSize = %d, want 777", reloaded.CacheSize)
	}
}
