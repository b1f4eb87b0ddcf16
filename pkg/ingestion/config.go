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

package ingestion

// Config holds configuration for an ingestion run.
type Config struct {
	// ProjectID is the target project identifier. Project data (storage,
	// indices, symbols, graph) is rooted under DataDir/ProjectID.
	ProjectID string

	// RepoSource specifies where to load the repository from.
	RepoSource RepoSource

	// DataDir is the directory under which project data lives.
	// Defaults to ~/.kotadb/data.
	DataDir string

	// IngestionConfig controls parsing and concurrency behavior.
	IngestionConfig IngestionConfig
}

// RepoSource specifies the repository source.
type RepoSource struct {
	Type  string // "git_url" or "local_path"
	Value string // URL or local filesystem path
}

// IngestionConfig controls the ingestion pipeline behavior.
type IngestionConfig struct {
	// ParserMode specifies which parser to use: "treesitter", "simplified", or "auto".
	ParserMode ParserMode

	// MaxFileSizeBytes is the maximum file size to process (default: 1MB).
	// Files exceeding this are skipped with a warning.
	MaxFileSizeBytes int64

	// MaxCodeTextBytes is the maximum size for a function's CodeText
	// (default: 100KB). CodeText exceeding this is truncated.
	MaxCodeTextBytes int64

	// ExcludeGlobs are glob patterns for files/directories to exclude.
	// Supports full glob syntax: *, **, ?, [abc], [a-z], [!abc].
	ExcludeGlobs []string

	// Concurrency controls the parse worker pool size.
	Concurrency ConcurrencyConfig

	// CheckpointPath is the directory for storing checkpoint and project
	// metadata files. If empty, NewLocalPipeline uses the project's data
	// directory (DataDir/ProjectID).
	CheckpointPath string

	// UseGitDelta controls whether to use Git for incremental change
	// detection between runs. When true (default), DetectDelta diffs
	// against the project's last indexed SHA; when false, every run
	// re-parses the full repository.
	UseGitDelta bool

	// ForceReindex discards any checkpoint/project metadata and
	// re-ingests the full repository from scratch.
	ForceReindex bool
}

// ConcurrencyConfig controls worker pool sizes.
type ConcurrencyConfig struct {
	ParseWorkers int // Number of parallel file parsers.
}

// DefaultConfig returns an IngestionConfig with sensible defaults.
func DefaultConfig() IngestionConfig {
	return IngestionConfig{
		ParserMode:       ParserModeAuto,
		MaxFileSizeBytes: 1048576, // 1MB
		MaxCodeTextBytes: 102400,  // 100KB
		UseGitDelta:      true,
		ExcludeGlobs: []string{
			".git/**",
			"node_modules/**", "vendor/**",
			"dist/**", "build/**", "bin/**", "**/bin/**", "out/**",
			".idea/**", ".vscode/**", "*.swp", "*.swo",
			".next/**", ".nuxt/**",
			".kotadb/**",
			"*.o", "*.so", "*.dylib", "*.exe", "*.dll", "*.a",
			"*.pack", "*.pack.gz", "*.pack.old",
			".cache/**", "coverage/**", "tmp/**", ".tmp/**",
			"*.min.js", "*.min.css",
			"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum",
		},
		Concurrency: ConcurrencyConfig{ParseWorkers: 4},
	}
}
