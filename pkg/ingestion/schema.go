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

// Entity types extracted by a CodeParser, correlated during parsing by
// cheap string ids (GenerateFileID/GenerateFunctionID/...) and only
// converted to the repository's primitives.DocID/primitives.SymbolID at
// the point they are written to storage/symbols/graph (see local_pipeline.go).
// Keeping string ids through the parse+resolve phase mirrors how the
// teacher's own schema correlates rows before they reach CozoDB.

// FileEntity represents a source file in the repository.
type FileEntity struct {
	ID       string // GenerateFileID(Path)
	Path     string // relative path from repo root
	Hash     string // content hash (SHA256) for change detection
	Language string // detected language (go, python, javascript, ...)
	Size     int64
}

// FunctionEntity represents a function/method extracted from code.
type FunctionEntity struct {
	ID        string // GenerateFunctionID(...) — excludes Signature for stability
	Name      string
	Signature string
	FilePath  string
	CodeText  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// TypeEntity represents a type/interface/class/struct definition.
// Language-agnostic: Kind normalizes "struct"/"interface"/"type_alias"
// (Go), "class" (Python/JS), "interface"/"class"/"type_alias" (TS).
type TypeEntity struct {
	ID        string
	Name      string
	Kind      string
	FilePath  string
	CodeText  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// DefinesEdge represents a "file defines function" relationship.
type DefinesEdge struct {
	FileID     string
	FunctionID string
}

// DefinesTypeEdge represents a "file defines type" relationship.
type DefinesTypeEdge struct {
	FileID string
	TypeID string
}

// CallsEdge represents a "function calls function" relationship,
// including cross-package calls resolved via imports.
type CallsEdge struct {
	CallerID string
	CalleeID string
	CallLine int // 0 = unknown
}

// ImportEntity represents an import statement in a source file.
type ImportEntity struct {
	ID         string
	FilePath   string
	ImportPath string
	Alias      string // "" (default), "alias", "." (dot import), "_" (blank import)
	StartLine  int
}

// UnresolvedCall is a function call discovered during parsing that a
// single-file pass can't resolve; CallResolver resolves it once every
// file's imports are known.
type UnresolvedCall struct {
	CallerID   string
	CalleeName string
	FilePath   string
	Line       int
}

// PackageInfo is a Go package with its member files.
type PackageInfo struct {
	PackagePath string
	PackageName string
	Files       []string
}

// ParseResult is everything a CodeParser extracts from one file.
type ParseResult struct {
	File            FileEntity
	Functions       []FunctionEntity
	Types           []TypeEntity
	Defines         []DefinesEdge
	DefinesTypes    []DefinesTypeEdge
	Calls           []CallsEdge
	Imports         []ImportEntity
	UnresolvedCalls []UnresolvedCall
	PackageName     string
}
