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

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"

	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// TreeSitterParser gives Go source full AST-based extraction (precise
// ranges, nested functions/methods, same-file call graph). Every other
// language falls through to the simplified regex Parser: a second
// tree-sitter grammar is a real cost (grammar dependency, CGO surface,
// a dedicated AST walker) per language, and this repository only
// budgets for getting one language right end to end.
type TreeSitterParser struct {
	logger          *slog.Logger
	maxCodeTextSize int64
	truncatedCount  int
	mu              sync.Mutex

	goParser *sitter.Parser
	fallback *Parser
}

// NewTreeSitterParser creates a Tree-sitter based parser for Go, with a
// regex-based Parser as its fallback for all other languages.
func NewTreeSitterParser(logger *slog.Logger) *TreeSitterParser {
	if logger == nil {
		logger = slog.Default()
	}
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &TreeSitterParser{
		logger:          logger,
		maxCodeTextSize: 102400,
		goParser:        p,
		fallback:        NewParser(logger),
	}
}

// SetMaxCodeTextSize sets the maximum size for CodeText (in bytes).
func (p *TreeSitterParser) SetMaxCodeTextSize(size int64) {
	p.maxCodeTextSize = size
	p.fallback.SetMaxCodeTextSize(size)
}

// GetTruncatedCount returns the number of CodeTexts that were truncated.
func (p *TreeSitterParser) GetTruncatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.truncatedCount + p.fallback.GetTruncatedCount()
}

// ResetTruncatedCount resets the truncation counter.
func (p *TreeSitterParser) ResetTruncatedCount() {
	p.mu.Lock()
	p.truncatedCount = 0
	p.mu.Unlock()
	p.fallback.ResetTruncatedCount()
}

func (p *TreeSitterParser) truncateCodeText(codeText string) string {
	if p.maxCodeTextSize > 0 && int64(len(codeText)) > p.maxCodeTextSize {
		p.mu.Lock()
		p.truncatedCount++
		p.mu.Unlock()
		return codeText[:p.maxCodeTextSize]
	}
	return codeText
}

// ParseFile parses a source file, using the Go AST walker for Go and the
// regex fallback for everything else.
func (p *TreeSitterParser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	content, err := os.ReadFile(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	hash := sha256.Sum256(content)
	fileID := GenerateFileID(fileInfo.Path)
	fileEntity := FileEntity{
		ID:       fileID,
		Path:     fileInfo.Path,
		Hash:     hex.EncodeToString(hash[:]),
		Language: fileInfo.Language,
		Size:     fileInfo.Size,
	}

	if fileInfo.Language != "go" {
		return p.fallback.ParseFile(fileInfo)
	}

	goResult, err := p.parseGoAST(content, fileInfo.Path)
	if err != nil {
		return nil, fmt.Errorf("parse go AST: %w", err)
	}

	defines := make([]DefinesEdge, len(goResult.Functions))
	for i, fn := range goResult.Functions {
		defines[i] = DefinesEdge{FileID: fileID, FunctionID: fn.ID}
	}
	definesTypes := make([]DefinesTypeEdge, len(goResult.Types))
	for i, t := range goResult.Types {
		definesTypes[i] = DefinesTypeEdge{FileID: fileID, TypeID: t.ID}
	}

	return &ParseResult{
		File:            fileEntity,
		Functions:       goResult.Functions,
		Types:           goResult.Types,
		Defines:         defines,
		DefinesTypes:    definesTypes,
		Calls:           goResult.Calls,
		Imports:         goResult.Imports,
		UnresolvedCalls: goResult.UnresolvedCalls,
		PackageName:     goResult.PackageName,
	}, nil
}

// countErrors counts ERROR nodes in the AST (tree-sitter is
// error-tolerant; this just drives a warning log, not a hard failure).
func countErrors(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}
