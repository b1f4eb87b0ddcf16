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
	"strings"
	"sync"

	"log/slog"
)

// Parser is the regex/string-matching fallback CodeParser. It requires
// no grammar and no CGO; non-Go languages go through a small
// per-language table of function-like declaration keywords, and a
// language with no keywords in that table yields no functions. Go gets its
// own line-oriented pass (parseGoFile) since it is the one language this
// repository also parses precisely via Tree-sitter, and the two results
// should agree on the common cases.
type Parser struct {
	logger          *slog.Logger
	maxCodeTextSize int64
	truncatedCount  int
	mu              sync.Mutex
}

// NewParser creates a new simplified parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, maxCodeTextSize: 102400}
}

func (p *Parser) SetMaxCodeTextSize(size int64) { p.maxCodeTextSize = size }

func (p *Parser) GetTruncatedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.truncatedCount
}

func (p *Parser) ResetTruncatedCount() {
	p.mu.Lock()
	p.truncatedCount = 0
	p.mu.Unlock()
}

func (p *Parser) truncateCodeText(codeText string) string {
	if p.maxCodeTextSize > 0 && int64(len(codeText)) > p.maxCodeTextSize {
		p.mu.Lock()
		p.truncatedCount++
		p.mu.Unlock()
		return codeText[:p.maxCodeTextSize]
	}
	return codeText
}

// ParseFile parses a source file with regex/string matching.
func (p *Parser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	raw, err := os.ReadFile(fileInfo.FullPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	content := string(raw)

	hash := sha256.Sum256(raw)
	fileID := GenerateFileID(fileInfo.Path)
	fileEntity := FileEntity{
		ID:       fileID,
		Path:     fileInfo.Path,
		Hash:     hex.EncodeToString(hash[:]),
		Language: fileInfo.Language,
		Size:     fileInfo.Size,
	}

	var functions []FunctionEntity
	var calls []CallsEdge
	if fileInfo.Language == "go" {
		functions, calls = p.parseGoFile(content, fileInfo.Path)
	} else {
		functions = p.parseGenericFile(content, fileInfo.Path, fileInfo.Language)
		calls = p.extractGoCallsSimplified(functions, content)
	}

	defines := make([]DefinesEdge, len(functions))
	for i, fn := range functions {
		defines[i] = DefinesEdge{FileID: fileID, FunctionID: fn.ID}
	}

	return &ParseResult{
		File:      fileEntity,
		Functions: functions,
		Defines:   defines,
		Calls:     calls,
	}, nil
}

// languageDeclKeywords maps a language to the line-prefix keywords that
// introduce a function-like declaration, for the generic regex fallback.
var languageDeclKeywords = map[string][]string{
	"python":     {"def ", "async def "},
	"javascript": {"function ", "async function "},
	"typescript": {"function ", "async function "},
	"ruby":       {"def "},
	"rust":       {"fn ", "pub fn ", "async fn ", "pub async fn "},
	"java":       {"public ", "private ", "protected ", "static "},
	"c":          {},
	"cpp":        {},
}

// parseGenericFile extracts function-like declarations for languages with
// no dedicated parser, using a simple "line starts a known declaration
// keyword, body ends at a brace-balanced closing line" heuristic. This
// deliberately does not attempt per-language signature parsing; it only
// needs to produce stable (name, range) pairs good enough for symbol
// lookup and same-file call matching.
func (p *Parser) parseGenericFile(content, filePath, language string) []FunctionEntity {
	keywords := languageDeclKeywords[language]
	if len(keywords) == 0 {
		return nil
	}

	var functions []FunctionEntity
	lines := strings.Split(content, "\n")

	var currentFn *FunctionEntity
	var fnStartLine int
	var fnLines []string
	depth := 0

	flush := func(endLine int) {
		if currentFn == nil {
			return
		}
		currentFn.EndLine = endLine
		currentFn.CodeText = p.truncateCodeText(strings.Join(fnLines, "\n"))
		functions = append(functions, *currentFn)
		currentFn = nil
	}

	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if currentFn == nil {
			for _, kw := range keywords {
				if !strings.HasPrefix(trimmed, kw) {
					continue
				}
				name := genericDeclName(trimmed[len(kw):])
				if name == "" {
					continue
				}
				currentFn = &FunctionEntity{
					ID:        GenerateFunctionID(filePath, name, "", lineNum, lineNum, 1, len(line)),
					Name:      name,
					FilePath:  filePath,
					StartLine: lineNum,
					StartCol:  1,
					EndCol:    len(line),
				}
				fnStartLine = lineNum
				fnLines = []string{line}
				depth = strings.Count(line, "{") - strings.Count(line, "}")
				break
			}
			continue
		}

		fnLines = append(fnLines, line)
		depth += strings.Count(line, "{") - strings.Count(line, "}")

		// Python/Ruby have no braces; a dedent back to column 0 (and not
		// the declaration line itself) ends the block.
		noBraces := depth == 0 && !strings.ContainsAny(strings.Join(fnLines, ""), "{}")
		endsByDedent := noBraces && lineNum > fnStartLine+1 && trimmed != "" && line[0] != ' ' && line[0] != '\t'
		endsByBrace := depth <= 0 && trimmed == "}"

		if endsByBrace {
			flush(lineNum)
		} else if endsByDedent {
			flush(lineNum - 1)
		}
	}
	flush(len(lines))

	return functions
}

// genericDeclName extracts the identifier up to the first '(' or ':' or
// whitespace run, the common terminator across the languages this
// fallback covers.
func genericDeclName(rest string) string {
	rest = strings.TrimSpace(rest)
	end := len(rest)
	for i, c := range rest {
		if c == '(' || c == ':' || c == ' ' || c == '\t' || c == '<' {
			end = i
			break
		}
	}
	name := rest[:end]
	if name == "" || !isGoIdentStart(name[0]) {
		return ""
	}
	return name
}
