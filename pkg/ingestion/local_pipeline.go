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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kraklabs/kotadb/pkg/contract"
	"github.com/kraklabs/kotadb/pkg/graph"
	"github.com/kraklabs/kotadb/pkg/index/btree"
	"github.com/kraklabs/kotadb/pkg/index/trigram"
	"github.com/kraklabs/kotadb/pkg/primitives"
	"github.com/kraklabs/kotadb/pkg/storage"
	"github.com/kraklabs/kotadb/pkg/symbols"
)

// LocalPipeline orchestrates ingestion into a project's own WAL-backed
// storage, B+ tree primary index, trigram index, symbol store, and
// relationship graph. Unlike the teacher's Primary Hub pipeline, there
// is no remote write target: every stage runs against components the
// pipeline itself opens under Config.DataDir/ProjectID.
type LocalPipeline struct {
	config        Config
	logger        *slog.Logger
	repoLoader    *RepoLoader
	parser        CodeParser
	checkpointMgr *CheckpointManager
	projectMeta   *ProjectMetaStore

	storage *storage.FileStore
	primary *btree.Tree
	trigram *trigram.Index
	symbols *symbols.Store
	graph   *graph.Graph

	projectDir string
}

// IngestionResult summarizes the ingestion run.
type IngestionResult struct {
	ProjectID          string
	RunID              string
	FilesProcessed     int
	FunctionsExtracted int
	TypesExtracted     int
	DefinesEdges       int
	CallsEdges         int
	EntitiesWritten    int
	ParseErrors        int
	ParseErrorRate     float64
	CodeTextTruncated  int
	TopSkipReasons     map[string]int
	ParseDuration      time.Duration
	WriteDuration      time.Duration
	TotalDuration      time.Duration
}

// parseFilesResult holds the aggregated results from parallel parsing.
type parseFilesResult struct {
	files           []FileEntity
	functions       []FunctionEntity
	types           []TypeEntity
	defines         []DefinesEdge
	definesTypes    []DefinesTypeEdge
	calls           []CallsEdge
	imports         []ImportEntity
	unresolvedCalls []UnresolvedCall
	packageNames    map[string]string
}

// NewLocalPipeline creates a new local ingestion pipeline, opening (or
// creating) the project's storage, index, symbol, and graph files under
// Config.DataDir/ProjectID.
func NewLocalPipeline(config Config, logger *slog.Logger) (*LocalPipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repoLoader := NewRepoLoader(logger)

	parser, err := newConfiguredParser(config.IngestionConfig, logger)
	if err != nil {
		return nil, err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dataDir = filepath.Join(home, ".kotadb", "data")
	}
	projectDir := filepath.Join(dataDir, config.ProjectID)

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
	symPath := filepath.Join(projectDir, "symbols.kota")
	symStore, err := symbols.Open(symPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open symbol store: %w", err)
	}
	graphPath := filepath.Join(projectDir, "graph.kota")
	g, err := graph.Open(graphPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open graph: %w", err)
	}

	checkpointDir := config.IngestionConfig.CheckpointPath
	if checkpointDir == "" {
		checkpointDir = projectDir
	}

	return &LocalPipeline{
		config:        config,
		logger:        logger,
		repoLoader:    repoLoader,
		parser:        parser,
		checkpointMgr: NewCheckpointManager(checkpointDir),
		projectMeta:   NewProjectMetaStore(checkpointDir),
		storage:       store,
		primary:       primary,
		trigram:       tri,
		symbols:       symStore,
		graph:         g,
		projectDir:    projectDir,
	}, nil
}

func newConfiguredParser(cfg IngestionConfig, logger *slog.Logger) (CodeParser, error) {
	var parser CodeParser
	parserMode := cfg.ParserMode
	if parserMode == "" {
		parserMode = ParserModeAuto
	}

	switch parserMode {
	case ParserModeSimplified:
		logger.Info("parser.mode", "mode", "simplified")
		parser = NewParser(logger)
	case ParserModeTreeSitter, ParserModeAuto:
		logger.Info("parser.mode", "mode", "treesitter")
		parser = NewTreeSitterParser(logger)
	default:
		logger.Warn("parser.mode.unknown", "mode", parserMode, "fallback", "treesitter")
		parser = NewTreeSitterParser(logger)
	}

	if cfg.MaxCodeTextBytes > 0 {
		parser.SetMaxCodeTextSize(cfg.MaxCodeTextBytes)
	}
	return parser, nil
}

// Close persists the symbol store and graph, and closes the document
// storage backend and the repo loader's temp clone (if any).
func (p *LocalPipeline) Close() error {
	var lastErr error
	if p.symbols != nil {
		if err := p.symbols.Save(filepath.Join(p.projectDir, "symbols.kota")); err != nil {
			lastErr = err
		}
	}
	if p.graph != nil {
		if err := p.graph.Save(filepath.Join(p.projectDir, "graph.kota")); err != nil {
			lastErr = err
		}
	}
	if p.storage != nil {
		if err := p.storage.Close(); err != nil {
			lastErr = err
		}
	}
	if p.repoLoader != nil {
		if err := p.repoLoader.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Symbols returns the project's symbol store, for callers that need to
// query it directly after a run (e.g. the CLI's status command).
func (p *LocalPipeline) Symbols() *symbols.Store { return p.symbols }

// Graph returns the project's relationship graph.
func (p *LocalPipeline) Graph() *graph.Graph { return p.graph }

// Storage returns the project's document storage backend.
func (p *LocalPipeline) Storage() *storage.FileStore { return p.storage }

// generateRunID generates a deterministic run ID for log correlation.
func (p *LocalPipeline) generateRunID(startTime time.Time) string {
	roundedTime := startTime.Truncate(time.Second)
	baseID := fmt.Sprintf("run-%s-%d", p.config.ProjectID, roundedTime.Unix())
	hash := sha256.Sum256([]byte(baseID))
	return hex.EncodeToString(hash[:16])
}

// Run executes the full local ingestion pipeline: load, parse, resolve
// cross-file calls, then write documents, primary/trigram index
// entries, symbols, and graph nodes/edges. When the project has a
// recorded LastIndexedSHA and UseGitDelta is enabled, only the changed
// files are re-parsed and the graph nodes/edges and index entries of
// modified or deleted files are swept first (see sweepStalePaths).
func (p *LocalPipeline) Run(ctx context.Context) (*IngestionResult, error) {
	startTime := time.Now()
	runID := p.generateRunID(startTime)
	p.logger.Info("local.ingestion.start", "project_id", p.config.ProjectID, "run_id", runID)

	prevMeta, err := p.projectMeta.Get(p.config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project meta: %w", err)
	}

	root, files, skipReasons, err := p.resolveFileSet(prevMeta)
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	p.logger.Info("local.ingestion.step.parse_files", "run_id", runID, "file_count", len(files))
	parseStart := time.Now()

	parseWorkers := p.config.IngestionConfig.Concurrency.ParseWorkers
	if parseWorkers <= 0 {
		parseWorkers = 4
	}
	parseResult, parseErrors := p.parseFilesParallel(ctx, files, parseWorkers)
	parseDuration := time.Since(parseStart)
	codeTextTruncated := p.parser.GetTruncatedCount()

	if len(parseResult.unresolvedCalls) > 0 {
		resolver := NewCallResolver()
		resolver.BuildIndex(parseResult.files, parseResult.functions, parseResult.imports, parseResult.packageNames)
		resolvedCalls := resolver.ResolveCalls(parseResult.unresolvedCalls)
		parseResult.calls = append(parseResult.calls, resolvedCalls...)
		p.logger.Info("local.ingestion.cross_package_calls.resolved", "resolved", len(resolvedCalls))
	}

	parseErrorRate := 0.0
	if len(files) > 0 {
		parseErrorRate = float64(parseErrors) / float64(len(files)) * 100.0
	}

	p.logger.Info("local.ingestion.parse.complete",
		"files", len(parseResult.files),
		"functions", len(parseResult.functions),
		"types", len(parseResult.types),
		"calls", len(parseResult.calls),
		"parse_errors", parseErrors,
		"code_text_truncated", codeTextTruncated,
		"duration_ms", parseDuration.Milliseconds(),
	)

	p.logger.Info("local.ingestion.step.write", "run_id", runID, "files", len(parseResult.files))
	writeStart := time.Now()

	entitiesWritten, err := p.writeResult(ctx, parseResult, root)
	if err != nil {
		return nil, fmt.Errorf("write ingestion result: %w", err)
	}

	writeDuration := time.Since(writeStart)
	totalDuration := time.Since(startTime)

	headSHA, _ := NewDeltaDetector(root, p.logger).GetHeadSHA()
	if headSHA != "" {
		meta := &ProjectMeta{ProjectID: p.config.ProjectID, LastIndexedSHA: headSHA, UpdatedAt: time.Now()}
		if err := p.projectMeta.Set(meta); err != nil {
			p.logger.Warn("local.ingestion.project_meta.save.error", "err", err)
		}
	}

	result := &IngestionResult{
		ProjectID:          p.config.ProjectID,
		RunID:              runID,
		FilesProcessed:     len(parseResult.files),
		FunctionsExtracted: len(parseResult.functions),
		TypesExtracted:     len(parseResult.types),
		DefinesEdges:       len(parseResult.defines) + len(parseResult.definesTypes),
		CallsEdges:         len(parseResult.calls),
		EntitiesWritten:    entitiesWritten,
		ParseErrors:        parseErrors,
		ParseErrorRate:     parseErrorRate,
		CodeTextTruncated:  codeTextTruncated,
		TopSkipReasons:     skipReasons,
		ParseDuration:      parseDuration,
		WriteDuration:      writeDuration,
		TotalDuration:      totalDuration,
	}

	checkpoint := &Checkpoint{
		ProjectID:          p.config.ProjectID,
		FilesProcessed:     result.FilesProcessed,
		FunctionsExtracted: result.FunctionsExtracted,
		TypesExtracted:     result.TypesExtracted,
		EntitiesSent: map[string]int{
			"files": result.FilesProcessed, "functions": result.FunctionsExtracted,
			"types": result.TypesExtracted, "calls": result.CallsEdges,
		},
		StartTime:      startTime.Format(time.RFC3339),
		LastUpdateTime: time.Now().Format(time.RFC3339),
	}
	if err := p.checkpointMgr.SaveCheckpoint(checkpoint); err != nil {
		p.logger.Warn("local.ingestion.checkpoint.save.error", "err", err)
	}

	p.logger.Info("local.ingestion.complete",
		"project_id", p.config.ProjectID,
		"run_id", runID,
		"files", result.FilesProcessed,
		"functions", result.FunctionsExtracted,
		"types", result.TypesExtracted,
		"entities_written", result.EntitiesWritten,
		"parse_errors", result.ParseErrors,
		"total_duration_ms", result.TotalDuration.Milliseconds(),
	)

	return result, nil
}

// resolveFileSet decides the set of files to parse this run: the full
// repository on a first run, a forced reindex, or when git delta
// detection is unavailable/disabled; otherwise just the files changed
// since prevMeta.LastIndexedSHA, after first sweeping stale graph nodes
// and index entries for modified/deleted/renamed paths.
func (p *LocalPipeline) resolveFileSet(prevMeta *ProjectMeta) (string, []FileInfo, map[string]int, error) {
	cfg := p.config.IngestionConfig

	loadResult, err := p.repoLoader.LoadRepository(p.config.RepoSource, cfg.ExcludeGlobs, cfg.MaxFileSizeBytes)
	if err != nil {
		return "", nil, nil, fmt.Errorf("load repository: %w", err)
	}

	useIncremental := !cfg.ForceReindex && cfg.UseGitDelta && prevMeta != nil && prevMeta.LastIndexedSHA != ""
	if !useIncremental {
		return loadResult.RootPath, loadResult.Files, loadResult.SkipReasons, nil
	}

	detector := NewDeltaDetector(loadResult.RootPath, p.logger)
	if !detector.IsGitRepository() {
		return loadResult.RootPath, loadResult.Files, loadResult.SkipReasons, nil
	}

	delta, err := detector.DetectDelta(prevMeta.LastIndexedSHA, "HEAD")
	if err != nil {
		return "", nil, nil, fmt.Errorf("detect delta: %w", err)
	}
	delta = FilterDelta(delta, cfg.ExcludeGlobs, cfg.MaxFileSizeBytes, loadResult.RootPath)

	if !delta.HasChanges() {
		return loadResult.RootPath, nil, nil, nil
	}

	p.sweepStalePaths(append(append([]string{}, delta.Modified...), delta.Deleted...))
	for oldPath := range delta.Renamed {
		p.sweepStalePaths([]string{oldPath})
	}

	changed := make(map[string]bool, len(delta.Added)+len(delta.Modified)+len(delta.Renamed))
	for _, path := range delta.Added {
		changed[path] = true
	}
	for _, path := range delta.Modified {
		changed[path] = true
	}
	for _, newPath := range delta.Renamed {
		changed[newPath] = true
	}

	var files []FileInfo
	for _, f := range loadResult.Files {
		if changed[f.Path] {
			files = append(files, f)
		}
	}

	return loadResult.RootPath, files, nil, nil
}

// sweepStalePaths removes the graph nodes (with their edges) of the
// symbols recorded for each path, plus the path's primary index,
// trigram index, and document storage entries, for files that were
// modified, renamed, or deleted, ahead of re-parsing (modified/renamed)
// or permanently (deleted). The symbol store is append-only, so the
// file's existing symbol records are not removed. This replaces the teacher's Datalog
// Get*ForFiles query helpers with direct lookups against the symbol
// store and graph the new stack already maintains.
func (p *LocalPipeline) sweepStalePaths(paths []string) {
	ctx := context.Background()
	for _, rawPath := range paths {
		path, err := primitives.NewPath(normalizePath(rawPath))
		if err != nil {
			continue
		}
		for _, id := range p.symbols.ByFile(path) {
			p.graph.DeleteNode(id)
		}
		docID := DeriveDocID(rawPath)
		_, _ = p.primary.Delete(ctx, docID)
		_, _ = p.trigram.Delete(ctx, docID)
		_, _ = p.storage.Delete(ctx, docID)
		recordPathSweep()
	}
}

// writeResult persists a parse pass into storage, the primary and
// trigram indices, the symbol store, and the relationship graph. root
// is the repository root the parsed files' relative paths resolve
// against, used to read each file's content for document storage.
func (p *LocalPipeline) writeResult(ctx context.Context, pr *parseFilesResult, root string) (int, error) {
	written := 0

	symbolIDByFunc := make(map[string]primitives.SymbolID, len(pr.functions))
	symbolIDByType := make(map[string]primitives.SymbolID, len(pr.types))

	for _, f := range pr.files {
		path, err := primitives.NewPath(normalizePath(f.Path))
		if err != nil {
			p.logger.Warn("local.ingestion.write.bad_path", "path", f.Path, "err", err)
			continue
		}
		title, err := primitives.NewTitle(filepath.Base(f.Path))
		if err != nil {
			title, _ = primitives.NewTitle("untitled")
		}
		content, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			p.logger.Warn("local.ingestion.write.read_error", "path", f.Path, "err", err)
			continue
		}
		docID := DeriveDocID(f.Path)
		now := time.Now().UnixNano()
		doc := contract.Document{
			ID:        docID,
			Path:      path,
			Title:     title,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.upsertDocument(ctx, doc); err != nil {
			p.logger.Warn("local.ingestion.write.storage_error", "path", f.Path, "err", err)
			continue
		}
		if err := p.primary.Insert(ctx, docID, path); err != nil {
			p.logger.Warn("local.ingestion.write.primary_error", "path", f.Path, "err", err)
		}
		if err := p.trigram.InsertWithContent(ctx, docID, path, content); err != nil {
			p.logger.Warn("local.ingestion.write.trigram_error", "path", f.Path, "err", err)
		}
		written++

		fileSymID := DeriveSymbolID(f.Path, f.Path, 0, 0, 0, 0)
		if err := p.graph.StoreNode(graph.Node{ID: fileSymID, Kind: "file", QualifiedName: f.Path, File: path}); err != nil {
			p.logger.Warn("local.ingestion.write.graph_node_error", "path", f.Path, "err", err)
		}
		written++
	}

	for _, fn := range pr.functions {
		symID := DeriveSymbolID(fn.FilePath, fn.Name, fn.StartLine, fn.EndLine, fn.StartCol, fn.EndCol)
		symbolIDByFunc[fn.ID] = symID
		kind := symbols.KindFunction
		path, _ := primitives.NewPath(normalizePath(fn.FilePath))
		if err := p.symbols.Append(symbols.Symbol{ID: symID, Kind: kind, Name: fn.Name, File: path, StartLine: uint32(fn.StartLine), EndLine: uint32(fn.EndLine)}); err != nil {
			p.logger.Warn("local.ingestion.write.symbol_error", "name", fn.Name, "err", err)
			continue
		}
		if err := p.graph.StoreNode(graph.Node{ID: symID, Kind: "function", QualifiedName: fn.Name, File: path, StartLine: uint32(fn.StartLine), EndLine: uint32(fn.EndLine)}); err != nil {
			p.logger.Warn("local.ingestion.write.graph_node_error", "name", fn.Name, "err", err)
			continue
		}
		written++
	}

	for _, t := range pr.types {
		symID := DeriveSymbolID(t.FilePath, t.Name, t.StartLine, t.EndLine, t.StartCol, t.EndCol)
		symbolIDByType[t.ID] = symID
		path, _ := primitives.NewPath(normalizePath(t.FilePath))
		if err := p.symbols.Append(symbols.Symbol{ID: symID, Kind: typeKind(t.Kind), Name: t.Name, File: path, StartLine: uint32(t.StartLine), EndLine: uint32(t.EndLine)}); err != nil {
			p.logger.Warn("local.ingestion.write.symbol_error", "name", t.Name, "err", err)
			continue
		}
		if err := p.graph.StoreNode(graph.Node{ID: symID, Kind: "type", QualifiedName: t.Name, File: path, StartLine: uint32(t.StartLine), EndLine: uint32(t.EndLine)}); err != nil {
			p.logger.Warn("local.ingestion.write.graph_node_error", "name", t.Name, "err", err)
			continue
		}
		written++
	}

	for _, d := range pr.defines {
		fileSymID := DeriveSymbolID(fileIDToPath(pr.files, d.FileID), fileIDToPath(pr.files, d.FileID), 0, 0, 0, 0)
		fnSymID, ok := symbolIDByFunc[d.FunctionID]
		if !ok {
			continue
		}
		if err := p.graph.StoreEdge(graph.Edge{From: fileSymID, To: fnSymID, Relation: graph.RelationContains}); err != nil {
			p.logger.Warn("local.ingestion.write.edge_error", "relation", "contains", "err", err)
			continue
		}
		written++
	}
	for _, d := range pr.definesTypes {
		fileSymID := DeriveSymbolID(fileIDToPath(pr.files, d.FileID), fileIDToPath(pr.files, d.FileID), 0, 0, 0, 0)
		typeSymID, ok := symbolIDByType[d.TypeID]
		if !ok {
			continue
		}
		if err := p.graph.StoreEdge(graph.Edge{From: fileSymID, To: typeSymID, Relation: graph.RelationContains}); err != nil {
			p.logger.Warn("local.ingestion.write.edge_error", "relation", "contains", "err", err)
			continue
		}
		written++
	}
	for _, c := range pr.calls {
		fromID, okFrom := symbolIDByFunc[c.CallerID]
		toID, okTo := symbolIDByFunc[c.CalleeID]
		if !okFrom || !okTo {
			continue
		}
		if err := p.graph.StoreEdge(graph.Edge{From: fromID, To: toID, Relation: graph.RelationCalls}); err != nil {
			p.logger.Warn("local.ingestion.write.edge_error", "relation", "calls", "err", err)
			continue
		}
		written++
	}
	for _, imp := range pr.imports {
		fromSymID := DeriveSymbolID(imp.FilePath, imp.FilePath, 0, 0, 0, 0)
		toSymID := DeriveSymbolID(imp.ImportPath, imp.ImportPath, 0, 0, 0, 0)
		if err := p.graph.StoreEdge(graph.Edge{From: fromSymID, To: toSymID, Relation: graph.RelationImports, Metadata: map[string]string{"alias": imp.Alias}}); err != nil {
			p.logger.Warn("local.ingestion.write.edge_error", "relation", "imports", "err", err)
			continue
		}
		written++
	}

	return written, nil
}

func (p *LocalPipeline) upsertDocument(ctx context.Context, doc contract.Document) error {
	if _, ok, err := p.storage.Get(ctx, doc.ID); err == nil && ok {
		return p.storage.Update(ctx, doc)
	}
	return p.storage.Insert(ctx, doc)
}

func typeKind(kind string) symbols.Kind {
	switch kind {
	case "interface":
		return symbols.KindInterface
	case "struct":
		return symbols.KindStruct
	case "class":
		return symbols.KindClass
	case "enum":
		return symbols.KindEnum
	default:
		return symbols.KindStruct
	}
}

func fileIDToPath(files []FileEntity, fileID string) string {
	for _, f := range files {
		if f.ID == fileID {
			return f.Path
		}
	}
	return fileID
}

// parseFilesParallel parses files in parallel using a worker pool.
func (p *LocalPipeline) parseFilesParallel(ctx context.Context, files []FileInfo, numWorkers int) (*parseFilesResult, int) {
	if len(files) == 0 {
		return &parseFilesResult{packageNames: make(map[string]string)}, 0
	}

	if len(files) < 10 || numWorkers <= 1 {
		return p.parseFilesSequential(ctx, files)
	}

	jobs := make(chan int, len(files))

	type fileResult struct {
		index       int
		result      *ParseResult
		err         error
		packageName string
		filePath    string
	}
	resultsChan := make(chan fileResult, len(files))

	var errorCount int32

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				fileInfo := files[i]
				pr, err := p.parser.ParseFile(fileInfo)
				if err != nil {
					atomic.AddInt32(&errorCount, 1)
					p.logger.Warn("local.ingestion.parse_file.error", "path", fileInfo.Path, "err", err)
					resultsChan <- fileResult{index: i, err: err, filePath: fileInfo.Path}
					continue
				}

				resultsChan <- fileResult{
					index:       i,
					result:      pr,
					packageName: pr.PackageName,
					filePath:    fileInfo.Path,
				}
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	parseResults := make([]*ParseResult, len(files))
	packageNames := make(map[string]string)
	var mu sync.Mutex

	for fr := range resultsChan {
		if fr.err != nil {
			continue
		}
		parseResults[fr.index] = fr.result
		if fr.packageName != "" {
			mu.Lock()
			packageNames[fr.filePath] = fr.packageName
			mu.Unlock()
		}
	}

	result := &parseFilesResult{packageNames: packageNames}
	for _, pr := range parseResults {
		if pr == nil {
			continue
		}
		result.files = append(result.files, pr.File)
		result.functions = append(result.functions, pr.Functions...)
		result.types = append(result.types, pr.Types...)
		result.defines = append(result.defines, pr.Defines...)
		result.definesTypes = append(result.definesTypes, pr.DefinesTypes...)
		result.calls = append(result.calls, pr.Calls...)
		result.imports = append(result.imports, pr.Imports...)
		result.unresolvedCalls = append(result.unresolvedCalls, pr.UnresolvedCalls...)
	}

	return result, int(errorCount)
}

// parseFilesSequential parses files sequentially.
func (p *LocalPipeline) parseFilesSequential(ctx context.Context, files []FileInfo) (*parseFilesResult, int) {
	result := &parseFilesResult{packageNames: make(map[string]string)}
	errorCount := 0

	for _, fileInfo := range files {
		select {
		case <-ctx.Done():
			return result, errorCount
		default:
		}

		pr, err := p.parser.ParseFile(fileInfo)
		if err != nil {
			errorCount++
			p.logger.Warn("local.ingestion.parse_file.error", "path", fileInfo.Path, "err", err)
			continue
		}

		result.files = append(result.files, pr.File)
		result.functions = append(result.functions, pr.Functions...)
		result.types = append(result.types, pr.Types...)
		result.defines = append(result.defines, pr.Defines...)
		result.definesTypes = append(result.definesTypes, pr.DefinesTypes...)
		result.calls = append(result.calls, pr.Calls...)
		result.imports = append(result.imports, pr.Imports...)
		result.unresolvedCalls = append(result.unresolvedCalls, pr.UnresolvedCalls...)
		if pr.PackageName != "" {
			result.packageNames[fileInfo.Path] = pr.PackageName
		}
	}

	return result, errorCount
}
