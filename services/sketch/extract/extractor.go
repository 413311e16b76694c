// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/apisketch/services/sketch/ast"
	"github.com/AleutianAI/apisketch/services/sketch/config"
	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

var extractTracer = otel.Tracer("aleutian.sketch.extract")

// Store persists extracted documents and remembers which sources have
// already been extracted.
type Store interface {
	// SourceUnchanged reports whether path was extracted with this content hash.
	SourceUnchanged(ctx context.Context, path, contentHash string) (bool, error)

	// ForgetSource removes the documents previously stored for path.
	ForgetSource(ctx context.Context, path string) error

	// Put stores one document.
	Put(ctx context.Context, doc Document) error

	// MarkSource records that path was extracted with this content hash.
	MarkSource(ctx context.Context, path, contentHash string) error

	// SourceDocuments passes the documents stored for path to fn and
	// returns how many it passed.
	SourceDocuments(ctx context.Context, path string, fn func(Document) error) (int, error)
}

// Stats counts the outcomes of an extraction.
type Stats struct {
	Files       int `json:"files"`
	Unchanged   int `json:"unchanged"`
	Failed      int `json:"failed"`
	Documents   int `json:"documents"`
	BoundCount  int `json:"bound_count"`
	BoundLength int `json:"bound_length"`
	Degenerate  int `json:"degenerate"`
	Duplicates  int `json:"duplicates"`
	Filtered    int `json:"filtered"`
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Unchanged += o.Unchanged
	s.Failed += o.Failed
	s.Documents += o.Documents
	s.BoundCount += o.BoundCount
	s.BoundLength += o.BoundLength
	s.Degenerate += o.Degenerate
	s.Duplicates += o.Duplicates
	s.Filtered += o.Filtered
}

// Extractor runs the extraction pipeline: parse, build, combine, enumerate,
// filter and emit.
//
// Description:
//
//	Files are processed on a bounded worker pool. Each worker handles one
//	file at a time and emits its documents through the shared Emitter.
//	Per-IR failures (bound violations, degenerate IRs, filtered sets) and
//	per-file failures (unreadable or unparsable sources) are logged and
//	counted. Only an output sink failure aborts a run.
//
// Thread Safety:
//
//	Safe for concurrent use. Configuration is read-only after construction.
type Extractor struct {
	parser      *ast.JavaParser
	bounds      ir.Bounds
	docMode     DocMode
	apiPackages []string
	workers     int
	store       Store
	replay      bool
	logger      *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(x *Extractor) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// WithStore enables incremental extraction and document persistence.
func WithStore(store Store) ExtractorOption {
	return func(x *Extractor) {
		x.store = store
	}
}

// WithReplay makes Run emit the stored documents of unchanged files, so
// an incremental run still writes the complete output for its paths.
// Without it, unchanged files contribute nothing to the output.
func WithReplay() ExtractorOption {
	return func(x *Extractor) {
		x.replay = true
	}
}

// WithWorkers overrides the configured worker count.
func WithWorkers(n int) ExtractorOption {
	return func(x *Extractor) {
		if n > 0 {
			x.workers = n
		}
	}
}

// NewExtractor creates an Extractor from configuration.
//
// Inputs:
//
//	cfg  - Extraction configuration. Must not be nil.
//	opts - Optional settings.
//
// Outputs:
//
//	*Extractor - Ready to use.
//	error      - Non-nil if cfg is nil or its bounds or doc mode are invalid.
func NewExtractor(cfg *config.ExtractorConfig, opts ...ExtractorOption) (*Extractor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("NewExtractor: cfg must not be nil")
	}
	bounds := cfg.Bounds()
	if err := bounds.Validate(); err != nil {
		return nil, fmt.Errorf("NewExtractor: %w", err)
	}
	mode, err := ParseDocMode(cfg.DocMode)
	if err != nil {
		return nil, fmt.Errorf("NewExtractor: %w", err)
	}

	x := &Extractor{
		parser:      ast.NewJavaParser(ast.WithJavaMaxFileSize(cfg.MaxFileSize)),
		bounds:      bounds,
		docMode:     mode,
		apiPackages: append([]string(nil), cfg.APIPackages...),
		workers:     cfg.Workers,
		logger:      slog.Default(),
	}
	if x.workers <= 0 {
		x.workers = runtime.NumCPU()
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// ExtractSource runs the pipeline on one in-memory source file.
//
// Description:
//
//	Returns the documents the file produces, in deterministic order. Bound
//	violations and filtered IRs are counted in Stats and do not fail the
//	call.
//
// Inputs:
//
//	ctx        - Context for cancellation and tracing.
//	sourceFile - Identifier recorded in each document.
//	content    - Java source.
//
// Outputs:
//
//	[]Document - Surviving documents. Possibly empty.
//	Stats      - Per-IR outcome counts.
//	error      - Non-nil if the source could not be parsed.
func (x *Extractor) ExtractSource(ctx context.Context, sourceFile string, content []byte) ([]Document, Stats, error) {
	var docs []Document
	stats, err := x.EachDocument(ctx, sourceFile, content, func(doc Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	return docs, stats, nil
}

// EachDocument runs the pipeline on one source file and passes each
// document to fn as soon as it is admitted, so only one IR's sequence set
// is held at a time.
//
// Inputs:
//
//	ctx        - Context for cancellation and tracing.
//	sourceFile - Identifier recorded in each document.
//	content    - Java source.
//	fn         - Receives documents in deterministic order. A non-nil
//	             return stops extraction and is returned unchanged.
//
// Outputs:
//
//	Stats - Per-IR outcome counts for the documents produced so far.
//	error - A parse failure, or the first error returned by fn.
func (x *Extractor) EachDocument(ctx context.Context, sourceFile string, content []byte, fn func(Document) error) (Stats, error) {
	ctx, span := extractTracer.Start(ctx, "extract.Extractor.EachDocument")
	defer span.End()
	span.SetAttributes(attribute.String("file", sourceFile))

	var stats Stats

	unit, err := x.parser.Parse(ctx, content, sourceFile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return stats, fmt.Errorf("parsing %s: %w", sourceFile, err)
	}
	defer unit.Close()

	builder, err := ast.NewIRBuilder(unit, ast.WithAPIPackages(x.apiPackages...))
	if err != nil {
		return stats, err
	}

	pairs, cstats := Combine(unit, builder, x.docMode)
	stats.Degenerate += cstats.Degenerate
	stats.Duplicates += cstats.Duplicates

	calls := 0
	for _, p := range pairs {
		calls += p.Forest.CallCount()
		seqs, err := ir.Enumerate(p.Forest, x.bounds)
		if err != nil {
			x.recordBoundError(&stats, sourceFile, p, err)
			continue
		}
		seqs = Dedup(seqs)
		if !Admit(seqs) {
			stats.Filtered++
			continue
		}
		if err := fn(NewDocument(sourceFile, p.Forest, seqs, p.Documentation)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "document rejected")
			return stats, err
		}
		stats.Documents++
	}

	span.SetAttributes(
		attribute.Int("pairs", len(pairs)),
		attribute.Int("calls", calls),
		attribute.Int("documents", stats.Documents),
	)
	return stats, nil
}

func (x *Extractor) recordBoundError(stats *Stats, sourceFile string, p Pair, err error) {
	var be *ir.BoundError
	attrs := []any{
		slog.String("file", sourceFile),
		slog.String("type", p.Type),
		slog.String("error", err.Error()),
	}
	if errors.As(err, &be) {
		attrs = append(attrs, slog.Int("limit", be.Limit), slog.Int("observed", be.Observed))
	}

	switch {
	case errors.Is(err, ir.ErrSequenceCountExceeded):
		stats.BoundCount++
	case errors.Is(err, ir.ErrSequenceLengthExceeded):
		stats.BoundLength++
	}
	x.logger.Warn("skipping IR: enumeration bound exceeded", attrs...)
}

// Run extracts every Java file under paths and streams documents to em.
//
// Description:
//
//	Directories are walked recursively for ".java" files. Files are
//	processed on up to Workers goroutines. When a Store is configured,
//	files whose content hash is unchanged since the last run are not
//	parsed again (their stored documents are emitted with WithReplay) and
//	new documents are persisted as they are emitted.
//
// Inputs:
//
//	ctx   - Context for cancellation. Canceling stops the pool.
//	paths - Files or directories.
//	em    - Output emitter. Not closed by Run.
//
// Outputs:
//
//	Stats - Aggregate counts over all files.
//	error - Non-nil on output failure, cancellation or an unwalkable path.
func (x *Extractor) Run(ctx context.Context, paths []string, em *Emitter) (Stats, error) {
	var total Stats
	if em == nil {
		return total, fmt.Errorf("Run: emitter must not be nil")
	}

	files, err := CollectSources(paths)
	if err != nil {
		return total, err
	}

	x.logger.Info("extraction started",
		slog.Int("files", len(files)),
		slog.Int("workers", x.workers),
		slog.Int("max_sequences", x.bounds.MaxSequences),
		slog.Int("max_length", x.bounds.MaxLength),
	)
	start := time.Now()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, x.workers)

	for _, file := range files {
		path := file
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			stats, err := x.processFile(gctx, path, em)
			mu.Lock()
			total.add(stats)
			mu.Unlock()
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return total, fmt.Errorf("extraction: %w", err)
	}

	x.logger.Info("extraction finished",
		slog.Int("files", total.Files),
		slog.Int("unchanged", total.Unchanged),
		slog.Int("failed", total.Failed),
		slog.Int("documents", total.Documents),
		slog.Int("bound_count", total.BoundCount),
		slog.Int("bound_length", total.BoundLength),
		slog.Int("filtered", total.Filtered),
		slog.Duration("duration", time.Since(start)),
	)
	return total, nil
}

// processFile returns an error only for output failures and cancellation.
func (x *Extractor) processFile(ctx context.Context, path string, em *Emitter) (Stats, error) {
	start := time.Now()
	stats := Stats{Files: 1}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		x.logger.Warn("skipping unreadable file", slog.String("file", path), slog.String("error", err.Error()))
		stats.Failed++
		recordFile("read_error", time.Since(start).Seconds())
		return stats, nil
	}
	sum := sha256.Sum256(content)
	contentHash := hex.EncodeToString(sum[:])

	if x.store != nil {
		unchanged, err := x.store.SourceUnchanged(ctx, path, contentHash)
		if err != nil {
			x.logger.Warn("corpus lookup failed", slog.String("file", path), slog.String("error", err.Error()))
		} else if unchanged {
			if !x.replay {
				stats.Unchanged++
				recordFile("unchanged", time.Since(start).Seconds())
				return stats, nil
			}
			n, emitErr, err := x.replaySource(ctx, path, em)
			if emitErr != nil {
				return stats, emitErr
			}
			stats.Documents += n
			if err == nil {
				stats.Unchanged++
				recordFile("unchanged", time.Since(start).Seconds())
				return stats, nil
			}
			if n > 0 {
				x.logger.Warn("corpus replay interrupted", slog.String("file", path), slog.String("error", err.Error()))
				stats.Failed++
				recordFile("replay_error", time.Since(start).Seconds())
				return stats, nil
			}
			x.logger.Warn("corpus replay failed, re-extracting", slog.String("file", path), slog.String("error", err.Error()))
		}
	}

	persist := x.store != nil
	if persist {
		if err := x.store.ForgetSource(ctx, path); err != nil {
			persist = false
			x.logger.Warn("corpus cleanup failed", slog.String("file", path), slog.String("error", err.Error()))
		}
	}
	persisted := persist

	var emitErr error
	fstats, err := x.EachDocument(ctx, path, content, func(doc Document) error {
		if err := em.Emit(doc); err != nil {
			emitErr = err
			return err
		}
		recordDocument(len(doc.Sequences))
		if persist {
			if err := x.store.Put(ctx, doc); err != nil {
				persisted = false
				x.logger.Warn("corpus put failed", slog.String("file", path), slog.String("error", err.Error()))
			}
		}
		return nil
	})
	fstats.Files = 1
	stats = fstats
	if emitErr != nil {
		return stats, emitErr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		x.logger.Warn("skipping unparsable file", slog.String("file", path), slog.String("error", err.Error()))
		stats.Failed++
		recordFile("parse_error", time.Since(start).Seconds())
		return stats, nil
	}

	recordDropped(dropBoundCount, stats.BoundCount)
	recordDropped(dropBoundLength, stats.BoundLength)
	recordDropped(dropDegenerate, stats.Degenerate)
	recordDropped(dropDuplicate, stats.Duplicates)
	recordDropped(dropFiltered, stats.Filtered)
	if stats.Degenerate > 0 {
		x.logger.Debug("dropped degenerate IRs", slog.String("file", path), slog.Int("count", stats.Degenerate))
	}

	if persisted {
		if err := x.store.MarkSource(ctx, path, contentHash); err != nil {
			x.logger.Warn("corpus mark failed", slog.String("file", path), slog.String("error", err.Error()))
		}
	}

	recordFile("ok", time.Since(start).Seconds())
	return stats, nil
}

// replaySource emits the stored documents of path. emitErr is set when the
// output failed; err when the store did.
func (x *Extractor) replaySource(ctx context.Context, path string, em *Emitter) (n int, emitErr, err error) {
	n, err = x.store.SourceDocuments(ctx, path, func(doc Document) error {
		if err := em.Emit(doc); err != nil {
			emitErr = err
			return err
		}
		return nil
	})
	if emitErr != nil {
		return n, emitErr, nil
	}
	return n, nil, err
}

// CollectSources expands paths into a sorted, duplicate-free list of Java
// source files. Directories are walked recursively.
func CollectSources(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("collecting sources: %w", err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(d.Name(), ".java") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collecting sources under %s: %w", root, err)
		}
	}

	sort.Strings(files)
	return files, nil
}
