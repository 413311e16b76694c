// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/apisketch/services/sketch/ast"
	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

var synthesisTracer = otel.Tracer("aleutian.sketch.synthesis")

const (
	// DefaultTypeCacheSize is the number of resolved type contexts kept.
	DefaultTypeCacheSize = 256

	// DefaultTimeout bounds one engine call.
	DefaultTimeout = 60 * time.Second
)

// Result is the outcome of a successful synthesis call.
type Result struct {
	// Candidates are the engine's programs that passed validation, in
	// engine order. Empty means the engine found nothing.
	Candidates []string `json:"candidates"`

	// Dropped is the number of engine candidates that failed validation.
	Dropped int `json:"dropped"`
}

// Service enforces the synthesis call contract around an Engine.
//
// Description:
//
//	Before the call, the sketch must conform to the IR schema. After the
//	call, each candidate must parse as an error-free Java compilation unit
//	declaring exactly one top-level type; candidates that do not are
//	dropped and counted. A call that succeeds with no surviving
//	candidates returns an empty Result and a nil error. Engine failures
//	are returned as *EngineError.
//
// Thread Safety:
//
//	Safe for concurrent use. The type context cache is internally locked.
type Service struct {
	engine  Engine
	parser  *ast.JavaParser
	types   *lru.Cache[string, []string]
	timeout time.Duration
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	cacheSize int
	timeout   time.Duration
	logger    *slog.Logger
}

// WithTypeCacheSize sets the type context cache capacity.
func WithTypeCacheSize(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithTimeout bounds each engine call. Zero disables the bound.
func WithTimeout(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.timeout = d
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService wraps engine.
//
// Inputs:
//
//	engine - The engine. Must not be nil.
//	opts   - Optional settings.
//
// Outputs:
//
//	*Service - Ready to use.
//	error    - Non-nil if engine is nil.
func NewService(engine Engine, opts ...ServiceOption) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("NewService: engine must not be nil")
	}
	o := serviceOptions{
		cacheSize: DefaultTypeCacheSize,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[string, []string](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("NewService: creating type cache: %w", err)
	}
	return &Service{
		engine:  engine,
		parser:  ast.NewJavaParser(),
		types:   cache,
		timeout: o.timeout,
		logger:  o.logger,
	}, nil
}

// Synthesize validates req, calls the engine and validates its candidates.
//
// Inputs:
//
//	ctx - Context for cancellation and tracing.
//	req - The request. SourceCode and Sketch are required.
//
// Outputs:
//
//	*Result - Surviving candidates. Non-nil when err is nil.
//	error   - ErrInvalidRequest or ErrInvalidSketch for bad input,
//	          *EngineError for engine failures.
func (s *Service) Synthesize(ctx context.Context, req Request) (*Result, error) {
	ctx, span := synthesisTracer.Start(ctx, "synthesis.Service.Synthesize")
	defer span.End()
	start := time.Now()

	result, err := s.synthesize(ctx, req)

	outcome := outcomeOf(result, err)
	recordRequest(outcome, time.Since(start).Seconds())
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("candidates", len(result.Candidates)),
		attribute.Int("dropped", result.Dropped),
	)
	return result, nil
}

func (s *Service) synthesize(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.SourceCode) == "" {
		return nil, fmt.Errorf("%w: source code must not be empty", ErrInvalidRequest)
	}
	if len(req.Sketch) == 0 {
		return nil, fmt.Errorf("%w: sketch must not be empty", ErrInvalidRequest)
	}
	if _, err := ir.ParseSketch(req.Sketch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSketch, err)
	}

	req.Classpath = s.resolveTypeContext(req.TypeContext)

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	candidates, err := s.engine.Synthesize(callCtx, req)
	if err != nil {
		var ee *EngineError
		if errors.As(err, &ee) {
			return nil, err
		}
		return nil, &EngineError{Err: err}
	}

	result := &Result{Candidates: make([]string, 0, len(candidates))}
	for i, c := range candidates {
		if err := s.CheckCandidate(ctx, c); err != nil {
			result.Dropped++
			s.logger.Warn("dropping synthesis candidate",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		result.Candidates = append(result.Candidates, c)
	}
	recordDropped(result.Dropped)
	return result, nil
}

// CheckCandidate verifies that code parses without errors as a compilation
// unit declaring exactly one top-level type.
func (s *Service) CheckCandidate(ctx context.Context, code string) error {
	unit, err := s.parser.Parse(ctx, []byte(code), "Candidate.java")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCandidateSyntax, err)
	}
	defer unit.Close()

	if unit.HasErrors() {
		return fmt.Errorf("%w: %s", ErrCandidateSyntax, strings.Join(unit.Errors, "; "))
	}
	if len(unit.Types) != 1 {
		return fmt.Errorf("%w: found %d", ErrCandidateShape, len(unit.Types))
	}
	return nil
}

// resolveTypeContext splits a classpath-style context into cleaned,
// duplicate-free entries, caching the result.
func (s *Service) resolveTypeContext(typeContext string) []string {
	if typeContext == "" {
		return nil
	}
	if entries, ok := s.types.Get(typeContext); ok {
		recordTypeCache(true)
		return entries
	}
	recordTypeCache(false)

	seen := make(map[string]bool)
	var entries []string
	for _, e := range strings.Split(typeContext, ":") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		e = filepath.Clean(e)
		if !seen[e] {
			seen[e] = true
			entries = append(entries, e)
		}
	}
	s.types.Add(typeContext, entries)
	return entries
}

func outcomeOf(result *Result, err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return outcomeInvalidRequest
	case errors.Is(err, ErrInvalidSketch):
		return outcomeInvalidSketch
	case err != nil:
		return outcomeEngineError
	case len(result.Candidates) == 0:
		return outcomeEmpty
	}
	return outcomeOK
}
