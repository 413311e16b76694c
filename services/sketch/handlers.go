// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sketch exposes API-usage sketch extraction and synthesis over
// HTTP.
package sketch

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/apisketch/services/sketch/ast"
	"github.com/AleutianAI/apisketch/services/sketch/extract"
	"github.com/AleutianAI/apisketch/services/sketch/ir"
	"github.com/AleutianAI/apisketch/services/sketch/synthesis"
)

// requestIDHeader carries the caller's request ID.
const requestIDHeader = "X-Request-ID"

// defaultSourceFile names documents extracted from unnamed sources.
const defaultSourceFile = "Input.java"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ExtractRequest is the body of POST /v1/sketch/extract.
type ExtractRequest struct {
	SourceFile string `json:"source_file"`
	SourceCode string `json:"source_code" binding:"required"`
}

// ExtractResponse is the body returned by POST /v1/sketch/extract.
type ExtractResponse struct {
	Documents []extract.Document `json:"documents"`
	Stats     extract.Stats      `json:"stats"`
}

// HealthResponse is the body returned by GET /v1/sketch/health.
type HealthResponse struct {
	Status    string `json:"status"`
	Synthesis bool   `json:"synthesis"`
}

// Handlers serves the sketch HTTP endpoints.
//
// Thread Safety: Safe for concurrent use. Both dependencies are.
type Handlers struct {
	extractor *extract.Extractor
	synth     *synthesis.Service
}

// NewHandlers creates handlers.
//
// Inputs:
//
//	extractor - Required.
//	synth     - Optional. When nil, the synthesize endpoint answers 503.
func NewHandlers(extractor *extract.Extractor, synth *synthesis.Service) (*Handlers, error) {
	if extractor == nil {
		return nil, errors.New("NewHandlers: extractor must not be nil")
	}
	return &Handlers{extractor: extractor, synth: synth}, nil
}

// HandleExtract handles POST /v1/sketch/extract.
//
// Description:
//
//	Extracts training documents from one Java source. Malformed code is
//	tolerated the way the batch extractor tolerates it; the response may
//	hold zero documents.
//
// Response:
//
//	200 OK: ExtractResponse
//	400 Bad Request: Missing source or content that is not UTF-8
//	413 Request Entity Too Large: Source exceeds the configured size
func (h *Handlers) HandleExtract(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleExtract")

	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	sourceFile := strings.TrimSpace(req.SourceFile)
	if sourceFile == "" {
		sourceFile = defaultSourceFile
	}

	docs, stats, err := h.extractor.ExtractSource(c.Request.Context(), sourceFile, []byte(req.SourceCode))
	if err != nil {
		logger.Warn("Extraction failed", slog.String("source_file", sourceFile), slog.String("error", err.Error()))
		switch {
		case errors.Is(err, ast.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: "SOURCE_TOO_LARGE"})
		case errors.Is(err, ast.ErrInvalidContent):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_CONTENT"})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "EXTRACTION_FAILED"})
		}
		return
	}
	if docs == nil {
		docs = []extract.Document{}
	}

	logger.Debug("Extraction complete",
		slog.String("source_file", sourceFile),
		slog.Int("documents", len(docs)),
	)
	c.JSON(http.StatusOK, ExtractResponse{Documents: docs, Stats: stats})
}

// HandleSynthesize handles POST /v1/sketch/synthesize.
//
// Response:
//
//	200 OK: synthesis.Result, possibly with no candidates
//	400 Bad Request: Missing fields or a sketch that fails the IR schema
//	502 Bad Gateway: The engine failed
//	503 Service Unavailable: No engine configured
func (h *Handlers) HandleSynthesize(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleSynthesize")

	if h.synth == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "synthesis engine is not configured",
			Code:  "SYNTHESIS_DISABLED",
		})
		return
	}

	var req synthesis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	result, err := h.synth.Synthesize(c.Request.Context(), req)
	switch {
	case errors.Is(err, synthesis.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
	case errors.Is(err, synthesis.ErrInvalidSketch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_SKETCH"})
	case err != nil:
		logger.Error("Synthesis engine failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "ENGINE_ERROR"})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// HandleHealth handles GET /v1/sketch/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Synthesis: h.synth != nil})
}

// HandleSchema handles GET /v1/sketch/schema.
//
// Returns the JSON Schema that sketches sent to /synthesize must satisfy.
func (h *Handlers) HandleSchema(c *gin.Context) {
	getOrCreateRequestID(c)
	c.Data(http.StatusOK, "application/schema+json", ir.SketchSchema())
}

// getOrCreateRequestID returns the caller's request ID or a new one, and
// echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	return id
}
