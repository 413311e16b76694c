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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/apisketch/services/sketch/config"
)

// maxEngineResponseBytes caps the engine response body that is read.
const maxEngineResponseBytes = 16 << 20

// engineResponse is the engine's JSON reply.
type engineResponse struct {
	Candidates []string `json:"candidates"`
	Error      string   `json:"error,omitempty"`
}

// HTTPEngine calls a synthesis engine over HTTP.
//
// Description:
//
//	POSTs the Request as JSON to {baseURL}/synthesize and expects
//	{"candidates": [...]} back. Non-2xx replies and transport failures are
//	returned as *EngineError. Outbound calls are rate limited when a rate
//	is configured.
//
// Thread Safety: Safe for concurrent use.
type HTTPEngine struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPEngine creates an engine client from configuration.
//
// Outputs:
//
//	*HTTPEngine - Ready to use.
//	error       - Non-nil if no engine URL is configured.
func NewHTTPEngine(cfg config.SynthesisConfig) (*HTTPEngine, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.EngineURL), "/")
	if base == "" {
		return nil, fmt.Errorf("NewHTTPEngine: engine URL must not be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &HTTPEngine{
		url:    base + "/synthesize",
		client: &http.Client{Timeout: timeout + 5*time.Second},
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return e, nil
}

// Synthesize implements Engine.
func (e *HTTPEngine) Synthesize(ctx context.Context, req Request) ([]string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &EngineError{Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &EngineError{Err: fmt.Errorf("synthesis HTTP call: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEngineResponseBytes))
	if err != nil {
		return nil, &EngineError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read synthesis response: %w", err)}
	}

	var parsed engineResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := parsed.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, &EngineError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &EngineError{StatusCode: resp.StatusCode, Err: fmt.Errorf("parse synthesis response: %w", decodeErr)}
	}
	if parsed.Error != "" {
		return nil, &EngineError{StatusCode: resp.StatusCode, Message: parsed.Error}
	}
	return parsed.Candidates, nil
}
