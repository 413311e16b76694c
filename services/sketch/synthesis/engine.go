// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package synthesis is the boundary to the external synthesis engine. It
// validates sketches on the way in and candidates on the way out; how the
// engine realizes a sketch is not modeled here.
package synthesis

import (
	"context"
	"encoding/json"
)

// Request is one synthesis request.
type Request struct {
	// SourceCode is the program text containing the hole to fill.
	SourceCode string `json:"source_code"`

	// Sketch is an IR document, {"nodes": [...]}.
	Sketch json.RawMessage `json:"sketch"`

	// TypeContext is a classpath-style list of type resolution roots,
	// separated by ':'.
	TypeContext string `json:"type_context,omitempty"`

	// Classpath is TypeContext resolved into entries. Filled in by Service.
	Classpath []string `json:"classpath,omitempty"`
}

// Engine realizes sketches into candidate programs.
//
// Implementations return candidates in the engine's order. A nil error with
// no candidates means the engine ran and found nothing.
type Engine interface {
	Synthesize(ctx context.Context, req Request) ([]string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, req Request) ([]string, error)

// Synthesize calls f.
func (f EngineFunc) Synthesize(ctx context.Context, req Request) ([]string, error) {
	return f(ctx, req)
}
