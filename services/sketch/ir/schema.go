// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ir

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/sketch.schema.json
var sketchSchemaJSON []byte

const sketchSchemaURL = "sketch.schema.json"

var (
	sketchSchemaOnce sync.Once
	sketchSchema     *jsonschema.Schema
	sketchSchemaErr  error
)

// SketchSchema returns the raw JSON Schema for IR documents.
func SketchSchema() []byte {
	out := make([]byte, len(sketchSchemaJSON))
	copy(out, sketchSchemaJSON)
	return out
}

// ValidateSketch checks an IR document against the embedded JSON Schema.
//
// Description:
//
//	Sketches come from an external model and are untrusted. Violations
//	are reported with their JSON location.
//
// Inputs:
//
//	data - Raw JSON of an Envelope.
//
// Outputs:
//
//	error - Wraps ErrInvalidIR on any violation. Nil if valid.
//
// Thread Safety: Safe for concurrent use. The schema is compiled once.
func ValidateSketch(data []byte) error {
	schema, err := compiledSketchSchema()
	if err != nil {
		return fmt.Errorf("compiling sketch schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIR, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIR, err)
	}
	return nil
}

// ParseSketch validates and decodes an externally produced IR document.
func ParseSketch(data []byte) (Forest, error) {
	if err := ValidateSketch(data); err != nil {
		return Forest{}, err
	}
	return UnmarshalIR(data)
}

func compiledSketchSchema() (*jsonschema.Schema, error) {
	sketchSchemaOnce.Do(func() {
		var schemaDoc any
		if err := json.Unmarshal(sketchSchemaJSON, &schemaDoc); err != nil {
			sketchSchemaErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(sketchSchemaURL, schemaDoc); err != nil {
			sketchSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		sketchSchema, sketchSchemaErr = c.Compile(sketchSchemaURL)
	})
	return sketchSchema, sketchSchemaErr
}
