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
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates a request missing required fields.
	ErrInvalidRequest = errors.New("invalid synthesis request")

	// ErrInvalidSketch indicates a sketch that does not conform to the IR
	// schema.
	ErrInvalidSketch = errors.New("invalid sketch")

	// ErrCandidateSyntax indicates a candidate that does not parse cleanly.
	ErrCandidateSyntax = errors.New("candidate has syntax errors")

	// ErrCandidateShape indicates a candidate that is not exactly one
	// top-level type declaration.
	ErrCandidateShape = errors.New("candidate must declare exactly one top-level type")
)

// EngineError reports a failure of the synthesis engine itself, as opposed
// to a successful call that produced no candidates.
type EngineError struct {
	// StatusCode is the engine's HTTP status, 0 when no response arrived.
	StatusCode int

	// Message is the engine's error text, if any.
	Message string

	Err error
}

// Error implements error.
func (e *EngineError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("synthesis engine returned %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("synthesis engine returned %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("synthesis engine: %v", e.Err)
	}
	return "synthesis engine failed"
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error { return e.Err }

// IsEngineError reports whether err is an engine failure.
func IsEngineError(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}
