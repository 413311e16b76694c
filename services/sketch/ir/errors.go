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
	"errors"
	"fmt"
)

var (
	// ErrSequenceCountExceeded indicates that enumeration would produce more
	// live sequences than Bounds.MaxSequences allows.
	ErrSequenceCountExceeded = errors.New("sequence count exceeded")

	// ErrSequenceLengthExceeded indicates that some sequence would grow
	// longer than Bounds.MaxLength.
	ErrSequenceLengthExceeded = errors.New("sequence length exceeded")

	// ErrInvalidBounds indicates a non-positive cap or unroll count.
	ErrInvalidBounds = errors.New("invalid enumeration bounds")

	// ErrInvalidIR indicates an IR document that does not decode.
	ErrInvalidIR = errors.New("invalid IR document")
)

// BoundError reports which cap an enumeration hit.
//
// Description:
//
//	Wraps ErrSequenceCountExceeded or ErrSequenceLengthExceeded so callers
//	can use errors.Is to tell the two apart. Limit is the configured cap,
//	Observed the value that would have exceeded it.
//
// Example:
//
//	seqs, err := ir.Enumerate(forest, bounds)
//	if errors.Is(err, ir.ErrSequenceCountExceeded) {
//	    // skip this IR
//	}
type BoundError struct {
	Err      error
	Limit    int
	Observed int
}

// Error implements error.
func (e *BoundError) Error() string {
	return fmt.Sprintf("%v: %d > %d", e.Err, e.Observed, e.Limit)
}

// Unwrap returns the sentinel.
func (e *BoundError) Unwrap() error { return e.Err }

// IsBoundError reports whether err is an enumeration bound violation.
func IsBoundError(err error) bool {
	var be *BoundError
	return errors.As(err, &be)
}
