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
	"encoding/json"
	"fmt"
	"strings"
)

// Sequence is one concrete linear path of calls through an IR forest.
//
// Two sequences are equal iff their call lists are equal element-wise.
//
// Thread Safety: Sequence is immutable and safe for concurrent use.
type Sequence struct {
	calls []string
}

// NewSequence creates a sequence holding a copy of calls.
func NewSequence(calls ...string) Sequence {
	cs := make([]string, len(calls))
	copy(cs, calls)
	return Sequence{calls: cs}
}

// Len returns the number of calls.
func (s Sequence) Len() int { return len(s.calls) }

// Calls returns a copy of the call list.
func (s Sequence) Calls() []string {
	cs := make([]string, len(s.calls))
	copy(cs, s.calls)
	return cs
}

// Equal reports element-wise equality.
func (s Sequence) Equal(o Sequence) bool {
	if len(s.calls) != len(o.calls) {
		return false
	}
	for i := range s.calls {
		if s.calls[i] != o.calls[i] {
			return false
		}
	}
	return true
}

// Compare orders sequences lexicographically by call, then by length.
// Returns -1, 0 or +1.
func (s Sequence) Compare(o Sequence) int {
	for i := 0; i < len(s.calls) && i < len(o.calls); i++ {
		if c := strings.Compare(s.calls[i], o.calls[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(s.calls) < len(o.calls):
		return -1
	case len(s.calls) > len(o.calls):
		return 1
	default:
		return 0
	}
}

// String renders the sequence as "a -> b -> c".
func (s Sequence) String() string {
	return strings.Join(s.calls, " -> ")
}

// MarshalJSON encodes the sequence as a JSON array of signatures.
func (s Sequence) MarshalJSON() ([]byte, error) {
	calls := s.calls
	if calls == nil {
		calls = []string{}
	}
	return EncodeJSON(calls)
}

// UnmarshalJSON decodes a JSON array of signatures.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var calls []string
	if err := json.Unmarshal(data, &calls); err != nil {
		return fmt.Errorf("decoding sequence: %w", err)
	}
	*s = NewSequence(calls...)
	return nil
}
