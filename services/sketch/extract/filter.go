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
	"sort"

	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

// Dedup reduces sequences to a set under structural equality.
//
// The result is sorted by ir.Sequence.Compare, so equal inputs in any
// order produce identical output and Dedup(Dedup(x)) equals Dedup(x).
func Dedup(seqs []ir.Sequence) []ir.Sequence {
	seen := make(map[string]bool, len(seqs))
	out := make([]ir.Sequence, 0, len(seqs))
	for _, s := range seqs {
		k := s.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Compare(out[j]) < 0
	})
	return out
}

// Admit applies the minimum-content policy to a deduplicated set. It
// rejects an empty set and a set holding a single sequence of at most one
// call.
func Admit(seqs []ir.Sequence) bool {
	switch len(seqs) {
	case 0:
		return false
	case 1:
		return seqs[0].Len() > 1
	}
	return true
}
