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

import "fmt"

// DefaultLoopUnroll is the number of passes a Loop body contributes.
const DefaultLoopUnroll = 1

// Bounds caps the cost of enumerating one IR.
//
// All fields come from configuration. None of them may be zero.
type Bounds struct {
	// MaxSequences is the largest number of live sequences allowed at any
	// point during enumeration.
	MaxSequences int

	// MaxLength is the longest sequence allowed.
	MaxLength int

	// LoopUnroll is the number of times a Loop body is traversed.
	LoopUnroll int
}

// NewBounds returns bounds with the default loop unroll.
func NewBounds(maxSequences, maxLength int) Bounds {
	return Bounds{MaxSequences: maxSequences, MaxLength: maxLength, LoopUnroll: DefaultLoopUnroll}
}

// Validate rejects non-positive caps.
func (b Bounds) Validate() error {
	if b.MaxSequences <= 0 {
		return fmt.Errorf("%w: max sequences must be positive, got %d", ErrInvalidBounds, b.MaxSequences)
	}
	if b.MaxLength <= 0 {
		return fmt.Errorf("%w: max length must be positive, got %d", ErrInvalidBounds, b.MaxLength)
	}
	if b.LoopUnroll <= 0 {
		return fmt.Errorf("%w: loop unroll must be positive, got %d", ErrInvalidBounds, b.LoopUnroll)
	}
	return nil
}

// Enumerate expands a forest into its linear call sequences.
//
// Description:
//
//	Walks the forest depth-first while keeping a frontier of live partial
//	sequences, starting from a single empty sequence:
//
//	  Call     - appends the signature to every live sequence.
//	  Branch   - forks every live sequence into a then-continuation and an
//	             else-continuation. An empty arm adds nothing.
//	  Loop     - traverses the body LoopUnroll times.
//	  TryBlock - forks into the uninterrupted body path plus, per handler,
//	             the body path followed by that handler.
//
//	Bounds are checked at every extension and fork. Exceeding either cap
//	aborts the whole enumeration; a partial result is never returned.
//	Duplicate sequences are kept; deduplication is the caller's job.
//
// Inputs:
//
//	f - The forest to enumerate.
//	b - Enumeration caps. Must pass Validate.
//
// Outputs:
//
//	[]Sequence - All completed sequences in deterministic order.
//	error - ErrInvalidBounds, or a *BoundError wrapping
//	        ErrSequenceCountExceeded / ErrSequenceLengthExceeded.
//
// Thread Safety: Safe for concurrent use; no shared state.
func Enumerate(f Forest, b Bounds) ([]Sequence, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	e := enumerator{bounds: b}
	frontier, err := e.forest(f, [][]string{{}})
	if err != nil {
		return nil, err
	}

	out := make([]Sequence, len(frontier))
	for i, calls := range frontier {
		out[i] = Sequence{calls: calls}
	}
	return out, nil
}

// enumerator carries the caps through one Enumerate call.
//
// Partial sequences are plain slices that are never written after they are
// placed in a frontier; extension always copies.
type enumerator struct {
	bounds Bounds
}

func (e enumerator) forest(f Forest, frontier [][]string) ([][]string, error) {
	var err error
	for _, n := range f.nodes {
		frontier, err = e.node(n, frontier)
		if err != nil {
			return nil, err
		}
	}
	return frontier, nil
}

func (e enumerator) node(n Node, frontier [][]string) ([][]string, error) {
	switch n.kind {
	case KindCall:
		return e.call(n.call, frontier)

	case KindBranch:
		if err := e.checkCount(2 * len(frontier)); err != nil {
			return nil, err
		}
		thenOut, err := e.forest(n.then, frontier)
		if err != nil {
			return nil, err
		}
		elseOut, err := e.forest(n.els, frontier)
		if err != nil {
			return nil, err
		}
		return e.join(thenOut, elseOut)

	case KindLoop:
		out := frontier
		for i := 0; i < e.bounds.LoopUnroll; i++ {
			var err error
			out, err = e.forest(n.body, out)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	case KindTryBlock:
		bodyOut, err := e.forest(n.body, frontier)
		if err != nil {
			return nil, err
		}
		if err := e.checkCount((len(n.handlers) + 1) * len(bodyOut)); err != nil {
			return nil, err
		}
		out := bodyOut
		for _, h := range n.handlers {
			handlerOut, err := e.forest(h, bodyOut)
			if err != nil {
				return nil, err
			}
			out, err = e.join(out, handlerOut)
			if err != nil {
				return nil, err
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown node kind %d", ErrInvalidIR, n.kind)
	}
}

func (e enumerator) call(sig string, frontier [][]string) ([][]string, error) {
	out := make([][]string, len(frontier))
	for i, seq := range frontier {
		if len(seq)+1 > e.bounds.MaxLength {
			return nil, &BoundError{Err: ErrSequenceLengthExceeded, Limit: e.bounds.MaxLength, Observed: len(seq) + 1}
		}
		next := make([]string, len(seq)+1)
		copy(next, seq)
		next[len(seq)] = sig
		out[i] = next
	}
	return out, nil
}

// join concatenates two frontiers into a fresh one after checking the count.
func (e enumerator) join(a, b [][]string) ([][]string, error) {
	if err := e.checkCount(len(a) + len(b)); err != nil {
		return nil, err
	}
	out := make([][]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out, nil
}

func (e enumerator) checkCount(n int) error {
	if n > e.bounds.MaxSequences {
		return &BoundError{Err: ErrSequenceCountExceeded, Limit: e.bounds.MaxSequences, Observed: n}
	}
	return nil
}
