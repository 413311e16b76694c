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
	"testing"
)

// calls builds a forest of n distinct call nodes with the given prefix.
func calls(prefix string, n int) Forest {
	nodes := make([]Node, n)
	for i := 0; i < n; i++ {
		nodes[i] = Call(fmt.Sprintf("%s.m%d()", prefix, i))
	}
	return NewForest(nodes...)
}

func lengths(seqs []Sequence) []int {
	out := make([]int, len(seqs))
	for i, s := range seqs {
		out[i] = s.Len()
	}
	return out
}

func TestEnumerate_EmptyForest(t *testing.T) {
	seqs, err := Enumerate(Forest{}, NewBounds(10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seqs) != 1 || seqs[0].Len() != 0 {
		t.Fatalf("expected one empty sequence, got %v", seqs)
	}
}

func TestEnumerate_StraightLine(t *testing.T) {
	seqs, err := Enumerate(calls("a.A", 3), NewBounds(10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("expected 1 sequence, got %d", len(seqs))
	}
	want := NewSequence("a.A.m0()", "a.A.m1()", "a.A.m2()")
	if !seqs[0].Equal(want) {
		t.Errorf("got %v, want %v", seqs[0], want)
	}
}

func TestEnumerate_BranchLaw(t *testing.T) {
	tests := []struct {
		k, m int
	}{
		{1, 1},
		{2, 3},
		{0, 4},
		{3, 0},
		{0, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("k=%d,m=%d", tt.k, tt.m), func(t *testing.T) {
			f := NewForest(Branch(calls("a.A", tt.k), calls("b.B", tt.m)))
			seqs, err := Enumerate(f, NewBounds(10, 10))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(seqs) != 2 {
				t.Fatalf("expected 2 sequences, got %d", len(seqs))
			}
			got := lengths(seqs)
			if got[0] != tt.k || got[1] != tt.m {
				t.Errorf("lengths = %v, want [%d %d]", got, tt.k, tt.m)
			}
		})
	}
}

func TestEnumerate_LoopLaw(t *testing.T) {
	for n := 1; n <= 5; n++ {
		f := NewForest(Loop(calls("a.A", n)))
		seqs, err := Enumerate(f, NewBounds(10, 10))
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(seqs) != 1 || seqs[0].Len() != n {
			t.Errorf("n=%d: got %v", n, lengths(seqs))
		}
	}
}

func TestEnumerate_LoopUnrollConfigurable(t *testing.T) {
	f := NewForest(Loop(calls("a.A", 2)))
	seqs, err := Enumerate(f, Bounds{MaxSequences: 10, MaxLength: 10, LoopUnroll: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seqs) != 1 || seqs[0].Len() != 6 {
		t.Errorf("expected one sequence of length 6, got %v", lengths(seqs))
	}
}

func TestEnumerate_TryBlockLaw(t *testing.T) {
	for h := 0; h <= 4; h++ {
		handlers := make([]Forest, h)
		for i := range handlers {
			handlers[i] = calls(fmt.Sprintf("h%d.H", i), 1)
		}
		f := NewForest(TryBlock(calls("a.A", 2), handlers...))
		seqs, err := Enumerate(f, NewBounds(10, 10))
		if err != nil {
			t.Fatalf("h=%d: unexpected error: %v", h, err)
		}
		if len(seqs) != h+1 {
			t.Errorf("h=%d: expected %d sequences, got %d", h, h+1, len(seqs))
		}
		if seqs[0].Len() != 2 {
			t.Errorf("h=%d: uninterrupted path length = %d, want 2", h, seqs[0].Len())
		}
		for i := 1; i < len(seqs); i++ {
			if seqs[i].Len() != 3 {
				t.Errorf("h=%d: handler path %d length = %d, want 3", h, i, seqs[i].Len())
			}
		}
	}
}

func TestEnumerate_NestedBranchInLoop(t *testing.T) {
	f := NewForest(
		Call("x.X.open()"),
		Loop(NewForest(Branch(calls("a.A", 1), calls("b.B", 2)))),
		Call("x.X.close()"),
	)
	seqs, err := Enumerate(f, NewBounds(10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Sequence{
		NewSequence("x.X.open()", "a.A.m0()", "x.X.close()"),
		NewSequence("x.X.open()", "b.B.m0()", "b.B.m1()", "x.X.close()"),
	}
	if len(seqs) != len(want) {
		t.Fatalf("got %d sequences, want %d", len(seqs), len(want))
	}
	for i := range want {
		if !seqs[i].Equal(want[i]) {
			t.Errorf("seq[%d] = %v, want %v", i, seqs[i], want[i])
		}
	}
}

func TestEnumerate_CountCapAborts(t *testing.T) {
	f := NewForest(Branch(calls("a.A", 1), calls("b.B", 1)))
	seqs, err := Enumerate(f, NewBounds(1, 10))
	if !errors.Is(err, ErrSequenceCountExceeded) {
		t.Fatalf("expected ErrSequenceCountExceeded, got %v", err)
	}
	if seqs != nil {
		t.Errorf("expected no partial result, got %v", seqs)
	}

	var be *BoundError
	if !errors.As(err, &be) {
		t.Fatalf("expected *BoundError, got %T", err)
	}
	if be.Limit != 1 || be.Observed != 2 {
		t.Errorf("BoundError = %+v, want limit 1 observed 2", be)
	}
}

func TestEnumerate_CountCapNestedBranches(t *testing.T) {
	// Three sequential branches produce 8 paths.
	b := Branch(calls("a.A", 1), calls("b.B", 1))
	f := NewForest(b, b, b)

	if _, err := Enumerate(f, NewBounds(8, 10)); err != nil {
		t.Fatalf("8 paths should fit a cap of 8: %v", err)
	}
	if _, err := Enumerate(f, NewBounds(7, 10)); !errors.Is(err, ErrSequenceCountExceeded) {
		t.Fatalf("expected ErrSequenceCountExceeded, got %v", err)
	}
}

func TestEnumerate_TryBlockCountCap(t *testing.T) {
	f := NewForest(TryBlock(calls("a.A", 1), calls("h.H", 1), calls("i.I", 1)))
	if _, err := Enumerate(f, NewBounds(2, 10)); !errors.Is(err, ErrSequenceCountExceeded) {
		t.Fatalf("expected ErrSequenceCountExceeded, got %v", err)
	}
}

func TestEnumerate_LengthCapAborts(t *testing.T) {
	f := calls("a.A", 4)
	if _, err := Enumerate(f, NewBounds(10, 4)); err != nil {
		t.Fatalf("length 4 should fit a cap of 4: %v", err)
	}
	seqs, err := Enumerate(f, NewBounds(10, 3))
	if !errors.Is(err, ErrSequenceLengthExceeded) {
		t.Fatalf("expected ErrSequenceLengthExceeded, got %v", err)
	}
	if seqs != nil {
		t.Errorf("expected no partial result, got %v", seqs)
	}
}

func TestEnumerate_LengthCapOnlyOneArm(t *testing.T) {
	f := NewForest(Branch(calls("a.A", 1), calls("b.B", 5)))
	if _, err := Enumerate(f, NewBounds(10, 4)); !errors.Is(err, ErrSequenceLengthExceeded) {
		t.Fatalf("expected ErrSequenceLengthExceeded, got %v", err)
	}
}

func TestEnumerate_InvalidBounds(t *testing.T) {
	tests := []Bounds{
		{MaxSequences: 0, MaxLength: 1, LoopUnroll: 1},
		{MaxSequences: 1, MaxLength: 0, LoopUnroll: 1},
		{MaxSequences: 1, MaxLength: 1, LoopUnroll: 0},
		{MaxSequences: -3, MaxLength: 1, LoopUnroll: 1},
	}
	for _, b := range tests {
		if _, err := Enumerate(calls("a.A", 1), b); !errors.Is(err, ErrInvalidBounds) {
			t.Errorf("bounds %+v: expected ErrInvalidBounds, got %v", b, err)
		}
	}
}

func TestEnumerate_DuplicatesKept(t *testing.T) {
	// Symmetric arms produce duplicates; dedup is the next stage's job.
	f := NewForest(Branch(calls("a.A", 1), calls("a.A", 1)))
	seqs, err := Enumerate(f, NewBounds(10, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seqs) != 2 || !seqs[0].Equal(seqs[1]) {
		t.Errorf("expected two identical sequences, got %v", seqs)
	}
}

func TestEnumerate_DoesNotMutateInput(t *testing.T) {
	f := NewForest(Call("a.A.x()"), Branch(calls("b.B", 1), Forest{}))
	before := f.Key()
	if _, err := Enumerate(f, NewBounds(10, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Key() != before {
		t.Error("forest changed during enumeration")
	}
}
