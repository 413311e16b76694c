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

import "testing"

func TestForest_Append(t *testing.T) {
	ctor := NewForest(Call("a.A.<init>()"), Call("a.A.open()"))
	method := NewForest(Call("a.A.read()"))

	joined := ctor.Append(method)
	if joined.Len() != 3 {
		t.Fatalf("joined.Len() = %d, want 3", joined.Len())
	}
	if ctor.Len() != 2 || method.Len() != 1 {
		t.Error("Append modified its inputs")
	}
	if joined.At(2).Signature() != "a.A.read()" {
		t.Errorf("last node = %q", joined.At(2).Signature())
	}

	// Appending twice to the same base must not alias.
	other := ctor.Append(NewForest(Call("a.A.write()")))
	if joined.At(2).Signature() != "a.A.read()" || other.At(2).Signature() != "a.A.write()" {
		t.Error("Append results share storage")
	}
}

func TestForest_HasUsableCall(t *testing.T) {
	tests := []struct {
		name string
		f    Forest
		want bool
	}{
		{"empty", Forest{}, false},
		{"call", NewForest(Call("a.A.x()")), true},
		{"empty branch", NewForest(Branch(Forest{}, Forest{})), false},
		{"else arm call", NewForest(Branch(Forest{}, NewForest(Call("a.A.x()")))), true},
		{"empty loop", NewForest(Loop(Forest{})), false},
		{"loop call", NewForest(Loop(NewForest(Call("a.A.x()")))), true},
		{"try handler call", NewForest(TryBlock(Forest{}, Forest{}, NewForest(Call("a.A.x()")))), true},
		{"try all empty", NewForest(TryBlock(Forest{}, Forest{})), false},
		{"nested empty", NewForest(Loop(NewForest(Branch(Forest{}, NewForest(Loop(Forest{})))))), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.HasUsableCall(); got != tt.want {
				t.Errorf("HasUsableCall() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestForest_KeyAndEqual(t *testing.T) {
	a := NewForest(Call("a.A.x()"), Branch(NewForest(Call("b.B.y()")), Forest{}))
	b := NewForest(Call("a.A.x()"), Branch(NewForest(Call("b.B.y()")), Forest{}))
	swapped := NewForest(Call("a.A.x()"), Branch(Forest{}, NewForest(Call("b.B.y()"))))

	if !a.Equal(b) || a.Key() != b.Key() {
		t.Error("identical forests should be equal with equal keys")
	}
	if a.Equal(swapped) || a.Key() == swapped.Key() {
		t.Error("swapped branch arms must produce a different forest")
	}

	// A call inside a loop differs from the same call at top level.
	if NewForest(Call("a.A.x()")).Key() == NewForest(Loop(NewForest(Call("a.A.x()")))).Key() {
		t.Error("nesting must be part of the key")
	}
}

func TestKey_AgreesWithEqualOnUnicodeSpelling(t *testing.T) {
	// "é" precomposed vs. "e" + combining acute are distinct Java identifiers.
	composed, decomposed := "p.Caf\u00e9.m()", "p.Cafe\u0301.m()"

	fc := NewForest(Call(composed))
	fd := NewForest(Call(decomposed))
	if fc.Equal(fd) {
		t.Fatal("forests with different signature bytes must not be equal")
	}
	if fc.Key() == fd.Key() {
		t.Error("forest keys must differ when Equal is false")
	}
	if !fc.Equal(NewForest(Call(composed))) || fc.Key() != NewForest(Call(composed)).Key() {
		t.Error("identical spelling must be equal with equal keys")
	}

	sc := NewSequence(composed, "p.X.y()")
	sd := NewSequence(decomposed, "p.X.y()")
	if sc.Equal(sd) {
		t.Fatal("sequences with different signature bytes must not be equal")
	}
	if sc.Key() == sd.Key() {
		t.Error("sequence keys must differ when Equal is false")
	}
}

func TestSequence_KeyAndCompare(t *testing.T) {
	a := NewSequence("x", "y")
	b := NewSequence("x", "y")
	c := NewSequence("x")

	if a.Key() != b.Key() {
		t.Error("equal sequences must share a key")
	}
	if a.Key() == c.Key() {
		t.Error("different sequences must not share a key")
	}
	if a.Compare(b) != 0 || c.Compare(a) != -1 || a.Compare(c) != 1 {
		t.Error("Compare ordering is wrong")
	}
	// Sequence keys are length-prefixed so ["ab"] differs from ["a","b"].
	if NewSequence("ab").Key() == NewSequence("a", "b").Key() {
		t.Error("key encoding is ambiguous")
	}
}

func TestNode_HandlersCopy(t *testing.T) {
	n := TryBlock(Forest{}, NewForest(Call("a.A.x()")))
	hs := n.Handlers()
	hs[0] = Forest{}
	if n.Handlers()[0].Len() != 1 {
		t.Error("Handlers() exposed internal storage")
	}
}
