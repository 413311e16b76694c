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

// Forest is an ordered list of top-level IR nodes.
//
// Description:
//
//	A Forest is produced by exactly one build step and is never modified
//	afterwards. Append returns a new Forest instead of extending the
//	receiver, so a constructor forest can be stitched with many method
//	forests without aliasing.
//
// Thread Safety:
//
//	Forest is immutable and safe for concurrent use.
type Forest struct {
	nodes []Node
}

// NewForest creates a forest holding a copy of nodes.
func NewForest(nodes ...Node) Forest {
	if len(nodes) == 0 {
		return Forest{}
	}
	ns := make([]Node, len(nodes))
	copy(ns, nodes)
	return Forest{nodes: ns}
}

// Len returns the number of top-level nodes.
func (f Forest) Len() int { return len(f.nodes) }

// At returns the i-th top-level node.
func (f Forest) At(i int) Node { return f.nodes[i] }

// Nodes returns a copy of the top-level nodes.
func (f Forest) Nodes() []Node {
	ns := make([]Node, len(f.nodes))
	copy(ns, f.nodes)
	return ns
}

// IsEmpty reports whether the forest has no nodes.
func (f Forest) IsEmpty() bool { return len(f.nodes) == 0 }

// Append returns a new forest containing f's nodes followed by other's.
//
// Description:
//
//	Used to stitch a constructor's forest with a method's forest. Neither
//	input is modified.
//
// Outputs:
//
//	Forest - A fresh forest with len(f)+len(other) nodes.
func (f Forest) Append(other Forest) Forest {
	if other.IsEmpty() {
		return f
	}
	if f.IsEmpty() {
		return other
	}
	ns := make([]Node, 0, len(f.nodes)+len(other.nodes))
	ns = append(ns, f.nodes...)
	ns = append(ns, other.nodes...)
	return Forest{nodes: ns}
}

// HasUsableCall reports whether some path through the forest contains at
// least one call. IRs for which this is false are degenerate and are never
// emitted.
func (f Forest) HasUsableCall() bool {
	for _, n := range f.nodes {
		if n.hasUsableCall() {
			return true
		}
	}
	return false
}

// Equal reports whether two forests are structurally identical.
func (f Forest) Equal(o Forest) bool {
	if len(f.nodes) != len(o.nodes) {
		return false
	}
	for i := range f.nodes {
		if !f.nodes[i].Equal(o.nodes[i]) {
			return false
		}
	}
	return true
}

// CallCount returns the number of call nodes anywhere in the forest.
func (f Forest) CallCount() int {
	count := 0
	f.Walk(func(n Node) bool {
		if n.kind == KindCall {
			count++
		}
		return true
	})
	return count
}

// Walk visits every node depth-first in source order. Returning false from
// visit skips the node's children.
func (f Forest) Walk(visit func(Node) bool) {
	for _, n := range f.nodes {
		walkNode(n, visit)
	}
}

func walkNode(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	switch n.kind {
	case KindCall:
	case KindBranch:
		n.then.Walk(visit)
		n.els.Walk(visit)
	case KindLoop:
		n.body.Walk(visit)
	case KindTryBlock:
		n.body.Walk(visit)
		for _, h := range n.handlers {
			h.Walk(visit)
		}
	}
}
