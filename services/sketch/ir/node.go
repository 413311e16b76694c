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

// Kind is the tag of an IR node.
type Kind uint8

const (
	// KindCall is a single API call.
	KindCall Kind = iota + 1

	// KindBranch is a two-armed conditional.
	KindBranch

	// KindLoop is an iteration over a body.
	KindLoop

	// KindTryBlock is a guarded body with zero or more handlers.
	KindTryBlock
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "Call"
	case KindBranch:
		return "Branch"
	case KindLoop:
		return "Loop"
	case KindTryBlock:
		return "TryBlock"
	default:
		return "unknown"
	}
}

// parseKind maps a wire name back to its Kind. Returns 0 for unknown names.
func parseKind(s string) Kind {
	switch s {
	case "Call":
		return KindCall
	case "Branch":
		return KindBranch
	case "Loop":
		return KindLoop
	case "TryBlock":
		return KindTryBlock
	default:
		return 0
	}
}

// Node is one element of an API-usage IR.
//
// Description:
//
//	Node is a tagged variant. Kind() selects which accessors are meaningful:
//
//	  KindCall     - Signature()
//	  KindBranch   - Then(), Else()
//	  KindLoop     - Body()
//	  KindTryBlock - Body(), Handlers()
//
// Thread Safety:
//
//	Node is immutable after construction and safe for concurrent use.
type Node struct {
	kind     Kind
	call     string
	then     Forest
	els      Forest
	body     Forest
	handlers []Forest
}

// Call creates a call node for the given signature.
func Call(signature string) Node {
	return Node{kind: KindCall, call: signature}
}

// Branch creates a conditional node. Either arm may be empty.
func Branch(then, els Forest) Node {
	return Node{kind: KindBranch, then: then, els: els}
}

// Loop creates an iteration node over body.
func Loop(body Forest) Node {
	return Node{kind: KindLoop, body: body}
}

// TryBlock creates a guarded node with the given handlers, in source order.
func TryBlock(body Forest, handlers ...Forest) Node {
	hs := make([]Forest, len(handlers))
	copy(hs, handlers)
	return Node{kind: KindTryBlock, body: body, handlers: hs}
}

// Kind returns the node tag.
func (n Node) Kind() Kind { return n.kind }

// Signature returns the call signature of a KindCall node, "" otherwise.
func (n Node) Signature() string { return n.call }

// Then returns the first arm of a KindBranch node.
func (n Node) Then() Forest { return n.then }

// Else returns the second arm of a KindBranch node.
func (n Node) Else() Forest { return n.els }

// Body returns the body of a KindLoop or KindTryBlock node.
func (n Node) Body() Forest { return n.body }

// Handlers returns a copy of the handler forests of a KindTryBlock node.
func (n Node) Handlers() []Forest {
	hs := make([]Forest, len(n.handlers))
	copy(hs, n.handlers)
	return hs
}

// Equal reports whether two nodes are structurally identical.
func (n Node) Equal(o Node) bool {
	if n.kind != o.kind {
		return false
	}
	switch n.kind {
	case KindCall:
		return n.call == o.call
	case KindBranch:
		return n.then.Equal(o.then) && n.els.Equal(o.els)
	case KindLoop:
		return n.body.Equal(o.body)
	case KindTryBlock:
		if !n.body.Equal(o.body) || len(n.handlers) != len(o.handlers) {
			return false
		}
		for i := range n.handlers {
			if !n.handlers[i].Equal(o.handlers[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// hasUsableCall reports whether some path through n contains a call.
func (n Node) hasUsableCall() bool {
	switch n.kind {
	case KindCall:
		return n.call != ""
	case KindBranch:
		return n.then.HasUsableCall() || n.els.HasUsableCall()
	case KindLoop:
		return n.body.HasUsableCall()
	case KindTryBlock:
		if n.body.HasUsableCall() {
			return true
		}
		for _, h := range n.handlers {
			if h.HasUsableCall() {
				return true
			}
		}
		return false
	default:
		return false
	}
}
