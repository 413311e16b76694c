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
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the top-level JSON shape of an IR: {"nodes": [...]}.
//
// Both extracted IRs and externally produced sketches use this shape.
type Envelope struct {
	Nodes Forest `json:"nodes"`
}

// wireNode is the JSON form of a Node. Only the fields belonging to the
// node's kind are present.
type wireNode struct {
	Node     string    `json:"node"`
	Call     *string   `json:"call,omitempty"`
	Then     *Forest   `json:"then,omitempty"`
	Else     *Forest   `json:"else,omitempty"`
	Body     *Forest   `json:"body,omitempty"`
	Handlers *[]Forest `json:"handlers,omitempty"`
}

// MarshalJSON encodes the forest as a JSON array of nodes.
func (f Forest) MarshalJSON() ([]byte, error) {
	nodes := f.nodes
	if nodes == nil {
		nodes = []Node{}
	}
	return EncodeJSON(nodes)
}

// UnmarshalJSON decodes a JSON array of nodes.
func (f *Forest) UnmarshalJSON(data []byte) error {
	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}
	*f = NewForest(nodes...)
	return nil
}

// MarshalJSON encodes the node with its "node" tag.
func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{Node: n.kind.String()}
	switch n.kind {
	case KindCall:
		call := n.call
		w.Call = &call
	case KindBranch:
		then, els := n.then, n.els
		w.Then, w.Else = &then, &els
	case KindLoop:
		body := n.body
		w.Body = &body
	case KindTryBlock:
		body := n.body
		handlers := n.Handlers()
		w.Body, w.Handlers = &body, &handlers
	default:
		return nil, fmt.Errorf("%w: cannot encode node kind %d", ErrInvalidIR, n.kind)
	}
	return EncodeJSON(w)
}

// UnmarshalJSON decodes a tagged node, rejecting unknown tags and missing
// fields.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch parseKind(w.Node) {
	case KindCall:
		if w.Call == nil || *w.Call == "" {
			return fmt.Errorf("%w: Call node requires a non-empty \"call\"", ErrInvalidIR)
		}
		*n = Call(*w.Call)
	case KindBranch:
		if w.Then == nil || w.Else == nil {
			return fmt.Errorf("%w: Branch node requires \"then\" and \"else\"", ErrInvalidIR)
		}
		*n = Branch(*w.Then, *w.Else)
	case KindLoop:
		if w.Body == nil {
			return fmt.Errorf("%w: Loop node requires \"body\"", ErrInvalidIR)
		}
		*n = Loop(*w.Body)
	case KindTryBlock:
		if w.Body == nil || w.Handlers == nil {
			return fmt.Errorf("%w: TryBlock node requires \"body\" and \"handlers\"", ErrInvalidIR)
		}
		*n = TryBlock(*w.Body, (*w.Handlers)...)
	default:
		return fmt.Errorf("%w: unknown node tag %q", ErrInvalidIR, w.Node)
	}
	return nil
}

// MarshalIR encodes a forest as an Envelope.
func MarshalIR(f Forest) ([]byte, error) {
	return EncodeJSON(Envelope{Nodes: f})
}

// EncodeJSON marshals v without HTML escaping, so signatures such as
// "java.io.File.<init>()" appear verbatim. The result has no trailing
// newline.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalIR decodes an Envelope into a forest.
//
// Description:
//
//	Decodes structurally only. Use ValidateSketch first when the document
//	comes from outside the process.
//
// Outputs:
//
//	Forest - The decoded forest.
//	error - Wraps ErrInvalidIR if the document is malformed.
func UnmarshalIR(data []byte) (Forest, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Forest{}, fmt.Errorf("%w: %v", ErrInvalidIR, err)
	}
	return env.Nodes, nil
}
