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
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Domain prefixes for structural keys. The version suffix allows the
// encoding to change without colliding with keys already persisted.
const (
	DomainForest   = "apisketch/forest/v1"
	DomainSequence = "apisketch/sequence/v1"
)

// Key returns the canonical structural key of the forest.
//
// Description:
//
//	Two forests have the same key iff they are structurally equal. Call
//	signatures are hashed byte for byte, without Unicode normalization,
//	matching Equal. The key is a hex SHA-256 over a
//	length-prefixed pre-order encoding, so it does not depend on map
//	iteration or JSON formatting.
//
// Outputs:
//
//	string - 64-character hex digest.
func (f Forest) Key() string {
	h := newKeyHash(DomainForest)
	writeForest(h, f)
	return hex.EncodeToString(h.Sum(nil))
}

// Key returns the canonical key of the sequence.
func (s Sequence) Key() string {
	h := newKeyHash(DomainSequence)
	writeUvarint(h, uint64(len(s.calls)))
	for _, c := range s.calls {
		writeString(h, c)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// newKeyHash starts a SHA-256 with domain separation: domain + 0x00.
func newKeyHash(domain string) hash.Hash {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	return h
}

func writeForest(h hash.Hash, f Forest) {
	writeUvarint(h, uint64(len(f.nodes)))
	for _, n := range f.nodes {
		writeNode(h, n)
	}
}

func writeNode(h hash.Hash, n Node) {
	h.Write([]byte{byte(n.kind)})
	switch n.kind {
	case KindCall:
		writeString(h, n.call)
	case KindBranch:
		writeForest(h, n.then)
		writeForest(h, n.els)
	case KindLoop:
		writeForest(h, n.body)
	case KindTryBlock:
		writeForest(h, n.body)
		writeUvarint(h, uint64(len(n.handlers)))
		for _, hf := range n.handlers {
			writeForest(h, hf)
		}
	}
}

func writeString(h hash.Hash, s string) {
	writeUvarint(h, uint64(len(s)))
	h.Write([]byte(s))
}

func writeUvarint(h hash.Hash, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	h.Write(buf[:n])
}
