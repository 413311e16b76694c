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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

// ErrEmitterClosed is returned when emitting after Close.
var ErrEmitterClosed = errors.New("emitter closed")

// Document is one emitted training example.
type Document struct {
	// SourceFile identifies the file the IR was extracted from.
	SourceFile string `json:"sourceFile"`

	// IR is the combined IR.
	IR ir.Envelope `json:"ir"`

	// Sequences is the deduplicated sequence set.
	Sequences []ir.Sequence `json:"sequences"`

	// Documentation is the attached comment text, null when absent.
	Documentation *string `json:"documentation"`
}

// NewDocument assembles a document from its parts.
func NewDocument(sourceFile string, f ir.Forest, seqs []ir.Sequence, doc *string) Document {
	if seqs == nil {
		seqs = []ir.Sequence{}
	}
	return Document{
		SourceFile:    sourceFile,
		IR:            ir.Envelope{Nodes: f},
		Sequences:     seqs,
		Documentation: doc,
	}
}

// flusher is implemented by buffered sinks such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// Emitter streams documents as elements of a JSON array.
//
// Description:
//
//	The opening bracket is written before the first document and each
//	later document is preceded by ",\n". Every document is encoded and
//	written on its own, so memory is bounded by one document. Close writes
//	the closing bracket. The first write error is sticky: it is returned
//	from every later Emit and from Close.
//
// Thread Safety:
//
//	Safe for concurrent use. Writes are serialized by a mutex.
type Emitter struct {
	mu     sync.Mutex
	w      io.Writer
	indent string
	count  int
	closed bool
	err    error
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithIndent pretty-prints each document with the given indent.
func WithIndent(indent string) EmitterOption {
	return func(e *Emitter) {
		e.indent = indent
	}
}

// NewEmitter creates an emitter writing to w.
func NewEmitter(w io.Writer, opts ...EmitterOption) *Emitter {
	e := &Emitter{w: w}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit writes one document.
func (e *Emitter) Emit(doc Document) error {
	data, err := ir.EncodeJSON(doc)
	if err == nil && e.indent != "" {
		var buf bytes.Buffer
		err = json.Indent(&buf, data, "", e.indent)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("encoding document for %s: %w", doc.SourceFile, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return e.err
	}
	if e.closed {
		return ErrEmitterClosed
	}

	sep := ",\n"
	if e.count == 0 {
		sep = "[\n"
	}
	if err := e.write([]byte(sep), data); err != nil {
		return err
	}
	e.count++
	return nil
}

// Count returns the number of documents written.
func (e *Emitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Close terminates the array. It does not close the underlying writer.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return e.err
	}
	e.closed = true
	if e.err != nil {
		return e.err
	}

	tail := "\n]\n"
	if e.count == 0 {
		tail = "[]\n"
	}
	return e.write([]byte(tail))
}

// write must be called with mu held.
func (e *Emitter) write(chunks ...[]byte) error {
	for _, c := range chunks {
		if _, err := e.w.Write(c); err != nil {
			e.err = fmt.Errorf("writing output: %w", err)
			return e.err
		}
	}
	if f, ok := e.w.(flusher); ok {
		if err := f.Flush(); err != nil {
			e.err = fmt.Errorf("flushing output: %w", err)
			return e.err
		}
	}
	return nil
}
