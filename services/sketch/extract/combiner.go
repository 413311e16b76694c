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
	"github.com/AleutianAI/apisketch/services/sketch/ast"
	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

// Pair is one IR produced by the combiner together with its documentation.
type Pair struct {
	// Forest is the combined IR.
	Forest ir.Forest

	// Documentation is the rendered comment, nil when absent.
	Documentation *string

	// Type is the qualified name of the declaring type.
	Type string
}

// ForestBuilder builds the IR of one declaration.
type ForestBuilder interface {
	Build(m *ast.MethodDecl) ir.Forest
}

// CombineStats counts what the combiner dropped.
type CombineStats struct {
	// Duplicates is the number of repeated (IR, documentation) pairs.
	Duplicates int

	// Degenerate is the number of IRs without a usable call.
	Degenerate int
}

// Combine applies the declaration pairing policy to every type in a unit.
//
// Description:
//
//	Interfaces are skipped. A type's method pool is its own methods plus
//	the methods of its non-interface member types. With C the pool's
//	constructors and M its public methods:
//
//	  C and M non-empty: one IR per (c, m), forest(c) followed by
//	                     forest(m), documented by m.
//	  only C:            one IR per constructor, documented by it.
//	  only M:            one IR per method, documented by it.
//
//	Pairs equal in IR structure and documentation are emitted once, in
//	first-seen order. IRs without a usable call are dropped.
//
// Inputs:
//
//	unit    - The parsed compilation unit.
//	builder - Builds one declaration's forest.
//	mode    - Documentation mode.
//
// Outputs:
//
//	[]Pair       - Surviving pairs in deterministic order.
//	CombineStats - Counts of dropped pairs.
func Combine(unit *ast.CompilationUnit, builder ForestBuilder, mode DocMode) ([]Pair, CombineStats) {
	var stats CombineStats
	if unit == nil || builder == nil {
		return nil, stats
	}

	type pairKey struct {
		forest string
		doc    string
		hasDoc bool
	}
	seen := make(map[pairKey]bool)

	var out []Pair
	add := func(p Pair) {
		if !p.Forest.HasUsableCall() {
			stats.Degenerate++
			return
		}
		k := pairKey{forest: p.Forest.Key()}
		if p.Documentation != nil {
			k.doc, k.hasDoc = *p.Documentation, true
		}
		if seen[k] {
			stats.Duplicates++
			return
		}
		seen[k] = true
		out = append(out, p)
	}

	for _, td := range unit.Types {
		if td.IsInterface() {
			continue
		}
		combineType(td, builder, mode, add)
	}
	return out, stats
}

func combineType(td *ast.TypeDecl, builder ForestBuilder, mode DocMode, add func(Pair)) {
	var ctors, methods []*ast.MethodDecl
	for _, t := range methodPool(td) {
		ctors = append(ctors, t.Constructors()...)
		methods = append(methods, t.PublicMethods()...)
	}

	forests := make(map[*ast.MethodDecl]ir.Forest)
	forest := func(m *ast.MethodDecl) ir.Forest {
		f, ok := forests[m]
		if !ok {
			f = builder.Build(m)
			forests[m] = f
		}
		return f
	}

	switch {
	case len(ctors) > 0 && len(methods) > 0:
		for _, c := range ctors {
			for _, m := range methods {
				add(Pair{
					Forest:        forest(c).Append(forest(m)),
					Documentation: Documentation(m.Doc, mode),
					Type:          td.QualifiedName,
				})
			}
		}
	case len(ctors) > 0:
		for _, c := range ctors {
			add(Pair{Forest: forest(c), Documentation: Documentation(c.Doc, mode), Type: td.QualifiedName})
		}
	case len(methods) > 0:
		for _, m := range methods {
			add(Pair{Forest: forest(m), Documentation: Documentation(m.Doc, mode), Type: td.QualifiedName})
		}
	}
}

// methodPool returns the type followed by its non-interface member types.
func methodPool(td *ast.TypeDecl) []*ast.TypeDecl {
	pool := []*ast.TypeDecl{td}
	for _, nested := range td.Nested {
		if !nested.IsInterface() {
			pool = append(pool, nested)
		}
	}
	return pool
}
