// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var javaParserTracer = otel.Tracer("aleutian.sketch.ast")

// DefaultMaxFileSize is the default upper bound on parsed source size.
const DefaultMaxFileSize = 10 * 1024 * 1024

// WarnFileSize is the size above which a parse is logged at WARN.
const WarnFileSize = 1024 * 1024

// TypeKind classifies a type declaration.
type TypeKind string

const (
	TypeKindClass     TypeKind = "class"
	TypeKindInterface TypeKind = "interface"
	TypeKindEnum      TypeKind = "enum"
	TypeKindRecord    TypeKind = "record"
)

// CompilationUnit is the parsed form of one Java source file.
//
// Description:
//
//	Holds the package, imports and type declarations of a file together
//	with the tree-sitter tree their method bodies point into. The tree
//	stays alive until Close is called, so bodies can be handed to an
//	IRBuilder after parsing.
//
// Thread Safety:
//
//	A CompilationUnit is read-only after Parse returns and may be read by
//	several goroutines. Close must not race with readers.
type CompilationUnit struct {
	// FilePath is the path the unit was parsed from.
	FilePath string

	// Hash is the hex SHA-256 of the source.
	Hash string

	// Package is the declared package, empty for the default package.
	Package string

	// Imports maps simple type names to their qualified names.
	Imports map[string]string

	// OnDemandImports lists packages imported with ".*", in source order.
	OnDemandImports []string

	// Types are the top-level type declarations in source order.
	Types []*TypeDecl

	// Errors collects non-fatal problems found while parsing.
	Errors []string

	content []byte
	tree    *sitter.Tree
}

// HasErrors reports whether the source contained syntax errors.
func (u *CompilationUnit) HasErrors() bool {
	return len(u.Errors) > 0
}

// Close releases the underlying syntax tree. Method bodies must not be
// built after Close.
func (u *CompilationUnit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

// TypeDecl is a class, interface, enum or record declaration.
type TypeDecl struct {
	Name          string
	QualifiedName string
	Kind          TypeKind

	// Superclass is the declared superclass as written, empty if none.
	Superclass string

	// Fields maps field names to their declared type text.
	Fields map[string]string

	// Components lists record components in declaration order.
	Components []Param

	Methods []*MethodDecl

	// Nested holds member type declarations.
	Nested []*TypeDecl

	Outer *TypeDecl
}

// IsInterface reports whether the declaration is an interface.
func (t *TypeDecl) IsInterface() bool {
	return t.Kind == TypeKindInterface
}

// Constructors returns the constructor declarations.
func (t *TypeDecl) Constructors() []*MethodDecl {
	var out []*MethodDecl
	for _, m := range t.Methods {
		if m.IsConstructor {
			out = append(out, m)
		}
	}
	return out
}

// PublicMethods returns the public, non-constructor methods.
func (t *TypeDecl) PublicMethods() []*MethodDecl {
	var out []*MethodDecl
	for _, m := range t.Methods {
		if !m.IsConstructor && m.IsPublic() {
			out = append(out, m)
		}
	}
	return out
}

// Param is a formal parameter.
type Param struct {
	Name string
	Type string
}

// MethodDecl is a method or constructor declaration.
type MethodDecl struct {
	Name          string
	IsConstructor bool
	Modifiers     []string
	Params        []Param

	// Doc is the raw "/** ... */" comment preceding the declaration.
	Doc string

	// Line is the 1-based line of the declaration.
	Line int

	Owner *TypeDecl

	body *sitter.Node
}

// IsPublic reports whether the declaration carries the public modifier.
func (m *MethodDecl) IsPublic() bool {
	for _, mod := range m.Modifiers {
		if mod == "public" {
			return true
		}
	}
	return false
}

// HasBody reports whether the declaration has a body to build from.
func (m *MethodDecl) HasBody() bool {
	return m.body != nil
}

// JavaParser parses Java source into CompilationUnits.
//
// Description:
//
//	JavaParser uses tree-sitter to parse Java source and extract the
//	declarations needed for API usage extraction. It is tolerant of syntax
//	errors: unrecognized shapes are skipped and recorded in Errors.
//
// Thread Safety:
//
//	JavaParser is safe for concurrent use. Each Parse call creates its own
//	tree-sitter parser instance.
//
// Example:
//
//	parser := NewJavaParser()
//	unit, err := parser.Parse(ctx, content, "Reader.java")
//	if err != nil {
//	    return fmt.Errorf("parse: %w", err)
//	}
//	defer unit.Close()
type JavaParser struct {
	options JavaParserOptions
}

// JavaParserOptions configures JavaParser behavior.
type JavaParserOptions struct {
	// MaxFileSize is the maximum file size in bytes to parse.
	// Default: 10MB
	MaxFileSize int
}

// DefaultJavaParserOptions returns the default options.
func DefaultJavaParserOptions() JavaParserOptions {
	return JavaParserOptions{
		MaxFileSize: DefaultMaxFileSize,
	}
}

// JavaParserOption is a functional option for configuring JavaParser.
type JavaParserOption func(*JavaParserOptions)

// WithJavaMaxFileSize sets the maximum file size for parsing.
func WithJavaMaxFileSize(size int) JavaParserOption {
	return func(o *JavaParserOptions) {
		if size > 0 {
			o.MaxFileSize = size
		}
	}
}

// NewJavaParser creates a new JavaParser with the given options.
func NewJavaParser(opts ...JavaParserOption) *JavaParser {
	options := DefaultJavaParserOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &JavaParser{options: options}
}

// Language returns the language name for this parser.
func (p *JavaParser) Language() string {
	return "java"
}

// Extensions returns the file extensions this parser handles.
func (p *JavaParser) Extensions() []string {
	return []string{".java"}
}

// Parse parses Java source into a CompilationUnit.
//
// Description:
//
//	Parses the content with tree-sitter and collects the package, imports
//	and type declarations. Syntax errors do not fail the parse; they are
//	recorded in the unit's Errors and the recognizable parts are kept.
//
// Inputs:
//
//	ctx      - Context for cancellation. Checked before and after parsing.
//	content  - Raw Java source bytes. Must be valid UTF-8.
//	filePath - Path used for reporting.
//
// Outputs:
//
//	*CompilationUnit - The parsed unit. The caller must Close it.
//	error            - ErrFileTooLarge, ErrInvalidContent or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *JavaParser) Parse(ctx context.Context, content []byte, filePath string) (*CompilationUnit, error) {
	ctx, span := javaParserTracer.Start(ctx, "ast.JavaParser.Parse")
	defer span.End()
	span.SetAttributes(
		attribute.String("file", filePath),
		attribute.Int("size_bytes", len(content)),
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("java parse canceled before start: %w", err)
	}

	if len(content) > p.options.MaxFileSize {
		span.SetStatus(codes.Error, "file too large")
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.options.MaxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		span.SetStatus(codes.Error, "invalid utf-8")
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tree-sitter parse failed")
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		return nil, fmt.Errorf("java parse canceled after tree-sitter: %w", err)
	}

	unit := &CompilationUnit{
		FilePath: filePath,
		Hash:     hex.EncodeToString(hash[:]),
		Imports:  make(map[string]string),
		Errors:   make([]string, 0),
		content:  content,
		tree:     tree,
	}

	root := tree.RootNode()
	if root == nil {
		unit.Errors = append(unit.Errors, "tree-sitter returned nil root node")
		return unit, nil
	}
	if root.HasError() {
		unit.Errors = append(unit.Errors, "source contains syntax errors")
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case javaNodePackageDeclaration:
			unit.Package = p.packageName(child, content)
		case javaNodeImportDeclaration:
			p.addImport(unit, child, content)
		default:
			if td := p.typeDecl(child, content, unit.Package, nil); td != nil {
				unit.Types = append(unit.Types, td)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("types", len(unit.Types)),
		attribute.Bool("has_errors", unit.HasErrors()),
	)
	return unit, nil
}

func (p *JavaParser) packageName(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == javaNodeScopedIdentifier || child.Type() == javaNodeIdentifier {
			return child.Content(content)
		}
	}
	return ""
}

// addImport records single-type and on-demand imports. Static imports
// name members, not types, and are ignored.
func (p *JavaParser) addImport(unit *CompilationUnit, node *sitter.Node, content []byte) {
	text := node.Content(content)
	if strings.Contains(text, "import static") {
		return
	}

	var name string
	onDemand := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case javaNodeScopedIdentifier, javaNodeIdentifier:
			name = child.Content(content)
		case javaNodeAsterisk:
			onDemand = true
		}
	}
	if name == "" {
		return
	}

	if onDemand {
		unit.OnDemandImports = append(unit.OnDemandImports, name)
		return
	}
	simple := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		simple = name[idx+1:]
	}
	unit.Imports[simple] = name
}

// typeDecl converts a declaration node into a TypeDecl, or returns nil if
// the node is not a type declaration.
func (p *JavaParser) typeDecl(node *sitter.Node, content []byte, pkg string, outer *TypeDecl) *TypeDecl {
	var kind TypeKind
	switch node.Type() {
	case javaNodeClassDeclaration:
		kind = TypeKindClass
	case javaNodeInterfaceDeclaration, javaNodeAnnotationTypeDecl:
		kind = TypeKindInterface
	case javaNodeEnumDeclaration:
		kind = TypeKindEnum
	case javaNodeRecordDeclaration:
		kind = TypeKindRecord
	default:
		return nil
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	td := &TypeDecl{
		Name:   nameNode.Content(content),
		Kind:   kind,
		Fields: make(map[string]string),
		Outer:  outer,
	}
	switch {
	case outer != nil:
		td.QualifiedName = outer.QualifiedName + "." + td.Name
	case pkg != "":
		td.QualifiedName = pkg + "." + td.Name
	default:
		td.QualifiedName = td.Name
	}

	if sc := node.ChildByFieldName("superclass"); sc != nil {
		for i := 0; i < int(sc.NamedChildCount()); i++ {
			td.Superclass = sc.NamedChild(i).Content(content)
		}
	}

	if kind == TypeKindRecord {
		if params := node.ChildByFieldName("parameters"); params != nil {
			td.Components = p.params(params, content)
			for _, prm := range td.Components {
				td.Fields[prm.Name] = prm.Type
			}
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return td
	}
	p.members(td, body, content, pkg)
	return td
}

func (p *JavaParser) members(td *TypeDecl, body *sitter.Node, content []byte, pkg string) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case javaNodeFieldDeclaration:
			p.addFields(td, child, content)
		case javaNodeMethodDeclaration, javaNodeConstructorDeclaration, javaNodeCompactConstructorDecl:
			if m := p.methodDecl(child, content, td); m != nil {
				td.Methods = append(td.Methods, m)
			}
		case javaNodeEnumBodyDeclarations:
			p.members(td, child, content, pkg)
		default:
			if nested := p.typeDecl(child, content, pkg, td); nested != nil {
				td.Nested = append(td.Nested, nested)
			}
		}
	}
}

func (p *JavaParser) addFields(td *TypeDecl, node *sitter.Node, content []byte) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	typ := typeNode.Content(content)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != javaNodeVariableDeclarator {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			td.Fields[name.Content(content)] = typ + dimensionsOf(child, content)
		}
	}
}

func (p *JavaParser) methodDecl(node *sitter.Node, content []byte, owner *TypeDecl) *MethodDecl {
	m := &MethodDecl{
		IsConstructor: node.Type() != javaNodeMethodDeclaration,
		Line:          int(node.StartPoint().Row) + 1,
		Owner:         owner,
		Doc:           precedingDoc(node, content),
	}

	if name := node.ChildByFieldName("name"); name != nil {
		m.Name = name.Content(content)
	}
	if m.IsConstructor {
		m.Name = "<init>"
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == javaNodeModifiers {
			m.Modifiers = modifierWords(child, content)
		}
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		m.Params = p.params(params, content)
	}
	if node.Type() == javaNodeCompactConstructorDecl {
		m.Params = append(m.Params, owner.Components...)
	}

	m.body = node.ChildByFieldName("body")
	return m
}

func (p *JavaParser) params(node *sitter.Node, content []byte) []Param {
	var out []Param
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case javaNodeFormalParameter:
			typeNode := child.ChildByFieldName("type")
			nameNode := child.ChildByFieldName("name")
			if typeNode == nil || nameNode == nil {
				continue
			}
			out = append(out, Param{
				Name: nameNode.Content(content),
				Type: typeNode.Content(content) + dimensionsOf(child, content),
			})
		case javaNodeSpreadParameter:
			var typ, name string
			for j := 0; j < int(child.NamedChildCount()); j++ {
				gc := child.NamedChild(j)
				switch gc.Type() {
				case javaNodeVariableDeclarator:
					if n := gc.ChildByFieldName("name"); n != nil {
						name = n.Content(content)
					}
				case javaNodeModifiers:
				default:
					if typ == "" {
						typ = gc.Content(content)
					}
				}
			}
			if name != "" && typ != "" {
				out = append(out, Param{Name: name, Type: typ + "[]"})
			}
		}
	}
	return out
}

// precedingDoc returns the "/** ... */" comment immediately before node.
func precedingDoc(node *sitter.Node, content []byte) string {
	prev := node.PrevSibling()
	for prev != nil && prev.Type() == javaNodeLineComment {
		prev = prev.PrevSibling()
	}
	if prev == nil {
		return ""
	}
	if prev.Type() != javaNodeComment && prev.Type() != javaNodeBlockComment {
		return ""
	}
	text := prev.Content(content)
	if !strings.HasPrefix(text, "/**") || text == "/**/" {
		return ""
	}
	return text
}

func modifierWords(node *sitter.Node, content []byte) []string {
	var out []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			// Annotations.
			continue
		}
		out = append(out, child.Content(content))
	}
	return out
}

// dimensionsOf returns "[]" per C-style array dimension on a declarator.
func dimensionsOf(node *sitter.Node, content []byte) string {
	dims := node.ChildByFieldName("dimensions")
	if dims == nil {
		return ""
	}
	return strings.Repeat("[]", strings.Count(dims.Content(content), "["))
}
