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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/apisketch/services/sketch/ir"
)

// DefaultAPIPackages are the package prefixes whose calls are recorded.
var DefaultAPIPackages = []string{"java.", "javax.", "android."}

// unknownArgType is rendered for arguments whose type cannot be inferred.
const unknownArgType = "?"

// IRBuilder converts method bodies of one compilation unit into IR forests.
//
// Description:
//
//	Each call to Build walks one method body and returns a new forest.
//	Only invocations whose receiver type resolves into one of the API
//	package prefixes become Call nodes. Control flow that contains no such
//	call is dropped. Statements the builder does not recognize, lambda
//	bodies and anonymous class bodies are skipped.
//
// Thread Safety:
//
//	IRBuilder holds no per-build state and is safe for concurrent use as
//	long as the underlying CompilationUnit is not closed.
type IRBuilder struct {
	unit        *CompilationUnit
	resolver    *typeResolver
	apiPackages []string
}

// IRBuilderOption configures an IRBuilder.
type IRBuilderOption func(*IRBuilder)

// WithAPIPackages sets the package prefixes considered API calls. An empty
// list keeps the defaults.
func WithAPIPackages(prefixes ...string) IRBuilderOption {
	return func(b *IRBuilder) {
		if len(prefixes) > 0 {
			b.apiPackages = append([]string(nil), prefixes...)
		}
	}
}

// NewIRBuilder creates a builder for the given unit.
func NewIRBuilder(unit *CompilationUnit, opts ...IRBuilderOption) (*IRBuilder, error) {
	if unit == nil {
		return nil, ErrNilUnit
	}
	b := &IRBuilder{
		unit:        unit,
		resolver:    newTypeResolver(unit),
		apiPackages: DefaultAPIPackages,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build returns the IR forest of a method or constructor body.
//
// Description:
//
//	Declarations without a body (abstract, native, interface methods)
//	yield an empty forest. Calls appear in evaluation order: receiver
//	chain, then arguments left to right, then the call itself.
//
// Inputs:
//
//	m - The declaration. Must belong to the builder's unit.
//
// Outputs:
//
//	ir.Forest - The method's IR. Possibly empty, never an error.
func (b *IRBuilder) Build(m *MethodDecl) ir.Forest {
	if m == nil || m.body == nil || b.unit.tree == nil {
		return ir.Forest{}
	}
	bc := &buildContext{IRBuilder: b, owner: m.Owner, content: b.unit.content}
	return ir.NewForest(bc.statement(m.body, bc.methodScope(m))...)
}

// buildContext carries the per-method state of one Build call.
type buildContext struct {
	*IRBuilder
	owner   *TypeDecl
	content []byte
}

func (bc *buildContext) methodScope(m *MethodDecl) *scope {
	var chain []*TypeDecl
	for t := bc.owner; t != nil; t = t.Outer {
		chain = append(chain, t)
	}
	sc := newScope(nil)
	for i := len(chain) - 1; i >= 0; i-- {
		for name, typ := range chain[i].Fields {
			sc.declare(name, bc.resolver.resolve(typ))
		}
	}
	params := newScope(sc)
	for _, p := range m.Params {
		params.declare(p.Name, bc.resolver.resolve(p.Type))
	}
	return params
}

func (bc *buildContext) text(n *sitter.Node) string {
	return n.Content(bc.content)
}

// statement lowers one statement.
func (bc *buildContext) statement(n *sitter.Node, sc *scope) []ir.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case javaNodeBlock, javaNodeConstructorBody:
		return bc.block(n, newScope(sc))

	case javaNodeLocalVariableDeclaration:
		return bc.localVariables(n, sc)

	case javaNodeExpressionStatement, javaNodeReturnStatement, javaNodeThrowStatement, javaNodeYieldStatement:
		return bc.children(n, sc)

	case javaNodeExplicitConstructorCall:
		return bc.expr(n, sc)

	case javaNodeIfStatement:
		out := bc.expr(n.ChildByFieldName("condition"), sc)
		then := bc.statement(n.ChildByFieldName("consequence"), newScope(sc))
		els := bc.statement(n.ChildByFieldName("alternative"), newScope(sc))
		return append(out, branchNodes(then, els)...)

	case javaNodeWhileStatement:
		out := bc.expr(n.ChildByFieldName("condition"), sc)
		body := bc.statement(n.ChildByFieldName("body"), newScope(sc))
		return append(out, loopNodes(body)...)

	case javaNodeDoStatement:
		body := bc.statement(n.ChildByFieldName("body"), newScope(sc))
		body = append(body, bc.expr(n.ChildByFieldName("condition"), sc)...)
		return loopNodes(body)

	case javaNodeForStatement:
		return bc.forStatement(n, sc)

	case javaNodeEnhancedForStatement:
		return bc.enhancedFor(n, sc)

	case javaNodeTryStatement, javaNodeTryWithResources:
		return bc.tryStatement(n, sc)

	case javaNodeSwitchExpression, javaNodeSwitchStatement:
		return bc.switchNodes(n, sc)

	case javaNodeSynchronizedStatement:
		var out []ir.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == javaNodeParenthesized {
				out = append(out, bc.expr(child, sc)...)
			}
		}
		return append(out, bc.statement(n.ChildByFieldName("body"), sc)...)

	case javaNodeLabeledStatement:
		if c := int(n.NamedChildCount()); c > 0 {
			return bc.statement(n.NamedChild(c-1), sc)
		}
	}
	return nil
}

func (bc *buildContext) block(n *sitter.Node, sc *scope) []ir.Node {
	var out []ir.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, bc.statement(n.NamedChild(i), sc)...)
	}
	return out
}

func (bc *buildContext) children(n *sitter.Node, sc *scope) []ir.Node {
	var out []ir.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, bc.expr(n.NamedChild(i), sc)...)
	}
	return out
}

func (bc *buildContext) localVariables(n *sitter.Node, sc *scope) []ir.Node {
	written := ""
	if typeNode := n.ChildByFieldName("type"); typeNode != nil {
		written = bc.text(typeNode)
	}

	var out []ir.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != javaNodeVariableDeclarator {
			continue
		}
		value := decl.ChildByFieldName("value")
		out = append(out, bc.expr(value, sc)...)

		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		typ := ""
		if written == "var" {
			typ = bc.exprType(value, sc)
		} else if written != "" {
			typ = bc.resolver.resolve(written + dimensionsOf(decl, bc.content))
		}
		sc.declare(bc.text(nameNode), typ)
	}
	return out
}

func (bc *buildContext) forStatement(n *sitter.Node, sc *scope) []ir.Node {
	loopScope := newScope(sc)
	var out, updates []ir.Node
	var body *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch n.FieldNameForChild(i) {
		case "init":
			if child.Type() == javaNodeLocalVariableDeclaration {
				out = append(out, bc.localVariables(child, loopScope)...)
			} else {
				out = append(out, bc.expr(child, loopScope)...)
			}
		case "condition":
			out = append(out, bc.expr(child, loopScope)...)
		case "update":
			updates = append(updates, bc.expr(child, loopScope)...)
		case "body":
			body = child
		}
	}
	inner := append(bc.statement(body, newScope(loopScope)), updates...)
	return append(out, loopNodes(inner)...)
}

func (bc *buildContext) enhancedFor(n *sitter.Node, sc *scope) []ir.Node {
	value := n.ChildByFieldName("value")
	out := bc.expr(value, sc)

	loopScope := newScope(sc)
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		typ := ""
		if typeNode := n.ChildByFieldName("type"); typeNode != nil && bc.text(typeNode) != "var" {
			typ = bc.resolver.resolve(bc.text(typeNode))
		} else if vt := bc.exprType(value, sc); strings.HasSuffix(vt, "[]") {
			typ = strings.TrimSuffix(vt, "[]")
		}
		loopScope.declare(bc.text(nameNode), typ)
	}
	body := bc.statement(n.ChildByFieldName("body"), loopScope)
	return append(out, loopNodes(body)...)
}

// tryStatement lowers try, try-with-resources, catch and finally. Resource
// initializers run inside the protected body. Finally calls follow the
// TryBlock on every path.
func (bc *buildContext) tryStatement(n *sitter.Node, sc *scope) []ir.Node {
	tryScope := newScope(sc)
	var body []ir.Node
	var handlers [][]ir.Node
	var finally []ir.Node

	if res := n.ChildByFieldName("resources"); res != nil {
		body = append(body, bc.resources(res, tryScope)...)
	}
	body = append(body, bc.statement(n.ChildByFieldName("body"), tryScope)...)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case javaNodeCatchClause:
			handlers = append(handlers, bc.catchClause(child, sc))
		case javaNodeFinallyClause:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if blk := child.NamedChild(j); blk.Type() == javaNodeBlock {
					finally = append(finally, bc.statement(blk, sc)...)
				}
			}
		}
	}

	var out []ir.Node
	if len(body) > 0 || anyNonEmpty(handlers) {
		forests := make([]ir.Forest, len(handlers))
		for i, h := range handlers {
			forests[i] = ir.NewForest(h...)
		}
		out = append(out, ir.TryBlock(ir.NewForest(body...), forests...))
	}
	return append(out, finally...)
}

func (bc *buildContext) resources(n *sitter.Node, sc *scope) []ir.Node {
	var out []ir.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		res := n.NamedChild(i)
		if res.Type() != javaNodeResource {
			continue
		}
		value := res.ChildByFieldName("value")
		if value == nil {
			// A bare variable or field reference used as a resource.
			out = append(out, bc.children(res, sc)...)
			continue
		}
		out = append(out, bc.expr(value, sc)...)
		if nameNode := res.ChildByFieldName("name"); nameNode != nil {
			typ := ""
			if typeNode := res.ChildByFieldName("type"); typeNode != nil && bc.text(typeNode) != "var" {
				typ = bc.resolver.resolve(bc.text(typeNode))
			} else {
				typ = bc.exprType(value, sc)
			}
			sc.declare(bc.text(nameNode), typ)
		}
	}
	return out
}

func (bc *buildContext) catchClause(n *sitter.Node, sc *scope) []ir.Node {
	hs := newScope(sc)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != javaNodeCatchFormalParameter {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		typ := ""
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if ct := child.NamedChild(j); ct.Type() == javaNodeCatchType {
				// Multi-catch types have no single static type.
				if ct.NamedChildCount() == 1 {
					typ = bc.resolver.resolve(bc.text(ct))
				}
			}
		}
		hs.declare(bc.text(nameNode), typ)
	}
	return bc.statement(n.ChildByFieldName("body"), hs)
}

// switchNodes lowers a switch into selector calls followed by a right-nested
// chain of Branch nodes, one arm per case group. A switch without a default
// label gets a trailing empty arm for the no-match path.
func (bc *buildContext) switchNodes(n *sitter.Node, sc *scope) []ir.Node {
	out := bc.expr(n.ChildByFieldName("condition"), sc)
	body := n.ChildByFieldName("body")
	if body == nil {
		return out
	}

	blockScope := newScope(sc)
	var arms [][]ir.Node
	hasDefault := false
	for i := 0; i < int(body.NamedChildCount()); i++ {
		group := body.NamedChild(i)
		if group.Type() != javaNodeSwitchGroup && group.Type() != javaNodeSwitchRule {
			continue
		}
		var arm []ir.Node
		for j := 0; j < int(group.NamedChildCount()); j++ {
			child := group.NamedChild(j)
			if child.Type() == javaNodeSwitchLabel {
				if strings.HasPrefix(strings.TrimSpace(bc.text(child)), "default") {
					hasDefault = true
				}
				continue
			}
			if group.Type() == javaNodeSwitchRule {
				arm = append(arm, bc.statement(child, newScope(sc))...)
			} else {
				arm = append(arm, bc.statement(child, blockScope)...)
			}
		}
		arms = append(arms, arm)
	}
	if !hasDefault {
		arms = append(arms, nil)
	}
	if !anyNonEmpty(arms) {
		return out
	}

	chain := arms[len(arms)-1]
	for i := len(arms) - 2; i >= 0; i-- {
		chain = []ir.Node{ir.Branch(ir.NewForest(arms[i]...), ir.NewForest(chain...))}
	}
	return append(out, chain...)
}

// expr lowers an expression into the calls it performs, in evaluation order.
func (bc *buildContext) expr(n *sitter.Node, sc *scope) []ir.Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case javaNodeMethodInvocation:
		var out []ir.Node
		object := n.ChildByFieldName("object")
		if object != nil {
			out = append(out, bc.expr(object, sc)...)
		}
		args := n.ChildByFieldName("arguments")
		out = append(out, bc.expr(args, sc)...)

		nameNode := n.ChildByFieldName("name")
		if object == nil || nameNode == nil {
			return out
		}
		recv := bc.receiverType(object, sc)
		if !bc.isAPIType(recv) {
			return out
		}
		return append(out, ir.Call(bc.signature(recv, bc.text(nameNode), args, sc)))

	case javaNodeObjectCreation:
		args := n.ChildByFieldName("arguments")
		out := bc.expr(args, sc)
		typeNode := n.ChildByFieldName("type")
		if typeNode == nil {
			return out
		}
		typ := bc.resolver.resolve(bc.text(typeNode))
		if !bc.isAPIType(typ) {
			return out
		}
		return append(out, ir.Call(bc.signature(typ, "<init>", args, sc)))

	case javaNodeExplicitConstructorCall:
		args := n.ChildByFieldName("arguments")
		out := bc.expr(args, sc)
		ctor := n.ChildByFieldName("constructor")
		if ctor == nil || ctor.Type() != javaNodeSuper || bc.owner == nil || bc.owner.Superclass == "" {
			return out
		}
		typ := bc.resolver.resolve(bc.owner.Superclass)
		if !bc.isAPIType(typ) {
			return out
		}
		return append(out, ir.Call(bc.signature(typ, "<init>", args, sc)))

	case javaNodeTernaryExpression:
		out := bc.expr(n.ChildByFieldName("condition"), sc)
		then := bc.expr(n.ChildByFieldName("consequence"), sc)
		els := bc.expr(n.ChildByFieldName("alternative"), sc)
		return append(out, branchNodes(then, els)...)

	case javaNodeSwitchExpression:
		return bc.switchNodes(n, sc)

	case javaNodeLambdaExpression, javaNodeMethodReference, javaNodeClassBody:
		return nil
	}

	return bc.children(n, sc)
}

// signature renders "pkg.Type.method(argType,...)".
func (bc *buildContext) signature(recv, method string, args *sitter.Node, sc *scope) string {
	var types []string
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			arg := args.NamedChild(i)
			if isComment(arg) {
				continue
			}
			t := bc.exprType(arg, sc)
			if t == "" {
				t = unknownArgType
			}
			types = append(types, t)
		}
	}
	return recv + "." + method + "(" + strings.Join(types, ",") + ")"
}

// receiverType resolves the static type a method is invoked on. Receivers
// that denote the declaring class (this, super) resolve to "".
func (bc *buildContext) receiverType(object *sitter.Node, sc *scope) string {
	switch object.Type() {
	case javaNodeThis, javaNodeSuper:
		return ""
	case javaNodeIdentifier:
		name := bc.text(object)
		if t, ok := sc.lookup(name); ok {
			return t
		}
		if bc.resolver.isTypeName(name) {
			return bc.resolver.resolveSimple(name)
		}
		return ""
	case javaNodeFieldAccess:
		if t := bc.exprType(object, sc); t != "" {
			return t
		}
		return bc.qualifiedTypeRef(object, sc)
	}
	return bc.exprType(object, sc)
}

// qualifiedTypeRef interprets a dotted name such as java.util.Collections
// or Map.Entry as a type reference.
func (bc *buildContext) qualifiedTypeRef(n *sitter.Node, sc *scope) string {
	text := strings.Join(strings.Fields(bc.text(n)), "")
	parts := strings.Split(text, ".")
	if len(parts) < 2 || !startsUpper(parts[len(parts)-1]) {
		return ""
	}
	for _, p := range parts {
		if !isIdentifier(p) {
			return ""
		}
	}
	if _, ok := sc.lookup(parts[0]); ok {
		return ""
	}
	return bc.resolver.resolveName(text)
}

// exprType infers the static type of an expression, or "" when unknown.
func (bc *buildContext) exprType(n *sitter.Node, sc *scope) string {
	if n == nil {
		return ""
	}

	switch n.Type() {
	case javaNodeIdentifier:
		t, _ := sc.lookup(bc.text(n))
		return t

	case javaNodeThis:
		if bc.owner != nil {
			return bc.owner.QualifiedName
		}

	case javaNodeFieldAccess:
		return bc.fieldAccessType(n, sc)

	case javaNodeObjectCreation:
		if typeNode := n.ChildByFieldName("type"); typeNode != nil {
			return bc.resolver.resolve(bc.text(typeNode))
		}

	case javaNodeMethodInvocation:
		return bc.invocationType(n, sc)

	case javaNodeStringLiteral, javaNodeTextBlock:
		return "java.lang.String"

	case javaNodeCharacterLiteral:
		return "char"

	case javaNodeTrue, javaNodeFalse, javaNodeInstanceofExpression:
		return "boolean"

	case javaNodeDecimalInteger, javaNodeHexInteger, javaNodeOctalInteger, javaNodeBinaryInteger:
		if strings.HasSuffix(strings.ToLower(bc.text(n)), "l") {
			return "long"
		}
		return "int"

	case javaNodeDecimalFloat, javaNodeHexFloat:
		if strings.HasSuffix(strings.ToLower(bc.text(n)), "f") {
			return "float"
		}
		return "double"

	case javaNodeCastExpression:
		if typeNode := n.ChildByFieldName("type"); typeNode != nil {
			return bc.resolver.resolve(bc.text(typeNode))
		}

	case javaNodeParenthesized:
		if n.NamedChildCount() > 0 {
			return bc.exprType(n.NamedChild(0), sc)
		}

	case javaNodeTernaryExpression:
		if t := bc.exprType(n.ChildByFieldName("consequence"), sc); t != "" {
			return t
		}
		return bc.exprType(n.ChildByFieldName("alternative"), sc)

	case javaNodeAssignmentExpression:
		return bc.exprType(n.ChildByFieldName("left"), sc)

	case javaNodeBinaryExpression:
		return bc.binaryType(n, sc)

	case javaNodeUnaryExpression:
		if op := n.ChildByFieldName("operator"); op != nil && bc.text(op) == "!" {
			return "boolean"
		}
		return bc.exprType(n.ChildByFieldName("operand"), sc)

	case javaNodeUpdateExpression:
		if n.NamedChildCount() > 0 {
			return bc.exprType(n.NamedChild(0), sc)
		}

	case javaNodeArrayAccess:
		if t := bc.exprType(n.ChildByFieldName("array"), sc); strings.HasSuffix(t, "[]") {
			return strings.TrimSuffix(t, "[]")
		}

	case javaNodeArrayCreation:
		return bc.arrayCreationType(n)
	}
	return ""
}

// invocationType looks up the result type of a call on a typed receiver.
func (bc *buildContext) invocationType(n *sitter.Node, sc *scope) string {
	object := n.ChildByFieldName("object")
	nameNode := n.ChildByFieldName("name")
	if object == nil || nameNode == nil {
		return ""
	}
	recv := bc.receiverType(object, sc)
	if recv == "" {
		return ""
	}
	result := methodResultTypes[recv+"."+bc.text(nameNode)]
	if result == sameAsReceiver {
		return recv
	}
	return result
}

func (bc *buildContext) fieldAccessType(n *sitter.Node, sc *scope) string {
	object := n.ChildByFieldName("object")
	field := n.ChildByFieldName("field")
	if object == nil || field == nil {
		return ""
	}
	name := bc.text(field)

	if object.Type() == javaNodeThis {
		for t := bc.owner; t != nil; t = t.Outer {
			if typ, ok := t.Fields[name]; ok {
				return bc.resolver.resolve(typ)
			}
		}
		return ""
	}

	var owner string
	switch object.Type() {
	case javaNodeIdentifier:
		if _, ok := sc.lookup(bc.text(object)); !ok && bc.resolver.isTypeName(bc.text(object)) {
			owner = bc.resolver.resolveSimple(bc.text(object))
		}
	case javaNodeFieldAccess:
		owner = bc.qualifiedTypeRef(object, sc)
	}
	if owner == "" {
		return ""
	}
	return staticFieldTypes[owner+"."+name]
}

func (bc *buildContext) binaryType(n *sitter.Node, sc *scope) string {
	op := ""
	if opNode := n.ChildByFieldName("operator"); opNode != nil {
		op = bc.text(opNode)
	}
	switch op {
	case "==", "!=", "<", ">", "<=", ">=", "&&", "||":
		return "boolean"
	}
	left := bc.exprType(n.ChildByFieldName("left"), sc)
	right := bc.exprType(n.ChildByFieldName("right"), sc)
	if op == "+" && (left == "java.lang.String" || right == "java.lang.String") {
		return "java.lang.String"
	}
	if primitiveTypes[left] {
		return left
	}
	return ""
}

func (bc *buildContext) arrayCreationType(n *sitter.Node) string {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	base := bc.resolver.resolve(bc.text(typeNode))
	if base == "" {
		return ""
	}
	dims := 0
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dimensions_expr":
			dims++
		case "dimensions":
			dims += strings.Count(bc.text(child), "[")
		}
	}
	return base + strings.Repeat("[]", dims)
}

// isAPIType reports whether calls on typ are recorded.
func (b *IRBuilder) isAPIType(typ string) bool {
	if typ == "" || strings.HasSuffix(typ, "[]") || primitiveTypes[typ] {
		return false
	}
	for _, prefix := range b.apiPackages {
		if strings.HasPrefix(typ, prefix) {
			return true
		}
	}
	return false
}

func branchNodes(then, els []ir.Node) []ir.Node {
	if len(then) == 0 && len(els) == 0 {
		return nil
	}
	return []ir.Node{ir.Branch(ir.NewForest(then...), ir.NewForest(els...))}
}

func loopNodes(body []ir.Node) []ir.Node {
	if len(body) == 0 {
		return nil
	}
	return []ir.Node{ir.Loop(ir.NewForest(body...))}
}

func anyNonEmpty(groups [][]ir.Node) bool {
	for _, g := range groups {
		if len(g) > 0 {
			return true
		}
	}
	return false
}

func isComment(n *sitter.Node) bool {
	switch n.Type() {
	case javaNodeComment, javaNodeLineComment, javaNodeBlockComment:
		return true
	}
	return false
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		if c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}
