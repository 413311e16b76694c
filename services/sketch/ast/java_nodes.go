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

// Tree-sitter Java node types.
const (
	javaNodeProgram                  = "program"
	javaNodePackageDeclaration       = "package_declaration"
	javaNodeImportDeclaration        = "import_declaration"
	javaNodeClassDeclaration         = "class_declaration"
	javaNodeInterfaceDeclaration     = "interface_declaration"
	javaNodeEnumDeclaration          = "enum_declaration"
	javaNodeRecordDeclaration        = "record_declaration"
	javaNodeAnnotationTypeDecl       = "annotation_type_declaration"
	javaNodeEnumBodyDeclarations     = "enum_body_declarations"
	javaNodeMethodDeclaration        = "method_declaration"
	javaNodeConstructorDeclaration   = "constructor_declaration"
	javaNodeCompactConstructorDecl   = "compact_constructor_declaration"
	javaNodeFieldDeclaration         = "field_declaration"
	javaNodeVariableDeclarator       = "variable_declarator"
	javaNodeFormalParameter          = "formal_parameter"
	javaNodeSpreadParameter          = "spread_parameter"
	javaNodeModifiers                = "modifiers"
	javaNodeScopedIdentifier         = "scoped_identifier"
	javaNodeIdentifier               = "identifier"
	javaNodeAsterisk                 = "asterisk"
	javaNodeComment                  = "comment"
	javaNodeBlockComment             = "block_comment"
	javaNodeLineComment              = "line_comment"
	javaNodeSuperclass               = "superclass"
	javaNodeBlock                    = "block"
	javaNodeConstructorBody          = "constructor_body"
	javaNodeLocalVariableDeclaration = "local_variable_declaration"
	javaNodeExpressionStatement      = "expression_statement"
	javaNodeIfStatement              = "if_statement"
	javaNodeWhileStatement           = "while_statement"
	javaNodeDoStatement              = "do_statement"
	javaNodeForStatement             = "for_statement"
	javaNodeEnhancedForStatement     = "enhanced_for_statement"
	javaNodeTryStatement             = "try_statement"
	javaNodeTryWithResources         = "try_with_resources_statement"
	javaNodeResourceSpecification    = "resource_specification"
	javaNodeResource                 = "resource"
	javaNodeCatchClause              = "catch_clause"
	javaNodeCatchFormalParameter     = "catch_formal_parameter"
	javaNodeCatchType                = "catch_type"
	javaNodeFinallyClause            = "finally_clause"
	javaNodeSwitchExpression         = "switch_expression"
	javaNodeSwitchStatement          = "switch_statement"
	javaNodeSwitchBlock              = "switch_block"
	javaNodeSwitchGroup              = "switch_block_statement_group"
	javaNodeSwitchRule               = "switch_rule"
	javaNodeSwitchLabel              = "switch_label"
	javaNodeReturnStatement          = "return_statement"
	javaNodeThrowStatement           = "throw_statement"
	javaNodeYieldStatement           = "yield_statement"
	javaNodeSynchronizedStatement    = "synchronized_statement"
	javaNodeLabeledStatement         = "labeled_statement"
	javaNodeExplicitConstructorCall  = "explicit_constructor_invocation"
	javaNodeMethodInvocation         = "method_invocation"
	javaNodeObjectCreation           = "object_creation_expression"
	javaNodeClassBody                = "class_body"
	javaNodeLambdaExpression         = "lambda_expression"
	javaNodeTernaryExpression        = "ternary_expression"
	javaNodeFieldAccess              = "field_access"
	javaNodeThis                     = "this"
	javaNodeSuper                    = "super"
	javaNodeParenthesized            = "parenthesized_expression"
	javaNodeCastExpression           = "cast_expression"
	javaNodeAssignmentExpression     = "assignment_expression"
	javaNodeBinaryExpression         = "binary_expression"
	javaNodeUnaryExpression          = "unary_expression"
	javaNodeUpdateExpression         = "update_expression"
	javaNodeInstanceofExpression     = "instanceof_expression"
	javaNodeArrayAccess              = "array_access"
	javaNodeArrayCreation            = "array_creation_expression"
	javaNodeArrayInitializer         = "array_initializer"
	javaNodeMethodReference          = "method_reference"

	javaNodeTypeIdentifier       = "type_identifier"
	javaNodeScopedTypeIdentifier = "scoped_type_identifier"
	javaNodeGenericType          = "generic_type"
	javaNodeArrayType            = "array_type"

	javaNodeStringLiteral    = "string_literal"
	javaNodeTextBlock        = "text_block"
	javaNodeCharacterLiteral = "character_literal"
	javaNodeTrue             = "true"
	javaNodeFalse            = "false"
	javaNodeNullLiteral      = "null_literal"
	javaNodeDecimalInteger   = "decimal_integer_literal"
	javaNodeHexInteger       = "hex_integer_literal"
	javaNodeOctalInteger     = "octal_integer_literal"
	javaNodeBinaryInteger    = "binary_integer_literal"
	javaNodeDecimalFloat     = "decimal_floating_point_literal"
	javaNodeHexFloat         = "hex_floating_point_literal"
)
