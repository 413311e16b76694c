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
	"unicode"
)

// javaLangTypes are the java.lang types visible without an import.
var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "StringBuilder": true, "StringBuffer": true,
	"System": true, "Math": true, "StrictMath": true, "Thread": true, "Runnable": true,
	"Integer": true, "Long": true, "Short": true, "Byte": true, "Character": true,
	"Boolean": true, "Double": true, "Float": true, "Number": true, "Void": true,
	"Class": true, "ClassLoader": true, "Enum": true, "Record": true, "Iterable": true,
	"Comparable": true, "CharSequence": true, "AutoCloseable": true, "Runtime": true,
	"Process": true, "ProcessBuilder": true, "ThreadLocal": true, "Throwable": true,
	"Exception": true, "RuntimeException": true, "Error": true,
	"IllegalArgumentException": true, "IllegalStateException": true,
	"NullPointerException": true, "IndexOutOfBoundsException": true,
	"ArithmeticException": true, "ClassCastException": true, "NumberFormatException": true,
	"UnsupportedOperationException": true, "InterruptedException": true,
	"CloneNotSupportedException": true, "ArrayIndexOutOfBoundsException": true,
}

// staticFieldTypes gives the types of well-known static fields used as
// call receivers.
var staticFieldTypes = map[string]string{
	"java.lang.System.out": "java.io.PrintStream",
	"java.lang.System.err": "java.io.PrintStream",
	"java.lang.System.in":  "java.io.InputStream",
}

// sameAsReceiver marks methods whose result has the receiver's type.
const sameAsReceiver = "="

// methodResultTypes gives the result types of well-known methods, keyed
// by "declaringType.method", so chained calls keep a typed receiver.
// Generic element types are erased and not tracked.
var methodResultTypes = map[string]string{
	"java.lang.Object.toString": "java.lang.String",
	"java.lang.Object.getClass": "java.lang.Class",

	"java.lang.String.trim":        "java.lang.String",
	"java.lang.String.strip":       "java.lang.String",
	"java.lang.String.toLowerCase": "java.lang.String",
	"java.lang.String.toUpperCase": "java.lang.String",
	"java.lang.String.substring":   "java.lang.String",
	"java.lang.String.replace":     "java.lang.String",
	"java.lang.String.replaceAll":  "java.lang.String",
	"java.lang.String.concat":      "java.lang.String",
	"java.lang.String.intern":      "java.lang.String",
	"java.lang.String.toString":    "java.lang.String",
	"java.lang.String.valueOf":     "java.lang.String",
	"java.lang.String.format":      "java.lang.String",
	"java.lang.String.length":      "int",
	"java.lang.String.indexOf":     "int",
	"java.lang.String.charAt":      "char",
	"java.lang.String.isEmpty":     "boolean",
	"java.lang.String.equals":      "boolean",
	"java.lang.String.split":       "java.lang.String[]",
	"java.lang.String.toCharArray": "char[]",
	"java.lang.String.getBytes":    "byte[]",

	"java.lang.StringBuilder.append":   sameAsReceiver,
	"java.lang.StringBuilder.insert":   sameAsReceiver,
	"java.lang.StringBuilder.reverse":  sameAsReceiver,
	"java.lang.StringBuilder.toString": "java.lang.String",
	"java.lang.StringBuilder.length":   "int",
	"java.lang.StringBuffer.append":    sameAsReceiver,
	"java.lang.StringBuffer.insert":    sameAsReceiver,
	"java.lang.StringBuffer.reverse":   sameAsReceiver,
	"java.lang.StringBuffer.toString":  "java.lang.String",
	"java.lang.StringBuffer.length":    "int",

	"java.lang.Integer.parseInt":         "int",
	"java.lang.Long.parseLong":           "long",
	"java.lang.System.currentTimeMillis": "long",
	"java.lang.System.nanoTime":          "long",
	"java.lang.System.getProperty":       "java.lang.String",
	"java.lang.Thread.currentThread":     "java.lang.Thread",
	"java.lang.Runtime.getRuntime":       "java.lang.Runtime",
	"java.lang.Runtime.exec":             "java.lang.Process",
	"java.lang.Process.getInputStream":   "java.io.InputStream",
	"java.lang.Process.getOutputStream":  "java.io.OutputStream",
	"java.lang.ProcessBuilder.start":     "java.lang.Process",
	"java.lang.ProcessBuilder.command":   sameAsReceiver,
	"java.lang.ProcessBuilder.directory": sameAsReceiver,

	"java.io.BufferedReader.readLine": "java.lang.String",
	"java.io.BufferedReader.ready":    "boolean",
	"java.io.File.getName":            "java.lang.String",
	"java.io.File.getPath":            "java.lang.String",
	"java.io.File.getAbsolutePath":    "java.lang.String",
	"java.io.File.getParentFile":      "java.io.File",
	"java.io.File.getAbsoluteFile":    "java.io.File",
	"java.io.File.toPath":             "java.nio.file.Path",
	"java.io.File.exists":             "boolean",
	"java.io.File.isDirectory":        "boolean",

	"java.net.URL.openConnection":           "java.net.URLConnection",
	"java.net.URL.openStream":               "java.io.InputStream",
	"java.net.URLConnection.getInputStream": "java.io.InputStream",
	"java.net.Socket.getInputStream":        "java.io.InputStream",
	"java.net.Socket.getOutputStream":       "java.io.OutputStream",

	"java.nio.file.Paths.get":               "java.nio.file.Path",
	"java.nio.file.Path.of":                 "java.nio.file.Path",
	"java.nio.file.Path.resolve":            "java.nio.file.Path",
	"java.nio.file.Path.getParent":          "java.nio.file.Path",
	"java.nio.file.Path.getFileName":        "java.nio.file.Path",
	"java.nio.file.Path.toAbsolutePath":     "java.nio.file.Path",
	"java.nio.file.Path.normalize":          "java.nio.file.Path",
	"java.nio.file.Path.toFile":             "java.io.File",
	"java.nio.file.Files.newBufferedReader": "java.io.BufferedReader",
	"java.nio.file.Files.newBufferedWriter": "java.io.BufferedWriter",
	"java.nio.file.Files.newInputStream":    "java.io.InputStream",
	"java.nio.file.Files.readAllLines":      "java.util.List",
	"java.nio.file.Files.exists":            "boolean",

	"java.util.Collection.iterator": "java.util.Iterator",
	"java.util.Collection.stream":   "java.util.stream.Stream",
	"java.util.Collection.size":     "int",
	"java.util.List.iterator":       "java.util.Iterator",
	"java.util.List.stream":         "java.util.stream.Stream",
	"java.util.List.size":           "int",
	"java.util.List.subList":        "java.util.List",
	"java.util.Set.iterator":        "java.util.Iterator",
	"java.util.Set.stream":          "java.util.stream.Stream",
	"java.util.Map.keySet":          "java.util.Set",
	"java.util.Map.entrySet":        "java.util.Set",
	"java.util.Map.values":          "java.util.Collection",
	"java.util.Map.size":            "int",
	"java.util.Iterator.hasNext":    "boolean",
	"java.util.Scanner.nextLine":    "java.lang.String",
	"java.util.Scanner.nextInt":     "int",
	"java.util.Scanner.hasNext":     "boolean",

	"java.util.stream.Stream.filter":   sameAsReceiver,
	"java.util.stream.Stream.map":      sameAsReceiver,
	"java.util.stream.Stream.sorted":   sameAsReceiver,
	"java.util.stream.Stream.distinct": sameAsReceiver,
	"java.util.stream.Stream.limit":    sameAsReceiver,
	"java.util.stream.Stream.skip":     sameAsReceiver,
	"java.util.stream.Stream.peek":     sameAsReceiver,
	"java.util.stream.Stream.count":    "long",
}

var primitiveTypes = map[string]bool{
	"int": true, "long": true, "short": true, "byte": true, "char": true,
	"boolean": true, "float": true, "double": true, "void": true,
}

// typeResolver maps type names as written in source to qualified names
// using the imports and declarations of one compilation unit.
type typeResolver struct {
	pkg      string
	imports  map[string]string
	onDemand []string
	declared map[string]string
}

func newTypeResolver(unit *CompilationUnit) *typeResolver {
	r := &typeResolver{
		pkg:      unit.Package,
		imports:  unit.Imports,
		onDemand: unit.OnDemandImports,
		declared: make(map[string]string),
	}
	var walk func(types []*TypeDecl)
	walk = func(types []*TypeDecl) {
		for _, t := range types {
			if _, ok := r.declared[t.Name]; !ok {
				r.declared[t.Name] = t.QualifiedName
			}
			walk(t.Nested)
		}
	}
	walk(unit.Types)
	return r
}

// resolve returns the qualified, erased form of a type as written, or ""
// when it cannot be determined.
func (r *typeResolver) resolve(written string) string {
	t := eraseGenerics(strings.TrimSpace(written))
	t = strings.TrimSpace(strings.TrimPrefix(t, "final "))
	if t == "" || t == "var" {
		return ""
	}

	dims := ""
	for strings.HasSuffix(t, "[]") {
		dims += "[]"
		t = strings.TrimSpace(strings.TrimSuffix(t, "[]"))
	}
	if strings.HasSuffix(t, "...") {
		dims += "[]"
		t = strings.TrimSuffix(t, "...")
	}

	if primitiveTypes[t] {
		return t + dims
	}

	base := r.resolveName(t)
	if base == "" {
		return ""
	}
	return base + dims
}

func (r *typeResolver) resolveName(name string) string {
	if idx := strings.Index(name, "."); idx >= 0 {
		// Outer.Inner or a fully qualified name.
		head, rest := name[:idx], name[idx+1:]
		if q := r.resolveSimple(head); q != "" {
			return q + "." + rest
		}
		if startsLower(head) {
			return name
		}
		return ""
	}
	return r.resolveSimple(name)
}

func (r *typeResolver) resolveSimple(name string) string {
	if q, ok := r.imports[name]; ok {
		return q
	}
	if q, ok := r.declared[name]; ok {
		return q
	}
	if javaLangTypes[name] {
		return "java.lang." + name
	}
	if startsUpper(name) && len(r.onDemand) > 0 {
		return r.onDemand[0] + "." + name
	}
	return ""
}

// isTypeName reports whether an identifier used as a receiver names a type
// rather than a variable.
func (r *typeResolver) isTypeName(name string) bool {
	return startsUpper(name) && r.resolveSimple(name) != ""
}

// eraseGenerics strips type arguments: "Map<K, List<V>>[]" -> "Map[]".
func eraseGenerics(t string) string {
	if !strings.Contains(t, "<") {
		return t
	}
	var b strings.Builder
	depth := 0
	for _, c := range t {
		switch {
		case c == '<':
			depth++
		case c == '>':
			depth--
		case depth == 0:
			b.WriteRune(c)
		}
	}
	return b.String()
}

func startsUpper(s string) bool {
	for _, c := range s {
		return unicode.IsUpper(c)
	}
	return false
}

func startsLower(s string) bool {
	for _, c := range s {
		return unicode.IsLower(c)
	}
	return false
}

// scope is a lexical variable scope holding resolved variable types.
// An empty type means the variable exists but its type is unknown.
type scope struct {
	vars   map[string]string
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]string), parent: parent}
}

func (s *scope) declare(name, typ string) {
	s.vars[name] = typ
}

// lookup returns the type of a variable and whether it is declared.
func (s *scope) lookup(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return "", false
}
