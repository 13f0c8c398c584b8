// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sig rewrites function declarations into a canonical,
// identifier-erased form used for structural signature comparison.
// Implementers may use any locally meaningful names; only arity,
// parameter order, and types must match, so the declared name and every
// binding name are replaced by a fixed placeholder before two shapes
// are compared. Equality is byte equality of the re-serialized
// canonical text.
package sig

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"reflect"

	"golang.org/x/tools/go/ast/astutil"
)

// Placeholder replaces erased identifiers in canonical declarations.
const Placeholder = "_"

// Clone deep-copies a function declaration by printing it with its own
// file set and re-parsing the result. The returned declaration carries
// its own file set and shares no nodes with the input.
func Clone(fset *token.FileSet, fn *ast.FuncDecl) (*token.FileSet, *ast.FuncDecl, error) {
	var buf bytes.Buffer
	buf.WriteString("package _\n\n")
	if err := printer.Fprint(&buf, fset, fn); err != nil {
		return nil, nil, fmt.Errorf("printing declaration: %w", err)
	}

	cloneFset := token.NewFileSet()
	file, err := parser.ParseFile(cloneFset, "", buf.String(), parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, fmt.Errorf("re-parsing declaration: %w", err)
	}
	for _, decl := range file.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok {
			return cloneFset, fd, nil
		}
	}
	return nil, nil, fmt.Errorf("re-parsed source contains no function declaration")
}

// Canonical returns the identifier-erased canonical text of fn. The
// input is not modified: a clone is stripped of its doc comment, body,
// and receiver, its name and every parameter binding name are replaced
// by Placeholder, and the bare declaration is printed on one line.
// Types, parameter order, and results are untouched.
//
// Binding-list layout does not survive canonicalization: grouped
// parameters are split into one entry per name, unnamed parameters
// gain the placeholder, and result names are dropped, so
// `func (a, b int) (err error)` and `func (x int, y int) error` yield
// the same canonical text.
func Canonical(fset *token.FileSet, fn *ast.FuncDecl) (string, error) {
	_, decl, err := Clone(fset, fn)
	if err != nil {
		return "", err
	}

	decl.Doc = nil
	decl.Body = nil
	decl.Recv = nil
	decl.Name = ast.NewIdent(Placeholder)
	canonicalize(decl.Type)
	clearPositions(decl)

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), decl); err != nil {
		return "", fmt.Errorf("printing canonical form: %w", err)
	}
	return buf.String(), nil
}

// WithReceiver returns the source text of fn with the placeholder
// receiver `(_ _)` attached. This is the persisted form of a captured
// command: runnable once the generation phase substitutes a concrete
// marker type for the receiver. The input is not modified.
func WithReceiver(fset *token.FileSet, fn *ast.FuncDecl) (string, error) {
	cloneFset, decl, err := Clone(fset, fn)
	if err != nil {
		return "", err
	}

	decl.Doc = nil
	decl.Recv = &ast.FieldList{List: []*ast.Field{{
		Names: []*ast.Ident{ast.NewIdent(Placeholder)},
		Type:  ast.NewIdent(Placeholder),
	}}}

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, cloneFset, decl); err != nil {
		return "", fmt.Errorf("printing receiver form: %w", err)
	}
	return buf.String(), nil
}

// MethodDecl lifts an interface method field into a free-standing
// function declaration sharing the method's type. Embedded interfaces
// and multi-name fields are rejected.
func MethodDecl(m *ast.Field) (*ast.FuncDecl, error) {
	if len(m.Names) != 1 {
		return nil, fmt.Errorf("interface member is not a single named method")
	}
	ft, ok := m.Type.(*ast.FuncType)
	if !ok {
		return nil, fmt.Errorf("interface member %s is not a method", m.Names[0].Name)
	}
	return &ast.FuncDecl{Name: m.Names[0], Type: ft}, nil
}

// canonicalize rewrites the signature's binding lists into their
// canonical layout. Top-level parameters become one Placeholder-named
// entry per declared binding; top-level results lose their names.
// Function types nested inside parameter or result types carry no
// bindings at all, so their names are dropped on both sides.
func canonicalize(ft *ast.FuncType) {
	ft.Params = flatten(ft.Params, true)
	ft.Results = flatten(ft.Results, false)
	if ft.TypeParams != nil {
		for _, f := range ft.TypeParams.List {
			for _, id := range f.Names {
				id.Name = Placeholder
			}
		}
	}
	astutil.Apply(ft, func(c *astutil.Cursor) bool {
		if nested, ok := c.Node().(*ast.FuncType); ok && nested != ft {
			nested.Params = flatten(nested.Params, false)
			nested.Results = flatten(nested.Results, false)
		}
		return true
	}, nil)
}

// flatten rewrites a field list to one entry per declared binding,
// named by Placeholder when placeholder is set and unnamed otherwise.
// An unnamed field already declares exactly one entry.
func flatten(fl *ast.FieldList, placeholder bool) *ast.FieldList {
	if fl == nil {
		return nil
	}
	out := &ast.FieldList{}
	for _, f := range fl.List {
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			nf := &ast.Field{Type: f.Type}
			if placeholder {
				nf.Names = []*ast.Ident{ast.NewIdent(Placeholder)}
			}
			out.List = append(out.List, nf)
		}
	}
	return out
}

var posType = reflect.TypeOf(token.NoPos)

// clearPositions zeroes every token position in the declaration so the
// printer lays it out fresh, on one line, regardless of how the source
// was formatted.
func clearPositions(n ast.Node) {
	clearValue(reflect.ValueOf(n))
}

func clearValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			clearValue(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if f.Type() == posType {
				if f.CanSet() {
					f.SetInt(int64(token.NoPos))
				}
				continue
			}
			clearValue(f)
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			clearValue(v.Index(i))
		}
	}
}
