// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package accessor derives delegation methods for single-field wrapper
// types: a value accessor, and optionally a setter. It is a one-shot
// structural derivation with no interaction with the fragment store.
package accessor

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrNotStruct is returned when the target type is not a struct.
	ErrNotStruct = errors.New("accessor can only be derived for struct types")
	// ErrNoFields is returned for empty structs.
	ErrNoFields = errors.New("cannot derive accessor for an empty struct")
	// ErrMultipleFields is returned for structs with more than one field.
	ErrMultipleFields = errors.New("cannot derive accessor for a struct with multiple fields")
	// ErrTypeNotFound is returned when the named type is not declared in
	// the source file.
	ErrTypeNotFound = errors.New("type not found")
)

// Derive returns gofmt-formatted accessor methods for the single field
// of the struct declared by ts. With withSetter set, a pointer-receiver
// setter is emitted alongside the value accessor.
func Derive(fset *token.FileSet, ts *ast.TypeSpec, withSetter bool) ([]byte, error) {
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, ts.Name.Name)
	}
	if st.Fields == nil || len(st.Fields.List) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFields, ts.Name.Name)
	}
	if len(st.Fields.List) > 1 || len(st.Fields.List[0].Names) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrMultipleFields, ts.Name.Name)
	}

	field := st.Fields.List[0]
	member, err := memberName(field)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ts.Name.Name, err)
	}

	var typeText bytes.Buffer
	if err := printer.Fprint(&typeText, fset, field.Type); err != nil {
		return nil, fmt.Errorf("printing field type: %w", err)
	}

	typeName := ts.Name.Name
	first, _ := utf8.DecodeRuneInString(typeName)
	recv := string(unicode.ToLower(first))
	fieldType := typeText.String()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Value returns the wrapped %s.\nfunc (%s %s) Value() %s {\n\treturn %s.%s\n}\n",
		fieldType, recv, typeName, fieldType, recv, member)
	if withSetter {
		fmt.Fprintf(&buf, "\n// Set replaces the wrapped %s.\nfunc (%s *%s) Set(v %s) {\n\t%s.%s = v\n}\n",
			fieldType, recv, typeName, fieldType, recv, member)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting accessor methods: %w", err)
	}
	return out, nil
}

// DeriveFromFile parses the Go source file at path, locates the named
// type, and derives its accessor methods.
func DeriveFromFile(path, typeName string, withSetter bool) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gd.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok && ts.Name.Name == typeName {
				return Derive(fset, ts, withSetter)
			}
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrTypeNotFound, typeName, path)
}

// memberName resolves the selector used to reach the struct's single
// field: the field name when present, or the embedded type's base name.
func memberName(field *ast.Field) (string, error) {
	if len(field.Names) == 1 {
		return field.Names[0].Name, nil
	}
	switch t := field.Type.(type) {
	case *ast.Ident:
		return t.Name, nil
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name, nil
		}
	case *ast.SelectorExpr:
		return t.Sel.Name, nil
	}
	return "", fmt.Errorf("cannot resolve embedded field name")
}
