// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package generate walks the fragment store and synthesizes the
// registry: one constant and one zero-state marker type per captured
// command, the dispatch method reattached to each marker, and the
// closed dispatch type delegating to whichever marker is active. The
// emitted file is a single gofmt-formatted unit; any fragment that
// fails to decode aborts the whole phase, a partial registry is never
// produced.
package generate

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/printer"
	"go/token"
	"io/fs"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/petar-djukic/dispatchgen/internal/capture"
	"github.com/petar-djukic/dispatchgen/internal/store"
	"github.com/petar-djukic/dispatchgen/pkg/types"
)

// dispatchMethod is the fixed, unexported name every captured command
// is renamed to. Interface capture rejects interfaces whose method is
// named anything else.
const dispatchMethod = types.DispatchMethod

// defaultMarker names the marker the dispatch type's zero value
// delegates to. Absence of a fragment with this name is not detected
// here: the emitted file then references an undefined identifier and
// downstream compilation fails, which keeps the absence observable.
const defaultMarker = "Nope"

// FragmentError reports a stored fragment that cannot be decoded or
// parsed. It aborts registry generation entirely.
type FragmentError struct {
	Path string
	Err  error
}

func (e *FragmentError) Error() string {
	return fmt.Sprintf("decoding fragment %s: %v", e.Path, e.Err)
}

func (e *FragmentError) Unwrap() error { return e.Err }

// Config configures a registry generation run.
type Config struct {
	Root      string // build root holding interface.json and commands/
	Package   string // package clause of the emitted file
	TypeName  string // name of the closed dispatch type
	Interface string // name of the dispatch interface the markers implement
}

// variant is one command lifted out of its fragment.
type variant struct {
	fragment types.Fragment
	marker   string // upper-camel marker type identifier
	constant string // upper-snake constant identifier
	fset     *token.FileSet
	method   *ast.FuncDecl // renamed to dispatchMethod, receiver rewritten
}

// Registry loads every fragment under the build root's command
// directory and returns the generated registry source. Fragment order
// is the filesystem walk order of the store. Fails with *FragmentError
// on any undecodable fragment and with *capture.MissingInterfaceError
// when the interface record, which supplies the dispatch method
// signature, is absent.
func Registry(cfg Config) ([]byte, error) {
	st := store.New(cfg.Root)

	ifaceDoc, err := st.Get(store.InterfacePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &capture.MissingInterfaceError{Path: store.InterfacePath}
		}
		return nil, err
	}

	entries, err := st.List(store.CommandDir)
	if err != nil {
		var perr *store.PathError
		if errors.As(err, &perr) {
			return nil, &FragmentError{Path: perr.Path, Err: perr.Err}
		}
		return nil, err
	}

	variants := make([]variant, 0, len(entries))
	for _, entry := range entries {
		v, err := loadVariant(entry)
		if err != nil {
			return nil, &FragmentError{Path: entry.Path, Err: err}
		}
		variants = append(variants, v)
	}

	src, err := render(cfg, ifaceDoc["raw"].(string), variants)
	if err != nil {
		return nil, err
	}

	out, err := format.Source(src)
	if err != nil {
		return nil, fmt.Errorf("formatting generated registry: %w", err)
	}
	return out, nil
}

// loadVariant decodes one fragment and rewrites its declaration into a
// marker method: renamed to dispatchMethod, visibility reduced by the
// rename itself, and the placeholder receiver replaced by the marker
// type.
func loadVariant(entry store.Entry) (variant, error) {
	frag, err := types.FragmentFromDoc(entry.Doc)
	if err != nil {
		return variant{}, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", "package _\n\n"+frag.Raw, 0)
	if err != nil {
		return variant{}, fmt.Errorf("parsing source text: %w", err)
	}
	var fd *ast.FuncDecl
	for _, decl := range file.Decls {
		if f, ok := decl.(*ast.FuncDecl); ok {
			fd = f
			break
		}
	}
	if fd == nil {
		return variant{}, fmt.Errorf("source text contains no function declaration")
	}

	marker := strcase.ToCamel(frag.Name)
	fd.Name.Name = dispatchMethod
	fd.Recv = &ast.FieldList{List: []*ast.Field{{Type: ast.NewIdent(marker)}}}

	return variant{
		fragment: frag,
		marker:   marker,
		constant: strcase.ToScreamingSnake(frag.Name),
		fset:     fset,
		method:   fd,
	}, nil
}

// render emits the full set of synthesized declarations as one source
// unit: constants, markers, method implementations, and the dispatch
// type with its zero-value default.
func render(cfg Config, canonical string, variants []variant) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by dispatchgen. DO NOT EDIT.\n\npackage %s\n", cfg.Package)

	for _, v := range variants {
		fmt.Fprintf(&buf, "\nconst %s uint8 = %d\n\n", v.constant, v.fragment.Code)
		fmt.Fprintf(&buf, "// %s is the zero-state marker for the %q command.\ntype %s struct{}\n\n", v.marker, v.fragment.Name, v.marker)
		fmt.Fprintf(&buf, "var _ %s = %s{}\n\n", cfg.Interface, v.marker)
		if err := printer.Fprint(&buf, v.fset, v.method); err != nil {
			return nil, fmt.Errorf("printing %s method: %w", v.marker, err)
		}
		buf.WriteString("\n")
	}

	sigText, forward, err := dispatchSig(canonical, cfg.TypeName)
	if err != nil {
		return nil, fmt.Errorf("deriving dispatch signature: %w", err)
	}

	fmt.Fprintf(&buf, "\n// %s is the closed dispatch type over the generated command markers.\n", cfg.TypeName)
	fmt.Fprintf(&buf, "// The zero value dispatches to %s.\n", defaultMarker)
	fmt.Fprintf(&buf, "type %s struct {\n\ttag any\n}\n\n", cfg.TypeName)
	fmt.Fprintf(&buf, "// New%s selects tag as the active variant.\nfunc New%s(tag any) %s {\n\treturn %s{tag: tag}\n}\n\n",
		cfg.TypeName, cfg.TypeName, cfg.TypeName, cfg.TypeName)
	fmt.Fprintf(&buf, "var _ %s = %s{}\n\n", cfg.Interface, cfg.TypeName)

	buf.WriteString(sigText)
	buf.WriteString(" {\n")
	if len(variants) > 0 {
		buf.WriteString("\tswitch tag := d.tag.(type) {\n")
		for _, v := range variants {
			fmt.Fprintf(&buf, "\tcase %s:\n\t\t%s\n", v.marker, forward("tag"))
		}
	} else {
		buf.WriteString("\tswitch d.tag.(type) {\n")
	}
	fmt.Fprintf(&buf, "\tdefault:\n\t\t%s\n\t}\n}\n", forward(defaultMarker+"{}"))

	return buf.Bytes(), nil
}

// dispatchSig turns the captured canonical interface signature into the
// dispatch type's method header and a forwarding-call builder. The
// erased parameter names become arg0..argN so the delegation body can
// reference them.
func dispatchSig(canonical, typeName string) (string, func(recv string) string, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", "package _\n\n"+canonical, 0)
	if err != nil {
		return "", nil, fmt.Errorf("parsing interface signature: %w", err)
	}
	var fd *ast.FuncDecl
	for _, decl := range file.Decls {
		if f, ok := decl.(*ast.FuncDecl); ok {
			fd = f
			break
		}
	}
	if fd == nil {
		return "", nil, fmt.Errorf("interface signature contains no function declaration")
	}

	fd.Name.Name = dispatchMethod
	fd.Recv = &ast.FieldList{List: []*ast.Field{{
		Names: []*ast.Ident{ast.NewIdent("d")},
		Type:  ast.NewIdent(typeName),
	}}}

	var args []string
	if fd.Type.Params != nil {
		n := 0
		for _, field := range fd.Type.Params.List {
			_, variadic := field.Type.(*ast.Ellipsis)
			bind := func() {
				arg := fmt.Sprintf("arg%d", n)
				if variadic {
					args = append(args, arg+"...")
				} else {
					args = append(args, arg)
				}
				n++
			}
			if len(field.Names) == 0 {
				field.Names = []*ast.Ident{ast.NewIdent(fmt.Sprintf("arg%d", n))}
				bind()
				continue
			}
			for i := range field.Names {
				field.Names[i].Name = fmt.Sprintf("arg%d", n)
				bind()
			}
		}
	}
	if fd.Type.Results != nil {
		for _, field := range fd.Type.Results.List {
			field.Names = nil
		}
	}

	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, fd); err != nil {
		return "", nil, fmt.Errorf("printing dispatch signature: %w", err)
	}

	hasResults := fd.Type.Results != nil && len(fd.Type.Results.List) > 0
	forward := func(recv string) string {
		call := fmt.Sprintf("%s.%s(%s)", recv, dispatchMethod, strings.Join(args, ", "))
		if hasResults {
			return "return " + call
		}
		return call
	}
	return buf.String(), forward, nil
}
