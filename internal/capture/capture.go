// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package capture implements the two state-recording phases of the
// pipeline. The interface phase persists the canonical signature of the
// dispatch interface's single method as ground truth; the command phase
// validates each annotated command against that ground truth and
// persists the command as a fragment. Both phases are transparent to
// their caller: the input declaration is returned unmodified so the
// original definition keeps compiling in the source package.
package capture

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"io/fs"

	"github.com/iancoleman/strcase"

	"github.com/petar-djukic/dispatchgen/internal/sig"
	"github.com/petar-djukic/dispatchgen/internal/store"
	"github.com/petar-djukic/dispatchgen/pkg/types"
)

// MissingInterfaceError reports a command capture attempted before the
// interface capture phase has run.
type MissingInterfaceError struct {
	Path string
}

func (e *MissingInterfaceError) Error() string {
	return fmt.Sprintf("no interface signature found at %s: run the interface-capture phase before collecting commands", e.Path)
}

// MismatchError reports a command whose canonical signature does not
// equal the captured interface signature. Both canonical forms are
// carried for diagnosis.
type MismatchError struct {
	Want string // captured interface signature
	Got  string // command signature
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("inconsistent interface signature: expect `%s`, found `%s`", e.Want, e.Got)
}

// Interface records the canonical signature of the dispatch interface
// method, unconditionally overwriting any prior record. The input is
// returned unchanged. The method must be declared under the fixed
// dispatch name: generation renames every captured command to that
// name, and the emitted interface assertions only hold when the
// interface declares the same one. Beyond that the phase fails only on
// I/O or malformed declarations.
func Interface(st *store.Store, fset *token.FileSet, method *ast.FuncDecl) (*ast.FuncDecl, error) {
	if method.Name.Name != types.DispatchMethod {
		return method, fmt.Errorf("interface method must be named %q, got %q: generated command implementations carry the fixed dispatch name",
			types.DispatchMethod, method.Name.Name)
	}
	canonical, err := sig.Canonical(fset, method)
	if err != nil {
		return method, fmt.Errorf("normalizing interface method: %w", err)
	}
	if err := st.Put(store.InterfacePath, map[string]any{"raw": canonical}); err != nil {
		return method, err
	}
	return method, nil
}

// Command validates one annotated command against the captured
// interface and persists it as a fragment keyed by the snake-case form
// of name. The persisted source text is the original declaration with
// the placeholder receiver attached, so the generation phase gets
// runnable code rather than the erased canonical form. The input is
// returned unchanged.
//
// Fails with *MissingInterfaceError when no interface record exists,
// *MismatchError when the shapes differ, or *store.PathError on I/O
// failure. Name collisions after case folding are not detected here:
// the second write silently replaces the first.
func Command(st *store.Store, fset *token.FileSet, code uint8, name string, fn *ast.FuncDecl) (*ast.FuncDecl, error) {
	got, err := sig.Canonical(fset, fn)
	if err != nil {
		return fn, fmt.Errorf("normalizing command %s: %w", name, err)
	}

	doc, err := st.Get(store.InterfacePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fn, &MissingInterfaceError{Path: store.InterfacePath}
		}
		return fn, err
	}
	want := doc["raw"].(string)

	if want != got {
		return fn, &MismatchError{Want: want, Got: got}
	}

	raw, err := sig.WithReceiver(fset, fn)
	if err != nil {
		return fn, fmt.Errorf("preparing command %s for storage: %w", name, err)
	}

	key := store.CommandPath(strcase.ToSnake(name))
	err = st.Put(key, map[string]any{
		"name": name,
		"code": int(code),
		"raw":  raw,
	})
	if err != nil {
		return fn, err
	}
	return fn, nil
}
