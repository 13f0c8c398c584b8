// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package accessor

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseType parses the first type declaration from source.
func parseType(t *testing.T, src string) (*token.FileSet, *ast.TypeSpec) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", "package example\n\n"+src, 0)
	require.NoError(t, err)
	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok {
			for _, spec := range gd.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					return fset, ts
				}
			}
		}
	}
	t.Fatal("no type declaration in source")
	return nil, nil
}

func TestDerive_NamedField(t *testing.T) {
	fset, ts := parseType(t, `type MyInteger struct {
	value int
}`)

	src, err := Derive(fset, ts, false)
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "func (m MyInteger) Value() int")
	assert.Contains(t, out, "return m.value")
	assert.NotContains(t, out, "Set(")
}

func TestDerive_WithSetter(t *testing.T) {
	fset, ts := parseType(t, `type Wrapper struct {
	inner []byte
}`)

	src, err := Derive(fset, ts, true)
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "func (w Wrapper) Value() []byte")
	assert.Contains(t, out, "func (w *Wrapper) Set(v []byte)")
	assert.Contains(t, out, "w.inner = v")
}

func TestDerive_MultiByteTypeName(t *testing.T) {
	fset, ts := parseType(t, `type Überweisung struct {
	amount int
}`)

	src, err := Derive(fset, ts, false)
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "func (ü Überweisung) Value() int")
	assert.Contains(t, out, "return ü.amount")
}

func TestDerive_EmbeddedField(t *testing.T) {
	fset, ts := parseType(t, `type Timer struct {
	Clock
}`)

	src, err := Derive(fset, ts, false)
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "func (t Timer) Value() Clock")
	assert.Contains(t, out, "return t.Clock")
}

func TestDerive_Failures(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name:    "empty struct",
			src:     "type Empty struct{}",
			wantErr: ErrNoFields,
		},
		{
			name: "multiple fields",
			src: `type Pair struct {
	a int
	b int
}`,
			wantErr: ErrMultipleFields,
		},
		{
			name: "grouped names count as multiple fields",
			src: `type Point struct {
	x, y int
}`,
			wantErr: ErrMultipleFields,
		},
		{
			name:    "not a struct",
			src:     "type Alias = int",
			wantErr: ErrNotStruct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fset, ts := parseType(t, tt.src)
			_, err := Derive(fset, ts, false)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDeriveFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wrapper.go")
	require.NoError(t, os.WriteFile(path, []byte(`package example

type Budget struct {
	tokens int
}
`), 0o644))

	src, err := DeriveFromFile(path, "Budget", true)
	require.NoError(t, err)
	assert.Contains(t, string(src), "func (b Budget) Value() int")

	_, err = DeriveFromFile(path, "Missing", false)
	assert.ErrorIs(t, err, ErrTypeNotFound)
}
