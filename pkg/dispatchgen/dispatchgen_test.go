// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package dispatchgen

import (
	"go/ast"
	"go/parser"
	"go/token"
	gotypes "go/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/dispatchgen/internal/capture"
)

// writePackage lays out an annotated source package in a temp dir.
func writePackage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

var pipelineSource = map[string]string{
	"vm.go": `package vm

type Argument struct{}

type VirtualMachine struct{}

func (v *VirtualMachine) Print(args []Argument) {}
`,
	"executer.go": `package vm

type Executer interface {
	//dispatchgen:interface
	execute(vm *VirtualMachine, args []Argument) error
}
`,
	"nope.go": `package vm

//dispatchgen:command 0x00 "Nope"
func ExecuteNope(vm *VirtualMachine, args []Argument) error {
	return nil
}
`,
	"echo.go": `package vm

//dispatchgen:command 0x01 "Echo"
func ExecuteEcho(kernel *VirtualMachine, operands []Argument) error {
	kernel.Print(operands)
	return nil
}
`,
}

func TestPipeline_EndToEnd(t *testing.T) {
	src := writePackage(t, pipelineSource)
	cfg := Config{
		Root:    filepath.Join(t.TempDir(), "state"),
		Source:  src,
		Package: "vm",
		Out:     filepath.Join(t.TempDir(), "registry.go"),
	}

	// Phase 1: interface capture.
	require.NoError(t, CaptureInterface(cfg))
	_, err := os.Stat(filepath.Join(cfg.Root, "interface.json"))
	require.NoError(t, err)

	// Phase 2: command collection.
	n, err := CollectCommands(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = os.Stat(filepath.Join(cfg.Root, "commands", "nope.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.Root, "commands", "echo.json"))
	require.NoError(t, err)

	// Phase 3: registry generation.
	require.NoError(t, GenerateRegistry(cfg))

	data, err := os.ReadFile(cfg.Out)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "package vm")
	assert.Contains(t, out, "const NOPE uint8 = 0")
	assert.Contains(t, out, "const ECHO uint8 = 1")
	assert.Contains(t, out, "type Nope struct{}")
	assert.Contains(t, out, "type Echo struct{}")
	assert.Contains(t, out, "type Command struct")
	assert.Contains(t, out, "case Echo:")
	assert.Contains(t, out, "Nope{}.execute")
	// The command body survives with its local naming.
	assert.Contains(t, out, "kernel.Print(operands)")

	_, err = parser.ParseFile(token.NewFileSet(), "registry.go", data, 0)
	assert.NoError(t, err)
}

// TestPipeline_GeneratedRegistryTypeChecks runs the full pipeline and
// then type-checks the annotated package together with the emitted
// registry. The markers must satisfy the annotated interface and the
// dispatch type's zero value must delegate without further edits.
func TestPipeline_GeneratedRegistryTypeChecks(t *testing.T) {
	src := writePackage(t, pipelineSource)
	cfg := Config{
		Root:    filepath.Join(t.TempDir(), "state"),
		Source:  src,
		Package: "vm",
		Out:     filepath.Join(src, "registry.go"),
	}

	require.NoError(t, CaptureInterface(cfg))
	_, err := CollectCommands(cfg)
	require.NoError(t, err)
	require.NoError(t, GenerateRegistry(cfg))

	fset := token.NewFileSet()
	var files []*ast.File
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(src, entry.Name()), nil, 0)
		require.NoError(t, err)
		files = append(files, file)
	}

	conf := gotypes.Config{}
	_, err = conf.Check("vm", fset, files, nil)
	require.NoError(t, err)
}

func TestCollectCommands_BeforeInterfaceCapture(t *testing.T) {
	src := writePackage(t, pipelineSource)
	cfg := Config{Root: filepath.Join(t.TempDir(), "state"), Source: src}

	_, err := CollectCommands(cfg)

	var merr *capture.MissingInterfaceError
	require.ErrorAs(t, err, &merr)
}

func TestCaptureInterface_NoDirective(t *testing.T) {
	src := writePackage(t, map[string]string{"plain.go": "package vm\n\nfunc Helper() {}\n"})
	cfg := Config{Root: t.TempDir(), Source: src}

	err := CaptureInterface(cfg)
	assert.ErrorIs(t, err, ErrNoInterface)
}

func TestCollectCommands_MismatchNamesCommand(t *testing.T) {
	files := map[string]string{
		"executer.go": pipelineSource["executer.go"],
		"bad.go": `package vm

//dispatchgen:command 0x02 "Bad"
func ExecuteBad(vm *VirtualMachine) error {
	return nil
}
`,
	}
	src := writePackage(t, files)
	cfg := Config{Root: filepath.Join(t.TempDir(), "state"), Source: src}

	require.NoError(t, CaptureInterface(cfg))
	_, err := CollectCommands(cfg)

	require.Error(t, err)
	var merr *capture.MismatchError
	require.ErrorAs(t, err, &merr)
	assert.Contains(t, err.Error(), `command "Bad"`)
}

func TestConfigValidation(t *testing.T) {
	assert.ErrorIs(t, CaptureInterface(Config{}), ErrInvalidConfig)

	_, err := CollectCommands(Config{Source: "/does/not/exist"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	err = GenerateRegistry(Config{Package: "vm"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
