// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scan discovers dispatchgen directives in a Go package tree.
// Two directives exist:
//
//	//dispatchgen:interface
//	//dispatchgen:command <code> "<name>"
//
// The first marks the single abstract method of the dispatch interface;
// the second marks a free function implementing one command. Files are
// parsed with a bounded worker pool.
package scan

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/petar-djukic/dispatchgen/internal/sig"
)

const (
	interfaceDirective = "//dispatchgen:interface"
	commandDirective   = "//dispatchgen:command"
)

// skipDirs contains directory names the walk skips by default.
var skipDirs = map[string]bool{
	"vendor":   true,
	".git":     true,
	"testdata": true,
}

// BadDirectiveError reports a directive whose arguments do not parse as
// the expected (code, name) pair.
type BadDirectiveError struct {
	FilePath string
	Line     int
	Text     string
	Reason   string
}

func (e *BadDirectiveError) Error() string {
	return fmt.Sprintf("%s:%d: malformed directive %q: %s (expect `//dispatchgen:command <code: u8> <name: string>`)",
		e.FilePath, e.Line, e.Text, e.Reason)
}

// Command is one function annotated with a command directive.
type Command struct {
	Code     uint8
	Name     string
	Decl     *ast.FuncDecl
	FilePath string
}

// Result holds everything a scan discovered.
type Result struct {
	FileSet *token.FileSet
	// Iface is the annotated interface method lifted to a FuncDecl,
	// nil when no interface directive was found.
	Iface     *ast.FuncDecl
	IfacePath string
	Commands  []Command
}

// Dir walks the directory tree rooted at dir, parses every .go file
// with a bounded worker pool, and extracts directive-annotated
// declarations. Commands are returned ordered by file path so callers
// see a stable sequence. The concurrency parameter bounds the parser
// pool; if <= 0 it defaults to runtime.NumCPU().
//
// A malformed command directive aborts the scan with
// *BadDirectiveError. Two interface directives abort the scan: exactly
// one canonical interface exists per dispatch type.
func Dir(dir string, concurrency int) (*Result, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absDir)
	}

	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".go") && !strings.HasSuffix(d.Name(), "_test.go") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	fset := token.NewFileSet()
	result := &Result{FileSet: fset}
	if len(paths) == 0 {
		return result, nil
	}

	// Parse files using a bounded worker pool.
	type parsed struct {
		path string
		file *ast.File
		err  error
	}

	jobs := make(chan string, len(paths))
	results := make(chan parsed, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				f, parseErr := parser.ParseFile(fset, path, nil, parser.ParseComments)
				results <- parsed{path: path, file: f, err: parseErr}
			}
		}()
	}
	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	files := make(map[string]*ast.File, len(paths))
	for pr := range results {
		if pr.err != nil {
			return nil, fmt.Errorf("parsing %s: %w", pr.path, pr.err)
		}
		files[pr.path] = pr.file
	}

	// Extract in sorted path order so command order is stable.
	sorted := make([]string, 0, len(files))
	for p := range files {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	for _, path := range sorted {
		if err := extract(fset, path, files[path], result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// extract pulls annotated declarations out of one parsed file.
func extract(fset *token.FileSet, path string, file *ast.File, result *Result) error {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			dir, line := directive(fset, d.Doc, commandDirective)
			if dir == "" {
				continue
			}
			code, name, err := parseCommandArgs(path, line, dir)
			if err != nil {
				return err
			}
			result.Commands = append(result.Commands, Command{
				Code:     code,
				Name:     name,
				Decl:     d,
				FilePath: path,
			})
		case *ast.GenDecl:
			if err := extractIface(fset, path, d, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractIface looks for the interface directive on methods of
// interface type declarations.
func extractIface(fset *token.FileSet, path string, gd *ast.GenDecl, result *Result) error {
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		it, ok := ts.Type.(*ast.InterfaceType)
		if !ok || it.Methods == nil {
			continue
		}
		for _, m := range it.Methods.List {
			dir, line := directive(fset, m.Doc, interfaceDirective)
			if dir == "" {
				continue
			}
			if rest := strings.TrimPrefix(dir, interfaceDirective); strings.TrimSpace(rest) != "" {
				return &BadDirectiveError{FilePath: path, Line: line, Text: dir, Reason: "interface directive takes no arguments"}
			}
			if result.Iface != nil {
				return fmt.Errorf("%s:%d: second interface directive (first at %s): exactly one dispatch interface is allowed",
					path, line, result.IfacePath)
			}
			fd, err := sig.MethodDecl(m)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", path, line, err)
			}
			result.Iface = fd
			result.IfacePath = path
		}
	}
	return nil
}

// directive returns the first comment line carrying the named
// directive token, plus its line number, or "" when absent. The token
// must be followed by whitespace or the end of the comment: a longer
// word sharing the prefix, such as //dispatchgen:commander, is an
// ordinary comment.
func directive(fset *token.FileSet, doc *ast.CommentGroup, name string) (string, int) {
	if doc == nil {
		return "", 0
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, name)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		return c.Text, fset.Position(c.Pos()).Line
	}
	return "", 0
}

// parseCommandArgs parses `//dispatchgen:command <code> "<name>"`.
// The code literal accepts any Go integer syntax (0x00, 42); the name
// must be a quoted string.
func parseCommandArgs(path string, line int, text string) (uint8, string, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, commandDirective))
	fields := splitArgs(rest)
	if len(fields) != 2 {
		return 0, "", &BadDirectiveError{FilePath: path, Line: line, Text: text, Reason: fmt.Sprintf("want 2 arguments, got %d", len(fields))}
	}

	code, err := strconv.ParseUint(fields[0], 0, 8)
	if err != nil {
		return 0, "", &BadDirectiveError{FilePath: path, Line: line, Text: text, Reason: fmt.Sprintf("code %q is not a u8 literal", fields[0])}
	}
	name, err := strconv.Unquote(fields[1])
	if err != nil || name == "" {
		return 0, "", &BadDirectiveError{FilePath: path, Line: line, Text: text, Reason: fmt.Sprintf("name %s is not a non-empty quoted string", fields[1])}
	}
	return uint8(code), name, nil
}

// splitArgs splits on spaces outside double quotes.
func splitArgs(s string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case (r == ' ' || r == '\t') && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
