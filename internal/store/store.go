// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package store persists capture-phase state as JSON documents under a
// build root, one file per key. The "raw" field of every document holds
// program text and travels base64-encoded on disk, so stored files stay
// valid JSON regardless of the quotes, braces, and newlines the text
// contains.
package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// InterfacePath is the well-known key of the interface capture record.
	InterfacePath = "interface.json"

	// CommandDir is the subdirectory holding one fragment per command.
	CommandDir = "commands"
)

// PathError reports an I/O or decoding failure for a single stored
// document. Op is "read", "write", or "decode".
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Entry pairs a listed document with the file it was read from.
type Entry struct {
	Path string
	Doc  map[string]any
}

// Store reads and writes JSON documents relative to a build root.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory does not need to
// exist yet; Put creates it on demand.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the build root the store was created with.
func (s *Store) Root() string { return s.root }

// CommandPath returns the store key for a command fragment.
func CommandPath(snakeName string) string {
	return filepath.Join(CommandDir, snakeName+".json")
}

// Put marshals doc to JSON and writes it to key, creating parent
// directories as needed and overwriting any existing file. A "raw"
// field, when present, must be a string; it is stored base64-encoded.
func (s *Store) Put(key string, doc map[string]any) error {
	path := filepath.Join(s.root, key)

	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	if raw, ok := out["raw"]; ok {
		str, ok := raw.(string)
		if !ok {
			return &PathError{Op: "write", Path: path, Err: fmt.Errorf("raw field is %T, want string", raw)}
		}
		out["raw"] = base64.StdEncoding.EncodeToString([]byte(str))
	}

	data, err := json.Marshal(out)
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Get reads the document stored at key and base64-decodes its "raw"
// field. It fails with *PathError when the file is missing, unreadable,
// not valid JSON, or has a missing or non-base64 "raw" field.
func (s *Store) Get(key string) (map[string]any, error) {
	return readDoc(filepath.Join(s.root, key))
}

// List walks the directory at key recursively and returns every
// document found, in filesystem walk order. A missing directory yields
// an empty list; any unreadable or undecodable file aborts the walk
// with *PathError.
func (s *Store) List(key string) ([]Entry, error) {
	dir := filepath.Join(s.root, key)

	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return &PathError{Op: "read", Path: path, Err: err}
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		doc, err := readDoc(path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: path, Doc: doc})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func readDoc(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &PathError{Op: "decode", Path: path, Err: err}
	}

	raw, ok := doc["raw"].(string)
	if !ok {
		return nil, &PathError{Op: "decode", Path: path, Err: fmt.Errorf("raw field missing or not a string")}
	}
	text, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &PathError{Op: "decode", Path: path, Err: err}
	}
	doc["raw"] = string(text)

	return doc, nil
}
