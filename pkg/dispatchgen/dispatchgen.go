// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package dispatchgen defines the public interface for dispatchgen, a
// build-time generator that aggregates independently written command
// implementations into a single closed dispatch type.
//
// The pipeline runs as three mutually exclusive phases over a shared
// build root. CaptureInterface persists the canonical signature of the
// annotated dispatch interface method. CollectCommands validates every
// annotated command function against that signature and persists one
// fragment per command. GenerateRegistry reads all fragments and emits
// the registry source file. The surrounding build must run the phases
// in that order; running CollectCommands first is surfaced as a
// missing-interface failure.
package dispatchgen

import (
	"errors"
	"fmt"
	"os"

	"github.com/petar-djukic/dispatchgen/internal/capture"
	"github.com/petar-djukic/dispatchgen/internal/generate"
	"github.com/petar-djukic/dispatchgen/internal/scan"
	"github.com/petar-djukic/dispatchgen/internal/store"
)

// ErrInvalidConfig is returned when required configuration is missing.
var ErrInvalidConfig = errors.New("invalid config")

// ErrNoInterface is returned by CaptureInterface when the scanned
// package declares no //dispatchgen:interface directive.
var ErrNoInterface = errors.New("no //dispatchgen:interface directive found")

const (
	defaultRoot      = ".dispatchgen"
	defaultTypeName  = "Command"
	defaultInterface = "Executer"
)

// Config configures the pipeline phases.
type Config struct {
	Root        string // Build root holding persisted state (default ".dispatchgen")
	Source      string // Package directory to scan for directives (capture phases)
	Package     string // Package clause of the generated file (generation)
	TypeName    string // Dispatch type name (default "Command")
	Interface   string // Dispatch interface name (default "Executer")
	Out         string // Output path of the generated file (generation)
	Concurrency int    // Parser pool size (default runtime.NumCPU)
}

// CaptureInterface scans cfg.Source for the interface directive and
// persists the canonical signature of the annotated method,
// overwriting any prior record.
func CaptureInterface(cfg Config) error {
	cfg = withDefaults(cfg)
	if err := validateSource(cfg); err != nil {
		return err
	}

	result, err := scan.Dir(cfg.Source, cfg.Concurrency)
	if err != nil {
		return err
	}
	if result.Iface == nil {
		return fmt.Errorf("%w in %s", ErrNoInterface, cfg.Source)
	}

	st := store.New(cfg.Root)
	_, err = capture.Interface(st, result.FileSet, result.Iface)
	return err
}

// CollectCommands scans cfg.Source for command directives, validates
// each annotated function against the captured interface, and persists
// one fragment per command. It returns the number of commands
// captured. The first failing command aborts the phase.
func CollectCommands(cfg Config) (int, error) {
	cfg = withDefaults(cfg)
	if err := validateSource(cfg); err != nil {
		return 0, err
	}

	result, err := scan.Dir(cfg.Source, cfg.Concurrency)
	if err != nil {
		return 0, err
	}

	st := store.New(cfg.Root)
	for i, cmd := range result.Commands {
		if _, err := capture.Command(st, result.FileSet, cmd.Code, cmd.Name, cmd.Decl); err != nil {
			return i, fmt.Errorf("command %q (%s): %w", cmd.Name, cmd.FilePath, err)
		}
	}
	return len(result.Commands), nil
}

// GenerateRegistry reads every fragment under the build root and
// writes the generated registry source to cfg.Out.
func GenerateRegistry(cfg Config) error {
	cfg = withDefaults(cfg)
	if cfg.Package == "" {
		return fmt.Errorf("%w: Package is required", ErrInvalidConfig)
	}
	if cfg.Out == "" {
		return fmt.Errorf("%w: Out is required", ErrInvalidConfig)
	}

	return generate.Emit(generate.Config{
		Root:      cfg.Root,
		Package:   cfg.Package,
		TypeName:  cfg.TypeName,
		Interface: cfg.Interface,
	}, cfg.Out)
}

// validateSource checks that the scan directory is usable.
func validateSource(cfg Config) error {
	if cfg.Source == "" {
		return fmt.Errorf("%w: Source is required", ErrInvalidConfig)
	}
	if info, err := os.Stat(cfg.Source); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: Source %q does not exist or is not a directory", ErrInvalidConfig, cfg.Source)
	}
	return nil
}

// withDefaults fills in zero-value fields with their defaults.
func withDefaults(cfg Config) Config {
	if cfg.Root == "" {
		cfg.Root = defaultRoot
	}
	if cfg.TypeName == "" {
		cfg.TypeName = defaultTypeName
	}
	if cfg.Interface == "" {
		cfg.Interface = defaultInterface
	}
	return cfg
}
