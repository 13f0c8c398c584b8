// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/dispatchgen/internal/accessor"
	"github.com/petar-djukic/dispatchgen/pkg/dispatchgen"
)

// pipelineConfig builds the shared phase configuration from flags.
func pipelineConfig() dispatchgen.Config {
	return dispatchgen.Config{
		Root:        viper.GetString("root"),
		Source:      viper.GetString("dir"),
		Concurrency: viper.GetInt("concurrency"),
	}
}

// newInterfaceCmd creates the "interface" command (interface-capture mode).
func newInterfaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interface",
		Short: "Capture the canonical dispatch interface signature",
		Long: "Interface scans the package for the //dispatchgen:interface directive and persists " +
			"the canonical signature of the annotated method. The annotated method must be named " +
			"execute, the fixed name every generated command implementation carries. Run this once " +
			"before collecting commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dispatchgen.CaptureInterface(pipelineConfig()); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return err
			}
			fmt.Println("interface signature captured")
			return nil
		},
	}
}

// newCollectCmd creates the "collect" command (command-collection mode).
func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Validate and persist annotated command functions",
		Long: "Collect scans the package for //dispatchgen:command directives, checks each function " +
			"against the captured interface signature, and persists one fragment per command.",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := dispatchgen.CollectCommands(pipelineConfig())
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return err
			}
			fmt.Printf("%d commands collected\n", n)
			return nil
		},
	}
}

// newGenerateCmd creates the "generate" command (registry-generation mode).
func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Emit the registry from the captured fragments",
		Long: "Generate reads every fragment under the build root and emits one Go source file with " +
			"a constant, a marker type, and a dispatch method per command, plus the closed dispatch type.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := pipelineConfig()
			cfg.Package, _ = cmd.Flags().GetString("package")
			cfg.TypeName, _ = cmd.Flags().GetString("type")
			cfg.Interface, _ = cmd.Flags().GetString("interface")
			cfg.Out, _ = cmd.Flags().GetString("out")

			if err := dispatchgen.GenerateRegistry(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return err
			}
			fmt.Printf("registry written to %s\n", cfg.Out)
			return nil
		},
	}

	cmd.Flags().StringP("package", "p", "", "Package clause of the generated file (required)")
	cmd.Flags().StringP("out", "o", "", "Output path of the generated file (required)")
	cmd.Flags().String("type", "Command", "Name of the generated dispatch type")
	cmd.Flags().String("interface", "Executer", "Name of the dispatch interface")
	cmd.MarkFlagRequired("package")
	cmd.MarkFlagRequired("out")

	return cmd
}

// newAccessorCmd creates the "accessor" command.
func newAccessorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accessor",
		Short: "Derive accessor methods for a single-field wrapper type",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			typeName, _ := cmd.Flags().GetString("type")
			withSetter, _ := cmd.Flags().GetBool("setter")

			src, err := accessor.DeriveFromFile(file, typeName, withSetter)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return err
			}
			os.Stdout.Write(src)
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", "Source file declaring the wrapper type (required)")
	cmd.Flags().StringP("type", "t", "", "Wrapper type name (required)")
	cmd.Flags().Bool("setter", false, "Also derive a pointer-receiver setter")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("type")

	return cmd
}
