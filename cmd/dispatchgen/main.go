// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command dispatchgen generates a closed command dispatch type from
// directive-annotated Go source. It runs as three mutually exclusive
// build modes (interface, collect, generate) plus a standalone accessor
// derivation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "dispatchgen",
		Short: "Closed dispatch type generator",
		Long: "dispatchgen captures annotated command functions across build passes " +
			"and synthesizes a closed dispatch type whose variants are exactly the captured commands.",
	}

	// Global flags.
	rootCmd.PersistentFlags().String("root", ".dispatchgen", "Build root holding persisted capture state")
	rootCmd.PersistentFlags().String("dir", ".", "Package directory to scan for directives")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Parser pool size (0 = NumCPU)")

	// Bind flags to viper.
	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("dir", rootCmd.PersistentFlags().Lookup("dir"))
	viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))

	// Env vars: DISPATCHGEN_ROOT, DISPATCHGEN_DIR, etc.
	viper.SetEnvPrefix("DISPATCHGEN")
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".dispatchgen")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	// Add commands.
	rootCmd.AddCommand(newInterfaceCmd())
	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAccessorCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print dispatchgen version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dispatchgen %s\n", version)
		},
	}
}
