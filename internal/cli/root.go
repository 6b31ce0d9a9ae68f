// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-fileprotect.
//
// go-fileprotect is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package cli implements the fileprotect command-line interface.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-fileprotect/pkg/client"
)

// Config holds the CLI global options.
type Config struct {
	Server       string
	OutputFormat string
	Timeout      time.Duration
	Verbose      bool
}

var globalConfig *Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fileprotect",
	Short: "fileprotect CLI - File protection client",
	Long: `fileprotect CLI provides a command-line interface for the
fileprotect service, which inspects, protects, and unprotects files
through the native protection engine.

The server address defaults to localhost:8080 and can be overridden
with --server or the FILEPROTECT_SERVER environment variable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	globalConfig = &Config{}

	server := os.Getenv("FILEPROTECT_SERVER")
	if server == "" {
		server = "localhost:8080"
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&globalConfig.Server, "server", server,
		"fileprotect server address")
	rootCmd.PersistentFlags().StringVarP(&globalConfig.OutputFormat, "output", "o", "text",
		"output format (text, json)")
	rootCmd.PersistentFlags().DurationVar(&globalConfig.Timeout, "timeout", 90*time.Second,
		"per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&globalConfig.Verbose, "verbose", "v", false,
		"verbose output")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(protectCmd)
	rootCmd.AddCommand(unprotectCmd)
	rootCmd.AddCommand(healthCmd)
}

// getConfig returns the global configuration
func getConfig() *Config {
	return globalConfig
}

// newClient creates a client from the global options.
func newClient() (*client.Client, error) {
	return client.New(&client.Config{
		Address: globalConfig.Server,
		Timeout: globalConfig.Timeout,
	})
}

// handleError prints an error and exits with code 1
func handleError(err error) {
	printer := NewPrinter(globalConfig.OutputFormat, os.Stderr)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
	os.Exit(1)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if globalConfig.Verbose {
		fmt.Fprintf(os.Stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
