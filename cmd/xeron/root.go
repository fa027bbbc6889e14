// Package main provides the entry point for the XERON CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes. Distinct codes let scripts distinguish why a run failed.
const (
	// exitConfig indicates invalid flags or configuration.
	exitConfig = 1

	// exitFilesystem indicates the report destination could not be
	// created or written.
	exitFilesystem = 3

	// exitRuntime indicates the crawl itself failed after starting.
	exitRuntime = 4
)

// exitError carries an exit code alongside the underlying error so
// Execute can translate failures into distinct process exit codes.
type exitError struct {
	code int
	err  error
}

// Error returns the underlying error message.
func (e *exitError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *exitError) Unwrap() error {
	return e.err
}

// newExitError wraps err with the given exit code.
func newExitError(code int, err error) *exitError {
	return &exitError{code: code, err: err}
}

// NewRootCmd creates the root command for XERON.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xeron",
		Short: "Breadth-first website crawler and data extractor",
		Long: `XERON crawls a website breadth-first from a seed URL and extracts
categorized data (email addresses, URLs, IP addresses, phone numbers,
and more) from every page it visits.

The crawl stays on the seed's host, honors a depth bound, and writes a
consolidated report to the console and to a report file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCategoriesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and maps failures to exit codes.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		// Flag parse errors and validation failures are configuration
		// problems.
		os.Exit(exitConfig)
	}
}
