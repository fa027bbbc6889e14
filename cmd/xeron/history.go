package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past crawl runs from the history database",
		Long: `History lists crawl runs stored in the history database, newest first.

Examples:
  # List recent runs across all targets
  xeron history

  # List recent runs for one target
  xeron history --target https://example.com

  # Show every distinct email ever extracted
  xeron history --category email`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("target", "", "Only show runs for this seed URL")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().String("category", "",
		"Show all distinct matches for a category instead of listing runs")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	target, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return err
	}

	// Opening read-only: a missing database just means nothing has been
	// crawled yet.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history found.")
		return nil
	}
	defer db.Close() //nolint:errcheck

	if category != "" {
		values, err := db.MatchesByCategory(cmd.Context(), category)
		if err != nil {
			return fmt.Errorf("failed to query matches: %w", err)
		}
		if len(values) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No matches recorded for category %q.\n", category)
			return nil
		}
		for _, v := range values {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
		return nil
	}

	runs, err := db.RecentRuns(cmd.Context(), target, limit)
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tTARGET\tDEPTH\tPAGES\tFAILED\tMATCHES\tSTATUS")
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = "error"
		}

		var matches int
		for _, values := range r.Results {
			matches += len(values)
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Target,
			r.Depth,
			r.PagesCrawled,
			r.PagesFailed,
			matches,
			status,
		)
	}
	return w.Flush()
}
