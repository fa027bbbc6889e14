package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xeronsec/xeron/internal/config"
)

// NewCategoriesCmd creates the categories command.
func NewCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List the effective extraction category table",
		Long: `Categories prints the extraction category table a crawl would use:
the built-in defaults, or the replacement table from the configuration
file if one defines categories.

Examples:
  # Show the built-in categories
  xeron categories

  # Show the categories a custom config file would apply
  xeron categories -c myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runCategoriesCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .xeron in current or home directory)")

	return cmd
}

// runCategoriesCmd executes the categories command.
func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	configFilePath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()

	configPath := config.FindConfigFile(configFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if configFilePath != "" {
		return fmt.Errorf("configuration file not found: %s", configFilePath)
	}

	if err := validateCategories(cfg.Categories); err != nil {
		return fmt.Errorf("invalid category table: %w", err)
	}

	if getNoColorFlag(cmd) {
		color.NoColor = true
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintln(cmd.OutOrStdout(), "Extraction categories:")
	fmt.Fprintln(cmd.OutOrStdout())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFOLD\tPATTERN")
	for _, c := range cfg.Categories {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", c.ID, c.Name, c.Fold, c.Pattern)
	}
	return w.Flush()
}

// validateCategories checks every category compiles and is complete.
func validateCategories(categories []config.Category) error {
	for i := range categories {
		if err := categories[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
