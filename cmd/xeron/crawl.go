package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/database"
	"github.com/xeronsec/xeron/internal/extract"
	"github.com/xeronsec/xeron/internal/log"
	"github.com/xeronsec/xeron/internal/model"
	"github.com/xeronsec/xeron/internal/pipeline"
	"github.com/xeronsec/xeron/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a website and extract categorized data",
		Long: `Crawl fetches the seed URL and follows same-origin links breadth-first
up to the depth bound. Every fetched page is scanned against the
extraction category table (emails, URLs, IPs, phone numbers, and more),
and the consolidated, deduplicated matches are written to the console
and to the report file.

Examples:
  # Crawl with defaults (depth 5, report to roxen.txt)
  xeron crawl --url https://example.com

  # Shallow crawl with a custom report path
  xeron crawl --url https://example.com --depth 2 --output /tmp/report.txt

  # Authenticated crawl with a session cookie
  xeron crawl --url https://example.com --cookie "session=abc123"

  # JSON report for tool integration
  xeron crawl --url https://example.com --json

  # Crawl several sites concurrently, one report file per seed
  xeron crawl --url https://a.example --url https://b.example --batch 2

Configuration file (.xeron) example:
  cookie: "session=abc123"
  headers:
    Authorization: "Bearer token"
  categories:
    - id: order
      name: Order Numbers
      pattern: 'ORD-[0-9]{8}'`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringSliceP("url", "u", nil,
		"Seed URL to start crawling from (required, repeatable for batch crawls)")
	cmd.Flags().IntP("depth", "d", config.DefaultCrawlDepth,
		"Maximum link distance from the seed to follow")
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		"Report file path")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch per run")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Pause between requests")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header to send")
	cmd.Flags().String("cookie", "",
		"Initial Cookie header value (e.g. \"session=abc123\")")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .xeron in current or home directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().Bool("no-history", false,
		"Skip saving the run to the crawl history database")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls when multiple seed URLs are given")

	_ = cmd.MarkFlagRequired("url") //nolint:errcheck // Flag is registered above

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// An interrupted run still flushes the partial report.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getNoColorFlag retrieves the no-color flag from the command or its parent.
func getNoColorFlag(cmd *cobra.Command) bool {
	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		noColor, err = cmd.Root().PersistentFlags().GetBool("no-color")
		if err != nil {
			return false
		}
	}
	return noColor
}

// buildConfig creates a Config from cobra command flags.
// The config file is applied first so explicit flags win over it.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load the config file before flags so flag values take precedence.
	// An explicitly specified file must exist; the default search is
	// allowed to come up empty.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.SeedURLs, err = cmd.Flags().GetStringSlice("url")
	if err != nil {
		return nil, err
	}
	if len(cfg.SeedURLs) > 0 {
		cfg.SeedURL = cfg.SeedURLs[0]
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.Depth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("user-agent") {
		cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("cookie") {
		cfg.Cookie, err = cmd.Flags().GetString("cookie")
		if err != nil {
			return nil, err
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveHistory = !noHistory

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.NoColor = getNoColorFlag(cmd)

	return cfg, nil
}

// runCrawl executes the crawl and writes the reports.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Fail on an unwritable report destination before any network work.
	outputs := outputPaths(cfg)
	for _, path := range outputs {
		if err := checkOutputWritable(path); err != nil {
			return newExitError(exitFilesystem, err)
		}
	}

	engine, err := extract.NewEngine(cfg.Categories)
	if err != nil {
		return fmt.Errorf("invalid category table: %w", err)
	}

	// History persistence is supplementary: an unopenable database is
	// logged and skipped rather than failing the crawl.
	var db *database.HistoryDB
	if cfg.SaveHistory {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history database unavailable, skipping persistence",
				"dir", cfg.DBDir,
				"error", err,
			)
		} else {
			defer db.Close() //nolint:errcheck
		}
	}

	if len(cfg.SeedURLs) > 1 {
		return runBatchCrawl(ctx, cfg, engine, db, logger, outputs)
	}

	p := newCrawlPipeline(cfg, engine, db, logger)
	crawlReport := model.NewCrawlReport(cfg.SeedURL, cfg.Depth)

	fmt.Printf("Crawling %s (depth %d)...\n", cfg.SeedURL, cfg.Depth)
	spin := startSpinner(cfg)
	startTime := time.Now()

	// With continueOnError the pipeline records failures in the report
	// and keeps going, so the report flush below always happens.
	_ = p.Execute(ctx, crawlReport) //nolint:errcheck // Error is stored in the report

	stopSpinner(spin)
	elapsed := time.Since(startTime)
	fmt.Printf("Crawl finished in %s\n\n", elapsed.Round(time.Millisecond))

	if err := outputReport(cfg, crawlReport, outputs[0]); err != nil {
		return newExitError(exitFilesystem, err)
	}

	// A step failure mid-run (interrupt, history write) still flushed
	// whatever was collected above, but the run itself did not succeed.
	if crawlReport.ErrorMessage != "" {
		return newExitError(exitRuntime, fmt.Errorf("crawl failed: %s", crawlReport.ErrorMessage))
	}
	// Individual fetch failures are tolerated, but a run where not even
	// the seed page could be fetched produced nothing.
	if crawlReport.PagesCrawled == 0 && crawlReport.PagesFailed > 0 {
		return newExitError(exitRuntime, fmt.Errorf("seed page could not be fetched: %s", cfg.SeedURL))
	}

	return nil
}

// runBatchCrawl crawls every seed URL as an independent run, writing one
// report file per seed. Console output is serialized per completed seed.
func runBatchCrawl(ctx context.Context, cfg *config.Config, engine *extract.Engine,
	db *database.HistoryDB, logger *slog.Logger, outputs []string,
) error {
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return newCrawlPipeline(cfg, engine, db, logger) },
		cfg.Depth,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	fmt.Printf("Crawling %d seeds (depth %d, %d concurrent)...\n",
		len(cfg.SeedURLs), cfg.Depth, cfg.BatchSize)
	startTime := time.Now()

	var (
		mu        sync.Mutex
		succeeded int
		outputErr error
	)
	err := bp.ProcessBatchWithCallback(ctx, cfg.SeedURLs,
		func(crawlReport *model.CrawlReport, index int) {
			mu.Lock()
			defer mu.Unlock()

			fmt.Printf("[%d/%d] %s: %d pages, %d matches\n",
				index+1, len(cfg.SeedURLs), crawlReport.Target,
				crawlReport.PagesCrawled, crawlReport.Results.Total())

			if werr := outputReport(cfg, crawlReport, outputs[index]); werr != nil {
				if outputErr == nil {
					outputErr = werr
				}
				return
			}
			if crawlReport.ErrorMessage == "" && crawlReport.PagesCrawled > 0 {
				succeeded++
			}
		})

	fmt.Printf("Batch finished in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return newExitError(exitRuntime, fmt.Errorf("batch crawl interrupted: %w", err))
	}
	if outputErr != nil {
		return newExitError(exitFilesystem, outputErr)
	}
	if succeeded == 0 {
		return newExitError(exitRuntime, fmt.Errorf("no seed produced a successful crawl"))
	}

	return nil
}

// newCrawlPipeline assembles the steps of one crawl run. Each run gets
// its own HTTP client so session cookies never leak between seeds;
// nothing persists after the process exits.
func newCrawlPipeline(cfg *config.Config, engine *extract.Engine,
	db *database.HistoryDB, logger *slog.Logger,
) *pipeline.Pipeline {
	client := &http.Client{Timeout: cfg.Timeout}
	if jar, err := cookiejar.New(nil); err == nil {
		client.Jar = jar
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewCrawlStep(client, cfg, engine, logger))
	if db != nil {
		p.AddStep(pipeline.NewHistoryStep(db, logger))
	}
	return p
}

// outputPaths returns the report path for each seed of the run. A single
// seed keeps the configured path; a batch derives a numbered path per
// seed so reports never overwrite each other.
func outputPaths(cfg *config.Config) []string {
	if len(cfg.SeedURLs) <= 1 {
		return []string{cfg.OutputFile}
	}
	paths := make([]string, len(cfg.SeedURLs))
	for i := range cfg.SeedURLs {
		paths[i] = batchOutputFile(cfg.OutputFile, i+1)
	}
	return paths
}

// batchOutputFile derives the per-seed report path by numbering the base
// name: roxen.txt becomes roxen-1.txt, roxen-2.txt, and so on.
func batchOutputFile(base string, n int) string {
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
}

// checkOutputWritable verifies the report path can actually be opened
// for writing. Catching this before the crawl avoids losing a full
// run's results to a typo in --output. The check opens for append so a
// pre-existing report is left untouched; a file the check itself
// created is removed again.
func checkOutputWritable(path string) error {
	_, statErr := os.Stat(path)
	existed := statErr == nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return fmt.Errorf("report destination is not writable: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report destination is not writable: %w", err)
	}
	if !existed {
		_ = os.Remove(path) //nolint:errcheck
	}
	return nil
}

// startSpinner starts a progress spinner on stderr, unless verbose
// logging, structured output, or a non-TTY destination would make it
// noise. color.NoColor is fatih/color's own TTY detection.
func startSpinner(cfg *config.Config) *spinner.Spinner {
	if cfg.Verbose || cfg.NoColor || cfg.JSONReport || cfg.MarkdownReport || color.NoColor {
		return nil
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr))
	s.Suffix = " crawling..."
	s.Start()
	return s
}

// stopSpinner stops the spinner if one is running.
func stopSpinner(s *spinner.Spinner) {
	if s != nil {
		s.Stop()
	}
}

// outputReport writes the report to the console and to the report file
// at path, then enforces the never-empty guarantee on the file.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport, path string) error {
	f, err := os.Create(path) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	var console, file report.Writer
	switch {
	case cfg.JSONReport:
		console = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
		file = report.NewJSONWriter(f, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		console = report.NewMarkdownWriter(os.Stdout, cfg.Categories)
		file = report.NewMarkdownWriter(f, cfg.Categories)
	default:
		console = report.NewConsoleWriter(os.Stdout, cfg.Categories,
			report.WithNoColor(cfg.NoColor || color.NoColor))
		file = report.NewTextWriter(f, cfg.Categories)
	}

	mw := report.NewMultiWriter(console, file)
	if _, err := mw.Write(crawlReport); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}

	// A crawl with no matches at all gets the minimal fallback text in
	// the report file instead of a skeleton of empty sections. Structured
	// formats are left alone so their consumers always get valid output.
	if crawlReport.Empty() && !cfg.JSONReport && !cfg.MarkdownReport {
		if err := os.WriteFile(path,
			[]byte(report.FallbackReport(crawlReport.Target)), 0600); err != nil {
			return fmt.Errorf("failed to write fallback report: %w", err)
		}
		return nil
	}

	// A report below the substance threshold is replaced with the
	// fallback text so the artifact is never effectively empty.
	if _, err := report.EnsureNotEmpty(path, crawlReport.Target); err != nil {
		return fmt.Errorf("failed to finalize report file: %w", err)
	}

	return nil
}
