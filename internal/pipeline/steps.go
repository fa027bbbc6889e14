package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/crawler"
	"github.com/xeronsec/xeron/internal/database"
	"github.com/xeronsec/xeron/internal/extract"
	"github.com/xeronsec/xeron/internal/model"
)

// CrawlStep performs the breadth-first crawl and runs extraction on every
// fetched page. Matches are merged into the report's result set as pages
// arrive, so a run that is cancelled midway still carries everything
// gathered so far.
type CrawlStep struct {
	// client is the HTTP client used for fetching. It carries the cookie
	// jar so session cookies persist across requests within the run.
	client *http.Client

	// cfg supplies the crawl bounds and request settings.
	cfg *config.Config

	// engine extracts categorized matches from page bodies.
	engine *extract.Engine

	// logger records per-page progress.
	logger *slog.Logger
}

// NewCrawlStep creates a CrawlStep from a pre-configured HTTP client,
// the run configuration, and a compiled extraction engine.
func NewCrawlStep(client *http.Client, cfg *config.Config, engine *extract.Engine, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{
		client: client,
		cfg:    cfg,
		engine: engine,
		logger: logger,
	}
}

// Name returns the step name for logging.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls the target and extracts matches from every fetched page.
// Fetch failures on individual pages are counted but not fatal. A crawl
// that cannot even start (bad seed URL) returns an error; cancellation
// marks the report timed out and keeps the partial results.
func (s *CrawlStep) Do(ctx context.Context, report *model.CrawlReport) error {
	spider := crawler.NewSpider(s.client,
		crawler.WithMaxDepth(s.cfg.Depth),
		crawler.WithMaxPages(s.cfg.MaxPages),
		crawler.WithDelay(s.cfg.Delay),
		crawler.WithUserAgent(s.cfg.UserAgent),
		crawler.WithCookie(s.cfg.Cookie),
		crawler.WithHeaders(s.cfg.Headers),
		crawler.WithMaxBodySize(s.cfg.MaxBodySize),
		crawler.WithLogger(s.logger),
		crawler.WithPageHandler(func(page *model.Page) {
			// Extraction runs on the raw body while it is still attached.
			matches := s.engine.Extract(string(page.Raw))
			report.Results.Merge(matches)
		}),
	)

	defer func() {
		report.FinishedAt = time.Now()
	}()

	pages, err := spider.Crawl(ctx, report.Target)

	for _, page := range pages {
		report.AddPage(page)
	}
	report.PagesFailed = spider.Stats().PagesFailed

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.TimedOut = true
		}
		return err
	}

	s.logger.Info("crawl finished",
		"target", report.Target,
		"pages_crawled", report.PagesCrawled,
		"pages_failed", report.PagesFailed,
		"matches", report.Results.Total(),
	)

	return nil
}

// HistoryStep persists the finished run to the crawl history database.
type HistoryStep struct {
	// db is the history store the run is written to.
	db *database.HistoryDB

	// logger records the saved run id.
	logger *slog.Logger
}

// NewHistoryStep creates a HistoryStep writing to the given database.
func NewHistoryStep(db *database.HistoryDB, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{
		db:     db,
		logger: logger,
	}
}

// Name returns the step name for logging.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do writes the report to the history database.
func (s *HistoryStep) Do(ctx context.Context, report *model.CrawlReport) error {
	id, err := s.db.SaveRun(ctx, report)
	if err != nil {
		return err
	}

	s.logger.Debug("run saved to history",
		"run_id", id,
		"target", report.Target,
	)

	return nil
}
