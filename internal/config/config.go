package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the defaults of the original
// XERON tool where one existed, otherwise they are chosen to keep a crawl
// bounded on typical sites.
const (
	// DefaultCrawlDepth of 5 follows the original tool: the seed page plus
	// up to five levels of same-origin links. Depth 0 fetches only the seed.
	DefaultCrawlDepth = 5

	// DefaultMaxPages is the safety cap on total pages fetched per run.
	// It bounds runaway crawls on large or infinitely-generating sites and
	// is deliberately an explicit, documented constant rather than an
	// implicit limit buried in the crawl loop.
	DefaultMaxPages = 200

	// DefaultOutputFile is the report file written when --output is not given.
	DefaultOutputFile = "roxen.txt"

	// DefaultTimeout is the per-request connection timeout. 30 seconds is
	// generous enough for slow sites without hanging the whole crawl on a
	// single dead endpoint.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the pause between requests. The original tool
	// issued requests back to back, so the default is zero; a politeness
	// delay can be set via --delay.
	DefaultCrawlDelay = 0 * time.Second

	// DefaultUserAgent identifies xeron in HTTP requests. A descriptive
	// User-Agent lets site operators identify crawler traffic in their logs.
	DefaultUserAgent = "xeron/1.0 (+https://github.com/xeronsec/xeron)"

	// DefaultBatchSize is the number of concurrent crawls when multiple
	// seed URLs are given. Within a single crawl fetching stays
	// sequential; concurrency exists only across independent seeds.
	DefaultBatchSize = 4

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB covers any realistic HTML page while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "xeron"
)

// Config holds all configuration options for a crawl run.
// It is populated from CLI flags and the optional config file, then passed
// through the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// SeedURL is the absolute URL the crawl starts from. Required.
	// When SeedURLs lists more than one seed this is the first of them.
	SeedURL string

	// SeedURLs lists every seed URL of the run. More than one seed
	// switches the CLI into batch mode with one independent crawl per
	// seed.
	SeedURLs []string

	// BatchSize is the number of concurrent crawls in batch mode.
	BatchSize int

	// Depth is the maximum link distance from the seed to follow.
	// Depth 0 means only the seed page is fetched.
	Depth int

	// MaxPages is the safety cap on total pages fetched per run.
	MaxPages int

	// OutputFile is the path the text report is written to.
	// The parent directory must already exist and be writable.
	OutputFile string

	// Timeout is the connection timeout for each HTTP request.
	Timeout time.Duration

	// Delay is the pause between requests (politeness setting).
	Delay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Cookie is an initial Cookie header value ("name=value; n2=v2")
	// injected into the first request. Cookies set by the server are
	// carried across requests within the run and never persisted.
	Cookie string

	// Headers are additional HTTP headers to send with every request.
	Headers map[string]string

	// Categories is the extraction category table. Defaults to
	// DefaultCategories and can be replaced wholesale via the config file.
	Categories []Category

	// ConfigFilePath is an explicit config file path. If empty, the tool
	// searches for .xeron in the current directory and then the home
	// directory.
	ConfigFilePath string

	// JSONReport switches the console output to JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport switches the console output to Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// NoColor disables ANSI colors on console output.
	NoColor bool

	// SaveHistory persists the run to the SQLite history database under
	// the XDG data directory.
	SaveHistory bool

	// DBDir is the directory holding the history database.
	DBDir string

	// Verbose enables debug-level logging.
	Verbose bool

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero. This also documents what the
// defaults are in one place.
func NewConfig() *Config {
	return &Config{
		BatchSize:   DefaultBatchSize,
		Depth:       DefaultCrawlDepth,
		MaxPages:    DefaultMaxPages,
		OutputFile:  DefaultOutputFile,
		Timeout:     DefaultTimeout,
		Delay:       DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		Categories:  DefaultCategories(),
		SaveHistory: true,
		DBDir:       XDGDataDir(),
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for xeron.
// On Linux: ~/.local/share/xeron
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for xeron.
// On Linux: ~/.config/xeron
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks that the configuration is usable.
// It returns the first problem found; fixing one error often makes later
// ones irrelevant. This runs once after flag parsing, before any network
// or filesystem work.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return ErrNoSeedURL
	}

	if err := validateSeedURL(c.SeedURL); err != nil {
		return err
	}
	for _, seed := range c.SeedURLs {
		if err := validateSeedURL(seed); err != nil {
			return err
		}
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Depth < 0 {
		return ErrNegativeDepth
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Delay < 0 {
		return ErrInvalidDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	for i := range c.Categories {
		if err := c.Categories[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

// validateSeedURL checks that a seed is an absolute http(s) URL.
func validateSeedURL(seed string) error {
	u, err := url.Parse(seed)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidSeedURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidSeedURL
	}
	return nil
}
