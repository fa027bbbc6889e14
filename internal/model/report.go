package model

import "time"

// CrawlReport aggregates everything a single crawl run produced: page
// summaries, the extraction result set, and run metadata. It is the unit
// that report writers format and the history database persists.
type CrawlReport struct {
	// Target is the seed URL the crawl started from.
	Target string `json:"target"`

	// Depth is the maximum link distance that was allowed.
	Depth int `json:"depth"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl completed (or was aborted).
	FinishedAt time.Time `json:"finished_at,omitempty"`

	// PagesCrawled is the number of pages successfully fetched.
	PagesCrawled int `json:"pages_crawled"`

	// PagesFailed is the number of frontier URLs that could not be fetched.
	// Failures are non-fatal; the crawl continues past them.
	PagesFailed int `json:"pages_failed"`

	// Pages lists summaries of every fetched page.
	Pages []PageSummary `json:"pages,omitempty"`

	// Results holds the deduplicated extraction matches per category.
	Results *ResultSet `json:"results"`

	// ErrorMessage records a fatal error that aborted the crawl, if any.
	// Partial results gathered before the error are still present.
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut indicates the run was cancelled before completion.
	TimedOut bool `json:"timed_out,omitempty"`
}

// NewCrawlReport creates a report for the given seed URL and depth bound.
func NewCrawlReport(target string, depth int) *CrawlReport {
	return &CrawlReport{
		Target:    target,
		Depth:     depth,
		StartedAt: time.Now(),
		Pages:     make([]PageSummary, 0),
		Results:   NewResultSet(),
	}
}

// AddPage records a successfully fetched page.
func (r *CrawlReport) AddPage(p *Page) {
	r.Pages = append(r.Pages, p.Summary())
	r.PagesCrawled++
}

// Empty reports whether the crawl produced no extraction matches at all.
// Used by the reporter to decide whether the fallback report is needed.
func (r *CrawlReport) Empty() bool {
	return r.Results == nil || r.Results.Total() == 0
}
