package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// MaxPageSize is the maximum size of raw page content to keep in memory.
// Larger responses are truncated to this size before extraction.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Page represents a single fetched page.
// The raw body is kept only long enough for extraction; the crawl report
// stores a PageSummary instead.
type Page struct {
	// URL is the absolute URL of the page.
	URL string `json:"url"`

	// Depth is the link distance from the seed URL (seed = 0).
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Title is the page title from the <title> tag, empty for non-HTML.
	Title string `json:"title,omitempty"`

	// Headers contains all HTTP response headers in canonical form.
	Headers map[string][]string `json:"headers,omitempty"`

	// Raw contains the raw response body, truncated to MaxPageSize.
	// Excluded from JSON to keep reports small.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw content, used for change
	// detection in the history database.
	Hash string `json:"hash,omitempty"`

	// FetchedAt is when the page was retrieved.
	FetchedAt time.Time `json:"fetched_at"`
}

// ComputeHash calculates and sets the SHA-256 hash of the raw content.
// Call after setting Raw.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}
	sum := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateRaw enforces the MaxPageSize limit on the raw content.
func (p *Page) TruncateRaw() {
	if len(p.Raw) > MaxPageSize {
		p.Raw = p.Raw[:MaxPageSize]
	}
}

// GetHeader returns the first value of the named header, or "".
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML reports whether the content type indicates an HTML page.
func (p *Page) IsHTML() bool {
	return strings.HasPrefix(p.ContentType, "text/html") ||
		strings.HasPrefix(p.ContentType, "application/xhtml+xml")
}

// Summary returns the lightweight record kept in the crawl report after
// the body has been handed to the extraction engine.
func (p *Page) Summary() PageSummary {
	return PageSummary{
		URL:        p.URL,
		Depth:      p.Depth,
		StatusCode: p.StatusCode,
		Title:      p.Title,
	}
}

// PageSummary is the per-page record retained in a CrawlReport.
type PageSummary struct {
	// URL is the absolute URL of the page.
	URL string `json:"url"`

	// Depth is the link distance from the seed URL.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Title is the page title, if any.
	Title string `json:"title,omitempty"`
}
