package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/xeronsec/xeron/internal/model"
)

// PageHandler is invoked for every successfully fetched page, while the
// crawl is running. Handlers receive the page with its raw body attached;
// the spider drops the body afterwards so memory stays bounded by a single
// page rather than the whole crawl.
type PageHandler func(page *model.Page)

// Spider performs a breadth-first crawl of a site starting from a seed URL.
// It manages a FIFO frontier of (url, depth) tasks, deduplicates visited
// URLs, restricts the crawl to the seed's host, and stops at the depth
// bound or the page cap, whichever comes first.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// client is the HTTP client used for fetching. The caller supplies it
	// pre-configured with a cookie jar and timeout so session cookies are
	// carried across requests within the run.
	client *http.Client

	// maxDepth limits how many link hops from the seed are followed.
	// 0 means only the seed page, 1 means one level of links, etc.
	maxDepth int

	// maxPages caps the total number of pages fetched per run.
	// This prevents runaway crawls on large sites.
	maxPages int

	// delay is the time to wait between requests (politeness setting).
	delay time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// cookie is an initial Cookie header value sent with every request.
	// Cookies set by the server via the jar take precedence.
	cookie string

	// headers are additional headers sent with every request.
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// handler, when set, receives each page as it is fetched.
	handler PageHandler

	// logger records per-page progress and skipped failures.
	logger *slog.Logger

	// visited tracks normalized URLs already fetched or enqueued.
	// Check and insert happen under mutex so no URL is fetched twice even
	// if a caller ever drives the spider from multiple goroutines.
	visited map[string]bool

	// mutex protects visited and the counters.
	mutex sync.Mutex

	// pageCount tracks pages successfully fetched.
	pageCount int

	// failedCount tracks frontier URLs that could not be fetched.
	failedCount int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = seed plus directly linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to fetch.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithCookie sets an initial Cookie header value ("name=value; n2=v2").
func WithCookie(cookie string) SpiderOption {
	return func(s *Spider) {
		s.cookie = cookie
	}
}

// WithHeaders sets additional headers sent with every request.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithPageHandler sets the per-page callback invoked during the crawl.
func WithPageHandler(h PageHandler) SpiderOption {
	return func(s *Spider) {
		s.handler = h
	}
}

// WithLogger sets the logger used for crawl progress.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider with the given HTTP client.
// The client should carry a cookie jar so session cookies persist across
// requests within the run.
//
// Design decision: We require an external client because:
//  1. Cookie jar and timeout configuration belong to the caller
//  2. Allows for different configurations in tests
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:      client,
		maxDepth:    5,
		maxPages:    200,
		userAgent:   "xeron/1.0",
		maxBodySize: 5 * 1024 * 1024, // 5MB
		visited:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// queueItem is a frontier entry: a URL plus the depth it was found at.
type queueItem struct {
	url   string
	depth int
}

// Crawl runs the breadth-first traversal from seedURL and returns the
// pages fetched. The frontier is processed strictly FIFO, which also makes
// the traversal breadth-first by depth. Fetch failures are non-fatal: the
// page is skipped and the crawl continues with the next frontier item.
func (s *Spider) Crawl(ctx context.Context, seedURL string) ([]*model.Page, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}
	if seed.Scheme != "http" && seed.Scheme != "https" {
		return nil, fmt.Errorf("invalid seed URL scheme %q", seed.Scheme)
	}

	pages := make([]*model.Page, 0)
	queue := make([]queueItem, 0)
	queue = append(queue, queueItem{url: seed.String(), depth: 0})

	for len(queue) > 0 && s.pageCount < s.maxPages {
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		// Check-and-mark is one operation so a URL can never be fetched
		// twice, no matter how many pages linked to it.
		if !s.markVisited(item.url) {
			continue
		}

		page, links, err := s.fetchPage(ctx, item.url, item.depth)
		if err != nil {
			s.failedCount++
			s.logger.Debug("page skipped", "url", item.url, "error", err)
			continue
		}

		s.pageCount++
		s.logger.Debug("page fetched",
			"url", page.URL,
			"depth", page.Depth,
			"status", page.StatusCode,
		)

		if s.handler != nil {
			s.handler(page)
			// The handler has seen the body; drop it so memory stays
			// bounded by one page.
			page.Raw = nil
		}
		pages = append(pages, page)

		// Enqueue unseen same-origin links while under the depth bound.
		if item.depth < s.maxDepth {
			for _, link := range links {
				if s.isSameOrigin(seed.Host, link) && !s.isVisited(link) {
					queue = append(queue, queueItem{url: link, depth: item.depth + 1})
				}
			}
		}

		if s.delay > 0 && len(queue) > 0 {
			select {
			case <-ctx.Done():
				return pages, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return pages, nil
}

// fetchPage fetches a single page and extracts its internal links.
// A non-2xx status is treated as a fetch failure: the page is skipped
// entirely, with no extraction and no link following.
func (s *Spider) fetchPage(ctx context.Context, pageURL string, depth int) (*model.Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.maxBodySize))
		return nil, nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, nil, err
	}

	page := &model.Page{
		URL:         pageURL,
		Depth:       depth,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header,
		Raw:         body,
		FetchedAt:   time.Now(),
	}
	page.TruncateRaw()
	page.ComputeHash()

	var links []string
	if page.IsHTML() {
		parser, err := NewParser(pageURL)
		if err == nil {
			if result, err := parser.Parse(strings.NewReader(string(page.Raw))); err == nil {
				page.Title = result.Title
				links = result.InternalLinks
			}
		}
	}

	return page, links, nil
}

// markVisited records a URL as visited. It returns false if the URL was
// already visited. Check and insert are a single atomic step.
func (s *Spider) markVisited(pageURL string) bool {
	key := s.normalizeURL(pageURL)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.visited[key] {
		return false
	}
	s.visited[key] = true
	return true
}

// isVisited checks if a URL has been visited or enqueued.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[s.normalizeURL(pageURL)]
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize because:
//  1. The same page can have different URL representations
//  2. Fragments (#anchor) don't change content
//  3. An empty path and "/" are the same page
func (s *Spider) normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}

	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// isSameOrigin checks whether a URL shares the seed's host.
// Links to other hosts are never enqueued; the crawl stays on the target.
func (s *Spider) isSameOrigin(seedHost, targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, seedHost)
}

// Stats returns current crawl statistics.
func (s *Spider) Stats() Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return Stats{
		PagesFetched: s.pageCount,
		PagesFailed:  s.failedCount,
		URLsSeen:     len(s.visited),
	}
}

// Stats contains crawl statistics.
type Stats struct {
	// PagesFetched is the number of pages successfully fetched.
	PagesFetched int

	// PagesFailed is the number of frontier URLs that failed to fetch.
	PagesFailed int

	// URLsSeen is the number of unique URLs encountered.
	URLsSeen int
}
