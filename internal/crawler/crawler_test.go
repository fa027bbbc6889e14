package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xeronsec/xeron/internal/model"
)

// newTestClient returns an HTTP client with a cookie jar, matching how the
// CLI configures the spider's client.
func newTestClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

// TestParser tests HTML link extraction.
func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>Test Page</title></head><body></body></html>`
		parser, err := NewParser("https://example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}
	})

	t.Run("resolves and classifies links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/internal">Relative</a>
			<a href="https://example.com/same">Same Host</a>
			<a href="https://other.example.org/away">External</a>
		</body></html>`

		parser, err := NewParser("https://example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 3 {
			t.Errorf("expected 3 links, got %d", len(result.Links))
		}
		if len(result.InternalLinks) != 2 {
			t.Errorf("expected 2 internal links, got %d: %v", len(result.InternalLinks), result.InternalLinks)
		}
		if len(result.ExternalLinks) != 1 {
			t.Errorf("expected 1 external link, got %d", len(result.ExternalLinks))
		}

		if result.InternalLinks[0] != "https://example.com/internal" {
			t.Errorf("relative link not resolved: %q", result.InternalLinks[0])
		}
	})

	t.Run("skips pseudo-protocol links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="javascript:void(0)">JS</a>
			<a href="mailto:a@b.com">Mail</a>
			<a href="tel:+123456">Tel</a>
			<a href="#">Top</a>
			<a href="/real">Real</a>
		</body></html>`

		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 1 {
			t.Errorf("expected only the real link, got %v", result.Links)
		}
	})

	t.Run("handles malformed markup", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><a href="/ok">unclosed <div><a href="/also-ok">more`
		parser, err := NewParser("https://example.com")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("parse of malformed markup should not fail: %v", err)
		}

		if len(result.InternalLinks) != 2 {
			t.Errorf("expected 2 links from malformed markup, got %v", result.InternalLinks)
		}
	})
}

// TestSpiderDepth tests depth-bound behavior.
func TestSpiderDepth(t *testing.T) {
	t.Parallel()

	t.Run("depth zero fetches only the seed", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><a href="/next">next</a></body></html>`)
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(0))
		pages, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if len(pages) != 1 {
			t.Errorf("expected 1 page at depth 0, got %d", len(pages))
		}
		if got := requests.Load(); got != 1 {
			t.Errorf("expected 1 request at depth 0, got %d", got)
		}
	})

	t.Run("pages never exceed the depth bound", func(t *testing.T) {
		t.Parallel()

		// Chain: / -> /1 -> /2 -> /3
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			switch r.URL.Path {
			case "/":
				fmt.Fprint(w, `<a href="/1">1</a>`)
			case "/1":
				fmt.Fprint(w, `<a href="/2">2</a>`)
			case "/2":
				fmt.Fprint(w, `<a href="/3">3</a>`)
			default:
				fmt.Fprint(w, `end`)
			}
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(2))
		pages, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if len(pages) != 3 {
			t.Errorf("expected 3 pages (depth 0..2), got %d", len(pages))
		}
		for _, p := range pages {
			if p.Depth > 2 {
				t.Errorf("page %s has depth %d beyond the bound", p.URL, p.Depth)
			}
			if strings.HasSuffix(p.URL, "/3") {
				t.Errorf("page /3 is 3 hops from the seed and must not be fetched")
			}
		}
	})
}

// TestSpiderScope tests origin restriction and deduplication.
func TestSpiderScope(t *testing.T) {
	t.Parallel()

	t.Run("external links are never fetched", func(t *testing.T) {
		t.Parallel()

		var externalHit atomic.Bool
		external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			externalHit.Store(true)
		}))
		defer external.Close()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			switch r.URL.Path {
			case "/":
				fmt.Fprintf(w, `<a href="/a">a</a><a href="/b">b</a><a href="%s/away">ext</a>`, external.URL)
			default:
				fmt.Fprint(w, `leaf`)
			}
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(1))
		pages, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		// Seed plus exactly the two same-origin pages.
		if len(pages) != 3 {
			t.Errorf("expected 3 pages, got %d", len(pages))
		}
		if externalHit.Load() {
			t.Error("external host must never be fetched")
		}
	})

	t.Run("no URL is fetched twice", func(t *testing.T) {
		t.Parallel()

		var hits sync.Map
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count, _ := hits.LoadOrStore(r.URL.Path, new(atomic.Int32))
			count.(*atomic.Int32).Add(1)
			w.Header().Set("Content-Type", "text/html")
			// Every page links to every other page.
			fmt.Fprint(w, `<a href="/">home</a><a href="/a">a</a><a href="/b">b</a>`)
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(5))
		if _, err := spider.Crawl(context.Background(), srv.URL); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		hits.Range(func(path, count any) bool {
			if n := count.(*atomic.Int32).Load(); n != 1 {
				t.Errorf("path %v fetched %d times, want 1", path, n)
			}
			return true
		})
	})

	t.Run("fragment and trailing variations are one URL", func(t *testing.T) {
		t.Parallel()

		var rootHits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				rootHits.Add(1)
			}
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<a href="/#top">top</a><a href="/">home</a>`)
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(3))
		if _, err := spider.Crawl(context.Background(), srv.URL); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if got := rootHits.Load(); got != 1 {
			t.Errorf("root fetched %d times, want 1", got)
		}
	})

	t.Run("max pages caps the crawl", func(t *testing.T) {
		t.Parallel()

		// Infinite site: every page links to two fresh pages.
		var serial atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := serial.Add(1)
			b := serial.Add(1)
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<a href="/p%d">x</a><a href="/p%d">y</a>`, a, b)
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(100), WithMaxPages(10))
		pages, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if len(pages) != 10 {
			t.Errorf("expected page cap of 10, got %d", len(pages))
		}
	})
}

// TestSpiderFailures tests the non-fatal failure policy.
func TestSpiderFailures(t *testing.T) {
	t.Parallel()

	t.Run("non-2xx pages are skipped and crawl continues", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			switch r.URL.Path {
			case "/":
				fmt.Fprint(w, `<a href="/missing">gone</a><a href="/ok">ok</a>`)
			case "/missing":
				http.NotFound(w, r)
			default:
				fmt.Fprint(w, `fine`)
			}
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(1))
		pages, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if len(pages) != 2 {
			t.Errorf("expected 2 pages (seed and /ok), got %d", len(pages))
		}
		stats := spider.Stats()
		if stats.PagesFailed != 1 {
			t.Errorf("expected 1 failed page, got %d", stats.PagesFailed)
		}
	})

	t.Run("connection failure on seed yields empty result", func(t *testing.T) {
		t.Parallel()

		// Closed server: connection refused.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		seedURL := srv.URL
		srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(1))
		pages, err := spider.Crawl(context.Background(), seedURL)
		if err != nil {
			t.Fatalf("fetch failures must be non-fatal, got %v", err)
		}
		if len(pages) != 0 {
			t.Errorf("expected no pages, got %d", len(pages))
		}
	})

	t.Run("context cancellation stops the crawl", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<a href="/next">next</a>`)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		spider := NewSpider(newTestClient(t), WithMaxDepth(5))
		if _, err := spider.Crawl(ctx, srv.URL); err == nil {
			t.Error("expected context error")
		}
	})
}

// TestSpiderSession tests cookie carrying and the page handler hook.
func TestSpiderSession(t *testing.T) {
	t.Parallel()

	t.Run("cookies set by the server are carried across requests", func(t *testing.T) {
		t.Parallel()

		var sawCookie atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			switch r.URL.Path {
			case "/":
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "tok123"})
				fmt.Fprint(w, `<a href="/second">next</a>`)
			case "/second":
				if c, err := r.Cookie("session"); err == nil && c.Value == "tok123" {
					sawCookie.Store(true)
				}
				fmt.Fprint(w, `done`)
			}
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(1))
		if _, err := spider.Crawl(context.Background(), srv.URL); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if !sawCookie.Load() {
			t.Error("session cookie was not carried to the second request")
		}
	})

	t.Run("initial cookie header is sent", func(t *testing.T) {
		t.Parallel()

		var sawCookie atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("auth"); err == nil && c.Value == "xyz" {
				sawCookie.Store(true)
			}
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `ok`)
		}))
		defer srv.Close()

		spider := NewSpider(newTestClient(t), WithMaxDepth(0), WithCookie("auth=xyz"))
		if _, err := spider.Crawl(context.Background(), srv.URL); err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if !sawCookie.Load() {
			t.Error("configured cookie was not sent")
		}
	})

	t.Run("page handler sees the body which is then dropped", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>contact a@b.com</body></html>`)
		}))
		defer srv.Close()

		var handled int
		spider := NewSpider(newTestClient(t),
			WithMaxDepth(0),
			WithPageHandler(func(page *model.Page) {
				handled++
				if !strings.Contains(string(page.Raw), "a@b.com") {
					t.Error("handler should receive the raw body")
				}
			}),
		)

		pages, err := spider.Crawl(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		if handled != 1 {
			t.Errorf("expected handler to run once, ran %d times", handled)
		}
		if len(pages) != 1 || pages[0].Raw != nil {
			t.Error("raw body should be dropped after the handler runs")
		}
	})
}
