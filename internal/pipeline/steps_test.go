package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xeronsec/xeron/internal/config"
	"github.com/xeronsec/xeron/internal/database"
	"github.com/xeronsec/xeron/internal/extract"
	"github.com/xeronsec/xeron/internal/model"
)

// newTestClient builds an HTTP client with a cookie jar, matching how the
// CLI configures the crawl client.
func newTestClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
	}
}

// newTestEngine compiles the default category table.
func newTestEngine(t *testing.T) *extract.Engine {
	t.Helper()

	engine, err := extract.NewEngine(config.DefaultCategories())
	if err != nil {
		t.Fatalf("failed to compile categories: %v", err)
	}
	return engine
}

// TestCrawlStep tests the combined crawl-and-extract step.
func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("extracts matches from crawled pages", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body>
				Contact: admin@example.com
				<a href="/about">about</a>
			</body></html>`)
		})
		mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `<html><body>Server at 10.1.2.3</body></html>`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := config.NewConfig()
		cfg.SeedURL = srv.URL
		cfg.Depth = 1

		step := NewCrawlStep(newTestClient(t), cfg, newTestEngine(t), nil)
		report := model.NewCrawlReport(srv.URL, cfg.Depth)

		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("crawl step failed: %v", err)
		}

		if report.PagesCrawled != 2 {
			t.Errorf("expected 2 pages crawled, got %d", report.PagesCrawled)
		}
		if got := report.Results.Matches("email"); len(got) != 1 || got[0] != "admin@example.com" {
			t.Errorf("unexpected email matches: %v", got)
		}
		if got := report.Results.Matches("ipv4"); len(got) != 1 || got[0] != "10.1.2.3" {
			t.Errorf("unexpected ipv4 matches: %v", got)
		}
		if report.FinishedAt.IsZero() {
			t.Error("crawl step should set the finish time")
		}
	})

	t.Run("unreachable seed is an error with finish time set", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.Timeout = time.Second

		step := NewCrawlStep(newTestClient(t), cfg, newTestEngine(t), nil)
		report := model.NewCrawlReport("http://127.0.0.1:1/", cfg.Depth)

		if err := step.Do(context.Background(), report); err == nil {
			t.Fatal("expected error for unreachable seed")
		}
		if report.FinishedAt.IsZero() {
			t.Error("finish time should be set even on failure")
		}
	})

	t.Run("cancellation keeps partial results and marks timeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				fmt.Fprint(w, `<html><body>first@example.com <a href="/next">n</a></body></html>`)
				return
			}
			cancel()
			fmt.Fprint(w, `<html><body>ok</body></html>`)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := config.NewConfig()
		cfg.Depth = 3
		cfg.Delay = 50 * time.Millisecond

		step := NewCrawlStep(newTestClient(t), cfg, newTestEngine(t), nil)
		report := model.NewCrawlReport(srv.URL, cfg.Depth)

		if err := step.Do(ctx, report); err == nil {
			t.Fatal("expected cancellation error")
		}
		if !report.TimedOut {
			t.Error("report should be marked timed out")
		}
		if got := report.Results.Matches("email"); len(got) != 1 {
			t.Errorf("partial results should survive cancellation: %v", got)
		}
	})
}

// TestHistoryStep tests run persistence.
func TestHistoryStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	report := model.NewCrawlReport("https://example.com", 2)
	report.FinishedAt = time.Now()
	report.PagesCrawled = 1
	report.Results.Add("email", "a@b.com")

	step := NewHistoryStep(db, nil)
	if step.Name() != "history" {
		t.Errorf("unexpected step name: %s", step.Name())
	}

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("history step failed: %v", err)
	}

	runs, err := db.RecentRuns(context.Background(), "https://example.com", 1)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 stored run, got %d", len(runs))
	}
	if len(runs[0].Results["email"]) != 1 {
		t.Errorf("stored run missing matches: %v", runs[0].Results)
	}
}
