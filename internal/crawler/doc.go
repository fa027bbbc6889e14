// Package crawler provides the breadth-first site crawler.
//
// # Architecture
//
// The package is built around the Spider type, which drives a FIFO
// frontier of (url, depth) tasks from a seed URL. FIFO processing makes
// the traversal breadth-first, so the depth recorded per task is the link
// distance from the seed. The Parser extracts anchor targets from HTML
// and resolves them to absolute URLs; only links on the seed's host are
// ever enqueued.
//
// Design decision: We implement our own crawler rather than using a
// third-party library because:
//  1. The traversal rules (depth bound, same-origin, page cap) are simple
//  2. We need a per-page hook so extraction runs without buffering bodies
//  3. Reduces external dependencies for the core loop
//
// # Invariants
//
//   - No URL is fetched more than once per run (normalized visited set,
//     check-and-mark as a single operation)
//   - No fetched page is more than maxDepth link hops from the seed
//   - Cross-host links are never enqueued
//   - The total page count never exceeds maxPages
//
// # Failure policy
//
// A fetch error (connection failure, timeout, non-2xx status) is
// non-fatal: the page is skipped with no extraction and no link
// following, and the crawl continues with the next frontier item. There
// are no retries.
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, crawler.WithMaxDepth(3))
//	pages, err := spider.Crawl(ctx, "https://example.com")
package crawler
