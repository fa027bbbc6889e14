// Package report formats crawl results for humans and tools.
//
// Writers implement the Writer interface and can be combined with
// MultiWriter to emit the same report to console and file at once. The
// text writer also guarantees the report file is never silently empty:
// when a crawl yields nothing, a minimal fallback report is written in
// its place.
package report
