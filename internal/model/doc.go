// Package model defines the core data structures shared across xeron:
// crawled pages, the per-category extraction result set, and the crawl
// report that writers and the history database consume.
package model
