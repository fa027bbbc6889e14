// Package pipeline orchestrates a crawl run as a sequence of steps.
//
// A run is expressed as steps executed in order against a shared
// CrawlReport: crawl the site and extract matches, then persist the run
// to history. Steps are pluggable so the CLI can assemble different runs
// (for example skipping persistence) without changing the steps
// themselves.
//
// BatchProcessor runs the same pipeline against multiple seed URLs
// concurrently with a bounded number of in-flight crawls.
package pipeline
