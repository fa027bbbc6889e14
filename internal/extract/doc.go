// Package extract implements the regex extraction engine.
//
// The engine applies a configured table of category patterns to raw page
// text and returns the matches per category. Extraction is best-effort by
// design: a value is reported whenever it matches the pattern, with no
// further validation (an email-shaped string counts even if its domain
// does not exist).
//
// Per-page results are merged into a crawl-wide model.ResultSet by the
// caller, so deduplication spans the whole crawl rather than resetting on
// each page.
package extract
