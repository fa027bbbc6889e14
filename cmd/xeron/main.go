// Package main provides the entry point for the XERON CLI.
//
// XERON is a breadth-first website crawler that extracts categorized data
// (email addresses, IPs, phone numbers, and more) from every page it
// visits and writes a consolidated report.
//
// Usage:
//
//	xeron crawl --url https://example.com
//	xeron crawl --url https://example.com --depth 3 --output report.txt
//
// See --help for all available options.
package main

// main is the entry point for XERON.
func main() {
	Execute()
}
