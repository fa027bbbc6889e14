// Package config provides configuration structures and utilities for xeron.
// It defines the crawl settings, the extraction category table, and the
// YAML configuration file loader.
package config
