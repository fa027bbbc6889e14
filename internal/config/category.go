package config

import (
	"fmt"
	"regexp"
)

// Category describes one class of data the extraction engine searches for.
// The category table is versionable configuration data, not code: users
// can replace it wholesale from the .xeron config file without touching
// traversal logic.
type Category struct {
	// ID is the stable identifier used in reports, the history database,
	// and the config file (e.g., "email").
	ID string `yaml:"id"`

	// Name is the human-readable display name (e.g., "Email Addresses").
	Name string `yaml:"name"`

	// Pattern is the Go regular expression applied to raw page text.
	Pattern string `yaml:"pattern"`

	// Fold lowercases matches before deduplication. Used for values that
	// are case-insensitive by nature, such as email addresses.
	Fold bool `yaml:"fold,omitempty"`
}

// Validate checks the category has an id and a compilable pattern.
func (c *Category) Validate() error {
	if c.ID == "" || c.Pattern == "" {
		return fmt.Errorf("%w: id and pattern are required", ErrInvalidCategory)
	}
	if _, err := regexp.Compile(c.Pattern); err != nil {
		return fmt.Errorf("%w: category %q: %v", ErrInvalidCategory, c.ID, err)
	}
	return nil
}

// DisplayName returns the display name, falling back to the ID.
func (c *Category) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// DefaultCategories returns the built-in extraction category table.
//
// Patterns are deliberately permissive: false positives are acceptable for
// a reconnaissance tool, and strict validation would miss many real-world
// occurrences. No validation happens beyond the regex itself.
func DefaultCategories() []Category {
	return []Category{
		{
			ID:      "email",
			Name:    "Email Addresses",
			Pattern: `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`,
			Fold:    true,
		},
		{
			ID:      "url",
			Name:    "URLs",
			Pattern: `https?://[^\s"'<>)]+`,
		},
		{
			ID:      "ipv4",
			Name:    "IPv4 Addresses",
			Pattern: `\b(?:\d{1,3}\.){3}\d{1,3}\b`,
		},
		{
			ID:      "phone",
			Name:    "Phone Numbers",
			Pattern: `\+\d{1,3}[\s\-.]?\(?\d{1,4}\)?(?:[\s\-.]?\d{2,4}){2,4}`,
		},
		{
			ID:      "bitcoin",
			Name:    "Bitcoin Addresses",
			Pattern: `\b(?:[13][a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{39,59})\b`,
		},
		{
			ID:      "analytics",
			Name:    "Google Analytics IDs",
			Pattern: `\b(?:UA-\d{4,10}-\d{1,4}|G-[A-Z0-9]{10,12})\b`,
		},
	}
}
