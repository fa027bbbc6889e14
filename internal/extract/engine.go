package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeronsec/xeron/internal/config"
)

// Engine applies the category pattern table to page text.
// Patterns are compiled once at construction and reused for every page.
type Engine struct {
	categories []compiledCategory
}

// compiledCategory pairs a category definition with its compiled pattern.
type compiledCategory struct {
	config.Category
	re *regexp.Regexp
}

// NewEngine compiles the category table into an Engine.
// An invalid pattern is a configuration error and fails construction;
// the CLI validates categories before this point, so a failure here means
// the table was modified after validation.
func NewEngine(categories []config.Category) (*Engine, error) {
	compiled := make([]compiledCategory, 0, len(categories))
	for _, c := range categories {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.ID, err)
		}
		compiled = append(compiled, compiledCategory{Category: c, re: re})
	}
	return &Engine{categories: compiled}, nil
}

// Categories returns the category definitions the engine was built with,
// in table order. Report writers use this to order their sections.
func (e *Engine) Categories() []config.Category {
	out := make([]config.Category, len(e.categories))
	for i, c := range e.categories {
		out[i] = c.Category
	}
	return out
}

// Extract applies every category pattern to the given page text and
// returns the non-overlapping matches per category id, deduplicated
// within the page. The text is the raw markup, not just visible text, so
// values hidden in attributes, scripts, and comments are found too.
func (e *Engine) Extract(pageText string) map[string][]string {
	results := make(map[string][]string)

	for _, c := range e.categories {
		matches := c.re.FindAllString(pageText, -1)
		if len(matches) == 0 {
			continue
		}

		seen := make(map[string]struct{}, len(matches))
		unique := make([]string, 0, len(matches))
		for _, m := range matches {
			if c.Fold {
				m = strings.ToLower(m)
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			unique = append(unique, m)
		}

		results[c.ID] = unique
	}

	return results
}
