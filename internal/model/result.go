package model

import "encoding/json"

// ResultSet accumulates extraction matches per category across a crawl.
// Matches are deduplicated within each category; insertion order is
// preserved so reports are stable across runs.
//
// Design decision: We keep both an ordered slice and a seen-set per
// category because:
//  1. Reports should list matches in discovery order
//  2. Dedup must be O(1) per match (pages repeat the same values a lot)
//  3. A sorted map would reorder matches between report formats
type ResultSet struct {
	matches map[string][]string
	seen    map[string]map[string]struct{}
}

// NewResultSet creates an empty ResultSet.
func NewResultSet() *ResultSet {
	return &ResultSet{
		matches: make(map[string][]string),
		seen:    make(map[string]map[string]struct{}),
	}
}

// Add records a match for the given category.
// It returns true if the value was new for that category.
func (r *ResultSet) Add(category, value string) bool {
	set, ok := r.seen[category]
	if !ok {
		set = make(map[string]struct{})
		r.seen[category] = set
	}
	if _, dup := set[value]; dup {
		return false
	}
	set[value] = struct{}{}
	r.matches[category] = append(r.matches[category], value)
	return true
}

// Merge adds all matches from a per-page extraction result.
func (r *ResultSet) Merge(pageMatches map[string][]string) {
	for category, values := range pageMatches {
		for _, v := range values {
			r.Add(category, v)
		}
	}
}

// Matches returns the unique matches recorded for a category, in
// discovery order. The returned slice must not be modified.
func (r *ResultSet) Matches(category string) []string {
	return r.matches[category]
}

// Count returns the number of unique matches for a category.
func (r *ResultSet) Count(category string) int {
	return len(r.matches[category])
}

// Total returns the number of unique matches across all categories.
func (r *ResultSet) Total() int {
	total := 0
	for _, values := range r.matches {
		total += len(values)
	}
	return total
}

// Snapshot returns a copy of all matches keyed by category.
func (r *ResultSet) Snapshot() map[string][]string {
	out := make(map[string][]string, len(r.matches))
	for category, values := range r.matches {
		cp := make([]string, len(values))
		copy(cp, values)
		out[category] = cp
	}
	return out
}

// MarshalJSON serializes the result set as a category -> matches object.
func (r *ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.matches)
}

// UnmarshalJSON restores a result set from its JSON form, rebuilding the
// dedup sets. Used when loading runs from the history database.
func (r *ResultSet) UnmarshalJSON(data []byte) error {
	var matches map[string][]string
	if err := json.Unmarshal(data, &matches); err != nil {
		return err
	}
	r.matches = make(map[string][]string)
	r.seen = make(map[string]map[string]struct{})
	for category, values := range matches {
		for _, v := range values {
			r.Add(category, v)
		}
	}
	return nil
}
