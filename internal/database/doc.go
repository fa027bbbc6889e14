// Package database provides SQLite-based storage for crawl history.
// Each completed run is saved with its extraction matches so results can
// be reviewed and compared across runs.
package database
