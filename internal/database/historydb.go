package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/xeronsec/xeron/internal/model"
)

// HistoryDB provides SQLite-based storage for crawl runs.
// It manages connection pooling and provides methods for saving and
// querying past runs.
//
// Design decision: We use a single database file for all targets rather
// than one per target. This keeps cross-target queries trivial and
// simplifies backup/restore.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "xeron.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers don't help for
	// this workload either.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one row per crawl invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		depth INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		pages_crawled INTEGER DEFAULT 0,
		pages_failed INTEGER DEFAULT 0,
		error TEXT,
		results_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Matches store individual extraction hits for cross-run queries
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		category TEXT NOT NULL,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_run ON matches(run_id);
	CREATE INDEX IF NOT EXISTS idx_matches_category ON matches(category);
	CREATE INDEX IF NOT EXISTS idx_matches_value ON matches(value);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run summary.
type RunRecord struct {
	ID           int64
	Target       string
	Depth        int
	StartedAt    time.Time
	FinishedAt   time.Time
	PagesCrawled int
	PagesFailed  int
	Error        string
	Results      map[string][]string
}

// SaveRun persists a crawl report and its matches in one transaction.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.CrawlReport) (int64, error) {
	resultsJSON, err := json.Marshal(report.Results)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize results: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (target, depth, started_at, finished_at, pages_crawled, pages_failed, error, results_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.Target,
		report.Depth,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		report.PagesCrawled,
		report.PagesFailed,
		report.ErrorMessage,
		string(resultsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	for category, values := range report.Results.Snapshot() {
		for _, v := range values {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO matches (run_id, category, value) VALUES (?, ?, ?)`,
				runID, category, v,
			); err != nil {
				return 0, fmt.Errorf("failed to insert match: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// GetRun retrieves a stored run by id. Returns nil if not found.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := hdb.db.QueryRowContext(ctx, `
	SELECT id, target, depth, started_at, finished_at, pages_crawled, pages_failed, error, results_json
	FROM runs WHERE id = ?
	`, id)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// RecentRuns returns the most recent runs for a target, newest first.
// An empty target returns runs for all targets.
func (hdb *HistoryDB) RecentRuns(ctx context.Context, target string, limit int) ([]*RunRecord, error) {
	query := `
	SELECT id, target, depth, started_at, finished_at, pages_crawled, pages_failed, error, results_json
	FROM runs
	`
	args := make([]any, 0, 2)
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	records := make([]*RunRecord, 0)
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// MatchesByCategory returns all distinct values ever recorded for a
// category, across every stored run.
func (hdb *HistoryDB) MatchesByCategory(ctx context.Context, category string) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT DISTINCT value FROM matches WHERE category = ? ORDER BY value`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row into a RunRecord.
func scanRun(s scanner) (*RunRecord, error) {
	var record RunRecord
	var startedAt, finishedAt, resultsJSON string

	if err := s.Scan(
		&record.ID,
		&record.Target,
		&record.Depth,
		&startedAt,
		&finishedAt,
		&record.PagesCrawled,
		&record.PagesFailed,
		&record.Error,
		&resultsJSON,
	); err != nil {
		return nil, err
	}

	record.StartedAt = parseTimestamp(startedAt)
	record.FinishedAt = parseTimestamp(finishedAt)

	if resultsJSON != "" {
		if err := json.Unmarshal([]byte(resultsJSON), &record.Results); err != nil {
			return nil, fmt.Errorf("failed to parse results: %w", err)
		}
	}

	return &record, nil
}

// parseTimestamp parses a timestamp string from SQLite.
// SQLite may return different formats depending on how the value was
// written, so we try the common ones.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
