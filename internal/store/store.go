// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps a history of scan runs in a SQLite database so that
// values seen in earlier runs can be listed again without the input file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gicscan/pkg/types"
)

// DefaultFile is the database file name used when no path is configured.
const DefaultFile = "gicscan.db"

// defaultRunLimit caps Runs when the caller passes a non-positive limit.
const defaultRunLimit = 20

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Store manages the scan history database.
type Store struct {
	db *sql.DB
}

// RunSummary describes one recorded scan.
type RunSummary struct {
	ID             int64     `json:"id" yaml:"id"`
	Source         string    `json:"source" yaml:"source"`
	Marker         string    `json:"marker" yaml:"marker"`
	ScannedAt      time.Time `json:"scanned_at" yaml:"scanned_at"`
	LinesScanned   int       `json:"lines_scanned" yaml:"lines_scanned"`
	LinesMatched   int       `json:"lines_matched" yaml:"lines_matched"`
	LinesMalformed int       `json:"lines_malformed" yaml:"lines_malformed"`
	ValueCount     int       `json:"value_count" yaml:"value_count"`
}

// Open opens or creates the history database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			marker TEXT NOT NULL,
			scanned_at TEXT NOT NULL,
			lines_scanned INTEGER NOT NULL,
			lines_matched INTEGER NOT NULL,
			lines_malformed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_values (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			value TEXT NOT NULL,
			occurrences INTEGER NOT NULL,
			PRIMARY KEY (run_id, value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_values_value ON run_values(value)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores res as a new run and returns its ID.
func (s *Store) Record(ctx context.Context, res *types.ScanResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	scannedAt := res.ScannedAt
	if scannedAt.IsZero() {
		scannedAt = time.Now().UTC()
	}

	r, err := tx.ExecContext(ctx,
		`INSERT INTO runs (source, marker, scanned_at, lines_scanned, lines_matched, lines_malformed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.Source, res.Marker, scannedAt.UTC().Format(time.RFC3339Nano),
		res.LinesScanned, res.LinesMatched, res.LinesMalformed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_values (run_id, value, occurrences) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing value insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range res.Values {
		n := res.Occurrences[v]
		if n == 0 {
			n = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, v, n); err != nil {
			return 0, fmt.Errorf("inserting value %q: %w", v, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Runs returns up to limit recorded runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.source, r.marker, r.scanned_at,
		        r.lines_scanned, r.lines_matched, r.lines_malformed,
		        (SELECT count(*) FROM run_values v WHERE v.run_id = r.id)
		 FROM runs r
		 ORDER BY r.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			rs        RunSummary
			scannedAt string
		)
		if err := rows.Scan(&rs.ID, &rs.Source, &rs.Marker, &scannedAt,
			&rs.LinesScanned, &rs.LinesMatched, &rs.LinesMalformed, &rs.ValueCount); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rs.ScannedAt, err = time.Parse(time.RFC3339Nano, scannedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing scanned_at for run %d: %w", rs.ID, err)
		}
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

// Run returns the summary of a single run.
func (s *Store) Run(ctx context.Context, runID int64) (RunSummary, error) {
	var (
		rs        RunSummary
		scannedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.source, r.marker, r.scanned_at,
		        r.lines_scanned, r.lines_matched, r.lines_malformed,
		        (SELECT count(*) FROM run_values v WHERE v.run_id = r.id)
		 FROM runs r WHERE r.id = ?`, runID,
	).Scan(&rs.ID, &rs.Source, &rs.Marker, &scannedAt,
		&rs.LinesScanned, &rs.LinesMatched, &rs.LinesMalformed, &rs.ValueCount)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("run %d: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("querying run %d: %w", runID, err)
	}
	rs.ScannedAt, err = time.Parse(time.RFC3339Nano, scannedAt)
	if err != nil {
		return RunSummary{}, fmt.Errorf("parsing scanned_at for run %d: %w", runID, err)
	}
	return rs, nil
}

// Values returns the values recorded for runID in ascending byte order.
func (s *Store) Values(ctx context.Context, runID int64) ([]string, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}

	// BINARY collation keeps the ordering identical to the scanner's sort.
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM run_values WHERE run_id = ? ORDER BY value COLLATE BINARY`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying values for run %d: %w", runID, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
