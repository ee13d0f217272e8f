// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state persists run history so a scheduled invocation can pick up
// where the last successful one left off.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

const dbFile = "digest.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// Run is one recorded pipeline invocation.
type Run struct {
	RanAt     time.Time
	Since     time.Time
	Fetched   int
	Kept      int
	Delivered bool
}

// NewStore opens or creates the database at cfg.Dir/digest.db, creating
// the schema if it does not exist.
func NewStore(cfg types.StateConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "state"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
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
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ran_at TEXT NOT NULL,
		since TEXT NOT NULL,
		fetched INTEGER NOT NULL,
		kept INTEGER NOT NULL,
		delivered INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Watermark returns the fetch cutoff for the next run: the time of the
// last delivered run, or now minus the lookback when no run has delivered
// yet. Runs that aborted before delivery leave the watermark untouched, so
// their papers are retried next time.
func (s *Store) Watermark(ctx context.Context, now time.Time, lookback time.Duration) (time.Time, error) {
	if lookback <= 0 {
		lookback = 30 * time.Hour
	}

	var ranAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT ran_at FROM runs WHERE delivered = 1 ORDER BY id DESC LIMIT 1`,
	).Scan(&ranAt)
	switch {
	case err == sql.ErrNoRows:
		return now.Add(-lookback), nil
	case err != nil:
		return time.Time{}, fmt.Errorf("querying watermark: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, ranAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored watermark %q: %w", ranAt, err)
	}

	// Never reach further back than the lookback window; a long outage
	// should not flood one digest with weeks of papers.
	if floor := now.Add(-lookback); t.Before(floor) {
		return floor, nil
	}
	return t, nil
}

// RecordRun appends one run to the history.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	delivered := 0
	if run.Delivered {
		delivered = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (ran_at, since, fetched, kept, delivered) VALUES (?, ?, ?, ?, ?)`,
		run.RanAt.UTC().Format(time.RFC3339Nano),
		run.Since.UTC().Format(time.RFC3339Nano),
		run.Fetched, run.Kept, delivered,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// History returns the most recent runs, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT ran_at, since, fetched, kept, delivered FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var ranAt, since string
		var delivered int
		var run Run
		if err := rows.Scan(&ranAt, &since, &run.Fetched, &run.Kept, &delivered); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if run.RanAt, err = time.Parse(time.RFC3339Nano, ranAt); err != nil {
			return nil, fmt.Errorf("parsing ran_at %q: %w", ranAt, err)
		}
		if run.Since, err = time.Parse(time.RFC3339Nano, since); err != nil {
			return nil, fmt.Errorf("parsing since %q: %w", since, err)
		}
		run.Delivered = delivered == 1
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
