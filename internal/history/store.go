// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records every pipeline run in a SQLite ledger: which
// report date was requested, where the PDF came from, how it ended, and how
// many rows each dataset gained.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ssi-report/pkg/types"
)

const (
	stateDir = ".ssi-report"
	dbFile   = "history.db"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// now is replaced in tests.
var now = time.Now

// Status is the outcome of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusOK       Status = "ok"
	StatusNoReport Status = "no_report"
	StatusFailed   Status = "failed"
)

// Write is one dataset append made by a run.
type Write struct {
	Kind  types.Kind `json:"kind" yaml:"kind"`
	Path  string     `json:"path" yaml:"path"`
	Added int        `json:"added" yaml:"added"`
	Total int        `json:"total" yaml:"total"`
}

// Run is one recorded pipeline run.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	ReportDate string    `json:"report_date" yaml:"report_date"`
	SourceURL  string    `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status     Status    `json:"status" yaml:"status"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
	Writes     []Write   `json:"writes,omitempty" yaml:"writes,omitempty"`
}

// Store manages the history database.
type Store struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the database location for a data directory.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, stateDir, dbFile)
}

// Open opens or creates the history database at path and its schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			report_date TEXT NOT NULL,
			source_url TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS writes (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			path TEXT NOT NULL,
			added INTEGER NOT NULL,
			total INTEGER NOT NULL,
			PRIMARY KEY (run_id, kind)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_report_date ON runs(report_date)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a run for reportDate and returns its ID.
func (s *Store) BeginRun(ctx context.Context, reportDate time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, report_date, started_at, status) VALUES (?, ?, ?, ?)`,
		id, reportDate.Format(types.DateLayout), now().UTC().Format(timeLayout), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("recording run start: %w", err)
	}
	return id, nil
}

// SetSource records the URL the run's report was downloaded from.
func (s *Store) SetSource(ctx context.Context, runID, url string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE runs SET source_url = ? WHERE id = ?`, url, runID); err != nil {
		return fmt.Errorf("recording source: %w", err)
	}
	return nil
}

// RecordWrite records one dataset append for a run.
func (s *Store) RecordWrite(ctx context.Context, runID string, w Write) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO writes (run_id, kind, path, added, total) VALUES (?, ?, ?, ?, ?)`,
		runID, string(w.Kind), w.Path, w.Added, w.Total)
	if err != nil {
		return fmt.Errorf("recording %s write: %w", w.Kind, err)
	}
	return nil
}

// FinishRun records how a run ended. runErr may be nil.
func (s *Store) FinishRun(ctx context.Context, runID string, status Status, runErr error) error {
	var msg sql.NullString
	if runErr != nil {
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		now().UTC().Format(timeLayout), status, msg, runID)
	if err != nil {
		return fmt.Errorf("recording run end: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first, with their writes.
// A limit of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT id, report_date, source_url, started_at, finished_at, status, error
		FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                      Run
			source, finished, rerr sql.NullString
			started                string
		)
		if err := rows.Scan(&r.ID, &r.ReportDate, &source, &started, &finished, &r.Status, &rerr); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.SourceURL = source.String
		r.Error = rerr.String
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timeLayout, finished.String)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		w, err := s.writes(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Writes = w
	}
	return runs, nil
}

func (s *Store) writes(ctx context.Context, runID string) ([]Write, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, path, added, total FROM writes WHERE run_id = ? ORDER BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying writes: %w", err)
	}
	defer rows.Close()

	var out []Write
	for rows.Next() {
		var w Write
		var kind string
		if err := rows.Scan(&kind, &w.Path, &w.Added, &w.Total); err != nil {
			return nil, fmt.Errorf("scanning write: %w", err)
		}
		w.Kind = types.Kind(kind)
		out = append(out, w)
	}
	return out, rows.Err()
}
