// Package store keeps pivot run summaries in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// SummaryRecord is one category line of a run summary.
type SummaryRecord struct {
	Category  string  `json:"category"`
	TotalPass int     `json:"totalPass"`
	TotalFail int     `json:"totalFail"`
	FailRate  float64 `json:"failRate"`
}

// StoredSummary is a persisted summary line with its run identity.
type StoredSummary struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"runId"`
	Timestamp time.Time `json:"timestamp"`
	SummaryRecord
}

// Store wraps the summary database.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	closed bool
}

// NewRunID returns a fresh identifier that groups one run's records.
func NewRunID() string {
	return uuid.NewString()
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared across calls
	db.SetMaxOpenConns(1)
	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS pivot_summary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		run_timestamp TEXT NOT NULL,
		category TEXT NOT NULL,
		total_pass INTEGER NOT NULL,
		total_fail INTEGER NOT NULL,
		fail_rate REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pivot_summary_run ON pivot_summary(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// SaveSummary inserts one run's records in a single transaction.
func (s *Store) SaveSummary(ctx context.Context, runID string, at time.Time, records []SummaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if runID == "" {
		return errors.New("run id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pivot_summary (run_id, run_timestamp, category, total_pass, total_fail, fail_rate)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	stamp := at.UTC().Format(time.RFC3339Nano)
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, runID, stamp, r.Category, r.TotalPass, r.TotalFail, r.FailRate); err != nil {
			return fmt.Errorf("insert %s: %w", r.Category, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

const selectSummaries = `SELECT id, run_id, run_timestamp, category, total_pass, total_fail, fail_rate
	FROM pivot_summary`

// Recent returns the newest records first, at most limit of them (all when
// limit <= 0).
func (s *Store) Recent(ctx context.Context, limit int) ([]StoredSummary, error) {
	query := selectSummaries + " ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Run returns the records of one run in insertion order.
func (s *Store) Run(ctx context.Context, runID string) ([]StoredSummary, error) {
	return s.query(ctx, selectSummaries+" WHERE run_id = ? ORDER BY id", runID)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]StoredSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []StoredSummary
	for rows.Next() {
		var (
			rec   StoredSummary
			stamp string
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &stamp, &rec.Category, &rec.TotalPass, &rec.TotalFail, &rec.FailRate); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", stamp, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
