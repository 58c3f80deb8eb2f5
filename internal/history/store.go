// Package history persists build outcomes so the dev server can answer
// "what did the last builds do" across restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one build outcome.
type Record struct {
	BuildID   string        `json:"build_id"`
	Trigger   string        `json:"trigger"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Pages     int           `json:"pages"`
	Issues    int           `json:"issues"`
	Err       string        `json:"error,omitempty"`
}

// Store is a SQLite-backed build history.
// Use ":memory:" for tests, a file path for persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		trigger_reason TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		issues INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records one build outcome.
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (build_id, trigger_reason, started_at, duration_ms, pages, issues, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.BuildID, rec.Trigger, rec.StartedAt.UnixMilli(), rec.Duration.Milliseconds(),
		rec.Pages, rec.Issues, rec.Err,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT build_id, trigger_reason, started_at, duration_ms, pages, issues, error
		 FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var startedMilli, durationMilli int64
		if err := rows.Scan(&rec.BuildID, &rec.Trigger, &startedMilli, &durationMilli,
			&rec.Pages, &rec.Issues, &rec.Err); err != nil {
			return nil, fmt.Errorf("scan build record: %w", err)
		}
		rec.StartedAt = time.UnixMilli(startedMilli).UTC()
		rec.Duration = time.Duration(durationMilli) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
