// Package journal keeps a SQLite log of every post, pin and reply attempt.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Action names recorded in the journal.
const (
	ActionWeeklyPost = "weekly_post"
	ActionDailyPost  = "daily_post"
	ActionPin        = "pin"
	ActionReply      = "reply"
)

// Entry is one recorded attempt.
type Entry struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Action    string    `json:"action"`
	Title     string    `json:"title,omitempty"`
	Target    string    `json:"target,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal is a SQLite-backed activity log.
type Journal struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, dbPath: path}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		action TEXT NOT NULL,
		title TEXT,
		target TEXT,
		success INTEGER NOT NULL,
		error TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_run ON activity(run_id);
	CREATE INDEX IF NOT EXISTS idx_activity_created ON activity(created_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record inserts an entry, filling in ID and CreatedAt when unset.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO activity (id, run_id, action, title, target, success, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RunID, e.Action, e.Title, e.Target, e.Success, e.Error, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", e.Action, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_id, action, COALESCE(title, ''), COALESCE(target, ''), success, COALESCE(error, ''), created_at
		FROM activity
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Action, &e.Title, &e.Target, &e.Success, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.CreatedAt = e.CreatedAt.Local()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RunSummary counts successes and failures for one run.
func (j *Journal) RunSummary(ctx context.Context, runID string) (succeeded, failed int, err error) {
	err = j.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0)
		FROM activity WHERE run_id = ?`, runID).Scan(&succeeded, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to summarize run %s: %w", runID, err)
	}
	return succeeded, failed, nil
}
