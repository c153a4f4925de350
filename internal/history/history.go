// Package history keeps an append-only log of publish attempts in a local
// SQLite database. The log is optional: a nil *Log is valid and every
// method on it is a no-op, so callers never branch on whether history is
// enabled.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded publish attempt.
type Entry struct {
	ID        int64
	CreatedAt time.Time
	SiteID    string
	SiteName  string
	Title     string
	PostID    int
	URL       string
	Success   bool
	Message   string
}

// Log wraps the SQLite handle. Safe for concurrent use.
type Log struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS publish_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	site_id    TEXT NOT NULL,
	site_name  TEXT NOT NULL,
	title      TEXT NOT NULL,
	post_id    INTEGER NOT NULL DEFAULT 0,
	url        TEXT NOT NULL DEFAULT '',
	success    INTEGER NOT NULL,
	message    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_publish_log_created ON publish_log(created_at);
`

// Open creates or opens the history database at path and ensures the
// schema exists. An empty path disables history and returns a nil Log.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, nil
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends one publish attempt. Nil-safe.
func (l *Log) Record(ctx context.Context, e Entry) error {
	if l == nil {
		return nil
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO publish_log (site_id, site_name, title, post_id, url, success, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.SiteID, e.SiteName, e.Title, e.PostID, e.URL, e.Success, e.Message)
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Nil-safe: a disabled
// log returns an empty slice.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT id, created_at, site_id, site_name, title, post_id, url, success, message
		 FROM publish_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.SiteID, &e.SiteName, &e.Title,
			&e.PostID, &e.URL, &e.Success, &e.Message); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
