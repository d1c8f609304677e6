package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Outcomes recorded for a request.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

const schema = `
CREATE TABLE IF NOT EXISTS requests (
	request_id       TEXT PRIMARY KEY,
	created_at       TIMESTAMP NOT NULL,
	model            TEXT NOT NULL,
	mode             TEXT NOT NULL,
	estimated_tokens INTEGER NOT NULL,
	files_processed  INTEGER NOT NULL,
	files_skipped    INTEGER NOT NULL,
	files_truncated  INTEGER NOT NULL,
	outcome          TEXT NOT NULL,
	error_kind       TEXT NOT NULL DEFAULT '',
	duration_ms      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// Entry is one recorded request.
type Entry struct {
	RequestID       string    `json:"requestId"`
	CreatedAt       time.Time `json:"createdAt"`
	Model           string    `json:"model"`
	Mode            string    `json:"mode"`
	EstimatedTokens int       `json:"estimatedTokens"`
	FilesProcessed  int       `json:"filesProcessed"`
	FilesSkipped    int       `json:"filesSkipped"`
	FilesTruncated  int       `json:"filesTruncated"`
	Outcome         string    `json:"outcome"`
	ErrorKind       string    `json:"errorKind,omitempty"`
	DurationMs      int64     `json:"durationMs"`
}

// Store is a SQLite-backed request log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path. Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e. Re-recording an existing request id replaces the row.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO requests (
			request_id, created_at, model, mode, estimated_tokens,
			files_processed, files_skipped, files_truncated,
			outcome, error_kind, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RequestID, e.CreatedAt.UTC(), e.Model, e.Mode, e.EstimatedTokens,
		e.FilesProcessed, e.FilesSkipped, e.FilesTruncated,
		e.Outcome, e.ErrorKind, e.DurationMs)
	if err != nil {
		return fmt.Errorf("recording request %s: %w", e.RequestID, err)
	}
	return nil
}

// List returns the most recent entries first. A non-positive limit returns
// every row.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_id, created_at, model, mode, estimated_tokens,
		       files_processed, files_skipped, files_truncated,
		       outcome, error_kind, duration_ms
		FROM requests
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RequestID, &e.CreatedAt, &e.Model, &e.Mode, &e.EstimatedTokens,
			&e.FilesProcessed, &e.FilesSkipped, &e.FilesTruncated,
			&e.Outcome, &e.ErrorKind, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry and reports how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM requests")
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return n, nil
}
