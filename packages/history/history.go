// Package history records reqline executions in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no entry has the requested id.
var ErrNotFound = errors.New("history entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS executions (
	id          TEXT PRIMARY KEY,
	statement   TEXT NOT NULL,
	method      TEXT NOT NULL DEFAULT '',
	full_url    TEXT NOT NULL DEFAULT '',
	http_status INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	started_at  INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	envelope    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS executions_started_at ON executions (started_at);
`

// Entry is one recorded execution attempt.
type Entry struct {
	ID         string
	Statement  string
	Method     string // Empty when the statement did not parse
	FullURL    string
	HTTPStatus int // 0 when no response was received
	DurationMs int64
	StartedAt  time.Time
	Error      string // Empty on success
	Envelope   string // JSON encoded envelope, empty on failure
}

// Failed reports whether the attempt ended in an error.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Store is a history database
type Store struct {
	db           *sql.DB
	dataSource   string
	queryTimeout time.Duration
}

// Open opens, creating it when needed, the history database named by
// connectionString.
func Open(connectionString string) (*Store, error) {
	dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer and every :memory: connection is its own database
	db.SetMaxOpenConns(1)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{
		db:           db,
		dataSource:   dsn,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Path returns the database file the store writes to.
func (s *Store) Path() string {
	return s.dataSource
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores e. A missing id is generated and a zero StartedAt is
// replaced by the current time.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, statement, method, full_url, http_status, duration_ms, started_at, error, envelope)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Statement, e.Method, e.FullURL, e.HTTPStatus, e.DurationMs, e.StartedAt.UnixMilli(), e.Error, e.Envelope,
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. A limit of zero or less
// returns every entry.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, statement, method, full_url, http_status, duration_ms, started_at, error, envelope
		FROM executions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, statement, method, full_url, http_status, duration_ms, started_at, error, envelope
		FROM executions
		WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM executions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var startedAt int64
	err := row.Scan(&e.ID, &e.Statement, &e.Method, &e.FullURL, &e.HTTPStatus, &e.DurationMs, &startedAt, &e.Error, &e.Envelope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("failed to scan row: %w", err)
	}
	e.StartedAt = time.UnixMilli(startedAt)
	return e, nil
}

// parseConnectionString returns the SQLite data source for connStr.
// Supported formats:
// - sqlite://path/to/history.db
// - sqlite:./history.db
// - path/to/history.db
func parseConnectionString(connStr string) (string, error) {
	connStr = strings.TrimSpace(connStr)
	if connStr == "" {
		return "", fmt.Errorf("empty connection string")
	}

	// Handle sqlite:// and sqlite: prefixes
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://"), nil
	}
	if strings.HasPrefix(connStr, "sqlite:") {
		return strings.TrimPrefix(connStr, "sqlite:"), nil
	}

	if strings.Contains(connStr, "://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return "", fmt.Errorf("invalid connection string: %w", err)
		}
		return "", fmt.Errorf("unsupported database scheme: %s", u.Scheme)
	}

	return connStr, nil
}
