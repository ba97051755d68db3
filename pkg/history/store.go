// Package history keeps a SQLite journal of device operations.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Kind names the operation an entry records.
type Kind string

const (
	KindInstall Kind = "install"
	KindConnect Kind = "connect"
	KindPair    Kind = "pair"
)

// Entry is one journaled operation.
type Entry struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	DeviceID  string          `json:"deviceId,omitempty"`
	Target    string          `json:"target,omitempty"`
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Details   json.RawMessage `json:"details,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
	Duration  time.Duration   `json:"duration"`
}

// Detail reads one value out of the JSON detail blob, e.g. "exitCode" or
// "argv.1".
func (e Entry) Detail(path string) gjson.Result {
	return gjson.GetBytes(e.Details, path)
}

// ExitCode is the bridge exit status kept in the details, or "-" when the
// entry has none.
func (e Entry) ExitCode() string {
	if code := e.Detail("exitCode"); code.Exists() {
		return code.String()
	}
	return "-"
}

// Query filters List. Zero fields match everything.
type Query struct {
	Kind   Kind
	Device string
	Limit  int
}

// DBFile is the journal file name inside the data directory.
const DBFile = "history.db"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS operations (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    device_id TEXT NOT NULL DEFAULT '',
    target TEXT NOT NULL DEFAULT '',
    success INTEGER NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    details TEXT NOT NULL DEFAULT '{}',
    started_at INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_operations_time ON operations(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_operations_device ON operations(device_id, started_at DESC);
`

// Store is the operation journal.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger

	stmtInsert *sql.Stmt
}

// Open creates or opens the journal under dataDir.
func Open(dataDir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	stmt, err := db.Prepare(`
		INSERT INTO operations (
			id, kind, device_id, target, success, message, details, started_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.Debug().Str("path", dbPath).Msg("History journal opened")
	return &Store{db: db, path: dbPath, logger: logger, stmtInsert: stmt}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Record appends e, filling in ID and StartedAt when they are empty. Details
// must be valid JSON when set.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.Kind == "" {
		return fmt.Errorf("entry kind is required")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}
	details := "{}"
	if len(e.Details) > 0 {
		if !json.Valid(e.Details) {
			return fmt.Errorf("entry %s: details are not valid JSON", e.ID)
		}
		details = string(e.Details)
	}

	_, err := s.stmtInsert.ExecContext(ctx,
		e.ID, string(e.Kind), e.DeviceID, e.Target, e.Success, e.Message, details,
		e.StartedAt.UnixMilli(), e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return nil
}

// List returns matching entries, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	query := `
		SELECT id, kind, device_id, target, success, message, details, started_at, duration_ms
		FROM operations
		WHERE 1=1
	`
	var args []interface{}
	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(q.Kind))
	}
	if q.Device != "" {
		query += ` AND device_id = ?`
		args = append(args, q.Device)
	}
	query += ` ORDER BY started_at DESC, rowid DESC`
	if q.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			kind       string
			details    string
			startedAt  int64
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.DeviceID, &e.Target, &e.Success, &e.Message,
			&details, &startedAt, &durationMs); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		e.Details = json.RawMessage(details)
		e.StartedAt = time.UnixMilli(startedAt)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than maxAge and reports how many went.
// A non-positive maxAge keeps everything.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	result, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	if affected > 0 {
		s.logger.Info().Int64("removed", affected).Msg("Pruned history")
	}
	return int(affected), nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s.stmtInsert != nil {
		s.stmtInsert.Close()
	}
	return s.db.Close()
}
