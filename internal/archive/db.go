// Package archive provides SQLite-based audit storage for Conclave.
// Coordination activity is append-only in memory; the archive gives it a
// durable home so feedback, decisions, and checkpoint history survive the
// process.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database connection with archive-specific operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Feedback},
		{2, migrationV2Decisions},
		{3, migrationV3Checkpoints},
		{4, migrationV4Events},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Feedback = `
CREATE TABLE IF NOT EXISTS feedback_items (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	priority TEXT NOT NULL,
	sentiment TEXT NOT NULL,
	routed_to TEXT NOT NULL,
	requires_response INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'not_started',
	project_id TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_category ON feedback_items(category);
CREATE INDEX IF NOT EXISTS idx_feedback_user_id ON feedback_items(user_id);
`

const migrationV2Decisions = `
CREATE TABLE IF NOT EXISTS decisions (
	request_id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	requesting_agent TEXT NOT NULL,
	decision TEXT NOT NULL,
	feedback TEXT,
	decided_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_agent ON decisions(requesting_agent);
`

const migrationV3Checkpoints = `
CREATE TABLE IF NOT EXISTS checkpoint_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	checkpoint_id TEXT NOT NULL,
	action TEXT NOT NULL,
	actor TEXT,
	notes TEXT,
	status TEXT NOT NULL,
	occurred_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkpoint_history_id ON checkpoint_history(checkpoint_id);
`

const migrationV4Events = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	source TEXT,
	target TEXT,
	entity_id TEXT,
	priority TEXT,
	detail TEXT,
	occurred_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id);
`

// Exec executes a query that doesn't return rows.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.QueryRow(query, args...)
}

// PurgeOldEvents deletes events older than the specified duration.
// Returns the number of events deleted.
func (db *DB) PurgeOldEvents(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := db.Exec(`
		DELETE FROM events WHERE occurred_at < ?
	`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge old events: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return count, nil
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
