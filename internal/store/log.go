// Package store provides the SQLite-backed session log: one row per
// tracer session, one row per recorded query entry.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Session is one session row together with its entry counts.
type Session struct {
	ID        int64   `json:"id"`
	StartedAt float64 `json:"started_at"`
	Entries   int     `json:"entries"`
	Pending   int     `json:"pending"`
}

// Entry is one recorded query invocation. Field names mirror the
// session_entries columns and are part of the dump format.
type Entry struct {
	ID        int64   `json:"id"`
	SessionID int64   `json:"session_id"`
	Time      float64 `json:"time"`
	Type      string  `json:"type"`
	Data      string  `json:"data"`
	Completed bool    `json:"completed"`
}

// Log provides access to the session and session_entries tables. It is
// single-owner: callers must not share one Log across goroutines.
type Log struct {
	db *sql.DB
}

// Open opens or creates the trail database at the given path and ensures
// the log schema exists.
func Open(dbPath string) (*Log, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating trail dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening trail db: %w", err)
	}

	log, err := Attach(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return log, nil
}

// Attach wraps an already-open database handle, creating the log tables in
// it if needed. This is how the trail lives alongside the host database.
func Attach(db *sql.DB) (*Log, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("creating log schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// BeginSession creates a new session row and returns its assigned id.
func (l *Log) BeginSession(startedAt float64) (int64, error) {
	res, err := l.db.Exec("INSERT INTO session (started_at) VALUES (?)", startedAt)
	if err != nil {
		return 0, fmt.Errorf("beginning session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading session id: %w", err)
	}
	return id, nil
}

// InsertEntry records a query entry in the pending state and returns the
// new entry's id. The row is visible immediately, before the query it
// describes has finished.
func (l *Log) InsertEntry(sessionID int64, at float64, kind, data string) (int64, error) {
	res, err := l.db.Exec(
		"INSERT INTO session_entries (session_id, time, type, data) VALUES (?, ?, ?, ?)",
		sessionID, at, kind, data,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading entry id: %w", err)
	}
	return id, nil
}

// MarkCompleted flips an entry to the completed state. Repeated calls are
// harmless.
func (l *Log) MarkCompleted(entryID int64) error {
	if _, err := l.db.Exec("UPDATE session_entries SET completed = 1 WHERE id = ?", entryID); err != nil {
		return fmt.Errorf("completing entry %d: %w", entryID, err)
	}
	return nil
}

// CountUnfinished returns the number of pending entries in a session.
func (l *Log) CountUnfinished(sessionID int64) (int, error) {
	var n int
	err := l.db.QueryRow(
		"SELECT COUNT(*) FROM session_entries WHERE completed = 0 AND session_id = ?",
		sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unfinished entries: %w", err)
	}
	return n, nil
}

// Sessions returns all session rows in storage order, with entry counts.
func (l *Log) Sessions() ([]Session, error) {
	rows, err := l.db.Query(`SELECT
		s.id, COALESCE(s.started_at, 0),
		COUNT(e.id),
		COALESCE(SUM(CASE WHEN e.completed = 0 THEN 1 ELSE 0 END), 0)
		FROM session s
		LEFT JOIN session_entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.Entries, &s.Pending); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Entries returns a session's entries ordered by recording time, most
// recent first. The descending order is part of the dump contract.
func (l *Log) Entries(sessionID int64) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, session_id, time, type, data, completed
		FROM session_entries WHERE session_id = ?
		ORDER BY time DESC, id DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading session %d entries: %w", sessionID, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completed int
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Time, &e.Type, &e.Data, &completed); err != nil {
			return nil, err
		}
		e.Completed = completed != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearAll deletes every entry and session, resets both id sequences, and
// begins a fresh session, all in one transaction so the log is never left
// empty. Returns the fresh session's id.
func (l *Log) ClearAll(startedAt float64) (int64, error) {
	tx, err := l.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM session_entries"); err != nil {
		return 0, fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM session"); err != nil {
		return 0, fmt.Errorf("clearing sessions: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sqlite_sequence WHERE name = 'session' OR name = 'session_entries'`); err != nil {
		return 0, fmt.Errorf("resetting id sequences: %w", err)
	}

	res, err := tx.Exec("INSERT INTO session (started_at) VALUES (?)", startedAt)
	if err != nil {
		return 0, fmt.Errorf("beginning fresh session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}
