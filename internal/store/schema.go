package store

// AUTOINCREMENT matters here: clearing the log resets both id sequences
// through sqlite_sequence so a fresh trail numbers from 1 again.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS session (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at REAL
);

CREATE TABLE IF NOT EXISTS session_entries (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER,
    time       REAL,
    type       TEXT,
    data       TEXT,
    completed  INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_session_entries_session ON session_entries(session_id);
`
