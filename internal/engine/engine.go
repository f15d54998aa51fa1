// Package engine provides a minimal analytical query engine shim: it
// executes statements against a shared SQLite handle and notifies
// registered observers around each query. It exists to host the session
// tracer; it performs no query parsing or validation of its own.
package engine

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Token identifies a recorded query entry handed out by an observer. The
// zero Token means the observer recorded nothing for this query.
type Token int64

// Observer watches queries flowing through the engine. QueryStarted is
// called synchronously before a query executes; the returned token is
// passed to QueryCompleted only if the query finishes without error.
// Failed queries never have their token completed.
type Observer interface {
	QueryStarted(query string, bindings any) (Token, error)
	QueryCompleted(token Token) error
}

// Engine executes queries on one database handle and fans them out to two
// independent observer sets: the high-level query layer and the raw SQL
// layer. It assumes single-threaded use, like the connection it wraps.
type Engine struct {
	db           *sql.DB
	queryTracers []Observer
	sqlTracers   []Observer
}

// New wraps an already-open database handle.
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// Open opens the database at path and wraps it.
func Open(path string) (*Engine, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening engine db: %w", err)
	}
	return New(db), nil
}

// DB exposes the shared handle so the session log can live alongside the
// engine's own tables.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Close closes the underlying database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Trace registers an observer for the high-level query layer.
func (e *Engine) Trace(o Observer) {
	e.queryTracers = append(e.queryTracers, o)
}

// Untrace removes a previously registered high-level observer. Removing an
// observer that is not registered is a no-op.
func (e *Engine) Untrace(o Observer) {
	e.queryTracers = remove(e.queryTracers, o)
}

// TraceSQL registers an observer for the raw SQL layer.
func (e *Engine) TraceSQL(o Observer) {
	e.sqlTracers = append(e.sqlTracers, o)
}

// UntraceSQL removes a previously registered raw-layer observer.
func (e *Engine) UntraceSQL(o Observer) {
	e.sqlTracers = remove(e.sqlTracers, o)
}

// Execute runs a high-level query with positional bindings, notifying the
// query-layer observers around it.
func (e *Engine) Execute(query string, bindings ...any) error {
	return e.run(e.queryTracers, query, bindings)
}

// ExecuteSQL runs a raw SQL statement with positional bindings, notifying
// the raw-layer observers around it.
func (e *Engine) ExecuteSQL(query string, bindings ...any) error {
	return e.run(e.sqlTracers, query, bindings)
}

func (e *Engine) run(observers []Observer, query string, bindings []any) error {
	// An unbound query passes nil to observers, not an empty slice.
	var bound any
	if len(bindings) > 0 {
		bound = bindings
	}

	tokens := make([]Token, 0, len(observers))
	for _, o := range observers {
		tok, err := o.QueryStarted(query, bound)
		if err != nil {
			return fmt.Errorf("query observer: %w", err)
		}
		tokens = append(tokens, tok)
	}

	if _, err := e.db.Exec(query, bindings...); err != nil {
		// The entries stay pending; that is how failed queries are
		// detected after the fact.
		return fmt.Errorf("executing query: %w", err)
	}

	for i, o := range observers {
		if tokens[i] == 0 {
			continue
		}
		if err := o.QueryCompleted(tokens[i]); err != nil {
			return fmt.Errorf("completing query entry: %w", err)
		}
	}
	return nil
}

func remove(observers []Observer, o Observer) []Observer {
	out := observers[:0]
	for _, cur := range observers {
		if cur != o {
			out = append(out, cur)
		}
	}
	return out
}
