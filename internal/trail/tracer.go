// Package trail implements the session tracer: it observes every query
// the engine executes, records each invocation in the session log before
// the query runs, and marks it completed only after the query returns
// without error. Entries that never complete are how crashed or failed
// queries are detected after the fact.
package trail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/probfoundry/qtrail/internal/collector"
	"github.com/probfoundry/qtrail/internal/engine"
	"github.com/probfoundry/qtrail/internal/store"
)

// ErrSessionOutOfRange is returned by DumpSessionJSON for session ids
// outside [1, CurrentSessionID].
var ErrSessionOutOfRange = errors.New("trail: session id out of range")

// Entry type tags, one per instrumentation layer.
const (
	KindQuery = "bql"
	KindSQL   = "sql"
)

// Engine is the surface the tracer needs from the query engine: observer
// registration for the high-level and raw layers.
type Engine interface {
	Trace(engine.Observer)
	Untrace(engine.Observer)
	TraceSQL(engine.Observer)
	UntraceSQL(engine.Observer)
}

// Options configures a Tracer. Zero fields get defaults.
type Options struct {
	// Output receives human-readable warnings and upload status lines.
	// Defaults to os.Stderr.
	Output io.Writer
	// Collector receives session uploads. Defaults to the standard
	// collection endpoint.
	Collector *collector.Client
	// Now supplies entry timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Tracer owns the session log and mediates between the engine's
// instrumentation hooks and durable storage. Single-owner, synchronous.
type Tracer struct {
	log    *store.Log
	eng    Engine
	out    io.Writer
	client *collector.Client
	now    func() time.Time

	sessionID int64

	queryObs *observer
	sqlObs   *observer
}

// New attaches a tracer to the engine: it registers both trace observers,
// begins a new session, and runs the advisory check for unfinished entries
// left behind by the previous session.
func New(log *store.Log, eng Engine, opts Options) (*Tracer, error) {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Collector == nil {
		opts.Collector = collector.NewClient("")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t := &Tracer{
		log:    log,
		eng:    eng,
		out:    opts.Output,
		client: opts.Collector,
		now:    opts.Now,
	}
	t.queryObs = &observer{tracer: t, kind: KindQuery}
	t.sqlObs = &observer{tracer: t, kind: KindSQL}

	t.StartSaving()

	id, err := log.BeginSession(t.nowSeconds())
	if err != nil {
		return nil, err
	}
	t.sessionID = id

	if _, err := t.checkUnfinishedEntries(); err != nil {
		return nil, err
	}
	return t, nil
}

// observer records entries for one fixed entry kind. Both layers share the
// same logic and the same table.
type observer struct {
	tracer *Tracer
	kind   string
}

// QueryStarted inserts a pending entry for the query and returns its id as
// the completion token. The entry is queryable immediately, before the
// query itself has run.
func (o *observer) QueryStarted(query string, bindings any) (engine.Token, error) {
	t := o.tracer
	id, err := t.log.InsertEntry(t.sessionID, t.nowSeconds(), o.kind, encodeData(query, bindings))
	if err != nil {
		return 0, err
	}
	return engine.Token(id), nil
}

// QueryCompleted flips the entry behind the token to completed. Calling it
// again for the same token is harmless.
func (o *observer) QueryCompleted(token engine.Token) error {
	return o.tracer.log.MarkCompleted(int64(token))
}

// encodeData serializes a query and its bindings as the stored data field:
// the raw query text with the JSON-encoded bindings appended. The plain
// concatenation is a compatibility-preserved weakness — if the query text
// itself looks like JSON, the original bindings cannot be recovered
// unambiguously from data.
func encodeData(query string, bindings any) string {
	if bindings == nil {
		bindings = map[string]any{}
	}
	b, err := json.Marshal(bindings)
	if err != nil {
		// Bindings are plain values bound to a query; an unmarshalable
		// one still gets the query text recorded.
		b = []byte("{}")
	}
	return query + string(b)
}

// StartSaving registers both trace observers with the engine.
func (t *Tracer) StartSaving() {
	t.eng.Trace(t.queryObs)
	t.eng.TraceSQL(t.sqlObs)
}

// StopSaving unregisters both trace observers.
func (t *Tracer) StopSaving() {
	t.eng.Untrace(t.queryObs)
	t.eng.UntraceSQL(t.sqlObs)
}

// CurrentSessionID returns the id of the session created at construction
// time or by the most recent clear.
func (t *Tracer) CurrentSessionID() int64 {
	return t.sessionID
}

// Sessions returns all session rows in storage order.
func (t *Tracer) Sessions() ([]store.Session, error) {
	return t.log.Sessions()
}

// DumpSessionJSON returns a JSON array of the session's entries, most
// recent first.
func (t *Tracer) DumpSessionJSON(sessionID int64) (string, error) {
	if sessionID < 1 || sessionID > t.sessionID {
		return "", fmt.Errorf("%w: %d", ErrSessionOutOfRange, sessionID)
	}

	entries, err := t.log.Entries(sessionID)
	if err != nil {
		return "", err
	}
	if entries == nil {
		entries = []store.Entry{}
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encoding session %d: %w", sessionID, err)
	}
	return string(b), nil
}

// DumpCurrentSessionJSON dumps the current session.
func (t *Tracer) DumpCurrentSessionJSON() (string, error) {
	return t.DumpSessionJSON(t.sessionID)
}

// ClearAllSessions irreversibly deletes all sessions and entries, resets
// the id sequences, and begins a fresh session.
func (t *Tracer) ClearAllSessions() error {
	id, err := t.log.ClearAll(t.nowSeconds())
	if err != nil {
		return err
	}
	t.sessionID = id
	return nil
}

// SendSessionData uploads every session from 1 through the current one to
// the collection endpoint, logging each server response. A failed upload
// propagates immediately; sessions already sent are not tracked.
func (t *Tracer) SendSessionData(ctx context.Context) error {
	for id := int64(1); id <= t.sessionID; id++ {
		fmt.Fprintf(t.out, "Sending session %d to %s ...\n", id, t.client.Endpoint())

		dump, err := t.DumpSessionJSON(id)
		if err != nil {
			return err
		}

		resp, err := t.client.SendSession(ctx, dump)
		if err != nil {
			return err
		}
		fmt.Fprintf(t.out, "Response: %s\n", resp)
	}
	return nil
}

// checkUnfinishedEntries looks at the immediately preceding session for
// entries that never completed, which suggests the previous run crashed or
// was terminated mid-query. Advisory only: it warns, it never fails on a
// nonzero count.
func (t *Tracer) checkUnfinishedEntries() (int, error) {
	n, err := t.log.CountUnfinished(t.sessionID - 1)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		fmt.Fprintf(t.out, "WARNING: Previous session contains %d uncompleted entries. "+
			"This may be due to a bad termination or crash of the previous session. "+
			"Consider uploading the session with `qtrail send`.\n", n)
	}
	return n, nil
}

func (t *Tracer) nowSeconds() float64 {
	return float64(t.now().UnixNano()) / float64(time.Second)
}
