package engine

import (
	"path/filepath"
	"testing"
)

// recordingObserver counts hook invocations and hands out fixed tokens.
type recordingObserver struct {
	started   []string
	completed []Token
	next      Token
}

func (r *recordingObserver) QueryStarted(query string, bindings any) (Token, error) {
	r.started = append(r.started, query)
	r.next++
	return r.next, nil
}

func (r *recordingObserver) QueryCompleted(token Token) error {
	r.completed = append(r.completed, token)
	return nil
}

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := Open(filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	if err := eng.ExecuteSQL("CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return eng
}

func TestObserverNotifiedBeforeAndAfter(t *testing.T) {
	eng := openTestEngine(t)
	obs := &recordingObserver{}
	eng.Trace(obs)

	if err := eng.Execute("INSERT INTO t (x) VALUES (?)", 7); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(obs.started) != 1 || obs.started[0] != "INSERT INTO t (x) VALUES (?)" {
		t.Fatalf("started = %v, want one insert", obs.started)
	}
	if len(obs.completed) != 1 || obs.completed[0] != 1 {
		t.Fatalf("completed = %v, want [1]", obs.completed)
	}
}

func TestFailedQueryNeverCompletes(t *testing.T) {
	eng := openTestEngine(t)
	obs := &recordingObserver{}
	eng.Trace(obs)

	if err := eng.Execute("INSERT INTO nope (x) VALUES (1)"); err == nil {
		t.Fatal("Execute on missing table succeeded, want error")
	}

	if len(obs.started) != 1 {
		t.Fatalf("started = %v, want the failed query recorded", obs.started)
	}
	if len(obs.completed) != 0 {
		t.Fatalf("completed = %v, want none for a failed query", obs.completed)
	}
}

func TestLayersAreIndependent(t *testing.T) {
	eng := openTestEngine(t)
	queryObs := &recordingObserver{}
	sqlObs := &recordingObserver{}
	eng.Trace(queryObs)
	eng.TraceSQL(sqlObs)

	if err := eng.Execute("INSERT INTO t (x) VALUES (1)"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := eng.ExecuteSQL("INSERT INTO t (x) VALUES (2)"); err != nil {
		t.Fatalf("ExecuteSQL: %v", err)
	}

	if len(queryObs.started) != 1 {
		t.Fatalf("query-layer observer saw %d queries, want 1", len(queryObs.started))
	}
	if len(sqlObs.started) != 1 {
		t.Fatalf("sql-layer observer saw %d queries, want 1", len(sqlObs.started))
	}
}

func TestUntraceStopsNotifications(t *testing.T) {
	eng := openTestEngine(t)
	obs := &recordingObserver{}
	eng.Trace(obs)
	eng.Untrace(obs)

	if err := eng.Execute("INSERT INTO t (x) VALUES (1)"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(obs.started) != 0 {
		t.Fatalf("started = %v, want none after Untrace", obs.started)
	}

	// Removing an observer that is not registered is a no-op.
	eng.Untrace(obs)
}

func TestUntraceKeepsOtherObservers(t *testing.T) {
	eng := openTestEngine(t)
	kept := &recordingObserver{}
	dropped := &recordingObserver{}
	eng.Trace(kept)
	eng.Trace(dropped)
	eng.Untrace(dropped)

	if err := eng.Execute("INSERT INTO t (x) VALUES (1)"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(kept.started) != 1 {
		t.Fatalf("kept observer saw %d queries, want 1", len(kept.started))
	}
	if len(dropped.started) != 0 {
		t.Fatalf("dropped observer saw %d queries, want 0", len(dropped.started))
	}
}

func TestZeroTokenSkipsCompletion(t *testing.T) {
	eng := openTestEngine(t)
	obs := &recordingObserver{next: -1} // first token handed out is 0
	eng.Trace(obs)

	if err := eng.Execute("INSERT INTO t (x) VALUES (1)"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(obs.completed) != 0 {
		t.Fatalf("completed = %v, want none for zero token", obs.completed)
	}
}
