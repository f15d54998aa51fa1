package store

import (
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := Open(filepath.Join(t.TempDir(), "trail.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestBeginSessionAssignsIncreasingIDs(t *testing.T) {
	log := openTestLog(t)

	first, err := log.BeginSession(100)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	second, err := log.BeginSession(200)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}

	if first != 1 {
		t.Fatalf("first session id = %d, want 1", first)
	}
	if second != first+1 {
		t.Fatalf("second session id = %d, want %d", second, first+1)
	}
}

func TestInsertEntryStartsPending(t *testing.T) {
	log := openTestLog(t)

	sid, err := log.BeginSession(100)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}

	id, err := log.InsertEntry(sid, 101, "bql", "SELECT 1;{}")
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if id != 1 {
		t.Fatalf("entry id = %d, want 1", id)
	}

	// Pending immediately, before any completion.
	n, err := log.CountUnfinished(sid)
	if err != nil {
		t.Fatalf("CountUnfinished: %v", err)
	}
	if n != 1 {
		t.Fatalf("unfinished = %d, want 1", n)
	}

	if err := log.MarkCompleted(id); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	// Idempotent at the storage level.
	if err := log.MarkCompleted(id); err != nil {
		t.Fatalf("MarkCompleted (repeat): %v", err)
	}

	n, err = log.CountUnfinished(sid)
	if err != nil {
		t.Fatalf("CountUnfinished: %v", err)
	}
	if n != 0 {
		t.Fatalf("unfinished after completion = %d, want 0", n)
	}
}

func TestEntriesOrderedByTimeDescending(t *testing.T) {
	log := openTestLog(t)

	sid, err := log.BeginSession(100)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}

	times := []float64{10.5, 12.25, 11.0}
	for i, ts := range times {
		if _, err := log.InsertEntry(sid, ts, "sql", "q"); err != nil {
			t.Fatalf("InsertEntry %d: %v", i, err)
		}
	}

	entries, err := log.Entries(sid)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != len(times) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(times))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Time > entries[i-1].Time {
			t.Fatalf("entries out of order at %d: %.2f after %.2f",
				i, entries[i].Time, entries[i-1].Time)
		}
	}
}

func TestSessionsReportsEntryCounts(t *testing.T) {
	log := openTestLog(t)

	sid, err := log.BeginSession(100)
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
	id, err := log.InsertEntry(sid, 101, "bql", "a")
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if _, err := log.InsertEntry(sid, 102, "sql", "b"); err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if err := log.MarkCompleted(id); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	sessions, err := log.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d, want 1", len(sessions))
	}
	s := sessions[0]
	if s.ID != sid || s.Entries != 2 || s.Pending != 1 {
		t.Fatalf("session = %+v, want id=%d entries=2 pending=1", s, sid)
	}
}

func TestClearAllResetsSequences(t *testing.T) {
	log := openTestLog(t)

	for i := 0; i < 3; i++ {
		sid, err := log.BeginSession(float64(100 + i))
		if err != nil {
			t.Fatalf("BeginSession: %v", err)
		}
		if _, err := log.InsertEntry(sid, float64(100+i), "bql", "q"); err != nil {
			t.Fatalf("InsertEntry: %v", err)
		}
	}

	fresh, err := log.ClearAll(500)
	if err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if fresh != 1 {
		t.Fatalf("fresh session id = %d, want 1 (sequence reset)", fresh)
	}

	sessions, err := log.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) after clear = %d, want 1", len(sessions))
	}
	if sessions[0].Entries != 0 {
		t.Fatalf("fresh session entries = %d, want 0", sessions[0].Entries)
	}

	// Entry ids restart from 1 as well.
	id, err := log.InsertEntry(fresh, 501, "sql", "q")
	if err != nil {
		t.Fatalf("InsertEntry: %v", err)
	}
	if id != 1 {
		t.Fatalf("entry id after clear = %d, want 1", id)
	}
}
