package state

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "state.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("expected path %s, got %s", path, db.Path())
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// Running migrations twice must not fail or reapply.
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var version int
	row := db.QueryRow("SELECT MAX(version) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 2 {
		t.Errorf("expected schema version 2, got %d", version)
	}
}

func TestPurgeOldActivations(t *testing.T) {
	db := newTestDB(t)

	old := &Activation{
		ID:         "old-ep",
		ProtocolID: "p1",
		StartedAt:  time.Now().Add(-48 * time.Hour),
		Status:     ActivationDeactivated,
	}
	recent := &Activation{
		ID:         "recent-ep",
		ProtocolID: "p1",
		StartedAt:  time.Now(),
		Status:     ActivationActive,
	}
	for _, a := range []*Activation{old, recent} {
		if err := db.CreateActivation(a); err != nil {
			t.Fatalf("create activation %s: %v", a.ID, err)
		}
	}
	if err := db.RecordStepExecution(&StepExecution{
		ActivationID: "old-ep",
		ProtocolID:   "p1",
		StepID:       "s1",
		ExecutedAt:   old.StartedAt,
	}); err != nil {
		t.Fatalf("record step execution: %v", err)
	}

	count, err := db.PurgeOldActivations(24 * time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 episode purged, got %d", count)
	}

	got, err := db.GetActivation("old-ep")
	if err != nil {
		t.Fatalf("get purged activation: %v", err)
	}
	if got != nil {
		t.Error("expected purged episode to be gone")
	}
	steps, err := db.ListStepExecutions("old-ep")
	if err != nil {
		t.Fatalf("list step executions: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("expected purged episode's steps to be gone, got %d", len(steps))
	}

	if got, err := db.GetActivation("recent-ep"); err != nil || got == nil {
		t.Errorf("expected recent episode to survive, got %v, %v", got, err)
	}
}
