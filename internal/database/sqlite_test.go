package database

import (
	"path/filepath"
	"testing"
	"time"

	"csync-go/internal/model"
)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestSQLiteDatabase_CreateRun(t *testing.T) {
	t.Run("round-trips a running run", func(t *testing.T) {
		db := newTestDB(t)

		started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		run := model.SyncRun{
			ID:        "run-1",
			Operation: "sync",
			Status:    model.RunStatusRunning,
			StartedAt: started,
		}
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		runs, err := db.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
		}

		got := runs[0]
		if got.ID != "run-1" || got.Operation != "sync" || got.Status != model.RunStatusRunning {
			t.Errorf("run = %+v, want id run-1, operation sync, status running", got)
		}
		if !got.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
		}
		if !got.FinishedAt.IsZero() {
			t.Errorf("FinishedAt = %v, want zero while running", got.FinishedAt)
		}
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		db := newTestDB(t)

		run := model.SyncRun{ID: "run-1", Operation: "sync", Status: model.RunStatusRunning, StartedAt: time.Now()}
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}
		if err := db.CreateRun(run); err == nil {
			t.Error("CreateRun() with duplicate id expected error, got nil")
		}
	})
}

func TestSQLiteDatabase_FinishRun(t *testing.T) {
	t.Run("records status and statistics", func(t *testing.T) {
		db := newTestDB(t)

		started := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		if err := db.CreateRun(model.SyncRun{ID: "run-1", Operation: "sync", Status: model.RunStatusRunning, StartedAt: started}); err != nil {
			t.Fatalf("CreateRun() error = %v", err)
		}

		finished := started.Add(42 * time.Second)
		stats := model.RunStats{FilesTotal: 12, Downloaded: 3, Skipped: 9, Uploaded: 3}
		if err := db.FinishRun("run-1", model.RunStatusCompleted, finished, stats); err != nil {
			t.Fatalf("FinishRun() error = %v", err)
		}

		runs, err := db.ListRuns(10)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		got := runs[0]
		if got.Status != model.RunStatusCompleted {
			t.Errorf("Status = %q, want %q", got.Status, model.RunStatusCompleted)
		}
		if !got.FinishedAt.Equal(finished) {
			t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
		}
		if got.Stats.FilesTotal != 12 || got.Stats.Downloaded != 3 || got.Stats.Uploaded != 3 {
			t.Errorf("Stats = %+v, want the recorded statistics back", got.Stats)
		}
	})

	t.Run("unknown run id", func(t *testing.T) {
		db := newTestDB(t)

		err := db.FinishRun("missing", model.RunStatusCompleted, time.Now(), model.RunStats{})
		if err == nil {
			t.Error("FinishRun() with unknown id expected error, got nil")
		}
	})
}

func TestSQLiteDatabase_ListRuns(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := model.SyncRun{
			ID:        id,
			Operation: "sync",
			Status:    model.RunStatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.CreateRun(run); err != nil {
			t.Fatalf("CreateRun(%s) error = %v", id, err)
		}
	}

	runs, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns(2) returned %d runs, want 2", len(runs))
	}
	// Newest first.
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("ListRuns(2) = [%s %s], want [run-c run-b]", runs[0].ID, runs[1].ID)
	}
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	db := newTestDB(t)

	if err := db.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() on migrated database returned error: %v", err)
	}
}

func TestSQLiteDatabase_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csync.db")

	db, err := NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	if err := db.CreateRun(model.SyncRun{ID: "run-1", Operation: "sync", Status: model.RunStatusRunning, StartedAt: time.Now()}); err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen and verify the row survived.
	db, err = NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() reopen error = %v", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" {
		t.Errorf("ListRuns() after reopen = %v, want the run recorded before closing", runs)
	}
}
