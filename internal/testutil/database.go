package testutil

import (
	"testing"

	"csync-go/internal/csync"
	"csync-go/internal/database"
)

// NewTestDatabase creates an in-memory run-history database with the
// schema applied. The database is closed when the test completes.
func NewTestDatabase(t *testing.T) csync.History {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
