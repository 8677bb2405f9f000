package csync

import (
	"time"

	"csync-go/internal/model"
)

// History persists the run log: one row per sync invocation, updated
// in place when the run finishes.
type History interface {
	// CreateRun inserts a new run row, normally with status "running"
	// and a zero FinishedAt.
	CreateRun(run model.SyncRun) error

	// FinishRun marks a run completed or failed and stores its final
	// statistics.
	FinishRun(id string, status string, finishedAt time.Time, stats model.RunStats) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]model.SyncRun, error)

	// CheckMigrations verifies the schema is at the expected version.
	CheckMigrations() error

	// Close releases the underlying connection.
	Close() error
}
