// Package database stores the sync run history in SQLite. Each run of
// the engine gets one row, created when the run starts and finalized
// with its statistics when it ends.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"csync-go/internal/csync"
	"csync-go/internal/database/migrations"
	"csync-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the History interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path, creating it and
// applying pending migrations as needed. path can be a file path or
// ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database %s: %w", path, err)
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection. The caller is
// responsible for the connection's configuration and schema.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs this package expects. Exported for tools and tests that need
// a raw connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite ships with foreign keys OFF for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return db, nil
}

// CreateRun inserts a new run row.
func (s *SQLiteDatabase) CreateRun(run model.SyncRun) error {
	stats, err := json.Marshal(run.Stats)
	if err != nil {
		return fmt.Errorf("encoding run statistics: %w", err)
	}

	finished := sql.NullTime{}
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO sync_runs (id, operation, status, started_at, finished_at, stats)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Operation, run.Status, run.StartedAt, finished, string(stats))
	if err != nil {
		return fmt.Errorf("creating sync run: %w", err)
	}
	return nil
}

// FinishRun marks a run completed or failed and records its final
// statistics.
func (s *SQLiteDatabase) FinishRun(id string, status string, finishedAt time.Time, stats model.RunStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding run statistics: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE sync_runs
		SET status = ?, finished_at = ?, stats = ?
		WHERE id = ?`,
		status, finishedAt, string(data), id)
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sync run %s not found", id)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteDatabase) ListRuns(limit int) ([]model.SyncRun, error) {
	rows, err := s.db.Query(`
		SELECT id, operation, status, started_at, finished_at, stats
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`,
		int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	defer rows.Close()

	var runs []model.SyncRun
	for rows.Next() {
		var run model.SyncRun
		var finished sql.NullTime
		var stats string

		if err := rows.Scan(&run.ID, &run.Operation, &run.Status, &run.StartedAt, &finished, &stats); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = finished.Time
		}
		if err := json.Unmarshal([]byte(stats), &run.Stats); err != nil {
			return nil, fmt.Errorf("decoding statistics for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	return runs, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements csync.History
var _ csync.History = (*SQLiteDatabase)(nil)
