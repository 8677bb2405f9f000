package database

import (
	"fmt"
	"path/filepath"

	"csync-go/internal/config"
	"csync-go/internal/csync"
)

// NewDatabaseFromConfig creates a History implementation based on the
// database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (csync.History, error) {
	switch cfg.Type {
	case "sqlite", "":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, "csync.db"))
	case "memory":
		return NewSQLiteDatabase(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
