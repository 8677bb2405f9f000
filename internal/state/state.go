// Package state persists the sync engine's knowledge between runs:
// the per-course index mapping, the permission-denial log, and the
// end-of-run report. Everything is stored as JSON under the storage
// root and rewritten atomically.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Canonical file names under the storage root.
const (
	MappingFileName      = "vector_stores_mapping.json"
	InaccessibleFileName = "inaccessible_files.json"
	ReportFileName       = "download_report.json"
)

// writeJSONFile atomically replaces path with the JSON encoding of v
// using a temp file + rename in the destination directory.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
