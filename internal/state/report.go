package state

import (
	"fmt"
	"path/filepath"

	"csync-go/internal/model"
)

// WriteReport persists the end-of-run summary at
// <root>/download_report.json, replacing the previous run's report.
func WriteReport(rootDir string, report *model.Report) error {
	if err := writeJSONFile(filepath.Join(rootDir, ReportFileName), report); err != nil {
		return fmt.Errorf("saving run report: %w", err)
	}
	return nil
}
