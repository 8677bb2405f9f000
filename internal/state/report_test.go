package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"csync-go/internal/model"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	report := &model.Report{
		GeneratedAt:     time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		CanvasURL:       "https://canvas.example.edu",
		RootDir:         dir,
		Operation:       "sync",
		DurationSeconds: 12.5,
		Stats: model.RunStats{
			CoursesProcessed: 2,
			FilesTotal:       10,
			Downloaded:       8,
			Skipped:          2,
		},
	}

	if err := WriteReport(dir, report); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ReportFileName))
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}

	var got model.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parsing report file: %v", err)
	}
	if got.Operation != "sync" {
		t.Errorf("Operation = %q, want %q", got.Operation, "sync")
	}
	if got.Stats.Downloaded != 8 {
		t.Errorf("Stats.Downloaded = %d, want 8", got.Stats.Downloaded)
	}
	if got.DurationSeconds != 12.5 {
		t.Errorf("DurationSeconds = %v, want 12.5", got.DurationSeconds)
	}
}

func TestWriteReport_ReplacesPrevious(t *testing.T) {
	dir := t.TempDir()

	first := &model.Report{Operation: "sync", Stats: model.RunStats{Downloaded: 1}}
	if err := WriteReport(dir, first); err != nil {
		t.Fatalf("first WriteReport() error = %v", err)
	}

	second := &model.Report{Operation: "upload-only", Stats: model.RunStats{Uploaded: 3}}
	if err := WriteReport(dir, second); err != nil {
		t.Fatalf("second WriteReport() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ReportFileName))
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	var got model.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("parsing report file: %v", err)
	}
	if got.Operation != "upload-only" {
		t.Errorf("Operation = %q, want %q", got.Operation, "upload-only")
	}
}
