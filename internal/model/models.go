package model

import "time"

// IndexEntry is one course's record in the index mapping: the remote
// index-store id plus every file already submitted to it. The mapping
// file is the single source of truth for "already indexed".
type IndexEntry struct {
	CourseName    string        `json:"course_name"`
	VectorStoreID string        `json:"vector_store_id"`
	Files         []IndexedFile `json:"files"`
}

// IndexedFile records one successful submission.
type IndexedFile struct {
	Path   string `json:"path"`    // storage-root-relative path
	FileID string `json:"file_id"` // remote document id
}

// InaccessibleRecord marks content the remote API refused. Once
// recorded, its key stays excluded from missing-set computation until
// the record is manually cleared.
type InaccessibleRecord struct {
	CourseID int64  `json:"course_id"`
	Course   string `json:"course"`
	FileName string `json:"file_name"`
	RemoteID int64  `json:"remote_id"`
	Path     string `json:"path"` // storage-root-relative path
	Reason   string `json:"reason"`
}

// RunError is one non-fatal failure recorded during a run.
type RunError struct {
	Course string `json:"course"`
	File   string `json:"file"`
	Error  string `json:"error"`
}

// RunStats accumulates the outcome counts of one sync run. A run has a
// single writer; the totals feed the end-of-run report and history row.
type RunStats struct {
	CoursesProcessed int        `json:"courses_processed"`
	CoursesDenied    int        `json:"courses_denied"`
	FilesTotal       int        `json:"files_total"`
	Downloaded       int        `json:"downloaded"`
	Skipped          int        `json:"skipped"` // already present locally
	Failed           int        `json:"failed"`
	Inaccessible     int        `json:"inaccessible"`
	Uploaded         int        `json:"uploaded"`
	UploadFailed     int        `json:"upload_failed"`
	BytesDownloaded  int64      `json:"bytes_downloaded"`
	Errors           []RunError `json:"errors"`
}

// Report is the end-of-run summary persisted as download_report.json.
type Report struct {
	GeneratedAt     time.Time `json:"generated_at"`
	CanvasURL       string    `json:"canvas_url"`
	RootDir         string    `json:"root_dir"`
	Operation       string    `json:"operation"`
	DurationSeconds float64   `json:"duration_seconds"`
	Stats           RunStats  `json:"statistics"`
}

// Reconciliation status classifications.
const (
	StatusNoIndex      = "no_index"
	StatusPartialIndex = "partial_index"
	StatusUpToDate     = "up_to_date"
)

// StatusReport is the read-only reconciliation view served to the
// collaborator surface.
type StatusReport struct {
	Status            string         `json:"status"`
	CanvasFilesTotal  int            `json:"canvas_files_total"`
	IndexedFilesTotal int            `json:"indexed_files_total"`
	MissingFilesCount int            `json:"missing_files_count"`
	MissingByCourse   map[string]int `json:"missing_by_course"`
	SampleOfMissing   []string       `json:"sample_of_missing"`
}

// Sync run lifecycle states stored in history.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// SyncRun is one history row describing a sync invocation.
type SyncRun struct {
	ID         string    // UUID
	Operation  string    // sync, upload-only, download-only
	Status     string    // running, completed, failed
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Stats      RunStats
}
