package csync

import (
	"csync-go/internal/content"
	"csync-go/internal/model"
)

// IndexState is the persisted mapping from course to index-store id
// and submitted files. Load is called once at the start of each run;
// MergeAndSave writes the union of freshly recorded entries and
// courses untouched this run, exactly once per run.
type IndexState interface {
	// Load reads the persisted mapping. An absent file is an empty
	// mapping, not an error.
	Load() error
	// FilesSubmitted returns the set of relative paths already
	// submitted for a course.
	FilesSubmitted(courseID int64) map[string]bool
	// SubmittedKeys returns every indexed key across all courses.
	SubmittedKeys() map[content.Key]bool
	// StoreID returns the course's index-store id, or "".
	StoreID(courseID int64) string
	// SetStoreID records a newly created index store for a course.
	SetStoreID(courseID int64, courseName, storeID string)
	// Record appends one successful submission in memory.
	Record(courseID int64, courseName, relPath, documentID string)
	// MergeAndSave atomically persists the merged mapping.
	MergeAndSave() error
}

// DenialLog is the persisted list of permission-denied content. Keys
// in the log are permanently excluded from missing-set computation
// until the log is manually cleared.
type DenialLog interface {
	// Load reads persisted records. An absent file is an empty log.
	Load() error
	// Add appends a record, deduplicating by key.
	Add(rec model.InaccessibleRecord)
	// Keys returns the excluded keys.
	Keys() map[content.Key]bool
	// Records returns all records.
	Records() []model.InaccessibleRecord
	// Save atomically persists the log.
	Save() error
}
