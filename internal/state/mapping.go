package state

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"csync-go/internal/content"
	"csync-go/internal/csync"
	"csync-go/internal/model"
)

// Mapping is the file-backed index state: course id -> index entry.
// Courses are keyed by their numeric id rendered as a string, with the
// display name carried inside the entry, so course renames never orphan
// an entry. Entries recorded during a run are merged over the loaded
// mapping on save; courses untouched by the run survive unchanged.
// Safe for concurrent use.
type Mapping struct {
	mu      sync.Mutex
	path    string
	loaded  map[string]model.IndexEntry
	touched map[string]*model.IndexEntry
}

// NewMapping creates a mapping persisted at the given file path.
func NewMapping(path string) *Mapping {
	return &Mapping{
		path:    path,
		loaded:  make(map[string]model.IndexEntry),
		touched: make(map[string]*model.IndexEntry),
	}
}

// Load reads the persisted mapping, replacing any in-memory state. An
// absent file is an empty mapping; an unreadable one is an error, so a
// corrupt mapping is never silently overwritten.
func (m *Mapping) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = make(map[string]model.IndexEntry)
	m.touched = make(map[string]*model.IndexEntry)

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading index mapping: %w", err)
	}

	if err := json.Unmarshal(data, &m.loaded); err != nil {
		return fmt.Errorf("parsing index mapping %s: %w", m.path, err)
	}
	return nil
}

// FilesSubmitted returns the set of relative paths already submitted
// for a course, including ones recorded earlier in this run.
func (m *Mapping) FilesSubmitted(courseID int64) map[string]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := courseKey(courseID)
	paths := make(map[string]bool)
	if entry, ok := m.loaded[key]; ok {
		for _, f := range entry.Files {
			paths[f.Path] = true
		}
	}
	if entry, ok := m.touched[key]; ok {
		for _, f := range entry.Files {
			paths[f.Path] = true
		}
	}
	return paths
}

// SubmittedKeys returns every indexed key across all courses.
func (m *Mapping) SubmittedKeys() map[content.Key]bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make(map[content.Key]bool)
	collect := func(courseKey string, files []model.IndexedFile) {
		courseID, err := strconv.ParseInt(courseKey, 10, 64)
		if err != nil {
			return // legacy or foreign entry, not diffable by id
		}
		for _, f := range files {
			keys[content.Key{CourseID: courseID, RelPath: f.Path}] = true
		}
	}
	for k, entry := range m.loaded {
		collect(k, entry.Files)
	}
	for k, entry := range m.touched {
		collect(k, entry.Files)
	}
	return keys
}

// StoreID returns the course's index-store id, or "" when none is
// recorded.
func (m *Mapping) StoreID(courseID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := courseKey(courseID)
	if entry, ok := m.touched[key]; ok && entry.VectorStoreID != "" {
		return entry.VectorStoreID
	}
	if entry, ok := m.loaded[key]; ok {
		return entry.VectorStoreID
	}
	return ""
}

// SetStoreID records a newly created index store for a course.
func (m *Mapping) SetStoreID(courseID int64, courseName, storeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(courseID, courseName).VectorStoreID = storeID
}

// Record appends one successful submission in memory. It is persisted
// by the next MergeAndSave.
func (m *Mapping) Record(courseID int64, courseName, relPath, documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.entry(courseID, courseName)
	entry.Files = append(entry.Files, model.IndexedFile{Path: relPath, FileID: documentID})
}

// MergeAndSave atomically persists the loaded mapping overlaid with
// entries touched this run.
func (m *Mapping) MergeAndSave() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged := make(map[string]model.IndexEntry, len(m.loaded)+len(m.touched))
	for k, entry := range m.loaded {
		merged[k] = entry
	}
	for k, entry := range m.touched {
		merged[k] = *entry
	}

	if err := writeJSONFile(m.path, merged); err != nil {
		return fmt.Errorf("saving index mapping: %w", err)
	}

	m.loaded = merged
	m.touched = make(map[string]*model.IndexEntry)
	return nil
}

// entry returns the course's working copy, seeding it from the loaded
// mapping so previously submitted files are never dropped by a merge.
// Callers must hold the mutex.
func (m *Mapping) entry(courseID int64, courseName string) *model.IndexEntry {
	key := courseKey(courseID)
	if e, ok := m.touched[key]; ok {
		if e.CourseName == "" {
			e.CourseName = courseName
		}
		return e
	}

	e := &model.IndexEntry{CourseName: courseName}
	if prev, ok := m.loaded[key]; ok {
		seeded := prev
		seeded.Files = append([]model.IndexedFile(nil), prev.Files...)
		if courseName != "" {
			seeded.CourseName = courseName
		}
		e = &seeded
	}
	m.touched[key] = e
	return e
}

func courseKey(courseID int64) string {
	return strconv.FormatInt(courseID, 10)
}

// Compile-time check that Mapping implements csync.IndexState
var _ csync.IndexState = (*Mapping)(nil)
