package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"csync-go/internal/content"
	"csync-go/internal/model"
)

func tempMapping(t *testing.T) *Mapping {
	t.Helper()
	return NewMapping(filepath.Join(t.TempDir(), MappingFileName))
}

func TestMapping_Load_AbsentFile(t *testing.T) {
	m := tempMapping(t)

	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(m.SubmittedKeys()) != 0 {
		t.Errorf("SubmittedKeys() = %v, want empty", m.SubmittedKeys())
	}
	if got := m.StoreID(42); got != "" {
		t.Errorf("StoreID(42) = %q, want empty", got)
	}
}

func TestMapping_Load_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	m := NewMapping(path)
	if err := m.Load(); err == nil {
		t.Fatal("Load() expected error for corrupt mapping")
	}
}

func TestMapping_RecordAndSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFileName)
	m := NewMapping(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	m.SetStoreID(42, "CS101", "vs_abc")
	m.Record(42, "CS101", "CS101/Files/syllabus.pdf", "file_1")
	m.Record(42, "CS101", "CS101/Modules/Week 1/notes.pdf", "file_2")

	if err := m.MergeAndSave(); err != nil {
		t.Fatalf("MergeAndSave() error = %v", err)
	}

	reloaded := NewMapping(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload error = %v", err)
	}

	if got := reloaded.StoreID(42); got != "vs_abc" {
		t.Errorf("StoreID(42) = %q, want %q", got, "vs_abc")
	}
	submitted := reloaded.FilesSubmitted(42)
	if len(submitted) != 2 {
		t.Fatalf("len(FilesSubmitted) = %d, want 2", len(submitted))
	}
	if !submitted["CS101/Files/syllabus.pdf"] {
		t.Error("syllabus.pdf not recorded as submitted")
	}

	keys := reloaded.SubmittedKeys()
	if !keys[content.Key{CourseID: 42, RelPath: "CS101/Files/syllabus.pdf"}] {
		t.Error("SubmittedKeys missing syllabus key")
	}
}

func TestMapping_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFileName)
	m := NewMapping(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	m.SetStoreID(42, "CS101", "vs_abc")
	m.Record(42, "CS101", "CS101/Files/a.pdf", "file_1")
	if err := m.MergeAndSave(); err != nil {
		t.Fatalf("MergeAndSave() error = %v", err)
	}

	// Courses are keyed by numeric id string, display name inside.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading mapping file: %v", err)
	}
	var raw map[string]model.IndexEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parsing mapping file: %v", err)
	}
	entry, ok := raw["42"]
	if !ok {
		t.Fatalf("mapping keys = %v, want key %q", rawKeys(raw), "42")
	}
	if entry.CourseName != "CS101" {
		t.Errorf("course_name = %q, want %q", entry.CourseName, "CS101")
	}
	if entry.VectorStoreID != "vs_abc" {
		t.Errorf("vector_store_id = %q, want %q", entry.VectorStoreID, "vs_abc")
	}
	if len(entry.Files) != 1 || entry.Files[0].FileID != "file_1" {
		t.Errorf("files = %v, want one entry with file_1", entry.Files)
	}
}

func rawKeys(m map[string]model.IndexEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestMapping_MergePreservesUntouchedCourses(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFileName)

	// First run indexes two courses.
	first := NewMapping(path)
	if err := first.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first.SetStoreID(1, "CS101", "vs_1")
	first.Record(1, "CS101", "CS101/Files/a.pdf", "file_a")
	first.SetStoreID(2, "MATH200", "vs_2")
	first.Record(2, "MATH200", "MATH200/Files/hw.pdf", "file_hw")
	if err := first.MergeAndSave(); err != nil {
		t.Fatalf("first MergeAndSave() error = %v", err)
	}

	// Second run touches only course 2.
	second := NewMapping(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	second.Record(2, "MATH200", "MATH200/Files/hw2.pdf", "file_hw2")
	if err := second.MergeAndSave(); err != nil {
		t.Fatalf("second MergeAndSave() error = %v", err)
	}

	final := NewMapping(path)
	if err := final.Load(); err != nil {
		t.Fatalf("final Load() error = %v", err)
	}

	if got := final.StoreID(1); got != "vs_1" {
		t.Errorf("untouched course store id = %q, want %q", got, "vs_1")
	}
	if !final.FilesSubmitted(1)["CS101/Files/a.pdf"] {
		t.Error("untouched course lost its file records")
	}

	math := final.FilesSubmitted(2)
	if len(math) != 2 {
		t.Fatalf("len(FilesSubmitted(2)) = %d, want 2", len(math))
	}
	if !math["MATH200/Files/hw.pdf"] || !math["MATH200/Files/hw2.pdf"] {
		t.Errorf("course 2 files = %v, want old and new records", math)
	}
	if got := final.StoreID(2); got != "vs_2" {
		t.Errorf("reused store id = %q, want %q", got, "vs_2")
	}
}

func TestMapping_RecordSeedsFromLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), MappingFileName)

	first := NewMapping(path)
	if err := first.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	first.SetStoreID(7, "BIO150", "vs_bio")
	first.Record(7, "BIO150", "BIO150/Files/old.pdf", "file_old")
	if err := first.MergeAndSave(); err != nil {
		t.Fatalf("MergeAndSave() error = %v", err)
	}

	second := NewMapping(path)
	if err := second.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Recording a new file must not drop the loaded one.
	second.Record(7, "BIO150", "BIO150/Files/new.pdf", "file_new")

	submitted := second.FilesSubmitted(7)
	if !submitted["BIO150/Files/old.pdf"] || !submitted["BIO150/Files/new.pdf"] {
		t.Errorf("FilesSubmitted(7) = %v, want both old and new", submitted)
	}
	if got := second.StoreID(7); got != "vs_bio" {
		t.Errorf("StoreID(7) = %q, want %q", got, "vs_bio")
	}
}

func TestMapping_AtomicWrite(t *testing.T) {
	dir := t.TempDir()
	m := NewMapping(filepath.Join(dir, MappingFileName))
	if err := m.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m.Record(1, "CS101", "CS101/Files/a.pdf", "f1")
	if err := m.MergeAndSave(); err != nil {
		t.Fatalf("MergeAndSave() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != MappingFileName {
			t.Errorf("unexpected file left behind: %s", entry.Name())
		}
	}
}
