package state

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"csync-go/internal/content"
	"csync-go/internal/csync"
	"csync-go/internal/model"
)

// Denials is the file-backed log of permission-denied content. Records
// accumulate across runs; a key, once logged, stays excluded from
// missing-set computation until the file is manually cleared. Safe for
// concurrent use.
type Denials struct {
	mu      sync.Mutex
	path    string
	records []model.InaccessibleRecord
	keys    map[content.Key]bool
}

// NewDenials creates a denial log persisted at the given file path.
func NewDenials(path string) *Denials {
	return &Denials{path: path, keys: make(map[content.Key]bool)}
}

// Load reads persisted records, replacing any in-memory state. An
// absent file is an empty log.
func (d *Denials) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.records = nil
	d.keys = make(map[content.Key]bool)

	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading inaccessible records: %w", err)
	}

	if err := json.Unmarshal(data, &d.records); err != nil {
		return fmt.Errorf("parsing inaccessible records %s: %w", d.path, err)
	}
	for _, rec := range d.records {
		d.keys[content.Key{CourseID: rec.CourseID, RelPath: rec.Path}] = true
	}
	return nil
}

// Add appends a record, deduplicating by key so repeated runs do not
// grow the log.
func (d *Denials) Add(rec model.InaccessibleRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := content.Key{CourseID: rec.CourseID, RelPath: rec.Path}
	if d.keys[key] {
		return
	}
	d.keys[key] = true
	d.records = append(d.records, rec)
}

// Keys returns a snapshot of the excluded keys.
func (d *Denials) Keys() map[content.Key]bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	keys := make(map[content.Key]bool, len(d.keys))
	for k := range d.keys {
		keys[k] = true
	}
	return keys
}

// Records returns a snapshot of all records.
func (d *Denials) Records() []model.InaccessibleRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.InaccessibleRecord(nil), d.records...)
}

// Save atomically persists the log. Nothing is written while the log
// is empty, so a fresh root stays free of bookkeeping files.
func (d *Denials) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.records) == 0 {
		return nil
	}
	if err := writeJSONFile(d.path, d.records); err != nil {
		return fmt.Errorf("saving inaccessible records: %w", err)
	}
	return nil
}

// Compile-time check that Denials implements csync.DenialLog
var _ csync.DenialLog = (*Denials)(nil)
