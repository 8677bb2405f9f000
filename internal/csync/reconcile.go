package csync

import (
	"sort"

	"csync-go/internal/content"
	"csync-go/internal/model"
)

// Reconciliation is the diff between one crawl and the persisted index
// state. It holds no references to live services and can be rebuilt
// from scratch on every run.
type Reconciliation struct {
	// Remote maps every index-eligible location discovered by the
	// crawl. Duplicate keys collapse to the last sighting.
	Remote map[content.Key]content.Location
	// Missing is eligible remote content absent from the index, with
	// known-inaccessible entries excluded. Sorted for stable output.
	Missing []content.Key
	// Extra is indexed content no longer discovered remotely. It is
	// reported, never acted on.
	Extra []content.Key
	// IndexedCount is the number of indexed entries considered.
	IndexedCount int
}

// Reconcile diffs crawl results against indexed keys. Only locations
// eligible for indexing participate; local-only artifacts such as
// oversized media never show up as missing.
func Reconcile(locs []content.Location, indexed map[content.Key]bool, inaccessible map[content.Key]bool) *Reconciliation {
	rec := &Reconciliation{
		Remote:       make(map[content.Key]content.Location),
		IndexedCount: len(indexed),
	}
	for _, loc := range locs {
		if Eligible(loc.RelPath, loc.Size) {
			rec.Remote[loc.Key()] = loc
		}
	}
	for key := range rec.Remote {
		if !indexed[key] && !inaccessible[key] {
			rec.Missing = append(rec.Missing, key)
		}
	}
	for key := range indexed {
		if _, ok := rec.Remote[key]; !ok {
			rec.Extra = append(rec.Extra, key)
		}
	}
	sortKeys(rec.Missing)
	sortKeys(rec.Extra)
	return rec
}

// Status summarizes index coverage for the reconciled snapshot.
func (r *Reconciliation) Status() string {
	switch {
	case r.IndexedCount == 0:
		return model.StatusNoIndex
	case len(r.Missing) > 0:
		return model.StatusPartialIndex
	default:
		return model.StatusUpToDate
	}
}

func sortKeys(keys []content.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CourseID != keys[j].CourseID {
			return keys[i].CourseID < keys[j].CourseID
		}
		return keys[i].RelPath < keys[j].RelPath
	})
}
