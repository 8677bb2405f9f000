package content

import (
	"fmt"
	"path"
)

// Kind identifies the variant of a discovered content location.
type Kind string

const (
	// KindFile is a stored file reached through a module item, an
	// assignment attachment, or the course's top-level Files area.
	KindFile Kind = "file"
	// KindPage is a rendered page body saved as an HTML document.
	KindPage Kind = "page"
	// KindAssignment is a rendered assignment description saved as an
	// HTML document.
	KindAssignment Kind = "assignment"
	// KindEmbeddedFile is a file referenced by a /files/{id} link found
	// inside a page or assignment body.
	KindEmbeddedFile Kind = "embedded_file"
)

// Location describes one unit of remote content discovered during a
// hierarchy walk and the local path it materializes to. Locations are
// immutable once emitted and live only for the duration of a run; they
// persist only implicitly, through the artifacts they produce.
type Location struct {
	Kind         Kind
	CourseID     int64
	CourseName   string // display name as reported by the remote API
	CourseFolder string // sanitized local directory for the course
	Module       string // sanitized module folder; empty for Files-area content
	RemoteID     int64  // remote file/page/assignment id
	Name         string // sanitized file name within its directory
	DownloadURL  string // set for file-backed locations
	Size         int64  // declared remote byte size; for inline bodies, the body length
	Body         string // inline document body for page/assignment variants
	RelPath      string // storage-root-relative path, slash-separated
}

// Inline reports whether the location carries its content in Body
// rather than behind a download URL.
func (l Location) Inline() bool {
	return l.Kind == KindPage || l.Kind == KindAssignment
}

// Key returns the tagged key identifying this location across runs.
func (l Location) Key() Key {
	return Key{CourseID: l.CourseID, RelPath: l.RelPath}
}

// Key joins remote content against indexed state. Relative paths are
// unique within a course, so the pair stays collision-free even when
// display names repeat across modules.
type Key struct {
	CourseID int64
	RelPath  string
}

func (k Key) String() string {
	return fmt.Sprintf("%d::%s", k.CourseID, k.RelPath)
}

// ModulePath returns the root-relative path for content reached through
// a module. Paths are slash-separated regardless of platform; storage
// backends convert as needed.
func ModulePath(courseFolder, moduleFolder, name string) string {
	return path.Join(courseFolder, "Modules", moduleFolder, name)
}

// FilesAreaPath returns the root-relative path for content from the
// course's top-level Files area.
func FilesAreaPath(courseFolder, name string) string {
	return path.Join(courseFolder, "Files", name)
}
