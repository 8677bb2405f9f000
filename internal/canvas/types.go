package canvas

// Typed views of the remote API payloads. Each variant is decoded at
// the client boundary so downstream code switches on explicit types
// rather than probing loosely-structured maps.

// Course is one enrollment-visible course.
type Course struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"course_code"`
}

// Module is a content module within a course. The remote API embeds
// the item list when asked to; Items stays nil otherwise and callers
// fall back to the items endpoint.
type Module struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Items []ModuleItem `json:"items"`
}

// ModuleItem is a single entry inside a module. Type discriminates the
// variant; only the fields belonging to that variant are populated.
type ModuleItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	ContentID int64  `json:"content_id"` // File and Assignment items
	PageURL   string `json:"page_url"`   // Page items
}

// Module item types this system consumes. Anything else is ignored.
const (
	ItemTypeFile       = "File"
	ItemTypePage       = "Page"
	ItemTypeAssignment = "Assignment"
)

// File is stored-file metadata. URL is a pre-signed download link that
// needs no additional authentication.
type File struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content-type"`
}

// Name returns the best available display name for the file.
func (f File) Name() string {
	if f.DisplayName != "" {
		return f.DisplayName
	}
	if f.Filename != "" {
		return f.Filename
	}
	return "unnamed"
}

// Page is a wiki page with its rendered HTML body.
type Page struct {
	PageID int64  `json:"page_id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Assignment is an assignment with its rendered description and any
// declared attachments.
type Assignment struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Attachments []File `json:"attachments"`
}

// Folder is one node of a course's file-folder tree, used when the
// flat files listing is unavailable.
type Folder struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}
