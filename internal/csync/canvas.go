package csync

import (
	"context"
	"io"

	"csync-go/internal/canvas"
)

// Canvas is the remote hierarchy API the engine walks. Collection
// methods follow the paginated-fetch contract: they return whatever
// could be fetched, possibly partial after a logged failure, and never
// discard earlier pages.
type Canvas interface {
	// Courses returns the active courses visible to the token.
	Courses(ctx context.Context) []canvas.Course
	// Modules returns a course's modules, with items embedded when the
	// remote supplies them.
	Modules(ctx context.Context, courseID int64) []canvas.Module
	// ModuleItems fetches a module's items when they were not embedded.
	ModuleItems(ctx context.Context, courseID, moduleID int64) []canvas.ModuleItem
	// File resolves full file metadata by id.
	File(ctx context.Context, fileID int64) (*canvas.File, error)
	// Page fetches a wiki page with its rendered body.
	Page(ctx context.Context, courseID int64, pageURL string) (*canvas.Page, error)
	// Assignment fetches assignment detail.
	Assignment(ctx context.Context, courseID, assignmentID int64) (*canvas.Assignment, error)
	// CourseFiles enumerates the top-level Files area. An error
	// satisfying canvas.IsForbidden marks the whole course denied.
	CourseFiles(ctx context.Context, courseID int64) ([]canvas.File, error)
	// Download opens the content behind a download URL.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
