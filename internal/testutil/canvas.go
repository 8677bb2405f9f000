package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"csync-go/internal/canvas"
	"csync-go/internal/csync"
)

// ScriptedCanvas is an in-memory stand-in for the remote hierarchy
// API. Tests script courses, modules, items, and downloadable content,
// then hand it to the engine.
type ScriptedCanvas struct {
	mu sync.Mutex

	courses     []canvas.Course
	modules     map[int64][]canvas.Module
	items       map[int64]map[int64][]canvas.ModuleItem
	files       map[int64]canvas.File
	pages       map[int64]map[string]canvas.Page
	assignments map[int64]map[int64]canvas.Assignment
	courseFiles map[int64][]canvas.File
	deniedFiles map[int64]bool

	downloads     map[string][]byte
	forbiddenURLs map[string]bool
	failingURLs   map[string]bool
	downloadCount map[string]int
}

func NewScriptedCanvas() *ScriptedCanvas {
	return &ScriptedCanvas{
		modules:       make(map[int64][]canvas.Module),
		items:         make(map[int64]map[int64][]canvas.ModuleItem),
		files:         make(map[int64]canvas.File),
		pages:         make(map[int64]map[string]canvas.Page),
		assignments:   make(map[int64]map[int64]canvas.Assignment),
		courseFiles:   make(map[int64][]canvas.File),
		deniedFiles:   make(map[int64]bool),
		downloads:     make(map[string][]byte),
		forbiddenURLs: make(map[string]bool),
		failingURLs:   make(map[string]bool),
		downloadCount: make(map[string]int),
	}
}

// Scripting helpers

func (s *ScriptedCanvas) AddCourse(c canvas.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses = append(s.courses, c)
}

func (s *ScriptedCanvas) AddModule(courseID int64, m canvas.Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[courseID] = append(s.modules[courseID], m)
}

// AddModuleItems scripts the items endpoint for modules whose item
// list is not embedded.
func (s *ScriptedCanvas) AddModuleItems(courseID, moduleID int64, items ...canvas.ModuleItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items[courseID] == nil {
		s.items[courseID] = make(map[int64][]canvas.ModuleItem)
	}
	s.items[courseID][moduleID] = append(s.items[courseID][moduleID], items...)
}

// AddFile registers file metadata and its downloadable content. A zero
// Size is filled in from the content length.
func (s *ScriptedCanvas) AddFile(f canvas.File, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Size == 0 {
		f.Size = int64(len(content))
	}
	s.files[f.ID] = f
	if f.URL != "" {
		s.downloads[f.URL] = content
	}
}

func (s *ScriptedCanvas) AddPage(courseID int64, p canvas.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages[courseID] == nil {
		s.pages[courseID] = make(map[string]canvas.Page)
	}
	s.pages[courseID][p.URL] = p
}

func (s *ScriptedCanvas) AddAssignment(courseID int64, a canvas.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignments[courseID] == nil {
		s.assignments[courseID] = make(map[int64]canvas.Assignment)
	}
	s.assignments[courseID][a.ID] = a
}

// SetCourseFiles scripts the top-level Files area listing.
func (s *ScriptedCanvas) SetCourseFiles(courseID int64, files ...canvas.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courseFiles[courseID] = files
}

// DenyCourseFiles makes the Files area listing return a 403.
func (s *ScriptedCanvas) DenyCourseFiles(courseID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deniedFiles[courseID] = true
}

// ForbidDownload makes downloads of the URL return a 403.
func (s *ScriptedCanvas) ForbidDownload(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forbiddenURLs[url] = true
}

// FailDownload makes downloads of the URL fail with a generic error.
func (s *ScriptedCanvas) FailDownload(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failingURLs[url] = true
}

// DownloadCount reports how many times the URL was downloaded.
func (s *ScriptedCanvas) DownloadCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadCount[url]
}

// csync.Canvas implementation

func (s *ScriptedCanvas) Courses(_ context.Context) []canvas.Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]canvas.Course, len(s.courses))
	copy(out, s.courses)
	return out
}

func (s *ScriptedCanvas) Modules(_ context.Context, courseID int64) []canvas.Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]canvas.Module, len(s.modules[courseID]))
	copy(out, s.modules[courseID])
	return out
}

func (s *ScriptedCanvas) ModuleItems(_ context.Context, courseID, moduleID int64) []canvas.ModuleItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	byModule := s.items[courseID]
	if byModule == nil {
		return nil
	}
	out := make([]canvas.ModuleItem, len(byModule[moduleID]))
	copy(out, byModule[moduleID])
	return out
}

func (s *ScriptedCanvas) File(_ context.Context, fileID int64) (*canvas.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return nil, &canvas.APIError{StatusCode: http.StatusNotFound, URL: fmt.Sprintf("/files/%d", fileID)}
	}
	return &f, nil
}

func (s *ScriptedCanvas) Page(_ context.Context, courseID int64, pageURL string) (*canvas.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[courseID][pageURL]
	if !ok {
		return nil, &canvas.APIError{StatusCode: http.StatusNotFound, URL: pageURL}
	}
	return &p, nil
}

func (s *ScriptedCanvas) Assignment(_ context.Context, courseID, assignmentID int64) (*canvas.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[courseID][assignmentID]
	if !ok {
		return nil, &canvas.APIError{StatusCode: http.StatusNotFound, URL: fmt.Sprintf("/assignments/%d", assignmentID)}
	}
	return &a, nil
}

func (s *ScriptedCanvas) CourseFiles(_ context.Context, courseID int64) ([]canvas.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deniedFiles[courseID] {
		return nil, &canvas.APIError{StatusCode: http.StatusForbidden, URL: fmt.Sprintf("/courses/%d/files", courseID)}
	}
	out := make([]canvas.File, len(s.courseFiles[courseID]))
	copy(out, s.courseFiles[courseID])
	return out, nil
}

func (s *ScriptedCanvas) Download(_ context.Context, url string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadCount[url]++

	if s.forbiddenURLs[url] {
		return nil, &canvas.APIError{StatusCode: http.StatusForbidden, URL: url}
	}
	if s.failingURLs[url] {
		return nil, fmt.Errorf("connection reset downloading %s", url)
	}
	content, ok := s.downloads[url]
	if !ok {
		return nil, &canvas.APIError{StatusCode: http.StatusNotFound, URL: url}
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// Compile-time check that ScriptedCanvas implements csync.Canvas
var _ csync.Canvas = (*ScriptedCanvas)(nil)
