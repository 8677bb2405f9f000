package csync

import (
	"context"
	"fmt"
	"time"

	"csync-go/internal/canvas"
	"csync-go/internal/content"
	"csync-go/internal/model"
)

// SyncService is the orchestration layer that coordinates the walk,
// materialization, reconciliation, and index upload of one run.
type SyncService struct {
	canvas  Canvas
	mirror  Mirror
	state   IndexState
	denials DenialLog
	index   IndexStore
	logger  Logger
	clock   Clock

	canvasURL   string
	rootDir     string
	uploadDelay time.Duration
}

// ServiceConfig carries the run-report metadata and tuning the service
// cannot derive from its collaborators.
type ServiceConfig struct {
	CanvasURL   string
	RootDir     string
	UploadDelay time.Duration
}

// NewSyncService creates a SyncService with the provided dependencies.
// index may be nil when no index service is configured; runs then stop
// after materialization.
func NewSyncService(canvasAPI Canvas, mirror Mirror, state IndexState, denials DenialLog, index IndexStore, logger Logger, clock Clock, cfg ServiceConfig) *SyncService {
	return &SyncService{
		canvas:      canvasAPI,
		mirror:      mirror,
		state:       state,
		denials:     denials,
		index:       index,
		logger:      logger,
		clock:       clock,
		canvasURL:   cfg.CanvasURL,
		rootDir:     cfg.RootDir,
		uploadDelay: cfg.UploadDelay,
	}
}

// SyncOptions selects the scope of one run.
type SyncOptions struct {
	// CourseID restricts the run to a single course when non-zero.
	CourseID int64
	// SkipUpload stops after materialization and report writing.
	SkipUpload bool
	// UploadOnly skips the crawl and materialization, reconciling the
	// local mirror's current contents instead.
	UploadOnly bool
}

// Operation names the run mode for reports and history rows.
func (o SyncOptions) Operation() string {
	switch {
	case o.UploadOnly:
		return "upload-only"
	case o.SkipUpload:
		return "download-only"
	default:
		return "sync"
	}
}

// Sync performs one full run: crawl, materialize, reconcile, upload,
// persist state, and summarize. Item-level failures are recorded and
// swallowed; only configuration-level problems and state persistence
// failures abort the run.
func (s *SyncService) Sync(ctx context.Context, opts SyncOptions) (*model.Report, error) {
	start := s.clock.Now()
	if err := s.state.Load(); err != nil {
		return nil, fmt.Errorf("loading index state: %w", err)
	}
	if err := s.denials.Load(); err != nil {
		return nil, fmt.Errorf("loading inaccessible records: %w", err)
	}

	courses, err := s.selectCourses(ctx, opts.CourseID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sync started", "operation", opts.Operation(), "courses", len(courses))

	stats := &model.RunStats{}
	var locs []content.Location
	if opts.UploadOnly {
		locs = s.localLocations(ctx, courses, stats)
	} else {
		for _, course := range courses {
			courseLocs, denied := s.walkCourse(ctx, course, stats)
			if denied {
				stats.CoursesDenied++
			}
			for _, loc := range courseLocs {
				s.materialize(ctx, loc, stats)
			}
			locs = append(locs, courseLocs...)
			stats.CoursesProcessed++
			s.logger.Info("course processed", "course", courseName(course), "locations", len(courseLocs))
		}
	}

	rec := Reconcile(locs, s.state.SubmittedKeys(), s.denials.Keys())
	switch {
	case opts.SkipUpload:
		s.logger.Info("upload skipped", "missing", len(rec.Missing))
	case s.index == nil:
		s.logger.Warn("no index service configured, skipping upload", "missing", len(rec.Missing))
	default:
		s.uploadMissing(ctx, rec, stats)
	}

	if err := s.state.MergeAndSave(); err != nil {
		return nil, fmt.Errorf("saving index state: %w", err)
	}
	if err := s.denials.Save(); err != nil {
		return nil, fmt.Errorf("saving inaccessible records: %w", err)
	}

	report := &model.Report{
		GeneratedAt:     start,
		CanvasURL:       s.canvasURL,
		RootDir:         s.rootDir,
		Operation:       opts.Operation(),
		DurationSeconds: s.clock.Now().Sub(start).Seconds(),
		Stats:           *stats,
	}
	s.logger.Info("sync finished",
		"downloaded", stats.Downloaded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"inaccessible", stats.Inaccessible,
		"uploaded", stats.Uploaded,
		"upload_failed", stats.UploadFailed,
		"bytes", stats.BytesDownloaded)
	return report, nil
}

// Check computes the read-only reconciliation report: a fresh crawl
// diffed against persisted index state, with no materialization and no
// uploads.
func (s *SyncService) Check(ctx context.Context) (*model.StatusReport, error) {
	if err := s.state.Load(); err != nil {
		return nil, fmt.Errorf("loading index state: %w", err)
	}
	if err := s.denials.Load(); err != nil {
		return nil, fmt.Errorf("loading inaccessible records: %w", err)
	}

	stats := &model.RunStats{} // error records are logged, not persisted, on a read-only check
	var locs []content.Location
	for _, course := range s.canvas.Courses(ctx) {
		courseLocs, _ := s.walkCourse(ctx, course, stats)
		locs = append(locs, courseLocs...)
	}

	rec := Reconcile(locs, s.state.SubmittedKeys(), s.denials.Keys())
	report := &model.StatusReport{
		Status:            rec.Status(),
		CanvasFilesTotal:  len(locs),
		IndexedFilesTotal: rec.IndexedCount,
		MissingFilesCount: len(rec.Missing),
		MissingByCourse:   make(map[string]int),
		SampleOfMissing:   make([]string, 0, sampleLimit),
	}
	for _, key := range rec.Missing {
		report.MissingByCourse[rec.Remote[key].CourseName]++
		if len(report.SampleOfMissing) < sampleLimit {
			report.SampleOfMissing = append(report.SampleOfMissing, key.RelPath)
		}
	}
	return report, nil
}

// sampleLimit caps the missing-file sample in status reports.
const sampleLimit = 10

// Courses returns the active course listing, for display surfaces.
func (s *SyncService) Courses(ctx context.Context) []canvas.Course {
	return s.canvas.Courses(ctx)
}

// selectCourses returns the courses in scope for this run.
func (s *SyncService) selectCourses(ctx context.Context, courseID int64) ([]canvas.Course, error) {
	courses := s.canvas.Courses(ctx)
	if courseID == 0 {
		return courses, nil
	}
	for _, course := range courses {
		if course.ID == courseID {
			return []canvas.Course{course}, nil
		}
	}
	return nil, fmt.Errorf("course %d not found among %d active courses", courseID, len(courses))
}

// localLocations enumerates the mirror's current artifacts per course,
// standing in for a crawl in upload-only runs.
func (s *SyncService) localLocations(ctx context.Context, courses []canvas.Course, stats *model.RunStats) []content.Location {
	var locs []content.Location
	for _, course := range courses {
		name := courseName(course)
		folder := content.CourseFolder(course.Code, name)
		entries, err := s.mirror.List(ctx, folder)
		if err != nil {
			addError(stats, name, "", fmt.Errorf("listing local mirror: %w", err))
			continue
		}
		for _, entry := range entries {
			locs = append(locs, content.Location{
				Kind:         content.KindFile,
				CourseID:     course.ID,
				CourseName:   name,
				CourseFolder: folder,
				Name:         baseName(entry.RelPath),
				Size:         entry.Size,
				RelPath:      entry.RelPath,
			})
		}
		stats.CoursesProcessed++
	}
	return locs
}

// courseName returns the display name, falling back to the id.
func courseName(course canvas.Course) string {
	if course.Name != "" {
		return course.Name
	}
	return fmt.Sprintf("Course_%d", course.ID)
}

// addError appends one non-fatal failure to the run's error list.
func addError(stats *model.RunStats, course, file string, err error) {
	stats.Errors = append(stats.Errors, model.RunError{Course: course, File: file, Error: err.Error()})
}
