package csync

import (
	"context"
	"fmt"
	"path"

	"csync-go/internal/canvas"
	"csync-go/internal/content"
	"csync-go/internal/model"
)

// walkCourse discovers every content location in one course: the
// module hierarchy first, then the top-level Files area. denied
// reports a course-level permission denial on the Files area; module
// content discovered before the denial is kept.
func (s *SyncService) walkCourse(ctx context.Context, course canvas.Course, stats *model.RunStats) (locs []content.Location, denied bool) {
	name := courseName(course)
	folder := content.CourseFolder(course.Code, name)

	for _, mod := range s.canvas.Modules(ctx, course.ID) {
		moduleName := mod.Name
		if moduleName == "" {
			moduleName = fmt.Sprintf("Module_%d", mod.ID)
		}
		moduleFolder := content.SanitizeName(moduleName)

		items := mod.Items
		if items == nil {
			items = s.canvas.ModuleItems(ctx, course.ID, mod.ID)
		}
		for _, item := range items {
			locs = append(locs, s.walkItem(ctx, course, folder, moduleFolder, item, stats)...)
		}
	}

	files, err := s.canvas.CourseFiles(ctx, course.ID)
	if err != nil {
		if canvas.IsForbidden(err) {
			s.logger.Warn("course files area denied, keeping module content", "course", name)
			return locs, true
		}
		addError(stats, name, "", fmt.Errorf("listing course files: %w", err))
		return locs, false
	}
	for _, f := range files {
		fileName := content.SanitizeName(f.Name())
		locs = append(locs, content.Location{
			Kind:         content.KindFile,
			CourseID:     course.ID,
			CourseName:   name,
			CourseFolder: folder,
			RemoteID:     f.ID,
			Name:         fileName,
			DownloadURL:  f.URL,
			Size:         f.Size,
			RelPath:      content.FilesAreaPath(folder, fileName),
		})
	}
	return locs, false
}

// walkItem expands one module item into its content locations
// according to its declared type. Unknown types are ignored.
func (s *SyncService) walkItem(ctx context.Context, course canvas.Course, folder, moduleFolder string, item canvas.ModuleItem, stats *model.RunStats) []content.Location {
	name := courseName(course)
	title := item.Title
	if title == "" {
		title = "unnamed"
	}

	switch item.Type {
	case canvas.ItemTypeFile:
		f, err := s.canvas.File(ctx, item.ContentID)
		if err != nil {
			addError(stats, name, title, fmt.Errorf("resolving file metadata: %w", err))
			return nil
		}
		return []content.Location{s.moduleFile(course, folder, moduleFolder, content.KindFile, f)}

	case canvas.ItemTypePage:
		p, err := s.canvas.Page(ctx, course.ID, item.PageURL)
		if err != nil {
			addError(stats, name, title, fmt.Errorf("fetching page: %w", err))
			return nil
		}
		var locs []content.Location
		if p.Body != "" {
			docName := content.PageDocName(title)
			locs = append(locs, content.Location{
				Kind:         content.KindPage,
				CourseID:     course.ID,
				CourseName:   name,
				CourseFolder: folder,
				Module:       moduleFolder,
				RemoteID:     p.PageID,
				Name:         docName,
				Size:         int64(len(p.Body)),
				Body:         p.Body,
				RelPath:      content.ModulePath(folder, moduleFolder, docName),
			})
		}
		return append(locs, s.embeddedLocations(ctx, course, folder, moduleFolder, p.Body, stats)...)

	case canvas.ItemTypeAssignment:
		a, err := s.canvas.Assignment(ctx, course.ID, item.ContentID)
		if err != nil {
			addError(stats, name, title, fmt.Errorf("fetching assignment: %w", err))
			return nil
		}
		var locs []content.Location
		if a.Description != "" {
			docName := content.AssignmentDocName(title)
			locs = append(locs, content.Location{
				Kind:         content.KindAssignment,
				CourseID:     course.ID,
				CourseName:   name,
				CourseFolder: folder,
				Module:       moduleFolder,
				RemoteID:     a.ID,
				Name:         docName,
				Size:         int64(len(a.Description)),
				Body:         a.Description,
				RelPath:      content.ModulePath(folder, moduleFolder, docName),
			})
		}
		for _, att := range a.Attachments {
			locs = append(locs, s.moduleFile(course, folder, moduleFolder, content.KindFile, &att))
		}
		return append(locs, s.embeddedLocations(ctx, course, folder, moduleFolder, a.Description, stats)...)
	}
	return nil
}

// embeddedLocations resolves /files/{id} references found in a rendered
// body into locations alongside the document that references them.
func (s *SyncService) embeddedLocations(ctx context.Context, course canvas.Course, folder, moduleFolder, body string, stats *model.RunStats) []content.Location {
	var locs []content.Location
	for _, id := range content.ExtractFileRefs(body) {
		f, err := s.canvas.File(ctx, id)
		if err != nil {
			addError(stats, courseName(course), fmt.Sprintf("file %d", id), fmt.Errorf("resolving embedded file: %w", err))
			continue
		}
		locs = append(locs, s.moduleFile(course, folder, moduleFolder, content.KindEmbeddedFile, f))
	}
	return locs
}

// moduleFile builds a file-backed location under a module directory.
func (s *SyncService) moduleFile(course canvas.Course, folder, moduleFolder string, kind content.Kind, f *canvas.File) content.Location {
	fileName := content.SanitizeName(f.Name())
	return content.Location{
		Kind:         kind,
		CourseID:     course.ID,
		CourseName:   courseName(course),
		CourseFolder: folder,
		Module:       moduleFolder,
		RemoteID:     f.ID,
		Name:         fileName,
		DownloadURL:  f.URL,
		Size:         f.Size,
		RelPath:      content.ModulePath(folder, moduleFolder, fileName),
	}
}

// baseName returns the final segment of a slash-separated path.
func baseName(relPath string) string {
	return path.Base(relPath)
}
