package csync

import (
	"context"
	"fmt"
	"path"

	"csync-go/internal/content"
	"csync-go/internal/model"
)

// storeNameLimit is the remote service's cap on index-store names.
const storeNameLimit = 100

// uploadMissing submits every missing eligible file to its course's
// index store. The index state is mutated in memory only on confirmed
// success; one file's failure never stops the rest of the course, and
// one course's failure never stops other courses.
func (s *SyncService) uploadMissing(ctx context.Context, rec *Reconciliation, stats *model.RunStats) {
	byCourse := make(map[int64][]content.Key)
	var courseOrder []int64
	for _, key := range rec.Missing {
		if _, seen := byCourse[key.CourseID]; !seen {
			courseOrder = append(courseOrder, key.CourseID)
		}
		byCourse[key.CourseID] = append(byCourse[key.CourseID], key)
	}

	for _, courseID := range courseOrder {
		keys := byCourse[courseID]
		name := rec.Remote[keys[0]].CourseName
		folder := rec.Remote[keys[0]].CourseFolder

		storeID := s.state.StoreID(courseID)
		if storeID == "" {
			created, err := s.index.CreateStore(ctx, truncate(folder, storeNameLimit))
			if err != nil {
				addError(stats, name, "", fmt.Errorf("creating index store: %w", err))
				s.logger.Warn("index store creation failed, skipping course", "course", name, "error", err)
				continue
			}
			storeID = created
			s.state.SetStoreID(courseID, name, storeID)
			s.logger.Info("index store created", "course", name, "store_id", storeID)
		}

		for _, key := range keys {
			s.uploadOne(ctx, storeID, rec.Remote[key], stats)
			s.clock.Sleep(s.uploadDelay)
		}
	}
}

// uploadOne pushes a single artifact: upload the document, attach it to
// the store, and record the submission.
func (s *SyncService) uploadOne(ctx context.Context, storeID string, loc content.Location, stats *model.RunStats) {
	src, err := s.mirror.Open(ctx, loc.RelPath)
	if err != nil {
		s.uploadFailed(loc, fmt.Errorf("opening artifact: %w", err), stats)
		return
	}
	defer src.Close()

	documentID, err := s.index.UploadDocument(ctx, path.Base(loc.RelPath), src)
	if err != nil {
		s.uploadFailed(loc, fmt.Errorf("uploading document: %w", err), stats)
		return
	}
	if err := s.index.AttachDocument(ctx, storeID, documentID); err != nil {
		s.uploadFailed(loc, fmt.Errorf("attaching document to store: %w", err), stats)
		return
	}

	s.state.Record(loc.CourseID, loc.CourseName, loc.RelPath, documentID)
	stats.Uploaded++
	s.logger.Debug("uploaded", "path", loc.RelPath, "document_id", documentID)
}

func (s *SyncService) uploadFailed(loc content.Location, err error, stats *model.RunStats) {
	stats.UploadFailed++
	addError(stats, loc.CourseName, loc.Name, err)
	s.logger.Warn("upload failed", "path", loc.RelPath, "error", err)
}

// truncate caps s at limit runes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
