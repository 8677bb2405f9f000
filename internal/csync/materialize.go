package csync

import (
	"context"
	"errors"
	"strings"

	"csync-go/internal/canvas"
	"csync-go/internal/content"
	"csync-go/internal/model"
)

// Outcome classifies one materialization.
type Outcome string

const (
	OutcomeDownloaded     Outcome = "downloaded"
	OutcomeAlreadyPresent Outcome = "already_present"
	OutcomeInaccessible   Outcome = "inaccessible"
	OutcomeFailed         Outcome = "failed"
)

var errNoDownloadURL = errors.New("no download url")

// materialize ensures a local artifact exists for the location. A
// present artifact whose byte length equals the declared size is left
// alone with no network call; size equality is the sole staleness
// signal, so stale artifacts are overwritten and never pruned.
// Failures are recorded on the run and never abort sibling items.
func (s *SyncService) materialize(ctx context.Context, loc content.Location, stats *model.RunStats) Outcome {
	stats.FilesTotal++

	size, ok, err := s.mirror.Size(ctx, loc.RelPath)
	if err != nil {
		s.logger.Warn("artifact stat failed, re-fetching", "path", loc.RelPath, "error", err)
	} else if ok && size == loc.Size {
		stats.Skipped++
		s.logger.Debug("already present", "path", loc.RelPath)
		return OutcomeAlreadyPresent
	}

	if loc.Inline() {
		n, err := s.mirror.Put(ctx, loc.RelPath, strings.NewReader(loc.Body))
		if err != nil {
			return s.failed(loc, err, stats)
		}
		stats.Downloaded++
		stats.BytesDownloaded += n
		s.logger.Debug("document written", "path", loc.RelPath, "bytes", n)
		return OutcomeDownloaded
	}

	if loc.DownloadURL == "" {
		return s.failed(loc, errNoDownloadURL, stats)
	}
	body, err := s.canvas.Download(ctx, loc.DownloadURL)
	if err != nil {
		if canvas.IsForbidden(err) {
			s.denials.Add(model.InaccessibleRecord{
				CourseID: loc.CourseID,
				Course:   loc.CourseName,
				FileName: loc.Name,
				RemoteID: loc.RemoteID,
				Path:     loc.RelPath,
				Reason:   "403 Forbidden",
			})
			stats.Inaccessible++
			s.logger.Warn("file inaccessible", "path", loc.RelPath)
			return OutcomeInaccessible
		}
		return s.failed(loc, err, stats)
	}
	defer body.Close()

	n, err := s.mirror.Put(ctx, loc.RelPath, body)
	if err != nil {
		return s.failed(loc, err, stats)
	}
	stats.Downloaded++
	stats.BytesDownloaded += n
	s.logger.Debug("downloaded", "path", loc.RelPath, "bytes", n)
	return OutcomeDownloaded
}

// failed records a transient failure; the item stays absent locally
// and is reattempted on the next full run.
func (s *SyncService) failed(loc content.Location, err error, stats *model.RunStats) Outcome {
	stats.Failed++
	addError(stats, loc.CourseName, loc.Name, err)
	s.logger.Warn("materialization failed", "path", loc.RelPath, "error", err)
	return OutcomeFailed
}
