package app

import (
	"context"

	"csync-go/internal/csync"
	"csync-go/internal/model"
	"csync-go/internal/state"
)

// RunSync executes one synchronization run. The run is recorded in the
// history database before the engine starts and finalized with its
// outcome; on success the run report is written under the root
// directory. History is best effort: a database failure is logged and
// the sync proceeds without a run record.
func (a *CSyncApp) RunSync(ctx context.Context, opts csync.SyncOptions) (*model.Report, error) {
	run := model.SyncRun{
		ID:        a.idgen.New(),
		Operation: opts.Operation(),
		Status:    model.RunStatusRunning,
		StartedAt: a.clock.Now(),
	}
	recorded := true
	if err := a.db.CreateRun(run); err != nil {
		recorded = false
		a.logger.Error("recording sync run", "run", run.ID, "error", err)
	}
	a.logger.Info("sync run started", "run", run.ID, "operation", run.Operation)

	report, err := a.service.Sync(ctx, opts)

	status := model.RunStatusCompleted
	var stats model.RunStats
	if err != nil {
		status = model.RunStatusFailed
	} else {
		stats = report.Stats
	}
	if recorded {
		if ferr := a.db.FinishRun(run.ID, status, a.clock.Now(), stats); ferr != nil {
			a.logger.Error("finishing run record", "run", run.ID, "error", ferr)
		}
	}
	if err != nil {
		return nil, err
	}

	if werr := state.WriteReport(a.cfg.RootDir, report); werr != nil {
		a.logger.Warn("writing run report", "error", werr)
	}
	return report, nil
}
