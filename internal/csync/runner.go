package csync

import (
	"context"
	"errors"
	"sync"
	"time"

	"csync-go/internal/model"
)

// ErrSyncRunning rejects a trigger while another run is in flight.
var ErrSyncRunning = errors.New("a sync run is already in progress")

// RunResult is the outcome of the most recent background run.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Report     *model.Report
	Err        error
}

// RunnerStatus is a point-in-time snapshot of the runner.
type RunnerStatus struct {
	Running   bool
	StartedAt time.Time
	Last      *RunResult
}

// Runner serializes background sync runs. At most one run is in
// flight at any time; all flag transitions happen under the mutex.
type Runner struct {
	logger Logger
	clock  Clock

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	last      *RunResult
}

func NewRunner(logger Logger, clock Clock) *Runner {
	return &Runner{logger: logger, clock: clock}
}

// TryStart launches fn on a fresh background context, or reports
// ErrSyncRunning without side effects when a run is already active.
// The run outlives the caller; triggering surfaces poll Status.
func (r *Runner) TryStart(fn func(ctx context.Context) (*model.Report, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrSyncRunning
	}
	r.running = true
	r.startedAt = r.clock.Now()
	go r.run(fn)
	return nil
}

func (r *Runner) run(fn func(ctx context.Context) (*model.Report, error)) {
	report, err := fn(context.Background())
	if err != nil {
		r.logger.Error("background run failed", "error", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.last = &RunResult{
		StartedAt:  r.startedAt,
		FinishedAt: r.clock.Now(),
		Report:     report,
		Err:        err,
	}
}

// Status reports whether a run is active and the last completed result.
func (r *Runner) Status() RunnerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunnerStatus{Running: r.running, StartedAt: r.startedAt, Last: r.last}
}
