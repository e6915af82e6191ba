// Package registry owns the set of in-flight search jobs and
// supervises one worker execution per job.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/fairdice/seedsearch/internal/progress"
	"github.com/fairdice/seedsearch/internal/search"
	"github.com/fairdice/seedsearch/internal/worker"
)

// Registry errors surfaced to the boundary adapter.
var (
	// ErrNotFound reports an operation referencing an unknown job id.
	ErrNotFound = errors.New("job not found")
	// ErrTooManyJobs reports that the concurrent-job admission cap is
	// reached; the job was not created.
	ErrTooManyJobs = errors.New("too many concurrent jobs")
	// ErrClosed reports job creation after shutdown began.
	ErrClosed = errors.New("registry is closed")
)

// IDGenerator allocates unique job identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Config controls Registry behavior.
type Config struct {
	// MaxConcurrentJobs caps in-flight searches; creation beyond the
	// cap is rejected rather than queued so callers learn immediately
	// that the search did not start.
	MaxConcurrentJobs int
	// Worker configures the per-job execution loop.
	Worker worker.Config
}

const defaultMaxConcurrentJobs = 64

// Registry is the concurrency-safe job table and supervisor. It is the
// sole writer of job ids and registry membership; workers write their
// own job's progressive fields through the job's mutex.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*search.Job
	closed bool

	idGen   IDGenerator
	clock   search.Clock
	wrk     *worker.Worker
	emitter progress.Emitter
	logger  *zap.Logger
	sem     *semaphore.Weighted
	cfg     Config

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a Registry. Worker executions are bound to the
// registry's lifetime and interrupted by Close.
func New(idGen IDGenerator, clock search.Clock, emitter progress.Emitter, logger *zap.Logger, cfg Config) *Registry {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		jobs:    make(map[string]*search.Job),
		idGen:   idGen,
		clock:   clock,
		wrk:     worker.New(clock, emitter, logger.Named("worker"), cfg.Worker),
		emitter: emitter,
		logger:  logger,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs)),
		cfg:     cfg,
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Create allocates a fresh job, stores it queued, and launches exactly
// one worker execution bound to it. It returns immediately; progress
// is observed via Snapshot. skippedEntries carries the reader's count
// of unreadable archive entries for telemetry. Params pass through
// unchanged: a rate cap of zero or less runs the search unthrottled.
func (r *Registry) Create(candidates []string, skippedEntries int, params search.Params) (string, error) {
	if !r.sem.TryAcquire(1) {
		return "", ErrTooManyJobs
	}
	id, err := r.idGen.NewID()
	if err != nil {
		r.sem.Release(1)
		return "", fmt.Errorf("allocate job id: %w", err)
	}
	job := search.NewJob(id, len(candidates))

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.sem.Release(1)
		return "", ErrClosed
	}
	r.jobs[id] = job
	r.wg.Add(1)
	r.mu.Unlock()

	r.emitter.Emit(progress.Event{
		JobID:   id,
		TS:      r.clock.Now(),
		Stage:   progress.StageCreated,
		Total:   len(candidates),
		Skipped: skippedEntries,
	})
	r.logger.Info("job created",
		zap.String("job_id", id),
		zap.Int("total", len(candidates)),
		zap.Int("skipped_entries", skippedEntries),
		zap.Int("max_rate_per_minute", params.MaxRatePerMinute),
	)

	go func() {
		defer r.wg.Done()
		defer r.sem.Release(1)
		r.wrk.Run(r.baseCtx, job, candidates, params)
	}()
	return id, nil
}

// Snapshot returns a consistent copy of the job's observable fields.
func (r *Registry) Snapshot(jobID string) (search.Snapshot, error) {
	job, err := r.lookup(jobID)
	if err != nil {
		return search.Snapshot{}, err
	}
	return job.Snapshot(), nil
}

// Pause sets the pause flag and moves a running job to paused.
// Terminal jobs are acknowledged without a transition.
func (r *Registry) Pause(jobID string) error {
	job, err := r.lookup(jobID)
	if err != nil {
		return err
	}
	job.Update(func(j *search.Job) {
		j.PauseRequested = true
		if j.Status == search.StatusRunning {
			j.Status = search.StatusPaused
		}
	})
	r.emitter.Emit(progress.Event{
		JobID: jobID,
		TS:    r.clock.Now(),
		Stage: progress.StagePaused,
	})
	return nil
}

// Resume clears the pause flag, moves a non-terminal job back to
// running, and wakes the suspended worker.
func (r *Registry) Resume(jobID string) error {
	job, err := r.lookup(jobID)
	if err != nil {
		return err
	}
	job.Update(func(j *search.Job) {
		j.PauseRequested = false
		if !j.Status.Terminal() {
			j.Status = search.StatusRunning
		}
	})
	job.WakeWorker()
	r.emitter.Emit(progress.Event{
		JobID: jobID,
		TS:    r.clock.Now(),
		Stage: progress.StageResumed,
	})
	return nil
}

// Close interrupts all worker executions and waits for them to exit,
// bounded by ctx. Idempotent; Create fails with ErrClosed afterwards.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("registry drain: %w", ctx.Err())
	}
}

func (r *Registry) lookup(jobID string) (*search.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}
