// Package worker implements the candidate search execution loop.
package worker

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fairdice/seedsearch/internal/hash/fairhash"
	"github.com/fairdice/seedsearch/internal/progress"
	"github.com/fairdice/seedsearch/internal/search"
)

// Config controls Worker behavior.
type Config struct {
	// PausePoll bounds how long a suspended worker waits before
	// re-checking the pause flag. Resume wakes it earlier.
	PausePoll time.Duration
	// HeartbeatEvery sets the candidate stride between progress
	// heartbeat events.
	HeartbeatEvery int
}

const (
	defaultPausePoll      = 250 * time.Millisecond
	defaultHeartbeatEvery = 500
)

// Worker iterates a candidate list against a target digest, updating
// the job's telemetry as it goes. One Run per job; progress is
// observed through job snapshots, not return values.
type Worker struct {
	clock   search.Clock
	emitter progress.Emitter
	logger  *zap.Logger
	cfg     Config
}

// New constructs a Worker.
func New(clock search.Clock, emitter progress.Emitter, logger *zap.Logger, cfg Config) *Worker {
	if emitter == nil {
		emitter = progress.NopEmitter{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PausePoll <= 0 {
		cfg.PausePoll = defaultPausePoll
	}
	if cfg.HeartbeatEvery <= 0 {
		cfg.HeartbeatEvery = defaultHeartbeatEvery
	}
	return &Worker{clock: clock, emitter: emitter, logger: logger, cfg: cfg}
}

// Run executes the search to a terminal status, or returns early when
// ctx is canceled (registry shutdown), leaving the job as-is.
func (w *Worker) Run(ctx context.Context, job *search.Job, candidates []string, params search.Params) {
	start := w.clock.Now()
	job.Update(func(j *search.Job) {
		j.StartedAt = &start
		if j.Status == search.StatusQueued && !j.PauseRequested {
			j.Status = search.StatusRunning
		}
	})
	w.emit(job, progress.StageStarted, 0)
	w.logger.Debug("search started",
		zap.String("job_id", job.ID),
		zap.Int("total", len(candidates)),
		zap.Int("max_rate_per_minute", params.MaxRatePerMinute),
	)

	total := len(candidates)
	var throttle time.Duration
	if params.MaxRatePerMinute > 0 {
		throttle = time.Duration(float64(time.Minute) / float64(params.MaxRatePerMinute))
	}

	for idx, candidate := range candidates {
		if !w.waitWhilePaused(ctx, job) {
			return
		}

		matched := strings.EqualFold(fairhash.Digest(candidate), params.TargetDigest)

		processed := idx + 1
		elapsed := w.clock.Now().Sub(start).Seconds()
		speed := 0.0
		if elapsed > 0 {
			speed = float64(processed) / elapsed * 60.0
		}
		job.Update(func(j *search.Job) {
			j.Processed = processed
			j.SpeedPerMinute = speed
			if speed > 0 {
				eta := int64(float64(total-processed) / speed * 60.0)
				j.ETASeconds = &eta
			} else {
				j.ETASeconds = nil
			}
		})

		if matched {
			w.finishMatch(job, candidate, params, start)
			return
		}

		if processed%w.cfg.HeartbeatEvery == 0 {
			w.emit(job, progress.StageHeartbeat, 0)
		}

		if throttle > 0 && !w.sleep(ctx, throttle) {
			return
		}
	}

	zero := int64(0)
	job.Update(func(j *search.Job) {
		j.Status = search.StatusFinishedNoHit
		j.Match = nil
		j.Outcome = nil
		j.ETASeconds = &zero
	})
	w.emit(job, progress.StageNoMatch, w.clock.Now().Sub(start))
	w.logger.Info("search exhausted without match",
		zap.String("job_id", job.ID),
		zap.Int("processed", total),
	)
}

func (w *Worker) finishMatch(job *search.Job, candidate string, params search.Params, start time.Time) {
	outcome := fairhash.Outcome(candidate, params.ClientSeed, params.Nonce)
	job.Update(func(j *search.Job) {
		match := candidate
		roll := outcome
		j.Match = &match
		j.Outcome = &roll
		j.Status = search.StatusCompleted
	})
	w.emit(job, progress.StageCompleted, w.clock.Now().Sub(start))
	w.logger.Info("pre-image found",
		zap.String("job_id", job.ID),
		zap.Float64("roll", outcome),
	)
}

// waitWhilePaused suspends progress while the pause flag is set. The
// wait is bounded: a resume signal, the poll interval, or context
// cancellation all wake it. Returns false when ctx ended.
func (w *Worker) waitWhilePaused(ctx context.Context, job *search.Job) bool {
	for job.Paused() {
		timer := time.NewTimer(w.cfg.PausePoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-job.ResumeCh():
			timer.Stop()
		case <-timer.C:
		}
	}
	return ctx.Err() == nil
}

// sleep enforces the fixed inter-candidate throttle delay. The delay
// does not account for time already spent hashing: the cap is a
// ceiling, not a throughput guarantee.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) emit(job *search.Job, stage progress.Stage, dur time.Duration) {
	snap := job.Snapshot()
	evt := progress.Event{
		JobID:     job.ID,
		TS:        w.clock.Now(),
		Stage:     stage,
		Processed: snap.Processed,
		Total:     snap.Total,
		Speed:     snap.SpeedPerMinute,
		Dur:       dur,
	}
	if snap.Outcome != nil {
		evt.Outcome = *snap.Outcome
	}
	w.emitter.Emit(evt)
}
