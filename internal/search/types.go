// Package search defines core types shared across subsystems.
package search

import (
	"math"
	"sync"
	"time"
)

// Status represents the lifecycle state of a search job.
type Status string

// Job status values held in the registry.
const (
	StatusQueued        Status = "queued"
	StatusRunning       Status = "running"
	StatusPaused        Status = "paused"
	StatusCompleted     Status = "completed"
	StatusFinishedNoHit Status = "finished_no_match"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFinishedNoHit
}

// Params captures the derivation inputs for a single search.
type Params struct {
	// TargetDigest is the published commitment, a SHA-256 hex string.
	// Comparison against candidate digests is case-insensitive.
	TargetDigest string
	// ClientSeed is mixed into the outcome-derivation message.
	ClientSeed string
	// Nonce is the sequence number mixed into the derivation message.
	Nonce int64
	// MaxRatePerMinute caps candidate throughput; <= 0 disables the
	// throttle entirely. Defaulting for an absent form field happens
	// at the boundary, not here.
	MaxRatePerMinute int
}

// Job is the unit of work and its live state. The registry owns the
// collection of jobs; the worker owns progressive field updates during
// its run. All field access goes through the job's mutex.
type Job struct {
	mu sync.Mutex

	ID             string
	Status         Status
	Processed      int
	Total          int
	SpeedPerMinute float64
	ETASeconds     *int64
	Match          *string
	Outcome        *float64
	StartedAt      *time.Time
	PauseRequested bool

	// resumeCh wakes a suspended worker ahead of its poll interval.
	// Buffered so Resume never blocks.
	resumeCh chan struct{}
}

// NewJob constructs a queued job with the given id and candidate count.
func NewJob(id string, total int) *Job {
	return &Job{
		ID:       id,
		Status:   StatusQueued,
		Total:    total,
		resumeCh: make(chan struct{}, 1),
	}
}

// Update runs fn while holding the job mutex. Worker telemetry writes
// and registry control writes both go through here so observers never
// see a torn update.
func (j *Job) Update(fn func(*Job)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(j)
}

// Paused reports the pause flag under the job mutex.
func (j *Job) Paused() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.PauseRequested
}

// ResumeCh exposes the wake channel for the worker's suspension select.
func (j *Job) ResumeCh() <-chan struct{} {
	return j.resumeCh
}

// WakeWorker signals a suspended worker without blocking. Called by the
// registry's resume operation.
func (j *Job) WakeWorker() {
	select {
	case j.resumeCh <- struct{}{}:
	default:
	}
}

// Snapshot is an immutable, consistent copy of a job's observable
// fields, built under the job mutex.
type Snapshot struct {
	ID             string   `json:"job_id"`
	Processed      int      `json:"processed"`
	Total          int      `json:"total"`
	SpeedPerMinute float64  `json:"speed"`
	ETASeconds     *int64   `json:"eta"`
	Done           bool     `json:"done"`
	Match          *string  `json:"match"`
	Outcome        *float64 `json:"roll"`
	Status         Status   `json:"status"`
}

// Snapshot copies the observable fields. Speed is rounded to two
// decimals for external presentation.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := Snapshot{
		ID:             j.ID,
		Processed:      j.Processed,
		Total:          j.Total,
		SpeedPerMinute: math.Round(j.SpeedPerMinute*100) / 100,
		Done:           j.Status.Terminal(),
		Status:         j.Status,
	}
	if j.ETASeconds != nil {
		eta := *j.ETASeconds
		snap.ETASeconds = &eta
	}
	if j.Match != nil {
		match := *j.Match
		snap.Match = &match
	}
	if j.Outcome != nil {
		outcome := *j.Outcome
		snap.Outcome = &outcome
	}
	return snap
}

// Clock abstracts wall-clock access so speed and ETA math is testable.
type Clock interface {
	Now() time.Time
}
