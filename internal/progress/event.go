// Package progress defines the telemetry event stream emitted by the
// job registry and search workers.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the lifecycle milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageCreated   Stage = "JOB_CREATED"
	StageStarted   Stage = "JOB_STARTED"
	StagePaused    Stage = "JOB_PAUSED"
	StageResumed   Stage = "JOB_RESUMED"
	StageHeartbeat Stage = "JOB_HEARTBEAT"
	StageCompleted Stage = "JOB_COMPLETED"
	StageNoMatch   Stage = "JOB_NO_MATCH"
)

// Terminal reports whether the stage ends a job's event stream.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageNoMatch
}

// Event captures a single milestone of search progress.
type Event struct {
	// JobID identifies the job the event belongs to.
	JobID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Processed and Total carry candidate counters at emit time.
	Processed int
	Total     int
	// Skipped counts archive entries dropped while reading the source.
	Skipped int
	// Speed is the candidates-per-minute rate at emit time.
	Speed float64
	// Outcome carries the derived roll on completion events.
	Outcome float64
	// Dur captures wall time for terminal events.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == "" {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageCreated, StageStarted, StagePaused, StageResumed,
		StageHeartbeat, StageCompleted, StageNoMatch:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Processed < 0 || e.Total < 0 {
		return errors.New("counters must be >= 0")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
