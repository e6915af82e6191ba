package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fairdice/seedsearch/internal/progress"
)

// PrometheusSink exports search progress metrics. It owns all
// collectors for jobs started/completed/running and candidate
// throughput counters.
type PrometheusSink struct {
	jobsStarted    prometheus.Counter
	jobsCompleted  *prometheus.CounterVec
	jobsRunning    prometheus.Gauge
	jobRuntime     *prometheus.HistogramVec
	candidates     prometheus.Counter
	skippedEntries prometheus.Counter

	tracker *jobTracker
}

// NewPrometheusSink registers the collectors against the provided
// registry, or the default registerer when nil.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seedsearch_jobs_started_total",
			Help: "Total search jobs that have started iterating.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seedsearch_jobs_completed_total",
			Help: "Total search jobs finished, partitioned by result.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "seedsearch_jobs_running",
			Help: "Current number of running search jobs.",
		}),
		jobRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seedsearch_job_runtime_seconds",
			Help:    "Wall time per finished search job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"result"}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seedsearch_candidates_processed_total",
			Help: "Candidates hashed across all jobs.",
		}),
		skippedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seedsearch_source_entries_skipped_total",
			Help: "Unreadable archive entries skipped while ingesting sources.",
		}),
		tracker: newJobTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsStarted,
		s.jobsCompleted,
		s.jobsRunning,
		s.jobRuntime,
		s.candidates,
		s.skippedEntries,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent
// use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageCreated:
		if evt.Skipped > 0 {
			s.skippedEntries.Add(float64(evt.Skipped))
		}
	case progress.StageStarted:
		s.jobsStarted.Inc()
		if s.tracker.start(evt.JobID) {
			s.jobsRunning.Inc()
		}
	case progress.StageHeartbeat:
		if delta := s.tracker.advance(evt.JobID, evt.Processed); delta > 0 {
			s.candidates.Add(float64(delta))
		}
	case progress.StageCompleted:
		s.finish(evt, "match")
	case progress.StageNoMatch:
		s.finish(evt, "no_match")
	}
}

func (s *PrometheusSink) finish(evt progress.Event, result string) {
	s.jobsCompleted.WithLabelValues(result).Inc()
	if evt.Dur > 0 {
		s.jobRuntime.WithLabelValues(result).Observe(evt.Dur.Seconds())
	}
	if delta := s.tracker.advance(evt.JobID, evt.Processed); delta > 0 {
		s.candidates.Add(float64(delta))
	}
	if s.tracker.complete(evt.JobID) {
		s.jobsRunning.Dec()
	}
}

// Close implements the Sink interface; collectors stay registered.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// jobTracker deduplicates start/complete transitions and tracks the
// last observed processed count per job so counter deltas stay
// monotonic even when heartbeats arrive out of batch order.
type jobTracker struct {
	mu      sync.Mutex
	running map[string]int
}

func newJobTracker() *jobTracker {
	return &jobTracker{running: make(map[string]int)}
}

func (t *jobTracker) start(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[jobID]; ok {
		return false
	}
	t.running[jobID] = 0
	return true
}

func (t *jobTracker) advance(jobID string, processed int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.running[jobID]
	if !ok || processed <= last {
		return 0
	}
	t.running[jobID] = processed
	return processed - last
}

func (t *jobTracker) complete(jobID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[jobID]; !ok {
		return false
	}
	delete(t.running, jobID)
	return true
}
