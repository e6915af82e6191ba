// Package sinks provides progress.Sink implementations backed by zap
// and Prometheus.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/fairdice/seedsearch/internal/progress"
)

// LogSink emits structured logs for the progress stream. Heartbeats
// log at Debug so steady-state output stays quiet; lifecycle
// transitions log at Info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("job_id", evt.JobID),
			zap.String("stage", string(evt.Stage)),
			zap.Int("processed", evt.Processed),
			zap.Int("total", evt.Total),
			zap.Float64("speed", evt.Speed),
		}
		if evt.Skipped > 0 {
			fields = append(fields, zap.Int("skipped_entries", evt.Skipped))
		}
		if evt.Stage == progress.StageCompleted {
			fields = append(fields, zap.Float64("roll", evt.Outcome))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		if evt.Stage == progress.StageHeartbeat {
			s.logger.Debug("search progress", fields...)
			continue
		}
		s.logger.Info("search progress", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
