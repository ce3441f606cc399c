package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess     ResultLabel = "success"
	ResultFailed      ResultLabel = "failed"
	ResultSkipped     ResultLabel = "skipped"
	ResultInterrupted ResultLabel = "interrupted"
)

// Recorder defines observability hooks for run and stage metrics.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRunDuration(action string, d time.Duration)
	// SetRunOutcome records the final outcome and exit code of the run.
	SetRunOutcome(action, outcome string, exitCode int, at time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)   {}
func (NoopRecorder) IncStageResult(string, ResultLabel)           {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)     {}
func (NoopRecorder) SetRunOutcome(string, string, int, time.Time) {}
