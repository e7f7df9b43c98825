package metrics

import "time"

// ResultLabel enumerates call result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailure  ResultLabel = "failure"
	ResultRejected ResultLabel = "rejected"
	ResultCanceled ResultLabel = "canceled"
)

// CI client operation names used as label values.
const (
	OperationListJobs     = "list_jobs"
	OperationTriggerBuild = "trigger_build"
	OperationCreateJob    = "create_job"
)

// Recorder defines observability hooks for CI calls, content generation and submits.
type Recorder interface {
	ObserveCIRequest(operation string, result ResultLabel, d time.Duration)
	ObserveGeneration(provider string, result ResultLabel, d time.Duration)
	IncProvisioning(result ResultLabel)
	// IncSubmitOutcome counts finished submits; outcome is "succeeded" or the failure category.
	IncSubmitOutcome(outcome string)
	ObserveSubmitDuration(d time.Duration)
	SetProbeUp(up bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCIRequest(string, ResultLabel, time.Duration)  {}
func (NoopRecorder) ObserveGeneration(string, ResultLabel, time.Duration) {}
func (NoopRecorder) IncProvisioning(ResultLabel)                          {}
func (NoopRecorder) IncSubmitOutcome(string)                              {}
func (NoopRecorder) ObserveSubmitDuration(time.Duration)                  {}
func (NoopRecorder) SetProbeUp(bool)                                      {}
