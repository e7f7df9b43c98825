package orchestrator

import (
	"context"

	"git.home.luguber.info/inful/autopipe/internal/jenkins"
)

// CIClient is the subset of the CI server binding the orchestrator sequences.
type CIClient interface {
	TriggerBuild(ctx context.Context, ep jenkins.Endpoint, job string, params jenkins.BuildParameters) (*jenkins.TriggerResult, error)
	CreateJob(ctx context.Context, ep jenkins.Endpoint, desc jenkins.JobDescriptor) error
}

// BuildRequest asks for one build of JobName with the given artifacts. JobName and Requirements
// are optional; everything else is mandatory.
type BuildRequest struct {
	ServerAddress string `json:"jenkinsUrl"`
	Username      string `json:"jenkinsUser"`
	Token         string `json:"jenkinsToken"`
	JobName       string `json:"jobName,omitempty"`
	SourceCode    string `json:"sourceCode"`
	TestCode      string `json:"testCode"`
	Requirements  string `json:"customRequirements,omitempty"`
}

// BuildOutcome is the result of a successful submit. It is never modified once returned.
type BuildOutcome struct {
	Succeeded     bool   `json:"succeeded"`
	Message       string `json:"message"`
	QueueLocation string `json:"queueLocation,omitempty"`
	JobName       string `json:"jobName"`
	Provisioned   bool   `json:"provisioned"`
	RequestID     string `json:"requestId"`
}

// Config carries the defaults applied to requests.
type Config struct {
	DefaultJobName      string
	DefaultRequirements string
}

// provisionAttempt is the one-shot permit for automatic job creation within a single submit.
// Each submit owns a fresh value; nothing resets it.
type provisionAttempt struct {
	used bool
}

func (a *provisionAttempt) available() bool { return !a.used }
func (a *provisionAttempt) consume()        { a.used = true }

type requestIDKey struct{}

// ContextWithRequestID attaches a caller-chosen request ID that Submit uses instead of
// generating one.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID attached by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
