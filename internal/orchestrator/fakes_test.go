package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/events"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/generator"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
)

// fakeCI answers triggers from a script; the last entry repeats.
type fakeCI struct {
	mu        sync.Mutex
	triggers  []error
	location  string
	createErr error
	calls     []string
	created   []jenkins.JobDescriptor
	jobs      []string
	endpoint  jenkins.Endpoint
	params    jenkins.BuildParameters
}

func (f *fakeCI) TriggerBuild(_ context.Context, ep jenkins.Endpoint, job string, params jenkins.BuildParameters) (*jenkins.TriggerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "trigger")
	f.jobs = append(f.jobs, job)
	f.endpoint = ep
	f.params = params
	var err error
	if len(f.triggers) > 0 {
		err = f.triggers[0]
		if len(f.triggers) > 1 {
			f.triggers = f.triggers[1:]
		}
	}
	if err != nil {
		return nil, err
	}
	return &jenkins.TriggerResult{QueueLocation: f.location}, nil
}

func (f *fakeCI) CreateJob(_ context.Context, _ jenkins.Endpoint, desc jenkins.JobDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	f.created = append(f.created, desc)
	return f.createErr
}

func (f *fakeCI) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == kind {
			n++
		}
	}
	return n
}

type fakeGen struct {
	mu       sync.Mutex
	output   string
	err      error
	calls    int
	requests []generator.DefinitionRequest
	hook     func()
}

func (f *fakeGen) Generate(_ context.Context, req generator.DefinitionRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.output, f.err
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.OutcomeEvent
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, ev events.OutcomeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return c.err
}

func (c *capturePublisher) Close() error { return nil }

type countingRecorder struct {
	metrics.NoopRecorder
	mu           sync.Mutex
	outcomes     map[string]int
	provisioning map[metrics.ResultLabel]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, provisioning: map[metrics.ResultLabel]int{}}
}

func (r *countingRecorder) IncSubmitOutcome(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o]++
}

func (r *countingRecorder) IncProvisioning(res metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provisioning[res]++
}

func (r *countingRecorder) ObserveSubmitDuration(time.Duration) {}

func notFound() error {
	return errors.NotFoundError("CI server responded 404 Not Found").
		WithContext("code", 404).
		WithContext("status", "404 Not Found").
		Build()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validDefinition = `<flow-definition plugin="workflow-job"><definition/></flow-definition>`

func validRequest(job string) BuildRequest {
	return BuildRequest{
		ServerAddress: "http://ci",
		Username:      "alice",
		Token:         "t0ken",
		JobName:       job,
		SourceCode:    "module.exports = 1",
		TestCode:      "test('one', () => {})",
	}
}

func newTestOrchestrator(ci CIClient, gen generator.Generator, opts ...Option) *Orchestrator {
	base := []Option{WithLogger(discardLogger())}
	return New(ci, gen, Config{}, append(base, opts...)...)
}
