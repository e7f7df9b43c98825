// Package orchestrator runs the build submit workflow: trigger a job on the CI server and, when
// the job does not exist yet, provision it once from a generated definition and trigger again.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/events"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/generator"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
)

const (
	outcomeSucceeded = "succeeded"
	publishTimeout   = 5 * time.Second
)

// Orchestrator is safe for concurrent use; submits share no mutable state.
type Orchestrator struct {
	ci        CIClient
	gen       generator.Generator
	cfg       Config
	logger    *slog.Logger
	recorder  metrics.Recorder
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.publisher = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDSource replaces the UUID generator used for request and event IDs.
func WithIDSource(next func() string) Option {
	return func(o *Orchestrator) {
		if next != nil {
			o.newID = next
		}
	}
}

// New creates an Orchestrator. Empty defaults in cfg fall back to the built-in ones.
func New(ci CIClient, gen generator.Generator, cfg Config, opts ...Option) *Orchestrator {
	if cfg.DefaultJobName == "" {
		cfg.DefaultJobName = config.DefaultJobName
	}
	if cfg.DefaultRequirements == "" {
		cfg.DefaultRequirements = config.DefaultRequirements
	}
	o := &Orchestrator{
		ci:        ci,
		gen:       gen,
		cfg:       cfg,
		logger:    slog.Default(),
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit triggers the requested build, provisioning the job at most once if the CI server
// reports it absent. It returns either an outcome or a classified error, never both.
func (o *Orchestrator) Submit(ctx context.Context, req BuildRequest) (*BuildOutcome, error) {
	start := o.now()
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = o.newID()
	}
	log := o.logger.With(logfields.RequestID(requestID))

	outcome, provisioned, err := o.run(ctx, log, req)
	if outcome != nil {
		outcome.RequestID = requestID
	}
	o.finish(ctx, log, req, requestID, start, outcome, provisioned, err)
	return outcome, err
}

func (o *Orchestrator) run(ctx context.Context, log *slog.Logger, req BuildRequest) (*BuildOutcome, bool, error) {
	in, err := o.validate(req)
	if err != nil {
		return nil, false, err
	}
	log = log.With(logfields.JobName(in.job), logfields.Server(in.endpoint.Address))

	attempt := &provisionAttempt{}
	for {
		if err := canceled(ctx, in.job); err != nil {
			return nil, !attempt.available(), err
		}
		res, err := o.ci.TriggerBuild(ctx, in.endpoint, in.job, in.params)
		if err == nil {
			return &BuildOutcome{
				Succeeded:     true,
				Message:       "Build triggered for " + in.job,
				QueueLocation: res.QueueLocation,
				JobName:       in.job,
				Provisioned:   !attempt.available(),
			}, !attempt.available(), nil
		}
		if !errors.HasCategory(err, errors.CategoryNotFound) {
			return nil, !attempt.available(), err
		}
		if !attempt.available() {
			return nil, true, errors.ProvisioningError(fmt.Sprintf("job '%s' still absent after provisioning", in.job)).
				WithCause(err).
				WithContextMap(statusContext(err)).
				WithContext("job_name", in.job).
				Build()
		}

		log.Info("Job not found; provisioning")
		if err := o.provision(ctx, log, in); err != nil {
			o.recorder.IncProvisioning(metrics.ResultFailure)
			return nil, false, err
		}
		o.recorder.IncProvisioning(metrics.ResultSuccess)
		attempt.consume()
		log.Info("Job provisioned; triggering again")
	}
}

// provision generates a definition and creates the job. It never touches the trigger path.
func (o *Orchestrator) provision(ctx context.Context, log *slog.Logger, in normalized) error {
	if err := canceled(ctx, in.job); err != nil {
		return err
	}
	raw, err := o.gen.Generate(ctx, generator.DefinitionRequest{
		JobName:      in.job,
		SourceCode:   in.params.SourceCode,
		TestCode:     in.params.TestCode,
		Requirements: in.requirements,
	})
	if err != nil {
		if cerr := canceled(ctx, in.job); cerr != nil {
			return cerr
		}
		return errors.ProvisioningError(fmt.Sprintf("Failed to generate a job definition for '%s'.", in.job)).
			WithCause(err).
			WithContext("job_name", in.job).
			WithContext("stage", "generate").
			Build()
	}
	definition := generator.CleanOutput(raw)
	if definition == "" {
		return errors.ProvisioningError(fmt.Sprintf("Generated job definition for '%s' was empty.", in.job)).
			WithContext("job_name", in.job).
			WithContext("stage", "generate").
			Build()
	}
	log.Debug("Generated job definition", slog.Int("bytes", len(definition)))

	if err := canceled(ctx, in.job); err != nil {
		return err
	}
	if err := o.ci.CreateJob(ctx, in.endpoint, jenkins.JobDescriptor{Name: in.job, Definition: definition}); err != nil {
		if cerr := canceled(ctx, in.job); cerr != nil {
			return cerr
		}
		return errors.ProvisioningError(fmt.Sprintf("Failed to create pipeline for '%s'. The generated definition was likely invalid.", in.job)).
			WithCause(err).
			WithContextMap(statusContext(err)).
			WithContext("job_name", in.job).
			WithContext("stage", "create").
			Build()
	}
	return nil
}

// canceled reports a done context as a connectivity failure.
func canceled(ctx context.Context, job string) error {
	if err := ctx.Err(); err != nil {
		return errors.NetworkError("request canceled").
			WithCause(err).
			WithContext("job_name", job).
			Build()
	}
	return nil
}

// statusContext copies the HTTP status details of a CI failure.
func statusContext(err error) errors.ErrorContext {
	out := errors.ErrorContext{}
	ce, ok := errors.AsClassified(err)
	if !ok {
		return out
	}
	for _, key := range []string{"status", "code", "detail"} {
		if v, ok := ce.Context().Get(key); ok {
			out[key] = v
		}
	}
	return out
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, req BuildRequest, requestID string, start time.Time, outcome *BuildOutcome, provisioned bool, err error) {
	elapsed := o.now().Sub(start)
	o.recorder.ObserveSubmitDuration(elapsed)

	ev := events.OutcomeEvent{
		ID:         o.newID(),
		RequestID:  requestID,
		JobName:    NormalizeJobName(req.JobName),
		Server:     req.ServerAddress,
		DurationMS: elapsed.Milliseconds(),
		Timestamp:  o.now().UTC(),
	}
	if ev.JobName == "" {
		ev.JobName = NormalizeJobName(o.cfg.DefaultJobName)
	}

	if err != nil {
		category := string(errors.GetCategory(err))
		o.recorder.IncSubmitOutcome(category)
		log.Warn("Build submit failed",
			logfields.JobName(ev.JobName),
			logfields.Category(category),
			logfields.DurationMS(float64(elapsed.Milliseconds())),
			logfields.Error(err))
		ev.Category = category
		ev.Message = messageOf(err)
		ev.Provisioned = provisioned
	} else {
		o.recorder.IncSubmitOutcome(outcomeSucceeded)
		log.Info("Build triggered",
			logfields.JobName(outcome.JobName),
			logfields.Outcome(outcomeSucceeded),
			slog.Bool("provisioned", outcome.Provisioned),
			slog.String("queue_location", outcome.QueueLocation),
			logfields.DurationMS(float64(elapsed.Milliseconds())))
		ev.Succeeded = true
		ev.JobName = outcome.JobName
		ev.Message = outcome.Message
		ev.QueueLocation = outcome.QueueLocation
		ev.Provisioned = outcome.Provisioned
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if perr := o.publisher.Publish(pctx, ev); perr != nil {
		log.Warn("Failed to publish outcome event", logfields.Error(perr))
	}
}

func messageOf(err error) string {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.Message()
	}
	return err.Error()
}
