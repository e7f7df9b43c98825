// Package generator produces CI job definition documents from source code, test code and free
// text requirements. Providers return raw text; callers run CleanOutput before use.
package generator

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
)

// DefinitionRequest is the input of one generation call.
type DefinitionRequest struct {
	JobName      string
	SourceCode   string
	TestCode     string
	Requirements string
}

// Generator synthesizes a job definition document. Any failure is a generation error; callers
// do not distinguish sub-causes.
type Generator interface {
	Generate(ctx context.Context, req DefinitionRequest) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, req DefinitionRequest) (string, error)

func (f Func) Generate(ctx context.Context, req DefinitionRequest) (string, error) {
	return f(ctx, req)
}

// Option configures providers built by New.
type Option func(*options)

type options struct {
	httpClient *http.Client
	recorder   metrics.Recorder
	logger     *slog.Logger
}

func WithHTTPClient(hc *http.Client) Option  { return func(o *options) { o.httpClient = hc } }
func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }
func WithLogger(l *slog.Logger) Option       { return func(o *options) { o.logger = l } }

// New builds the provider selected by cfg, instrumented with metrics and logging.
func New(cfg config.GeneratorConfig, opts ...Option) (Generator, error) {
	o := options{recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	kind, err := config.ParseProvider(string(cfg.Provider))
	if err != nil {
		return nil, errors.ConfigError("unsupported generator provider").
			WithCause(err).
			WithContext("field", "generator.provider").
			Build()
	}

	var g Generator
	switch kind {
	case config.ProviderTemplate:
		g = NewTemplate()
	default:
		hc := o.httpClient
		if hc == nil {
			hc = &http.Client{Timeout: cfg.Timeout}
		}
		g = NewGemini(GeminiOptions{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Endpoint:   cfg.Endpoint,
			HTTPClient: hc,
		})
	}
	return &instrumented{next: g, provider: string(kind), recorder: o.recorder, logger: o.logger}, nil
}

type instrumented struct {
	next     Generator
	provider string
	recorder metrics.Recorder
	logger   *slog.Logger
}

func (i *instrumented) Generate(ctx context.Context, req DefinitionRequest) (string, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, req)
	elapsed := time.Since(start)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
		if ctx.Err() != nil {
			result = metrics.ResultCanceled
		}
	}
	i.recorder.ObserveGeneration(i.provider, result, elapsed)
	i.logger.Debug("Generated job definition",
		logfields.Provider(i.provider),
		logfields.JobName(req.JobName),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000),
		slog.Int("bytes", len(out)),
		logfields.Error(err))
	if err != nil && !errors.HasCategory(err, errors.CategoryGeneration) {
		err = errors.WrapError(err, errors.CategoryGeneration, "job definition generation failed").
			WithContext("provider", i.provider).
			Build()
	}
	return out, err
}
