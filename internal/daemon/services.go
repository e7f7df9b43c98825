package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/directory"
	"git.home.luguber.info/inful/autopipe/internal/events"
	"git.home.luguber.info/inful/autopipe/internal/generator"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
)

// Services is one immutable set of collaborators built from a single configuration.
// A reload builds a new set; the old one is closed once its in-flight calls finish.
type Services struct {
	Config       *config.Config
	CI           *jenkins.Client
	Generator    generator.Generator
	Orchestrator *orchestrator.Orchestrator
	Directory    *directory.Directory
	Publisher    events.Publisher

	// Held shared by callers, exclusively by retire.
	mu     sync.RWMutex
	closed bool
}

// BuildServices wires a service set for cfg. Outcome event sinks are connected here, so a
// broker that is down fails the build of the set.
func BuildServices(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, logger *slog.Logger) (*Services, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	ci := jenkins.NewClient(
		jenkins.WithTimeout(cfg.CI.Timeout),
		jenkins.WithUserAgent(cfg.CI.UserAgent),
		jenkins.WithRecorder(recorder),
		jenkins.WithLogger(logger),
	)

	gen, err := generator.New(cfg.Generator,
		generator.WithRecorder(recorder),
		generator.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	pub, err := events.FromConfig(ctx, cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	orch := orchestrator.New(ci, gen, orchestrator.Config{
		DefaultJobName:      cfg.CI.DefaultJobName,
		DefaultRequirements: cfg.Generator.DefaultRequirements,
	},
		orchestrator.WithLogger(logger),
		orchestrator.WithRecorder(recorder),
		orchestrator.WithPublisher(pub),
	)

	return &Services{
		Config:       cfg,
		CI:           ci,
		Generator:    gen,
		Orchestrator: orch,
		Directory:    directory.New(ci),
		Publisher:    pub,
	}, nil
}

// acquire pins the set for one call. It reports false once the set has been retired.
func (s *Services) acquire() bool {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false
	}
	return true
}

func (s *Services) release() { s.mu.RUnlock() }

// Close waits for in-flight calls and releases the event sinks. It is idempotent.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.Close()
}

// retire closes s in the background so the caller never blocks on slow submits.
func retire(s *Services, logger *slog.Logger) {
	if s == nil {
		return
	}
	go func() {
		if err := s.Close(); err != nil {
			logger.Warn("Closing retired services failed", logfields.Error(err))
		}
	}()
}
