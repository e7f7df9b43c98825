// Package daemon runs the autopipe API service: it owns the current service set, swaps it on
// configuration reload and schedules the CI reachability probe behind /readyz.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/autopipe/internal/config"
	derrors "git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
	"git.home.luguber.info/inful/autopipe/internal/server/httpserver"
	"git.home.luguber.info/inful/autopipe/internal/server/responses"
)

// Daemon is the long-running API process.
type Daemon struct {
	configPath string
	logger     *slog.Logger
	registry   *prom.Registry
	recorder   *metrics.PrometheusRecorder

	services atomic.Pointer[Services]
	probe    *Prober
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the daemon logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.logger = l
		}
	}
}

// New builds the initial service set from cfg. configPath is watched for changes when
// daemon.watch_config is enabled; it may be empty.
func New(ctx context.Context, configPath string, cfg *config.Config, opts ...Option) (*Daemon, error) {
	d := &Daemon{
		configPath: configPath,
		logger:     slog.Default(),
		registry:   prom.NewRegistry(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.recorder = metrics.NewPrometheusRecorder(d.registry)

	svc, err := BuildServices(ctx, cfg, d.recorder, d.logger)
	if err != nil {
		return nil, err
	}
	d.services.Store(svc)
	d.probe = NewProber(d, d.recorder, d.logger)
	return d, nil
}

// Config returns the configuration of the current service set.
func (d *Daemon) Config() *config.Config {
	return d.services.Load().Config
}

// withServices runs fn against the current set, pinned for the duration of fn.
func (d *Daemon) withServices(fn func(*Services) error) error {
	for {
		svc := d.services.Load()
		if svc.acquire() {
			defer svc.release()
			return fn(svc)
		}
		if d.services.Load() == svc {
			return derrors.RuntimeError("service is shutting down").Build()
		}
	}
}

// Submit implements handlers.Submitter on top of whatever set is current when it starts.
func (d *Daemon) Submit(ctx context.Context, req orchestrator.BuildRequest) (*orchestrator.BuildOutcome, error) {
	var outcome *orchestrator.BuildOutcome
	err := d.withServices(func(s *Services) error {
		var err error
		outcome, err = s.Orchestrator.Submit(ctx, req)
		return err
	})
	return outcome, err
}

// ListJobs implements handlers.JobLister.
func (d *Daemon) ListJobs(ctx context.Context, ep jenkins.Endpoint) ([]string, error) {
	var jobs []string
	err := d.withServices(func(s *Services) error {
		var err error
		jobs, err = s.Directory.ListJobs(ctx, ep)
		return err
	})
	return jobs, err
}

// Readiness implements handlers.ReadinessChecker.
func (d *Daemon) Readiness() responses.ReadyResponse {
	if d.Config().Probe == nil {
		return responses.ReadyResponse{Ready: true}
	}
	last := d.probe.Last()
	if last == nil {
		return responses.ReadyResponse{Ready: false}
	}
	return responses.ReadyResponse{Ready: last.OK, Probe: last}
}

// Reload swaps in a service set built from cfg. Settings bound at startup are logged and
// left as they were.
func (d *Daemon) Reload(ctx context.Context, cfg *config.Config) error {
	current := d.Config()
	if cfg.Server != current.Server {
		d.logger.Warn("Server settings changed; restart required for them to take effect")
	}
	if probeInterval(cfg) != probeInterval(current) {
		d.logger.Warn("Probe interval changed; restart required for it to take effect")
	}

	next, err := BuildServices(ctx, cfg, d.recorder, d.logger)
	if err != nil {
		return err
	}
	old := d.services.Swap(next)
	retire(old, d.logger)
	d.logger.Info("Configuration applied",
		slog.String("generator", string(cfg.Generator.Provider)),
		logfields.JobName(cfg.CI.DefaultJobName))
	return nil
}

func probeInterval(cfg *config.Config) time.Duration {
	if cfg.Probe == nil {
		return 0
	}
	return cfg.Probe.Interval
}

// Run serves the API until ctx is canceled, then shuts down within server.shutdown_timeout.
func (d *Daemon) Run(ctx context.Context) error {
	cfg := d.Config()

	opts := httpserver.Options{
		Submitter: d,
		Lister:    d,
		Readiness: d,
		Logger:    d.logger,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsHandler = metrics.HTTPHandler(d.registry)
	}
	srv := httpserver.New(cfg, opts)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	var watcher *ConfigWatcher
	if cfg.Daemon.WatchConfig && d.configPath != "" {
		if _, err := os.Stat(d.configPath); err == nil {
			w, err := NewConfigWatcher(d.configPath, cfg.Daemon.ReloadDebounce, d, d.logger)
			if err != nil {
				return d.abort(srv, cfg, err)
			}
			if err := w.Start(ctx); err != nil {
				return d.abort(srv, cfg, err)
			}
			watcher = w
		}
	}

	var sched *Scheduler
	if cfg.Probe != nil {
		s, err := NewScheduler(d.logger)
		if err != nil {
			return d.abort(srv, cfg, err)
		}
		if _, err := s.ScheduleEvery("ci-probe", cfg.Probe.Interval, func() { d.probe.Run(ctx) }); err != nil {
			return d.abort(srv, cfg, err)
		}
		s.Start(ctx)
		sched = s
		go d.probe.Run(ctx)
	}

	d.logger.Info("Daemon started", slog.String("addr", srv.Addr()))
	<-ctx.Done()
	d.logger.Info("Daemon stopping")

	var errs []error
	if sched != nil {
		errs = append(errs, sched.Stop(context.Background()))
	}
	if watcher != nil {
		errs = append(errs, watcher.Stop(context.Background()))
	}
	errs = append(errs, d.shutdown(srv, cfg))
	return errors.Join(errs...)
}

func (d *Daemon) abort(srv *httpserver.Server, cfg *config.Config, cause error) error {
	return errors.Join(cause, d.shutdown(srv, cfg))
}

func (d *Daemon) shutdown(srv *httpserver.Server, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	var errs []error
	if err := srv.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.services.Load().Close(); err != nil {
		errs = append(errs, fmt.Errorf("close services: %w", err))
	}
	return errors.Join(errs...)
}
