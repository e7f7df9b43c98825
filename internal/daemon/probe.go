package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
	"git.home.luguber.info/inful/autopipe/internal/server/responses"
)

type probeTarget interface {
	Config() *config.Config
	ListJobs(ctx context.Context, ep jenkins.Endpoint) ([]string, error)
}

// Prober lists jobs on the configured probe endpoint and keeps the last result.
type Prober struct {
	target   probeTarget
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
	last     atomic.Pointer[responses.ProbeResponse]
}

func NewProber(target probeTarget, recorder metrics.Recorder, logger *slog.Logger) *Prober {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Prober{target: target, recorder: recorder, logger: logger, now: time.Now}
}

// Last returns the most recent probe result, or nil before the first run.
func (p *Prober) Last() *responses.ProbeResponse {
	return p.last.Load()
}

// Run performs one probe. It does nothing when no probe is configured.
func (p *Prober) Run(ctx context.Context) {
	pc := p.target.Config().Probe
	if pc == nil {
		return
	}
	jobs, err := p.target.ListJobs(ctx, jenkins.Endpoint{
		Address:  pc.Server,
		Username: pc.Username,
		Token:    pc.Token,
	})
	res := &responses.ProbeResponse{
		Server:    pc.Server,
		OK:        err == nil,
		Jobs:      len(jobs),
		CheckedAt: p.now().UTC(),
	}
	if err != nil {
		res.Error = err.Error()
		p.logger.Warn("CI probe failed", logfields.Server(pc.Server), logfields.Error(err))
	} else {
		p.logger.Debug("CI probe succeeded", logfields.Server(pc.Server), slog.Int("jobs", len(jobs)))
	}
	p.last.Store(res)
	p.recorder.SetProbeUp(res.OK)
}
