package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
	smw "git.home.luguber.info/inful/autopipe/internal/server/middleware"
)

type stubSubmitter struct {
	requestID string
}

func (s *stubSubmitter) Submit(ctx context.Context, req orchestrator.BuildRequest) (*orchestrator.BuildOutcome, error) {
	s.requestID = orchestrator.RequestIDFromContext(ctx)
	if req.Token == "bad" {
		return nil, errors.AuthError("Invalid Credentials").Build()
	}
	return &orchestrator.BuildOutcome{Succeeded: true, JobName: req.JobName, RequestID: s.requestID}, nil
}

type stubLister struct{}

func (stubLister) ListJobs(context.Context, jenkins.Endpoint) ([]string, error) {
	return []string{"one"}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, opts Options) *Server {
	t.Helper()
	if opts.Submitter == nil {
		opts.Submitter = &stubSubmitter{}
	}
	if opts.Lister == nil {
		opts.Lister = stubLister{}
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, opts)
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestRoutes(t *testing.T) {
	sub := &stubSubmitter{}
	s := newTestServer(t, testConfig(t), Options{Submitter: sub})

	rec := serve(s, http.MethodPost, PathBuilds, `{"jenkinsUrl":"u","jenkinsUser":"a","jenkinsToken":"t","jobName":"j","sourceCode":"s","testCode":"t"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, sub.requestID)
	require.Equal(t, sub.requestID, rec.Header().Get(smw.HeaderRequestID))
	require.Contains(t, rec.Body.String(), `"succeeded":true`)

	rec = serve(s, http.MethodPost, PathBuilds, `{"jenkinsToken":"bad"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(s, http.MethodGet, PathJobs+"?url=u&user=a&token=t", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"jobs":["one"]}`, rec.Body.String())

	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, PathHealthz, "").Code)
	require.Equal(t, http.StatusOK, serve(s, http.MethodGet, PathReadyz, "").Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := newTestServer(t, testConfig(t), Options{})

	rec := serve(s, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"not_found"`)

	rec = serve(s, http.MethodGet, PathBuilds, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid HTTP method")
}

func TestMetricsMountedOnlyWhenEnabled(t *testing.T) {
	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg).IncSubmitOutcome("success")
	handler := metrics.HTTPHandler(reg)

	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	off := newTestServer(t, cfg, Options{MetricsHandler: handler})
	require.Equal(t, http.StatusNotFound, serve(off, http.MethodGet, "/metrics", "").Code)

	cfg = testConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/internal/metrics"
	on := newTestServer(t, cfg, Options{MetricsHandler: handler})
	res := serve(on, http.MethodGet, "/internal/metrics", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `autopipe_submit_outcomes_total{outcome="success"} 1`)
}

func TestStartStop(t *testing.T) {
	s := newTestServer(t, testConfig(t), Options{})
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	require.Error(t, s.Start(ctx))
	addr := s.Addr()
	require.NotEmpty(t, addr)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + PathHealthz)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
}

func TestStartFailsFastOnBusyPort(t *testing.T) {
	first := newTestServer(t, testConfig(t), Options{})
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	cfg := testConfig(t)
	cfg.Server.ListenAddr = first.Addr()
	second := newTestServer(t, cfg, Options{})
	err := second.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "http startup failed")
}
