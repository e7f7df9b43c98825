// Package jenkins is the HTTP binding to a Jenkins server: list jobs, create a job from a
// definition document and trigger a parameterized build. Every call is exactly one request.
package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "autopipe/1.0"
	maxErrorBody     = 4096
	maxListBody      = 8 << 20
)

// Client talks to Jenkins. It holds no per-server state, so one Client serves any number of
// endpoints concurrently.
type Client struct {
	httpClient *http.Client
	userAgent  string
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. A client supplied through WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client. Options apply in order, so WithTimeout after WithHTTPClient
// adjusts the supplied client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  defaultUserAgent,
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListJobs returns the job names visible to the credential pair, in server order.
// Every failure is reported as an auth error: the caller cannot distinguish bad credentials
// from an unreachable server at this boundary.
func (c *Client) ListJobs(ctx context.Context, ep Endpoint) ([]string, error) {
	invalid := func(cause error, status int) error {
		b := errors.AuthError("Invalid Credentials").
			WithCause(cause).
			WithContext("server", ep.Address)
		if status != 0 {
			b = b.WithContext("code", status)
		}
		return b.Build()
	}

	req, err := c.newRequest(ctx, http.MethodGet, ep, "api/json", url.Values{"tree": {"jobs[name]"}}, nil, "")
	if err != nil {
		return nil, invalid(err, 0)
	}
	resp, err := c.do(req, metrics.OperationListJobs)
	if err != nil {
		return nil, invalid(err, 0)
	}
	defer func() { _ = resp.Body.Close() }()

	if !success(resp.StatusCode) {
		return nil, invalid(statusError(errors.CategoryAuth, resp, req, ""), resp.StatusCode)
	}

	var list jobList
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxListBody)).Decode(&list); err != nil {
		return nil, invalid(err, resp.StatusCode)
	}
	names := make([]string, 0, len(list.Jobs))
	for _, j := range list.Jobs {
		names = append(names, j.Name)
	}
	return names, nil
}

// TriggerBuild queues a parameterized build of job. A 404 is reported as a not_found error,
// which is the signal for automatic provisioning.
func (c *Client) TriggerBuild(ctx context.Context, ep Endpoint, job string, params BuildParameters) (*TriggerResult, error) {
	form := url.Values{}
	form.Set(ParamSourceCode, params.SourceCode)
	form.Set(ParamTestCode, params.TestCode)

	req, err := c.newRequest(ctx, http.MethodPost, ep, jobPath(job)+"/buildWithParameters", nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return nil, withJob(err, job)
	}
	resp, err := c.do(req, metrics.OperationTriggerBuild)
	if err != nil {
		return nil, transportError(err, req, job)
	}
	defer func() { _ = resp.Body.Close() }()

	if !success(resp.StatusCode) {
		category := errors.CategoryRemote
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			category = errors.CategoryAuth
		case http.StatusNotFound:
			category = errors.CategoryNotFound
		}
		return nil, statusError(category, resp, req, job)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return &TriggerResult{QueueLocation: resp.Header.Get("Location")}, nil
}

// CreateJob creates desc.Name from its XML definition. Jobs inside folders ("team/app") are
// created in the parent folder.
func (c *Client) CreateJob(ctx context.Context, ep Endpoint, desc JobDescriptor) error {
	parent, leaf := splitJob(desc.Name)
	p := "createItem"
	if parent != "" {
		p = jobPath(parent) + "/createItem"
	}
	req, err := c.newRequest(ctx, http.MethodPost, ep, p, url.Values{"name": {leaf}},
		strings.NewReader(desc.Definition), "application/xml")
	if err != nil {
		return withJob(err, desc.Name)
	}
	resp, err := c.do(req, metrics.OperationCreateJob)
	if err != nil {
		return transportError(err, req, desc.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	if !success(resp.StatusCode) {
		return statusError(errors.CategoryProvisioningRejected, resp, req, desc.Name)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, ep Endpoint, endpoint string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	base := strings.TrimRight(strings.TrimSpace(ep.Address), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("invalid CI server address").
			WithCause(err).
			WithContext("server", ep.Address).
			Build()
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + endpoint
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.InternalError("failed to create CI request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}
	req.SetBasicAuth(ep.Username, ep.Token)
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, operation string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	result := metrics.ResultSuccess
	status := 0
	switch {
	case err != nil && req.Context().Err() != nil:
		result = metrics.ResultCanceled
	case err != nil:
		result = metrics.ResultFailure
	case !success(resp.StatusCode):
		result = metrics.ResultRejected
		status = resp.StatusCode
	default:
		status = resp.StatusCode
	}
	c.recorder.ObserveCIRequest(operation, result, elapsed)
	c.logger.Debug("CI request",
		logfields.Operation(operation),
		logfields.Method(req.Method),
		logfields.URL(redact(req.URL)),
		logfields.Status(status),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000),
		logfields.Error(err))
	return resp, err
}

func success(code int) bool { return code >= 200 && code < 300 }

// jobPath maps "a/b" onto Jenkins' nested "job/a/job/b" layout. Empty segments are dropped.
// The result is an unescaped path.
func jobPath(name string) string {
	var sb strings.Builder
	for i, p := range jobSegments(name) {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString("job/")
		sb.WriteString(p)
	}
	return sb.String()
}

func splitJob(name string) (parent, leaf string) {
	segs := jobSegments(name)
	if len(segs) == 0 {
		return "", ""
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1]
}

func jobSegments(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool { return r == '/' })
}

func redact(u *url.URL) string {
	c := *u
	c.User = nil
	return c.String()
}

func withJob(err error, job string) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("job_name", job)
	}
	return err
}

func transportError(err error, req *http.Request, job string) error {
	return errors.NetworkError("Connection Failed").
		WithCause(err).
		WithContext("job_name", job).
		WithContext("method", req.Method).
		WithContext("url", redact(req.URL)).
		Build()
}

func statusError(category errors.ErrorCategory, resp *http.Response, req *http.Request, job string) error {
	detail := responseDetail(resp)
	msg := fmt.Sprintf("CI server responded %s", statusText(resp))
	if detail != "" {
		msg += ": " + detail
	}
	b := errors.NewError(category, msg).
		WithContext("status", statusText(resp)).
		WithContext("code", resp.StatusCode).
		WithContext("url", redact(req.URL))
	if job != "" {
		b = b.WithContext("job_name", job)
	}
	if detail != "" {
		b = b.WithContext("detail", detail)
	}
	return b.Build()
}

// statusText returns "404 Not Found" style text even when the server omitted the reason phrase.
func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
