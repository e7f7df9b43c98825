package jenkins

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/metrics"
)

type recordedCall struct {
	operation string
	result    metrics.ResultLabel
}

type fakeRecorder struct {
	metrics.NoopRecorder
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) ObserveCIRequest(op string, result metrics.ResultLabel, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{op, result})
}

func endpointFor(srv *httptest.Server) Endpoint {
	return Endpoint{Address: srv.URL + "/", Username: "alice", Token: "t0ken"}
}

func requireBasicAuth(t *testing.T, r *http.Request) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	require.True(t, ok, "basic auth header missing")
	require.Equal(t, "alice", user)
	require.Equal(t, "t0ken", pass)
}

func TestTriggerBuild_SendsParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/job/demo-1/buildWithParameters", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		require.Equal(t, "console.log(1)", r.PostForm.Get(ParamSourceCode))
		require.Equal(t, "test('x', () => {})", r.PostForm.Get(ParamTestCode))
		w.Header().Set("Location", "http://ci/queue/1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	rec := &fakeRecorder{}
	c := NewClient(WithRecorder(rec))
	res, err := c.TriggerBuild(context.Background(), endpointFor(srv), "demo-1", BuildParameters{
		SourceCode: "console.log(1)",
		TestCode:   "test('x', () => {})",
	})
	require.NoError(t, err)
	require.Equal(t, "http://ci/queue/1", res.QueueLocation)
	require.Equal(t, []recordedCall{{metrics.OperationTriggerBuild, metrics.ResultSuccess}}, rec.calls)
}

func TestTriggerBuild_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		category errors.ErrorCategory
	}{
		{"job absent", http.StatusNotFound, errors.CategoryNotFound},
		{"unauthorized", http.StatusUnauthorized, errors.CategoryAuth},
		{"forbidden", http.StatusForbidden, errors.CategoryAuth},
		{"server error", http.StatusInternalServerError, errors.CategoryRemote},
		{"bad request", http.StatusBadRequest, errors.CategoryRemote},
		{"conflict", http.StatusConflict, errors.CategoryRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewClient().TriggerBuild(context.Background(), endpointFor(srv), "demo", BuildParameters{})
			require.Error(t, err)
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, tt.category, ce.Category())
			job, _ := ce.Context().GetString("job_name")
			require.Equal(t, "demo", job)
			code, _ := ce.Context().Get("code")
			require.Equal(t, tt.status, code)
		})
	}
}

func TestTriggerBuild_HTMLErrorTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html;charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><head><title>Jenkins [Jenkins]\n  Oops!</title></head><body><pre>stack...</pre></body></html>")
	}))
	defer srv.Close()

	_, err := NewClient().TriggerBuild(context.Background(), endpointFor(srv), "demo", BuildParameters{})
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryRemote, ce.Category())
	detail, _ := ce.Context().GetString("detail")
	require.Equal(t, "Jenkins [Jenkins] Oops!", detail)
	require.Contains(t, ce.Message(), "500 Internal Server Error")
}

func TestTriggerBuild_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ep := endpointFor(srv)
	srv.Close()

	rec := &fakeRecorder{}
	_, err := NewClient(WithRecorder(rec)).TriggerBuild(context.Background(), ep, "demo", BuildParameters{})
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.Len(t, rec.calls, 1)
	require.Equal(t, metrics.ResultFailure, rec.calls[0].result)
}

func TestTriggerBuild_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := c.TriggerBuild(context.Background(), endpointFor(srv), "slow", BuildParameters{})
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestTriggerBuild_FolderJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/job/team/job/my app/buildWithParameters", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	res, err := NewClient().TriggerBuild(context.Background(), endpointFor(srv), "team/my app", BuildParameters{})
	require.NoError(t, err)
	require.Empty(t, res.QueueLocation)
}

func TestTriggerBuild_InvalidAddress(t *testing.T) {
	_, err := NewClient().TriggerBuild(context.Background(), Endpoint{Address: "not a url", Username: "u", Token: "t"}, "demo", BuildParameters{})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestCreateJob(t *testing.T) {
	const definition = `<flow-definition plugin="workflow-job"><description>x</description></flow-definition>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requireBasicAuth(t, r)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/createItem", r.URL.Path)
		require.Equal(t, "missing-job", r.URL.Query().Get("name"))
		require.Equal(t, "application/xml", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, definition, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewClient().CreateJob(context.Background(), endpointFor(srv), JobDescriptor{Name: "missing-job", Definition: definition})
	require.NoError(t, err)
}

func TestCreateJob_InFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/job/team/createItem", r.URL.Path)
		require.Equal(t, "app", r.URL.Query().Get("name"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewClient().CreateJob(context.Background(), endpointFor(srv), JobDescriptor{Name: "team/app", Definition: "<x/>"}))
}

func TestCreateJob_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Invalid XML", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient().CreateJob(context.Background(), endpointFor(srv), JobDescriptor{Name: "bad", Definition: "nope"})
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, errors.CategoryProvisioningRejected, ce.Category())
	detail, _ := ce.Context().GetString("detail")
	require.Equal(t, "Invalid XML", detail)
}

func TestListJobs(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		requireBasicAuth(t, r)
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/json", r.URL.Path)
		require.Equal(t, "jobs[name]", r.URL.Query().Get("tree"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"_class":"hudson.model.Hudson","jobs":[{"name":"zeta"},{"name":"alpha"},{"name":"mid"}]}`)
	}))
	defer srv.Close()

	c := NewClient()
	first, err := c.ListJobs(context.Background(), endpointFor(srv))
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha", "mid"}, first)

	second, err := c.ListJobs(context.Background(), endpointFor(srv))
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 2, calls)
}

func TestListJobs_EmptyServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"jobs":[]}`)
	}))
	defer srv.Close()

	jobs, err := NewClient().ListJobs(context.Background(), endpointFor(srv))
	require.NoError(t, err)
	require.NotNil(t, jobs)
	require.Empty(t, jobs)
}

func TestListJobs_FailuresAreCredentialErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"unauthorized", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"garbage body", func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "<html>login</html>") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewClient().ListJobs(context.Background(), endpointFor(srv))
			ce, ok := errors.AsClassified(err)
			require.True(t, ok)
			require.Equal(t, errors.CategoryAuth, ce.Category())
			require.Equal(t, "Invalid Credentials", ce.Message())
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		ep := endpointFor(srv)
		srv.Close()
		_, err := NewClient().ListJobs(context.Background(), ep)
		require.True(t, errors.HasCategory(err, errors.CategoryAuth))
	})
}

func TestCanceledContextRecordsCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecorder{}
	err := NewClient(WithRecorder(rec)).CreateJob(ctx, endpointFor(srv), JobDescriptor{Name: "x", Definition: "<x/>"})
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, metrics.ResultCanceled, rec.calls[0].result)
}

func TestJobPath(t *testing.T) {
	require.Equal(t, "job/a", jobPath("a"))
	require.Equal(t, "job/a/job/b", jobPath("/a/b/"))
	parent, leaf := splitJob("a/b/c")
	require.Equal(t, "a/b", parent)
	require.Equal(t, "c", leaf)

	require.Equal(t, "job/a/job/b", jobPath("a//b"))
	parent, leaf = splitJob("team//app/")
	require.Equal(t, "team", parent)
	require.Equal(t, "app", leaf)
}

func TestTriggerBuildCollapsesEmptyJobSegments(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	_, err := NewClient().TriggerBuild(context.Background(), endpointFor(srv), "a//b", BuildParameters{})
	require.NoError(t, err)
	require.Equal(t, "/job/a/job/b/buildWithParameters", path)
}

func TestWithTimeoutCopiesSuppliedClient(t *testing.T) {
	shared := &http.Client{}
	c := NewClient(WithHTTPClient(shared), WithTimeout(time.Second))
	require.Zero(t, shared.Timeout)
	require.Equal(t, time.Second, c.httpClient.Timeout)
	require.NotSame(t, shared, c.httpClient)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("é", 150)
	out := truncate(s, 201)
	require.True(t, utf8.ValidString(out))
	require.Equal(t, strings.Repeat("é", 100)+"...", out)
	require.Equal(t, "abc", truncate("abc", 3))
}
