package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
)

// ciServer is a minimal Jenkins double recording every request it receives.
type ciServer struct {
	mu           sync.Mutex
	jobs         map[string]bool
	createStatus int
	triggerAuth  int
	requests     []string
}

func newCIServer(jobs ...string) *ciServer {
	s := &ciServer{jobs: map[string]bool{}, createStatus: http.StatusOK}
	for _, j := range jobs {
		s.jobs[j] = true
	}
	return s
}

func (s *ciServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)

	switch {
	case r.URL.Path == "/createItem":
		if s.createStatus == http.StatusOK {
			s.jobs[r.URL.Query().Get("name")] = true
		}
		w.WriteHeader(s.createStatus)
	case strings.HasPrefix(r.URL.Path, "/job/") && strings.HasSuffix(r.URL.Path, "/buildWithParameters"):
		if s.triggerAuth != 0 {
			w.WriteHeader(s.triggerAuth)
			return
		}
		job := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/job/"), "/buildWithParameters")
		if !s.jobs[job] {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Location", "http://ci/queue/1")
		w.WriteHeader(http.StatusCreated)
	default:
		http.NotFound(w, r)
	}
}

func (s *ciServer) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func submitAgainst(t *testing.T, ci *ciServer, gen *fakeGen, job string) (*BuildOutcome, error) {
	t.Helper()
	srv := httptest.NewServer(ci)
	t.Cleanup(srv.Close)

	o := newTestOrchestrator(jenkins.NewClient(), gen)
	req := validRequest(job)
	req.ServerAddress = srv.URL
	return o.Submit(context.Background(), req)
}

func TestSubmit_ExistingJobAgainstServer(t *testing.T) {
	ci := newCIServer("demo-1")
	gen := &fakeGen{output: validDefinition}

	out, err := submitAgainst(t, ci, gen, "demo-1")
	require.NoError(t, err)
	require.True(t, out.Succeeded)
	require.Equal(t, "http://ci/queue/1", out.QueueLocation)
	require.Equal(t, []string{"POST /job/demo-1/buildWithParameters"}, ci.calls())
	require.Zero(t, gen.calls)
}

func TestSubmit_MissingJobIsProvisionedOnServer(t *testing.T) {
	ci := newCIServer()
	gen := &fakeGen{output: "```xml\n" + validDefinition + "\n```"}

	out, err := submitAgainst(t, ci, gen, "missing-job")
	require.NoError(t, err)
	require.True(t, out.Succeeded)
	require.True(t, out.Provisioned)
	require.Equal(t, []string{
		"POST /job/missing-job/buildWithParameters",
		"POST /createItem",
		"POST /job/missing-job/buildWithParameters",
	}, ci.calls())
	require.Equal(t, 1, gen.calls)
	// three CI calls plus the generator call make the four network calls of the workflow
	require.Equal(t, 4, len(ci.calls())+gen.calls)
}

func TestSubmit_ServerRejectsGeneratedDefinition(t *testing.T) {
	ci := newCIServer()
	ci.createStatus = http.StatusInternalServerError
	gen := &fakeGen{output: validDefinition}

	out, err := submitAgainst(t, ci, gen, "missing-job")
	require.Nil(t, out)
	require.True(t, errors.HasCategory(err, errors.CategoryProvisioning))
	require.Equal(t, []string{
		"POST /job/missing-job/buildWithParameters",
		"POST /createItem",
	}, ci.calls())
}

func TestSubmit_ServerRejectsCredentials(t *testing.T) {
	ci := newCIServer("demo")
	ci.triggerAuth = http.StatusUnauthorized
	gen := &fakeGen{output: validDefinition}

	out, err := submitAgainst(t, ci, gen, "demo")
	require.Nil(t, out)
	require.True(t, errors.HasCategory(err, errors.CategoryAuth))
	require.Len(t, ci.calls(), 1)
	require.Zero(t, gen.calls)
}
