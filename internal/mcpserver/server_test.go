package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
)

type stubSubmitter struct {
	got orchestrator.BuildRequest
	err error
}

func (s *stubSubmitter) Submit(_ context.Context, req orchestrator.BuildRequest) (*orchestrator.BuildOutcome, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &orchestrator.BuildOutcome{Succeeded: true, Message: "Build triggered for " + req.JobName, JobName: req.JobName}, nil
}

type stubLister struct {
	got  jenkins.Endpoint
	jobs []string
	err  error
}

func (s *stubLister) ListJobs(_ context.Context, ep jenkins.Endpoint) ([]string, error) {
	s.got = ep
	return s.jobs, s.err
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func newServer(sub *stubSubmitter, lister *stubLister) *Server {
	return New(sub, lister, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubmitBuildTool(t *testing.T) {
	sub := &stubSubmitter{}
	s := newServer(sub, &stubLister{})

	res, err := s.handleSubmitBuild(context.Background(), callRequest(ToolSubmitBuild, map[string]any{
		"jenkins_url":   "http://ci:8080",
		"jenkins_user":  "alice",
		"jenkins_token": "t0k",
		"job_name":      "app-ci",
		"source_code":   "src",
		"test_code":     "tests",
		"requirements":  "Use Node 20.",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, orchestrator.BuildRequest{
		ServerAddress: "http://ci:8080",
		Username:      "alice",
		Token:         "t0k",
		JobName:       "app-ci",
		SourceCode:    "src",
		TestCode:      "tests",
		Requirements:  "Use Node 20.",
	}, sub.got)

	var outcome orchestrator.BuildOutcome
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &outcome))
	require.True(t, outcome.Succeeded)
	require.Equal(t, "Build triggered for app-ci", outcome.Message)
}

func TestSubmitBuildToolErrorCarriesCategory(t *testing.T) {
	sub := &stubSubmitter{err: errors.ProvisioningError("Failed to create pipeline for 'app-ci'.").
		WithContext("job_name", "app-ci").
		Build()}
	s := newServer(sub, &stubLister{})

	res, err := s.handleSubmitBuild(context.Background(), callRequest(ToolSubmitBuild, map[string]any{}))
	require.NoError(t, err)
	require.True(t, res.IsError)

	var payload errors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	require.Equal(t, "provisioning", payload.Code)
	require.Equal(t, "Failed to create pipeline for 'app-ci'.", payload.Error)
	require.Equal(t, "app-ci", payload.Details["job_name"])
}

func TestListJobsTool(t *testing.T) {
	lister := &stubLister{jobs: []string{"a", "b"}}
	s := newServer(&stubSubmitter{}, lister)

	res, err := s.handleListJobs(context.Background(), callRequest(ToolListJobs, map[string]any{
		"jenkins_url":   "http://ci",
		"jenkins_user":  "u",
		"jenkins_token": "t",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, jenkins.Endpoint{Address: "http://ci", Username: "u", Token: "t"}, lister.got)
	require.JSONEq(t, `{"jobs":["a","b"]}`, resultText(t, res))
}

func TestListJobsToolAuthFailure(t *testing.T) {
	s := newServer(&stubSubmitter{}, &stubLister{err: errors.AuthError("Invalid Credentials").Build()})

	res, err := s.handleListJobs(context.Background(), callRequest(ToolListJobs, nil))
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), `"code":"auth"`)
}
