// Package mcpserver exposes build submission and job listing as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
	"git.home.luguber.info/inful/autopipe/internal/server/handlers"
	"git.home.luguber.info/inful/autopipe/internal/server/responses"
	"git.home.luguber.info/inful/autopipe/internal/version"
)

// Tool names.
const (
	ToolSubmitBuild = "submit_build"
	ToolListJobs    = "list_jobs"
)

// Server is the autopipe MCP server.
type Server struct {
	mcpServer *server.MCPServer
	submitter handlers.Submitter
	lister    handlers.JobLister
	adapter   *errors.HTTPErrorAdapter
	logger    *slog.Logger
}

// New creates the MCP server and registers its tools.
func New(submitter handlers.Submitter, lister handlers.JobLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: server.NewMCPServer("autopipe", version.Version, server.WithToolCapabilities(true)),
		submitter: submitter,
		lister:    lister,
		adapter:   errors.NewHTTPErrorAdapter(logger),
		logger:    logger,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	submitTool := mcp.NewTool(ToolSubmitBuild,
		mcp.WithDescription("Trigger a parameterized CI build with the given source and test code. If the job does not exist it is generated and created once, then triggered again."),
		mcp.WithString("jenkins_url", mcp.Required(), mcp.Description("CI server base URL")),
		mcp.WithString("jenkins_user", mcp.Required(), mcp.Description("CI username")),
		mcp.WithString("jenkins_token", mcp.Required(), mcp.Description("CI API token")),
		mcp.WithString("source_code", mcp.Required(), mcp.Description("Source code passed as SOURCE_CODE")),
		mcp.WithString("test_code", mcp.Required(), mcp.Description("Test code passed as TEST_CODE")),
		mcp.WithString("job_name", mcp.Description("Job to trigger; the configured default is used when empty")),
		mcp.WithString("requirements", mcp.Description("Free-text requirements used if the job has to be generated")),
	)

	jobsTool := mcp.NewTool(ToolListJobs,
		mcp.WithDescription("List the job names visible to the given CI credentials."),
		mcp.WithString("jenkins_url", mcp.Required(), mcp.Description("CI server base URL")),
		mcp.WithString("jenkins_user", mcp.Required(), mcp.Description("CI username")),
		mcp.WithString("jenkins_token", mcp.Required(), mcp.Description("CI API token")),
	)

	s.mcpServer.AddTool(submitTool, s.handleSubmitBuild)
	s.mcpServer.AddTool(jobsTool, s.handleListJobs)
}

// Run serves MCP on the given streams until ctx is canceled or in is closed.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}

func (s *Server) handleSubmitBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := orchestrator.BuildRequest{
		ServerAddress: request.GetString("jenkins_url", ""),
		Username:      request.GetString("jenkins_user", ""),
		Token:         request.GetString("jenkins_token", ""),
		JobName:       request.GetString("job_name", ""),
		SourceCode:    request.GetString("source_code", ""),
		TestCode:      request.GetString("test_code", ""),
		Requirements:  request.GetString("requirements", ""),
	}
	outcome, err := s.submitter.Submit(ctx, req)
	if err != nil {
		return s.toolError(ToolSubmitBuild, err), nil
	}
	return s.toolJSON(outcome)
}

func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := s.lister.ListJobs(ctx, jenkins.Endpoint{
		Address:  request.GetString("jenkins_url", ""),
		Username: request.GetString("jenkins_user", ""),
		Token:    request.GetString("jenkins_token", ""),
	})
	if err != nil {
		return s.toolError(ToolListJobs, err), nil
	}
	if jobs == nil {
		jobs = []string{}
	}
	return s.toolJSON(responses.JobsResponse{Jobs: jobs})
}

// toolError renders err as the same JSON payload the HTTP API returns, flagged as a tool error.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Warn("MCP tool failed",
		slog.String("tool", tool),
		logfields.Category(string(errors.GetCategory(err))),
		logfields.Error(err))

	payload := s.adapter.FormatErrorResponse(err)
	b, jerr := json.Marshal(payload)
	if jerr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", errors.GetCategory(err), payload.Error))
	}
	return mcp.NewToolResultError(string(b))
}

func (s *Server) toolJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
