package httpserver

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopipe/internal/server/handlers"
)

// Options carries the runtime collaborators behind the HTTP routes.
type Options struct {
	Submitter handlers.Submitter
	Lister    handlers.JobLister

	// Optional: nil means always ready.
	Readiness handlers.ReadinessChecker

	// Optional: served at the configured metrics path when set.
	MetricsHandler http.Handler

	Logger *slog.Logger
}
