package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/server/responses"
	"git.home.luguber.info/inful/autopipe/internal/version"
)

// ReadinessChecker reports whether the service can take submits.
type ReadinessChecker interface {
	Readiness() responses.ReadyResponse
}

// MonitoringHandlers contains health and readiness handlers.
type MonitoringHandlers struct {
	readiness    ReadinessChecker
	startTime    time.Time
	now          func() time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates monitoring handlers. A nil checker is always ready.
func NewMonitoringHandlers(readiness ReadinessChecker, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{
		readiness:    readiness,
		startTime:    time.Now(),
		now:          time.Now,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// HandleHealthCheck handles the liveness endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: now.UTC(),
		Version:   version.Version,
		Uptime:    now.Sub(h.startTime).Seconds(),
	}
	respond(w, r, h.errorAdapter, http.StatusOK, health, "health response")
}

// HandleReadiness answers 200 when ready and 503 otherwise.
func (h *MonitoringHandlers) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ready := responses.ReadyResponse{Ready: true}
	if h.readiness != nil {
		ready = h.readiness.Readiness()
	}
	status := http.StatusOK
	if !ready.Ready {
		status = http.StatusServiceUnavailable
	}
	respond(w, r, h.errorAdapter, status, ready, "readiness response")
}
