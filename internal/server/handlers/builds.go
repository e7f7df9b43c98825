package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
)

// Submitter runs one build submission.
type Submitter interface {
	Submit(ctx context.Context, req orchestrator.BuildRequest) (*orchestrator.BuildOutcome, error)
}

// BuildHandlers serves build submissions.
type BuildHandlers struct {
	submitter    Submitter
	maxBodyBytes int64
	errorAdapter *errors.HTTPErrorAdapter
}

// NewBuildHandlers creates build handlers. maxBodyBytes <= 0 disables the body limit.
func NewBuildHandlers(submitter Submitter, maxBodyBytes int64, logger *slog.Logger) *BuildHandlers {
	return &BuildHandlers{
		submitter:    submitter,
		maxBodyBytes: maxBodyBytes,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
	}
}

// HandleSubmit decodes a BuildRequest and answers with the BuildOutcome or a classified error.
func (h *BuildHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var req orchestrator.BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, decodeError(err, h.maxBodyBytes))
		return
	}

	outcome, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	respond(w, r, h.errorAdapter, http.StatusOK, outcome, "build outcome")
}

func decodeError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.ValidationError("request body too large").
			WithCause(err).
			WithContext("max_bytes", limit).
			Build()
	}
	return errors.ValidationError("invalid JSON request body").
		WithCause(err).
		Build()
}
