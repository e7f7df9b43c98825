package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
	"git.home.luguber.info/inful/autopipe/internal/server/responses"
)

// JobLister lists the jobs visible at an endpoint.
type JobLister interface {
	ListJobs(ctx context.Context, ep jenkins.Endpoint) ([]string, error)
}

// JobHandlers serves the job directory.
type JobHandlers struct {
	lister       JobLister
	errorAdapter *errors.HTTPErrorAdapter
}

func NewJobHandlers(lister JobLister, logger *slog.Logger) *JobHandlers {
	return &JobHandlers{lister: lister, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleListJobs answers GET /api/v1/jobs?url=&user=&token=.
func (h *JobHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ep := jenkins.Endpoint{
		Address:  q.Get("url"),
		Username: q.Get("user"),
		Token:    q.Get("token"),
	}

	jobs, err := h.lister.ListJobs(r.Context(), ep)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []string{}
	}
	respond(w, r, h.errorAdapter, http.StatusOK, responses.JobsResponse{Jobs: jobs}, "job list")
}
