// Package directory lists the jobs a credential pair can see on a CI server. It is a read path
// for callers choosing a job and is never consulted by the submit workflow.
package directory

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
)

// Lister is the CI client capability the directory needs.
type Lister interface {
	ListJobs(ctx context.Context, ep jenkins.Endpoint) ([]string, error)
}

type Directory struct {
	ci Lister
}

func New(ci Lister) *Directory {
	return &Directory{ci: ci}
}

// ListJobs validates the endpoint and returns the job names in server order.
func (d *Directory) ListJobs(ctx context.Context, ep jenkins.Endpoint) ([]string, error) {
	var missing []string
	if strings.TrimSpace(ep.Address) == "" {
		missing = append(missing, "server address")
	}
	if strings.TrimSpace(ep.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(ep.Token) == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return nil, errors.ConfigError("missing required fields: "+strings.Join(missing, ", ")).
			WithContext("fields", missing).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NetworkError("request canceled").WithCause(err).Build()
	}
	return d.ci.ListJobs(ctx, jenkins.Endpoint{
		Address:  strings.TrimSpace(ep.Address),
		Username: strings.TrimSpace(ep.Username),
		Token:    strings.TrimSpace(ep.Token),
	})
}
