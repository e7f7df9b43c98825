package orchestrator

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
)

// normalized is a validated request.
type normalized struct {
	endpoint     jenkins.Endpoint
	job          string
	params       jenkins.BuildParameters
	requirements string
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// NormalizeJobName trims name and converts it to Unicode NFC so visually identical names map
// onto the same job.
func NormalizeJobName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func (o *Orchestrator) validate(req BuildRequest) (normalized, error) {
	var missing []string
	if blank(req.ServerAddress) {
		missing = append(missing, "server address")
	}
	if blank(req.Username) {
		missing = append(missing, "username")
	}
	if blank(req.Token) {
		missing = append(missing, "token")
	}
	if blank(req.SourceCode) {
		missing = append(missing, "source code")
	}
	if blank(req.TestCode) {
		missing = append(missing, "test code")
	}

	job := NormalizeJobName(req.JobName)
	if job == "" {
		job = NormalizeJobName(o.cfg.DefaultJobName)
	}
	if job == "" {
		missing = append(missing, "job name")
	}

	if len(missing) > 0 {
		return normalized{}, errors.ConfigError("missing required fields: "+strings.Join(missing, ", ")).
			WithContext("fields", missing).
			WithContext("job_name", job).
			Build()
	}

	requirements := strings.TrimSpace(req.Requirements)
	if requirements == "" {
		requirements = o.cfg.DefaultRequirements
	}
	return normalized{
		endpoint: jenkins.Endpoint{
			Address:  strings.TrimSpace(req.ServerAddress),
			Username: strings.TrimSpace(req.Username),
			Token:    strings.TrimSpace(req.Token),
		},
		job:          job,
		params:       jenkins.BuildParameters{SourceCode: req.SourceCode, TestCode: req.TestCode},
		requirements: requirements,
	}, nil
}
