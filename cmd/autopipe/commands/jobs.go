package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/autopipe/internal/daemon"
	"git.home.luguber.info/inful/autopipe/internal/jenkins"
)

// JobsCmd implements the 'jobs' command.
type JobsCmd struct {
	Endpoint `embed:""`
}

func (j *JobsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadedConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	svc, err := daemon.BuildServices(ctx, cfg, nil, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	jobs, err := svc.Directory.ListJobs(ctx, jenkins.Endpoint{Address: j.Server, Username: j.User, Token: j.Token})
	if err != nil {
		return err
	}
	for _, name := range jobs {
		_, _ = fmt.Fprintln(g.Out, name)
	}
	return nil
}
