package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/autopipe/internal/daemon"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
)

// Endpoint flags shared by commands that talk to the CI server.
type Endpoint struct {
	Server string `help:"CI server base URL" env:"JENKINS_URL"`
	User   string `help:"CI username" env:"JENKINS_USER"`
	Token  string `help:"CI API token" env:"JENKINS_TOKEN"`
}

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Endpoint `embed:""`

	Job          string `short:"j" help:"Job to trigger (default from configuration)"`
	Source       string `short:"s" help:"Source code file" required:"" type:"existingfile"`
	Test         string `short:"t" help:"Test code file" required:"" type:"existingfile"`
	Requirements string `short:"r" help:"Requirements used if the job has to be generated"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadedConfig()
	if err != nil {
		return err
	}
	source, err := readFile(b.Source, "source")
	if err != nil {
		return err
	}
	tests, err := readFile(b.Test, "test")
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := daemon.BuildServices(ctx, cfg, nil, g.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	outcome, err := svc.Orchestrator.Submit(ctx, orchestrator.BuildRequest{
		ServerAddress: b.Server,
		Username:      b.User,
		Token:         b.Token,
		JobName:       b.Job,
		SourceCode:    source,
		TestCode:      tests,
		Requirements:  b.Requirements,
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(g.Out, outcome.Message)
	if outcome.Provisioned {
		_, _ = fmt.Fprintf(g.Out, "Job %s was created automatically\n", outcome.JobName)
	}
	if outcome.QueueLocation != "" {
		_, _ = fmt.Fprintf(g.Out, "Queued: %s\n", outcome.QueueLocation)
	}
	return nil
}
