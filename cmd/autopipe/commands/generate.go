package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/generator"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Source       string `short:"s" help:"Source code file" required:"" type:"existingfile"`
	Test         string `short:"t" help:"Test code file" type:"existingfile"`
	Requirements string `short:"r" help:"Pipeline requirements (default from configuration)"`
	Job          string `short:"j" help:"Job name the definition is for (default from configuration)"`
	Provider     string `short:"p" help:"Generator provider, overriding generator.provider"`
}

func (c *GenerateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadedConfig()
	if err != nil {
		return err
	}
	genCfg := cfg.Generator
	if c.Provider != "" {
		genCfg.Provider = config.ProviderKind(c.Provider)
	}

	req := generator.DefinitionRequest{
		JobName:      orchestrator.NormalizeJobName(c.Job),
		Requirements: c.Requirements,
	}
	if req.JobName == "" {
		req.JobName = cfg.CI.DefaultJobName
	}
	if req.Requirements == "" {
		req.Requirements = genCfg.DefaultRequirements
	}
	if req.SourceCode, err = readFile(c.Source, "source"); err != nil {
		return err
	}
	if c.Test != "" {
		if req.TestCode, err = readFile(c.Test, "test"); err != nil {
			return err
		}
	}

	gen, err := generator.New(genCfg, generator.WithLogger(g.Logger))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	raw, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	definition := generator.CleanOutput(raw)
	if definition == "" {
		return errors.GenerationError("generator returned no usable definition").
			WithContext("job_name", req.JobName).
			Build()
	}
	_, _ = fmt.Fprintln(g.Out, definition)
	return nil
}
