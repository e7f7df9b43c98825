package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/autopipe/internal/daemon"
	"git.home.luguber.info/inful/autopipe/internal/mcpserver"
)

// MCPCmd implements the 'mcp' command. Logs go to stderr; stdout carries the protocol.
type MCPCmd struct{}

func (m *MCPCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadedConfig()
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

	return mcpserver.New(svc.Orchestrator, svc.Directory, g.Logger).Run(ctx, g.Stdin, g.Out)
}
