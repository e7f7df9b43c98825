package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/autopipe/internal/daemon"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Listen string `short:"l" help:"Listen address, overriding server.listen_addr"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadedConfig()
	if err != nil {
		return err
	}
	if s.Listen != "" {
		cfg.Server.ListenAddr = s.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(ctx, root.Config, cfg, daemon.WithLogger(g.Logger))
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	g.Logger.Info("Starting autopipe daemon")
	return d.Run(ctx)
}
