// Package commands holds the kong command tree of the autopipe CLI.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/autopipe/internal/config"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
)

// Global carries process-wide state shared by subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
	Stdin  io.Reader
	Stderr io.Writer
}

// NewGlobal returns a Global wired to the process streams.
func NewGlobal() *Global {
	return &Global{Out: os.Stdout, Stdin: os.Stdin, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"autopipe.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API daemon"`
	Build    BuildCmd    `cmd:"" help:"Trigger one build, creating the job first if it does not exist"`
	Jobs     JobsCmd     `cmd:"" help:"List the jobs visible to the given credentials"`
	Generate GenerateCmd `cmd:"" help:"Print a generated job definition without contacting the CI server"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	MCP      MCPCmd      `cmd:"" name:"mcp" help:"Serve MCP tools on stdio"`

	cfg     *config.Config
	loadErr error
}

// AfterApply loads the configuration once and sets up logging from it. A broken
// configuration is reported by the commands that need it, so init can still repair it.
func (c *CLI) AfterApply(g *Global) error {
	c.cfg, c.loadErr = config.LoadOptional(c.Config)

	logging := config.Default().Logging
	if c.cfg != nil {
		logging = c.cfg.Logging
	}
	g.Logger = NewLogger(g.Stderr, logging, c.Verbose)
	slog.SetDefault(g.Logger)
	return nil
}

// LoadedConfig returns the configuration read in AfterApply.
func (c *CLI) LoadedConfig() (*config.Config, error) {
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	if c.cfg == nil {
		return nil, errors.InternalError("configuration not loaded").Build()
	}
	return c.cfg, nil
}

// NewLogger builds the process logger. verbose forces debug level.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// readFile reads a user-supplied artifact. Failures are usage errors.
func readFile(path, what string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "cannot read "+what+" file").
			WithContext("path", path).
			Build()
	}
	return string(data), nil
}
