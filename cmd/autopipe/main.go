package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/autopipe/cmd/autopipe/commands"
	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], commands.NewGlobal()))
}

// run parses args, executes the selected command and returns the process exit code.
func run(args []string, global *commands.Global) int {
	cli := &commands.CLI{}
	parser, err := kong.New(cli,
		kong.Name("autopipe"),
		kong.Description("Trigger CI builds and create missing pipeline jobs on demand."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
		kong.Writers(global.Out, global.Stderr),
		kong.Exit(func(code int) { panic(exitCode(code)) }),
	)
	if err != nil {
		return 1
	}

	code := 0
	func() {
		defer func() {
			if r := recover(); r != nil {
				c, ok := r.(exitCode)
				if !ok {
					panic(r)
				}
				code = int(c)
			}
		}()

		kctx, perr := parser.Parse(args)
		if perr != nil {
			parser.Errorf("%s", perr)
			code = errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(errors.ValidationError(perr.Error()).Build())
			return
		}
		if rerr := kctx.Run(global, cli); rerr != nil {
			adapter := errors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
			adapter.Report(global.Stderr, rerr)
			code = adapter.ExitCodeFor(rerr)
		}
	}()
	return code
}

// exitCode lets kong's --help and --version exits unwind to run instead of terminating tests.
type exitCode int
