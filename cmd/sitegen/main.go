package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitegen/cmd/sitegen/commands"
	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/version"
)

func main() {
	cli := &commands.CLI{}
	g := &commands.Global{Logger: slog.Default()}
	parser, err := commands.NewParser(cli, g, kong.Vars{"version": version.String()})
	if err != nil {
		ferrors.NewCLIErrorAdapter(false, nil).HandleError(
			ferrors.InternalError("build command line parser").WithCause(err).Build())
		return
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		var perr *kong.ParseError
		if errors.As(err, &perr) && perr.Context != nil {
			_ = perr.Context.PrintUsage(true)
		}
		ferrors.NewCLIErrorAdapter(false, nil).HandleError(
			ferrors.ValidationError(err.Error()).WithCause(err).Build())
		return
	}

	err = kctx.Run(g, cli)
	ferrors.NewCLIErrorAdapter(cli.Verbose, g.Logger).HandleError(err)
}
