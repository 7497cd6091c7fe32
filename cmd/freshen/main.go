// Package main provides the freshen CLI entrypoint.
//
// Usage:
//
//	freshen <command> [options]
//
// stamp is the only command that writes anything; everything else is
// read-only against a deployed manifest, the build ledger, or a check
// journal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/buildinfo"
	"github.com/freshen-dev/freshen/cli/cmd"
	"github.com/freshen-dev/freshen/types"
)

func main() {
	app := &cli.App{
		Name:           "freshen",
		Usage:          "Build stamping and stale-client detection toolchain",
		Version:        fmt.Sprintf("%s (build: %s)", types.Version, buildinfo.Version()),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.StampCommand(),
			cmd.WatchCommand(),
			cmd.InspectCommand(),
			cmd.BuildsCommand(),
			cmd.JournalCommand(),
			cmd.VersionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
