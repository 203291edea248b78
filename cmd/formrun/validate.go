package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check scenarios against the form catalog without a browser",
		ArgsUsage: "[files or directories...]",
		Action:    runValidate,
	}
}

func runValidate(_ context.Context, cmd *cli.Command) error {
	st, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ws, err := loadWorkspace(cmd.Args().Slice(), st)
	if err != nil {
		return err
	}
	defer ws.cleanup()

	if err := ws.validate(); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	for _, ls := range ws.suites {
		fmt.Fprintf(os.Stdout, "ok  %s (%d cases)\n", ls.suite.Path, len(ls.suite.Cases))
	}

	return nil
}
