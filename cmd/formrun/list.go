package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/runner"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "Print the cases a test run would execute",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "run",
				Usage: "list only cases whose id matches pattern",
			},
			&cli.StringFlag{
				Name:  "where",
				Usage: "list only cases matching an expression",
			},
		},
		Action: runList,
	}
}

func runList(_ context.Context, cmd *cli.Command) error {
	st, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ws, err := loadWorkspace(cmd.Args().Slice(), st)
	if err != nil {
		return err
	}
	defer ws.cleanup()

	for _, ls := range ws.suites {
		cases, err := runner.Select(ls.suite, cmd.String("run"), cmd.String("where"))
		if err != nil {
			return err
		}

		if err := printCases(os.Stdout, ls.suite, cases); err != nil {
			return err
		}
	}

	return nil
}

func printCases(w io.Writer, suite *formrun.Suite, cases []*formrun.ScenarioCase) error {
	header := lipgloss.NewStyle().Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "EXPECT", "TAGS", "DESCRIPTION")

	for _, c := range cases {
		desc := c.Description
		if c.KnownDefect != "" {
			desc += " [known defect]"
		}

		t.Row(c.ID, c.Expect.String(), strings.Join(c.Tags, ","), desc)
	}

	_, err := fmt.Fprintf(w, "%s (%d of %d cases)\n%s\n", suite.Path, len(cases), len(suite.Cases), t.Render())

	return err
}
