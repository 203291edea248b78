// Command formrun runs browser-driven scenarios against a registration form.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	// Register the chromedp backend via init().
	_ "github.com/rlch/formrun/browsers/chromedp"
)

func main() {
	// Load .env before flags resolve their FORMRUN_* sources.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: reading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func app() *cli.Command {
	return &cli.Command{
		Name:  "formrun",
		Usage: "Run registration form scenarios in a real browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: nearest .formrun.yaml)",
				Sources: cli.EnvVars("FORMRUN_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "form",
				Usage:   "form catalog (overrides config; default: built-in practice form)",
				Sources: cli.EnvVars("FORMRUN_FORM"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("FORMRUN_DEBUG"),
			},
		},
		Commands: []*cli.Command{
			testCommand(),
			validateCommand(),
			listCommand(),
		},
	}
}

// newLogger logs to stderr so stdout stays free for results.
func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)

	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}
