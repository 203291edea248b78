package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/driver"
	"github.com/rlch/formrun/runner"
)

// watchDebounce is how long the tree must be quiet before a rerun.
const watchDebounce = 500 * time.Millisecond

func testCommand() *cli.Command {
	return &cli.Command{
		Name:      "test",
		Usage:     "Run scenarios against the live form",
		ArgsUsage: "[files or directories...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: tui, dots, verbose or json (default: tui)",
				Sources: cli.EnvVars("FORMRUN_FORMAT"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "shorthand for --format json",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "shorthand for --format verbose",
			},
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "stop on first failure",
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "run only cases whose id matches pattern",
			},
			&cli.StringFlag{
				Name:  "where",
				Usage: `run only cases matching an expression, e.g. '"email" in tags'`,
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "rerun when scenario, form or config files change",
			},
			&cli.BoolFlag{
				Name:    "headless",
				Usage:   "run the browser without a window (overrides config)",
				Value:   true,
				Sources: cli.EnvVars("FORMRUN_HEADLESS"),
			},
			&cli.StringFlag{
				Name:    "browser",
				Usage:   "browser backend (overrides config)",
				Sources: cli.EnvVars("FORMRUN_BROWSER"),
			},
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "entry point of the form (overrides config)",
				Sources: cli.EnvVars("FORMRUN_BASE_URL"),
			},
			&cli.StringFlag{
				Name:  "fixtures",
				Usage: "directory upload paths resolve against (overrides config)",
			},
		},
		Action: runTest,
	}
}

func runTest(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return err
	}

	defer func() { _ = logger.Sync() }()

	st, err := reloadSettings(cmd)
	if err != nil {
		return err
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("watch") {
		// The TUI owns the terminal and cannot be restarted between runs.
		if format == formatTUI {
			format = formatVerbose
		}

		return watch(ctx, cmd, st, logger, format)
	}

	ok, err := runOnce(ctx, cmd, st, logger, format)
	if err != nil {
		return err
	}

	if !ok {
		return cli.Exit("", 1)
	}

	return nil
}

// Output formats.
const (
	formatTUI     = "tui"
	formatDots    = "dots"
	formatVerbose = "verbose"
	formatJSON    = "json"
)

// outputFormat resolves --format and its shorthands.
func outputFormat(cmd *cli.Command) (string, error) {
	switch {
	case cmd.Bool("json"):
		return formatJSON, nil
	case cmd.Bool("verbose"):
		return formatVerbose, nil
	}

	switch format := cmd.String("format"); format {
	case "":
		return formatTUI, nil
	case formatTUI, formatDots, formatVerbose, formatJSON:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (want tui, dots, verbose or json)", ErrUnknownFormat, format)
	}
}

// applyTestFlags lets flags override the config file.
func applyTestFlags(cmd *cli.Command, cfg *formrun.Config) error {
	if cmd.IsSet("headless") {
		headless := cmd.Bool("headless")
		cfg.Browser.Headless = &headless
	}

	if name := cmd.String("browser"); name != "" {
		cfg.Browser.Name = name
	}

	if url := cmd.String("base-url"); url != "" {
		cfg.BaseURL = url
	}

	if dir := cmd.String("fixtures"); dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		cfg.Fixtures = abs
	}

	return nil
}

// runOnce loads, validates and runs every suite, reporting whether all passed.
func runOnce(ctx context.Context, cmd *cli.Command, st *settings, logger *zap.Logger, format string) (bool, error) {
	ws, err := loadWorkspace(cmd.Args().Slice(), st)
	if err != nil {
		return false, err
	}
	defer ws.cleanup()

	// Authoring errors abort before a browser is started.
	if err := ws.validate(); err != nil {
		return false, err
	}

	browser, err := formrun.NewBrowser(ctx, st.cfg.BrowserName(), st.cfg.Browser.Options())
	if err != nil {
		return false, fmt.Errorf("starting browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	var formatHandler runner.Handler

	if format == formatTUI {
		lists, err := ws.suiteLists(cmd.String("run"), cmd.String("where"))
		if err != nil {
			return false, err
		}

		tuiHandler := runner.NewTUIHandler(os.Stdout, os.Stderr)
		tuiHandler.SetSuites(lists)

		if err := tuiHandler.Start(); err != nil {
			return false, fmt.Errorf("failed to start TUI: %w", err)
		}

		formatHandler = tuiHandler
	} else {
		formatHandler = runner.NewFormatHandler(runner.NewFormatter(format, os.Stdout), os.Stderr)
	}

	var totalResult *runner.Result

	for _, ls := range ws.suites {
		suiteRunner := runner.New(
			runner.WithBrowser(browser),
			runner.WithDriverOptions(
				driver.WithTimeouts(st.cfg.Timeouts),
				driver.WithBaseURL(st.cfg.BaseURL),
				driver.WithFixtures(ls.fixtures),
			),
			runner.WithHandler(formatHandler),
			runner.WithFailFast(cmd.Bool("fail-fast")),
			runner.WithFilter(cmd.String("run")),
			runner.WithWhere(cmd.String("where")),
			runner.WithVerifySelection(st.cfg.VerifySelection),
			runner.WithLogger(logger),
		)

		result, err := suiteRunner.Run(ctx, ls.form, ls.suite)
		if result != nil {
			if totalResult == nil {
				totalResult = result
			} else {
				totalResult.Merge(result)
			}
		}

		if err != nil {
			if summarizer, ok := formatHandler.(runner.Summarizer); ok && totalResult != nil {
				_ = summarizer.Summary(totalResult)
			}

			return false, fmt.Errorf("running %s: %w", ls.suite.Path, err)
		}

		if cmd.Bool("fail-fast") && !result.Ok() {
			break
		}
	}

	if totalResult == nil {
		return true, nil
	}

	if summarizer, ok := formatHandler.(runner.Summarizer); ok {
		_ = summarizer.Summary(totalResult)
	}

	return totalResult.Ok(), nil
}

// watch reruns on every change to a file the last run read, until ctx ends.
func watch(ctx context.Context, cmd *cli.Command, st *settings, logger *zap.Logger, format string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	rerun := make(chan struct{}, 1)
	trigger := func() {
		select {
		case rerun <- struct{}{}:
		default:
		}
	}

	trigger()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}

			return nil

		case <-rerun:
			// Config edits apply on the next run.
			if reloaded, err := reloadSettings(cmd); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			} else {
				st = reloaded
			}

			if _, err := runOnce(ctx, cmd, st, logger, format); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}

			if err := watchFiles(watcher, cmd, st); err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, "watching for changes...")

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if ext := filepath.Ext(event.Name); ext != ".yaml" && ext != ".yml" {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}

			debounce = time.AfterFunc(watchDebounce, trigger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func reloadSettings(cmd *cli.Command) (*settings, error) {
	st, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	if err := applyTestFlags(cmd, st.cfg); err != nil {
		return nil, err
	}

	return st, nil
}

// watchFiles watches the directories of every file the workspace reads.
// Directories survive editors that save by rename.
func watchFiles(watcher *fsnotify.Watcher, cmd *cli.Command, st *settings) error {
	ws, err := loadWorkspace(cmd.Args().Slice(), st)
	if err != nil {
		// Keep the previous watch set; the next save may fix the file.
		return nil //nolint:nilerr // Reported by runOnce.
	}
	defer ws.cleanup()

	dirs := make(map[string]bool)
	for _, f := range ws.files {
		dirs[filepath.Dir(f)] = true
	}

	for _, a := range cmd.Args().Slice() {
		if info, err := os.Stat(a); err == nil && info.IsDir() {
			dirs[a] = true
		}
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	return nil
}
