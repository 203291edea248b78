package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/boyter/gocodewalker"
	"github.com/urfave/cli/v3"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/forms/practiceform"
	"github.com/rlch/formrun/runner"
)

// Command errors.
var (
	ErrNoSuites      = errors.New("no scenario files found (expected *scenarios.yaml)")
	ErrInvalidSuites = errors.New("scenario files contain authoring errors")
	ErrUnknownForm   = errors.New("suite names an unknown form")
	ErrUnknownFormat = errors.New("unknown output format")
)

// suiteSuffixes name the files collected from directory arguments.
var suiteSuffixes = []string{"scenarios.yaml", "scenarios.yml"}

// settings is the loaded config plus where its relative paths resolve.
type settings struct {
	cfg  *formrun.Config
	dir  string
	path string
}

func loadSettings(cmd *cli.Command) (*settings, error) {
	st := &settings{cfg: &formrun.Config{}, dir: "."}

	path := cmd.String("config")
	if path == "" {
		found, err := formrun.FindConfig(".")

		switch {
		case errors.Is(err, formrun.ErrConfigNotFound):
		case err != nil:
			return nil, err
		default:
			path = found
		}
	}

	if path != "" {
		cfg, err := formrun.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}

		st.cfg = cfg
		st.dir = filepath.Dir(path)
		st.path = path
	}

	// Flag paths are relative to the working directory, not the config.
	if form := cmd.String("form"); form != "" {
		abs, err := filepath.Abs(form)
		if err != nil {
			return nil, err
		}

		st.cfg.Form = abs
	}

	return st, nil
}

func (s *settings) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(s.dir, p)
}

// loadedSuite is a suite with the catalog and fixture directory it runs with.
type loadedSuite struct {
	suite    *formrun.Suite
	form     *formrun.Form
	fixtures string
}

// workspace is everything read for one invocation.
type workspace struct {
	suites  []loadedSuite
	files   []string
	cleanup func()
}

// loadWorkspace loads the suites named by args. With no args the built-in
// practice form suite is used and its fixtures are unpacked to a temp dir.
func loadWorkspace(args []string, st *settings) (*workspace, error) {
	ws := &workspace{cleanup: func() {}}

	if st.path != "" {
		ws.files = append(ws.files, st.path)
	}

	forms := make(map[string]*formrun.Form)

	defaultForm, err := ws.form(forms, st.resolve(st.cfg.Form))
	if err != nil {
		return nil, err
	}

	if len(args) == 0 {
		suite, err := practiceform.Suite()
		if err != nil {
			return nil, err
		}

		fixtures := st.resolve(st.cfg.Fixtures)
		if fixtures == "" {
			dir, err := os.MkdirTemp("", "formrun-fixtures-")
			if err != nil {
				return nil, err
			}

			ws.cleanup = func() { _ = os.RemoveAll(dir) }

			if err := practiceform.WriteFixtures(dir); err != nil {
				ws.cleanup()

				return nil, fmt.Errorf("unpacking fixtures: %w", err)
			}

			fixtures = dir
		}

		ws.suites = append(ws.suites, loadedSuite{suite: suite, form: defaultForm, fixtures: fixtures})

		return ws, nil
	}

	files, err := collectSuiteFiles(args)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoSuites
	}

	for _, file := range files {
		suite, err := formrun.LoadSuite(file)
		if err != nil {
			return nil, err
		}

		ws.files = append(ws.files, file)

		form, err := ws.suiteForm(forms, defaultForm, file, suite.Form)
		if err != nil {
			return nil, err
		}

		fixtures := st.resolve(st.cfg.Fixtures)
		if fixtures == "" {
			fixtures = filepath.Dir(file)
		}

		ws.suites = append(ws.suites, loadedSuite{suite: suite, form: form, fixtures: fixtures})
	}

	return ws, nil
}

// form loads and caches a catalog; an empty path is the practice form.
func (ws *workspace) form(cache map[string]*formrun.Form, path string) (*formrun.Form, error) {
	if path == "" {
		return practiceform.Form(), nil
	}

	if f, ok := cache[path]; ok {
		return f, nil
	}

	f, err := formrun.LoadForm(path)
	if err != nil {
		return nil, err
	}

	cache[path] = f
	ws.files = append(ws.files, path)

	return f, nil
}

// suiteForm resolves a suite's form reference. A name must match the default
// catalog; a YAML path is loaded relative to the suite file.
func (ws *workspace) suiteForm(cache map[string]*formrun.Form, def *formrun.Form, file, ref string) (*formrun.Form, error) {
	if ref == "" || ref == def.Name {
		return def, nil
	}

	if ext := filepath.Ext(ref); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%s: %w: %q (default catalog is %q)", file, ErrUnknownForm, ref, def.Name)
	}

	if !filepath.IsAbs(ref) {
		ref = filepath.Join(filepath.Dir(file), ref)
	}

	return ws.form(cache, ref)
}

// validate reports every authoring error to stderr and fails if any exist.
func (ws *workspace) validate() error {
	var failed bool

	for _, ls := range ws.suites {
		if err := formrun.Validate(ls.form, ls.suite); err != nil {
			failed = true

			fmt.Fprintf(os.Stderr, "%s: error: %v\n", ls.suite.Path, err)
		}
	}

	if failed {
		return ErrInvalidSuites
	}

	return nil
}

// suiteLists builds the TUI case lists for the cases a run will execute.
func (ws *workspace) suiteLists(pattern, where string) ([]runner.SuiteList, error) {
	lists := make([]runner.SuiteList, 0, len(ws.suites))

	for _, ls := range ws.suites {
		sl, err := runner.BuildSelectedSuiteList(ls.suite, pattern, where)
		if err != nil {
			return nil, err
		}

		lists = append(lists, sl)
	}

	return lists, nil
}

func isSuiteFile(path string) bool {
	base := filepath.Base(path)

	for _, suffix := range suiteSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	return false
}

// collectSuiteFiles expands directories into their suite files. Files named
// explicitly are taken as is.
func collectSuiteFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)

			continue
		}

		var mu sync.Mutex

		err = walkDir(arg, func(path string) {
			if !isSuiteFile(path) {
				return
			}

			mu.Lock()
			files = append(files, path)
			mu.Unlock()
		})
		if err != nil {
			return nil, err
		}
	}

	// The walker delivers files concurrently.
	slices.Sort(files)

	return slices.Compact(files), nil
}

// walkDir walks a directory for YAML files, respecting .gitignore.
func walkDir(root string, callback func(path string)) error {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = []string{"yaml", "yml"}

	var walkErr error

	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e

		return true
	})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for f := range fileListQueue {
			callback(f.Location)
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return err
	}

	wg.Wait()

	return walkErr
}
