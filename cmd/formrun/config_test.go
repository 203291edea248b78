package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/forms/practiceform"
)

const smallSuite = `name: small
cases:
  - id: ok
    fill: {}
    expect: accepted
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
}

func TestCollectSuiteFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "signup.scenarios.yaml"), smallSuite)
	writeFile(t, filepath.Join(dir, "a", "scenarios.yml"), smallSuite)
	writeFile(t, filepath.Join(dir, ".formrun.yaml"), "base_url: http://localhost\n")
	writeFile(t, filepath.Join(dir, "form.yaml"), "url: x\n")

	files, err := collectSuiteFiles([]string{dir})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a", "scenarios.yml"),
		filepath.Join(dir, "b", "signup.scenarios.yaml"),
	}, files)
}

func TestLoadWorkspace_BuiltIn(t *testing.T) {
	t.Parallel()

	ws, err := loadWorkspace(nil, &settings{cfg: &formrun.Config{}, dir: "."})
	require.NoError(t, err)

	require.Len(t, ws.suites, 1)

	fixtures := ws.suites[0].fixtures
	assert.FileExists(t, filepath.Join(fixtures, "k7.jpg"))
	require.NoError(t, ws.validate())

	ws.cleanup()
	assert.NoDirExists(t, fixtures)
}

func TestLoadWorkspace_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	writeFile(t, path, smallSuite)

	ws, err := loadWorkspace([]string{dir}, &settings{cfg: &formrun.Config{}, dir: "."})
	require.NoError(t, err)
	defer ws.cleanup()

	require.Len(t, ws.suites, 1)
	assert.Equal(t, "small", ws.suites[0].suite.Name)
	assert.Equal(t, dir, ws.suites[0].fixtures)
	assert.Contains(t, ws.files, path)
}

func TestLoadWorkspace_Empty(t *testing.T) {
	t.Parallel()

	_, err := loadWorkspace([]string{t.TempDir()}, &settings{cfg: &formrun.Config{}, dir: "."})
	assert.ErrorIs(t, err, ErrNoSuites)
}

func TestWorkspace_ValidateReportsAuthoringErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "scenarios.yaml"), `name: bad
cases:
  - id: nope
    inputs: {nickname: "x"}
    expect: accepted
`)

	ws, err := loadWorkspace([]string{dir}, &settings{cfg: &formrun.Config{}, dir: "."})
	require.NoError(t, err)
	defer ws.cleanup()

	assert.ErrorIs(t, ws.validate(), ErrInvalidSuites)
}

func TestPrintCases(t *testing.T) {
	t.Parallel()

	suite, err := practiceform.Suite()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printCases(&buf, suite, suite.Cases[:2]))

	out := buf.String()
	assert.Contains(t, out, "practiceform/scenarios.yaml (2 of")
	assert.Contains(t, out, "TC_01")
	assert.Contains(t, out, "TC_02")
	assert.NotContains(t, out, "TC_03")
}

func TestLoadWorkspace_FormReference(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "named", "scenarios.yaml"), "name: named\nform: practice-form\ncases: []\n")
	writeFile(t, filepath.Join(dir, "unknown", "scenarios.yaml"), "name: unknown\nform: checkout\ncases: []\n")

	ws, err := loadWorkspace([]string{filepath.Join(dir, "named")}, &settings{cfg: &formrun.Config{}, dir: "."})
	require.NoError(t, err)
	defer ws.cleanup()

	assert.Equal(t, "practice-form", ws.suites[0].form.Name)

	_, err = loadWorkspace([]string{filepath.Join(dir, "unknown")}, &settings{cfg: &formrun.Config{}, dir: "."})
	assert.ErrorIs(t, err, ErrUnknownForm)
}
