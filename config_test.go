package formrun_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/formrun"
)

func TestLoadConfig_WalksUp(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "suites", "signup")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	require.NoError(t, os.WriteFile(filepath.Join(root, ".formrun.yaml"), []byte(`
base_url: http://localhost:3000/form
fixtures: testdata
verify_selection: true
browser:
  headless: false
  window_width: 1280
timeouts:
  wait: 2s
`), 0o600))

	cfg, err := formrun.LoadConfig(nested)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000/form", cfg.BaseURL)
	assert.Equal(t, "testdata", cfg.Fixtures)
	assert.True(t, cfg.VerifySelection)
	assert.Equal(t, formrun.BrowserChromedp, cfg.BrowserName())

	opts := cfg.Browser.Options()
	assert.False(t, opts.Headless)
	assert.Equal(t, 1280, opts.WindowWidth)

	timeouts := cfg.Timeouts.WithDefaults()
	assert.Equal(t, 2*time.Second, timeouts.Wait)
	assert.Equal(t, formrun.DefaultTimeouts.Settle, timeouts.Settle)
	assert.Equal(t, formrun.DefaultTimeouts.Ready, timeouts.Ready)
}

func TestFindConfig_NotFound(t *testing.T) {
	t.Parallel()

	// A temp dir may sit under a directory with its own config; only assert
	// that a miss reports the sentinel.
	_, err := formrun.FindConfig(t.TempDir())
	if err != nil {
		assert.ErrorIs(t, err, formrun.ErrConfigNotFound)
	}
}

func TestBrowserOptions_HeadlessByDefault(t *testing.T) {
	t.Parallel()

	assert.True(t, formrun.BrowserConfig{}.Options().Headless)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  formrun.Config
		want string
	}{
		{"negative wait", formrun.Config{Timeouts: formrun.Timeouts{Wait: -time.Second}}, "timeouts.wait is negative"},
		{"poll above wait", formrun.Config{Timeouts: formrun.Timeouts{Wait: time.Second, Poll: 2 * time.Second}}, "exceeds timeouts.wait"},
		{"window", formrun.Config{Browser: formrun.BrowserConfig{WindowWidth: -1}}, "window size is negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorContains(t, tt.cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, (&formrun.Config{}).Validate())
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "formrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeouts: {poll: 10s, wait: 1s}\n"), 0o600))

	_, err := formrun.LoadConfigFile(path)
	assert.ErrorContains(t, err, "exceeds timeouts.wait")
}

func TestNewBrowser_Unknown(t *testing.T) {
	t.Parallel()

	_, err := formrun.NewBrowser(t.Context(), "netscape", formrun.BrowserOptions{})
	assert.ErrorIs(t, err, formrun.ErrUnknownBrowser)
}
