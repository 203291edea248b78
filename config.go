package formrun

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the .formrun.yaml configuration file.
type Config struct {
	// BaseURL overrides the entry point declared by the form catalog.
	BaseURL string `yaml:"base_url,omitempty"`

	// Form is a path to a form catalog; empty selects the built-in practice form.
	Form string `yaml:"form,omitempty"`

	// Fixtures is the directory relative upload paths resolve against.
	// Defaults to the directory of the suite file.
	Fixtures string `yaml:"fixtures,omitempty"`

	// VerifySelection makes the form filler confirm radio selections.
	VerifySelection bool `yaml:"verify_selection,omitempty"`

	Browser  BrowserConfig `yaml:"browser,omitempty"`
	Timeouts Timeouts      `yaml:"timeouts,omitempty"`
}

// BrowserConfig selects and configures the browser backend.
type BrowserConfig struct {
	Name         string `yaml:"name,omitempty"`
	Headless     *bool  `yaml:"headless,omitempty"`
	ExecPath     string `yaml:"exec_path,omitempty"`
	WindowWidth  int    `yaml:"window_width,omitempty"`
	WindowHeight int    `yaml:"window_height,omitempty"`
}

// Options converts the config to backend options.
func (b BrowserConfig) Options() BrowserOptions {
	headless := true
	if b.Headless != nil {
		headless = *b.Headless
	}

	return BrowserOptions{
		Headless:     headless,
		ExecPath:     b.ExecPath,
		WindowWidth:  b.WindowWidth,
		WindowHeight: b.WindowHeight,
	}
}

// Timeouts bounds every wait on the live page.
type Timeouts struct {
	// Wait bounds a single wait for an element or condition.
	Wait time.Duration `yaml:"wait,omitempty"`

	// Settle is how long a surface must stay absent before absence is accepted.
	Settle time.Duration `yaml:"settle,omitempty"`

	// Poll is the interval between checks of a condition.
	Poll time.Duration `yaml:"poll,omitempty"`

	// Ready bounds navigation until the form's root is visible.
	Ready time.Duration `yaml:"ready,omitempty"`
}

// DefaultTimeouts are used for unset entries.
var DefaultTimeouts = Timeouts{
	Wait:   4 * time.Second,
	Settle: 1500 * time.Millisecond,
	Poll:   100 * time.Millisecond,
	Ready:  30 * time.Second,
}

// WithDefaults fills zero entries from DefaultTimeouts.
func (t Timeouts) WithDefaults() Timeouts {
	if t.Wait == 0 {
		t.Wait = DefaultTimeouts.Wait
	}

	if t.Settle == 0 {
		t.Settle = DefaultTimeouts.Settle
	}

	if t.Poll == 0 {
		t.Poll = DefaultTimeouts.Poll
	}

	if t.Ready == 0 {
		t.Ready = DefaultTimeouts.Ready
	}

	return t
}

// BrowserName returns the configured backend, defaulting to chromedp.
func (c *Config) BrowserName() string {
	if c.Browser.Name == "" {
		return BrowserChromedp
	}

	return c.Browser.Name
}

// Validate checks the config for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	for name, d := range map[string]time.Duration{
		"wait":   c.Timeouts.Wait,
		"settle": c.Timeouts.Settle,
		"poll":   c.Timeouts.Poll,
		"ready":  c.Timeouts.Ready,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("timeouts.%s is negative", name))
		}
	}

	t := c.Timeouts.WithDefaults()
	if t.Poll > t.Wait {
		errs = append(errs, fmt.Errorf("timeouts.poll (%s) exceeds timeouts.wait (%s)", t.Poll, t.Wait))
	}

	if c.Browser.WindowWidth < 0 || c.Browser.WindowHeight < 0 {
		errs = append(errs, errors.New("browser window size is negative"))
	}

	return errors.Join(errs...)
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".formrun.yaml", ".formrun.yml", "formrun.yaml", "formrun.yml"}

// LoadConfig finds and loads the nearest .formrun.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}
