package formrun

import (
	"context"
	"fmt"
	"sort"
)

// ElementState is an instantaneous snapshot of one element. Found is false when
// nothing matches the selector; every other field is then zero.
type ElementState struct {
	Found   bool
	Visible bool
	Value   string
	Text    string
	Checked bool

	// Valid mirrors the element's native validity (input.validity.valid).
	Valid bool

	// BorderColor is the computed border-color style.
	BorderColor string

	Classes []string
}

// HasClass reports whether the element carries class.
func (s ElementState) HasClass(class string) bool {
	for _, c := range s.Classes {
		if c == class {
			return true
		}
	}

	return false
}

// Browser is the boundary to a live page. Selectors are CSS. Implementations
// act on rendered state directly and keep no model of the page. Calls that
// need an element fail when it is absent; waiting is the caller's concern.
type Browser interface {
	// Navigate loads url in the current tab.
	Navigate(ctx context.Context, url string) error

	// Query returns the state of the first element matching sel without waiting.
	Query(ctx context.Context, sel string) (ElementState, error)

	// Clear empties a text input.
	Clear(ctx context.Context, sel string) error

	// Type sends keystrokes to an element.
	Type(ctx context.Context, sel, text string) error

	// Click scrolls the element into view and clicks its centre.
	Click(ctx context.Context, sel string) error

	// ClickOutside clicks just outside the element's box at pos.
	ClickOutside(ctx context.Context, sel string, pos Position) error

	// ClickText clicks the first descendant of container whose text is text.
	ClickText(ctx context.Context, container, text string) error

	// SelectOption selects the option of a native select by label or value.
	SelectOption(ctx context.Context, sel, option string) error

	// SetFiles attaches files to a file input.
	SetFiles(ctx context.Context, sel string, paths ...string) error

	// Close releases the browser.
	Close() error
}

// BrowserOptions configures a browser backend.
type BrowserOptions struct {
	Headless     bool
	ExecPath     string
	WindowWidth  int
	WindowHeight int
}

// BrowserFactory creates a Browser.
type BrowserFactory func(ctx context.Context, opts BrowserOptions) (Browser, error)

var browsers = make(map[string]BrowserFactory)

// RegisterBrowser registers a browser backend by name.
func RegisterBrowser(name string, factory BrowserFactory) {
	browsers[name] = factory
}

// NewBrowser starts a registered backend.
//
//nolint:ireturn // Backends are selected by name at run time.
func NewBrowser(ctx context.Context, name string, opts BrowserOptions) (Browser, error) {
	factory, ok := browsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownBrowser, name, RegisteredBrowsers())
	}

	return factory(ctx, opts)
}

// RegisteredBrowsers returns the names of all registered backends.
func RegisteredBrowsers() []string {
	names := make([]string, 0, len(browsers))
	for name := range browsers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
