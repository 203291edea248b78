// Package browsertest provides an in-memory formrun.Browser for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/rlch/formrun"
)

// ErrNoElement is returned by interactions on a selector with no element.
var ErrNoElement = errors.New("browsertest: no element matches selector")

// Element is one element of the fake page.
type Element struct {
	formrun.ElementState

	// RenderAfter delays the element: it reports as absent for this many
	// queries after it was shown.
	RenderAfter int

	// Options are the choices of a native select.
	Options []string

	// Items are the texts ClickText can hit inside this element.
	Items []string
}

// Call records one interaction with the fake.
type Call struct {
	Op       string
	Selector string
	Arg      string
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Op + " " + c.Selector
	}

	return fmt.Sprintf("%s %s %q", c.Op, c.Selector, c.Arg)
}

// Hook reacts to an interaction.
type Hook func(b *Browser)

// Browser is a scriptable formrun.Browser. Elements are keyed by the exact
// selector the code under test uses.
type Browser struct {
	mu       sync.Mutex
	elements map[string]*Element
	calls    []Call
	hooks    map[string]Hook
	errs     map[string]error
	closed   bool

	// OnNavigate rebuilds the page on every navigation.
	OnNavigate Hook
}

// New creates an empty fake browser.
func New() *Browser {
	return &Browser{
		elements: make(map[string]*Element),
		hooks:    make(map[string]Hook),
		errs:     make(map[string]error),
	}
}

var _ formrun.Browser = (*Browser)(nil)

// Set attaches or replaces an element. Call it from hooks to change the page.
func (b *Browser) Set(sel string, el *Element) {
	el.Found = true
	b.elements[sel] = el
}

// Remove deletes an element.
func (b *Browser) Remove(sel string) {
	delete(b.elements, sel)
}

// Element returns the element at sel for direct manipulation inside hooks.
func (b *Browser) Element(sel string) (*Element, bool) {
	el, ok := b.elements[sel]

	return el, ok
}

// Reset removes every element.
func (b *Browser) Reset() {
	b.elements = make(map[string]*Element)
}

// On registers a hook for an interaction, keyed like "click #submit",
// "outside .modal-content" or "text [class*=\"-menu\"] NCR".
func (b *Browser) On(key string, h Hook) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hooks[key] = h
}

// Fail makes an interaction return err, keyed like On.
func (b *Browser) Fail(key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.errs[key] = err
}

// Calls returns the interactions recorded so far. Queries are not recorded.
func (b *Browser) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.calls)
}

// Closed reports whether Close was called.
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}

func (b *Browser) record(op, sel, arg string) {
	b.calls = append(b.calls, Call{Op: op, Selector: sel, Arg: arg})
}

func (b *Browser) fire(key string) error {
	if err, ok := b.errs[key]; ok {
		return err
	}

	if h, ok := b.hooks[key]; ok {
		h(b)
	}

	return nil
}

func (b *Browser) lookup(sel string) (*Element, error) {
	el, ok := b.elements[sel]
	if !ok || el.RenderAfter > 0 || !el.Found {
		return nil, fmt.Errorf("%w: %s", ErrNoElement, sel)
	}

	return el, nil
}

// Navigate implements formrun.Browser.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	b.record("navigate", url, "")

	if err, ok := b.errs["navigate "+url]; ok {
		return err
	}

	b.Reset()

	if b.OnNavigate != nil {
		b.OnNavigate(b)
	}

	return nil
}

// Query implements formrun.Browser.
func (b *Browser) Query(ctx context.Context, sel string) (formrun.ElementState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return formrun.ElementState{}, err
	}

	if err, ok := b.errs["query "+sel]; ok {
		return formrun.ElementState{}, err
	}

	el, ok := b.elements[sel]
	if !ok {
		return formrun.ElementState{}, nil
	}

	if el.RenderAfter > 0 {
		el.RenderAfter--

		return formrun.ElementState{}, nil
	}

	state := el.ElementState
	state.Classes = slices.Clone(el.Classes)

	return state, nil
}

// Clear implements formrun.Browser.
func (b *Browser) Clear(ctx context.Context, sel string) error {
	return b.mutate(ctx, "clear", sel, "", func(el *Element) {
		el.Value = ""
	})
}

// Type implements formrun.Browser. Like a keyboard, it appends.
func (b *Browser) Type(ctx context.Context, sel, text string) error {
	return b.mutate(ctx, "type", sel, text, func(el *Element) {
		el.Value += text
	})
}

// Click implements formrun.Browser.
func (b *Browser) Click(ctx context.Context, sel string) error {
	return b.mutate(ctx, "click", sel, "", nil)
}

// ClickOutside implements formrun.Browser.
func (b *Browser) ClickOutside(ctx context.Context, sel string, pos formrun.Position) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	b.record("outside", sel, string(pos))

	if _, err := b.lookup(sel); err != nil {
		return err
	}

	return b.fire("outside " + sel)
}

// ClickText implements formrun.Browser.
func (b *Browser) ClickText(ctx context.Context, container, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	b.record("text", container, text)

	el, err := b.lookup(container)
	if err != nil {
		return err
	}

	if !slices.Contains(el.Items, text) {
		return fmt.Errorf("%w: %s containing %q", ErrNoElement, container, text)
	}

	return b.fire("text " + container + " " + text)
}

// SelectOption implements formrun.Browser.
func (b *Browser) SelectOption(ctx context.Context, sel, option string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	b.record("select", sel, option)

	el, err := b.lookup(sel)
	if err != nil {
		return err
	}

	if !slices.Contains(el.Options, option) {
		return fmt.Errorf("%w: option %q of %s", ErrNoElement, option, sel)
	}

	el.Value = option

	return b.fire("select " + sel)
}

// SetFiles implements formrun.Browser. The reported value imitates the
// browser's fake path.
func (b *Browser) SetFiles(ctx context.Context, sel string, paths ...string) error {
	return b.mutate(ctx, "files", sel, filepath.Join(paths...), func(el *Element) {
		if len(paths) > 0 {
			el.Value = `C:\fakepath\` + filepath.Base(paths[0])
		}
	})
}

// Close implements formrun.Browser.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true

	return nil
}

func (b *Browser) mutate(ctx context.Context, op, sel, arg string, fn func(*Element)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	b.record(op, sel, arg)

	el, err := b.lookup(sel)
	if err != nil {
		return err
	}

	if err, ok := b.errs[op+" "+sel]; ok {
		return err
	}

	if fn != nil {
		fn(el)
	}

	return b.fire(op + " " + sel)
}
