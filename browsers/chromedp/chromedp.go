// Package chromedp drives a Chrome instance over the DevTools protocol.
//
// Importing the package registers the "chromedp" browser backend.
package chromedp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/rlch/formrun"
)

func init() {
	formrun.RegisterBrowser(formrun.BrowserChromedp, New)
}

var (
	errNoNode = errors.New("chromedp: no element matches selector")
	errNoText = errors.New("chromedp: no element with text")
)

// Browser is a formrun.Browser backed by one Chrome tab.
type Browser struct {
	ctx         context.Context //nolint:containedctx // chromedp scopes the tab to a context.
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

var _ formrun.Browser = (*Browser)(nil)

// New launches Chrome and opens a tab.
//
//nolint:ireturn // Matches formrun.BrowserFactory.
func New(ctx context.Context, opts formrun.BrowserOptions) (formrun.Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}

	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()

		return nil, fmt.Errorf("chromedp: start: %w", err)
	}

	return &Browser{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(b.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc

		rctx, cancelDeadline = context.WithDeadline(rctx, deadline)
		defer cancelDeadline()
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(rctx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		return err
	}

	return nil
}

// query options shared by every selector-based action: act on the first
// match and fail instead of waiting when there is none.
var byQuery = []chromedp.QueryOption{chromedp.ByQuery, chromedp.AtLeast(0)}

func (b *Browser) requireNode(ctx context.Context, sel string) error {
	state, err := b.Query(ctx, sel)
	if err != nil {
		return err
	}

	if !state.Found {
		return fmt.Errorf("%w: %s", errNoNode, sel)
	}

	return nil
}

// Navigate implements formrun.Browser.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

type elementState struct {
	Found       bool     `json:"found"`
	Visible     bool     `json:"visible"`
	Value       string   `json:"value"`
	Text        string   `json:"text"`
	Checked     bool     `json:"checked"`
	Valid       bool     `json:"valid"`
	BorderColor string   `json:"borderColor"`
	Classes     []string `json:"classes"`
}

const queryJS = `(function(sel) {
	const el = document.querySelector(sel);
	if (!el) return {found: false};
	const r = el.getBoundingClientRect();
	const cs = getComputedStyle(el);
	return {
		found: true,
		visible: r.width > 0 && r.height > 0 && cs.visibility !== 'hidden' && cs.display !== 'none',
		value: ('value' in el && el.value != null) ? String(el.value) : '',
		text: el.innerText || el.textContent || '',
		checked: !!el.checked,
		valid: el.validity ? el.validity.valid : true,
		borderColor: cs.borderColor,
		classes: Array.from(el.classList),
	};
})(%s)`

func script(tmpl string, args ...any) (string, error) {
	quoted := make([]any, len(args))

	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return "", err
		}

		quoted[i] = string(data)
	}

	return fmt.Sprintf(tmpl, quoted...), nil
}

// Query implements formrun.Browser.
func (b *Browser) Query(ctx context.Context, sel string) (formrun.ElementState, error) {
	js, err := script(queryJS, sel)
	if err != nil {
		return formrun.ElementState{}, err
	}

	var s elementState
	if err := b.run(ctx, chromedp.Evaluate(js, &s)); err != nil {
		return formrun.ElementState{}, err
	}

	return formrun.ElementState(s), nil
}

// Clear implements formrun.Browser.
func (b *Browser) Clear(ctx context.Context, sel string) error {
	if err := b.requireNode(ctx, sel); err != nil {
		return err
	}

	return b.run(ctx, chromedp.Clear(sel, byQuery...))
}

// Type implements formrun.Browser.
func (b *Browser) Type(ctx context.Context, sel, text string) error {
	if err := b.requireNode(ctx, sel); err != nil {
		return err
	}

	return b.run(ctx, chromedp.SendKeys(sel, text, byQuery...))
}

// Click implements formrun.Browser.
func (b *Browser) Click(ctx context.Context, sel string) error {
	if err := b.requireNode(ctx, sel); err != nil {
		return err
	}

	return b.run(ctx,
		chromedp.ScrollIntoView(sel, byQuery...),
		chromedp.Click(sel, byQuery...),
	)
}

type rect struct {
	X, Y, Width, Height float64
}

type boxInfo struct {
	Found     bool    `json:"found"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	ViewportW float64 `json:"vw"`
	ViewportH float64 `json:"vh"`
}

const boxJS = `(function(sel) {
	const el = document.querySelector(sel);
	if (!el) return {found: false};
	const r = el.getBoundingClientRect();
	return {found: true, x: r.x, y: r.y, width: r.width, height: r.height,
		vw: window.innerWidth, vh: window.innerHeight};
})(%s)`

// outsideGap is how far beyond the box ClickOutside clicks.
const outsideGap = 10

// outsidePoint returns a point just outside r at pos, kept inside the viewport.
func outsidePoint(r rect, pos formrun.Position, vw, vh float64) (x, y float64) {
	left, right := r.X-outsideGap, r.X+r.Width+outsideGap
	top, bottom := r.Y-outsideGap, r.Y+r.Height+outsideGap
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2

	switch pos {
	case formrun.TopLeft:
		x, y = left, top
	case formrun.Top:
		x, y = cx, top
	case formrun.Left:
		x, y = left, cy
	case formrun.Right:
		x, y = right, cy
	case formrun.BottomLeft:
		x, y = left, bottom
	case formrun.Bottom:
		x, y = cx, bottom
	case formrun.BottomRight:
		x, y = right, bottom
	default:
		x, y = right, top
	}

	return clamp(x, 1, vw-1), clamp(y, 1, vh-1)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}

	return min(max(v, lo), hi)
}

// ClickOutside implements formrun.Browser.
func (b *Browser) ClickOutside(ctx context.Context, sel string, pos formrun.Position) error {
	js, err := script(boxJS, sel)
	if err != nil {
		return err
	}

	var box boxInfo
	if err := b.run(ctx, chromedp.Evaluate(js, &box)); err != nil {
		return err
	}

	if !box.Found {
		return fmt.Errorf("%w: %s", errNoNode, sel)
	}

	x, y := outsidePoint(rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, pos, box.ViewportW, box.ViewportH)

	return b.run(ctx, chromedp.MouseClickXY(x, y))
}

const textJS = `(function(container, text) {
	const root = document.querySelector(container);
	if (!root) return {found: false};
	const nodes = [root, ...root.querySelectorAll('*')];
	let hit = null;
	for (const n of nodes) {
		if ((n.innerText || n.textContent || '').trim() === text) hit = n;
	}
	if (!hit) return {found: false};
	hit.scrollIntoView({block: 'center'});
	const r = hit.getBoundingClientRect();
	return {found: true, x: r.x, y: r.y, width: r.width, height: r.height,
		vw: window.innerWidth, vh: window.innerHeight};
})(%s, %s)`

// ClickText implements formrun.Browser. The deepest element whose trimmed text
// equals text is clicked at its centre.
func (b *Browser) ClickText(ctx context.Context, container, text string) error {
	js, err := script(textJS, container, text)
	if err != nil {
		return err
	}

	var box boxInfo
	if err := b.run(ctx, chromedp.Evaluate(js, &box)); err != nil {
		return err
	}

	if !box.Found {
		return fmt.Errorf("%w %q in %s", errNoText, text, container)
	}

	return b.run(ctx, chromedp.MouseClickXY(box.X+box.Width/2, box.Y+box.Height/2))
}

const selectJS = `(function(sel, option) {
	const el = document.querySelector(sel);
	if (!el) return 'missing';
	const opt = Array.from(el.options || []).find(o => o.value === option || o.text.trim() === option);
	if (!opt) return 'no-option';
	const setter = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, 'value').set;
	setter.call(el, opt.value);
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return 'ok';
})(%s, %s)`

// SelectOption implements formrun.Browser. The value is set through the
// native setter so framework-controlled selects observe the change event.
func (b *Browser) SelectOption(ctx context.Context, sel, option string) error {
	js, err := script(selectJS, sel, option)
	if err != nil {
		return err
	}

	var status string
	if err := b.run(ctx, chromedp.Evaluate(js, &status)); err != nil {
		return err
	}

	switch status {
	case "ok":
		return nil
	case "missing":
		return fmt.Errorf("%w: %s", errNoNode, sel)
	default:
		return fmt.Errorf("chromedp: %s has no option %q", sel, option)
	}
}

// SetFiles implements formrun.Browser.
func (b *Browser) SetFiles(ctx context.Context, sel string, paths ...string) error {
	if err := b.requireNode(ctx, sel); err != nil {
		return err
	}

	return b.run(ctx, chromedp.SetUploadFiles(sel, paths, byQuery...))
}

// Close implements formrun.Browser.
func (b *Browser) Close() error {
	b.cancel()
	b.allocCancel()

	return nil
}
