// Package driver performs and observes field-level interactions on a live form.
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/formrun"
)

// FieldState is the externally observable state of a field.
type FieldState struct {
	Value       string
	Checked     bool
	Valid       bool
	BorderColor string
	Classes     []string
}

// HasClass reports whether the field carries class.
func (s FieldState) HasClass(class string) bool {
	return formrun.ElementState{Classes: s.Classes}.HasClass(class)
}

// Driver is a façade over direct interaction with one form. It keeps no model
// of the page: every read goes to the browser.
type Driver struct {
	browser  formrun.Browser
	form     *formrun.Form
	timeouts formrun.Timeouts
	baseURL  string
	fixtures string
	logger   *zap.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithTimeouts sets the bounded waits. Zero entries keep their defaults.
func WithTimeouts(t formrun.Timeouts) Option {
	return func(d *Driver) {
		d.timeouts = t.WithDefaults()
	}
}

// WithBaseURL overrides the form's entry point.
func WithBaseURL(url string) Option {
	return func(d *Driver) {
		d.baseURL = url
	}
}

// WithFixtures sets the directory relative upload paths resolve against.
func WithFixtures(dir string) Option {
	return func(d *Driver) {
		d.fixtures = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// New creates a Driver for form on browser.
func New(browser formrun.Browser, form *formrun.Form, opts ...Option) *Driver {
	d := &Driver{
		browser:  browser,
		form:     form,
		timeouts: formrun.DefaultTimeouts,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Form returns the catalog the driver acts on.
func (d *Driver) Form() *formrun.Form { return d.form }

// Timeouts returns the bounded waits in effect.
func (d *Driver) Timeouts() formrun.Timeouts { return d.timeouts }

// URL returns the entry point navigated to.
func (d *Driver) URL() string {
	if d.baseURL != "" {
		return d.baseURL
	}

	return d.form.URL
}

// Navigate loads the entry point and waits until the form's root is visible.
func (d *Driver) Navigate(ctx context.Context) error {
	url := d.URL()
	d.logger.Debug("navigate", zap.String("url", url))

	navCtx, cancel := context.WithTimeout(ctx, d.timeouts.Ready)
	defer cancel()

	if err := d.browser.Navigate(navCtx, url); err != nil {
		return &formrun.SetupFailure{URL: url, Err: err}
	}

	if _, err := d.waitFor(ctx, d.form.Root.Selector(), "root", d.timeouts.Ready, isVisible); err != nil {
		return &formrun.SetupFailure{URL: url, Err: err}
	}

	return nil
}

// SetValue replaces the content of a text field.
func (d *Driver) SetValue(ctx context.Context, field, value string) error {
	fs, err := d.field(field, formrun.KindText, formrun.KindDate)
	if err != nil {
		return err
	}

	d.logger.Debug("set value", zap.String("field", field), zap.Int("length", len(value)))

	sel := fs.Selector()
	if _, err := d.waitFor(ctx, sel, field, d.timeouts.Wait, isVisible); err != nil {
		return err
	}

	if err := d.browser.Clear(ctx, sel); err != nil {
		return interaction("clear", field, err)
	}

	if value == "" {
		return nil
	}

	if err := d.browser.Type(ctx, sel, value); err != nil {
		return interaction("type", field, err)
	}

	return nil
}

// Select picks one option of a radio group.
func (d *Driver) Select(ctx context.Context, field, option string) error {
	fs, err := d.field(field, formrun.KindRadio)
	if err != nil {
		return err
	}

	d.logger.Debug("select", zap.String("field", field), zap.String("option", option))

	return d.clickLabel(ctx, fs, option)
}

// Toggle flips one option of a checkbox group.
func (d *Driver) Toggle(ctx context.Context, field, option string) error {
	fs, err := d.field(field, formrun.KindCheckbox)
	if err != nil {
		return err
	}

	d.logger.Debug("toggle", zap.String("field", field), zap.String("option", option))

	return d.clickLabel(ctx, fs, option)
}

func (d *Driver) clickLabel(ctx context.Context, fs *formrun.FieldSpec, option string) error {
	label, err := fs.LabelSelector(option)
	if err != nil {
		return err
	}

	if _, err := d.waitFor(ctx, label, fs.Name+"/"+option, d.timeouts.Wait, isVisible); err != nil {
		return err
	}

	if err := d.browser.Click(ctx, label); err != nil {
		return interaction("click", fs.Name+"/"+option, err)
	}

	return nil
}

// Choose opens a dropdown and clicks the entry labelled option in its menu.
func (d *Driver) Choose(ctx context.Context, field, option string) error {
	fs, err := d.field(field, formrun.KindSelect)
	if err != nil {
		return err
	}

	if fs.Menu == nil {
		return &formrun.MalformedCaseError{Reason: fmt.Sprintf("field %s has no menu locator", field)}
	}

	d.logger.Debug("choose", zap.String("field", field), zap.String("option", option))

	if err := d.click(ctx, fs.Selector(), field); err != nil {
		return err
	}

	menu := fs.Menu.Selector()
	if _, err := d.waitFor(ctx, menu, field+" menu", d.timeouts.Wait, isVisible); err != nil {
		return err
	}

	if err := d.browser.ClickText(ctx, menu, option); err != nil {
		return interaction("choose", field+"/"+option, err)
	}

	return nil
}

// PickDate opens a date picker and selects year, month and day.
func (d *Driver) PickDate(ctx context.Context, field string, year int, month string, day int) error {
	fs, err := d.field(field, formrun.KindDate)
	if err != nil {
		return err
	}

	if fs.Date == nil {
		return &formrun.MalformedCaseError{Reason: fmt.Sprintf("field %s has no date parts", field)}
	}

	d.logger.Debug("pick date", zap.String("field", field),
		zap.Int("year", year), zap.String("month", month), zap.Int("day", day))

	if err := d.click(ctx, fs.Selector(), field); err != nil {
		return err
	}

	if err := d.selectNative(ctx, fs.Date.Year.Selector(), field+" year", strconv.Itoa(year)); err != nil {
		return err
	}

	if err := d.selectNative(ctx, fs.Date.Month.Selector(), field+" month", month); err != nil {
		return err
	}

	return d.click(ctx, fs.Date.DaySelector(day), field+" day "+strconv.Itoa(day))
}

func (d *Driver) selectNative(ctx context.Context, sel, name, option string) error {
	if _, err := d.waitFor(ctx, sel, name, d.timeouts.Wait, isVisible); err != nil {
		return err
	}

	if err := d.browser.SelectOption(ctx, sel, option); err != nil {
		return interaction("select", name+"/"+option, err)
	}

	return nil
}

// ChooseFile attaches a file to an upload control and returns the value the
// control reports afterwards.
func (d *Driver) ChooseFile(ctx context.Context, field, path string) (string, error) {
	fs, err := d.field(field, formrun.KindFile)
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(path) && d.fixtures != "" {
		path = filepath.Join(d.fixtures, path)
	}

	d.logger.Debug("choose file", zap.String("field", field), zap.String("path", path))

	sel := fs.Selector()
	if _, err := d.waitFor(ctx, sel, field, d.timeouts.Wait, isAttached); err != nil {
		return "", err
	}

	if err := d.browser.SetFiles(ctx, sel, path); err != nil {
		return "", interaction("upload", field, err)
	}

	state, err := d.ReadState(ctx, field)
	if err != nil {
		return "", err
	}

	return state.Value, nil
}

// ReadState returns a field's observable state once it is attached.
func (d *Driver) ReadState(ctx context.Context, field string) (FieldState, error) {
	fs, err := d.field(field)
	if err != nil {
		return FieldState{}, err
	}

	el, err := d.waitFor(ctx, fs.Selector(), field, d.timeouts.Wait, isAttached)
	if err != nil {
		return FieldState{}, err
	}

	return FieldState{
		Value:       el.Value,
		Checked:     el.Checked,
		Valid:       el.Valid,
		BorderColor: el.BorderColor,
		Classes:     el.Classes,
	}, nil
}

// OptionChecked reports whether the control behind an option is checked.
func (d *Driver) OptionChecked(ctx context.Context, field, option string) (bool, error) {
	fs, err := d.field(field, formrun.KindRadio, formrun.KindCheckbox)
	if err != nil {
		return false, err
	}

	sel, err := fs.ControlSelector(option)
	if err != nil {
		return false, err
	}

	el, err := d.waitFor(ctx, sel, field+"/"+option, d.timeouts.Wait, isAttached)
	if err != nil {
		return false, err
	}

	return el.Checked, nil
}

// AwaitChecked waits until the control behind an option reports checked.
func (d *Driver) AwaitChecked(ctx context.Context, field, option string) error {
	fs, err := d.field(field, formrun.KindRadio, formrun.KindCheckbox)
	if err != nil {
		return err
	}

	sel, err := fs.ControlSelector(option)
	if err != nil {
		return err
	}

	_, err = d.waitFor(ctx, sel, field+"/"+option, d.timeouts.Wait, func(s formrun.ElementState) bool {
		return s.Found && s.Checked
	})
	if errors.Is(err, formrun.ErrTimeout) {
		return &formrun.SelectionNotAppliedError{Field: field, Option: option, Wait: d.timeouts.Wait}
	}

	return err
}

// Submit clicks the form's submit control once.
func (d *Driver) Submit(ctx context.Context) error {
	d.logger.Debug("submit")

	return d.click(ctx, d.form.Submit.Selector(), "submit")
}

// ClickOutside clicks just outside a surface, at pos on its box.
func (d *Driver) ClickOutside(ctx context.Context, surface string, pos formrun.Position) error {
	l, err := d.form.Surface(surface)
	if err != nil {
		return err
	}

	if pos == "" {
		pos = formrun.TopRight
	}

	d.logger.Debug("click outside", zap.String("surface", surface), zap.String("position", string(pos)))

	sel := l.Selector()
	if _, err := d.waitFor(ctx, sel, surface, d.timeouts.Wait, isVisible); err != nil {
		return err
	}

	if err := d.browser.ClickOutside(ctx, sel, pos); err != nil {
		return interaction("click outside", surface, err)
	}

	return nil
}

// Surface returns the instantaneous state of a named surface.
func (d *Driver) Surface(ctx context.Context, name string) (formrun.ElementState, error) {
	l, err := d.form.Surface(name)
	if err != nil {
		return formrun.ElementState{}, err
	}

	qctx, cancel := context.WithTimeout(ctx, d.timeouts.Wait)
	defer cancel()

	el, err := d.browser.Query(qctx, l.Selector())
	if err != nil {
		return formrun.ElementState{}, interaction("query", name, err)
	}

	return el, nil
}

// AwaitSurface waits until a surface is visible (shown) or gone (!shown).
func (d *Driver) AwaitSurface(ctx context.Context, name string, shown bool, within time.Duration) (formrun.ElementState, error) {
	l, err := d.form.Surface(name)
	if err != nil {
		return formrun.ElementState{}, err
	}

	cond := isVisible
	if !shown {
		cond = func(s formrun.ElementState) bool { return !s.Found || !s.Visible }
	}

	return d.waitFor(ctx, l.Selector(), name, within, cond)
}

// SurfaceStaysHidden watches a surface for the whole window and reports the
// first visible state seen, if any. Absence is only accepted once the window
// has passed.
func (d *Driver) SurfaceStaysHidden(ctx context.Context, name string, window time.Duration) (formrun.ElementState, bool, error) {
	l, err := d.form.Surface(name)
	if err != nil {
		return formrun.ElementState{}, false, err
	}

	el, err := d.waitFor(ctx, l.Selector(), name, window, isVisible)

	switch {
	case err == nil:
		return el, false, nil
	case errors.Is(err, formrun.ErrTimeout):
		return formrun.ElementState{}, true, nil
	default:
		return formrun.ElementState{}, false, err
	}
}

func (d *Driver) click(ctx context.Context, sel, name string) error {
	if _, err := d.waitFor(ctx, sel, name, d.timeouts.Wait, isVisible); err != nil {
		return err
	}

	if err := d.browser.Click(ctx, sel); err != nil {
		return interaction("click", name, err)
	}

	return nil
}

func (d *Driver) field(name string, kinds ...formrun.FieldKind) (*formrun.FieldSpec, error) {
	fs, err := d.form.Field(name)
	if err != nil {
		return nil, err
	}

	if len(kinds) == 0 {
		return fs, nil
	}

	for _, k := range kinds {
		if fs.Kind == k {
			return fs, nil
		}
	}

	return nil, &formrun.MalformedCaseError{Reason: fmt.Sprintf("field %s is %s, want one of %v", name, fs.Kind, kinds)}
}

func interaction(op, target string, err error) error {
	return &formrun.InteractionError{Op: op, Target: target, Err: err}
}
