// Package verify checks a scenario's expected outcome against the live form.
package verify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/driver"
)

var colorFunc = regexp.MustCompile(`^(rgb|rgba|hsl|hsla)\(`)

// Verifier evaluates outcomes through a driver.
type Verifier struct {
	driver *driver.Driver
	logger *zap.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Verifier) {
		v.logger = l
	}
}

// New creates a Verifier.
func New(d *driver.Driver, opts ...Option) *Verifier {
	v := &Verifier{driver: d, logger: zap.NewNop()}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify returns nil when o holds. A mismatch is an *formrun.AssertionFailure;
// any other error means the page could not be observed.
func (v *Verifier) Verify(ctx context.Context, o formrun.Outcome) error {
	v.logger.Debug("verify", zap.Stringer("outcome", o))

	switch o.Kind {
	case formrun.OutcomeAccepted:
		return v.accepted(ctx, o.TextContains)
	case formrun.OutcomeRejected:
		return v.rejected(ctx, o.InvalidFields)
	case formrun.OutcomeFlagged:
		return v.flagged(ctx, o.Field, o.Flag)
	case formrun.OutcomeUnchecked:
		return v.unchecked(ctx, o.Field)
	case formrun.OutcomeChecked:
		if err := v.checked(ctx, o.Field, o.Options); err != nil {
			return err
		}

		return v.accepted(ctx, "")
	case formrun.OutcomeDismissed:
		return v.dismissed(ctx)
	default:
		return &formrun.MalformedCaseError{Reason: fmt.Sprintf("no expected outcome (%q)", o.Kind)}
	}
}

func (v *Verifier) accepted(ctx context.Context, text string) error {
	t := v.driver.Timeouts()

	el, err := v.driver.AwaitSurface(ctx, formrun.SurfaceConfirmation, true, t.Wait)
	if errors.Is(err, formrun.ErrTimeout) {
		return failure(formrun.ExpectedConfirmationMissing, "", "confirmation visible", "no confirmation within "+t.Wait.String())
	}

	if err != nil {
		return err
	}

	if text != "" && !strings.Contains(el.Text, text) {
		return failure(formrun.ConfirmationTextMismatch, "", text, el.Text)
	}

	return nil
}

func (v *Verifier) rejected(ctx context.Context, invalid []string) error {
	t := v.driver.Timeouts()

	el, hidden, err := v.driver.SurfaceStaysHidden(ctx, formrun.SurfaceConfirmation, t.Settle)
	if err != nil {
		return err
	}

	if !hidden {
		return failure(formrun.UnexpectedConfirmationShown, "", "no confirmation", fmt.Sprintf("confirmation %q", el.Text))
	}

	for _, field := range invalid {
		state, err := v.driver.ReadState(ctx, field)
		if err != nil {
			return err
		}

		if state.Valid {
			return failure(formrun.MissingInvalidSignal, field, validity{Valid: false}, validity{Valid: true})
		}
	}

	return nil
}

type validity struct{ Valid bool }

type marker struct {
	Valid       bool
	BorderColor string
	Classes     []string
}

func (v *Verifier) flagged(ctx context.Context, field string, flag formrun.Flag) error {
	state, err := v.driver.ReadState(ctx, field)
	if err != nil {
		return err
	}

	form := v.driver.Form()
	if HasFlag(form, state, flag) {
		return nil
	}

	observed := marker{Valid: state.Valid, BorderColor: state.BorderColor, Classes: state.Classes}

	return failure(formrun.FlagNotSet, field, string(flag), observed)
}

// HasFlag reports whether state carries flag on form.
func HasFlag(form *formrun.Form, state driver.FieldState, flag formrun.Flag) bool {
	switch flag {
	case formrun.FlagInvalid:
		return !state.Valid
	case formrun.FlagErrorStyle:
		if form.ErrorClass != "" && state.HasClass(form.ErrorClass) {
			return true
		}

		c := strings.TrimSpace(state.BorderColor)

		return colorFunc.MatchString(c) && (form.DefaultBorderColor == "" || c != form.DefaultBorderColor)
	case formrun.FlagErrorClass:
		return form.ErrorClass != "" && state.HasClass(form.ErrorClass)
	default:
		return false
	}
}

func (v *Verifier) options(ctx context.Context, field string) (map[string]bool, error) {
	fs, err := v.driver.Form().Field(field)
	if err != nil {
		return nil, err
	}

	checked := make(map[string]bool, len(fs.Options))

	for _, label := range fs.OptionLabels() {
		ok, err := v.driver.OptionChecked(ctx, field, label)
		if err != nil {
			return nil, err
		}

		checked[label] = ok
	}

	return checked, nil
}

func (v *Verifier) unchecked(ctx context.Context, field string) error {
	observed, err := v.options(ctx, field)
	if err != nil {
		return err
	}

	expected := make(map[string]bool, len(observed))
	for label := range observed {
		expected[label] = false
	}

	if !cmp.Equal(expected, observed) {
		return failure(formrun.FlagNotSet, field, "nothing checked", observed)
	}

	return nil
}

func (v *Verifier) checked(ctx context.Context, field string, want []string) error {
	observed, err := v.options(ctx, field)
	if err != nil {
		return err
	}

	expected := make(map[string]bool, len(want))
	got := make(map[string]bool, len(want))

	for _, label := range want {
		expected[label] = true
		got[label] = observed[label]
	}

	if !cmp.Equal(expected, got) {
		return failure(formrun.FlagNotSet, field, expected, got)
	}

	return nil
}

func (v *Verifier) dismissed(ctx context.Context) error {
	t := v.driver.Timeouts()

	_, err := v.driver.AwaitSurface(ctx, formrun.SurfaceConfirmation, false, t.Wait)
	if errors.Is(err, formrun.ErrTimeout) {
		observed, qerr := v.driver.Surface(ctx, formrun.SurfaceConfirmation)
		if qerr != nil {
			return failure(formrun.ConfirmationNotDismissed, "", "confirmation closed", fmt.Sprintf("confirmation still visible (query failed: %v)", qerr))
		}

		return failure(formrun.ConfirmationNotDismissed, "", "confirmation closed", fmt.Sprintf("confirmation %q still visible", observed.Text))
	}

	return err
}

func failure(kind formrun.FailureKind, field string, expected, observed any) *formrun.AssertionFailure {
	f := &formrun.AssertionFailure{
		Kind:     kind,
		Field:    field,
		Expected: render(expected),
		Observed: render(observed),
	}

	if _, ok := expected.(string); !ok {
		f.Diff = cmp.Diff(expected, observed)
	}

	return f
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%+v", v)
}
