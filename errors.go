package formrun

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .formrun.yaml is found.
	ErrConfigNotFound = errors.New("formrun: no .formrun.yaml found")

	// ErrUnknownBrowser is returned when an unregistered browser backend is requested.
	ErrUnknownBrowser = errors.New("formrun: unknown browser")
)

// Error classes. Every error produced while loading or running a suite matches
// exactly one of these with errors.Is.
var (
	ErrAuthoring   = errors.New("authoring error")
	ErrInteraction = errors.New("interaction error")
	ErrTimeout     = errors.New("timeout")
	ErrAssertion   = errors.New("assertion failure")
)

// Classify returns the error class of err, or nil when err is not part of the taxonomy.
func Classify(err error) error {
	for _, class := range []error{ErrAuthoring, ErrTimeout, ErrAssertion, ErrInteraction} {
		if errors.Is(err, class) {
			return class
		}
	}

	return nil
}

// -----------------------------------------------------------------------------
// Authoring errors
// -----------------------------------------------------------------------------

// UnknownFieldError is returned when a case or call names a field the form does not define.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrAuthoring }

// UnknownOptionError is returned for an option label a field does not offer.
type UnknownOptionError struct {
	Field  string
	Option string
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("field %q has no option %q", e.Field, e.Option)
}

func (e *UnknownOptionError) Is(target error) bool { return target == ErrAuthoring }

// InvalidGenderError is returned by the form filler for a gender outside the closed mapping.
type InvalidGenderError struct {
	Value string
}

func (e *InvalidGenderError) Error() string {
	return fmt.Sprintf("invalid gender %q provided", e.Value)
}

func (e *InvalidGenderError) Is(target error) bool { return target == ErrAuthoring }

// MalformedCaseError reports a structurally invalid scenario case or form.
type MalformedCaseError struct {
	Case   string
	Reason string
}

func (e *MalformedCaseError) Error() string {
	if e.Case == "" {
		return "malformed: " + e.Reason
	}

	return fmt.Sprintf("case %s: %s", e.Case, e.Reason)
}

func (e *MalformedCaseError) Is(target error) bool { return target == ErrAuthoring }

// ActionSyntaxError reports an action string that does not parse.
type ActionSyntaxError struct {
	Source string
	Err    error
}

func (e *ActionSyntaxError) Error() string {
	return fmt.Sprintf("action %q: %v", e.Source, e.Err)
}

func (e *ActionSyntaxError) Unwrap() error { return e.Err }

func (e *ActionSyntaxError) Is(target error) bool { return target == ErrAuthoring }

// -----------------------------------------------------------------------------
// Interaction and timeout errors
// -----------------------------------------------------------------------------

// InteractionError wraps a failure reported by the browser while acting on a target.
type InteractionError struct {
	Op     string
	Target string
	Err    error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

func (e *InteractionError) Is(target error) bool { return target == ErrInteraction }

// SelectionNotAppliedError is returned when a clicked control never reports checked.
type SelectionNotAppliedError struct {
	Field  string
	Option string
	Wait   time.Duration
}

func (e *SelectionNotAppliedError) Error() string {
	return fmt.Sprintf("%s %q not checked after %s", e.Field, e.Option, e.Wait)
}

func (e *SelectionNotAppliedError) Is(target error) bool { return target == ErrInteraction }

// SetupFailure is returned when the form's entry point never becomes ready.
type SetupFailure struct {
	URL string
	Err error
}

func (e *SetupFailure) Error() string {
	return fmt.Sprintf("setup %s: %v", e.URL, e.Err)
}

func (e *SetupFailure) Unwrap() error { return e.Err }

func (e *SetupFailure) Is(target error) bool { return target == ErrInteraction }

// FieldNotReadyError is returned when a bounded wait on a field or surface expires.
type FieldNotReadyError struct {
	Field string
	Wait  time.Duration
}

func (e *FieldNotReadyError) Error() string {
	return fmt.Sprintf("%s not ready after %s", e.Field, e.Wait)
}

func (e *FieldNotReadyError) Is(target error) bool { return target == ErrTimeout }

// -----------------------------------------------------------------------------
// Assertion failures
// -----------------------------------------------------------------------------

// FailureKind categorizes an assertion failure.
type FailureKind string

// Failure kinds.
const (
	ExpectedConfirmationMissing FailureKind = "ExpectedConfirmationMissing"
	UnexpectedConfirmationShown FailureKind = "UnexpectedConfirmationShown"
	ConfirmationTextMismatch    FailureKind = "ConfirmationTextMismatch"
	ConfirmationNotDismissed    FailureKind = "ConfirmationNotDismissed"
	MissingInvalidSignal        FailureKind = "MissingInvalidSignal"
	FlagNotSet                  FailureKind = "FlagNotSet"
)

// AssertionFailure is an outcome mismatch with expected and observed detail.
type AssertionFailure struct {
	Kind     FailureKind
	Field    string
	Expected string
	Observed string
	Diff     string
}

func (e *AssertionFailure) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))

	if e.Field != "" {
		fmt.Fprintf(&b, "(%s)", e.Field)
	}

	fmt.Fprintf(&b, ": expected %s, observed %s", e.Expected, e.Observed)

	return b.String()
}

func (e *AssertionFailure) Is(target error) bool { return target == ErrAssertion }

// Detail renders the failure as an expected/observed block followed by the diff.
func (e *AssertionFailure) Detail() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s", e.Kind)

	if e.Field != "" {
		fmt.Fprintf(&b, " on %s", e.Field)
	}

	fmt.Fprintf(&b, "\n  expected: %s\n  observed: %s\n", e.Expected, e.Observed)

	if e.Diff != "" {
		fmt.Fprintf(&b, "  diff (-expected +observed):\n%s", indent(e.Diff, "    "))
	}

	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}

	return strings.Join(lines, "\n") + "\n"
}
