package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/driver"
	"github.com/rlch/formrun/filler"
	"github.com/rlch/formrun/verify"
)

// Runner executes scenario suites one case at a time.
type Runner struct {
	browser         formrun.Browser
	driverOpts      []driver.Option
	handler         Handler
	failFast        bool
	pattern         string
	where           string
	verifySelection bool
	logger          *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithBrowser sets the browser cases run in.
func WithBrowser(b formrun.Browser) Option {
	return func(r *Runner) {
		r.browser = b
	}
}

// WithDriverOptions passes options to the field driver (timeouts, base URL,
// fixtures directory).
func WithDriverOptions(opts ...driver.Option) Option {
	return func(r *Runner) {
		r.driverOpts = append(r.driverOpts, opts...)
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithFailFast stops on first failure.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// WithFilter sets a regex pattern to filter which cases run.
// Cases whose id matches the pattern will be executed.
func WithFilter(pattern string) Option {
	return func(r *Runner) {
		r.pattern = pattern
	}
}

// WithWhere sets a boolean expression over case metadata (id, description,
// tags, outcome, field, known_defect, fill) that selects cases.
func WithWhere(expression string) Option {
	return func(r *Runner) {
		r.where = expression
	}
}

// WithVerifySelection makes the form filler confirm the gender selection.
func WithVerifySelection(enabled bool) Option {
	return func(r *Runner) {
		r.verifySelection = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run validates suite against form and executes every selected case in order.
// Authoring errors abort before the browser is touched. Case-level failures
// never stop the run unless fail-fast is enabled.
func (r *Runner) Run(ctx context.Context, form *formrun.Form, suite *formrun.Suite) (*Result, error) {
	if err := formrun.Validate(form, suite); err != nil {
		return nil, err
	}

	if r.browser == nil {
		return nil, ErrNoBrowser
	}

	sel, err := compileSelector(r.pattern, r.where)
	if err != nil {
		return nil, err
	}

	result := NewResult()

	handlers := []Handler{NewResultHandler()}
	if r.handler != nil {
		handlers = append(handlers, r.handler)
	}

	if r.failFast {
		handlers = append(handlers, NewStopOnFailHandler(1))
	}

	logger := r.logger.With(zap.String("run", result.RunID), zap.String("suite", suite.Name))

	d := driver.New(r.browser, form, append(slices.Clone(r.driverOpts), driver.WithLogger(logger))...)

	x := &execution{
		suite:   suitePath(suite),
		driver:  d,
		filler:  filler.New(d, filler.WithVerify(r.verifySelection), filler.WithLogger(logger)),
		verify:  verify.New(d, verify.WithLogger(logger)),
		handler: NewMultiHandler(handlers...),
		result:  result,
		logger:  logger,
	}

	cases, err := sel.cases(suite)
	if err != nil {
		result.Finish()

		return result, err
	}

	for i, c := range cases {
		err := x.run(ctx, c)
		if errors.Is(err, ErrMaxFailures) {
			// The rest of the selection still yields one result each.
			for _, rest := range cases[i+1:] {
				if err := x.skip(ctx, rest); err != nil {
					result.Finish()

					return result, err
				}
			}

			break
		}

		if err != nil {
			result.Finish()

			return result, err
		}
	}

	result.Finish()

	return result, nil
}

func suitePath(s *formrun.Suite) string {
	if s.Path != "" {
		return s.Path
	}

	return s.Name
}

// execution carries one run's collaborators across cases.
type execution struct {
	suite   string
	driver  *driver.Driver
	filler  *filler.Filler
	verify  *verify.Verifier
	handler Handler
	result  *Result
	logger  *zap.Logger
}

// run executes one case and emits its terminal event. The returned error is
// the handler's, never the case's.
func (x *execution) run(ctx context.Context, c *formrun.ScenarioCase) error {
	start := time.Now()
	state := StatePending

	emit := func(e Event) error {
		e.Time = time.Now()
		e.Suite = x.suite
		e.Case = c.ID
		e.Description = c.Description
		e.KnownDefect = c.KnownDefect

		return x.handler.Event(ctx, e, x.result)
	}

	advance := func(s State) {
		state = s
		_ = emit(Event{Action: ActionState, State: s})
	}

	observe := func(output string) {
		_ = emit(Event{Action: ActionOutput, Output: output})
	}

	_ = emit(Event{Action: ActionRun, State: state})

	err := x.steps(ctx, c, advance, observe)

	log := x.logger.With(zap.String("case", c.ID), zap.Duration("elapsed", time.Since(start)))

	var failure *formrun.AssertionFailure

	reached := state

	switch {
	case err == nil:
		advance(StatePassed)
		log.Debug("case passed")

		return emit(Event{Action: ActionPass, State: reached, Elapsed: time.Since(start)})
	case errors.As(err, &failure):
		advance(StateFailed)
		log.Debug("case failed", zap.String("kind", string(failure.Kind)))

		return emit(Event{Action: ActionFail, State: reached, Elapsed: time.Since(start), Error: err, Failure: failure})
	default:
		advance(StateFailed)
		log.Debug("case errored", zap.String("state", string(reached)), zap.Error(err))

		return emit(Event{Action: ActionError, State: reached, Elapsed: time.Since(start), Error: err})
	}
}

// skip emits the terminal event of a case that was selected but not run.
func (x *execution) skip(ctx context.Context, c *formrun.ScenarioCase) error {
	x.logger.Debug("case skipped", zap.String("case", c.ID))

	return x.handler.Event(ctx, Event{
		Time:        time.Now(),
		Action:      ActionSkip,
		Suite:       x.suite,
		Case:        c.ID,
		State:       StatePending,
		Description: c.Description,
		KnownDefect: c.KnownDefect,
	}, x.result)
}

func (x *execution) steps(ctx context.Context, c *formrun.ScenarioCase, advance func(State), observe func(string)) error {
	if err := x.driver.Navigate(ctx); err != nil {
		return err
	}

	advance(StateNavigated)
	advance(StateInputting)

	if c.Fill != nil {
		if err := x.filler.FillBasics(ctx, filler.Resolve(c.Fill)); err != nil {
			return err
		}
	}

	for _, fs := range x.driver.Form().Fields {
		val, ok := c.Inputs[fs.Name]
		if !ok {
			continue
		}

		if err := x.input(ctx, fs, val, observe); err != nil {
			return err
		}
	}

	for _, a := range c.Actions {
		if err := x.apply(ctx, a, observe); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
	}

	if err := x.driver.Submit(ctx); err != nil {
		return err
	}

	advance(StateSubmitted)

	if len(c.After) > 0 {
		wait := x.driver.Timeouts().Wait

		_, err := x.driver.AwaitSurface(ctx, formrun.SurfaceConfirmation, true, wait)
		if errors.Is(err, formrun.ErrTimeout) {
			return &formrun.AssertionFailure{
				Kind:     formrun.ExpectedConfirmationMissing,
				Expected: "confirmation visible",
				Observed: "no confirmation within " + wait.String(),
			}
		}

		if err != nil {
			return err
		}

		for _, a := range c.After {
			if err := x.apply(ctx, a, observe); err != nil {
				return fmt.Errorf("%s: %w", a, err)
			}
		}
	}

	err := x.verify.Verify(ctx, c.Expect)
	if err == nil || errors.Is(err, formrun.ErrAssertion) {
		advance(StateVerified)
	}

	return err
}

func (x *execution) input(ctx context.Context, fs *formrun.FieldSpec, val formrun.InputValue, observe func(string)) error {
	switch fs.Kind {
	case formrun.KindText, formrun.KindDate:
		return x.driver.SetValue(ctx, fs.Name, val.Single())
	case formrun.KindRadio:
		return x.driver.Select(ctx, fs.Name, val.Single())
	case formrun.KindCheckbox:
		for _, option := range val {
			checked, err := x.driver.OptionChecked(ctx, fs.Name, option)
			if err != nil {
				return err
			}

			if checked {
				continue
			}

			if err := x.driver.Toggle(ctx, fs.Name, option); err != nil {
				return err
			}
		}

		return nil
	case formrun.KindSelect:
		return x.driver.Choose(ctx, fs.Name, val.Single())
	case formrun.KindFile:
		return x.upload(ctx, fs.Name, val.Single(), observe)
	default:
		return &formrun.MalformedCaseError{Reason: fmt.Sprintf("field %s has unknown kind %q", fs.Name, fs.Kind)}
	}
}

func (x *execution) apply(ctx context.Context, a formrun.Action, observe func(string)) error {
	switch a.Kind {
	case formrun.ActionType:
		return x.driver.SetValue(ctx, a.Field, a.Value)
	case formrun.ActionSelect:
		return x.driver.Select(ctx, a.Field, a.Option)
	case formrun.ActionToggle:
		for _, option := range a.Options {
			if err := x.driver.Toggle(ctx, a.Field, option); err != nil {
				return err
			}
		}

		return nil
	case formrun.ActionChoose:
		return x.driver.Choose(ctx, a.Field, a.Option)
	case formrun.ActionPickDate:
		return x.driver.PickDate(ctx, a.Field, a.Year, a.Month, a.Day)
	case formrun.ActionUpload:
		return x.upload(ctx, a.Field, a.Path, observe)
	case formrun.ActionClickOutside:
		return x.driver.ClickOutside(ctx, a.Surface, a.Position)
	default:
		return &formrun.MalformedCaseError{Reason: fmt.Sprintf("unknown action %q", a.Kind)}
	}
}

func (x *execution) upload(ctx context.Context, field, path string, observe func(string)) error {
	value, err := x.driver.ChooseFile(ctx, field, path)
	if err != nil {
		return err
	}

	observe(fmt.Sprintf("%s: %s", field, value))

	return nil
}
