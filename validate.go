package formrun

import (
	"errors"
	"fmt"
	"slices"
)

// ValidateForm checks a form catalog for structural problems.
func ValidateForm(f *Form) error {
	var errs []error

	bad := func(format string, args ...any) {
		errs = append(errs, &MalformedCaseError{Reason: fmt.Sprintf("form %s: ", f.Name) + fmt.Sprintf(format, args...)})
	}

	if f.URL == "" {
		bad("url is empty")
	}

	if f.Root.IsZero() {
		bad("root locator is empty")
	}

	if f.Submit.IsZero() {
		bad("submit locator is empty")
	}

	if _, err := f.Surface(SurfaceConfirmation); err != nil {
		bad("no %q surface", SurfaceConfirmation)
	}

	seen := make(map[string]bool)

	for _, fs := range f.Fields {
		switch {
		case fs.Name == "":
			bad("field with empty name")

			continue
		case seen[fs.Name]:
			bad("duplicate field %q", fs.Name)
		}

		seen[fs.Name] = true

		if !fs.Kind.Valid() {
			bad("field %s: unknown kind %q", fs.Name, fs.Kind)
		}

		if fs.Locator.IsZero() {
			bad("field %s: empty locator", fs.Name)
		}

		if fs.Kind.HasOptions() && len(fs.Options) == 0 {
			bad("field %s: %s field without options", fs.Name, fs.Kind)
		}

		if fs.Kind == KindSelect && fs.Menu == nil {
			bad("field %s: select field without menu locator", fs.Name)
		}
	}

	basics := []struct {
		name string
		kind FieldKind
	}{
		{f.Basics.FirstName, KindText},
		{f.Basics.LastName, KindText},
		{f.Basics.Email, KindText},
		{f.Basics.Phone, KindText},
		{f.Basics.Gender, KindRadio},
	}

	for _, b := range basics {
		if b.name == "" {
			continue
		}

		fs, err := f.Field(b.name)
		if err != nil {
			bad("basics: %v", err)

			continue
		}

		if fs.Kind != b.kind {
			bad("basics: field %s is %s, want %s", fs.Name, fs.Kind, b.kind)
		}
	}

	return errors.Join(errs...)
}

// Validate checks every case of a suite against the form it targets. It never
// touches a browser, so authoring errors surface before a run starts.
func Validate(f *Form, s *Suite) error {
	var errs []error

	seen := make(map[string]bool)

	for i, c := range s.Cases {
		if c.ID == "" {
			errs = append(errs, &MalformedCaseError{Case: fmt.Sprintf("#%d", i+1), Reason: "empty id"})

			continue
		}

		if seen[c.ID] {
			errs = append(errs, &MalformedCaseError{Case: c.ID, Reason: "duplicate id"})
		}

		seen[c.ID] = true

		if err := ValidateCase(f, c); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ValidateCase checks one case against a form.
func ValidateCase(f *Form, c *ScenarioCase) error {
	v := caseValidator{form: f, c: c}

	v.fill()
	v.inputs()

	for _, a := range c.Actions {
		v.action(a)
	}

	for _, a := range c.After {
		v.action(a)
	}

	v.expect()

	return errors.Join(v.errs...)
}

type caseValidator struct {
	form *Form
	c    *ScenarioCase
	errs []error
}

func (v *caseValidator) add(err error) {
	v.errs = append(v.errs, fmt.Errorf("case %s: %w", v.c.ID, err))
}

func (v *caseValidator) malformed(format string, args ...any) {
	v.errs = append(v.errs, &MalformedCaseError{Case: v.c.ID, Reason: fmt.Sprintf(format, args...)})
}

func (v *caseValidator) field(name string, kinds ...FieldKind) *FieldSpec {
	fs, err := v.form.Field(name)
	if err != nil {
		v.add(err)

		return nil
	}

	if len(kinds) > 0 && !slices.Contains(kinds, fs.Kind) {
		v.malformed("field %s is %s, want one of %v", name, fs.Kind, kinds)

		return nil
	}

	return fs
}

func (v *caseValidator) options(fs *FieldSpec, labels ...string) {
	for _, l := range labels {
		if _, err := fs.Control(l); err != nil {
			v.add(err)
		}
	}
}

func (v *caseValidator) fill() {
	if v.c.Fill == nil {
		return
	}

	b := v.form.Basics
	if b.FirstName == "" || b.LastName == "" || b.Email == "" || b.Phone == "" || b.Gender == "" {
		v.malformed("fill used but form %s does not map every basic field", v.form.Name)

		return
	}

	if g := v.c.Fill.Gender; g != nil {
		if fs := v.field(b.Gender, KindRadio); fs != nil {
			if _, ok := fs.Options[*g]; !ok {
				v.add(&InvalidGenderError{Value: *g})
			}
		}
	}
}

func (v *caseValidator) inputs() {
	for name, val := range v.c.Inputs {
		fs := v.field(name)
		if fs == nil {
			continue
		}

		switch fs.Kind {
		case KindCheckbox:
			v.options(fs, val...)
		case KindRadio:
			if len(val) != 1 {
				v.malformed("input %s takes one value, got %d", name, len(val))
			}

			v.options(fs, val...)
		case KindSelect:
			if len(val) != 1 {
				v.malformed("input %s takes one value, got %d", name, len(val))
			}
		case KindText, KindDate, KindFile:
			if len(val) != 1 {
				v.malformed("input %s takes one value, got %d", name, len(val))
			}
		}
	}
}

func (v *caseValidator) action(a Action) {
	kinds, ok := KnownActions[a.Kind]
	if !ok {
		v.malformed("unknown action %q", a.Kind)

		return
	}

	if a.Kind == ActionClickOutside {
		if _, err := v.form.Surface(a.Surface); err != nil {
			v.add(err)
		}

		if a.Position != "" && !a.Position.Valid() {
			v.malformed("click-outside: unknown position %q", a.Position)
		}

		return
	}

	fs := v.field(a.Field, kinds...)
	if fs == nil {
		return
	}

	switch a.Kind {
	case ActionSelect:
		v.options(fs, a.Option)
	case ActionToggle:
		v.options(fs, a.Options...)
	case ActionChoose:
		if a.Option == "" {
			v.malformed("choose %s: empty option", a.Field)
		}
	case ActionPickDate:
		if fs.Date == nil {
			v.malformed("pick-date %s: field has no date parts", a.Field)
		}

		if a.Month == "" || a.Day < 1 || a.Day > 31 || a.Year <= 0 {
			v.malformed("pick-date %s: invalid date %d %s %d", a.Field, a.Year, a.Month, a.Day)
		}
	case ActionUpload:
		if a.Path == "" {
			v.malformed("upload %s: empty path", a.Field)
		}
	case ActionType, ActionClickOutside:
	}
}

func (v *caseValidator) expect() {
	o := v.c.Expect

	switch o.Kind {
	case OutcomeAccepted:
	case OutcomeRejected:
		for _, name := range o.InvalidFields {
			v.field(name)
		}
	case OutcomeFlagged:
		v.field(o.Field)

		if !o.Flag.Valid() {
			v.malformed("flagged %s: unknown flag %q", o.Field, o.Flag)
		}
	case OutcomeUnchecked:
		v.field(o.Field, KindRadio, KindCheckbox)
	case OutcomeChecked:
		if fs := v.field(o.Field, KindRadio, KindCheckbox); fs != nil {
			v.options(fs, o.Options...)
		}

		if len(o.Options) == 0 {
			v.malformed("checked %s: no options", o.Field)
		}
	case OutcomeDismissed:
		if len(v.c.After) == 0 {
			v.malformed("dismissed outcome needs after actions")
		}
	default:
		v.malformed("no expected outcome")
	}

	if len(v.c.After) > 0 && o.Kind != OutcomeDismissed {
		v.malformed("after actions are only valid with a dismissed outcome")
	}
}
