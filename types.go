package formrun

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Locators
// =============================================================================

// Locator finds an element on the page. Exactly one strategy is set. The
// class_contains strategy targets generated CSS-module class names by fragment so
// a form catalog survives rebuilds of the target application.
type Locator struct {
	CSS           string `yaml:"css,omitempty"`
	ID            string `yaml:"id,omitempty"`
	ClassContains string `yaml:"class_contains,omitempty"`
}

// CSS returns a Locator for a literal CSS selector.
func CSS(selector string) Locator { return Locator{CSS: selector} }

// ByID returns a Locator for an element id.
func ByID(id string) Locator { return Locator{ID: id} }

// ClassContains returns a Locator matching any element whose class attribute contains frag.
func ClassContains(frag string) Locator { return Locator{ClassContains: frag} }

// IsZero reports whether no strategy is set.
func (l Locator) IsZero() bool {
	return l.CSS == "" && l.ID == "" && l.ClassContains == ""
}

// Selector resolves the locator to a CSS selector.
func (l Locator) Selector() string {
	switch {
	case l.CSS != "":
		return l.CSS
	case l.ID != "":
		return "#" + l.ID
	case l.ClassContains != "":
		return fmt.Sprintf(`[class*=%q]`, l.ClassContains)
	default:
		return ""
	}
}

func (l Locator) String() string { return l.Selector() }

func (l Locator) strategies() int {
	n := 0
	for _, s := range []string{l.CSS, l.ID, l.ClassContains} {
		if s != "" {
			n++
		}
	}

	return n
}

// UnmarshalYAML accepts either a bare CSS selector or a strategy mapping.
func (l *Locator) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*l = CSS(value.Value)

		return nil
	}

	type plain Locator

	var p plain
	if err := decodeStrict(value, &p); err != nil {
		return err
	}

	*l = Locator(p)

	if l.strategies() > 1 {
		return &MalformedCaseError{Reason: fmt.Sprintf("line %d: locator sets more than one strategy", value.Line)}
	}

	return nil
}

// =============================================================================
// Form catalog
// =============================================================================

// DateParts locates the sub-controls of a date picker.
type DateParts struct {
	Year  Locator `yaml:"year"`
	Month Locator `yaml:"month"`
	// Day is a fmt template receiving the day of month, e.g.
	// ".react-datepicker__day--%03d:not(.react-datepicker__day--outside-month)".
	Day string `yaml:"day"`
}

// DaySelector returns the selector for a day of month.
func (d DateParts) DaySelector(day int) string {
	return fmt.Sprintf(d.Day, day)
}

// DefaultOptionLabel is the template for the clickable label of a radio or checkbox control.
const DefaultOptionLabel = `[for="%s"]`

// FieldSpec identifies one form field.
type FieldSpec struct {
	Name     string    `yaml:"name"`
	Kind     FieldKind `yaml:"kind"`
	Locator  Locator   `yaml:"locator"`
	Required bool      `yaml:"required,omitempty"`

	// Options maps a human-readable label to the control id (radio and checkbox groups).
	Options map[string]string `yaml:"options,omitempty"`

	// OptionLabel is a fmt template turning a control id into the selector of
	// its clickable label. Defaults to DefaultOptionLabel.
	OptionLabel string `yaml:"option_label,omitempty"`

	// Menu is where a select field renders its options once opened.
	Menu *Locator `yaml:"menu,omitempty"`

	// Date locates the picker parts of a date field.
	Date *DateParts `yaml:"date,omitempty"`
}

// Selector returns the CSS selector of the field itself.
func (f *FieldSpec) Selector() string { return f.Locator.Selector() }

// Control returns the control id for an option label.
func (f *FieldSpec) Control(option string) (string, error) {
	id, ok := f.Options[option]
	if !ok {
		return "", &UnknownOptionError{Field: f.Name, Option: option}
	}

	return id, nil
}

// ControlSelector returns the selector of the input behind an option.
func (f *FieldSpec) ControlSelector(option string) (string, error) {
	id, err := f.Control(option)
	if err != nil {
		return "", err
	}

	return "#" + id, nil
}

// LabelSelector returns the selector of the clickable label for an option.
func (f *FieldSpec) LabelSelector(option string) (string, error) {
	id, err := f.Control(option)
	if err != nil {
		return "", err
	}

	tmpl := f.OptionLabel
	if tmpl == "" {
		tmpl = DefaultOptionLabel
	}

	return fmt.Sprintf(tmpl, id), nil
}

// OptionLabels returns the option labels in sorted order.
func (f *FieldSpec) OptionLabels() []string {
	labels := make([]string, 0, len(f.Options))
	for l := range f.Options {
		labels = append(labels, l)
	}

	sort.Strings(labels)

	return labels
}

// BasicFields names the fields the form filler writes.
type BasicFields struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Gender    string `yaml:"gender"`
	Phone     string `yaml:"phone"`
}

// Form is the catalog of a form under test.
type Form struct {
	Name   string  `yaml:"name"`
	URL    string  `yaml:"url"`
	Root   Locator `yaml:"root"`
	Submit Locator `yaml:"submit"`

	// Surfaces names non-field elements; SurfaceConfirmation is mandatory.
	Surfaces map[string]Locator `yaml:"surfaces"`

	// ErrorClass is the class the form adds to fields that failed validation.
	ErrorClass string `yaml:"error_class,omitempty"`

	// DefaultBorderColor, when set, is the border colour of an unflagged field.
	DefaultBorderColor string `yaml:"default_border_color,omitempty"`

	Basics BasicFields  `yaml:"basics"`
	Fields []*FieldSpec `yaml:"fields"`
}

// Field returns the named field.
func (f *Form) Field(name string) (*FieldSpec, error) {
	for _, fs := range f.Fields {
		if fs.Name == name {
			return fs, nil
		}
	}

	return nil, &UnknownFieldError{Field: name}
}

// Surface returns the named surface locator.
func (f *Form) Surface(name string) (Locator, error) {
	l, ok := f.Surfaces[name]
	if !ok {
		return Locator{}, &UnknownFieldError{Field: "surface " + name}
	}

	return l, nil
}

// RequiredFields returns the names of required fields in declaration order.
func (f *Form) RequiredFields() []string {
	var names []string

	for _, fs := range f.Fields {
		if fs.Required {
			names = append(names, fs.Name)
		}
	}

	return names
}

// =============================================================================
// Scenario cases
// =============================================================================

// InputValue is the value written to a field. Checkbox groups take several
// option labels; every other kind takes exactly one.
type InputValue []string

// Single returns the first value.
func (v InputValue) Single() string {
	if len(v) == 0 {
		return ""
	}

	return v[0]
}

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (v *InputValue) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*v = InputValue{value.Value}

		return nil
	}

	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}

	*v = list

	return nil
}

// FillOverrides replaces entries of the form filler's default table. A nil
// entry keeps the default.
type FillOverrides struct {
	FirstName *string `yaml:"first_name,omitempty"`
	LastName  *string `yaml:"last_name,omitempty"`
	Email     *string `yaml:"email,omitempty"`
	Gender    *string `yaml:"gender,omitempty"`
	Phone     *string `yaml:"phone,omitempty"`
}

// ScenarioCase is one declarative test case.
type ScenarioCase struct {
	ID          string                `yaml:"id"`
	Description string                `yaml:"description,omitempty"`
	Tags        []string              `yaml:"tags,omitempty"`
	Fill        *FillOverrides        `yaml:"fill,omitempty"`
	Inputs      map[string]InputValue `yaml:"inputs,omitempty"`
	Actions     []Action              `yaml:"actions,omitempty"`

	// After runs once the confirmation surface is shown, before verification.
	After []Action `yaml:"after,omitempty"`

	Expect Outcome `yaml:"expect"`

	// KnownDefect documents a case whose expectation pins the live form's
	// current behaviour rather than the intuitive one.
	KnownDefect string `yaml:"known_defect,omitempty"`
}

// Name returns the id and description joined for display.
func (c *ScenarioCase) Name() string {
	if c.Description == "" {
		return c.ID
	}

	return c.ID + ": " + c.Description
}

// Suite is a named list of scenario cases.
type Suite struct {
	Name  string          `yaml:"name"`
	Form  string          `yaml:"form,omitempty"`
	Cases []*ScenarioCase `yaml:"cases"`

	// Path is the file the suite was loaded from, if any.
	Path string `yaml:"-"`
}

// Case returns the case with the given id.
func (s *Suite) Case(id string) (*ScenarioCase, bool) {
	for _, c := range s.Cases {
		if c.ID == id {
			return c, true
		}
	}

	return nil, false
}

// IDs returns the case ids in order.
func (s *Suite) IDs() []string {
	ids := make([]string, len(s.Cases))
	for i, c := range s.Cases {
		ids[i] = c.ID
	}

	return ids
}
