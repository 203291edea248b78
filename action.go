package formrun

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is one step of a scenario beyond basic input.
type Action struct {
	Kind ActionKind `yaml:"do"`

	// Field is the target field; Surface the target surface for click-outside.
	Field   string `yaml:"field,omitempty"`
	Surface string `yaml:"surface,omitempty"`

	// Value is typed text (type).
	Value string `yaml:"value,omitempty"`

	// Option is the label to select (select, choose); Options the labels to
	// toggle (toggle).
	Option  string   `yaml:"option,omitempty"`
	Options []string `yaml:"options,omitempty"`

	// Year, Month and Day pick a date (pick-date).
	Year  int    `yaml:"year,omitempty"`
	Month string `yaml:"month,omitempty"`
	Day   int    `yaml:"day,omitempty"`

	// Path is the fixture file to upload (upload).
	Path string `yaml:"path,omitempty"`

	// Position is where to click relative to the surface (click-outside).
	Position Position `yaml:"position,omitempty"`
}

// Target returns the field or surface the action addresses.
func (a Action) Target() string {
	if a.Kind == ActionClickOutside {
		return a.Surface
	}

	return a.Field
}

// String renders the action in its one-line form.
func (a Action) String() string {
	parts := []string{string(a.Kind), a.Target()}

	switch a.Kind {
	case ActionType:
		parts = append(parts, strconv.Quote(a.Value))
	case ActionSelect, ActionChoose:
		parts = append(parts, quoteIfNeeded(a.Option))
	case ActionToggle:
		for _, o := range a.Options {
			parts = append(parts, quoteIfNeeded(o))
		}
	case ActionPickDate:
		parts = append(parts, strconv.Itoa(a.Year), quoteIfNeeded(a.Month), strconv.Itoa(a.Day))
	case ActionUpload:
		parts = append(parts, quoteIfNeeded(a.Path))
	case ActionClickOutside:
		if a.Position != "" {
			parts = append(parts, string(a.Position))
		}
	}

	return strings.Join(parts, " ")
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"") {
		return strconv.Quote(s)
	}

	return s
}

var (
	errMissingArgs = errors.New("missing arguments")
	errExtraArgs   = errors.New("too many arguments")
)

// ParseAction parses the one-line form of an action.
func ParseAction(src string) (Action, error) {
	line, err := parseActionLine(src)
	if err != nil {
		return Action{}, &ActionSyntaxError{Source: src, Err: err}
	}

	a, err := buildAction(ActionKind(line.Verb), line.Args)
	if err != nil {
		return Action{}, &ActionSyntaxError{Source: src, Err: err}
	}

	return a, nil
}

func buildAction(kind ActionKind, args []string) (Action, error) {
	need := func(lo, hi int) error {
		switch {
		case len(args) < lo:
			return fmt.Errorf("%s: %w (want %d)", kind, errMissingArgs, lo)
		case hi >= 0 && len(args) > hi:
			return fmt.Errorf("%s: %w (want at most %d)", kind, errExtraArgs, hi)
		default:
			return nil
		}
	}

	a := Action{Kind: kind}

	switch kind {
	case ActionType:
		if err := need(2, 2); err != nil {
			return a, err
		}

		a.Field, a.Value = args[0], args[1]
	case ActionSelect, ActionChoose:
		if err := need(2, 2); err != nil {
			return a, err
		}

		a.Field, a.Option = args[0], args[1]
	case ActionToggle:
		if err := need(2, -1); err != nil {
			return a, err
		}

		a.Field, a.Options = args[0], args[1:]
	case ActionPickDate:
		if err := need(4, 4); err != nil {
			return a, err
		}

		year, err := strconv.Atoi(args[1])
		if err != nil {
			return a, fmt.Errorf("year %q: %w", args[1], err)
		}

		day, err := strconv.Atoi(args[3])
		if err != nil {
			return a, fmt.Errorf("day %q: %w", args[3], err)
		}

		a.Field, a.Year, a.Month, a.Day = args[0], year, args[2], day
	case ActionUpload:
		if err := need(2, 2); err != nil {
			return a, err
		}

		a.Field, a.Path = args[0], args[1]
	case ActionClickOutside:
		if err := need(1, 2); err != nil {
			return a, err
		}

		a.Surface = args[0]
		if len(args) == 2 {
			a.Position = Position(args[1])
		}
	default:
		return a, fmt.Errorf("unknown action %q", kind)
	}

	return a, nil
}

// UnmarshalYAML accepts the one-line form or a mapping keyed by "do".
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParseAction(value.Value)
		if err != nil {
			return err
		}

		*a = parsed

		return nil
	}

	type plain Action

	var p plain
	if err := decodeStrict(value, &p); err != nil {
		return err
	}

	*a = Action(p)

	if _, ok := KnownActions[a.Kind]; !ok {
		return &ActionSyntaxError{Source: fmt.Sprintf("line %d", value.Line), Err: fmt.Errorf("unknown action %q", a.Kind)}
	}

	return nil
}

// MarshalYAML writes the one-line form.
func (a Action) MarshalYAML() (any, error) {
	return a.String(), nil
}
