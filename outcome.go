package formrun

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutcomeKind tags an Outcome variant.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeAccepted  OutcomeKind = "accepted"
	OutcomeRejected  OutcomeKind = "rejected"
	OutcomeFlagged   OutcomeKind = "flagged"
	OutcomeUnchecked OutcomeKind = "unchecked"
	OutcomeChecked   OutcomeKind = "checked"
	OutcomeDismissed OutcomeKind = "dismissed"
)

// Outcome is the expected observable result of a scenario. Only the fields of
// its Kind are meaningful.
type Outcome struct {
	Kind OutcomeKind

	// TextContains is the substring the confirmation must show (accepted).
	TextContains string

	// InvalidFields must each report a native-invalid signal (rejected).
	InvalidFields []string

	// Field and Flag name the marker to check (flagged), or the group to inspect
	// (unchecked, checked).
	Field string
	Flag  Flag

	// Options must be checked (checked).
	Options []string
}

// Accepted expects the confirmation surface, optionally containing text.
func Accepted(textContains string) Outcome {
	return Outcome{Kind: OutcomeAccepted, TextContains: textContains}
}

// Rejected expects no confirmation and a native-invalid signal on each field.
func Rejected(invalidFields ...string) Outcome {
	return Outcome{Kind: OutcomeRejected, InvalidFields: invalidFields}
}

// Flagged expects field to carry flag.
func Flagged(field string, flag Flag) Outcome {
	return Outcome{Kind: OutcomeFlagged, Field: field, Flag: flag}
}

// Unchecked expects no control of a radio or checkbox group to be checked.
func Unchecked(field string) Outcome {
	return Outcome{Kind: OutcomeUnchecked, Field: field}
}

// Checked expects the listed options to be checked and the submission accepted.
func Checked(field string, options ...string) Outcome {
	return Outcome{Kind: OutcomeChecked, Field: field, Options: options}
}

// Dismissed expects the confirmation to appear and then close after the case's
// after-actions.
func Dismissed() Outcome {
	return Outcome{Kind: OutcomeDismissed}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeAccepted:
		if o.TextContains == "" {
			return "accepted"
		}

		return fmt.Sprintf("accepted(text contains %q)", o.TextContains)
	case OutcomeRejected:
		if len(o.InvalidFields) == 0 {
			return "rejected"
		}

		return fmt.Sprintf("rejected(invalid: %s)", strings.Join(o.InvalidFields, ", "))
	case OutcomeFlagged:
		return fmt.Sprintf("flagged(%s, %s)", o.Field, o.Flag)
	case OutcomeUnchecked:
		return fmt.Sprintf("unchecked(%s)", o.Field)
	case OutcomeChecked:
		return fmt.Sprintf("checked(%s: %s)", o.Field, strings.Join(o.Options, ", "))
	case OutcomeDismissed:
		return "dismissed"
	default:
		return "<none>"
	}
}

type outcomeBody struct {
	Text    string   `yaml:"text,omitempty"`
	Invalid []string `yaml:"invalid,omitempty"`
	Field   string   `yaml:"field,omitempty"`
	Flag    Flag     `yaml:"flag,omitempty"`
	Options []string `yaml:"options,omitempty"`
}

// outcomeKeys lists the body keys each kind accepts.
var outcomeKeys = map[OutcomeKind][]string{
	OutcomeAccepted:  {"text"},
	OutcomeRejected:  {"invalid"},
	OutcomeFlagged:   {"field", "flag"},
	OutcomeUnchecked: {"field"},
	OutcomeChecked:   {"field", "options"},
	OutcomeDismissed: nil,
}

// needsBody reports whether a kind is meaningless without parameters.
func (k OutcomeKind) needsBody() bool {
	return k == OutcomeFlagged || k == OutcomeUnchecked || k == OutcomeChecked
}

// UnmarshalYAML decodes a single-key mapping such as
//
//	rejected: {invalid: [phone]}
//
// or a bare kind for variants without parameters. Bodies are strict: a key
// the kind does not take is an error, never ignored.
func (o *Outcome) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		kind := OutcomeKind(value.Value)
		if _, known := outcomeKeys[kind]; !known || kind.needsBody() {
			return &MalformedCaseError{Reason: fmt.Sprintf("line %d: outcome %q needs parameters or is unknown", value.Line, value.Value)}
		}

		*o = Outcome{Kind: kind}

		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return &MalformedCaseError{Reason: fmt.Sprintf("line %d: expect must name exactly one outcome", value.Line)}
	}

	key, body := value.Content[0].Value, value.Content[1]
	kind := OutcomeKind(key)

	allowed, known := outcomeKeys[kind]
	if !known {
		return &MalformedCaseError{Reason: fmt.Sprintf("line %d: unknown outcome %q", value.Line, key)}
	}

	var b outcomeBody

	switch {
	case isNull(body):
		if kind.needsBody() {
			return &MalformedCaseError{Reason: fmt.Sprintf("line %d: outcome %q needs parameters", body.Line, key)}
		}
	case body.Kind == yaml.MappingNode:
		for i := 0; i < len(body.Content); i += 2 {
			if k := body.Content[i]; !slices.Contains(allowed, k.Value) {
				return &MalformedCaseError{Reason: fmt.Sprintf("line %d: outcome %q does not take %q (want one of %v)", k.Line, key, k.Value, allowed)}
			}
		}

		if err := decodeStrict(body, &b); err != nil {
			return err
		}
	default:
		return &MalformedCaseError{Reason: fmt.Sprintf("line %d: outcome %q takes a mapping of %v", body.Line, key, allowed)}
	}

	switch kind {
	case OutcomeAccepted:
		*o = Accepted(b.Text)
	case OutcomeRejected:
		*o = Rejected(b.Invalid...)
	case OutcomeFlagged:
		*o = Flagged(b.Field, b.Flag)
	case OutcomeUnchecked:
		*o = Unchecked(b.Field)
	case OutcomeChecked:
		*o = Checked(b.Field, b.Options...)
	case OutcomeDismissed:
		*o = Dismissed()
	}

	return nil
}

// MarshalYAML writes the single-key mapping form.
func (o Outcome) MarshalYAML() (any, error) {
	var b outcomeBody

	switch o.Kind {
	case OutcomeAccepted:
		b.Text = o.TextContains
	case OutcomeRejected:
		b.Invalid = o.InvalidFields
	case OutcomeFlagged:
		b.Field, b.Flag = o.Field, o.Flag
	case OutcomeUnchecked:
		b.Field = o.Field
	case OutcomeChecked:
		b.Field, b.Options = o.Field, o.Options
	case OutcomeDismissed:
	default:
		return nil, &MalformedCaseError{Reason: "outcome kind not set"}
	}

	return map[string]outcomeBody{string(o.Kind): b}, nil
}
