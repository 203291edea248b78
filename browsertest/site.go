package browsertest

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rlch/formrun"
)

// Border colours the simulated form applies after a submission attempt.
const (
	DefaultBorder = "rgb(206, 212, 218)"
	ValidBorder   = "rgb(40, 167, 69)"
	InvalidBorder = "rgb(220, 53, 69)"
)

// Rules decide how a simulated form validates a submission.
type Rules struct {
	// Fields validates a field's value. A field without a validator is valid
	// unless it is required and blank.
	Fields map[string]func(value string) bool

	// Menus lists the entries a select field shows once opened.
	Menus map[string][]string

	// Reject vetoes a submission without flagging any field.
	Reject func(s *Site) bool

	// ConfirmationText is shown by every surface once a submission is accepted.
	ConfirmationText string

	// RenderDelay is how many queries a surface stays absent after it was shown.
	RenderDelay int
}

// Site simulates a registration form described by a catalog.
type Site struct {
	*Browser

	form     *formrun.Form
	rules    Rules
	date     time.Time
	selected map[string]string
	submits  int
}

// NewSite creates a fake browser serving a simulated form.
func NewSite(form *formrun.Form, rules Rules) *Site {
	s := &Site{Browser: New(), form: form, rules: rules}
	s.OnNavigate = func(*Browser) { s.build() }

	return s
}

// Submits returns how many times the submit control was clicked.
func (s *Site) Submits() int { return s.submits }

// Value returns the current value of a field.
func (s *Site) Value(field string) string {
	fs, err := s.form.Field(field)
	if err != nil {
		return ""
	}

	if el, ok := s.elements[fs.Selector()]; ok {
		return el.Value
	}

	return ""
}

// Selected returns the entry chosen in a select field.
func (s *Site) Selected(field string) string { return s.selected[field] }

// Date returns the date picked, or the zero time.
func (s *Site) Date() time.Time { return s.date }

func visible() *Element {
	return &Element{ElementState: formrun.ElementState{Visible: true, Valid: true, BorderColor: DefaultBorder}}
}

func (s *Site) build() {
	s.date = time.Time{}
	s.selected = make(map[string]string)

	s.Set(s.form.Root.Selector(), visible())

	submit := s.form.Submit.Selector()
	s.Set(submit, visible())
	s.hooks["click "+submit] = func(*Browser) { s.submit() }

	for _, l := range s.form.Surfaces {
		s.hooks["outside "+l.Selector()] = func(*Browser) { s.hideSurfaces() }
	}

	for _, fs := range s.form.Fields {
		s.Set(fs.Selector(), visible())

		switch fs.Kind {
		case formrun.KindRadio, formrun.KindCheckbox:
			s.buildGroup(fs)
		case formrun.KindSelect:
			s.buildSelect(fs)
		case formrun.KindDate:
			s.buildDate(fs)
		case formrun.KindText, formrun.KindFile:
		}
	}
}

func (s *Site) buildGroup(fs *formrun.FieldSpec) {
	for _, label := range fs.OptionLabels() {
		control, _ := fs.ControlSelector(label)
		labelSel, _ := fs.LabelSelector(label)

		s.Set(control, &Element{ElementState: formrun.ElementState{Valid: true}})
		s.Set(labelSel, visible())

		s.hooks["click "+labelSel] = func(b *Browser) {
			el := b.elements[control]

			if fs.Kind == formrun.KindCheckbox {
				el.Checked = !el.Checked

				return
			}

			for _, other := range fs.OptionLabels() {
				sel, _ := fs.ControlSelector(other)
				b.elements[sel].Checked = false
			}

			el.Checked = true
		}
	}
}

func (s *Site) buildSelect(fs *formrun.FieldSpec) {
	menu := fs.Menu.Selector()
	items := s.rules.Menus[fs.Name]

	s.hooks["click "+fs.Selector()] = func(b *Browser) {
		b.Set(menu, &Element{ElementState: formrun.ElementState{Visible: true}, Items: items})
	}

	for _, item := range items {
		s.hooks["text "+menu+" "+item] = func(b *Browser) {
			s.selected[fs.Name] = item
			b.elements[fs.Selector()].Value = item
			b.Remove(menu)
		}
	}
}

func (s *Site) buildDate(fs *formrun.FieldSpec) {
	if fs.Date == nil {
		return
	}

	parts := *fs.Date

	s.hooks["click "+fs.Selector()] = func(b *Browser) {
		var years, months []string
		for y := 1900; y <= 2100; y++ {
			years = append(years, strconv.Itoa(y))
		}

		for m := time.January; m <= time.December; m++ {
			months = append(months, m.String())
		}

		b.Set(parts.Year.Selector(), &Element{ElementState: formrun.ElementState{Visible: true}, Options: years})
		b.Set(parts.Month.Selector(), &Element{ElementState: formrun.ElementState{Visible: true}, Options: months})

		for d := 1; d <= 31; d++ {
			day := parts.DaySelector(d)
			b.Set(day, visible())
			b.hooks["click "+day] = func(b *Browser) {
				year, _ := strconv.Atoi(b.elements[parts.Year.Selector()].Value)
				month := monthIndex(b.elements[parts.Month.Selector()].Value)
				s.date = time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
				b.elements[fs.Selector()].Value = s.date.Format("02 Jan 2006")
			}
		}
	}
}

func (s *Site) submit() {
	s.submits++

	ok := true

	for _, fs := range s.form.Fields {
		el := s.elements[fs.Selector()]
		valid := s.valid(fs, el)

		el.Valid = valid
		el.Classes = slices.DeleteFunc(el.Classes, func(c string) bool { return c == s.form.ErrorClass })

		if valid {
			el.BorderColor = ValidBorder
		} else {
			el.BorderColor = InvalidBorder

			if s.form.ErrorClass != "" {
				el.Classes = append(el.Classes, s.form.ErrorClass)
			}

			ok = false
		}
	}

	if ok && s.rules.Reject != nil && s.rules.Reject(s) {
		ok = false
	}

	if ok {
		s.showSurfaces()
	}
}

func (s *Site) valid(fs *formrun.FieldSpec, el *Element) bool {
	if fs.Kind.HasOptions() {
		if !fs.Required {
			return true
		}

		for _, label := range fs.OptionLabels() {
			sel, _ := fs.ControlSelector(label)
			if s.elements[sel].Checked {
				return true
			}
		}

		return false
	}

	if v, ok := s.rules.Fields[fs.Name]; ok {
		return v(el.Value)
	}

	return !fs.Required || strings.TrimSpace(el.Value) != ""
}

func (s *Site) showSurfaces() {
	for _, l := range s.form.Surfaces {
		el := visible()
		el.Text = s.rules.ConfirmationText
		el.RenderAfter = s.rules.RenderDelay
		s.Set(l.Selector(), el)
	}
}

func (s *Site) hideSurfaces() {
	for _, l := range s.form.Surfaces {
		s.Remove(l.Selector())
	}
}

func monthIndex(name string) time.Month {
	for m := time.January; m <= time.December; m++ {
		if m.String() == name {
			return m
		}
	}

	return time.January
}
