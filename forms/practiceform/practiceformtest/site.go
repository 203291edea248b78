// Package practiceformtest simulates the practice form for tests.
package practiceformtest

import (
	"regexp"
	"strings"
	"time"

	"github.com/rlch/formrun/browsertest"
	"github.com/rlch/formrun/forms/practiceform"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9_%+-]+(\.[A-Za-z0-9_%+-]+)*@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`)
	phoneRe = regexp.MustCompile(`^\d{10}$`)
)

// Now is the clock the simulated form judges dates of birth against.
var Now = func() time.Time { return time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC) }

func name(v string) bool {
	return strings.TrimSpace(v) != "" && !strings.ContainsAny(v, "@#$%^&*")
}

// Rules mirror how the live form validates, including its accepted defects:
// names have no length limit and uploads are not filtered by type.
func Rules() browsertest.Rules {
	return browsertest.Rules{
		Fields: map[string]func(string) bool{
			practiceform.FirstName: name,
			practiceform.LastName:  name,
			practiceform.Email:     emailRe.MatchString,
			practiceform.Mobile:    phoneRe.MatchString,
		},
		Menus: map[string][]string{
			practiceform.State: {"NCR", "Uttar Pradesh", "Haryana", "Rajasthan"},
			practiceform.City:  {"Delhi", "Gurgaon", "Noida"},
		},
		Reject: func(s *browsertest.Site) bool {
			if d := s.Date(); !d.IsZero() && d.After(Now()) {
				return true
			}

			return s.Selected(practiceform.State) != "" && s.Selected(practiceform.City) == ""
		},
		ConfirmationText: practiceform.ConfirmationText,
	}
}

// NewSite returns a fake browser serving the simulated practice form.
func NewSite() *browsertest.Site {
	return browsertest.NewSite(practiceform.Form(), Rules())
}
