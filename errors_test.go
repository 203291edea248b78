package formrun_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rlch/formrun"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown field", &formrun.UnknownFieldError{Field: "x"}, formrun.ErrAuthoring},
		{"invalid gender", &formrun.InvalidGenderError{Value: "Robot"}, formrun.ErrAuthoring},
		{"action syntax", &formrun.ActionSyntaxError{Source: "x", Err: errors.New("bad")}, formrun.ErrAuthoring},
		{"interaction", &formrun.InteractionError{Op: "click", Target: "#submit", Err: errors.New("detached")}, formrun.ErrInteraction},
		{"selection", &formrun.SelectionNotAppliedError{Field: "gender", Option: "Male"}, formrun.ErrInteraction},
		{"setup", &formrun.SetupFailure{URL: "http://x", Err: context.DeadlineExceeded}, formrun.ErrInteraction},
		{"not ready", &formrun.FieldNotReadyError{Field: "email", Wait: time.Second}, formrun.ErrTimeout},
		{"assertion", &formrun.AssertionFailure{Kind: formrun.FlagNotSet}, formrun.ErrAssertion},
		{"wrapped", fmt.Errorf("case TC_07: %w", &formrun.FieldNotReadyError{Field: "mobile"}), formrun.ErrTimeout},
		{"foreign", errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, formrun.Classify(tt.err))
		})
	}
}

func TestAssertionFailure_Detail(t *testing.T) {
	t.Parallel()

	f := &formrun.AssertionFailure{
		Kind:     formrun.MissingInvalidSignal,
		Field:    "mobile",
		Expected: "valid=false",
		Observed: "valid=true",
		Diff:     "-false\n+true",
	}

	assert.Equal(t, "MissingInvalidSignal(mobile): expected valid=false, observed valid=true", f.Error())
	assert.Equal(t, "MissingInvalidSignal on mobile\n"+
		"  expected: valid=false\n"+
		"  observed: valid=true\n"+
		"  diff (-expected +observed):\n"+
		"    -false\n"+
		"    +true\n", f.Detail())
}
