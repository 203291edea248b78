package formrun_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/forms/practiceform"
)

func TestValidate_BuiltInSuite(t *testing.T) {
	t.Parallel()

	s, err := practiceform.Suite()
	require.NoError(t, err)

	require.NoError(t, formrun.ValidateForm(practiceform.Form()))
	assert.NoError(t, formrun.Validate(practiceform.Form(), s))
}

func TestValidate_AuthoringErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want any
	}{
		{
			name: "unknown input field",
			src:  "cases:\n  - id: a\n    inputs: {nickname: x}\n    expect: accepted\n",
			want: new(*formrun.UnknownFieldError),
		},
		{
			name: "unknown hobby",
			src:  "cases:\n  - id: a\n    inputs: {hobbies: [Chess]}\n    expect: accepted\n",
			want: new(*formrun.UnknownOptionError),
		},
		{
			name: "gender outside mapping",
			src:  "cases:\n  - id: a\n    fill: {gender: Robot}\n    expect: accepted\n",
			want: new(*formrun.InvalidGenderError),
		},
		{
			name: "action on wrong kind",
			src:  "cases:\n  - id: a\n    actions: [select firstName Male]\n    expect: accepted\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "unknown surface",
			src:  "cases:\n  - id: a\n    after: [click-outside drawer]\n    expect: dismissed\n",
			want: new(*formrun.UnknownFieldError),
		},
		{
			name: "dismissed without after",
			src:  "cases:\n  - id: a\n    expect: dismissed\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "after without dismissed",
			src:  "cases:\n  - id: a\n    after: [click-outside modal]\n    expect: accepted\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "duplicate id",
			src:  "cases:\n  - id: a\n    expect: accepted\n  - id: a\n    expect: accepted\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "missing outcome",
			src:  "cases:\n  - id: a\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "unknown flag",
			src:  "cases:\n  - id: a\n    expect: {flagged: {field: email, flag: glowing}}\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "checked on text field",
			src:  "cases:\n  - id: a\n    expect: {checked: {field: email, options: [x]}}\n",
			want: new(*formrun.MalformedCaseError),
		},
		{
			name: "day out of range",
			src:  "cases:\n  - id: a\n    actions: [pick-date dateOfBirth 1990 May 32]\n    expect: accepted\n",
			want: new(*formrun.MalformedCaseError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := formrun.ParseSuite([]byte(tt.src))
			require.NoError(t, err)

			err = formrun.Validate(practiceform.Form(), s)
			require.ErrorAs(t, err, tt.want)
			assert.ErrorIs(t, err, formrun.ErrAuthoring)
			assert.Equal(t, formrun.ErrAuthoring, formrun.Classify(err))
		})
	}
}

func TestValidateForm(t *testing.T) {
	t.Parallel()

	f := practiceform.Form()
	f.URL = ""
	f.Fields = append(f.Fields, &formrun.FieldSpec{Name: "firstName", Kind: "slider"})
	delete(f.Surfaces, formrun.SurfaceConfirmation)

	err := formrun.ValidateForm(f)
	require.Error(t, err)

	for _, want := range []string{
		"url is empty",
		`duplicate field "firstName"`,
		`unknown kind "slider"`,
		"empty locator",
		`no "confirmation" surface`,
	} {
		assert.ErrorContains(t, err, want)
	}
}
