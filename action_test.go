package formrun_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rlch/formrun"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want formrun.Action
	}{
		{
			name: "type with quoted value",
			src:  `type firstName "Ram Bahadur"`,
			want: formrun.Action{Kind: formrun.ActionType, Field: "firstName", Value: "Ram Bahadur"},
		},
		{
			name: "type empty string",
			src:  `type email ""`,
			want: formrun.Action{Kind: formrun.ActionType, Field: "email", Value: ""},
		},
		{
			name: "select",
			src:  "select gender Female",
			want: formrun.Action{Kind: formrun.ActionSelect, Field: "gender", Option: "Female"},
		},
		{
			name: "toggle several",
			src:  "toggle hobbies Sports Music",
			want: formrun.Action{Kind: formrun.ActionToggle, Field: "hobbies", Options: []string{"Sports", "Music"}},
		},
		{
			name: "choose quoted option",
			src:  `choose state "Uttar Pradesh"`,
			want: formrun.Action{Kind: formrun.ActionChoose, Field: "state", Option: "Uttar Pradesh"},
		},
		{
			name: "pick-date",
			src:  "pick-date dateOfBirth 2030 January 1",
			want: formrun.Action{Kind: formrun.ActionPickDate, Field: "dateOfBirth", Year: 2030, Month: "January", Day: 1},
		},
		{
			name: "upload",
			src:  "upload picture k7.jpg",
			want: formrun.Action{Kind: formrun.ActionUpload, Field: "picture", Path: "k7.jpg"},
		},
		{
			name: "click-outside default position",
			src:  "click-outside modal",
			want: formrun.Action{Kind: formrun.ActionClickOutside, Surface: "modal"},
		},
		{
			name: "click-outside with position",
			src:  "click-outside modal bottom-left",
			want: formrun.Action{Kind: formrun.ActionClickOutside, Surface: "modal", Position: formrun.BottomLeft},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := formrun.ParseAction(tt.src)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseAction(%q) mismatch (-want +got):\n%s", tt.src, diff)
			}

			// The one-line form parses back to the same action.
			again, err := formrun.ParseAction(got.String())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParseAction_Errors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"",
		"hover firstName",
		"type firstName",
		"type firstName a b",
		"select gender",
		"toggle hobbies",
		"pick-date dateOfBirth twenty January 1",
		"pick-date dateOfBirth 2030 January first",
		"click-outside",
		"click-outside modal top extra",
		`type firstName "unterminated`,
	} {
		t.Run(src, func(t *testing.T) {
			t.Parallel()

			_, err := formrun.ParseAction(src)

			var syntax *formrun.ActionSyntaxError
			require.ErrorAs(t, err, &syntax)
			assert.ErrorIs(t, err, formrun.ErrAuthoring)
		})
	}
}

func TestAction_YAML(t *testing.T) {
	t.Parallel()

	var actions []formrun.Action

	err := yaml.Unmarshal([]byte(`
- choose state NCR
- do: type
  field: firstName
  value: "  spaced  "
`), &actions)
	require.NoError(t, err)

	want := []formrun.Action{
		{Kind: formrun.ActionChoose, Field: "state", Option: "NCR"},
		{Kind: formrun.ActionType, Field: "firstName", Value: "  spaced  "},
	}

	if diff := cmp.Diff(want, actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	out, err := yaml.Marshal(actions)
	require.NoError(t, err)
	assert.Contains(t, string(out), "choose state NCR")

	var again []formrun.Action
	require.NoError(t, yaml.Unmarshal(out, &again))
	assert.Equal(t, want, again)

	err = yaml.Unmarshal([]byte("- do: hover\n  field: x\n"), &actions)
	assert.ErrorIs(t, err, formrun.ErrAuthoring)
}
