package filler_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/browsertest"
	"github.com/rlch/formrun/driver"
	"github.com/rlch/formrun/filler"
	"github.com/rlch/formrun/forms/practiceform"
	"github.com/rlch/formrun/forms/practiceform/practiceformtest"
)

func ptr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   *formrun.FillOverrides
		want filler.Basics
	}{
		{"nil", nil, filler.Defaults},
		{"empty", &formrun.FillOverrides{}, filler.Defaults},
		{
			"phone",
			&formrun.FillOverrides{Phone: ptr("12345")},
			filler.Basics{FirstName: "Kapil", LastName: "Rokaya", Email: "kapil@example.com", Gender: "Male", Phone: "12345"},
		},
		{
			"blank names",
			&formrun.FillOverrides{FirstName: ptr(""), LastName: ptr("   ")},
			filler.Basics{FirstName: "", LastName: "   ", Email: "kapil@example.com", Gender: "Male", Phone: "9876543210"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, filler.Resolve(tt.in)); diff != "" {
				t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func open(t *testing.T) (*driver.Driver, *browsertest.Site) {
	t.Helper()

	site := practiceformtest.NewSite()
	d := driver.New(site, practiceform.Form(), driver.WithTimeouts(formrun.Timeouts{
		Wait:   50 * time.Millisecond,
		Settle: 10 * time.Millisecond,
		Poll:   time.Millisecond,
		Ready:  50 * time.Millisecond,
	}))
	require.NoError(t, d.Navigate(context.Background()))

	return d, site
}

func TestFillBasics(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	f := filler.New(d, filler.WithVerify(true))

	require.NoError(t, f.FillBasics(context.Background(), filler.Defaults))

	assert.Equal(t, "Kapil", site.Value(practiceform.FirstName))
	assert.Equal(t, "Rokaya", site.Value(practiceform.LastName))
	assert.Equal(t, "kapil@example.com", site.Value(practiceform.Email))
	assert.Equal(t, "9876543210", site.Value(practiceform.Mobile))

	checked, err := d.OptionChecked(context.Background(), practiceform.Gender, "Male")
	require.NoError(t, err)
	assert.True(t, checked)
}

func TestFillBasics_Order(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	require.NoError(t, filler.New(d).FillBasics(context.Background(), filler.Defaults))

	var typed []string

	for _, c := range site.Calls() {
		if c.Op == "type" || c.Op == "click" {
			typed = append(typed, c.Selector)
		}
	}

	want := []string{"#firstName", "#lastName", "#userEmail", "#userNumber", `[for="gender-radio-1"]`}
	if diff := cmp.Diff(want, typed); diff != "" {
		t.Errorf("fill order mismatch (-want +got):\n%s", diff)
	}
}

func TestFillBasics_InvalidGender(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	before := len(site.Calls())

	b := filler.Defaults
	b.Gender = "Robot"

	err := filler.New(d).FillBasics(context.Background(), b)

	var invalid *formrun.InvalidGenderError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Robot", invalid.Value)
	assert.Equal(t, formrun.ErrAuthoring, formrun.Classify(err))
	assert.Len(t, site.Calls(), before, "fields were touched")
}

func TestFillBasics_Overwrites(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	f := filler.New(d)
	ctx := context.Background()

	require.NoError(t, f.FillBasics(ctx, filler.Defaults))
	require.NoError(t, f.FillBasics(ctx, filler.Resolve(&formrun.FillOverrides{Phone: ptr("12345")})))

	assert.Equal(t, "12345", site.Value(practiceform.Mobile))
}
