package driver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/browsertest"
	"github.com/rlch/formrun/driver"
	"github.com/rlch/formrun/forms/practiceform"
	"github.com/rlch/formrun/forms/practiceform/practiceformtest"
)

var fast = formrun.Timeouts{
	Wait:   50 * time.Millisecond,
	Settle: 20 * time.Millisecond,
	Poll:   time.Millisecond,
	Ready:  50 * time.Millisecond,
}

func open(t *testing.T) (*driver.Driver, *browsertest.Site) {
	t.Helper()

	site := practiceformtest.NewSite()
	d := driver.New(site, practiceform.Form(), driver.WithTimeouts(fast), driver.WithFixtures("/fixtures"))
	require.NoError(t, d.Navigate(context.Background()))

	return d, site
}

func TestNavigate(t *testing.T) {
	t.Parallel()

	site := practiceformtest.NewSite()
	d := driver.New(site, practiceform.Form(), driver.WithTimeouts(fast), driver.WithBaseURL("http://localhost:8080/form"))

	require.NoError(t, d.Navigate(context.Background()))
	assert.Equal(t, "navigate http://localhost:8080/form", site.Calls()[0].String())
}

func TestNavigate_Failure(t *testing.T) {
	t.Parallel()

	site := practiceformtest.NewSite()
	site.Fail("navigate "+practiceform.URL, errors.New("net::ERR_NAME_NOT_RESOLVED"))

	d := driver.New(site, practiceform.Form(), driver.WithTimeouts(fast))
	err := d.Navigate(context.Background())

	var setup *formrun.SetupFailure
	require.ErrorAs(t, err, &setup)
	assert.Equal(t, practiceform.URL, setup.URL)
	assert.ErrorIs(t, err, formrun.ErrInteraction)
}

func TestNavigate_RootNeverRenders(t *testing.T) {
	t.Parallel()

	site := practiceformtest.NewSite()
	site.OnNavigate = func(*browsertest.Browser) {}

	d := driver.New(site, practiceform.Form(), driver.WithTimeouts(fast))
	err := d.Navigate(context.Background())

	var setup *formrun.SetupFailure
	require.ErrorAs(t, err, &setup)

	var notReady *formrun.FieldNotReadyError
	assert.ErrorAs(t, err, &notReady)
}

func TestSetValue_Replaces(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	ctx := context.Background()

	require.NoError(t, d.SetValue(ctx, practiceform.FirstName, "Kapil"))
	require.NoError(t, d.SetValue(ctx, practiceform.FirstName, "Rokaya"))

	assert.Equal(t, "Rokaya", site.Value(practiceform.FirstName))

	state, err := d.ReadState(ctx, practiceform.FirstName)
	require.NoError(t, err)
	assert.Equal(t, "Rokaya", state.Value)
}

func TestSetValue_EmptyClears(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	ctx := context.Background()

	require.NoError(t, d.SetValue(ctx, practiceform.Email, "kapil@example.com"))
	require.NoError(t, d.SetValue(ctx, practiceform.Email, ""))

	assert.Empty(t, site.Value(practiceform.Email))

	for _, c := range site.Calls() {
		assert.False(t, c.Op == "type" && c.Arg == "", "typed an empty string")
	}
}

func TestSetValue_UnknownField(t *testing.T) {
	t.Parallel()

	d, _ := open(t)
	err := d.SetValue(context.Background(), "middleName", "x")

	var unknown *formrun.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "middleName", unknown.Field)
	assert.Equal(t, formrun.ErrAuthoring, formrun.Classify(err))
}

func TestSetValue_WrongKind(t *testing.T) {
	t.Parallel()

	d, _ := open(t)
	err := d.SetValue(context.Background(), practiceform.Gender, "Male")

	var malformed *formrun.MalformedCaseError
	assert.ErrorAs(t, err, &malformed)
}

func TestSetValue_FieldNotReady(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	site.Remove("#firstName")

	start := time.Now()
	err := d.SetValue(context.Background(), practiceform.FirstName, "Kapil")

	var notReady *formrun.FieldNotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, practiceform.FirstName, notReady.Field)
	assert.ErrorIs(t, err, formrun.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), fast.Wait)
}

func TestSetValue_Cancelled(t *testing.T) {
	t.Parallel()

	d, _ := open(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.SetValue(ctx, practiceform.FirstName, "Kapil")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSelect_Exclusive(t *testing.T) {
	t.Parallel()

	d, _ := open(t)
	ctx := context.Background()

	require.NoError(t, d.Select(ctx, practiceform.Gender, "Male"))
	require.NoError(t, d.AwaitChecked(ctx, practiceform.Gender, "Male"))
	require.NoError(t, d.Select(ctx, practiceform.Gender, "Female"))

	male, err := d.OptionChecked(ctx, practiceform.Gender, "Male")
	require.NoError(t, err)
	assert.False(t, male)

	female, err := d.OptionChecked(ctx, practiceform.Gender, "Female")
	require.NoError(t, err)
	assert.True(t, female)
}

func TestSelect_UnknownOption(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	before := len(site.Calls())

	err := d.Select(context.Background(), practiceform.Gender, "Robot")

	var unknown *formrun.UnknownOptionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Robot", unknown.Option)
	assert.Len(t, site.Calls(), before)
}

func TestAwaitChecked_NotApplied(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	site.On(`click [for="gender-radio-1"]`, func(*browsertest.Browser) {})

	ctx := context.Background()
	require.NoError(t, d.Select(ctx, practiceform.Gender, "Male"))

	err := d.AwaitChecked(ctx, practiceform.Gender, "Male")

	var notApplied *formrun.SelectionNotAppliedError
	require.ErrorAs(t, err, &notApplied)
	assert.Equal(t, "Male", notApplied.Option)
	assert.Equal(t, formrun.ErrInteraction, formrun.Classify(err))
}

func TestToggle(t *testing.T) {
	t.Parallel()

	d, _ := open(t)
	ctx := context.Background()

	for _, hobby := range []string{"Sports", "Music", "Sports"} {
		require.NoError(t, d.Toggle(ctx, practiceform.Hobbies, hobby))
	}

	sports, err := d.OptionChecked(ctx, practiceform.Hobbies, "Sports")
	require.NoError(t, err)
	assert.False(t, sports)

	music, err := d.OptionChecked(ctx, practiceform.Hobbies, "Music")
	require.NoError(t, err)
	assert.True(t, music)
}

func TestChoose(t *testing.T) {
	t.Parallel()

	d, site := open(t)
	ctx := context.Background()

	require.NoError(t, d.Choose(ctx, practiceform.State, "NCR"))
	assert.Equal(t, "NCR", site.Selected(practiceform.State))

	err := d.Choose(ctx, practiceform.City, "Atlantis")

	var ie *formrun.InteractionError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "choose", ie.Op)
}

func TestPickDate(t *testing.T) {
	t.Parallel()

	d, site := open(t)

	require.NoError(t, d.PickDate(context.Background(), practiceform.DateOfBirth, 2030, "January", 1))
	assert.Equal(t, time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC), site.Date())
	assert.Equal(t, "01 Jan 2030", site.Value(practiceform.DateOfBirth))
}

func TestChooseFile(t *testing.T) {
	t.Parallel()

	d, site := open(t)

	value, err := d.ChooseFile(context.Background(), practiceform.Picture, "k7.jpg")
	require.NoError(t, err)
	assert.Equal(t, `C:\fakepath\k7.jpg`, value)

	calls := site.Calls()
	assert.Equal(t, browsertest.Call{Op: "files", Selector: "#uploadPicture", Arg: "/fixtures/k7.jpg"}, calls[len(calls)-1])
}

func TestSubmit_Once(t *testing.T) {
	t.Parallel()

	d, site := open(t)

	require.NoError(t, d.Submit(context.Background()))
	assert.Equal(t, 1, site.Submits())
}

func TestSurfaces(t *testing.T) {
	t.Parallel()

	rules := practiceformtest.Rules()
	rules.RenderDelay = 5
	site := browsertest.NewSite(practiceform.Form(), rules)

	d := driver.New(site, practiceform.Form(), driver.WithTimeouts(fast))
	ctx := context.Background()
	require.NoError(t, d.Navigate(ctx))

	for _, f := range []string{practiceform.FirstName, practiceform.LastName} {
		require.NoError(t, d.SetValue(ctx, f, "Kapil"))
	}

	require.NoError(t, d.SetValue(ctx, practiceform.Email, "kapil@example.com"))
	require.NoError(t, d.SetValue(ctx, practiceform.Mobile, "9876543210"))
	require.NoError(t, d.Select(ctx, practiceform.Gender, "Male"))

	_, hidden, err := d.SurfaceStaysHidden(ctx, formrun.SurfaceConfirmation, fast.Settle)
	require.NoError(t, err)
	assert.True(t, hidden, "confirmation shown before submit")

	require.NoError(t, d.Submit(ctx))

	// Rendering is delayed, so an instantaneous read misses it.
	now, err := d.Surface(ctx, formrun.SurfaceConfirmation)
	require.NoError(t, err)
	assert.False(t, now.Found)

	el, hidden, err := d.SurfaceStaysHidden(ctx, formrun.SurfaceConfirmation, fast.Wait)
	require.NoError(t, err)
	assert.False(t, hidden)
	assert.Equal(t, practiceform.ConfirmationText, el.Text)

	require.NoError(t, d.ClickOutside(ctx, practiceform.SurfaceModal, ""))

	_, err = d.AwaitSurface(ctx, formrun.SurfaceConfirmation, false, fast.Wait)
	require.NoError(t, err)

	calls := site.Calls()
	assert.Equal(t, browsertest.Call{Op: "outside", Selector: ".modal-content", Arg: "top-right"}, calls[len(calls)-1])
}

func TestSurface_Unknown(t *testing.T) {
	t.Parallel()

	d, _ := open(t)
	_, err := d.AwaitSurface(context.Background(), "toast", true, fast.Wait)

	var unknown *formrun.UnknownFieldError
	assert.ErrorAs(t, err, &unknown)
}
