package runner

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/formrun"
)

const suiteName = "practiceform/scenarios.yaml"

var t0 = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func sampleFailure() *formrun.AssertionFailure {
	return &formrun.AssertionFailure{
		Kind:     formrun.MissingInvalidSignal,
		Field:    "mobile",
		Expected: "{Valid:false}",
		Observed: "{Valid:true}",
		Diff:     "  verify.validity{\n- \tValid: false,\n+ \tValid: true,\n  }\n",
	}
}

// sampleEvents is a run with a pass, a pass with an observation, an assertion
// failure and an error.
func sampleEvents() []Event {
	failure := sampleFailure()

	events := []Event{
		{Action: ActionRun, Case: "TC_04", Description: "valid basics are accepted", State: StatePending},
		{Action: ActionPass, Case: "TC_04", Description: "valid basics are accepted", State: StateVerified, Elapsed: 2 * time.Second},
		{
			Action: ActionRun, Case: "TC_36", Description: "text file upload", State: StatePending,
			KnownDefect: "the picture control accepts non-image files",
		},
		{Action: ActionOutput, Case: "TC_36", Output: `picture: C:\fakepath\sample.txt`},
		{Action: ActionPass, Case: "TC_36", Description: "text file upload", State: StateVerified, Elapsed: 500 * time.Millisecond},
		{Action: ActionRun, Case: "TC_06", Description: "short phone number is rejected", State: StatePending},
		{
			Action: ActionFail, Case: "TC_06", Description: "short phone number is rejected", State: StateVerified,
			Elapsed: 1500 * time.Millisecond, Error: failure, Failure: failure,
		},
		{Action: ActionRun, Case: "TC_41", Description: "state without a city is rejected", State: StatePending},
		{
			Action: ActionError, Case: "TC_41", Description: "state without a city is rejected", State: StateInputting,
			Elapsed: 4 * time.Second, Error: &formrun.FieldNotReadyError{Field: "state menu", Wait: 4 * time.Second},
		},
	}

	for i := range events {
		events[i].Time = t0
		events[i].Suite = suiteName
	}

	return events
}

// feed formats every sample event and returns the finished result.
func feed(t *testing.T, f Formatter) *Result {
	t.Helper()

	result := NewResult()
	result.StartTime = t0
	rh := NewResultHandler()

	for _, e := range sampleEvents() {
		require.NoError(t, rh.Event(t.Context(), e, result))
		require.NoError(t, f.Format(e, result))
	}

	result.EndTime = t0.Add(8 * time.Second)

	return result
}

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()

	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDotsFormatter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := NewDotsFormatter(&buf)

	_ = f.Format(Event{Action: ActionRun}, nil)
	_ = f.Format(Event{Action: ActionState, State: StateSubmitted}, nil)

	assert.Zero(t, buf.Len(), "non-terminal events should produce no output")

	_ = f.Format(Event{Action: ActionPass}, nil)
	_ = f.Format(Event{Action: ActionFail}, nil)
	_ = f.Format(Event{Action: ActionSkip}, nil)
	_ = f.Format(Event{Action: ActionError}, nil)

	assert.Equal(t, ".FSE", buf.String())
}

func TestDotsFormatter_Summary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := NewDotsFormatter(&buf)
	result := feed(t, f)

	require.NoError(t, f.Summary(result))
	golden(t).Assert(t, "dots", buf.Bytes())
}

func TestVerboseFormatter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	feed(t, NewVerboseFormatter(&buf))
	golden(t).Assert(t, "verbose", buf.Bytes())
}

func TestVerboseFormatter_Summary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := NewVerboseFormatter(&buf)
	result := NewResult()
	result.StartTime = t0

	for _, id := range []string{"TC_01", "TC_02"} {
		result.Add(Event{Action: ActionPass, Case: id, Elapsed: time.Second})
	}

	result.EndTime = t0.Add(2 * time.Second)

	require.NoError(t, f.Summary(result))

	got := buf.String()
	assert.Contains(t, got, "PASS\n")
	assert.Contains(t, got, "2 total, 2 passed, 0 failed, 0 skipped, 0 errors")
	assert.Contains(t, got, "per case: mean 1s, median 1s, p95 1s, max 1s")
	assert.Contains(t, got, "elapsed: 2s")
}

func TestJSONFormatter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	feed(t, NewJSONFormatter(&buf))
	golden(t).Assert(t, "json", buf.Bytes())
}

func TestJSONFormatter_Summary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := NewJSONFormatter(&buf)
	result := feed(t, f)

	buf.Reset()
	require.NoError(t, f.Summary(result))

	var summary map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))

	assert.Equal(t, "summary", summary["action"])
	assert.Equal(t, result.RunID, summary["run_id"])
	assert.InDelta(t, 4, summary["total"], 0)
	assert.InDelta(t, 2, summary["passed"], 0)
	assert.InDelta(t, 1, summary["failed"], 0)
	assert.InDelta(t, 1, summary["errors"], 0)
	assert.InDelta(t, 8, summary["elapsed"], 0)
	assert.Equal(t, false, summary["ok"])
}

func TestResult_Observations(t *testing.T) {
	t.Parallel()

	result := feed(t, NewDotsFormatter(&bytes.Buffer{}))

	er := result.Cases[suiteName+"::TC_36"]
	require.NotNil(t, er)
	assert.True(t, er.Passed)
	assert.Equal(t, []string{`picture: C:\fakepath\sample.txt`}, er.Observations)
	assert.Equal(t, "the picture control accepts non-image files", er.KnownDefect)

	failed := result.FailedCases()
	require.Len(t, failed, 2)
	assert.Equal(t, "TC_06", failed[0].CaseID)
	assert.Equal(t, sampleFailure().Detail(), failed[0].FailureDetail)
	assert.Equal(t, StateInputting, failed[1].State)
	assert.ErrorIs(t, failed[1].Error, formrun.ErrTimeout)
}

func TestResult_Durations(t *testing.T) {
	t.Parallel()

	result := NewResult()

	_, ok := result.Durations()
	assert.False(t, ok)

	result.Add(Event{Action: ActionPass, Case: "TC_04", Elapsed: 3 * time.Second})

	d, ok := result.Durations()
	require.True(t, ok)
	assert.Equal(t, DurationStats{Mean: 3 * time.Second, Median: 3 * time.Second, P95: 3 * time.Second, Max: 3 * time.Second}, d)
}

func TestResultHandler_RunMetadata(t *testing.T) {
	t.Parallel()

	result := NewResult()
	rh := NewResultHandler()

	for _, e := range []Event{
		{Action: ActionRun, Suite: suiteName, Case: "TC_47", Description: "names longer than fifty characters", KnownDefect: "names have no length limit"},
		{Action: ActionPass, Suite: suiteName, Case: "TC_47", State: StateVerified},
	} {
		require.NoError(t, rh.Event(t.Context(), e, result))
	}

	er := result.Cases[suiteName+"::TC_47"]
	require.NotNil(t, er)
	assert.Equal(t, "names longer than fifty characters", er.Description)
	assert.Equal(t, "names have no length limit", er.KnownDefect)
	assert.Equal(t, "TC_47: names longer than fifty characters", er.Name())
}
