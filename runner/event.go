// Package runner executes scenario suites against a live form.
package runner

import (
	"time"

	"github.com/rlch/formrun"
)

// Action represents the type of case event.
type Action string

// Action constants for case events.
const (
	ActionRun    Action = "run"
	ActionPass   Action = "passed"
	ActionFail   Action = "failed"
	ActionSkip   Action = "skipped"
	ActionError  Action = "error"
	ActionOutput Action = "output"
	ActionState  Action = "state"
)

// IsTerminal returns true if this action ends a case.
func (a Action) IsTerminal() bool {
	return a == ActionPass || a == ActionFail || a == ActionSkip || a == ActionError
}

// State is a step of a case's lifecycle.
type State string

// Case states, in order. Passed and Failed are final.
const (
	StatePending   State = "pending"
	StateNavigated State = "navigated"
	StateInputting State = "inputting"
	StateSubmitted State = "submitted"
	StateVerified  State = "verified"
	StatePassed    State = "passed"
	StateFailed    State = "failed"
)

// Event represents a single case event emitted during execution.
type Event struct {
	Time    time.Time     // When the event occurred
	Action  Action        // What happened
	Suite   string        // Source file path
	Case    string        // Case id
	State   State         // New state (ActionState) or last state reached (terminal events)
	Elapsed time.Duration // Time taken (for terminal events)
	Output  string        // Observation (for ActionOutput)
	Error   error         // Error details (for ActionFail/ActionError)

	// For assertion failures
	Failure *formrun.AssertionFailure

	// Description and KnownDefect are copied from the case on ActionRun;
	// later events may repeat them.
	Description string
	KnownDefect string
}

// ID returns a unique identifier: "suite::case".
func (e Event) ID() string {
	if e.Suite == "" {
		return e.Case
	}

	return e.Suite + "::" + e.Case
}

// Name returns the case id, with its description when known.
func (e Event) Name() string {
	if e.Description == "" {
		return e.Case
	}

	return e.Case + ": " + e.Description
}
