package runner

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/rlch/formrun"
)

// Result accumulates case results during execution.
type Result struct {
	mu sync.RWMutex

	// RunID identifies one invocation of the runner.
	RunID string

	StartTime time.Time
	EndTime   time.Time

	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int

	// Cases indexed by event ID: "suite::TC_04"
	Cases map[string]*ExecutionResult

	// Order preserves insertion order for display
	Order []string

	// outputs seen before a case's terminal event
	pending map[string][]string

	// case metadata announced by ActionRun
	started map[string]Event
}

// NewResult creates an initialized Result.
func NewResult() *Result {
	return &Result{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Cases:     make(map[string]*ExecutionResult),
		pending:   make(map[string][]string),
		started:   make(map[string]Event),
	}
}

// Add records a terminal event in the result.
func (r *Result) Add(event Event) {
	if !event.Action.IsTerminal() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := event.ID()

	run := r.started[id]
	delete(r.started, id)

	er := &ExecutionResult{
		Suite:        event.Suite,
		CaseID:       event.Case,
		Description:  firstNonEmpty(event.Description, run.Description),
		KnownDefect:  firstNonEmpty(event.KnownDefect, run.KnownDefect),
		Status:       event.Action,
		Passed:       event.Action == ActionPass,
		State:        event.State,
		Elapsed:      event.Elapsed,
		Error:        event.Error,
		Failure:      event.Failure,
		Observations: r.pending[id],
	}

	delete(r.pending, id)

	switch {
	case event.Failure != nil:
		er.FailureDetail = event.Failure.Detail()
	case event.Error != nil:
		er.FailureDetail = event.Error.Error()
	}

	if _, seen := r.Cases[id]; !seen {
		r.Order = append(r.Order, id)
	}

	r.Cases[id] = er
	r.Total++

	switch event.Action {
	case ActionPass:
		r.Passed++
	case ActionFail:
		r.Failed++
	case ActionSkip:
		r.Skipped++
	case ActionError:
		r.Errors++
	case ActionRun, ActionOutput, ActionState:
		// Not terminal actions
	}
}

// Start records the case metadata carried by an ActionRun event, so the
// terminal event need not repeat it.
func (r *Result) Start(event Event) {
	if event.Action != ActionRun {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.started[event.ID()] = event
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// AddOutput records an observation for the case the event belongs to.
func (r *Result) AddOutput(event Event) {
	if event.Action != ActionOutput {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := event.ID()
	if er, ok := r.Cases[id]; ok {
		er.Observations = append(er.Observations, event.Output)

		return
	}

	r.pending[id] = append(r.pending[id], event.Output)
}

// Merge folds other into r, keeping r's RunID and start time.
func (r *Result) Merge(other *Result) {
	other.mu.RLock()
	defer other.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.Total += other.Total
	r.Passed += other.Passed
	r.Failed += other.Failed
	r.Skipped += other.Skipped
	r.Errors += other.Errors

	for _, id := range other.Order {
		if _, seen := r.Cases[id]; !seen {
			r.Order = append(r.Order, id)
		}

		r.Cases[id] = other.Cases[id]
	}

	if other.EndTime.After(r.EndTime) {
		r.EndTime = other.EndTime
	}
}

// Finish marks the result as complete.
func (r *Result) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
}

// Elapsed returns the total execution time.
func (r *Result) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

// Ok returns true if all cases passed.
func (r *Result) Ok() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Failed == 0 && r.Errors == 0
}

// Results returns every case result in execution order.
func (r *Result) Results() []*ExecutionResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ExecutionResult, 0, len(r.Order))
	for _, id := range r.Order {
		out = append(out, r.Cases[id])
	}

	return out
}

// FailedCases returns all failed or errored case results.
func (r *Result) FailedCases() []*ExecutionResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var failed []*ExecutionResult

	for _, id := range r.Order {
		er := r.Cases[id]
		if er.Status == ActionFail || er.Status == ActionError {
			failed = append(failed, er)
		}
	}

	return failed
}

// DurationStats summarizes how long cases took.
type DurationStats struct {
	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	Max    time.Duration
}

// Durations computes DurationStats over every case that ran. ok is false when
// no case has run.
func (r *Result) Durations() (DurationStats, bool) {
	r.mu.RLock()

	data := make(stats.Float64Data, 0, len(r.Order))
	for _, id := range r.Order {
		if er := r.Cases[id]; er.Status != ActionSkip {
			data = append(data, float64(er.Elapsed))
		}
	}

	r.mu.RUnlock()

	if len(data) == 0 {
		return DurationStats{}, false
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return DurationStats{}, false
	}

	median, err := stats.Median(data)
	if err != nil {
		return DurationStats{}, false
	}

	p95, err := stats.Percentile(data, 95)
	if err != nil {
		// Percentile needs more than one sample.
		p95 = mean
	}

	maxVal, err := stats.Max(data)
	if err != nil {
		return DurationStats{}, false
	}

	return DurationStats{
		Mean:   time.Duration(mean),
		Median: time.Duration(median),
		P95:    time.Duration(p95),
		Max:    time.Duration(maxVal),
	}, true
}

// ExecutionResult holds the outcome of a single case.
type ExecutionResult struct {
	Suite       string
	CaseID      string
	Description string
	KnownDefect string

	Passed bool
	Status Action

	// State is the last lifecycle state reached before the outcome.
	State State

	Elapsed time.Duration
	Error   error

	// Failure is set when the outcome did not hold.
	Failure *formrun.AssertionFailure

	// FailureDetail renders Failure or Error for display.
	FailureDetail string

	// Observations are values read back during the case, such as an upload
	// control's reported file name.
	Observations []string
}

// Name returns the case id, with its description when known.
func (er *ExecutionResult) Name() string {
	if er.Description == "" {
		return er.CaseID
	}

	return er.CaseID + ": " + er.Description
}
