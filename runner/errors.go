package runner

import "errors"

// Sentinel errors for the runner package.
var (
	// ErrMaxFailures is returned when the max failure limit is reached.
	ErrMaxFailures = errors.New("runner: max failures reached")

	// ErrNoBrowser is returned when no browser is configured.
	ErrNoBrowser = errors.New("runner: no browser configured")

	// ErrBadSelection is returned when a --run pattern or --where expression
	// does not compile.
	ErrBadSelection = errors.New("runner: invalid case selection")

	// Test errors for use in unit tests.
	errTestStop = errors.New("test: stop")
)
