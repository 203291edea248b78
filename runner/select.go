package runner

import (
	"fmt"
	"regexp"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rlch/formrun"
)

// caseEnv is what a --where expression sees.
type caseEnv struct {
	ID          string   `expr:"id"`
	Description string   `expr:"description"`
	Tags        []string `expr:"tags"`
	Outcome     string   `expr:"outcome"`
	Field       string   `expr:"field"`
	KnownDefect bool     `expr:"known_defect"`
	Fill        bool     `expr:"fill"`
}

func envFor(c *formrun.ScenarioCase) caseEnv {
	return caseEnv{
		ID:          c.ID,
		Description: c.Description,
		Tags:        c.Tags,
		Outcome:     string(c.Expect.Kind),
		Field:       c.Expect.Field,
		KnownDefect: c.KnownDefect != "",
		Fill:        c.Fill != nil,
	}
}

type selector struct {
	filter *regexp.Regexp
	where  *vm.Program
}

func compileSelector(pattern, where string) (selector, error) {
	var s selector

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return s, fmt.Errorf("%w: --run %q: %w", ErrBadSelection, pattern, err)
		}

		s.filter = re
	}

	if where != "" {
		program, err := expr.Compile(where, expr.Env(caseEnv{}), expr.AsBool())
		if err != nil {
			return s, fmt.Errorf("%w: --where: %w", ErrBadSelection, err)
		}

		s.where = program
	}

	return s, nil
}

// matches returns true if the case is selected. With no filter and no
// expression every case matches.
func (s selector) matches(c *formrun.ScenarioCase) (bool, error) {
	if s.filter != nil && !s.filter.MatchString(c.ID) {
		return false, nil
	}

	if s.where == nil {
		return true, nil
	}

	out, err := expr.Run(s.where, envFor(c))
	if err != nil {
		return false, fmt.Errorf("%w: --where on %s: %w", ErrBadSelection, c.ID, err)
	}

	ok, _ := out.(bool)

	return ok, nil
}

// cases returns the cases of suite the selector matches, in suite order.
func (s selector) cases(suite *formrun.Suite) ([]*formrun.ScenarioCase, error) {
	var out []*formrun.ScenarioCase

	for _, c := range suite.Cases {
		ok, err := s.matches(c)
		if err != nil {
			return nil, err
		}

		if ok {
			out = append(out, c)
		}
	}

	return out, nil
}

// Select returns the cases of suite that a run with the same --run pattern
// and --where expression would execute, in suite order.
func Select(suite *formrun.Suite, pattern, where string) ([]*formrun.ScenarioCase, error) {
	sel, err := compileSelector(pattern, where)
	if err != nil {
		return nil, err
	}

	return sel.cases(suite)
}
