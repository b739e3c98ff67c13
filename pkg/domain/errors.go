package domain

import (
	"errors"
	"fmt"
)

// ErrStepNotFound is returned when an identifier does not resolve to a step of the task.
var ErrStepNotFound = errors.New("step not found")

// ErrTaskResultNotFound is returned when a run ID cannot be found in the store.
var ErrTaskResultNotFound = errors.New("task result not found")

// ErrNavigationLoop is returned when skip rules keep redirecting without settling on a step.
var ErrNavigationLoop = errors.New("navigation loop detected")

// NotFoundError reports an identifier produced by a skip-to result, a step strategy
// or a conditional rule that does not exist in the task.
type NotFoundError struct {
	Identifier string
	// Source names what produced the identifier (e.g. "skip-to", "rule", "strategy").
	Source string
	// From is the step navigation started at, empty for the first step.
	From string
}

func (e *NotFoundError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("%s: %q (from %s)", ErrStepNotFound, e.Identifier, e.Source)
	}
	return fmt.Sprintf("%s: %q (from %s at step %q)", ErrStepNotFound, e.Identifier, e.Source, e.From)
}

func (e *NotFoundError) Unwrap() error {
	return ErrStepNotFound
}
