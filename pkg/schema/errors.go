package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field name or dotted path
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns all validation errors if err is or wraps an
// AggregateError. Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Prefix prepends path to the key of every ValidationError in err, so nested
// failures read as "steps.2.id".
func Prefix(path string, err error) error {
	if err == nil {
		return nil
	}
	errs := ValidationErrors(err)
	if errs == nil {
		errs = []error{err}
	}
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		var ve *ValidationError
		if errors.As(e, &ve) {
			out = append(out, &ValidationError{Key: path + "." + ve.Key, Reason: ve.Reason, Value: ve.Value})
			continue
		}
		out = append(out, &ValidationError{Key: path, Reason: e.Error()})
	}
	return &AggregateError{Errors: out}
}

// Join collects the non-nil errors into one AggregateError, flattening
// nested aggregates. Returns nil when there is nothing to report.
func Join(errs ...error) error {
	var out []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if nested := ValidationErrors(err); nested != nil {
			out = append(out, nested...)
			continue
		}
		out = append(out, err)
	}
	if len(out) == 0 {
		return nil
	}
	return &AggregateError{Errors: out}
}
