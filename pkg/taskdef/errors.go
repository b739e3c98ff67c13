package taskdef

import "fmt"

// DefinitionError reports an invalid task definition.
type DefinitionError struct {
	// Source is the file or document the definition came from, if known.
	Source string
	Err    error
}

func (e *DefinitionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid task definition: %v", e.Err)
	}
	return fmt.Sprintf("invalid task definition %s: %v", e.Source, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }
