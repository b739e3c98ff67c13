package http

import (
	"fmt"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/schema"
)

// validateResult checks that res belongs to step and that every answer it
// carries matches the data type of its input field.
func validateResult(step domain.Step, res domain.Result) error {
	if _, ok := step.(domain.SectionStep); ok {
		return fmt.Errorf("step %q is a section and records no results", step.Identifier())
	}
	fields := map[string]domain.InputField{}
	if fs, ok := step.(domain.FormStep); ok {
		for _, f := range fs.InputFields() {
			fields[f.Identifier] = f
		}
	}

	var answers []domain.AnswerResult
	switch r := res.(type) {
	case domain.AnswerResult:
		answers = append(answers, r)
	case domain.CollectionResult:
		for _, in := range r.InputResults {
			a, ok := in.(domain.AnswerResult)
			if !ok {
				return fmt.Errorf("input result %q: expected an answer, got %s", in.Identifier(), in.Type())
			}
			answers = append(answers, a)
		}
	}

	var errs []error
	for _, a := range answers {
		field, ok := fields[a.Identifier()]
		if !ok {
			errs = append(errs, &schema.ValidationError{Key: a.Identifier(), Reason: "unknown input field"})
			continue
		}
		if a.Answer == nil {
			continue
		}
		typ, err := schema.ForDataType(field.DataType)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := schema.ValidateValue(a.Identifier(), typ, a.Answer); err != nil {
			errs = append(errs, err)
		}
	}
	if err := schema.Join(errs...); err != nil {
		return fmt.Errorf("invalid answers for step %q: %w", step.Identifier(), err)
	}
	return nil
}
