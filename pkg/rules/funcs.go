package rules

import (
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Funcs adapts plain functions to a ReplacementRule. Nil functions have no opinion.
type Funcs struct {
	Skip    func(step domain.Step, tr *domain.TaskResult) string
	Next    func(step domain.Step, tr *domain.TaskResult) string
	Replace func(step domain.Step, tr *domain.TaskResult) (domain.Step, bool)
}

var _ ports.ReplacementRule = Funcs{}

func (f Funcs) SkipToStep(step domain.Step, tr *domain.TaskResult) string {
	if f.Skip == nil {
		return ""
	}
	return f.Skip(step, tr)
}

func (f Funcs) NextStepIdentifier(step domain.Step, tr *domain.TaskResult) string {
	if f.Next == nil {
		return ""
	}
	return f.Next(step, tr)
}

func (f Funcs) ReplacementStep(step domain.Step, tr *domain.TaskResult) (domain.Step, bool) {
	if f.Replace == nil {
		return nil, false
	}
	return f.Replace(step, tr)
}
