package rules

import (
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// SkipSteps returns a rule that skips the given steps whenever they come up.
func SkipSteps(ids ...string) ports.ConditionalRule {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return Funcs{Skip: func(step domain.Step, _ *domain.TaskResult) string {
		if set[step.Identifier()] {
			return domain.NextStepIdentifier
		}
		return ""
	}}
}

// Replacements maps step identifiers to the step displayed in their place.
type Replacements map[string]domain.Step

var _ ports.ReplacementRule = Replacements{}

func (Replacements) SkipToStep(domain.Step, *domain.TaskResult) string         { return "" }
func (Replacements) NextStepIdentifier(domain.Step, *domain.TaskResult) string { return "" }

func (r Replacements) ReplacementStep(step domain.Step, _ *domain.TaskResult) (domain.Step, bool) {
	repl, ok := r[step.Identifier()]
	return repl, ok
}

// AnswerRule branches after step After based on the answer recorded for Field,
// which may belong to any earlier step of the run.
type AnswerRule struct {
	After string            `json:"after" yaml:"after" mapstructure:"after"`
	Field string            `json:"field" yaml:"field" mapstructure:"field"`
	Rule  domain.SurveyRule `json:"rule" yaml:"rule" mapstructure:"rule"`
}

var _ ports.ConditionalRule = AnswerRule{}

func (AnswerRule) SkipToStep(domain.Step, *domain.TaskResult) string { return "" }

func (a AnswerRule) NextStepIdentifier(step domain.Step, tr *domain.TaskResult) string {
	if step.Identifier() != a.After {
		return ""
	}
	var res domain.Result
	if ans, ok := tr.FindAnswer(a.Field); ok {
		res = ans
	}
	return a.Rule.Evaluate(res)
}
