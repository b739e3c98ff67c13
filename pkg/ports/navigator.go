package ports

import "github.com/aretw0/stepflow/pkg/domain"

// StepNavigator decides where a task run goes next. Implementations are
// stateless: every decision is a function of the task and the TaskResult.
type StepNavigator interface {
	// GetStep resolves an identifier to a step of the task.
	GetStep(identifier string) (domain.Step, bool)

	// GetNextStep returns the step after current, or the first step when current
	// is nil. A nil step with a nil error means the task is finished.
	GetNextStep(current domain.Step, tr *domain.TaskResult) (domain.Step, error)

	// GetPreviousStep returns the structural predecessor of current, or nil when
	// there is none or the step vetoes back navigation.
	GetPreviousStep(current domain.Step, tr *domain.TaskResult) (domain.Step, error)

	// GetProgress reports how far along step is. A nil Progress means unknown.
	GetProgress(step domain.Step, tr *domain.TaskResult) (*domain.Progress, error)

	// Steps returns the leaf steps of the task.
	Steps() []domain.Step
}

// ConditionalRule overrides navigation from a secondary source. Rules must
// treat the TaskResult as read-only. An empty return means "no opinion".
type ConditionalRule interface {
	// SkipToStep is consulted before a step is displayed. Returning
	// domain.NextStepIdentifier skips it, domain.ExitIdentifier ends the task,
	// any other identifier displays that step instead.
	SkipToStep(step domain.Step, tr *domain.TaskResult) string

	// NextStepIdentifier names the step that should follow step.
	NextStepIdentifier(step domain.Step, tr *domain.TaskResult) string
}

// ReplacementRule can substitute a resolved step, e.g. with a localized variant.
type ReplacementRule interface {
	ConditionalRule
	ReplacementStep(step domain.Step, tr *domain.TaskResult) (domain.Step, bool)
}
