package domain

// Reserved navigation identifiers.
const (
	// ExitIdentifier ends the task when returned as a next-step identifier.
	ExitIdentifier = "exit"
	// NextStepIdentifier asks the navigator to use the structural successor.
	NextStepIdentifier = "nextStep"
)

// StepType constants describe how a host renders a step.
const (
	StepTypeInstruction = "instruction"
	StepTypeForm        = "form"
	StepTypeActive      = "active"
	StepTypeCompletion  = "completion"
	StepTypeSection     = "section"
)

// Step is an identified unit of the task graph. Identifiers are unique within a task.
type Step interface {
	Identifier() string
}

// SectionStep groups child steps. Navigation descends into sections and only
// returns leaf steps.
type SectionStep interface {
	Step
	Steps() []Step
}

// FormStep is a step that collects answers through input fields.
type FormStep interface {
	Step
	InputFields() []InputField
}

// NextStepStrategy lets a step choose its own successor from the task result.
// An empty identifier means "no opinion".
type NextStepStrategy interface {
	NextStepIdentifier(tr *TaskResult) string
}

// SkipStepStrategy lets a step ask to be passed over.
type SkipStepStrategy interface {
	ShouldSkip(tr *TaskResult) bool
}

// BackStepStrategy lets a step veto back navigation.
type BackStepStrategy interface {
	IsBackAllowed(tr *TaskResult) bool
}

// UIStep is the general purpose leaf step loaded from task definitions.
type UIStep struct {
	ID       string       `json:"identifier" yaml:"identifier" mapstructure:"identifier"`
	Type     string       `json:"type" yaml:"type" mapstructure:"type"`
	Title    string       `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Text     string       `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Detail   string       `json:"detail,omitempty" yaml:"detail,omitempty" mapstructure:"detail"`
	Footnote string       `json:"footnote,omitempty" yaml:"footnote,omitempty" mapstructure:"footnote"`
	Fields   []InputField `json:"inputFields,omitempty" yaml:"inputFields,omitempty" mapstructure:"inputFields"`

	// BackDisabled vetoes back navigation away from this step.
	BackDisabled bool `json:"backDisabled,omitempty" yaml:"backDisabled,omitempty" mapstructure:"backDisabled"`

	// SkipIfPresent skips the step when the task result already holds a result
	// for it (e.g. a consent step answered in a previous run).
	SkipIfPresent bool `json:"skipIfPresent,omitempty" yaml:"skipIfPresent,omitempty" mapstructure:"skipIfPresent"`
}

// Identifier implements Step.
func (s *UIStep) Identifier() string { return s.ID }

// InputFields implements FormStep.
func (s *UIStep) InputFields() []InputField { return s.Fields }

// NextStepIdentifier evaluates the survey rules of the step's input fields
// against the step's own result. The first matching rule wins.
func (s *UIStep) NextStepIdentifier(tr *TaskResult) string {
	if tr == nil || len(s.Fields) == 0 {
		return ""
	}
	res, ok := tr.Result(s.ID)
	if !ok {
		return ""
	}
	for _, f := range s.Fields {
		if len(f.SurveyRules) == 0 {
			continue
		}
		answer := fieldResult(res, s.ID, f.Identifier)
		for _, rule := range f.SurveyRules {
			if id := rule.Evaluate(answer); id != "" {
				return id
			}
		}
	}
	return ""
}

// ShouldSkip implements SkipStepStrategy.
func (s *UIStep) ShouldSkip(tr *TaskResult) bool {
	if !s.SkipIfPresent || tr == nil {
		return false
	}
	_, ok := tr.Result(s.ID)
	return ok
}

// IsBackAllowed implements BackStepStrategy.
func (s *UIStep) IsBackAllowed(*TaskResult) bool { return !s.BackDisabled }

// fieldResult finds the result of one input field inside a step result.
// A single-field step may record its answer directly as the step result.
func fieldResult(res Result, stepID, fieldID string) Result {
	switch r := res.(type) {
	case CollectionResult:
		if child, ok := r.InputResult(fieldID); ok {
			return child
		}
	case AnswerResult:
		if r.Identifier() == fieldID || r.Identifier() == stepID {
			return r
		}
	}
	return nil
}

// Section is a structural step holding an ordered list of children.
type Section struct {
	ID       string `json:"identifier" yaml:"identifier"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Children []Step `json:"steps" yaml:"steps"`
}

// Identifier implements Step.
func (s *Section) Identifier() string { return s.ID }

// Steps implements SectionStep.
func (s *Section) Steps() []Step { return s.Children }

// Task is the root of a step graph.
type Task struct {
	ID    string
	Title string
	Steps []Step

	// ProgressMarkers, when set, switches progress reporting from path
	// estimation to marker counting.
	ProgressMarkers []string

	// Rules lists registered conditional rule names, in evaluation order.
	Rules []string
}

// Identifier implements Step so a task can be embedded as a section.
func (t *Task) Identifier() string { return t.ID }

// Flatten returns the leaf steps of the task in pre-order.
func (t *Task) Flatten() []Step {
	return FlattenSteps(t.Steps)
}

// FlattenSteps returns the leaves of a step list in pre-order, descending into sections.
func FlattenSteps(steps []Step) []Step {
	var out []Step
	for _, s := range steps {
		if sec, ok := s.(SectionStep); ok {
			out = append(out, FlattenSteps(sec.Steps())...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// Walk visits every step of the list, sections included, in pre-order.
func Walk(steps []Step, fn func(Step)) {
	for _, s := range steps {
		fn(s)
		if sec, ok := s.(SectionStep); ok {
			Walk(sec.Steps(), fn)
		}
	}
}
