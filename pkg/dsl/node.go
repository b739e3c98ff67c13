package dsl

import (
	"fmt"

	"github.com/aretw0/stepflow/pkg/taskdef"
)

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	def     taskdef.StepDef
	fields  []*FieldBuilder
	section *SectionBuilder
}

// Title sets the step title.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.def.Title = title
	return s
}

// Text sets the step body. Markdown is allowed.
func (s *StepBuilder) Text(text string) *StepBuilder {
	s.def.Text = text
	return s
}

// Detail sets secondary text shown under the body.
func (s *StepBuilder) Detail(detail string) *StepBuilder {
	s.def.Detail = detail
	return s
}

// Footnote sets the footnote.
func (s *StepBuilder) Footnote(footnote string) *StepBuilder {
	s.def.Footnote = footnote
	return s
}

// NoBack vetoes back navigation away from the step.
func (s *StepBuilder) NoBack() *StepBuilder {
	s.def.BackDisabled = true
	return s
}

// SkipIfAnswered passes over the step when the run already holds its result.
func (s *StepBuilder) SkipIfAnswered() *StepBuilder {
	s.def.SkipIfPresent = true
	return s
}

// Field adds an input field, or returns the existing one with that identifier.
// dataType uses the "collection.base" notation, e.g. "multipleChoice.integer".
func (s *StepBuilder) Field(id, dataType string) *FieldBuilder {
	for _, fb := range s.fields {
		if fb.def.ID == id {
			return fb
		}
	}
	fb := &FieldBuilder{def: taskdef.FieldDef{ID: id, DataType: dataType}}
	s.fields = append(s.fields, fb)
	return fb
}

func (s *StepBuilder) build() taskdef.StepDef {
	def := s.def
	def.Fields = nil
	for _, fb := range s.fields {
		def.Fields = append(def.Fields, fb.def)
	}
	if s.section != nil {
		def.Steps = s.section.defs()
	}
	return def
}

// FieldBuilder provides a fluent API for configuring an input field.
type FieldBuilder struct {
	def taskdef.FieldDef
}

// Prompt sets the question text.
func (f *FieldBuilder) Prompt(prompt string) *FieldBuilder {
	f.def.Prompt = prompt
	return f
}

// Placeholder sets the hint shown in an empty text field.
func (f *FieldBuilder) Placeholder(text string) *FieldBuilder {
	f.def.Placeholder = text
	return f
}

// Optional lets the participant leave the field unanswered.
func (f *FieldBuilder) Optional() *FieldBuilder {
	f.def.Optional = true
	return f
}

// Hint sets the UI hint.
func (f *FieldBuilder) Hint(hint string) *FieldBuilder {
	f.def.UIHint = hint
	return f
}

// Choices adds choices whose text is the formatted value.
func (f *FieldBuilder) Choices(values ...any) *FieldBuilder {
	for _, v := range values {
		f.def.Choices = append(f.def.Choices, taskdef.ChoiceDef{Text: toText(v), Value: v})
	}
	return f
}

// Choice adds one choice. A nil value contributes nothing to the answer.
func (f *FieldBuilder) Choice(text string, value any) *FieldBuilder {
	f.def.Choices = append(f.def.Choices, taskdef.ChoiceDef{Text: text, Value: value})
	return f
}

// ExclusiveChoice adds a choice that deselects every other choice.
func (f *FieldBuilder) ExclusiveChoice(text string, value any) *FieldBuilder {
	f.def.Choices = append(f.def.Choices, taskdef.ChoiceDef{Text: text, Value: value, Exclusive: true})
	return f
}

// SkipTo jumps to target when the answer equals matching.
func (f *FieldBuilder) SkipTo(matching any, target string) *FieldBuilder {
	return f.When("", matching, target)
}

// When jumps to target when the answer satisfies operator against matching.
func (f *FieldBuilder) When(operator string, matching any, target string) *FieldBuilder {
	f.def.Rules = append(f.def.Rules, taskdef.RuleDef{Operator: operator, Matching: matching, SkipTo: target})
	return f
}

func toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
