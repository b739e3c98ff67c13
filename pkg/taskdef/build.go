package taskdef

import (
	"fmt"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/rules"
	"github.com/aretw0/stepflow/pkg/schema"
)

var (
	uiHints = map[string]bool{
		domain.UIHintList: true, domain.UIHintCheckbox: true, domain.UIHintRadioButton: true,
		domain.UIHintPicker: true, domain.UIHintSlider: true, domain.UIHintToggle: true,
		domain.UIHintTextField: true, domain.UIHintPopover: true,
	}
	operators = map[string]bool{
		"": true, domain.OperatorSkip: true, domain.OperatorEqual: true, domain.OperatorNotEqual: true,
		domain.OperatorLessThan: true, domain.OperatorGreaterThan: true,
		domain.OperatorLessThanOrEqual: true, domain.OperatorGreaterThanOrEqual: true,
	}
)

// reference is an identifier that must name a step once all steps are known.
type reference struct {
	path string
	id   string
}

type builder struct {
	errs   []error
	steps  map[string]bool
	fields map[string]bool
	refs   []reference
}

func (b *builder) fail(path, format string, args ...any) {
	b.errs = append(b.errs, &schema.ValidationError{Key: path, Reason: fmt.Sprintf(format, args...)})
}

// Build validates a decoded definition and converts it into a task.
func Build(def TaskDef) (*Definition, error) {
	b := &builder{steps: make(map[string]bool), fields: make(map[string]bool)}

	if len(def.Steps) == 0 {
		b.fail("steps", "task has no steps")
	}
	steps := b.buildSteps("steps", def.Steps)

	for i, id := range def.ProgressMarkers {
		b.refs = append(b.refs, reference{path: fmt.Sprintf("progress_markers.%d", i), id: id})
	}
	for i, id := range def.Skip {
		b.refs = append(b.refs, reference{path: fmt.Sprintf("skip.%d", i), id: id})
	}

	inline := make([]ports.ConditionalRule, 0, len(def.Branches)+1)
	if len(def.Skip) > 0 {
		inline = append(inline, rules.SkipSteps(def.Skip...))
	}
	for i, br := range def.Branches {
		path := fmt.Sprintf("branches.%d", i)
		b.refs = append(b.refs, reference{path: path + ".after", id: br.After})
		if !b.fields[br.Field] {
			b.fail(path+".field", "unknown input field %q", br.Field)
		}
		inline = append(inline, rules.AnswerRule{
			After: br.After,
			Field: br.Field,
			Rule:  b.buildRule(path, br.RuleDef, nil),
		})
	}

	for _, ref := range b.refs {
		switch ref.id {
		case "", domain.ExitIdentifier, domain.NextStepIdentifier:
			continue
		}
		if !b.steps[ref.id] {
			b.fail(ref.path, "unknown step %q", ref.id)
		}
	}

	if err := schema.Join(b.errs...); err != nil {
		return nil, &DefinitionError{Err: err}
	}

	return &Definition{
		Task: &domain.Task{
			ID:              def.ID,
			Title:           def.Title,
			Steps:           steps,
			ProgressMarkers: def.ProgressMarkers,
			Rules:           def.Rules,
		},
		Rules: inline,
	}, nil
}

func (b *builder) buildSteps(path string, defs []StepDef) []domain.Step {
	out := make([]domain.Step, 0, len(defs))
	for i, sd := range defs {
		if s := b.buildStep(fmt.Sprintf("%s.%d", path, i), sd); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (b *builder) buildStep(path string, sd StepDef) domain.Step {
	if sd.ID == "" {
		b.fail(path+".id", "required")
		return nil
	}
	if sd.ID == domain.ExitIdentifier || sd.ID == domain.NextStepIdentifier {
		b.fail(path+".id", "%q is a reserved identifier", sd.ID)
	}
	if b.steps[sd.ID] {
		b.fail(path+".id", "duplicate step identifier %q", sd.ID)
	}
	b.steps[sd.ID] = true

	typ := sd.Type
	if typ == "" {
		switch {
		case len(sd.Steps) > 0:
			typ = domain.StepTypeSection
		case len(sd.Fields) > 0:
			typ = domain.StepTypeForm
		default:
			typ = domain.StepTypeInstruction
		}
	}

	if typ == domain.StepTypeSection {
		if len(sd.Fields) > 0 {
			b.fail(path+".fields", "sections cannot declare input fields")
		}
		if len(sd.Steps) == 0 {
			b.fail(path+".steps", "section has no steps")
		}
		return &domain.Section{
			ID:       sd.ID,
			Title:    sd.Title,
			Children: b.buildSteps(path+".steps", sd.Steps),
		}
	}
	if len(sd.Steps) > 0 {
		b.fail(path+".steps", "only sections can nest steps")
	}

	seen := make(map[string]bool, len(sd.Fields))
	fields := make([]domain.InputField, 0, len(sd.Fields))
	for i, fd := range sd.Fields {
		fpath := fmt.Sprintf("%s.fields.%d", path, i)
		if seen[fd.ID] {
			b.fail(fpath+".id", "duplicate input field %q", fd.ID)
		}
		seen[fd.ID] = true
		b.fields[fd.ID] = true
		fields = append(fields, b.buildField(fpath, fd))
	}

	return &domain.UIStep{
		ID:            sd.ID,
		Type:          typ,
		Title:         sd.Title,
		Text:          sd.Text,
		Detail:        sd.Detail,
		Footnote:      sd.Footnote,
		Fields:        fields,
		BackDisabled:  sd.BackDisabled,
		SkipIfPresent: sd.SkipIfPresent,
	}
}

func (b *builder) buildField(path string, fd FieldDef) domain.InputField {
	field := domain.InputField{
		Identifier:   fd.ID,
		Prompt:       fd.Prompt,
		PromptDetail: fd.PromptDetail,
		Placeholder:  fd.Placeholder,
		Optional:     fd.Optional,
		UIHint:       fd.UIHint,
	}
	if fd.ID == "" {
		b.fail(path+".id", "required")
	}
	if fd.UIHint != "" && !uiHints[fd.UIHint] {
		b.fail(path+".ui_hint", "unknown ui hint %q", fd.UIHint)
	}

	dt, err := domain.ParseInputDataType(fd.DataType)
	if err != nil {
		b.fail(path+".data_type", "%v", err)
		return field
	}
	field.DataType = dt

	base, err := schema.ForBaseType(dt.Base)
	if err != nil {
		b.fail(path+".data_type", "%v", err)
		return field
	}

	switch dt.Collection {
	case domain.CollectionSingleChoice, domain.CollectionMultipleChoice:
		if len(fd.Choices) == 0 {
			b.fail(path+".choices", "%s field requires choices", dt.Collection)
		}
	}

	values := make(map[string]bool, len(fd.Choices))
	for i, cd := range fd.Choices {
		cpath := fmt.Sprintf("%s.choices.%d", path, i)
		if cd.Value != nil {
			if err := base.Validate(cd.Value); err != nil {
				b.fail(cpath+".value", "%v", err)
			}
			key := fmt.Sprint(cd.Value)
			if values[key] {
				b.fail(cpath+".value", "duplicate choice value %q", key)
			}
			values[key] = true
		}
		field.Choices = append(field.Choices, domain.Choice{
			Text:      cd.Text,
			Detail:    cd.Detail,
			Value:     cd.Value,
			Exclusive: cd.Exclusive,
			Icon:      cd.Icon,
		})
	}

	for i, rd := range fd.Rules {
		field.SurveyRules = append(field.SurveyRules, b.buildRule(fmt.Sprintf("%s.rules.%d", path, i), rd, base))
	}
	return field
}

// buildRule converts a rule. When base is known the matching answer is
// checked against it.
func (b *builder) buildRule(path string, rd RuleDef, base schema.Type) domain.SurveyRule {
	if !operators[rd.Operator] {
		b.fail(path+".operator", "unknown operator %q", rd.Operator)
	}
	if rd.Operator != domain.OperatorSkip {
		if rd.Matching == nil {
			b.fail(path+".matching", "required")
		} else if base != nil {
			if err := base.Validate(rd.Matching); err != nil {
				b.fail(path+".matching", "%v", err)
			}
		}
	}
	b.refs = append(b.refs, reference{path: path + ".skip_to", id: rd.SkipTo})
	return domain.SurveyRule{
		Operator:         rd.Operator,
		MatchingAnswer:   rd.Matching,
		SkipToIdentifier: rd.SkipTo,
	}
}
