package dsl

import (
	"fmt"

	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/taskdef"
)

// container is anything that can hold steps: the task or a section.
type container struct {
	steps []*StepBuilder
}

func (c *container) add(id, typ string) *StepBuilder {
	for _, sb := range c.steps {
		if sb.def.ID == id {
			return sb
		}
	}
	sb := &StepBuilder{def: taskdef.StepDef{ID: id, Type: typ}}
	c.steps = append(c.steps, sb)
	return sb
}

// Instruction adds an informational step.
func (c *container) Instruction(id string) *StepBuilder {
	return c.add(id, domain.StepTypeInstruction)
}

// Form adds a step that collects answers.
func (c *container) Form(id string) *StepBuilder {
	return c.add(id, domain.StepTypeForm)
}

// Active adds a step that runs an activity, such as a timed walk.
func (c *container) Active(id string) *StepBuilder {
	return c.add(id, domain.StepTypeActive)
}

// Completion adds a closing step.
func (c *container) Completion(id string) *StepBuilder {
	return c.add(id, domain.StepTypeCompletion)
}

// Section adds a nested section. Calling it again with the same identifier
// returns the existing section.
func (c *container) Section(id string) *SectionBuilder {
	sb := c.add(id, domain.StepTypeSection)
	if sb.section == nil {
		sb.section = &SectionBuilder{step: sb}
	}
	return sb.section
}

func (c *container) defs() []taskdef.StepDef {
	out := make([]taskdef.StepDef, 0, len(c.steps))
	for _, sb := range c.steps {
		out = append(out, sb.build())
	}
	return out
}

// Builder manages the task construction. Steps keep the order they were added in.
type Builder struct {
	container
	def taskdef.TaskDef
}

// New creates a new task builder.
func New(id string) *Builder {
	return &Builder{def: taskdef.TaskDef{ID: id}}
}

// Title sets the task title.
func (b *Builder) Title(title string) *Builder {
	b.def.Title = title
	return b
}

// ProgressMarkers switches progress reporting to the given steps.
func (b *Builder) ProgressMarkers(ids ...string) *Builder {
	b.def.ProgressMarkers = append(b.def.ProgressMarkers, ids...)
	return b
}

// Rules names registered conditional rules, in evaluation order.
func (b *Builder) Rules(names ...string) *Builder {
	b.def.Rules = append(b.def.Rules, names...)
	return b
}

// Skip always passes over the given steps.
func (b *Builder) Skip(ids ...string) *Builder {
	b.def.Skip = append(b.def.Skip, ids...)
	return b
}

// Branch jumps to skipTo after step after when field's answer satisfies
// operator against matching. An empty operator means equality.
func (b *Builder) Branch(after, field, operator string, matching any, skipTo string) *Builder {
	b.def.Branches = append(b.def.Branches, taskdef.BranchDef{
		After:   after,
		Field:   field,
		RuleDef: taskdef.RuleDef{Operator: operator, Matching: matching, SkipTo: skipTo},
	})
	return b
}

// Definition validates the task and returns it with its inline rules.
func (b *Builder) Definition() (*taskdef.Definition, error) {
	def := b.def
	def.Steps = b.defs()
	return taskdef.Build(def)
}

// Build compiles the task into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	def, err := b.Definition()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewLoader(def.Task, def.Rules...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// SectionBuilder adds steps to a section.
type SectionBuilder struct {
	container
	step *StepBuilder
}

// Title sets the section title.
func (s *SectionBuilder) Title(title string) *SectionBuilder {
	s.step.def.Title = title
	return s
}
