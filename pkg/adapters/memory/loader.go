package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/taskdef"
)

// Loader implements ports.TaskLoader for a task built in code.
type Loader struct {
	def *taskdef.Definition
}

var _ ports.TaskLoader = (*Loader)(nil)

// NewLoader wraps task together with rules declared alongside it.
// Step identifiers must be unique.
func NewLoader(task *domain.Task, rules ...ports.ConditionalRule) (*Loader, error) {
	if task == nil {
		return nil, fmt.Errorf("task is nil")
	}
	seen := make(map[string]bool)
	var dup string
	domain.Walk(task.Steps, func(s domain.Step) {
		if seen[s.Identifier()] && dup == "" {
			dup = s.Identifier()
		}
		seen[s.Identifier()] = true
	})
	if dup != "" {
		return nil, fmt.Errorf("duplicate step identifier: %s", dup)
	}
	return &Loader{def: &taskdef.Definition{Task: task, Rules: rules}}, nil
}

// LoadTask returns the wrapped task.
func (l *Loader) LoadTask(ctx context.Context) (*domain.Task, error) {
	def, err := l.LoadDefinition(ctx)
	if err != nil {
		return nil, err
	}
	return def.Task, nil
}

// LoadDefinition returns the task with its rules.
func (l *Loader) LoadDefinition(ctx context.Context) (*taskdef.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.def, nil
}
