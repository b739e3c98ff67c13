package taskdef

import (
	"context"
	"log/slog"

	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// Loader reads a task file on every call, so edits are picked up by the next load.
type Loader struct {
	path   string
	logger *slog.Logger
}

var _ ports.TaskLoader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a loader for the task file at path.
func NewLoader(path string, opts ...Option) *Loader {
	l := &Loader{path: path, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadTask implements ports.TaskLoader.
func (l *Loader) LoadTask(ctx context.Context) (*domain.Task, error) {
	def, err := l.LoadDefinition(ctx)
	if err != nil {
		return nil, err
	}
	return def.Task, nil
}

// LoadDefinition loads the task with its inline rules.
func (l *Loader) LoadDefinition(ctx context.Context) (*Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, err := ParseFile(l.path)
	if err != nil {
		l.logger.Error("failed to load task definition", "path", l.path, "error", err)
		return nil, err
	}
	l.logger.Debug("task definition loaded", "path", l.path, "task", def.Task.ID,
		"steps", len(def.Task.Flatten()), "inline_rules", len(def.Rules))
	return def, nil
}
