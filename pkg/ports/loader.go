package ports

import (
	"context"

	"github.com/aretw0/stepflow/pkg/domain"
)

// TaskLoader retrieves a task definition. Implementations return validated
// tasks; authoring defects are reported as errors.
type TaskLoader interface {
	LoadTask(ctx context.Context) (*domain.Task, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload while authoring a task.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying definition changes.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
