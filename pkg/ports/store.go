package ports

import (
	"context"

	"github.com/aretw0/stepflow/pkg/domain"
)

// TaskResultStore persists in-progress task results, enabling a run to be
// stopped and resumed on another process.
type TaskResultStore interface {
	// Save persists the result for a given run ID.
	Save(ctx context.Context, runID string, result *domain.TaskResult) error

	// Load retrieves the result for a given run ID.
	// Returns domain.ErrTaskResultNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.TaskResult, error)

	// Delete removes the result for a given run ID.
	Delete(ctx context.Context, runID string) error

	// List returns the run IDs currently stored.
	List(ctx context.Context) ([]string, error)
}
