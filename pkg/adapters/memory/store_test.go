package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunTaskResultStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tr := domain.NewTaskResult("t")
	tr.AddStepHistory(domain.NewStepResult("a", at, at))
	require.NoError(t, store.Save(ctx, tr.RunID, tr))

	tr.AddStepHistory(domain.NewStepResult("b", at, at))

	loaded, err := store.Load(ctx, tr.RunID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, loaded.VisitedIdentifiers())

	loaded.AddStepHistory(domain.NewStepResult("c", at, at))
	again, err := store.Load(ctx, tr.RunID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.VisitedIdentifiers())
}
