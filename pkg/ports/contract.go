package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTaskResultStoreContract runs a suite of tests to verify that a TaskResultStore
// implementation adheres to the defined interface contract.
func RunTaskResultStoreContract(t *testing.T, store TaskResultStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		tr := domain.NewTaskResult("contract")
		tr.RunID = runID
		tr.AddStepHistory(domain.NewStepResult("intro", at, at))
		tr.AddStepHistory(domain.NewCollectionResult("q1", at, at.Add(time.Second)).
			AppendInputResult(domain.NewAnswerResult("choice", "string", "B", at, at)))

		err := store.Save(ctx, runID, tr)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "contract", loaded.ID)
		assert.Equal(t, runID, loaded.RunID)
		assert.Equal(t, []string{"intro", "q1"}, loaded.VisitedIdentifiers())

		ans, ok := loaded.FindAnswer("choice")
		require.True(t, ok)
		assert.Equal(t, "B", ans.Answer)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrTaskResultNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, runID, domain.NewTaskResult("contract"))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrTaskResultNotFound, "Load after Delete should return ErrTaskResultNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, id1, domain.NewTaskResult("contract"))
		_ = store.Save(ctx, id2, domain.NewTaskResult("contract"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
