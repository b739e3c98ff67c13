package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/adapters/file"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunTaskResultStoreContract(t, store)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tr := domain.NewTaskResult("survey")
	step := domain.NewCollectionResult("q1", at, at.Add(time.Minute)).
		AppendInputResult(domain.NewAnswerResult("colours", "list.string", []any{"red", "blue"}, at, at))
	step.SkipToIdentifier = "done"
	tr.AddStepHistory(step)
	tr.AddAsyncResult(domain.NewAnswerResult("heart_rate", "integer", 72, at, at))

	require.NoError(t, store.Save(ctx, tr.RunID, tr))
	assert.FileExists(t, filepath.Join(dir, tr.RunID+".json"))

	loaded, err := store.Load(ctx, tr.RunID)
	require.NoError(t, err)

	res, ok := loaded.Result("q1")
	require.True(t, ok)
	coll, ok := res.(domain.CollectionResult)
	require.True(t, ok)
	assert.Equal(t, "done", coll.SkipTo())

	ans, ok := loaded.FindAnswer("colours")
	require.True(t, ok)
	assert.Equal(t, []any{"red", "blue"}, ans.Answer)

	_, ok = loaded.AsyncResult("heart_rate")
	assert.True(t, ok)
}

func TestFileStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tr := domain.NewTaskResult("survey")
	require.NoError(t, store.Save(ctx, "run", tr))
	tr.AddStepHistory(domain.NewStepResult("intro", at, at))
	require.NoError(t, store.Save(ctx, "run", tr))

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, []string{"intro"}, loaded.VisitedIdentifiers())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStore_InvalidRunID(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, id, domain.NewTaskResult("t")), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}
