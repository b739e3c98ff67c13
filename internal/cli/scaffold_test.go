package cli

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/testutils"
	loamAdapter "github.com/aretw0/stepflow/pkg/adapters/loam"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffold_LoadsAsTask(t *testing.T) {
	ctx := context.Background()
	_, repo := testutils.SetupTestRepo(t)
	require.NoError(t, Scaffold(ctx, repo))

	loader := loamAdapter.New(loam.NewTypedRepository[map[string]any](repo), loamAdapter.WithTaskID("survey"))
	flow, err := stepflow.New(ctx, loader)
	require.NoError(t, err)

	var ids []string
	for _, s := range flow.Steps() {
		ids = append(ids, s.Identifier())
	}
	assert.Equal(t, []string{"welcome", "coffee", "cups", "thanks"}, ids)

	at := time.Now()
	tr := flow.Start()
	tr.AddStepHistory(domain.NewStepResult("welcome", at, at))
	tr.AddStepHistory(domain.NewCollectionResult("coffee", at, at).
		AppendInputResult(domain.NewAnswerResult("drinks_coffee", domain.BaseTypeBoolean, false, at, at)))

	coffee, _ := flow.GetStep("coffee")
	next, err := flow.GetNextStep(coffee, tr)
	require.NoError(t, err)
	assert.Equal(t, "thanks", next.Identifier())
}
