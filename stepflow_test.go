package stepflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/testutils"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/dsl"
	"github.com/aretw0/stepflow/pkg/form"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func threeStepTask(t *testing.T) *dsl.Builder {
	t.Helper()
	b := dsl.New("e2e")
	b.Instruction("intro").Title("Intro")
	b.Form("q1").Field("answer", "singleChoice.string").Choices("A", "B", "C")
	b.Form("q2").Field("comment", "string").Optional()
	return b
}

func TestFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	loader, err := threeStepTask(t).Build()
	require.NoError(t, err)

	flow, err := stepflow.New(ctx, loader)
	require.NoError(t, err)

	tr := flow.Start()
	assert.Equal(t, "e2e", tr.ID)

	intro, err := flow.GetNextStep(nil, tr)
	require.NoError(t, err)
	require.Equal(t, "intro", intro.Identifier())
	tr.AddStepHistory(domain.NewStepResult("intro", at, at))

	q1, err := flow.GetNextStep(intro, tr)
	require.NoError(t, err)
	require.Equal(t, "q1", q1.Identifier())

	adapter := flow.Form(q1, tr, form.WithClock(func() time.Time { return at }))
	path := form.IndexPath{Section: 0, Row: 1}
	item, ok := adapter.Item(path)
	require.True(t, ok)
	res, status := adapter.SelectAnswer(item, path)
	require.Equal(t, form.StatusOK, status)
	assert.True(t, res.Selected)
	assert.True(t, adapter.AllAnswersValid())

	tr.AddStepHistory(adapter.Result())

	ans, ok := tr.FindAnswer("answer")
	require.True(t, ok)
	assert.Equal(t, "B", ans.Answer)

	q2, err := flow.GetNextStep(q1, tr)
	require.NoError(t, err)
	require.Equal(t, "q2", q2.Identifier())

	progress, err := flow.GetProgress(q2, tr)
	require.NoError(t, err)
	require.NotNil(t, progress)
	assert.Equal(t, 2, progress.Current)
	assert.Equal(t, 3, progress.Total)
	assert.False(t, progress.IsEstimated)

	end, err := flow.GetNextStep(q2, tr)
	require.NoError(t, err)
	assert.Nil(t, end)

	prev, err := flow.GetPreviousStep(q2, tr)
	require.NoError(t, err)
	assert.Equal(t, "q1", prev.Identifier())

	t.Run("returning to a step shows its answers", func(t *testing.T) {
		again := flow.Form(q1, tr)
		g, ok := again.ItemGroup("answer")
		require.True(t, ok)
		assert.Equal(t, "B", g.Answer())
	})
}

func TestFlow_RuleOrdering(t *testing.T) {
	ctx := context.Background()
	b := dsl.New("ordered").Rules("skip-intro").Skip("q1")
	b.Instruction("intro")
	b.Form("q1").Field("f", "string")
	b.Completion("done")
	loader, err := b.Build()
	require.NoError(t, err)

	t.Run("unknown rule name", func(t *testing.T) {
		_, err := stepflow.New(ctx, loader)
		assert.ErrorContains(t, err, "rule not found: skip-intro")
	})

	reg := registry.NewRegistry()
	reg.Register("skip-intro", rules.SkipSteps("intro"))

	var events []string
	flow, err := stepflow.New(ctx, loader,
		stepflow.WithRegistry(reg),
		stepflow.WithLifecycleHooks(domain.LifecycleHooks{
			OnSkip: func(ev *domain.NavigationEvent) { events = append(events, ev.To) },
		}),
	)
	require.NoError(t, err)

	first, err := flow.GetNextStep(nil, flow.Start())
	require.NoError(t, err)
	assert.Equal(t, "done", first.Identifier())
	assert.Equal(t, []string{"intro", "q1"}, events)
}

func TestFlow_ExtraRulesAndMarkers(t *testing.T) {
	ctx := context.Background()
	loader, err := threeStepTask(t).Build()
	require.NoError(t, err)

	redirect := rules.Funcs{
		Next: func(step domain.Step, _ *domain.TaskResult) string {
			if step.Identifier() == "intro" {
				return "q2"
			}
			return ""
		},
	}
	flow, err := stepflow.New(ctx, loader,
		stepflow.WithRules(redirect),
		stepflow.WithProgressMarkers("q1", "q2"),
	)
	require.NoError(t, err)

	tr := flow.Start()
	intro, _ := flow.GetStep("intro")
	next, err := flow.GetNextStep(intro, tr)
	require.NoError(t, err)
	assert.Equal(t, "q2", next.Identifier())

	p, err := flow.GetProgress(next, tr)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.Total)
	assert.False(t, p.IsEstimated)

	_, err = stepflow.New(ctx, loader, stepflow.WithProgressMarkers("nope"))
	assert.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestOpen_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "task.yaml")
	doc := "id: file\nskip: [b]\nsteps:\n  - id: a\n  - id: b\n  - id: c\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	flow, err := stepflow.Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "file", flow.Task().ID)
	assert.Len(t, flow.Steps(), 3)

	a, _ := flow.GetStep("a")
	next, err := flow.GetNextStep(a, flow.Start())
	require.NoError(t, err)
	assert.Equal(t, "c", next.Identifier(), "inline skip list is applied")

	_, err = flow.Watch(ctx)
	assert.Error(t, err, "task files are not watchable")

	t.Run("reload keeps the old task on failure", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("id: broken\n"), 0o644))
		assert.Error(t, flow.Reload(ctx))
		assert.Equal(t, "file", flow.Task().ID)

		require.NoError(t, os.WriteFile(path, []byte("id: fixed\nsteps: [{id: only}]\n"), 0o644))
		require.NoError(t, flow.Reload(ctx))
		assert.Equal(t, "fixed", flow.Task().ID)
	})

	_, err = stepflow.Open(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpen_Directory(t *testing.T) {
	ctx := context.Background()
	dir, _ := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"intro.md":   "---\norder: 1\n---\nWelcome.",
		"consent.md": "---\norder: 2\nfields:\n  - id: agree\n    data_type: boolean\n---\nDo you agree?",
	})

	flow, err := stepflow.Open(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), flow.Task().ID)

	first, err := flow.GetNextStep(nil, flow.Start())
	require.NoError(t, err)
	assert.Equal(t, "intro", first.Identifier())
}

func TestNew_Errors(t *testing.T) {
	_, err := stepflow.New(context.Background(), nil)
	assert.Error(t, err)

	loader, err := memory.NewLoader(&domain.Task{ID: "t", Steps: []domain.Step{&domain.UIStep{ID: "a"}}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stepflow.New(ctx, loader)
	assert.ErrorIs(t, err, context.Canceled)
}
